/*
Copyright 2025 Mosolo Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package mosolo

import (
	"context"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/mosolohq/mosolo/config"
	"github.com/mosolohq/mosolo/internal/apierror"
	redlock "github.com/mosolohq/mosolo/internal/lock"
	"github.com/mosolohq/mosolo/model"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("mosolo.transfer")

const transferRetryAttempts = 4

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	logrus.Error(msg, err)
	return err
}

// acquireLock serializes transfers out of one sender account. Concurrent
// transfers from the same account queue behind the lock instead of burning
// optimistic-lock retries against each other.
func (m *Mosolo) acquireLock(ctx context.Context, senderID string) (*redlock.Locker, error) {
	locker := redlock.NewLocker(m.redis, senderID, model.GenerateUUIDWithSuffix("loc"))
	err := locker.WaitLock(ctx, time.Second*30, time.Second*10)
	if err != nil {
		return nil, err
	}
	return locker, nil
}

// SendMoney executes one transfer end to end: authorization, validation,
// recipient resolution, rate quoting, and the atomic balance mutation. The
// two in-app notifications ride outside the atomic unit and can never fail
// the transfer.
func (m *Mosolo) SendMoney(ctx context.Context, callerID string, input *model.NewTransfer) (*model.TransferReceipt, error) {
	ctx, span := tracer.Start(ctx, "Sending money")
	defer span.End()

	if callerID == "" {
		return nil, apierror.NewAPIError(apierror.ErrUnauthenticated, "Authentication required", nil)
	}
	if callerID != input.SenderID {
		return nil, apierror.NewAPIError(apierror.ErrPermissionDenied, "Transfers can only be sent from the caller's own account", nil)
	}
	if input.Amount <= 0 {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Transfer amount must be positive", nil)
	}

	recipient, err := m.ResolveRecipient(ctx, input.Method, input.Identifier, input.RecipientID)
	if err != nil {
		return nil, logAndRecordError(span, "recipient resolution failed: ", err)
	}
	if recipient.AccountID == input.SenderID {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Cannot send money to yourself", nil)
	}
	input.RecipientID = recipient.AccountID

	locker, err := m.acquireLock(ctx, input.SenderID)
	if err != nil {
		return nil, logAndRecordError(span, "failed to acquire lock: ", err)
	}
	defer func(locker *redlock.Locker, ctx context.Context) {
		if err := locker.Unlock(ctx); err != nil {
			logrus.Error("failed to release lock", err)
		}
	}(locker, ctx)

	receipt, err := m.applyWithRetry(ctx, input, recipient.AccountID)
	if err != nil {
		return nil, err
	}

	m.fanOutTransferNotifications(ctx, receipt, input)
	return receipt, nil
}

// applyWithRetry runs the snapshot-convert-apply cycle, retrying with a
// fresh snapshot when an optimistic version check loses a race. Every other
// error is permanent.
func (m *Mosolo) applyWithRetry(ctx context.Context, input *model.NewTransfer, recipientID string) (*model.TransferReceipt, error) {
	var receipt *model.TransferReceipt
	operation := func() error {
		r, err := m.applyTransferOnce(ctx, input, recipientID)
		if err != nil {
			if apierror.Is(err, apierror.ErrConflict) {
				logrus.WithField("sender", input.SenderID).Info("transfer hit a version conflict, retrying with a fresh snapshot")
				return err
			}
			return backoff.Permanent(err)
		}
		receipt = r
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(newTransferBackOff(), transferRetryAttempts), ctx))
	if err != nil {
		if apierror.Is(err, apierror.ErrConflict) {
			// The conflict code is internal to the retry loop; a caller only
			// ever sees it once every attempt has lost the race.
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Transfer could not be applied after repeated contention, try again", err)
		}
		return nil, err
	}
	return receipt, nil
}

func newTransferBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	return b
}

func (m *Mosolo) applyTransferOnce(ctx context.Context, input *model.NewTransfer, recipientID string) (*model.TransferReceipt, error) {
	ctx, span := tracer.Start(ctx, "Applying transfer")
	defer span.End()

	pair, err := m.datasource.GetAccountPair(ctx, input.SenderID, recipientID)
	if err != nil {
		return nil, err
	}
	sender, recipient := pair[0], pair[1]

	if input.Currency != sender.Currency {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("Transfer currency '%s' does not match sender account currency '%s'", input.Currency, sender.Currency), nil)
	}
	if !sender.CanDebit(input.Amount) {
		return nil, apierror.NewAPIError(apierror.ErrFailedPrecondition, "Insufficient funds", nil)
	}

	conv := m.convert(ctx, sender, recipient, input.Amount)

	now := time.Now()
	sent, received := model.BuildEntries(sender, recipient, input.Amount, conv, input.Description, now)

	if err := m.datasource.ApplyTransfer(ctx, sender, recipient, &sent, &received); err != nil {
		return nil, err
	}

	return &model.TransferReceipt{
		TransferID:        sent.TransferID,
		NewSenderBalance:  sender.Balance,
		AmountSent:        input.Amount,
		SenderCurrency:    sender.Currency,
		AmountReceived:    conv.RecipientAmount,
		RecipientCurrency: recipient.Currency,
		AppliedRate:       conv.Rate,
		RateDegraded:      conv.Degraded,
		CreatedAt:         now,
	}, nil
}

// convert prices the transfer in two hops: sender currency into the
// settlement currency, then settlement into the recipient currency. The
// credited amount is always derived from the settlement amount, so the two
// legs cannot contradict each other even when one of them degrades. A
// degraded quote on either leg marks the whole conversion degraded.
func (m *Mosolo) convert(ctx context.Context, sender, recipient *model.Account, amount int64) model.Conversion {
	settlementCurrency := "CDF"
	if cfg, err := config.Fetch(); err == nil && cfg.Transfer.SettlementCurrency != "" {
		settlementCurrency = cfg.Transfer.SettlementCurrency
	}

	settlementQuote := m.rates.Quote(ctx, sender.Currency, settlementCurrency)
	settlementAmount := model.ConvertMinor(amount, settlementQuote.Rate, sender.Currency, settlementCurrency)

	if recipient.Currency == settlementCurrency {
		return model.Conversion{
			SettlementAmount:   settlementAmount,
			SettlementCurrency: settlementCurrency,
			RecipientAmount:    settlementAmount,
			Rate:               settlementQuote.Rate,
			Degraded:           settlementQuote.Degraded,
		}
	}

	recipientQuote := m.rates.Quote(ctx, settlementCurrency, recipient.Currency)
	return model.Conversion{
		SettlementAmount:   settlementAmount,
		SettlementCurrency: settlementCurrency,
		RecipientAmount:    model.ConvertMinor(settlementAmount, recipientQuote.Rate, settlementCurrency, recipient.Currency),
		Rate:               settlementQuote.Rate.Mul(recipientQuote.Rate),
		Degraded:           settlementQuote.Degraded || recipientQuote.Degraded,
	}
}

// GetTransfer returns the caller's own side of a transfer.
func (m *Mosolo) GetTransfer(ctx context.Context, callerID, transferID string) (*model.TransferEntry, error) {
	if callerID == "" {
		return nil, apierror.NewAPIError(apierror.ErrUnauthenticated, "Authentication required", nil)
	}
	return m.datasource.GetTransferEntry(ctx, transferID, callerID)
}

// GetAccount returns the caller's own account profile and balance.
func (m *Mosolo) GetAccount(ctx context.Context, callerID, accountID string) (*model.Account, error) {
	if callerID == "" {
		return nil, apierror.NewAPIError(apierror.ErrUnauthenticated, "Authentication required", nil)
	}
	if callerID != accountID {
		return nil, apierror.NewAPIError(apierror.ErrPermissionDenied, "Accounts are only visible to their owner", nil)
	}
	return m.datasource.GetAccountByID(ctx, accountID)
}

// ListEntries pages the caller's ledger, newest first.
func (m *Mosolo) ListEntries(ctx context.Context, callerID, accountID string, limit, offset int) ([]model.TransferEntry, error) {
	if callerID == "" {
		return nil, apierror.NewAPIError(apierror.ErrUnauthenticated, "Authentication required", nil)
	}
	if callerID != accountID {
		return nil, apierror.NewAPIError(apierror.ErrPermissionDenied, "Ledger entries are only visible to their owner", nil)
	}
	limit = boundPageSize(limit)
	return m.datasource.GetEntriesForAccount(ctx, accountID, limit, offset)
}

// boundPageSize clamps a requested page size to the configured maximum,
// substituting the default when the caller passed nothing.
func boundPageSize(limit int) int {
	max := 50
	if cfg, err := config.Fetch(); err == nil && cfg.Requests.PageSize > 0 {
		max = cfg.Requests.PageSize
	}
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
