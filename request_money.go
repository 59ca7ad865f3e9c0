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

	"github.com/mosolohq/mosolo/config"
	"github.com/mosolohq/mosolo/internal/apierror"
	"github.com/mosolohq/mosolo/model"
)

// RequestMoney creates a pending money request from the caller toward a
// payee. The expiry window is stamped at creation; nothing moves money here.
func (m *Mosolo) RequestMoney(ctx context.Context, callerID, payeeID string, amount int64, currency, description string) (*model.MoneyRequest, error) {
	ctx, span := tracer.Start(ctx, "Creating money request")
	defer span.End()

	if callerID == "" {
		return nil, apierror.NewAPIError(apierror.ErrUnauthenticated, "Authentication required", nil)
	}
	if amount <= 0 {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Request amount must be positive", nil)
	}
	if payeeID == callerID {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Cannot request money from yourself", nil)
	}

	requester, err := m.datasource.GetAccountByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if currency != requester.Currency {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("Request currency '%s' does not match your account currency '%s'", currency, requester.Currency), nil)
	}

	payee, err := m.datasource.GetAccountByID(ctx, payeeID)
	if err != nil {
		return nil, err
	}

	expiryHours := 72
	if cfg, err := config.Fetch(); err == nil && cfg.Requests.ExpiryHours > 0 {
		expiryHours = cfg.Requests.ExpiryHours
	}

	now := time.Now()
	request := &model.MoneyRequest{
		RequestID:   model.GenerateUUIDWithSuffix("req"),
		RequesterID: callerID,
		PayeeID:     payee.AccountID,
		Amount:      amount,
		Currency:    currency,
		Description: description,
		Status:      model.RequestPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Duration(expiryHours) * time.Hour),
	}

	created, err := m.datasource.CreateMoneyRequest(ctx, request)
	if err != nil {
		return nil, logAndRecordError(span, "failed to create money request: ", err)
	}

	m.notify(ctx, &model.Notification{
		AccountID:   payee.AccountID,
		Type:        model.NotificationRequestCreated,
		Title:       "Money request",
		Message:     fmt.Sprintf("You were asked to pay %s", model.FormatMinor(amount, currency)),
		Amount:      amount,
		Currency:    currency,
		ReferenceID: created.RequestID,
	})
	m.notify(ctx, &model.Notification{
		AccountID:   callerID,
		Type:        model.NotificationRequestConfirmed,
		Title:       "Request sent",
		Message:     fmt.Sprintf("You asked %s to pay %s", payee.Name, model.FormatMinor(amount, currency)),
		Amount:      amount,
		Currency:    currency,
		ReferenceID: created.RequestID,
	})

	return created, nil
}

// RespondToRequest resolves a pending request. Only the payee may respond,
// and only once; a response to a terminal or lapsed request is a failed
// precondition. Accepting never mutates balances.
func (m *Mosolo) RespondToRequest(ctx context.Context, callerID, requestID string, accept bool, reason string) (*model.MoneyRequest, error) {
	ctx, span := tracer.Start(ctx, "Responding to money request")
	defer span.End()

	if callerID == "" {
		return nil, apierror.NewAPIError(apierror.ErrUnauthenticated, "Authentication required", nil)
	}

	request, err := m.datasource.GetMoneyRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.PayeeID != callerID {
		return nil, apierror.NewAPIError(apierror.ErrPermissionDenied, "Only the payee can respond to a money request", nil)
	}

	status := model.RequestAccepted
	if !accept {
		status = model.RequestRejected
	} else {
		reason = ""
	}

	now := time.Now()
	transitioned, err := m.datasource.RespondMoneyRequest(ctx, requestID, status, reason, now)
	if err != nil {
		return nil, logAndRecordError(span, "failed to respond to money request: ", err)
	}
	if !transitioned {
		// The guarded update matched nothing: already responded, or expired.
		if request.Terminal() || request.Expired(now) {
			return nil, apierror.NewAPIError(apierror.ErrFailedPrecondition,
				fmt.Sprintf("Money request is no longer pending (status '%s')", effectiveStatus(request, now)), nil)
		}
		return nil, apierror.NewAPIError(apierror.ErrFailedPrecondition, "Money request is no longer pending", nil)
	}

	request.Status = status
	request.RespondedAt = &now
	request.RejectionReason = reason

	requesterType := model.NotificationRequestAccepted
	if !accept {
		requesterType = model.NotificationRequestRejected
	}
	m.notify(ctx, &model.Notification{
		AccountID:   request.RequesterID,
		Type:        requesterType,
		Title:       "Money request update",
		Message:     fmt.Sprintf("Your request for %s was %s", model.FormatMinor(request.Amount, request.Currency), statusWord(accept)),
		Amount:      request.Amount,
		Currency:    request.Currency,
		ReferenceID: request.RequestID,
	})
	m.notify(ctx, &model.Notification{
		AccountID:   request.PayeeID,
		Type:        model.NotificationRequestConfirmed,
		Title:       "Response recorded",
		Message:     fmt.Sprintf("You %s a request for %s", statusWord(accept), model.FormatMinor(request.Amount, request.Currency)),
		Amount:      request.Amount,
		Currency:    request.Currency,
		ReferenceID: request.RequestID,
	})

	return request, nil
}

func statusWord(accept bool) string {
	if accept {
		return "accepted"
	}
	return "rejected"
}

// effectiveStatus reports the status a reader should see: a pending row past
// its expiry reads as expired even before the sweep flips it.
func effectiveStatus(request *model.MoneyRequest, now time.Time) string {
	if request.Status == model.RequestPending && request.Expired(now) {
		return model.RequestExpired
	}
	return request.Status
}

// GetMoneyRequest returns one request visible to either party.
func (m *Mosolo) GetMoneyRequest(ctx context.Context, callerID, requestID string) (*model.MoneyRequest, error) {
	if callerID == "" {
		return nil, apierror.NewAPIError(apierror.ErrUnauthenticated, "Authentication required", nil)
	}
	request, err := m.datasource.GetMoneyRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != callerID && request.PayeeID != callerID {
		return nil, apierror.NewAPIError(apierror.ErrPermissionDenied, "Money requests are only visible to their parties", nil)
	}
	request.Status = effectiveStatus(request, time.Now())
	return request, nil
}

// ListMoneyRequests pages the caller's requests, newest first. direction is
// "sent", "received" or empty for both.
func (m *Mosolo) ListMoneyRequests(ctx context.Context, callerID, direction string, limit, offset int) ([]model.MoneyRequest, error) {
	if callerID == "" {
		return nil, apierror.NewAPIError(apierror.ErrUnauthenticated, "Authentication required", nil)
	}
	switch direction {
	case "", "sent", "received":
	default:
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "direction must be 'sent' or 'received'", nil)
	}
	limit = boundPageSize(limit)

	requests, err := m.datasource.ListMoneyRequests(ctx, callerID, direction, limit, offset)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range requests {
		requests[i].Status = effectiveStatus(&requests[i], now)
	}
	return requests, nil
}

// SweepExpiredRequests flips overdue pending requests to expired. Invoked
// out-of-band, typically from the sweep command.
func (m *Mosolo) SweepExpiredRequests(ctx context.Context) (int64, error) {
	return m.datasource.ExpireMoneyRequests(ctx, time.Now())
}
