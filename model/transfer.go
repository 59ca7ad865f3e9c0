package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DirectionSent     = "sent"
	DirectionReceived = "received"

	StatusCompleted = "COMPLETED"
)

// TransferMethod is the closed set of channels a recipient can be addressed
// through. Adding a channel means adding a constant here and a resolver arm,
// both compile-time checked; there is no free-form string dispatch.
type TransferMethod string

const (
	MethodCard      TransferMethod = "card"
	MethodAccount   TransferMethod = "account"
	MethodEmail     TransferMethod = "email"
	MethodPhone     TransferMethod = "phone"
	MethodBluetooth TransferMethod = "bluetooth"
	MethodWifi      TransferMethod = "wifi"
)

// ParseTransferMethod validates a wire-level method tag.
func ParseTransferMethod(s string) (TransferMethod, error) {
	switch m := TransferMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodCard, MethodAccount, MethodEmail, MethodPhone, MethodBluetooth, MethodWifi:
		return m, nil
	default:
		return "", fmt.Errorf("unknown transfer method %q", s)
	}
}

// Proximity reports whether the method carries the recipient account id
// directly, bypassing identifier resolution.
func (m TransferMethod) Proximity() bool {
	return m == MethodBluetooth || m == MethodWifi
}

// NewTransfer is the resolved input to the ledger mutator. Amount is in minor
// units of the sender's currency. Exactly one of Identifier or RecipientID is
// set, depending on whether Method is a proximity channel.
type NewTransfer struct {
	SenderID    string
	Amount      int64
	Currency    string
	Method      TransferMethod
	Identifier  string
	RecipientID string
	Description string
}

// TransferEntry is one side of a completed transfer: an immutable, append-only
// ledger record owned by a single account. Two entries share a TransferID.
type TransferEntry struct {
	ID                 int64           `json:"-"`
	EntryID            string          `json:"entry_id"`
	TransferID         string          `json:"transfer_id"`
	AccountID          string          `json:"account_id"`
	Direction          string          `json:"direction"`
	Amount             int64           `json:"amount"`
	Currency           string          `json:"currency"`
	SettlementAmount   int64           `json:"settlement_amount"`
	SettlementCurrency string          `json:"settlement_currency"`
	CounterpartyID     string          `json:"counterparty_id"`
	CounterpartyName   string          `json:"counterparty_name"`
	BalanceBefore      int64           `json:"balance_before"`
	BalanceAfter       int64           `json:"balance_after"`
	Status             string          `json:"status"`
	Rate               decimal.Decimal `json:"rate"`
	RateDegraded       bool            `json:"rate_degraded"`
	Description        string          `json:"description"`
	CreatedAt          time.Time       `json:"created_at"`
}

// TransferReceipt is the terminal success result returned to the caller.
type TransferReceipt struct {
	TransferID        string          `json:"transfer_id"`
	NewSenderBalance  int64           `json:"new_sender_balance"`
	AmountSent        int64           `json:"amount_sent"`
	SenderCurrency    string          `json:"sender_currency"`
	AmountReceived    int64           `json:"amount_received"`
	RecipientCurrency string          `json:"recipient_currency"`
	AppliedRate       decimal.Decimal `json:"applied_rate"`
	RateDegraded      bool            `json:"rate_degraded"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Conversion carries the settlement math for one transfer. SettlementAmount is
// identical on both entries; that equality is the zero-sum invariant.
type Conversion struct {
	SettlementAmount   int64
	SettlementCurrency string
	RecipientAmount    int64
	Rate               decimal.Decimal
	Degraded           bool
}

// BuildEntries mutates both accounts and produces the two ledger entries for a
// transfer. The sender must already have been checked for sufficient funds.
// Both entries carry the same TransferID, settlement amount and rate.
func BuildEntries(sender, recipient *Account, amount int64, conv Conversion, description string, at time.Time) (TransferEntry, TransferEntry) {
	transferID := GenerateUUIDWithSuffix("trf")

	senderBefore := sender.Balance
	recipientBefore := recipient.Balance

	sender.Debit(amount, at)
	recipient.Credit(conv.RecipientAmount, at)

	sent := TransferEntry{
		EntryID:            GenerateUUIDWithSuffix("ent"),
		TransferID:         transferID,
		AccountID:          sender.AccountID,
		Direction:          DirectionSent,
		Amount:             amount,
		Currency:           sender.Currency,
		SettlementAmount:   conv.SettlementAmount,
		SettlementCurrency: conv.SettlementCurrency,
		CounterpartyID:     recipient.AccountID,
		CounterpartyName:   recipient.Name,
		BalanceBefore:      senderBefore,
		BalanceAfter:       sender.Balance,
		Status:             StatusCompleted,
		Rate:               conv.Rate,
		RateDegraded:       conv.Degraded,
		Description:        description,
		CreatedAt:          at,
	}

	received := TransferEntry{
		EntryID:            GenerateUUIDWithSuffix("ent"),
		TransferID:         transferID,
		AccountID:          recipient.AccountID,
		Direction:          DirectionReceived,
		Amount:             conv.RecipientAmount,
		Currency:           recipient.Currency,
		SettlementAmount:   conv.SettlementAmount,
		SettlementCurrency: conv.SettlementCurrency,
		CounterpartyID:     sender.AccountID,
		CounterpartyName:   sender.Name,
		BalanceBefore:      recipientBefore,
		BalanceAfter:       recipient.Balance,
		Status:             StatusCompleted,
		Rate:               conv.Rate,
		RateDegraded:       conv.Degraded,
		Description:        description,
		CreatedAt:          at,
	}

	return sent, received
}
