package model

import (
	"time"
)

// Account is one wallet user's balance-bearing record. Accounts are created by
// the external provisioning flow at signup; this core only reads them and
// mutates Balance, Version and LastActivityAt inside the transfer transaction.
type Account struct {
	ID             int64                  `json:"-"`
	AccountID      string                 `json:"account_id"`
	Name           string                 `json:"name"`
	Email          string                 `json:"email"`
	PhoneNumber    string                 `json:"phone_number"`
	CardNumber     string                 `json:"card_number"`
	AccountNumber  string                 `json:"account_number"`
	Currency       string                 `json:"currency"`
	Balance        int64                  `json:"balance"`
	Version        int64                  `json:"-"`
	LastActivityAt time.Time              `json:"last_activity_at"`
	CreatedAt      time.Time              `json:"created_at"`
	MetaData       map[string]interface{} `json:"meta_data,omitempty"`
}

// CanDebit reports whether the account holds at least amount minor units.
func (a *Account) CanDebit(amount int64) bool {
	return a.Balance >= amount
}

// Debit removes amount minor units and stamps activity. Callers must have
// checked CanDebit first; the balance never goes negative here.
func (a *Account) Debit(amount int64, at time.Time) {
	a.Balance -= amount
	a.LastActivityAt = at
}

// Credit adds amount minor units and stamps activity.
func (a *Account) Credit(amount int64, at time.Time) {
	a.Balance += amount
	a.LastActivityAt = at
}
