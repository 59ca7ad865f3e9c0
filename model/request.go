package model

import (
	"time"
)

const (
	RequestPending  = "PENDING"
	RequestAccepted = "ACCEPTED"
	RequestRejected = "REJECTED"
	RequestExpired  = "EXPIRED"
)

// MoneyRequest is a two-party promise-to-pay object. The requester creates it,
// the payee resolves it exactly once (accept or reject), or it expires
// out-of-band after its window. Terminal rows are immutable; accepting a
// request never moves money by itself.
type MoneyRequest struct {
	ID              int64      `json:"-"`
	RequestID       string     `json:"request_id"`
	RequesterID     string     `json:"requester_id"`
	PayeeID         string     `json:"payee_id"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       time.Time  `json:"expires_at"`
	RespondedAt     *time.Time `json:"responded_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

// Terminal reports whether the request can no longer change state.
func (r *MoneyRequest) Terminal() bool {
	return r.Status != RequestPending
}

// Expired reports whether the request's window has lapsed, even if the
// out-of-band sweep has not flipped the row yet.
func (r *MoneyRequest) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
