package model

import (
	"time"
)

const (
	NotificationTransferSent     = "transfer.sent"
	NotificationTransferReceived = "transfer.received"
	NotificationRequestCreated   = "request.created"
	NotificationRequestConfirmed = "request.confirmed"
	NotificationRequestAccepted  = "request.accepted"
	NotificationRequestRejected  = "request.rejected"
)

// Notification is an append-only in-app message owned by its recipient.
// Writing one is always best-effort relative to the operation that caused it.
type Notification struct {
	ID             int64     `json:"-"`
	NotificationID string    `json:"notification_id"`
	AccountID      string    `json:"account_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	ReferenceID    string    `json:"reference_id"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}
