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

package database

import (
	"context"
	"time"

	"github.com/mosolohq/mosolo/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	account
	transfer
	moneyRequest
	notification
}

// account defines methods for reading accounts and applying balance movements.
type account interface {
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)                       // Retrieves one account by its public id
	GetAccountPair(ctx context.Context, firstID, secondID string) ([]*model.Account, error)      // Reads two accounts as one consistent snapshot
	FindAccountsByEmail(ctx context.Context, email string) ([]model.Account, error)              // Contact lookup; may surface uniqueness violations
	FindAccountsByPhone(ctx context.Context, phone string) ([]model.Account, error)              // Contact lookup by phone number
	FindAccountsByCardNumber(ctx context.Context, card string) ([]model.Account, error)          // Contact lookup by card number
	FindAccountsByAccountNumber(ctx context.Context, number string) ([]model.Account, error)     // Contact lookup by account number
	ApplyTransfer(ctx context.Context, sender, recipient *model.Account, sent, received *model.TransferEntry) error // Atomic debit+credit+both entries
}

// transfer defines read methods over the append-only ledger entries.
type transfer interface {
	GetTransferEntry(ctx context.Context, transferID, accountID string) (*model.TransferEntry, error) // One account's side of a transfer
	GetEntriesForAccount(ctx context.Context, accountID string, limit, offset int) ([]model.TransferEntry, error)
}

// moneyRequest defines methods for the request lifecycle.
type moneyRequest interface {
	CreateMoneyRequest(ctx context.Context, req *model.MoneyRequest) (*model.MoneyRequest, error)
	GetMoneyRequest(ctx context.Context, requestID string) (*model.MoneyRequest, error)
	RespondMoneyRequest(ctx context.Context, requestID, status, reason string, respondedAt time.Time) (bool, error) // Guarded pending→terminal transition
	ExpireMoneyRequests(ctx context.Context, now time.Time) (int64, error)                                          // Sweeps overdue pending requests
	ListMoneyRequests(ctx context.Context, accountID, direction string, limit, offset int) ([]model.MoneyRequest, error)
}

// notification defines methods over the append-only notification store.
type notification interface {
	RecordNotification(ctx context.Context, n *model.Notification) (*model.Notification, error)
	ListNotifications(ctx context.Context, accountID string, limit, offset int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID, accountID string) error
}
