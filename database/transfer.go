package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mosolohq/mosolo/internal/apierror"
	"github.com/mosolohq/mosolo/model"
	"github.com/shopspring/decimal"
)

const entryColumns = `entry_id, transfer_id, account_id, direction, amount, currency, settlement_amount, settlement_currency, counterparty_id, counterparty_name, balance_before, balance_after, status, rate, rate_degraded, description, created_at`

func scanEntry(row interface{ Scan(...interface{}) error }) (*model.TransferEntry, error) {
	entry := &model.TransferEntry{}
	var rate string
	err := row.Scan(
		&entry.EntryID,
		&entry.TransferID,
		&entry.AccountID,
		&entry.Direction,
		&entry.Amount,
		&entry.Currency,
		&entry.SettlementAmount,
		&entry.SettlementCurrency,
		&entry.CounterpartyID,
		&entry.CounterpartyName,
		&entry.BalanceBefore,
		&entry.BalanceAfter,
		&entry.Status,
		&rate,
		&entry.RateDegraded,
		&entry.Description,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(rate)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to parse stored rate", err)
	}
	entry.Rate = parsed
	return entry, nil
}

// GetTransferEntry returns one account's view of a transfer. Both parties
// hold an entry under the same transfer id, so the account filter picks the
// right side.
func (d Datasource) GetTransferEntry(ctx context.Context, transferID, accountID string) (*model.TransferEntry, error) {
	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM transfer_entries WHERE transfer_id = $1 AND account_id = $2
	`, entryColumns), transferID, accountID)

	entry, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transfer with ID '%s' not found", transferID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transfer", err)
	}
	return entry, nil
}

// GetEntriesForAccount pages through an account's ledger, newest first.
func (d Datasource) GetEntriesForAccount(ctx context.Context, accountID string, limit, offset int) ([]model.TransferEntry, error) {
	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM transfer_entries
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, entryColumns), accountID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transfer entries", err)
	}
	defer rows.Close()

	var entries []model.TransferEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transfer entry", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over transfer entries", err)
	}
	return entries, nil
}
