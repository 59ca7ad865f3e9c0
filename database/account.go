package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mosolohq/mosolo/internal/apierror"
	"github.com/mosolohq/mosolo/model"
)

const accountColumns = `account_id, name, COALESCE(email, ''), COALESCE(phone_number, ''), COALESCE(card_number, ''), COALESCE(account_number, ''), currency, balance, version, last_activity_at, created_at, meta_data`

func scanAccount(row interface{ Scan(...interface{}) error }) (*model.Account, error) {
	account := &model.Account{}
	var metaDataJSON []byte
	err := row.Scan(
		&account.AccountID,
		&account.Name,
		&account.Email,
		&account.PhoneNumber,
		&account.CardNumber,
		&account.AccountNumber,
		&account.Currency,
		&account.Balance,
		&account.Version,
		&account.LastActivityAt,
		&account.CreatedAt,
		&metaDataJSON,
	)
	if err != nil {
		return nil, err
	}
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &account.MetaData); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
		}
	}
	return account, nil
}

// GetAccountByID fetches one account. Reads go through the cache when one is
// configured; the cache is invalidated whenever ApplyTransfer touches the row.
func (d Datasource) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	cacheKey := fmt.Sprintf("account:%s", id)
	if d.Cache != nil {
		var cached model.Account
		if err := d.Cache.Get(ctx, cacheKey, &cached); err == nil && cached.AccountID != "" {
			return &cached, nil
		}
	}

	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM accounts WHERE account_id = $1
	`, accountColumns), id)

	account, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve account", err)
	}

	if d.Cache != nil {
		if err := d.Cache.Set(ctx, cacheKey, account, time.Minute); err != nil {
			log.Printf("Failed to cache account: %v", err)
		}
	}

	return account, nil
}

// GetAccountPair reads both sides of a transfer in one statement so the
// snapshot is consistent. It always bypasses the cache: the ledger mutator
// must see current balances and versions.
func (d Datasource) GetAccountPair(ctx context.Context, firstID, secondID string) ([]*model.Account, error) {
	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM accounts WHERE account_id IN ($1, $2)
	`, accountColumns), firstID, secondID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve accounts", err)
	}
	defer rows.Close()

	found := map[string]*model.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan account data", err)
		}
		found[account.AccountID] = account
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over accounts", err)
	}

	ordered := make([]*model.Account, 0, 2)
	for _, id := range []string{firstID, secondID} {
		account, ok := found[id]
		if !ok {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with ID '%s' not found", id), nil)
		}
		ordered = append(ordered, account)
	}
	return ordered, nil
}

func (d Datasource) findAccountsBy(ctx context.Context, column, value string) ([]model.Account, error) {
	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM accounts WHERE %s = $1
	`, accountColumns, column), value)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to look up account", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan account data", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over accounts", err)
	}
	return accounts, nil
}

func (d Datasource) FindAccountsByEmail(ctx context.Context, email string) ([]model.Account, error) {
	return d.findAccountsBy(ctx, "email", email)
}

func (d Datasource) FindAccountsByPhone(ctx context.Context, phone string) ([]model.Account, error) {
	return d.findAccountsBy(ctx, "phone_number", phone)
}

func (d Datasource) FindAccountsByCardNumber(ctx context.Context, card string) ([]model.Account, error) {
	return d.findAccountsBy(ctx, "card_number", card)
}

func (d Datasource) FindAccountsByAccountNumber(ctx context.Context, number string) ([]model.Account, error) {
	return d.findAccountsBy(ctx, "account_number", number)
}

// ApplyTransfer commits one transfer: both balance updates and both ledger
// entries in a single database transaction. Either everything lands or
// nothing does; a version mismatch on either account aborts with a conflict
// the caller retries against a fresh snapshot.
func (d Datasource) ApplyTransfer(ctx context.Context, sender, recipient *model.Account, sent, received *model.TransferEntry) error {
	tx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelDefault})
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}

	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if err := updateAccount(ctx, tx, sender); err != nil {
		return err
	}
	if err := updateAccount(ctx, tx, recipient); err != nil {
		return err
	}
	if err := insertEntry(ctx, tx, sent); err != nil {
		return err
	}
	if err := insertEntry(ctx, tx, received); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}

	if d.Cache != nil {
		_ = d.Cache.Delete(ctx, fmt.Sprintf("account:%s", sender.AccountID))
		_ = d.Cache.Delete(ctx, fmt.Sprintf("account:%s", recipient.AccountID))
	}

	return nil
}

// updateAccount writes one account's balance under optimistic locking. The
// version predicate makes a concurrent writer's update visible as zero
// affected rows instead of a lost update.
func updateAccount(ctx context.Context, tx *sql.Tx, account *model.Account) error {
	query := `
        UPDATE accounts
        SET balance = $2, last_activity_at = $3, version = version + 1
        WHERE account_id = $1 AND version = $4
    `

	result, err := tx.ExecContext(ctx, query, account.AccountID, account.Balance, account.LastActivityAt, account.Version)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update account balance", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Optimistic locking failure: account with ID '%s' was updated by another transaction", account.AccountID), nil)
	}

	account.Version++
	return nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, entry *model.TransferEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transfer_entries(entry_id, transfer_id, account_id, direction, amount, currency, settlement_amount, settlement_currency, counterparty_id, counterparty_name, balance_before, balance_after, status, rate, rate_degraded, description, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		entry.EntryID, entry.TransferID, entry.AccountID, entry.Direction, entry.Amount, entry.Currency,
		entry.SettlementAmount, entry.SettlementCurrency, entry.CounterpartyID, entry.CounterpartyName,
		entry.BalanceBefore, entry.BalanceAfter, entry.Status, entry.Rate.String(), entry.RateDegraded,
		entry.Description, entry.CreatedAt,
	)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record ledger entry", err)
	}
	return nil
}
