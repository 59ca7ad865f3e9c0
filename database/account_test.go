package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mosolohq/mosolo/internal/apierror"
	"github.com/mosolohq/mosolo/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"account_id", "name", "email", "phone_number", "card_number", "account_number",
		"currency", "balance", "version", "last_activity_at", "created_at", "meta_data",
	})
}

func TestGetAccountByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT account_id, name")).
		WithArgs("acc_1").
		WillReturnRows(accountRows().AddRow(
			"acc_1", "Amina", "amina@example.com", "+243810000001", "", "",
			"CDF", int64(150000), int64(3), now, now, []byte(`{"tier":"basic"}`),
		))

	account, err := ds.GetAccountByID(context.Background(), "acc_1")
	require.NoError(t, err)
	assert.Equal(t, "acc_1", account.AccountID)
	assert.Equal(t, int64(150000), account.Balance)
	assert.Equal(t, int64(3), account.Version)
	assert.Equal(t, "basic", account.MetaData["tier"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT account_id, name")).
		WithArgs("acc_missing").
		WillReturnRows(accountRows())

	_, err = ds.GetAccountByID(context.Background(), "acc_missing")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrNotFound, apierror.CodeOf(err))
}

func TestGetAccountPairPreservesArgumentOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	now := time.Now()
	// The database may hand rows back in either order.
	mock.ExpectQuery(regexp.QuoteMeta("WHERE account_id IN ($1, $2)")).
		WithArgs("acc_sender", "acc_recipient").
		WillReturnRows(accountRows().
			AddRow("acc_recipient", "Bisi", "", "", "", "", "CDF", int64(50000), int64(1), now, now, nil).
			AddRow("acc_sender", "Amina", "", "", "", "", "CDF", int64(100000), int64(2), now, now, nil))

	pair, err := ds.GetAccountPair(context.Background(), "acc_sender", "acc_recipient")
	require.NoError(t, err)
	require.Len(t, pair, 2)
	assert.Equal(t, "acc_sender", pair[0].AccountID)
	assert.Equal(t, "acc_recipient", pair[1].AccountID)
}

func TestGetAccountPairMissingSide(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE account_id IN ($1, $2)")).
		WithArgs("acc_sender", "acc_gone").
		WillReturnRows(accountRows().
			AddRow("acc_sender", "Amina", "", "", "", "", "CDF", int64(100000), int64(2), now, now, nil))

	_, err = ds.GetAccountPair(context.Background(), "acc_sender", "acc_gone")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrNotFound, apierror.CodeOf(err))
}

func TestFindAccountsByEmailReturnsAllMatches(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = $1")).
		WithArgs("dup@example.com").
		WillReturnRows(accountRows().
			AddRow("acc_a", "A", "dup@example.com", "", "", "", "CDF", int64(0), int64(0), now, now, nil).
			AddRow("acc_b", "B", "dup@example.com", "", "", "", "CDF", int64(0), int64(0), now, now, nil))

	accounts, err := ds.FindAccountsByEmail(context.Background(), "dup@example.com")
	require.NoError(t, err)
	// Duplicates must come back in full so the caller can refuse to pick one.
	assert.Len(t, accounts, 2)
}

func transferTestFixtures(now time.Time) (*model.Account, *model.Account, model.TransferEntry, model.TransferEntry) {
	sender := &model.Account{AccountID: "acc_sender", Name: "Amina", Currency: "CDF", Balance: 100000, Version: 4}
	recipient := &model.Account{AccountID: "acc_recipient", Name: "Bisi", Currency: "CDF", Balance: 20000, Version: 9}
	conv := model.Conversion{
		SettlementAmount:   30000,
		SettlementCurrency: "CDF",
		RecipientAmount:    30000,
		Rate:               decimal.NewFromInt(1),
	}
	sent, received := model.BuildEntries(sender, recipient, 30000, conv, "rent", now)
	return sender, recipient, sent, received
}

func TestApplyTransferCommitsAllFourWrites(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	now := time.Now()
	sender, recipient, sent, received := transferTestFixtures(now)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
		WithArgs(sender.AccountID, sender.Balance, sqlmock.AnyArg(), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
		WithArgs(recipient.AccountID, recipient.Balance, sqlmock.AnyArg(), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transfer_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transfer_entries")).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err = ds.ApplyTransfer(context.Background(), sender, recipient, &sent, &received)
	require.NoError(t, err)

	// Version bumps are reflected on the in-memory snapshot after commit.
	assert.Equal(t, int64(5), sender.Version)
	assert.Equal(t, int64(10), recipient.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTransferConflictRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	now := time.Now()
	sender, recipient, sent, received := transferTestFixtures(now)

	mock.ExpectBegin()
	// Another writer bumped the sender's version: zero rows match.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
		WithArgs(sender.AccountID, sender.Balance, sqlmock.AnyArg(), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = ds.ApplyTransfer(context.Background(), sender, recipient, &sent, &received)
	require.Error(t, err)
	assert.Equal(t, apierror.ErrConflict, apierror.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
