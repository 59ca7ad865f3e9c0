package database

import (
	"database/sql"
	"log"
	"sync"

	"github.com/mosolohq/mosolo/internal/cache"

	"github.com/mosolohq/mosolo/config"

	_ "github.com/lib/pq"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn  *sql.DB
	Cache cache.Cache
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		newCache, errCache := cache.NewCache()
		if errCache != nil {
			log.Printf("cache init error, reads will go to the database: %v", errCache)
		}
		instance = &Datasource{Conn: con, Cache: newCache}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the wallet tables when they do not exist yet. Order matters:
// ledger entries and requests reference accounts.
func Migrate(db *sql.DB) error {
	if err := createAccountTable(db); err != nil {
		return err
	}
	if err := createTransferTable(db); err != nil {
		return err
	}
	if err := createMoneyRequestTable(db); err != nil {
		return err
	}
	return createNotificationTable(db)
}

// createAccountTable creates a PostgreSQL table for the Account struct.
// The version column drives optimistic concurrency on balance updates.
func createAccountTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			account_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			email TEXT UNIQUE,
			phone_number TEXT UNIQUE,
			card_number TEXT UNIQUE,
			account_number TEXT UNIQUE,
			currency TEXT NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			version BIGINT NOT NULL DEFAULT 0,
			last_activity_at TIMESTAMP NOT NULL DEFAULT NOW(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			meta_data JSONB
		)
	`)
	if err != nil {
		log.Printf("Error creating accounts table: %v", err)
	}
	return err
}

// createTransferTable creates a PostgreSQL table for the TransferEntry struct.
// Two rows per transfer, linked by transfer_id; rows are never updated.
func createTransferTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transfer_entries (
			id SERIAL PRIMARY KEY,
			entry_id TEXT NOT NULL UNIQUE,
			transfer_id TEXT NOT NULL,
			account_id TEXT NOT NULL REFERENCES accounts(account_id),
			direction TEXT NOT NULL CHECK (direction IN ('sent', 'received')),
			amount BIGINT NOT NULL,
			currency TEXT NOT NULL,
			settlement_amount BIGINT NOT NULL,
			settlement_currency TEXT NOT NULL,
			counterparty_id TEXT NOT NULL,
			counterparty_name TEXT,
			balance_before BIGINT NOT NULL,
			balance_after BIGINT NOT NULL,
			status TEXT NOT NULL,
			rate NUMERIC NOT NULL,
			rate_degraded BOOLEAN NOT NULL DEFAULT FALSE,
			description TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transfer_entries_transfer_id ON transfer_entries(transfer_id);
		CREATE INDEX IF NOT EXISTS idx_transfer_entries_account_created ON transfer_entries(account_id, created_at DESC)
	`)
	if err != nil {
		log.Printf("Error creating transfer_entries table: %v", err)
	}
	return err
}

// createMoneyRequestTable creates a PostgreSQL table for the MoneyRequest struct.
func createMoneyRequestTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS money_requests (
			id SERIAL PRIMARY KEY,
			request_id TEXT NOT NULL UNIQUE,
			requester_id TEXT NOT NULL REFERENCES accounts(account_id),
			payee_id TEXT NOT NULL REFERENCES accounts(account_id),
			amount BIGINT NOT NULL CHECK (amount > 0),
			currency TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL CHECK (status IN ('PENDING', 'ACCEPTED', 'REJECTED', 'EXPIRED')),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMP NOT NULL,
			responded_at TIMESTAMP,
			rejection_reason TEXT
		)
	`)
	if err != nil {
		log.Printf("Error creating money_requests table: %v", err)
	}
	return err
}

// createNotificationTable creates a PostgreSQL table for the Notification struct.
func createNotificationTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS notifications (
			id SERIAL PRIMARY KEY,
			notification_id TEXT NOT NULL UNIQUE,
			account_id TEXT NOT NULL REFERENCES accounts(account_id),
			type TEXT NOT NULL,
			title TEXT,
			message TEXT,
			amount BIGINT,
			currency TEXT,
			reference_id TEXT,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		log.Printf("Error creating notifications table: %v", err)
	}
	return err
}
