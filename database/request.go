package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mosolohq/mosolo/internal/apierror"
	"github.com/mosolohq/mosolo/model"
)

const requestColumns = `request_id, requester_id, payee_id, amount, currency, COALESCE(description, ''), status, COALESCE(rejection_reason, ''), expires_at, responded_at, created_at`

func scanMoneyRequest(row interface{ Scan(...interface{}) error }) (*model.MoneyRequest, error) {
	request := &model.MoneyRequest{}
	var respondedAt sql.NullTime
	err := row.Scan(
		&request.RequestID,
		&request.RequesterID,
		&request.PayeeID,
		&request.Amount,
		&request.Currency,
		&request.Description,
		&request.Status,
		&request.RejectionReason,
		&request.ExpiresAt,
		&respondedAt,
		&request.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if respondedAt.Valid {
		request.RespondedAt = &respondedAt.Time
	}
	return request, nil
}

func (d Datasource) CreateMoneyRequest(ctx context.Context, request *model.MoneyRequest) (*model.MoneyRequest, error) {
	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO money_requests(request_id, requester_id, payee_id, amount, currency, description, status, expires_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		request.RequestID, request.RequesterID, request.PayeeID, request.Amount, request.Currency,
		request.Description, request.Status, request.ExpiresAt, request.CreatedAt,
	)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create money request", err)
	}
	return request, nil
}

func (d Datasource) GetMoneyRequest(ctx context.Context, requestID string) (*model.MoneyRequest, error) {
	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM money_requests WHERE request_id = $1
	`, requestColumns), requestID)

	request, err := scanMoneyRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Money request with ID '%s' not found", requestID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve money request", err)
	}
	return request, nil
}

// RespondMoneyRequest moves a request out of PENDING. The guarded update
// only matches a request that is still pending and not past its expiry, so
// a second response or a late response affects zero rows and the caller can
// report the precondition failure. Returns whether the transition happened.
func (d Datasource) RespondMoneyRequest(ctx context.Context, requestID, status, reason string, respondedAt time.Time) (bool, error) {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE money_requests
		SET status = $2, rejection_reason = NULLIF($3, ''), responded_at = $4
		WHERE request_id = $1 AND status = $5 AND expires_at > $4
	`, requestID, status, reason, respondedAt, model.RequestPending)
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update money request", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	return rowsAffected > 0, nil
}

// ExpireMoneyRequests sweeps pending requests whose expiry has passed.
// Reads also treat an overdue PENDING row as expired; this just makes the
// stored status catch up.
func (d Datasource) ExpireMoneyRequests(ctx context.Context, now time.Time) (int64, error) {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE money_requests
		SET status = $1
		WHERE status = $2 AND expires_at <= $3
	`, model.RequestExpired, model.RequestPending, now)
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to expire money requests", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	return rowsAffected, nil
}

// ListMoneyRequests pages requests where the account is either side.
// direction is "sent" (requester), "received" (payee) or "" for both.
func (d Datasource) ListMoneyRequests(ctx context.Context, accountID, direction string, limit, offset int) ([]model.MoneyRequest, error) {
	var predicate string
	switch direction {
	case "sent":
		predicate = "requester_id = $1"
	case "received":
		predicate = "payee_id = $1"
	default:
		predicate = "(requester_id = $1 OR payee_id = $1)"
	}

	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM money_requests
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, requestColumns, predicate), accountID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve money requests", err)
	}
	defer rows.Close()

	var requests []model.MoneyRequest
	for rows.Next() {
		request, err := scanMoneyRequest(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan money request", err)
		}
		requests = append(requests, *request)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over money requests", err)
	}
	return requests, nil
}
