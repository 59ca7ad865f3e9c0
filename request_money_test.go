package mosolo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mosolohq/mosolo/internal/apierror"
	"github.com/mosolohq/mosolo/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"request_id", "requester_id", "payee_id", "amount", "currency",
		"description", "status", "rejection_reason", "expires_at", "responded_at", "created_at",
	})
}

func TestRequestMoney(t *testing.T) {
	service, mock, mr := newTestService(t)

	expectAccountByID(mock, "acc_requester", "CDF", 0, 0)
	expectAccountByID(mock, "acc_payee", "CDF", 0, 0)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO money_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request, err := service.RequestMoney(context.Background(), "acc_requester", "acc_payee", 25000, "CDF", "lunch")
	require.NoError(t, err)

	assert.Equal(t, model.RequestPending, request.Status)
	assert.Equal(t, "acc_requester", request.RequesterID)
	assert.Equal(t, "acc_payee", request.PayeeID)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), request.ExpiresAt, time.Minute)

	// Both parties' in-app notifications rode the queue.
	assert.NotEmpty(t, mr.Keys())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestMoneyCurrencyMismatch(t *testing.T) {
	service, mock, _ := newTestService(t)

	// The request must be denominated in the requester's own currency.
	expectAccountByID(mock, "acc_requester", "CDF", 0, 0)

	_, err := service.RequestMoney(context.Background(), "acc_requester", "acc_payee", 25000, "USD", "lunch")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrInvalidInput, apierror.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestMoneyFromSelf(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.RequestMoney(context.Background(), "acc_1", "acc_1", 25000, "CDF", "")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrInvalidInput, apierror.CodeOf(err))
}

func TestRespondToRequestAccept(t *testing.T) {
	service, mock, _ := newTestService(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM money_requests WHERE request_id = $1")).
		WithArgs("req_1").
		WillReturnRows(requestRows().AddRow(
			"req_1", "acc_requester", "acc_payee", int64(25000), "CDF",
			"lunch", model.RequestPending, "", now.Add(time.Hour), nil, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE money_requests")).
		WithArgs("req_1", model.RequestAccepted, "", sqlmock.AnyArg(), model.RequestPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	request, err := service.RespondToRequest(context.Background(), "acc_payee", "req_1", true, "")
	require.NoError(t, err)

	assert.Equal(t, model.RequestAccepted, request.Status)
	require.NotNil(t, request.RespondedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondToRequestRejectKeepsReason(t *testing.T) {
	service, mock, _ := newTestService(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM money_requests WHERE request_id = $1")).
		WithArgs("req_1").
		WillReturnRows(requestRows().AddRow(
			"req_1", "acc_requester", "acc_payee", int64(25000), "CDF",
			"lunch", model.RequestPending, "", now.Add(time.Hour), nil, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE money_requests")).
		WithArgs("req_1", model.RequestRejected, "not today", sqlmock.AnyArg(), model.RequestPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	request, err := service.RespondToRequest(context.Background(), "acc_payee", "req_1", false, "not today")
	require.NoError(t, err)

	assert.Equal(t, model.RequestRejected, request.Status)
	assert.Equal(t, "not today", request.RejectionReason)
}

func TestRespondToRequestOnlyPayee(t *testing.T) {
	service, mock, _ := newTestService(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM money_requests WHERE request_id = $1")).
		WithArgs("req_1").
		WillReturnRows(requestRows().AddRow(
			"req_1", "acc_requester", "acc_payee", int64(25000), "CDF",
			"lunch", model.RequestPending, "", now.Add(time.Hour), nil, now))

	_, err := service.RespondToRequest(context.Background(), "acc_requester", "req_1", true, "")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrPermissionDenied, apierror.CodeOf(err))
}

func TestRespondToRequestTwice(t *testing.T) {
	service, mock, _ := newTestService(t)

	now := time.Now()
	responded := now.Add(-time.Minute)
	// Already rejected: the guarded update matches nothing, and the row's
	// terminal fields stay as they were.
	mock.ExpectQuery(regexp.QuoteMeta("FROM money_requests WHERE request_id = $1")).
		WithArgs("req_1").
		WillReturnRows(requestRows().AddRow(
			"req_1", "acc_requester", "acc_payee", int64(25000), "CDF",
			"lunch", model.RequestRejected, "not today", now.Add(time.Hour), responded, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE money_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := service.RespondToRequest(context.Background(), "acc_payee", "req_1", true, "")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrFailedPrecondition, apierror.CodeOf(err))
}

func TestRespondToRequestExpiredWindow(t *testing.T) {
	service, mock, _ := newTestService(t)

	now := time.Now()
	// Still PENDING in storage but past the window: the expiry predicate in
	// the update keeps the transition from landing.
	mock.ExpectQuery(regexp.QuoteMeta("FROM money_requests WHERE request_id = $1")).
		WithArgs("req_1").
		WillReturnRows(requestRows().AddRow(
			"req_1", "acc_requester", "acc_payee", int64(25000), "CDF",
			"lunch", model.RequestPending, "", now.Add(-time.Hour), nil, now.Add(-80*time.Hour)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE money_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := service.RespondToRequest(context.Background(), "acc_payee", "req_1", true, "")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrFailedPrecondition, apierror.CodeOf(err))
}

func TestGetMoneyRequestReadsThroughExpiry(t *testing.T) {
	service, mock, _ := newTestService(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM money_requests WHERE request_id = $1")).
		WithArgs("req_1").
		WillReturnRows(requestRows().AddRow(
			"req_1", "acc_requester", "acc_payee", int64(25000), "CDF",
			"lunch", model.RequestPending, "", now.Add(-time.Hour), nil, now.Add(-80*time.Hour)))

	request, err := service.GetMoneyRequest(context.Background(), "acc_requester", "req_1")
	require.NoError(t, err)
	assert.Equal(t, model.RequestExpired, request.Status)
}

func TestGetMoneyRequestPartiesOnly(t *testing.T) {
	service, mock, _ := newTestService(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM money_requests WHERE request_id = $1")).
		WithArgs("req_1").
		WillReturnRows(requestRows().AddRow(
			"req_1", "acc_requester", "acc_payee", int64(25000), "CDF",
			"lunch", model.RequestPending, "", now.Add(time.Hour), nil, now))

	_, err := service.GetMoneyRequest(context.Background(), "acc_stranger", "req_1")
	require.Error(t, err)
	assert.Equal(t, apierror.ErrPermissionDenied, apierror.CodeOf(err))
}

func TestListMoneyRequestsBadDirection(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.ListMoneyRequests(context.Background(), "acc_1", "sideways", 10, 0)
	require.Error(t, err)
	assert.Equal(t, apierror.ErrInvalidInput, apierror.CodeOf(err))
}
