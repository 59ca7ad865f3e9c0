package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/mosolohq/mosolo"
	"github.com/mosolohq/mosolo/api/middleware"
	"github.com/mosolohq/mosolo/config"
	"github.com/mosolohq/mosolo/database"
	"github.com/mosolohq/mosolo/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	config.MockConfig(&config.Configuration{
		Server:   config.ServerConfig{Secure: true, JWTSecret: testJWTSecret},
		Redis:    config.RedisConfig{Dns: mr.Addr()},
		Transfer: config.TransferConfig{SettlementCurrency: "CDF"},
		Requests: config.RequestsConfig{ExpiryHours: 72, PageSize: 50},
		Queue:    config.QueueConfig{NotificationQueue: "new:notification", NumberOfQueues: 1},
	})

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	core, err := mosolo.NewMosolo(&database.Datasource{Conn: db})
	require.NoError(t, err)

	return NewAPI(core).Router(), mock
}

func authHeader(t *testing.T, accountID string) string {
	t.Helper()
	token, err := middleware.IssueToken(testJWTSecret, accountID, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(router *gin.Engine, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func accountRow(id, currency string, balance, version int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"account_id", "name", "email", "phone_number", "card_number", "account_number",
		"currency", "balance", "version", "last_activity_at", "created_at", "meta_data",
	}).AddRow(id, "Holder "+id, "", "", "", "", currency, balance, version, now, now, nil)
}

func TestTransferRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/v1/transfers", "", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTransferRejectsBadToken(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/v1/transfers", "Bearer nonsense", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSendMoneyEndToEnd(t *testing.T) {
	router, mock := newTestRouter(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE account_id = $1")).
		WithArgs("acc_recipient").
		WillReturnRows(accountRow("acc_recipient", "CDF", 50000, 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE account_id IN ($1, $2)")).
		WithArgs("acc_sender", "acc_recipient").
		WillReturnRows(sqlmock.NewRows([]string{
			"account_id", "name", "email", "phone_number", "card_number", "account_number",
			"currency", "balance", "version", "last_activity_at", "created_at", "meta_data",
		}).
			AddRow("acc_sender", "Sender", "", "", "", "", "CDF", int64(100000), int64(4), now, now, nil).
			AddRow("acc_recipient", "Recipient", "", "", "", "", "CDF", int64(50000), int64(1), now, now, nil))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
		WithArgs("acc_sender", int64(70000), sqlmock.AnyArg(), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
		WithArgs("acc_recipient", int64(80000), sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transfer_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transfer_entries")).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	w := doRequest(router, http.MethodPost, "/v1/transfers", authHeader(t, "acc_sender"), gin.H{
		"amount":       "300.00",
		"currency":     "CDF",
		"method":       "bluetooth",
		"recipient_id": "acc_recipient",
		"description":  "rent",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var receipt model.TransferReceipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	assert.Equal(t, int64(70000), receipt.NewSenderBalance)
	assert.Equal(t, int64(30000), receipt.AmountSent)
	assert.False(t, receipt.RateDegraded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendMoneyValidation(t *testing.T) {
	router, _ := newTestRouter(t)
	auth := authHeader(t, "acc_sender")

	cases := []gin.H{
		{"currency": "CDF", "method": "email", "identifier": "a@b.cd"},              // missing amount
		{"amount": "10", "currency": "CDF", "method": "pigeon", "identifier": "x"},  // bad method
		{"amount": "10", "currency": "CDF", "method": "email"},                      // missing identifier
		{"amount": "10", "currency": "CDF", "method": "bluetooth"},                  // missing recipient_id
		{"amount": "ten", "currency": "CDF", "method": "bluetooth", "recipient_id": "acc_r"}, // non-numeric amount
	}
	for _, body := range cases {
		w := doRequest(router, http.MethodPost, "/v1/transfers", auth, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	}
}

func TestGetAccountIsSelfScoped(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/v1/accounts/acc_other", authHeader(t, "acc_me"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetAccountReturnsOwnProfile(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE account_id = $1")).
		WithArgs("acc_me").
		WillReturnRows(accountRow("acc_me", "CDF", 70000, 5))

	w := doRequest(router, http.MethodGet, "/v1/accounts/acc_me", authHeader(t, "acc_me"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var account model.Account
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &account))
	assert.Equal(t, int64(70000), account.Balance)
}

func TestRespondMoneyRequestNeedsAcceptField(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/v1/money-requests/req_1/respond", authHeader(t, "acc_payee"), gin.H{
		"reason": "no accept flag",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondMoneyRequestTerminalIsUnprocessable(t *testing.T) {
	router, mock := newTestRouter(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM money_requests WHERE request_id = $1")).
		WithArgs("req_1").
		WillReturnRows(sqlmock.NewRows([]string{
			"request_id", "requester_id", "payee_id", "amount", "currency",
			"description", "status", "rejection_reason", "expires_at", "responded_at", "created_at",
		}).AddRow("req_1", "acc_requester", "acc_payee", int64(25000), "CDF",
			"", model.RequestAccepted, "", now.Add(time.Hour), now.Add(-time.Minute), now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE money_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := doRequest(router, http.MethodPost, "/v1/money-requests/req_1/respond", authHeader(t, "acc_payee"), gin.H{
		"accept": false,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}

func TestMarkNotificationRead(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read = TRUE")).
		WithArgs("not_1", "acc_me").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doRequest(router, http.MethodPut, "/v1/notifications/not_1/read", authHeader(t, "acc_me"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
