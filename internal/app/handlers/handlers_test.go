package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/pizza-coin/internal/app/handlers"
	"github.com/linemk/pizza-coin/internal/domain/models"
	"github.com/linemk/pizza-coin/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/pizza-coin/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger - фиктивная реализация леджера, запоминает последний вызов
type fakeLedger struct {
	err     error
	balance int64
	board   *models.Leaderboard
	amount  int64

	lastTransfer service.TransferRequest
	lastAdmin    string
	lastTarget   string
	lastReason   string
	lastRate     int64
	lastPage     int
	resetCalled  bool
}

var _ service.Ledger = (*fakeLedger)(nil)

func (f *fakeLedger) Balance(ctx context.Context, userID string) (int64, error) {
	return f.balance, f.err
}

func (f *fakeLedger) CoinsPerMessage(ctx context.Context) (int64, error) {
	return 1, f.err
}

func (f *fakeLedger) EarnOnMessage(ctx context.Context, userID string, amount int64) error {
	return f.err
}

func (f *fakeLedger) Transfer(ctx context.Context, req service.TransferRequest) error {
	f.lastTransfer = req
	return f.err
}

func (f *fakeLedger) Leaderboard(ctx context.Context, page int) (*models.Leaderboard, error) {
	f.lastPage = page
	return f.board, f.err
}

func (f *fakeLedger) SetCoinsPerMessage(ctx context.Context, adminID string, amount int64) error {
	f.lastAdmin, f.lastRate = adminID, amount
	return f.err
}

func (f *fakeLedger) DisableUser(ctx context.Context, adminID, targetID string) error {
	f.lastAdmin, f.lastTarget = adminID, targetID
	return f.err
}

func (f *fakeLedger) EnableUser(ctx context.Context, adminID, targetID string) error {
	f.lastAdmin, f.lastTarget = adminID, targetID
	return f.err
}

func (f *fakeLedger) ResetAllBalances(ctx context.Context, adminID string) (int64, error) {
	f.resetCalled = true
	f.lastAdmin = adminID
	return f.amount, f.err
}

func (f *fakeLedger) Confiscate(ctx context.Context, adminID, targetID, reason string) (int64, error) {
	f.lastAdmin, f.lastTarget, f.lastReason = adminID, targetID, reason
	return f.amount, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// withUser кладёт пользователя в контекст, как это делает JWT-middleware
func withUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), jwtmiddleware.UserIDKey, userID))
}

// withURLParam задаёт параметр пути chi
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handlers.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp.Error
}

func TestBalanceHandler_Success(t *testing.T) {
	ledger := &fakeLedger{balance: 64}
	handler := handlers.BalanceHandler(testLogger(), ledger)

	req := withUser(httptest.NewRequest("GET", "/api/balance", nil), "1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp handlers.BalanceResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "1", resp.UserID)
	assert.Equal(t, int64(64), resp.Balance)
}

func TestBalanceHandler_Unauthorized(t *testing.T) {
	handler := handlers.BalanceHandler(testLogger(), &fakeLedger{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/balance", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBalanceHandler_StoreErrorIsHidden(t *testing.T) {
	ledger := &fakeLedger{err: &service.StoreError{Op: "op", Err: errors.New("pq: password authentication failed")}}
	handler := handlers.BalanceHandler(testLogger(), ledger)

	req := withUser(httptest.NewRequest("GET", "/api/balance", nil), "1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, service.MessageUnexpected, decodeError(t, rr))
}

func TestTransferHandler_Success(t *testing.T) {
	ledger := &fakeLedger{}
	handler := handlers.TransferHandler(testLogger(), ledger)

	req := httptest.NewRequest("POST", "/api/transfer", bytes.NewBufferString(`{"toUser": "2", "amount": 30}`))
	req = withUser(req, "1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, service.TransferRequest{SenderID: "1", ReceiverID: "2", Amount: 30}, ledger.lastTransfer)
}

func TestTransferHandler_InvalidRequest(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "broken json", body: `{"toUser": "2", "amount":`},
		{name: "missing receiver", body: `{"amount": 5}`},
		{name: "non numeric receiver", body: `{"toUser": "bob", "amount": 5}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := &fakeLedger{}
			handler := handlers.TransferHandler(testLogger(), ledger)

			req := withUser(httptest.NewRequest("POST", "/api/transfer", bytes.NewBufferString(tc.body)), "1")
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, ledger.lastTransfer.SenderID, "ledger must not be called")
		})
	}
}

func TestTransferHandler_LedgerErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantText   string
	}{
		{
			name:       "insufficient funds",
			err:        fmt.Errorf("op: %w", &service.InsufficientFundsError{Required: 30, Current: 10}),
			wantStatus: http.StatusConflict,
			wantText:   "Insufficient coins. You need 30 coins but only have 10.",
		},
		{
			name:       "disabled",
			err:        fmt.Errorf("op: %w", &service.UserDisabledError{UserID: "2"}),
			wantStatus: http.StatusConflict,
			wantText:   "This user has been disabled from using Pizza coins.",
		},
		{
			name:       "self transfer",
			err:        fmt.Errorf("op: %w", service.ErrSelfTarget),
			wantStatus: http.StatusBadRequest,
			wantText:   "You cannot send coins to yourself.",
		},
		{
			name:       "amount out of range",
			err:        fmt.Errorf("op: %w", service.ErrInvalidAmount),
			wantStatus: http.StatusBadRequest,
			wantText:   "Invalid coin amount. Must be between 1 and 1000000.",
		},
		{
			name:       "unknown failure",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantText:   service.MessageUnexpected,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := handlers.TransferHandler(testLogger(), &fakeLedger{err: tc.err})

			req := withUser(httptest.NewRequest("POST", "/api/transfer", bytes.NewBufferString(`{"toUser": "2", "amount": 30}`)), "1")
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantText, decodeError(t, rr))
		})
	}
}

func TestLeaderboardHandler(t *testing.T) {
	ledger := &fakeLedger{board: &models.Leaderboard{
		Users:      []models.User{{ID: "1", Balance: 10}},
		Page:       2,
		PageSize:   10,
		Total:      11,
		TotalCoins: 300,
	}}
	handler := handlers.LeaderboardHandler(testLogger(), ledger)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/leaderboard?page=2", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, ledger.lastPage)

	var resp struct {
		Users      []models.User `json:"users"`
		Total      int64         `json:"total"`
		TotalCoins int64         `json:"totalCoins"`
		Pages      int           `json:"pages"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp.Users, 1)
	assert.Equal(t, int64(11), resp.Total)
	assert.Equal(t, int64(300), resp.TotalCoins)
	assert.Equal(t, 2, resp.Pages)
}

func TestLeaderboardHandler_BadPage(t *testing.T) {
	handler := handlers.LeaderboardHandler(testLogger(), &fakeLedger{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/leaderboard?page=abc", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid page number.", decodeError(t, rr))
}

func TestSetRateHandler(t *testing.T) {
	t.Run("zero rate", func(t *testing.T) {
		ledger := &fakeLedger{}
		handler := handlers.SetRateHandler(testLogger(), ledger)

		req := withUser(httptest.NewRequest("POST", "/api/admin/rate", bytes.NewBufferString(`{"amount": 0}`)), "1000")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "1000", ledger.lastAdmin)
		assert.Equal(t, int64(0), ledger.lastRate)
	})

	t.Run("missing amount", func(t *testing.T) {
		ledger := &fakeLedger{}
		handler := handlers.SetRateHandler(testLogger(), ledger)

		req := withUser(httptest.NewRequest("POST", "/api/admin/rate", bytes.NewBufferString(`{}`)), "1000")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, ledger.lastAdmin)
	})

	t.Run("non admin", func(t *testing.T) {
		handler := handlers.SetRateHandler(testLogger(), &fakeLedger{err: fmt.Errorf("op: %w", service.ErrUnauthorized)})

		req := withUser(httptest.NewRequest("POST", "/api/admin/rate", bytes.NewBufferString(`{"amount": 5}`)), "1")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "You are not authorized to perform this action.", decodeError(t, rr))
	})
}

func TestDisableEnableHandlers(t *testing.T) {
	ledger := &fakeLedger{}

	req := withURLParam(httptest.NewRequest("POST", "/api/admin/users/2/disable", nil), "id", "2")
	rr := httptest.NewRecorder()
	handlers.DisableHandler(testLogger(), ledger).ServeHTTP(rr, withUser(req, "1000"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2", ledger.lastTarget)

	req = withURLParam(httptest.NewRequest("POST", "/api/admin/users/3/enable", nil), "id", "3")
	rr = httptest.NewRecorder()
	handlers.EnableHandler(testLogger(), ledger).ServeHTTP(rr, withUser(req, "1000"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "3", ledger.lastTarget)
}

func TestDisableHandler_RejectsBadTargets(t *testing.T) {
	cases := []struct {
		name   string
		target string
	}{
		{name: "self", target: "1000"},
		{name: "not an id", target: "bob"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := &fakeLedger{}
			req := withURLParam(httptest.NewRequest("POST", "/api/admin/users/x/disable", nil), "id", tc.target)
			rr := httptest.NewRecorder()
			handlers.DisableHandler(testLogger(), ledger).ServeHTTP(rr, withUser(req, "1000"))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, ledger.lastTarget)
		})
	}
}

func TestConfiscateHandler(t *testing.T) {
	t.Run("with reason", func(t *testing.T) {
		ledger := &fakeLedger{amount: 42}
		req := httptest.NewRequest("POST", "/api/admin/users/7/confiscate", bytes.NewBufferString(`{"reason": "spam"}`))
		req = withUser(withURLParam(req, "id", "7"), "1000")
		rr := httptest.NewRecorder()
		handlers.ConfiscateHandler(testLogger(), ledger).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp handlers.ConfiscateResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, int64(42), resp.Confiscated)
		assert.Equal(t, "spam", ledger.lastReason)
	})

	t.Run("without body", func(t *testing.T) {
		ledger := &fakeLedger{}
		req := withUser(withURLParam(httptest.NewRequest("POST", "/api/admin/users/7/confiscate", nil), "id", "7"), "1000")
		rr := httptest.NewRecorder()
		handlers.ConfiscateHandler(testLogger(), ledger).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, service.DefaultConfiscationReason, ledger.lastReason)
	})
}

func TestResetHandler(t *testing.T) {
	guard, err := service.NewResetGuard("")
	require.NoError(t, err)

	t.Run("valid code", func(t *testing.T) {
		ledger := &fakeLedger{amount: 5}
		body := fmt.Sprintf(`{"confirm_code": %q}`, service.DefaultResetCode)
		req := withUser(httptest.NewRequest("POST", "/api/admin/reset", bytes.NewBufferString(body)), "1000")
		rr := httptest.NewRecorder()
		handlers.ResetHandler(testLogger(), ledger, guard).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp handlers.ResetResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, int64(5), resp.Affected)
	})

	t.Run("wrong code", func(t *testing.T) {
		ledger := &fakeLedger{}
		req := withUser(httptest.NewRequest("POST", "/api/admin/reset", bytes.NewBufferString(`{"confirm_code": "nope"}`)), "1000")
		rr := httptest.NewRecorder()
		handlers.ResetHandler(testLogger(), ledger, guard).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.False(t, ledger.resetCalled)
	})
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	handlers.HealthHandler(testLogger(), fakePinger{}).ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handlers.HealthHandler(testLogger(), fakePinger{err: errors.New("down")}).ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
