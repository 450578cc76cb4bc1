package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/linemk/pizza-coin/internal/domain/models"
	"github.com/linemk/pizza-coin/internal/service"
)

// BalanceResponse - баланс текущего пользователя
type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

// BalanceHandler обрабатывает запрос GET /api/balance.
func BalanceHandler(log *slog.Logger, ledger service.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.BalanceHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := actorID(w, r, logger)
		if !ok {
			return
		}

		balance, err := ledger.Balance(r.Context(), userID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, BalanceResponse{UserID: userID, Balance: balance})
	}
}

// LeaderboardHandler обрабатывает запрос GET /api/leaderboard?page=N.
// Без page отдаётся первая страница.
func LeaderboardHandler(log *slog.Logger, ledger service.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LeaderboardHandler"
		logger := log.With(slog.String("op", op))

		page := 1
		if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
			p, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, logger, service.ErrInvalidPage)
				return
			}
			page = p
		}

		board, err := ledger.Leaderboard(r.Context(), page)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, LeaderboardResponse{Leaderboard: board, Pages: board.Pages()})
	}
}

// LeaderboardResponse - страница рейтинга с общим числом страниц
type LeaderboardResponse struct {
	*models.Leaderboard
	Pages int `json:"pages"`
}
