package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger - проверка доступности зависимости, например *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler обрабатывает запрос GET /healthz.
func HealthHandler(log *slog.Logger, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.HealthHandler"
		logger := log.With(slog.String("op", op))

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Error("database is unavailable", slog.Any("error", err))
			writeJSON(w, logger, http.StatusServiceUnavailable, ErrorResponse{Error: "database is unavailable"})
			return
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "ok"})
	}
}
