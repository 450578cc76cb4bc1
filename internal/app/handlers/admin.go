package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/pizza-coin/internal/service"
)

type SetRateRequest struct {
	Amount *int64 `json:"amount" validate:"required,gte=0"`
}

type ConfiscateRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type ConfiscateResponse struct {
	Confiscated int64  `json:"confiscated"`
	Reason      string `json:"reason"`
}

type ResetRequest struct {
	ConfirmCode string `json:"confirm_code" validate:"required"`
}

type ResetResponse struct {
	Affected int64 `json:"affected"`
}

// SetRateHandler обрабатывает запрос POST /api/admin/rate.
func SetRateHandler(log *slog.Logger, ledger service.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SetRateHandler"
		logger := log.With(slog.String("op", op))

		adminID, ok := actorID(w, r, logger)
		if !ok {
			return
		}
		var req SetRateRequest
		if !decode(w, r, logger, &req) {
			return
		}

		if err := ledger.SetCoinsPerMessage(r.Context(), adminID, *req.Amount); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "Coins per message updated"})
	}
}

// DisableHandler обрабатывает запрос POST /api/admin/users/{id}/disable.
func DisableHandler(log *slog.Logger, ledger service.Ledger) http.HandlerFunc {
	return userStatusHandler(log, "handlers.DisableHandler", ledger.DisableUser, "User disabled")
}

// EnableHandler обрабатывает запрос POST /api/admin/users/{id}/enable.
func EnableHandler(log *slog.Logger, ledger service.Ledger) http.HandlerFunc {
	return userStatusHandler(log, "handlers.EnableHandler", ledger.EnableUser, "User enabled")
}

func userStatusHandler(
	log *slog.Logger,
	op string,
	apply func(ctx context.Context, adminID, targetID string) error,
	done string,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", op))

		adminID, targetID, ok := adminAndTarget(w, r, logger)
		if !ok {
			return
		}
		if err := apply(r.Context(), adminID, targetID); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: done})
	}
}

// ConfiscateHandler обрабатывает запрос POST /api/admin/users/{id}/confiscate.
// Тело запроса необязательно.
func ConfiscateHandler(log *slog.Logger, ledger service.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ConfiscateHandler"
		logger := log.With(slog.String("op", op))

		adminID, targetID, ok := adminAndTarget(w, r, logger)
		if !ok {
			return
		}

		var req ConfiscateRequest
		if r.ContentLength != 0 && !decode(w, r, logger, &req) {
			return
		}
		reason := req.Reason
		if reason == "" {
			reason = service.DefaultConfiscationReason
		}

		amount, err := ledger.Confiscate(r.Context(), adminID, targetID, reason)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, ConfiscateResponse{Confiscated: amount, Reason: reason})
	}
}

// ResetHandler обрабатывает запрос POST /api/admin/reset.
// Код подтверждения проверяется до обращения к леджеру.
func ResetHandler(log *slog.Logger, ledger service.Ledger, guard *service.ResetGuard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ResetHandler"
		logger := log.With(slog.String("op", op))

		adminID, ok := actorID(w, r, logger)
		if !ok {
			return
		}
		var req ResetRequest
		if !decode(w, r, logger, &req) {
			return
		}
		if !guard.Check(req.ConfirmCode) {
			logger.Warn("invalid reset confirmation code", slog.String("adminID", adminID))
			writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Error: "Invalid confirmation code."})
			return
		}

		n, err := ledger.ResetAllBalances(r.Context(), adminID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, ResetResponse{Affected: n})
	}
}

// adminAndTarget читает актора и цель из пути. Себя целью выбрать нельзя.
func adminAndTarget(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, string, bool) {
	adminID, ok := actorID(w, r, logger)
	if !ok {
		return "", "", false
	}
	targetID := chi.URLParam(r, "id")
	if err := service.ValidateUserID(targetID); err != nil {
		writeError(w, logger, err)
		return "", "", false
	}
	if err := service.ValidateDistinctActors(adminID, targetID); err != nil {
		writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Error: "You cannot target yourself."})
		return "", "", false
	}
	return adminID, targetID, true
}
