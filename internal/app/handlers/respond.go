package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/pizza-coin/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/pizza-coin/internal/service"
)

var validate = validator.New()

// ErrorResponse - тело ответа при ошибке
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse - тело ответа для операций без данных
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// writeError отдаёт код по типу ошибки леджера, текст - как в боте
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.Any("error", err))
	} else {
		logger.Info("request rejected", slog.Any("error", err))
	}
	writeJSON(w, logger, status, ErrorResponse{Error: service.UserMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUserDisabled), errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusConflict
	case errors.Is(err, service.ErrStore), errors.Is(err, service.ErrProvisioningFailed):
		return http.StatusInternalServerError
	case service.IsRejection(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// actorID достаёт пользователя, установленного JWT-middleware
func actorID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	userID, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		logger.Error("userID not found in context")
		writeJSON(w, logger, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return "", false
	}
	return userID, true
}

// decode разбирает и валидирует тело запроса
func decode(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Info("invalid request: decoding error", slog.Any("error", err))
		writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		logger.Info("invalid request: validation error", slog.Any("error", err))
		writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Error: "validation error"})
		return false
	}
	return true
}
