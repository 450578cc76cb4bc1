package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/pizza-coin/internal/service"
)

// TransferRequest представляет входной JSON для перевода монет.
type TransferRequest struct {
	ToUser string `json:"toUser" validate:"required,numeric,max=20"`
	Amount int64  `json:"amount"`
}

// TransferHandler обрабатывает запрос POST /api/transfer.
// Диапазон суммы проверяет леджер, чтобы текст ошибки совпадал с ботом.
func TransferHandler(log *slog.Logger, ledger service.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.TransferHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := actorID(w, r, logger)
		if !ok {
			return
		}

		var req TransferRequest
		if !decode(w, r, logger, &req) {
			return
		}

		err := ledger.Transfer(r.Context(), service.TransferRequest{
			SenderID:   userID,
			ReceiverID: req.ToUser,
			Amount:     req.Amount,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "Coins transferred successfully"})
	}
}
