package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mlucero/tienda-api/internal/auth/authmiddleware"
	"github.com/mlucero/tienda-api/internal/service"
	"github.com/mlucero/tienda-api/internal/storage"
)

// SaldoResponse — ответ операций над балансом
type SaldoResponse struct {
	Success bool  `json:"success"`
	Saldo   int64 `json:"saldo"`
}

// AdjustSaldoRequest — signed-дельта баланса; json.Number отклоняет нечисловые значения
type AdjustSaldoRequest struct {
	Amount json.Number `json:"amount"`
}

// GetSaldoHandler обрабатывает запрос GET /api/user/saldo
func GetSaldoHandler(log *slog.Logger, saldoService service.SaldoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetSaldoHandler"
		logger := log.With(slog.String("op", op))

		// Извлекаем userID из контекста (установленный JWT middleware)
		userID, ok := authmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		saldo, err := saldoService.GetSaldo(r.Context(), userID)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				writeError(w, http.StatusNotFound, "user not found")
				return
			}
			logger.Error("failed to get saldo", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, SaldoResponse{Success: true, Saldo: saldo})
	}
}

// AdjustSaldoHandler обрабатывает запрос POST /api/user/saldo
func AdjustSaldoHandler(log *slog.Logger, saldoService service.SaldoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AdjustSaldoHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := authmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req AdjustSaldoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "amount must be a number")
			return
		}
		amount, err := req.Amount.Int64()
		if err != nil {
			logger.Error("invalid request: non-integer amount", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "amount must be a number")
			return
		}

		newSaldo, err := saldoService.AdjustSaldo(r.Context(), userID, amount)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrInsufficientSaldo):
				writeError(w, http.StatusBadRequest, "insufficient saldo")
			case errors.Is(err, storage.ErrUserNotFound):
				writeError(w, http.StatusNotFound, "user not found")
			default:
				logger.Error("failed to adjust saldo", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}

		writeJSON(w, http.StatusOK, SaldoResponse{Success: true, Saldo: newSaldo})
	}
}
