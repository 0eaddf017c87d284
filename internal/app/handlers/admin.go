package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mlucero/tienda-api/internal/service"
	"github.com/mlucero/tienda-api/internal/storage"
)

// OverrideSaldoRequest — админское изменение баланса; цель ищется по email
type OverrideSaldoRequest struct {
	Email string      `json:"email" validate:"required,email"`
	Saldo json.Number `json:"saldo" validate:"required"`
}

// DeleteUserRequest — админское удаление пользователя
type DeleteUserRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// OverrideSaldoHandler обрабатывает запрос PUT /api/user/updateSaldo.
// Признак администратора проверяется middleware RequireAdmin на группе маршрутов.
func OverrideSaldoHandler(log *slog.Logger, adminService service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.OverrideSaldoHandler"
		logger := log.With(slog.String("op", op))

		var req OverrideSaldoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "email and saldo are required")
			return
		}
		delta, err := req.Saldo.Int64()
		if err != nil {
			logger.Error("invalid request: non-integer saldo", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "saldo must be a number")
			return
		}

		newSaldo, err := adminService.OverrideSaldo(r.Context(), req.Email, delta)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrUserNotFound):
				writeError(w, http.StatusNotFound, "user not found")
			case errors.Is(err, storage.ErrInsufficientSaldo):
				writeError(w, http.StatusBadRequest, "saldo cannot become negative")
			default:
				logger.Error("failed to override saldo", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}

		writeJSON(w, http.StatusOK, SaldoResponse{Success: true, Saldo: newSaldo})
	}
}

// DeleteUserHandler обрабатывает запрос DELETE /api/user
func DeleteUserHandler(log *slog.Logger, adminService service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteUserHandler"
		logger := log.With(slog.String("op", op))

		var req DeleteUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}

		if err := adminService.DeleteUser(r.Context(), req.Email); err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				writeError(w, http.StatusNotFound, "user not found")
				return
			}
			logger.Error("failed to delete user", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "user deleted"})
	}
}
