package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mlucero/tienda-api/internal/auth/authmiddleware"
	"github.com/mlucero/tienda-api/internal/domain/models"
	"github.com/mlucero/tienda-api/internal/service"
	"github.com/mlucero/tienda-api/internal/storage"
)

// CheckoutRequest — тело запроса оформления покупки; состав заказа не разбирается,
// хранится как есть
type CheckoutRequest struct {
	Items         json.RawMessage `json:"items" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	TotalAmount   int64           `json:"total_amount" validate:"required,gt=0"`
}

// CheckoutResponse — ответ при успешном оформлении покупки
type CheckoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PurchasesResponse — список покупок пользователя
type PurchasesResponse struct {
	Success   bool               `json:"success"`
	Purchases []*models.Purchase `json:"purchases"`
}

// CheckoutHandler обрабатывает запрос POST /api/user/compras
func CheckoutHandler(log *slog.Logger, purchaseService service.PurchaseService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := authmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req CheckoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "items, payment_method and positive total_amount are required")
			return
		}

		err := purchaseService.Checkout(r.Context(), userID, service.CheckoutInput{
			Items:         req.Items,
			PaymentMethod: req.PaymentMethod,
			TotalAmount:   req.TotalAmount,
		})
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrInsufficientSaldo):
				writeError(w, http.StatusBadRequest, "insufficient saldo")
			case errors.Is(err, storage.ErrUserNotFound):
				writeError(w, http.StatusNotFound, "user not found")
			default:
				logger.Error("checkout failed", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, CheckoutResponse{Success: true, Message: "purchase completed"})
	}
}

// ListPurchasesHandler обрабатывает запрос GET /api/purchases
func ListPurchasesHandler(log *slog.Logger, purchaseService service.PurchaseService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListPurchasesHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := authmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		purchases, err := purchaseService.ListPurchases(r.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrNoPurchases) {
				writeError(w, http.StatusNotFound, "no purchases found")
				return
			}
			logger.Error("failed to list purchases", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, PurchasesResponse{Success: true, Purchases: purchases})
	}
}
