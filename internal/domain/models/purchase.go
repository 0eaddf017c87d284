package models

import (
	"encoding/json"
	"time"
)

// Purchase представляет покупку; после создания запись не изменяется
type Purchase struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Items         json.RawMessage `json:"items"` // состав заказа хранится как непрозрачный JSON
	PaymentMethod string          `json:"payment_method"`
	TotalAmount   int64           `json:"total_amount"`
	CreatedAt     time.Time       `json:"created_at"`
}
