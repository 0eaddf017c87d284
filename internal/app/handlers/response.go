package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mlucero/tienda-api/internal/domain/models"
)

// UserResponse — проекция пользователя для ответов API; хэш пароля наружу не отдаётся
type UserResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Lastname   string `json:"lastname"`
	Email      string `json:"email"`
	Direction  string `json:"direction"`
	PostalCode string `json:"postalcode"`
	Saldo      int64  `json:"saldo"`
	IsAdmin    bool   `json:"is_admin"`
}

func sanitizeUser(u *models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Lastname:   u.Lastname,
		Email:      u.Email,
		Direction:  u.Direction,
		PostalCode: u.PostalCode,
		Saldo:      u.Saldo,
		IsAdmin:    u.IsAdmin,
	}
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Success: false, Message: message})
}
