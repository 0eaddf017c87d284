package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mlucero/tienda-api/internal/service"
	"github.com/mlucero/tienda-api/internal/service/captcha"
	"github.com/mlucero/tienda-api/internal/storage"
)

// RegisterRequest представляет структуру запроса регистрации с тегами валидации;
// все поля профиля обязательны
type RegisterRequest struct {
	Name       string `json:"name" validate:"required"`
	Lastname   string `json:"lastname" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Direction  string `json:"direction" validate:"required"`
	PostalCode string `json:"postalcode" validate:"required"`
	Captcha    string `json:"captcha"`
}

// LoginRequest представляет структуру запроса аутентификации
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse представляет ответ с JWT-токеном и проекцией пользователя
type AuthResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

var validate = validator.New()

// RegisterHandler – HTTP-обработчик для POST /api/user/register
func RegisterHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}

		// Валидация структуры запроса с использованием validator
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "all fields are required")
			return
		}

		user, token, err := authService.Register(r.Context(), service.RegisterInput{
			Name:         req.Name,
			Lastname:     req.Lastname,
			Email:        req.Email,
			Password:     req.Password,
			Direction:    req.Direction,
			PostalCode:   req.PostalCode,
			CaptchaToken: req.Captcha,
			RemoteIP:     r.RemoteAddr,
		})
		if err != nil {
			switch {
			case errors.Is(err, captcha.ErrRejected):
				writeError(w, http.StatusBadRequest, "captcha verification failed")
			case errors.Is(err, storage.ErrUserAlreadyExists):
				writeError(w, http.StatusBadRequest, "email already registered")
			default:
				logger.Error("registration failed", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, AuthResponse{
			Success: true,
			Token:   token,
			User:    sanitizeUser(user),
		})
	}
}

// LoginHandler – HTTP-обработчик для POST /api/user/login
func LoginHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		user, token, err := authService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				writeError(w, http.StatusBadRequest, "invalid credentials")
				return
			}
			logger.Error("login failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, AuthResponse{
			Success: true,
			Token:   token,
			User:    sanitizeUser(user),
		})
	}
}
