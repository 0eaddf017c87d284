package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mlucero/tienda-api/internal/auth"
	"github.com/mlucero/tienda-api/internal/domain/models"
	"github.com/mlucero/tienda-api/internal/service/captcha"
	"github.com/mlucero/tienda-api/internal/storage"
)

// ErrInvalidCredentials возвращается при неизвестном email или несовпадении пароля,
// без уточнения, что именно не так.
var ErrInvalidCredentials = errors.New("invalid credentials")

// RegisterInput — профиль нового пользователя; все поля обязательны,
// CaptchaToken — только при включённой проверке.
type RegisterInput struct {
	Name         string
	Lastname     string
	Email        string
	Password     string
	Direction    string
	PostalCode   string
	CaptchaToken string
	RemoteIP     string
}

type AuthServiceInterface interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

type AuthService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	verifier captcha.Verifier // nil, когда проверка captcha выключена
	tokenTTL time.Duration
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, verifier captcha.Verifier, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		log:      log,
		userRepo: userRepo,
		verifier: verifier,
		tokenTTL: tokenTTL,
	}
}

// Register создаёт нового пользователя с нулевым балансом.
// Captcha проверяется до обращения к базе; повторная регистрация на занятый
// email отклоняется, гонка двух регистраций ловится уникальным индексом.
func (a *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	const op = "auth.Register"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", in.Email),
	)

	if a.verifier != nil {
		if err := a.verifier.Verify(ctx, in.CaptchaToken, in.RemoteIP); err != nil {
			if errors.Is(err, captcha.ErrRejected) {
				logger.Warn("captcha rejected")
				return nil, "", fmt.Errorf("%s: %w", op, err)
			}
			logger.Error("captcha verification failed", slog.Any("error", err))
			return nil, "", fmt.Errorf("%s: captcha verification failed: %w", op, err)
		}
	}

	_, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	if err == nil {
		logger.Info("registration rejected: email already taken")
		return nil, "", fmt.Errorf("%s: %w", op, storage.ErrUserAlreadyExists)
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		logger.Error("failed to check existing user", slog.Any("error", err))
		return nil, "", fmt.Errorf("%s: failed to check existing user: %w", op, err)
	}

	// Хеширование пароля с помощью bcrypt (автоматически добавляет соль)
	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, "", fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	newUser := &models.User{
		Name:       in.Name,
		Lastname:   in.Lastname,
		Email:      in.Email,
		PassHash:   passHash,
		Direction:  in.Direction,
		PostalCode: in.PostalCode,
		Saldo:      0,
		IsAdmin:    false,
	}
	user, err := a.userRepo.CreateUser(ctx, newUser)
	if err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			logger.Info("registration rejected: email already taken")
			return nil, "", fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return nil, "", fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	token, err := auth.NewToken(ctx, user, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return nil, "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user registered successfully", slog.Int64("userID", user.ID))
	return user, token, nil
}

// Login осуществляет аутентификацию пользователя.
// Введённый пароль сравнивается с сохранённым хэшированным значением,
// после успешной проверки генерируется JWT-токен (секрет для подписи берется из переменной окружения).
func (a *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	const op = "auth.Login"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Info("user not found")
			return nil, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, "", fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return nil, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := auth.NewToken(ctx, user, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return nil, "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return user, token, nil
}
