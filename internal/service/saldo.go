package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mlucero/tienda-api/internal/storage"
)

// SaldoService определяет операции над балансом аутентифицированного пользователя.
type SaldoService interface {
	GetSaldo(ctx context.Context, userID int64) (int64, error)
	AdjustSaldo(ctx context.Context, userID int64, amount int64) (int64, error)
}

type saldoService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
}

func NewSaldoService(log *slog.Logger, userRepo storage.UserStorage) SaldoService {
	return &saldoService{
		log:      log,
		userRepo: userRepo,
	}
}

// GetSaldo возвращает текущий баланс пользователя без изменений.
func (s *saldoService) GetSaldo(ctx context.Context, userID int64) (int64, error) {
	const op = "service.SaldoService.GetSaldo"

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		s.log.Error("failed to get user", slog.String("op", op), slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to get user: %w", op, err)
	}
	return user.Saldo, nil
}

// AdjustSaldo применяет signed-дельту; списание, уводящее баланс в минус,
// отклоняется атомарно на стороне хранилища.
func (s *saldoService) AdjustSaldo(ctx context.Context, userID int64, amount int64) (int64, error) {
	const op = "service.SaldoService.AdjustSaldo"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("userID", userID),
		slog.Int64("amount", amount),
	)

	newSaldo, err := s.userRepo.AdjustSaldo(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientSaldo) || errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("saldo adjustment rejected", slog.Any("error", err))
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to adjust saldo", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to adjust saldo: %w", op, err)
	}

	logger.Info("saldo adjusted", slog.Int64("newSaldo", newSaldo))
	return newSaldo, nil
}
