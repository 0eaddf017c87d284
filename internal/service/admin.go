package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mlucero/tienda-api/internal/storage"
)

// AdminService определяет операции, доступные только администраторам.
// Проверка признака администратора выполняется middleware на уровне маршрутов.
type AdminService interface {
	// OverrideSaldo прибавляет дельту к балансу пользователя, найденного по email.
	OverrideSaldo(ctx context.Context, targetEmail string, delta int64) (int64, error)
	// DeleteUser физически удаляет пользователя по email.
	DeleteUser(ctx context.Context, targetEmail string) error
}

type adminService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
}

func NewAdminService(log *slog.Logger, userRepo storage.UserStorage) AdminService {
	return &adminService{
		log:      log,
		userRepo: userRepo,
	}
}

func (s *adminService) OverrideSaldo(ctx context.Context, targetEmail string, delta int64) (int64, error) {
	const op = "service.AdminService.OverrideSaldo"
	logger := s.log.With(
		slog.String("op", op),
		slog.String("targetEmail", targetEmail),
		slog.Int64("delta", delta),
	)

	newSaldo, err := s.userRepo.AdjustSaldoByEmail(ctx, targetEmail, delta)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) || errors.Is(err, storage.ErrInsufficientSaldo) {
			logger.Warn("saldo override rejected", slog.Any("error", err))
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to override saldo", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to override saldo: %w", op, err)
	}

	logger.Info("saldo overridden", slog.Int64("newSaldo", newSaldo))
	return newSaldo, nil
}

func (s *adminService) DeleteUser(ctx context.Context, targetEmail string) error {
	const op = "service.AdminService.DeleteUser"
	logger := s.log.With(slog.String("op", op), slog.String("targetEmail", targetEmail))

	if err := s.userRepo.DeleteUserByEmail(ctx, targetEmail); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("delete rejected: user not found")
			return fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to delete user", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete user: %w", op, err)
	}

	logger.Info("user deleted")
	return nil
}
