package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mlucero/tienda-api/internal/domain/models"
	"github.com/mlucero/tienda-api/internal/storage"
)

// ErrNoPurchases возвращается, когда у пользователя нет ни одной покупки.
var ErrNoPurchases = errors.New("no purchases found")

// CheckoutInput — данные оформления покупки.
type CheckoutInput struct {
	Items         json.RawMessage
	PaymentMethod string
	TotalAmount   int64
}

type PurchaseService interface {
	Checkout(ctx context.Context, userID int64, in CheckoutInput) error
	ListPurchases(ctx context.Context, userID int64) ([]*models.Purchase, error)
}

type purchaseService struct {
	log          *slog.Logger
	db           *sql.DB
	userRepo     storage.UserStorage
	purchaseRepo storage.PurchaseStorage
}

func NewPurchaseService(log *slog.Logger, db *sql.DB, userRepo storage.UserStorage, purchaseRepo storage.PurchaseStorage) PurchaseService {
	return &purchaseService{
		log:          log,
		db:           db,
		userRepo:     userRepo,
		purchaseRepo: purchaseRepo,
	}
}

// Checkout оформляет покупку: списание баланса и вставка записи о покупке
// выполняются в одной транзакции и вместе коммитятся или откатываются.
func (s *purchaseService) Checkout(ctx context.Context, userID int64, in CheckoutInput) error {
	const op = "service.PurchaseService.Checkout"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("totalAmount", in.TotalAmount))
	logger.Info("starting checkout transaction")

	if in.TotalAmount <= 0 {
		return fmt.Errorf("%s: total amount must be positive", op)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// Блокируем строку пользователя на время транзакции
	user, err := s.userRepo.LockUserByIDTx(ctx, tx, userID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	// Проверяем, достаточно ли средств
	if user.Saldo < in.TotalAmount {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("insufficient saldo", slog.Int64("saldo", user.Saldo))
		return fmt.Errorf("%s: %w", op, storage.ErrInsufficientSaldo)
	}

	// Списываем стоимость покупки с баланса
	newSaldo := user.Saldo - in.TotalAmount
	if err := s.userRepo.UpdateUserSaldo(ctx, tx, userID, newSaldo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to update user saldo", slog.Any("error", err))
		return fmt.Errorf("%s: failed to update user saldo: %w", op, err)
	}

	// Создаем запись о покупке
	purchase := &models.Purchase{
		UserID:        userID,
		Items:         in.Items,
		PaymentMethod: in.PaymentMethod,
		TotalAmount:   in.TotalAmount,
	}
	if err := s.purchaseRepo.CreatePurchase(ctx, tx, purchase); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create purchase", slog.Any("error", err))
		return fmt.Errorf("%s: failed to create purchase: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("checkout completed successfully")
	return nil
}

// ListPurchases возвращает покупки пользователя, новые первыми.
func (s *purchaseService) ListPurchases(ctx context.Context, userID int64) ([]*models.Purchase, error) {
	const op = "service.PurchaseService.ListPurchases"

	purchases, err := s.purchaseRepo.GetPurchasesByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get purchases", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get purchases: %w", op, err)
	}
	if len(purchases) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoPurchases)
	}
	return purchases, nil
}
