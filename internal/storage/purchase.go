package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mlucero/tienda-api/internal/domain/models"
)

// PurchaseStorage описывает методы для работы с покупками.
type PurchaseStorage interface {
	// CreatePurchase вставляет новую покупку в таблицу purchases в рамках транзакции,
	// общей со списанием баланса.
	CreatePurchase(ctx context.Context, tx *sql.Tx, p *models.Purchase) error
	// GetPurchasesByUserID возвращает список покупок указанного пользователя, новые первыми.
	GetPurchasesByUserID(ctx context.Context, userID int64) ([]*models.Purchase, error)
}

// purchaseRepository — конкретная реализация PurchaseStorage.
type purchaseRepository struct {
	db *sql.DB
}

// NewPurchaseRepository создаёт новый репозиторий покупок.
func NewPurchaseRepository(db *sql.DB) PurchaseStorage {
	return &purchaseRepository{db: db}
}

// CreatePurchase вставляет новую покупку; запись после вставки не изменяется.
func (r *purchaseRepository) CreatePurchase(ctx context.Context, tx *sql.Tx, p *models.Purchase) error {
	query := `INSERT INTO purchases (user_id, items, payment_method, total_amount, created_at)
	          VALUES ($1, $2, $3, $4, NOW())`
	_, err := tx.ExecContext(ctx, query, p.UserID, p.Items, p.PaymentMethod, p.TotalAmount)
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}
	return nil
}

// GetPurchasesByUserID возвращает покупки пользователя, отсортированные по дате создания.
func (r *purchaseRepository) GetPurchasesByUserID(ctx context.Context, userID int64) ([]*models.Purchase, error) {
	query := `
		SELECT id, user_id, items, payment_method, total_amount, created_at
		FROM purchases
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []*models.Purchase
	for rows.Next() {
		p := &models.Purchase{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Items, &p.PaymentMethod, &p.TotalAmount, &p.CreatedAt); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}
