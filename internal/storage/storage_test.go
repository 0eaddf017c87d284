package storage_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/mlucero/tienda-api/internal/domain/models"
	"github.com/mlucero/tienda-api/internal/storage"
)

var userCols = []string{"id", "name", "lastname", "email", "pass_hash", "direction", "postal_code", "saldo", "is_admin", "created_at"}

func userRow(id int64, email string, saldo int64, isAdmin bool) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow(id, "Ana", "Lopez", email, []byte("hashed-password"), "Calle 1", "28001", saldo, isAdmin, time.Now())
}

func TestGetUserByID_Success(t *testing.T) {
	// Создаем sqlmock для эмуляции базы данных.
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()
	userID := int64(1)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, lastname, email, pass_hash, direction, postal_code, saldo, is_admin, created_at FROM users WHERE id = $1")).
		WithArgs(userID).WillReturnRows(userRow(userID, "ana@example.com", 1000, false))

	user, err := repo.GetUserByID(ctx, userID)
	assert.NoError(t, err, "Expected no error when user is found")
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, []byte("hashed-password"), user.PassHash)
	assert.Equal(t, int64(1000), user.Saldo)
	assert.False(t, user.IsAdmin)

	// Проверяем, что все ожидания sqlmock выполнены.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	// Эмулируем ситуацию, когда запрос возвращает 0 строк.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, lastname, email, pass_hash, direction, postal_code, saldo, is_admin, created_at FROM users WHERE email = $1")).
		WithArgs("missing@example.com").WillReturnRows(sqlmock.NewRows(userCols))

	user, err := repo.GetUserByEmail(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.Nil(t, user, "User should be nil when not found")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	// Эмулируем нарушение уникального индекса по email.
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505"})

	user, err := repo.CreateUser(context.Background(), &models.User{
		Name:       "Ana",
		Lastname:   "Lopez",
		Email:      "ana@example.com",
		PassHash:   []byte("hash"),
		Direction:  "Calle 1",
		PostalCode: "28001",
	})
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
	assert.Nil(t, user)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustSaldo_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET saldo = saldo + $1 WHERE id = $2 AND saldo + $1 >= 0 RETURNING saldo")).
		WithArgs(int64(-300), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"saldo"}).AddRow(700))

	newSaldo, err := repo.AdjustSaldo(context.Background(), 1, -300)
	assert.NoError(t, err)
	assert.Equal(t, int64(700), newSaldo)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustSaldo_Insufficient(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	// Условный UPDATE не вернул строк: пользователь есть, но баланс ушёл бы в минус.
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET saldo = saldo + $1 WHERE id = $2 AND saldo + $1 >= 0 RETURNING saldo")).
		WithArgs(int64(-5000), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"saldo"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err = repo.AdjustSaldo(context.Background(), 1, -5000)
	assert.ErrorIs(t, err, storage.ErrInsufficientSaldo)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustSaldo_UserNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET saldo = saldo + $1 WHERE id = $2 AND saldo + $1 >= 0 RETURNING saldo")).
		WithArgs(int64(100), int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"saldo"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err = repo.AdjustSaldo(context.Background(), 42, 100)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustSaldoByEmail_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET saldo = saldo + $1 WHERE email = $2 AND saldo + $1 >= 0 RETURNING saldo")).
		WithArgs(int64(500), "ana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"saldo"}).AddRow(1500))

	newSaldo, err := repo.AdjustSaldoByEmail(context.Background(), "ana@example.com", 500)
	assert.NoError(t, err)
	assert.Equal(t, int64(1500), newSaldo)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockUserByIDTx_Locked(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM users WHERE id = \\$1 FOR UPDATE NOWAIT").
		WithArgs(int64(1)).
		WillReturnError(&pq.Error{Code: "55P03"})

	tx, err := db.Begin()
	assert.NoError(t, err)

	user, err := repo.LockUserByIDTx(context.Background(), tx, 1)
	assert.Error(t, err)
	assert.Nil(t, user)
	assert.Contains(t, err.Error(), "resource is locked")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE email = $1")).
		WithArgs("missing@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.DeleteUserByEmail(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePurchase_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewPurchaseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO purchases").
		WithArgs(int64(1), []byte(`[{"sku":"camiseta","qty":2}]`), "card", int64(400)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	tx, err := db.Begin()
	assert.NoError(t, err)

	err = repo.CreatePurchase(context.Background(), tx, &models.Purchase{
		UserID:        1,
		Items:         []byte(`[{"sku":"camiseta","qty":2}]`),
		PaymentMethod: "card",
		TotalAmount:   400,
	})
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPurchasesByUserID_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewPurchaseRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "user_id", "items", "payment_method", "total_amount", "created_at"}).
		AddRow(2, 1, []byte(`[{"sku":"taza"}]`), "paypal", 150, now).
		AddRow(1, 1, []byte(`[{"sku":"camiseta"}]`), "card", 400, now.Add(-time.Hour))

	mock.ExpectQuery("SELECT id, user_id, items, payment_method, total_amount, created_at").
		WithArgs(int64(1)).WillReturnRows(rows)

	purchases, err := repo.GetPurchasesByUserID(context.Background(), 1)
	assert.NoError(t, err)
	assert.Len(t, purchases, 2)
	assert.Equal(t, int64(2), purchases[0].ID)
	assert.Equal(t, "paypal", purchases[0].PaymentMethod)
	assert.Equal(t, int64(150), purchases[0].TotalAmount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPurchasesByUserID_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewPurchaseRepository(db)

	mock.ExpectQuery("SELECT id, user_id, items, payment_method, total_amount, created_at").
		WithArgs(int64(1)).WillReturnError(errors.New("db unreachable"))

	purchases, err := repo.GetPurchasesByUserID(context.Background(), 1)
	assert.Error(t, err)
	assert.Nil(t, purchases)

	assert.NoError(t, mock.ExpectationsWereMet())
}
