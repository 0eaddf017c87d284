package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mlucero/tienda-api/internal/domain/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInsufficientSaldo = errors.New("insufficient saldo")
)

const userColumns = "id, name, lastname, email, pass_hash, direction, postal_code, saldo, is_admin, created_at"

type UserStorage interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	AdjustSaldo(ctx context.Context, id int64, delta int64) (int64, error)
	AdjustSaldoByEmail(ctx context.Context, email string, delta int64) (int64, error)
	LockUserByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.User, error)
	UpdateUserSaldo(ctx context.Context, tx *sql.Tx, id int64, newSaldo int64) error
	DeleteUserByEmail(ctx context.Context, email string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Lastname, &user.Email, &user.PassHash,
		&user.Direction, &user.PostalCode, &user.Saldo, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// получение уже существующего пользователя
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	return scanUser(row)
}

func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, lastname, email, pass_hash, direction, postal_code, saldo, is_admin, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW()) RETURNING id`,
		user.Name, user.Lastname, user.Email, user.PassHash,
		user.Direction, user.PostalCode, user.Saldo, user.IsAdmin,
	).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation: гонка двух регистраций на один email
				return nil, ErrUserAlreadyExists
			}
		}
		return nil, err
	}
	user.ID = id
	return user, nil
}

// AdjustSaldo изменяет баланс на signed-дельту одним условным UPDATE:
// проверка неотрицательности и запись выполняются атомарно на стороне БД.
func (r *userRepository) AdjustSaldo(ctx context.Context, id int64, delta int64) (int64, error) {
	var newSaldo int64
	err := r.db.QueryRowContext(ctx,
		"UPDATE users SET saldo = saldo + $1 WHERE id = $2 AND saldo + $1 >= 0 RETURNING saldo",
		delta, id,
	).Scan(&newSaldo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// условие не сработало: либо пользователя нет, либо баланс ушёл бы в минус
			return 0, r.classifyAdjustMiss(ctx, "id", id)
		}
		return 0, err
	}
	return newSaldo, nil
}

// AdjustSaldoByEmail — то же, что AdjustSaldo, но цель ищется по email (админское переопределение).
func (r *userRepository) AdjustSaldoByEmail(ctx context.Context, email string, delta int64) (int64, error) {
	var newSaldo int64
	err := r.db.QueryRowContext(ctx,
		"UPDATE users SET saldo = saldo + $1 WHERE email = $2 AND saldo + $1 >= 0 RETURNING saldo",
		delta, email,
	).Scan(&newSaldo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, r.classifyAdjustMiss(ctx, "email", email)
		}
		return 0, err
	}
	return newSaldo, nil
}

func (r *userRepository) classifyAdjustMiss(ctx context.Context, field string, key interface{}) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE "+field+" = $1)", key,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}
	return ErrInsufficientSaldo
}

func (r *userRepository) LockUserByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.User, error) {
	user := &models.User{}

	row := tx.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1 FOR UPDATE NOWAIT", id)
	err := row.Scan(&user.ID, &user.Name, &user.Lastname, &user.Email, &user.PassHash,
		&user.Direction, &user.PostalCode, &user.Saldo, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "55P03" { // lock
				return nil, fmt.Errorf("resource is locked, please try again: %w", err)
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) UpdateUserSaldo(ctx context.Context, tx *sql.Tx, id int64, newSaldo int64) error {
	res, err := tx.ExecContext(ctx, "UPDATE users SET saldo = $1 WHERE id = $2", newSaldo, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUserByEmail физически удаляет пользователя; вызывается только из админского маршрута.
func (r *userRepository) DeleteUserByEmail(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE email = $1", email)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
