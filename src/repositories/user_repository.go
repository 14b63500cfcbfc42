package repositories

import (
	"context"
	"errors"

	"finance/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// BalanceRepository reads and writes users.cash inside trade transactions.
type BalanceRepository interface {
	GetCash(ctx context.Context, userID int64, tx pgx.Tx) (decimal.Decimal, error)
	GetCashForUpdate(ctx context.Context, userID int64, tx pgx.Tx) (decimal.Decimal, error)
	UpdateCash(ctx context.Context, userID int64, cash decimal.Decimal, tx pgx.Tx) error
}

type balanceRepo struct {
	db DB
}

func NewBalanceRepository(db DB) BalanceRepository {
	return &balanceRepo{db: db}
}

func (r *balanceRepo) GetCash(ctx context.Context, userID int64, tx pgx.Tx) (decimal.Decimal, error) {
	var cash decimal.Decimal
	err := on(r.db, tx).QueryRow(ctx,
		`SELECT cash FROM users WHERE id = $1`,
		userID,
	).Scan(&cash)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrNotFound
	}
	return cash, err
}

// GetCashForUpdate locks the user row until tx ends, serialising trades of the same user.
func (r *balanceRepo) GetCashForUpdate(ctx context.Context, userID int64, tx pgx.Tx) (decimal.Decimal, error) {
	var cash decimal.Decimal
	err := on(r.db, tx).QueryRow(ctx,
		`SELECT cash FROM users WHERE id = $1 FOR UPDATE`,
		userID,
	).Scan(&cash)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrNotFound
	}
	return cash, err
}

func (r *balanceRepo) UpdateCash(ctx context.Context, userID int64, cash decimal.Decimal, tx pgx.Tx) error {
	tag, err := on(r.db, tx).Exec(ctx,
		`UPDATE users SET cash = $1 WHERE id = $2`,
		cash, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
