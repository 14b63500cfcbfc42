package repositories

import (
	"context"
	"errors"

	"finance/src/models"

	"github.com/jackc/pgx/v5"
)

type HoldingRepository interface {
	GetByUserID(ctx context.Context, userID int64, tx pgx.Tx) ([]models.Holding, error)
	GetForUpdate(ctx context.Context, userID int64, stock string, tx pgx.Tx) (*models.Holding, error)
	Save(ctx context.Context, h *models.Holding, tx pgx.Tx) error
	Delete(ctx context.Context, userID int64, stock string, tx pgx.Tx) error
}

type holdingRepo struct {
	db DB
}

func NewHoldingRepository(db DB) HoldingRepository {
	return &holdingRepo{db: db}
}

func (r *holdingRepo) GetByUserID(ctx context.Context, userID int64, tx pgx.Tx) ([]models.Holding, error) {
	rows, err := on(r.db, tx).Query(ctx,
		`SELECT id, user_id, stock, shares, total_cost, price_at_purchase, time
		FROM purchases
		WHERE user_id = $1
		ORDER BY stock`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.ID, &h.UserID, &h.Stock, &h.Shares, &h.TotalCost, &h.PriceAtPurchase, &h.Time); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func (r *holdingRepo) GetForUpdate(ctx context.Context, userID int64, stock string, tx pgx.Tx) (*models.Holding, error) {
	var h models.Holding
	err := on(r.db, tx).QueryRow(ctx,
		`SELECT id, user_id, stock, shares, total_cost, price_at_purchase, time
		FROM purchases
		WHERE user_id = $1 AND stock = $2
		FOR UPDATE`,
		userID, stock,
	).Scan(&h.ID, &h.UserID, &h.Stock, &h.Shares, &h.TotalCost, &h.PriceAtPurchase, &h.Time)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Save writes the aggregate position for (user_id, stock), replacing any previous one.
func (r *holdingRepo) Save(ctx context.Context, h *models.Holding, tx pgx.Tx) error {
	query := `
		INSERT INTO purchases (user_id, stock, shares, total_cost, price_at_purchase, time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, stock) DO UPDATE SET
			shares = EXCLUDED.shares,
			total_cost = EXCLUDED.total_cost,
			price_at_purchase = EXCLUDED.price_at_purchase,
			time = EXCLUDED.time
		RETURNING id`

	return on(r.db, tx).QueryRow(ctx, query,
		h.UserID, h.Stock, h.Shares, h.TotalCost, h.PriceAtPurchase, h.Time,
	).Scan(&h.ID)
}

func (r *holdingRepo) Delete(ctx context.Context, userID int64, stock string, tx pgx.Tx) error {
	tag, err := on(r.db, tx).Exec(ctx,
		`DELETE FROM purchases WHERE user_id = $1 AND stock = $2`,
		userID, stock,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
