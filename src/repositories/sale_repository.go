package repositories

import (
	"context"

	"finance/src/models"

	"github.com/jackc/pgx/v5"
)

type SaleRepository interface {
	GetByUserID(ctx context.Context, userID int64) ([]models.Sale, error)
	Create(ctx context.Context, s *models.Sale, tx pgx.Tx) error
}

type saleRepo struct {
	db DB
}

func NewSaleRepository(db DB) SaleRepository {
	return &saleRepo{db: db}
}

func (r *saleRepo) GetByUserID(ctx context.Context, userID int64) ([]models.Sale, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, stock, shares, money_made, price_at_sale, time
		FROM sales
		WHERE user_id = $1
		ORDER BY time, id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.ID, &s.UserID, &s.Stock, &s.Shares, &s.MoneyMade, &s.PriceAtSale, &s.Time); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (r *saleRepo) Create(ctx context.Context, s *models.Sale, tx pgx.Tx) error {
	return on(r.db, tx).QueryRow(ctx,
		`INSERT INTO sales (user_id, stock, shares, money_made, price_at_sale, time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		s.UserID, s.Stock, s.Shares, s.MoneyMade, s.PriceAtSale, s.Time,
	).Scan(&s.ID)
}
