package repositories

import (
	"context"

	"finance/src/models"

	"github.com/jackc/pgx/v5"
)

type HistoryRepository interface {
	GetByUserID(ctx context.Context, userID int64) ([]models.HistoryEntry, error)
	Create(ctx context.Context, e *models.HistoryEntry, tx pgx.Tx) error
}

type historyRepo struct {
	db DB
}

func NewHistoryRepository(db DB) HistoryRepository {
	return &historyRepo{db: db}
}

// GetByUserID returns the ledger in insertion order.
func (r *historyRepo) GetByUserID(ctx context.Context, userID int64) ([]models.HistoryEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, type, time, stock, shares, money, share_price
		FROM history
		WHERE user_id = $1
		ORDER BY time, id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var entryType string
		if err := rows.Scan(&e.ID, &e.UserID, &entryType, &e.Time, &e.Stock, &e.Shares, &e.Money, &e.SharePrice); err != nil {
			return nil, err
		}
		e.Type = models.TransactionType(entryType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *historyRepo) Create(ctx context.Context, e *models.HistoryEntry, tx pgx.Tx) error {
	return on(r.db, tx).QueryRow(ctx,
		`INSERT INTO history (user_id, type, time, stock, shares, money, share_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		e.UserID, string(e.Type), e.Time, e.Stock, e.Shares, e.Money, e.SharePrice,
	).Scan(&e.ID)
}
