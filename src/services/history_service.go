package services

import (
	"context"

	"finance/src/models"
	"finance/src/repositories"
)

type HistoryServiceI interface {
	ListHistory(ctx context.Context, userID int64) ([]models.HistoryEntry, error)
}

type HistoryService struct {
	historyRepo repositories.HistoryRepository
}

func NewHistoryService(historyRepo repositories.HistoryRepository) *HistoryService {
	return &HistoryService{historyRepo: historyRepo}
}

// ListHistory returns every buy and sell of the user, oldest first.
func (s *HistoryService) ListHistory(ctx context.Context, userID int64) ([]models.HistoryEntry, error) {
	entries, err := s.historyRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, persistence(err)
	}
	return entries, nil
}
