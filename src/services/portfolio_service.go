package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"finance/src/clients/quotes"
	"finance/src/models"
	"finance/src/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Position is a holding valued at the current market price.
type Position struct {
	Symbol          string
	Name            string
	Shares          int64
	TotalCost       decimal.Decimal
	PriceAtPurchase decimal.Decimal
	CurrentPrice    decimal.Decimal
	CurrentValue    decimal.Decimal
	NetProfit       decimal.Decimal
	PurchasedAt     time.Time
}

type Portfolio struct {
	Holdings   []Position
	CashOnHand decimal.Decimal
	NetWorth   decimal.Decimal
}

type PortfolioServiceI interface {
	GetPortfolio(ctx context.Context, userID int64) (*Portfolio, error)
	ListHoldings(ctx context.Context, userID int64) ([]models.Holding, error)
}

type PortfolioService struct {
	txManager   repositories.TxManager
	balances    repositories.BalanceRepository
	holdingRepo repositories.HoldingRepository
	quotes      QuoteServiceI
}

func NewPortfolioService(
	txManager repositories.TxManager,
	balances repositories.BalanceRepository,
	holdingRepo repositories.HoldingRepository,
	quoteService QuoteServiceI,
) *PortfolioService {
	return &PortfolioService{
		txManager:   txManager,
		balances:    balances,
		holdingRepo: holdingRepo,
		quotes:      quoteService,
	}
}

// GetPortfolio values every open holding at its current quote. If any held symbol cannot be
// quoted the whole call fails, since a partial sum would misstate net worth.
func (s *PortfolioService) GetPortfolio(ctx context.Context, userID int64) (*Portfolio, error) {
	cash, holdings, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	prices, err := s.quoteAll(ctx, holdings)
	if err != nil {
		return nil, err
	}

	portfolio := &Portfolio{
		Holdings:   make([]Position, 0, len(holdings)),
		CashOnHand: cash,
		NetWorth:   cash,
	}
	for _, h := range holdings {
		quote := prices[NormalizeSymbol(h.Stock)]
		value := quote.Price.Mul(decimal.NewFromInt(h.Shares))
		portfolio.Holdings = append(portfolio.Holdings, Position{
			Symbol:          h.Stock,
			Name:            quote.Name,
			Shares:          h.Shares,
			TotalCost:       h.TotalCost,
			PriceAtPurchase: h.PriceAtPurchase,
			CurrentPrice:    quote.Price,
			CurrentValue:    value,
			NetProfit:       value.Sub(h.TotalCost),
			PurchasedAt:     h.Time,
		})
		portfolio.NetWorth = portfolio.NetWorth.Add(value)
	}
	return portfolio, nil
}

// snapshot reads cash and holdings from one consistent view of the store. Quotes are
// fetched after it ends so no transaction stays open across provider calls.
func (s *PortfolioService) snapshot(ctx context.Context, userID int64) (decimal.Decimal, []models.Holding, error) {
	var cash decimal.Decimal
	var holdings []models.Holding
	err := s.txManager.WithinReadTx(ctx, func(tx pgx.Tx) error {
		var err error
		cash, err = s.balances.GetCash(ctx, userID, tx)
		if errors.Is(err, repositories.ErrNotFound) {
			return newError(ErrAuth, "unknown user")
		}
		if err != nil {
			return persistence(err)
		}
		holdings, err = s.holdingRepo.GetByUserID(ctx, userID, tx)
		if err != nil {
			return persistence(err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, nil, err
	}
	return cash, holdings, nil
}

// ListHoldings returns the open holdings without pricing them.
func (s *PortfolioService) ListHoldings(ctx context.Context, userID int64) ([]models.Holding, error) {
	holdings, err := s.holdingRepo.GetByUserID(ctx, userID, nil)
	if err != nil {
		return nil, persistence(err)
	}
	return holdings, nil
}

// quoteAll looks up each distinct symbol once, concurrently.
func (s *PortfolioService) quoteAll(ctx context.Context, holdings []models.Holding) (map[string]*quotes.Quote, error) {
	symbols := make(map[string]struct{})
	for _, h := range holdings {
		symbols[NormalizeSymbol(h.Stock)] = struct{}{}
	}

	var mu sync.Mutex
	prices := make(map[string]*quotes.Quote, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			quote, err := lookupHeld(gctx, s.quotes, symbol)
			if err != nil {
				return err
			}
			mu.Lock()
			prices[symbol] = quote
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prices, nil
}
