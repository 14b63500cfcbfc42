package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance/src/clients/quotes"
	"finance/src/models"
	"finance/src/monitoring"
	"finance/src/repositories"
	"finance/src/utils"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Receipt describes a committed trade.
type Receipt struct {
	Type   models.TransactionType
	Symbol string
	Name   string
	Shares int64
	Price  decimal.Decimal
	Total  decimal.Decimal
	Cash   decimal.Decimal
	Time   time.Time
}

type TradingServiceI interface {
	Buy(ctx context.Context, userID int64, symbol string, shares int64) (*Receipt, error)
	Sell(ctx context.Context, userID int64, symbol string, shares int64) (*Receipt, error)
}

type TradingService struct {
	txManager repositories.TxManager
	balances  repositories.BalanceRepository
	holdings  repositories.HoldingRepository
	sales     repositories.SaleRepository
	history   repositories.HistoryRepository
	quotes    QuoteServiceI
	metrics   *monitoring.Metrics
	now       func() time.Time
}

func NewTradingService(
	txManager repositories.TxManager,
	balances repositories.BalanceRepository,
	holdings repositories.HoldingRepository,
	sales repositories.SaleRepository,
	history repositories.HistoryRepository,
	quoteService QuoteServiceI,
	metrics *monitoring.Metrics,
) *TradingService {
	return &TradingService{
		txManager: txManager,
		balances:  balances,
		holdings:  holdings,
		sales:     sales,
		history:   history,
		quotes:    quoteService,
		metrics:   metrics,
		now:       time.Now,
	}
}

// WithClock replaces the time source used to stamp trades.
func (s *TradingService) WithClock(now func() time.Time) *TradingService {
	s.now = now
	return s
}

// Buy debits the cost of shares at the current quote and adds them to the user's holding.
// The quote is fetched before the transaction starts; funds are checked under the user row lock.
func (s *TradingService) Buy(ctx context.Context, userID int64, symbol string, shares int64) (*Receipt, error) {
	receipt, err := s.buy(ctx, userID, symbol, shares)
	s.record(models.Buy, err)
	return receipt, err
}

func (s *TradingService) buy(ctx context.Context, userID int64, symbol string, shares int64) (*Receipt, error) {
	if shares <= 0 {
		return nil, newError(ErrValidation, "shares must be a positive integer")
	}

	quote, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}

	total := quote.Price.Mul(decimal.NewFromInt(shares))
	receipt := &Receipt{
		Type:   models.Buy,
		Symbol: quote.Symbol,
		Name:   quote.Name,
		Shares: shares,
		Price:  quote.Price,
		Total:  total,
		Time:   s.now().UTC(),
	}

	err = s.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		cash, err := s.lockCash(ctx, userID, tx)
		if err != nil {
			return err
		}
		if cash.LessThan(total) {
			return newError(ErrInsufficientFunds, fmt.Sprintf("you don't have enough money: %s needed, %s available",
				utils.FormatUSD(total), utils.FormatUSD(cash)))
		}

		receipt.Cash = cash.Sub(total)
		if err := s.balances.UpdateCash(ctx, userID, receipt.Cash, tx); err != nil {
			return persistence(err)
		}

		holding, err := s.holdings.GetForUpdate(ctx, userID, quote.Symbol, tx)
		if errors.Is(err, repositories.ErrNotFound) {
			holding = &models.Holding{UserID: userID, Stock: quote.Symbol}
		} else if err != nil {
			return persistence(err)
		}
		addShares(holding, shares, total)
		holding.Time = receipt.Time
		if err := s.holdings.Save(ctx, holding, tx); err != nil {
			return persistence(err)
		}

		return s.appendHistory(ctx, userID, receipt, tx)
	})
	if err != nil {
		return nil, err
	}

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"user_id": userID,
		"symbol":  receipt.Symbol,
		"shares":  shares,
		"price":   receipt.Price.String(),
	}).Info("buy committed")
	return receipt, nil
}

// Sell credits the proceeds of shares at the current quote and reduces the user's holding,
// deleting it only when no shares remain.
func (s *TradingService) Sell(ctx context.Context, userID int64, symbol string, shares int64) (*Receipt, error) {
	receipt, err := s.sell(ctx, userID, symbol, shares)
	s.record(models.Sell, err)
	return receipt, err
}

func (s *TradingService) sell(ctx context.Context, userID int64, symbol string, shares int64) (*Receipt, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, newError(ErrValidation, "must provide a symbol")
	}
	if shares <= 0 {
		return nil, newError(ErrValidation, "shares must be a positive integer")
	}

	snapshot, err := s.holdings.GetByUserID(ctx, userID, nil)
	if err != nil {
		return nil, persistence(err)
	}
	if err := checkHolding(snapshot, symbol, shares); err != nil {
		return nil, err
	}

	quote, err := lookupHeld(ctx, s.quotes, symbol)
	if err != nil {
		return nil, err
	}

	proceeds := quote.Price.Mul(decimal.NewFromInt(shares))
	receipt := &Receipt{
		Type:   models.Sell,
		Symbol: symbol,
		Name:   quote.Name,
		Shares: shares,
		Price:  quote.Price,
		Total:  proceeds,
		Time:   s.now().UTC(),
	}

	err = s.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		cash, err := s.lockCash(ctx, userID, tx)
		if err != nil {
			return err
		}

		// the snapshot may be stale by now
		holding, err := s.holdings.GetForUpdate(ctx, userID, symbol, tx)
		if errors.Is(err, repositories.ErrNotFound) {
			return newError(ErrNoSuchHolding, "you do not own any shares of "+symbol)
		}
		if err != nil {
			return persistence(err)
		}
		if err := checkHolding([]models.Holding{*holding}, symbol, shares); err != nil {
			return err
		}

		receipt.Cash = cash.Add(proceeds)
		if err := s.balances.UpdateCash(ctx, userID, receipt.Cash, tx); err != nil {
			return persistence(err)
		}

		sale := &models.Sale{
			UserID:      userID,
			Stock:       symbol,
			Shares:      shares,
			MoneyMade:   proceeds,
			PriceAtSale: quote.Price,
			Time:        receipt.Time,
		}
		if err := s.sales.Create(ctx, sale, tx); err != nil {
			return persistence(err)
		}

		if err := s.appendHistory(ctx, userID, receipt, tx); err != nil {
			return err
		}

		if removeShares(holding, shares) {
			if err := s.holdings.Delete(ctx, userID, symbol, tx); err != nil {
				return persistence(err)
			}
			return nil
		}
		if err := s.holdings.Save(ctx, holding, tx); err != nil {
			return persistence(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"user_id": userID,
		"symbol":  symbol,
		"shares":  shares,
		"price":   receipt.Price.String(),
	}).Info("sell committed")
	return receipt, nil
}

func (s *TradingService) lockCash(ctx context.Context, userID int64, tx pgx.Tx) (decimal.Decimal, error) {
	cash, err := s.balances.GetCashForUpdate(ctx, userID, tx)
	if errors.Is(err, repositories.ErrNotFound) {
		return decimal.Zero, newError(ErrAuth, "unknown user")
	}
	if err != nil {
		return decimal.Zero, persistence(err)
	}
	return cash, nil
}

func (s *TradingService) appendHistory(ctx context.Context, userID int64, receipt *Receipt, tx pgx.Tx) error {
	entry := &models.HistoryEntry{
		UserID:     userID,
		Type:       receipt.Type,
		Time:       receipt.Time,
		Stock:      receipt.Symbol,
		Shares:     receipt.Shares,
		Money:      receipt.Total,
		SharePrice: receipt.Price,
	}
	if err := s.history.Create(ctx, entry, tx); err != nil {
		return persistence(err)
	}
	return nil
}

// lookupHeld looks up a symbol the user already owns. The provider not knowing it is
// an outage from the user's point of view, not bad input.
func lookupHeld(ctx context.Context, quoteService QuoteServiceI, symbol string) (*quotes.Quote, error) {
	quote, err := quoteService.Lookup(ctx, symbol)
	if errors.Is(err, ErrValidation) {
		utils.LoggerFromContext(ctx).WithError(err).WithField("symbol", symbol).Warn("held symbol could not be resolved")
		return nil, newError(ErrQuoteUnavailable, "no quote available for "+symbol)
	}
	return quote, err
}

func (s *TradingService) record(tradeType models.TransactionType, err error) {
	switch {
	case err == nil:
		s.metrics.RecordTrade(string(tradeType), "committed")
	case errors.Is(err, ErrPersistence):
		s.metrics.RecordTrade(string(tradeType), "failed")
	default:
		s.metrics.RecordTrade(string(tradeType), "rejected")
	}
}
