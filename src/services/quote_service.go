package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"finance/src/clients/quotes"
	"finance/src/monitoring"
	"finance/src/utils"
)

type QuoteServiceI interface {
	Lookup(ctx context.Context, symbol string) (*quotes.Quote, error)
}

type QuoteService struct {
	client  quotes.QuoteServiceClientI
	metrics *monitoring.Metrics
}

func NewQuoteService(client quotes.QuoteServiceClientI, metrics *monitoring.Metrics) *QuoteService {
	return &QuoteService{client: client, metrics: metrics}
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Lookup resolves symbol with the provider. Unknown symbols are validation errors, every
// other provider failure (including timeouts) is ErrQuoteUnavailable.
func (s *QuoteService) Lookup(ctx context.Context, symbol string) (*quotes.Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, newError(ErrValidation, "must provide a symbol")
	}

	start := time.Now()
	quote, err := s.client.Lookup(ctx, symbol)
	if err != nil {
		if errors.Is(err, quotes.ErrSymbolNotFound) {
			s.metrics.ObserveQuote("unknown_symbol", time.Since(start))
			return nil, wrapError(ErrValidation, "unknown symbol "+symbol, err)
		}
		s.metrics.ObserveQuote("error", time.Since(start))
		utils.LoggerFromContext(ctx).WithError(err).WithField("symbol", symbol).Warn("quote lookup failed")
		return nil, wrapError(ErrQuoteUnavailable, "could not get a quote for "+symbol+", try again later", err)
	}
	s.metrics.ObserveQuote("ok", time.Since(start))
	return quote, nil
}
