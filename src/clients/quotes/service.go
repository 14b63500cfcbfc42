package quotes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finance/src/config"
	"finance/src/utils"
	"finance/src/utils/requests"
)

// ErrSymbolNotFound is returned when the provider does not know the symbol.
var ErrSymbolNotFound = errors.New("unknown symbol")

type QuoteServiceClientI interface {
	Lookup(ctx context.Context, symbol string) (*Quote, error)
}

type QuoteServiceClient struct {
	API     *requests.ExternalAPIService
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a new instance of QuoteServiceClient
func NewClient(cfg *config.Config) *QuoteServiceClient {
	quotesCfg := cfg.ExternalClients.Quotes
	return &QuoteServiceClient{
		API:     requests.NewExternalAPIService(0),
		BaseURL: strings.TrimRight(quotesCfg.BaseURL, "/"),
		APIKey:  quotesCfg.APIKey,
		Timeout: quotesCfg.Timeout,
	}
}

// Lookup fetches the latest quote for symbol. Each call is bounded by the client timeout.
func (c *QuoteServiceClient) Lookup(ctx context.Context, symbol string) (*Quote, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/stock/%s/quote", c.BaseURL, url.PathEscape(symbol))

	params := url.Values{}
	params.Add("token", c.APIKey)

	var quoteResponse QuoteResponse
	err := c.API.GetJSON(ctx, endpoint, params, &quoteResponse)
	if err != nil {
		var httpErr *utils.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
		return nil, err
	}

	if quoteResponse.Symbol == "" || quoteResponse.LatestPrice == nil {
		return nil, fmt.Errorf("incomplete quote received for %s", symbol)
	}
	if !quoteResponse.LatestPrice.IsPositive() {
		return nil, fmt.Errorf("invalid quote received for %s: price %s", symbol, quoteResponse.LatestPrice)
	}

	return &Quote{
		Symbol: strings.ToUpper(quoteResponse.Symbol),
		Name:   quoteResponse.CompanyName,
		Price:  *quoteResponse.LatestPrice,
	}, nil
}
