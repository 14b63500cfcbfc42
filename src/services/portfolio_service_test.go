package services_test

import (
	"context"
	"testing"

	"finance/src/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPortfolio(t *testing.T) {
	ctx := context.Background()

	t.Run("values holdings at current prices", func(t *testing.T) {
		f := newFixture(t, "10000", map[string]string{"AAPL": "150", "MSFT": "300"})
		_, err := f.trading.Buy(ctx, f.userID, "AAPL", 10)
		require.NoError(t, err)
		_, err = f.trading.Buy(ctx, f.userID, "MSFT", 2)
		require.NoError(t, err)
		f.quotes.set("AAPL", "200")

		portfolio, err := f.portfolio.GetPortfolio(ctx, f.userID)
		require.NoError(t, err)
		assert.True(t, portfolio.CashOnHand.Equal(dec("7900")))
		require.Len(t, portfolio.Holdings, 2)

		aapl := portfolio.Holdings[0]
		assert.Equal(t, "AAPL", aapl.Symbol)
		assert.Equal(t, "AAPL Inc", aapl.Name)
		assert.True(t, aapl.CurrentPrice.Equal(dec("200")))
		assert.True(t, aapl.CurrentValue.Equal(dec("2000")))
		assert.True(t, aapl.NetProfit.Equal(dec("500")))
		assert.True(t, aapl.PriceAtPurchase.Equal(dec("150")))

		assert.True(t, portfolio.NetWorth.Equal(dec("10500")))
	})

	t.Run("empty portfolio is all cash", func(t *testing.T) {
		f := newFixture(t, "10000", nil)
		portfolio, err := f.portfolio.GetPortfolio(ctx, f.userID)
		require.NoError(t, err)
		assert.Empty(t, portfolio.Holdings)
		assert.True(t, portfolio.NetWorth.Equal(dec("10000")))
	})

	t.Run("one missing quote fails the whole view", func(t *testing.T) {
		f := newFixture(t, "10000", map[string]string{"AAPL": "150", "MSFT": "300"})
		_, err := f.trading.Buy(ctx, f.userID, "AAPL", 1)
		require.NoError(t, err)
		_, err = f.trading.Buy(ctx, f.userID, "MSFT", 1)
		require.NoError(t, err)
		delete(f.quotes.prices, "MSFT")

		_, err = f.portfolio.GetPortfolio(ctx, f.userID)
		assert.ErrorIs(t, err, services.ErrQuoteUnavailable)
	})

	t.Run("cash and holdings come from one read transaction", func(t *testing.T) {
		f := newFixture(t, "10000", map[string]string{"AAPL": "150"})
		_, err := f.trading.Buy(ctx, f.userID, "AAPL", 2)
		require.NoError(t, err)
		before := f.txManager.reads

		portfolio, err := f.portfolio.GetPortfolio(ctx, f.userID)
		require.NoError(t, err)
		assert.Equal(t, before+1, f.txManager.reads)
		assert.True(t, portfolio.CashOnHand.Equal(dec("9700")))
		assert.True(t, portfolio.NetWorth.Equal(dec("10000")))
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t, "10000", nil)
		_, err := f.portfolio.GetPortfolio(ctx, 999)
		assert.ErrorIs(t, err, services.ErrAuth)
	})
}

func TestListHoldings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "10000", map[string]string{"AAPL": "150", "MSFT": "300"})
	_, err := f.trading.Buy(ctx, f.userID, "MSFT", 1)
	require.NoError(t, err)
	_, err = f.trading.Buy(ctx, f.userID, "AAPL", 1)
	require.NoError(t, err)
	calls := f.quotes.calls

	holdings, err := f.portfolio.ListHoldings(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, "AAPL", holdings[0].Stock)
	assert.Equal(t, calls, f.quotes.calls)
}
