package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func btcTrade(t *testing.T, qty float64, price int64) TradeInput {
	t.Helper()
	units, err := QtyToUnits(qty)
	require.NoError(t, err)
	return TradeInput{
		Symbol:   "BTC",
		Name:     "Bitcoin",
		Type:     AssetCrypto,
		Quantity: units,
		Price:    price,
		Account:  AccountChecking,
		At:       testNow,
	}
}

func TestBuyAssetChecksFunds(t *testing.T) {
	s := newTestState(t, "teacher")
	s.Accounts.Checking = usd(10_000)

	_, err := BuyAsset(s, btcTrade(t, 2, usd(50_000)))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Empty(t, s.Crypto.Assets)
	assert.Equal(t, usd(10_000), s.Accounts.Checking)
	assert.Empty(t, s.Transactions)

	a, err := BuyAsset(s, btcTrade(t, 0.1, usd(50_000)))
	require.NoError(t, err)
	assert.Equal(t, usd(5_000), s.Accounts.Checking)
	assert.Equal(t, usd(50_000), a.PurchasePrice)
	assert.Equal(t, QtyScale/10, a.Quantity)
	require.Len(t, s.Transactions, 1)
	assert.Equal(t, usd(5_000), s.Transactions[0].Amount)
}

func TestBuyAssetWeightedAverage(t *testing.T) {
	s := newTestState(t, "engineer")
	_, err := BuyAsset(s, btcTrade(t, 0.1, usd(40_000)))
	require.NoError(t, err)
	a, err := BuyAsset(s, btcTrade(t, 0.1, usd(60_000)))
	require.NoError(t, err)

	assert.Equal(t, usd(50_000), a.PurchasePrice)
	assert.Equal(t, QtyScale/5, a.Quantity)
	require.Len(t, s.Crypto.Assets, 1)
}

func TestBuyAssetOnCard(t *testing.T) {
	s := newTestState(t, "engineer")
	in := btcTrade(t, 0.1, usd(50_000))
	in.Account = AccountCreditPlatinum
	_, err := BuyAsset(s, in)
	require.NoError(t, err)
	assert.Equal(t, usd(5_000), s.Accounts.CreditPlatinum)
	assert.Equal(t, usd(15_000), s.Accounts.Checking)
}

func TestSellAsset(t *testing.T) {
	s := newTestState(t, "engineer")
	_, err := BuyAsset(s, btcTrade(t, 0.2, usd(50_000)))
	require.NoError(t, err)
	checking := s.Accounts.Checking

	_, err = SellAsset(s, TradeInput{Symbol: "BTC", Type: AssetCrypto, Quantity: QtyScale, At: testNow})
	require.ErrorIs(t, err, ErrInsufficientQuantity)
	_, err = SellAsset(s, TradeInput{Symbol: "ETH", Type: AssetCrypto, Quantity: QtyScale, At: testNow})
	require.ErrorIs(t, err, ErrAssetNotFound)

	proceeds, err := SellAsset(s, TradeInput{Symbol: "btc", Type: AssetCrypto, Quantity: QtyScale / 10, At: testNow})
	require.NoError(t, err)
	assert.Equal(t, usd(5_000), proceeds)
	assert.Equal(t, checking+usd(5_000), s.Accounts.Checking)

	_, err = SellAsset(s, TradeInput{Symbol: "BTC", Type: AssetCrypto, Quantity: QtyScale / 10, At: testNow})
	require.NoError(t, err)
	assert.Empty(t, s.Crypto.Assets)
}

func TestApplyMarketUpdate(t *testing.T) {
	s := newTestState(t, "engineer")
	_, err := BuyAsset(s, btcTrade(t, 0.1, usd(50_000)))
	require.NoError(t, err)
	s.Businesses = []Business{{ID: "b1", Symbol: "PIXL", Revenue: usd(12_000), Expenses: usd(4_000), SaleMultiple: 5, RevenueShare: 20, CurrentExitMultiple: 4}}

	// One bad item rejects the whole update.
	err = ApplyMarketUpdate(s, MarketUpdate{Kind: UpdateCrypto, Items: []MarketUpdateItem{
		{Symbol: "BTC", Price: usd(70_000)},
		{Symbol: "ETH", Price: 0},
	}})
	require.ErrorIs(t, err, ErrInvalidAmount)
	a, _ := s.Crypto.Get("BTC")
	assert.Equal(t, usd(50_000), a.CurrentPrice)

	require.NoError(t, ApplyMarketUpdate(s, MarketUpdate{Kind: UpdateCrypto, Items: []MarketUpdateItem{{Symbol: "BTC", Price: usd(70_000)}}}))
	a, _ = s.Crypto.Get("BTC")
	assert.Equal(t, usd(70_000), a.CurrentPrice)
	assert.Equal(t, usd(50_000), a.PurchasePrice)
	q, ok := s.Quote("BTC")
	require.True(t, ok)
	assert.Equal(t, usd(70_000), q.Price)

	err = ApplyMarketUpdate(s, MarketUpdate{Kind: UpdateBusiness, Items: []MarketUpdateItem{{Symbol: "NOPE", Multiple: 3}}})
	require.ErrorIs(t, err, ErrBusinessNotFound)

	require.NoError(t, ApplyMarketUpdate(s, MarketUpdate{Kind: UpdateBusiness, Items: []MarketUpdateItem{{Symbol: "PIXL", Multiple: 45}}}))
	assert.Equal(t, MaxExitMultiple, s.Businesses[0].CurrentExitMultiple)
	require.NotNil(t, s.ExitPrompt)
	assert.Equal(t, "b1", s.ExitPrompt.BusinessID)

	require.NoError(t, ApplyMarketUpdate(s, MarketUpdate{Kind: UpdateBusiness, Items: []MarketUpdateItem{{BusinessID: "b1", Multiple: 0.5}}}))
	assert.Equal(t, MinExitMultiple, s.Businesses[0].CurrentExitMultiple)
	assert.Nil(t, s.ExitPrompt)
}

func TestGenerateMarketUpdateKeepsPricesPositive(t *testing.T) {
	s := newTestState(t, "teacher")
	d := NewDice(42)
	for i := 0; i < 200; i++ {
		u := GenerateMarketUpdate(s, d, UpdateCrypto, "wild")
		require.NoError(t, ApplyMarketUpdate(s, u))
	}
	for _, q := range s.Quotes {
		assert.GreaterOrEqual(t, q.Price, int64(1), q.Symbol)
	}
	assert.Contains(t, []string{regimeBull, regimeNeutral, regimeBear}, s.Market.Regime)
}
