package game

import (
	"fmt"
	"strings"
)

// Portfolio holds at most one Asset per symbol.
type Portfolio struct {
	Assets []Asset `json:"assets"`
}

func (p *Portfolio) index(symbol string) int {
	for i := range p.Assets {
		if p.Assets[i].Symbol == symbol {
			return i
		}
	}
	return -1
}

func (p *Portfolio) Get(symbol string) (Asset, bool) {
	i := p.index(symbol)
	if i < 0 {
		return Asset{}, false
	}
	return p.Assets[i], true
}

// Buy merges into an existing position using weighted-average cost or
// inserts a new one.
func (p *Portfolio) Buy(symbol, name string, typ AssetType, qty, price int64) Asset {
	if i := p.index(symbol); i >= 0 {
		a := &p.Assets[i]
		a.PurchasePrice = weightedAverage(a.Quantity, a.PurchasePrice, qty, price)
		a.Quantity += qty
		a.CurrentPrice = price
		return *a
	}
	a := Asset{
		Symbol:        symbol,
		Name:          name,
		Quantity:      qty,
		CurrentPrice:  price,
		PurchasePrice: price,
		Type:          typ,
	}
	p.Assets = append(p.Assets, a)
	return a
}

// Sell removes qty units and returns the proceeds at the current price. The
// entry is dropped once its quantity reaches zero.
func (p *Portfolio) Sell(symbol string, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, ErrInvalidAmount
	}
	i := p.index(symbol)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrAssetNotFound, symbol)
	}
	a := &p.Assets[i]
	if qty > a.Quantity {
		return 0, fmt.Errorf("%w: hold %.8f %s", ErrInsufficientQuantity, UnitsToQty(a.Quantity), symbol)
	}
	proceeds := notionalMicros(a.CurrentPrice, qty)
	a.Quantity -= qty
	if a.Quantity <= 0 {
		p.Assets = append(p.Assets[:i], p.Assets[i+1:]...)
	}
	return proceeds, nil
}

func (p *Portfolio) MarketValue() int64 {
	var total int64
	for _, a := range p.Assets {
		total += notionalMicros(a.CurrentPrice, a.Quantity)
	}
	return total
}

func (s *State) portfolioFor(typ AssetType) (*Portfolio, error) {
	switch typ {
	case AssetCrypto:
		return &s.Crypto, nil
	case AssetStock:
		return &s.Equity, nil
	}
	return nil, fmt.Errorf("%w: unknown asset type %q", ErrInvalidState, typ)
}

func (s *State) Quote(symbol string) (Quote, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, q := range s.Quotes {
		if q.Symbol == symbol {
			return q, true
		}
	}
	return Quote{}, false
}

// BuyAsset debits the funding account and books the position in one step.
// Nothing changes when the account cannot cover the trade.
func BuyAsset(s *State, in TradeInput) (Asset, error) {
	in.Symbol = strings.ToUpper(strings.TrimSpace(in.Symbol))
	if err := ValidateSymbol(in.Symbol); err != nil {
		return Asset{}, err
	}
	if in.Quantity <= 0 || in.Price <= 0 {
		return Asset{}, ErrInvalidAmount
	}
	p, err := s.portfolioFor(in.Type)
	if err != nil {
		return Asset{}, err
	}
	cost := notionalMicros(in.Price, in.Quantity)
	desc := fmt.Sprintf("Buy %s %s @ %s", formatQty(in.Quantity), in.Symbol, FormatUSD(in.Price))
	if err := Charge(s, in.Account, cost, desc, in.At); err != nil {
		return Asset{}, err
	}
	name := in.Name
	if name == "" {
		name = in.Symbol
	}
	return p.Buy(in.Symbol, name, in.Type, in.Quantity, in.Price), nil
}

// SellAsset sells at the asset's current price and credits checking.
func SellAsset(s *State, in TradeInput) (int64, error) {
	in.Symbol = strings.ToUpper(strings.TrimSpace(in.Symbol))
	p, err := s.portfolioFor(in.Type)
	if err != nil {
		return 0, err
	}
	proceeds, err := p.Sell(in.Symbol, in.Quantity)
	if err != nil {
		return 0, err
	}
	s.Accounts.Checking += proceeds
	recordTransaction(s, in.At, fmt.Sprintf("Sell %s %s", formatQty(in.Quantity), in.Symbol), proceeds, true, AccountChecking)
	return proceeds, nil
}

// ApplyMarketUpdate checks every item before touching state, then moves
// prices on quotes and held assets or exit multiples on businesses.
func ApplyMarketUpdate(s *State, u MarketUpdate) error {
	for _, item := range u.Items {
		if u.Kind == UpdateBusiness {
			if s.businessForItem(item) < 0 {
				return fmt.Errorf("%w: %s", ErrBusinessNotFound, item.Symbol)
			}
			continue
		}
		if item.Price <= 0 {
			return fmt.Errorf("%w: price for %s", ErrInvalidAmount, item.Symbol)
		}
	}

	for _, item := range u.Items {
		if u.Kind == UpdateBusiness {
			b := &s.Businesses[s.businessForItem(item)]
			b.CurrentExitMultiple = clampMultiple(item.Multiple)
			continue
		}
		for i := range s.Quotes {
			if s.Quotes[i].Symbol == item.Symbol {
				s.Quotes[i].Price = item.Price
			}
		}
		for _, p := range []*Portfolio{&s.Crypto, &s.Equity} {
			if i := p.index(item.Symbol); i >= 0 {
				p.Assets[i].CurrentPrice = item.Price
			}
		}
	}
	s.LastMarketUpdate = &u
	s.ExitPrompt = CheckStartupExitOpportunities(s)
	return nil
}

func formatQty(units int64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.8f", UnitsToQty(units)), "0"), ".")
}
