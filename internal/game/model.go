package game

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	MicrosPerDollar = int64(1_000_000)

	// QtyScale gives quantities eight decimals, enough for fractional crypto.
	QtyScale = int64(100_000_000)

	LargeOpportunityMicros = int64(50_000) * MicrosPerDollar
	ChildMonthlyCostMicros = int64(750) * MicrosPerDollar
	MaxChildren            = 6

	MinExitMultiple  = 1.0
	MaxExitMultiple  = 20.0
	ExitTriggerRatio = 1.2

	// Messages closer than this with the same sender and content are duplicates.
	DuplicateWindowSeconds = 1
)

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrAccountNotFound      = errors.New("account not found")
	ErrInvalidState         = errors.New("invalid state")
	ErrInvalidAmount        = errors.New("amount must be > 0")
	ErrInvalidSymbol        = errors.New("symbol must be 2-6 uppercase letters or digits")
	ErrAssetNotFound        = errors.New("asset not found")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrBusinessNotFound     = errors.New("business not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrUnknownRole          = errors.New("unknown role")
	ErrUnknownGoal          = errors.New("unknown goal")
)

var symbolRE = regexp.MustCompile(`^[A-Z0-9]{2,6}$`)

func ValidateSymbol(symbol string) error {
	if !symbolRE.MatchString(strings.TrimSpace(symbol)) {
		return ErrInvalidSymbol
	}
	return nil
}

func QtyToUnits(v float64) (int64, error) {
	if v <= 0 {
		return 0, fmt.Errorf("quantity must be > 0")
	}
	return decimal.NewFromFloat(v).Shift(8).Round(0).IntPart(), nil
}

func UnitsToQty(v int64) float64 {
	return decimal.New(v, -8).InexactFloat64()
}

// FormatUSD renders micros as a dollar string, e.g. "$76,800.00".
func FormatUSD(micros int64) string {
	cents := decimal.NewFromInt(micros).Shift(-4).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

func notionalMicros(priceMicros, qtyUnits int64) int64 {
	v := decimal.NewFromInt(priceMicros).Mul(decimal.NewFromInt(qtyUnits)).Div(decimal.NewFromInt(QtyScale))
	return v.Round(0).IntPart()
}

// weightedAverage is (oldQty*oldAvg + qty*price) / (oldQty + qty).
func weightedAverage(oldQty, oldAvg, qty, price int64) int64 {
	total := oldQty + qty
	if total <= 0 {
		return price
	}
	cost := decimal.NewFromInt(oldQty).Mul(decimal.NewFromInt(oldAvg)).
		Add(decimal.NewFromInt(qty).Mul(decimal.NewFromInt(price)))
	return cost.Div(decimal.NewFromInt(total)).Round(0).IntPart()
}

// shareOf returns pct percent of amount.
func shareOf(amount int64, pct float64) int64 {
	return decimal.NewFromInt(amount).Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100)).Round(0).IntPart()
}

func scaleMicros(amount int64, factor float64) int64 {
	return decimal.NewFromInt(amount).Mul(decimal.NewFromFloat(factor)).Round(0).IntPart()
}

func clampMultiple(m float64) float64 {
	if math.IsNaN(m) || m < MinExitMultiple {
		return MinExitMultiple
	}
	if m > MaxExitMultiple {
		return MaxExitMultiple
	}
	return m
}
