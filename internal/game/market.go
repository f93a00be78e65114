package game

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	regimeBull    = "bull"
	regimeNeutral = "neutral"
	regimeBear    = "bear"

	minQuoteMicros = int64(10_000)
	maxQuoteMicros = int64(2_000_000_000_000_000)

	// Crypto swings harder than equities; businesses drift slower than both.
	cryptoVolatilityFactor   = 1.6
	businessVolatilityFactor = 0.8
)

type marketDynamics struct {
	NoiseScale        float64
	ShockProb         float64
	ShockScale        float64
	ExtremeShockProb  float64
	ExtremeShockScale float64
	MeanReversion     float64
	RegimeSwitchProb  float64
	MaxDropPerTick    float64
}

func volatilityParams(mode string) marketDynamics {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "calm":
		return marketDynamics{
			NoiseScale:        0.020,
			ShockProb:         0.05,
			ShockScale:        0.09,
			ExtremeShockProb:  0.008,
			ExtremeShockScale: 0.22,
			MeanReversion:     0.03,
			RegimeSwitchProb:  0.04,
			MaxDropPerTick:    0.35,
		}
	case "wild":
		return marketDynamics{
			NoiseScale:        0.060,
			ShockProb:         0.18,
			ShockScale:        0.20,
			ExtremeShockProb:  0.050,
			ExtremeShockScale: 0.60,
			MeanReversion:     0.010,
			RegimeSwitchProb:  0.11,
			MaxDropPerTick:    0.70,
		}
	default:
		return marketDynamics{
			NoiseScale:        0.038,
			ShockProb:         0.11,
			ShockScale:        0.14,
			ExtremeShockProb:  0.020,
			ExtremeShockScale: 0.35,
			MeanReversion:     0.018,
			RegimeSwitchProb:  0.07,
			MaxDropPerTick:    0.50,
		}
	}
}

func randomRegime(seed float64) string {
	switch {
	case seed < 0.33:
		return regimeBear
	case seed < 0.66:
		return regimeNeutral
	default:
		return regimeBull
	}
}

func regimeDrift(regime string) float64 {
	switch regime {
	case regimeBull:
		return 0.0085
	case regimeBear:
		return -0.0085
	default:
		return 0
	}
}

func meanReversion(price, anchor int64, strength float64) float64 {
	if anchor <= 0 {
		return 0
	}
	return strength * (float64(anchor-price) / float64(anchor))
}

func normalish(seed float64) float64 {
	return seed + seed - 1
}

func signedShock(magSeed, signSeed, base float64) float64 {
	mag := base * (0.35 + 2.8*magSeed*magSeed)
	if signSeed < 0.5 {
		return -mag
	}
	return mag
}

func evolvePrice(priceMicros int64, ret, maxDropPerTick float64) int64 {
	if priceMicros <= 0 {
		return 1
	}
	// Bound only the downside; upside can run.
	if ret < -maxDropPerTick {
		ret = -maxDropPerTick
	}
	next := int64(math.Round(float64(priceMicros) * math.Exp(ret)))
	if next < 1 {
		next = 1
	}
	return next
}

func seedPrice(symbol string) int64 {
	for _, q := range seedQuotes {
		if q.Symbol == symbol {
			return q.Price
		}
	}
	return 0
}

// tickReturn draws one log return under the current regime.
func tickReturn(d *Dice, p marketDynamics, regime string, scale float64) float64 {
	ret := regimeDrift(regime) + scale*p.NoiseScale*normalish(d.Float())
	if d.Float() < p.ShockProb {
		ret += signedShock(d.Float(), d.Float(), scale*p.ShockScale)
	}
	if d.Float() < p.ExtremeShockProb {
		ret += signedShock(d.Float(), d.Float(), scale*p.ExtremeShockScale)
	}
	return ret
}

// pickMarketKind chooses what moves this cycle. Businesses only move when
// the player owns some.
func pickMarketKind(s *State, d *Dice) UpdateKind {
	kinds := []UpdateKind{UpdateCrypto, UpdateEquity}
	if len(s.Businesses) > 0 {
		kinds = append(kinds, UpdateBusiness)
	}
	return pick(d, kinds)
}

// GenerateMarketUpdate builds, without applying, the next update of the given
// kind. The regime may switch first.
func GenerateMarketUpdate(s *State, d *Dice, kind UpdateKind, volatility string) MarketUpdate {
	p := volatilityParams(volatility)
	if s.Market.Regime == "" {
		s.Market.Regime = regimeNeutral
	}
	if d.Float() < p.RegimeSwitchProb {
		s.Market.Regime = randomRegime(d.Float())
	}
	u := MarketUpdate{ID: uuid.NewString(), Kind: kind}

	var moves []priceMove

	if kind == UpdateBusiness {
		for _, b := range s.Businesses {
			ret := tickReturn(d, p, s.Market.Regime, businessVolatilityFactor)
			next := clampMultiple(b.CurrentExitMultiple * math.Exp(ret))
			u.Items = append(u.Items, MarketUpdateItem{Symbol: b.Symbol, BusinessID: b.ID, Multiple: next})
			moves = append(moves, priceMove{b.Symbol, next/b.CurrentExitMultiple - 1})
		}
	} else {
		want := AssetStock
		scale := 1.0
		if kind == UpdateCrypto {
			want = AssetCrypto
			scale = cryptoVolatilityFactor
		}
		for _, q := range s.Quotes {
			if q.Type != want {
				continue
			}
			ret := tickReturn(d, p, s.Market.Regime, scale) + meanReversion(q.Price, seedPrice(q.Symbol), p.MeanReversion)
			next := evolvePrice(q.Price, ret, p.MaxDropPerTick)
			if next < minQuoteMicros {
				next = minQuoteMicros
			}
			if next > maxQuoteMicros {
				next = maxQuoteMicros
			}
			u.Items = append(u.Items, MarketUpdateItem{Symbol: q.Symbol, Price: next})
			moves = append(moves, priceMove{q.Symbol, float64(next)/float64(q.Price) - 1})
		}
	}
	u.Headline = marketHeadline(kind, s.Market.Regime, moves)
	return u
}

type priceMove struct {
	Symbol string
	Change float64
}

// marketHeadline names the biggest mover.
func marketHeadline(kind UpdateKind, regime string, moves []priceMove) string {
	label := map[UpdateKind]string{
		UpdateCrypto:   "Crypto",
		UpdateEquity:   "Stocks",
		UpdateBusiness: "Private markets",
	}[kind]
	if len(moves) == 0 {
		return fmt.Sprintf("%s: quiet session", label)
	}
	sort.SliceStable(moves, func(i, j int) bool {
		return math.Abs(moves[i].Change) > math.Abs(moves[j].Change)
	})
	top := moves[0]
	verb := "slip"
	if top.Change >= 0 {
		verb = "rally"
	}
	return fmt.Sprintf("%s %s in a %s tape: %s %+.1f%%", label, verb, regime, top.Symbol, top.Change*100)
}
