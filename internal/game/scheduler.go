package game

import (
	"fmt"
	"time"
)

type DayType string

const (
	DayOpportunity  DayType = "opportunity"
	DayPayday       DayType = "payday"
	DayExpense      DayType = "expense"
	DayNewChild     DayType = "new_child"
	DayCryptoUpdate DayType = "crypto_update"
	DayEquityUpdate DayType = "equity_update"
	DayCryptoDM     DayType = "crypto_dm"
	DayStartupExit  DayType = "startup_exit"
	// DayDefault takes whatever probability mass the weights leave over.
	DayDefault DayType = "default"
)

var dayTypeOrder = []DayType{
	DayOpportunity,
	DayPayday,
	DayExpense,
	DayNewChild,
	DayCryptoUpdate,
	DayEquityUpdate,
	DayCryptoDM,
	DayStartupExit,
}

const largeOpportunityProbability = 0.35

// Tunables control event frequencies. Weights are percentages; the remainder
// up to 100 falls through to DayDefault.
type Tunables struct {
	DayWeights     map[DayType]float64 `yaml:"day_weights" json:"day_weights"`
	PaydayMin      int                 `yaml:"payday_min" json:"payday_min"`
	PaydayMax      int                 `yaml:"payday_max" json:"payday_max"`
	FillerMin      int                 `yaml:"filler_min" json:"filler_min"`
	FillerMax      int                 `yaml:"filler_max" json:"filler_max"`
	OpportunityMin int                 `yaml:"opportunity_min" json:"opportunity_min"`
	OpportunityMax int                 `yaml:"opportunity_max" json:"opportunity_max"`
	Volatility     string              `yaml:"volatility" json:"volatility"`
}

func DefaultTunables() Tunables {
	return Tunables{
		DayWeights: map[DayType]float64{
			DayOpportunity:  30,
			DayPayday:       12,
			DayExpense:      15,
			DayNewChild:     2.4,
			DayCryptoUpdate: 15,
			DayEquityUpdate: 12,
			DayCryptoDM:     8,
			DayStartupExit:  5,
		},
		PaydayMin:      3,
		PaydayMax:      6,
		FillerMin:      5,
		FillerMax:      8,
		OpportunityMin: 1,
		OpportunityMax: 2,
		Volatility:     "mor",
	}
}

// Normalized fills zero or inverted fields from the defaults.
func (t Tunables) Normalized() Tunables {
	def := DefaultTunables()
	if len(t.DayWeights) == 0 {
		t.DayWeights = def.DayWeights
	}
	if t.PaydayMin <= 0 || t.PaydayMax < t.PaydayMin {
		t.PaydayMin, t.PaydayMax = def.PaydayMin, def.PaydayMax
	}
	if t.FillerMin <= 0 || t.FillerMax < t.FillerMin {
		t.FillerMin, t.FillerMax = def.FillerMin, def.FillerMax
	}
	if t.OpportunityMin <= 0 || t.OpportunityMax < t.OpportunityMin {
		t.OpportunityMin, t.OpportunityMax = def.OpportunityMin, def.OpportunityMax
	}
	if t.Volatility == "" {
		t.Volatility = def.Volatility
	}
	return t
}

func rollPaydayThreshold(d *Dice, tun Tunables) int {
	return d.Between(tun.PaydayMin, tun.PaydayMax)
}

func drawDayType(d *Dice, tun Tunables) DayType {
	roll := d.Float() * 100
	var acc float64
	for _, dt := range dayTypeOrder {
		acc += tun.DayWeights[dt]
		if roll < acc {
			return dt
		}
	}
	return DayDefault
}

// Refresh advances the world by one cycle.
func Refresh(s *State, d *Dice, tun Tunables, now time.Time) RefreshReport {
	tun = tun.Normalized()
	s.Cycle++
	s.Feed = nil
	rep := RefreshReport{Cycle: s.Cycle}

	rep.Expired = ExpirePendingStartupOffers(s, now)

	rep.MarketKind = pickMarketKind(s, d)
	runMarketUpdate(s, d, tun, rep.MarketKind, now)

	for i, n := 0, d.Between(tun.OpportunityMin, tun.OpportunityMax); i < n; i++ {
		if GenerateOpportunity(s, d, d.Float() < largeOpportunityProbability, now) {
			rep.Opportunities++
		}
	}

	for i, n := 0, d.Between(tun.FillerMin, tun.FillerMax); i < n; i++ {
		s.Feed = append(s.Feed, fillerPost(d, now))
	}

	rep.DayType = drawDayType(d, tun)
	if runDayType(s, d, tun, rep.DayType, now) {
		rep.Opportunities++
	}

	if s.PaydayThreshold <= 0 {
		s.PaydayThreshold = rollPaydayThreshold(d, tun)
	}
	s.RefreshesSincePayday++
	if s.RefreshesSincePayday >= s.PaydayThreshold {
		rep.Payday = true
		rep.LeveledUp = runPayday(s, d, tun, now)
	}

	composeFeed(s, d)
	rep.FeedPosts = len(s.Feed)

	s.ExitPrompt = CheckStartupExitOpportunities(s)
	rep.ExitPrompt = s.ExitPrompt != nil
	return rep
}

func runMarketUpdate(s *State, d *Dice, tun Tunables, kind UpdateKind, now time.Time) {
	u := GenerateMarketUpdate(s, d, kind, tun.Volatility)
	if len(u.Items) == 0 {
		return
	}
	// Generated updates only reference existing entries.
	if err := ApplyMarketUpdate(s, u); err != nil {
		return
	}
	s.Feed = append(s.Feed, marketPost(u, now))
}

// runDayType reports whether it sent a business offer.
func runDayType(s *State, d *Dice, tun Tunables, dt DayType, now time.Time) bool {
	switch dt {
	case DayPayday:
		left := s.PaydayThreshold - s.RefreshesSincePayday - 1
		if left < 1 {
			left = 1
		}
		sendMessage(s, contactBank, fmt.Sprintf("Heads up: your next paycheck of %s lands in about %d day(s).",
			FormatUSD(MonthlySalary(s)), left), now)
	case DayExpense:
		surpriseExpense(s, d, now)
	case DayNewChild:
		newChild(s, now)
	case DayCryptoUpdate:
		runMarketUpdate(s, d, tun, UpdateCrypto, now)
	case DayEquityUpdate:
		runMarketUpdate(s, d, tun, UpdateEquity, now)
	case DayCryptoDM:
		cryptoDM(s, d, now)
	case DayStartupExit:
		if len(s.Businesses) > 0 {
			acquirerInterest(s, d, now)
			return false
		}
		return GenerateOpportunity(s, d, false, now)
	default:
		return GenerateOpportunity(s, d, false, now)
	}
	return false
}

// runPayday advances the calendar one month and books it. It reports whether
// the player just left the rat race.
func runPayday(s *State, d *Dice, tun Tunables, now time.Time) bool {
	if s.GameDate.IsZero() {
		s.GameDate = firstOfMonth(now)
	}
	s.GameDate = s.GameDate.AddDate(0, 1, 0)
	if RecordMonthlyTransactions(s, s.GameDate) {
		sendMessage(s, contactBank, fmt.Sprintf("Payday! %s salary deposited. Net cashflow this month: %s.",
			FormatUSD(MonthlySalary(s)), FormatUSD(MonthlyCashflow(s))), now)
	}
	s.RefreshesSincePayday = 0
	s.PaydayThreshold = rollPaydayThreshold(d, tun)
	return checkWealthStage(s, now)
}

// checkWealthStage promotes the player once, on the first payday where
// income covers expenses.
func checkWealthStage(s *State, now time.Time) bool {
	if s.LeveledUp || !OutOfRatRace(s) {
		return false
	}
	s.LeveledUp = true
	s.Player.Stage = StageWealth
	sendMessage(s, contactMentor, fmt.Sprintf("You did it. %s a month coming in against %s going out. You're out of the rat race.",
		FormatUSD(MonthlyIncome(s)), FormatUSD(MonthlyExpenses(s))), now)
	sendMessage(s, contactAdvisor, "Congratulations. Let's talk about the next stage: bigger deals, a trust, and protecting what you've built.", now)
	return true
}

func surpriseExpense(s *State, d *Dice, now time.Time) {
	e := pick(d, surpriseExpenses)
	desc := "Surprise: " + e.Name
	for _, acct := range []AccountKind{AccountChecking, s.Role().CardType} {
		if acct == "" {
			continue
		}
		if err := Charge(s, acct, e.Amount, desc, now); err == nil {
			sendMessage(s, contactBank, fmt.Sprintf("%s: %s charged to %s.", e.Name, FormatUSD(e.Amount), acct), now)
			return
		}
	}
	sendMessage(s, contactBank, fmt.Sprintf("Declined: %s for %s. No account could cover it.", e.Name, FormatUSD(e.Amount)), now)
}

func newChild(s *State, now time.Time) {
	if s.Player.Children >= MaxChildren {
		return
	}
	s.Player.Children++
	sendMessage(s, contactFamily, fmt.Sprintf("Congratulations on the new baby! That's %d now. Childcare adds %s a month.",
		s.Player.Children, FormatUSD(ChildMonthlyCostMicros)), now)
}

func cryptoDM(s *State, d *Dice, now time.Time) {
	var coins []Quote
	for _, q := range s.Quotes {
		if q.Type == AssetCrypto {
			coins = append(coins, q)
		}
	}
	if len(coins) == 0 {
		return
	}
	q := pick(d, coins)
	sendMessage(s, contactCryptoBro, fmt.Sprintf("Bro. %s at %s is a gift. Get in before it moons.", q.Symbol, FormatUSD(q.Price)), now)
}

// acquirerInterest bumps one business's exit multiple and lets the founder
// know a buyer is circling.
func acquirerInterest(s *State, d *Dice, now time.Time) {
	b := &s.Businesses[d.Intn(len(s.Businesses))]
	b.CurrentExitMultiple = clampMultiple(b.CurrentExitMultiple * d.Range(1.3, 1.8))
	sendMessage(s, founderOf(*b), fmt.Sprintf("An acquirer is circling %s. They're talking %.1fx, your stake would fetch %s.",
		b.Name, b.CurrentExitMultiple, FormatUSD(b.PlayerExitProceeds())), now)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
