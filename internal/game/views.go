package game

import (
	"sort"

	"github.com/shopspring/decimal"
)

func BuildDashboard(s *State) Dashboard {
	d := Dashboard{
		Player:          s.Player,
		Role:            s.Role(),
		GoalID:          s.GoalID,
		Goal:            GoalProgressFor(s),
		GameDate:        s.GameDate,
		Accounts:        s.Accounts,
		MonthlySalary:   MonthlySalary(s),
		PassiveIncome:   PassiveIncome(s),
		MonthlyIncome:   MonthlyIncome(s),
		MonthlyExpenses: MonthlyExpenses(s),
		MonthlyCashflow: MonthlyCashflow(s),
		OutOfRatRace:    OutOfRatRace(s),
		NetWorth:        NetWorth(s),
		UnreadMessages:  UnreadMessageCount(s),
		ExitPrompt:      s.ExitPrompt,
	}
	for _, p := range []*Portfolio{&s.Crypto, &s.Equity} {
		for _, a := range p.Assets {
			d.Positions = append(d.Positions, PositionView{
				Symbol:           a.Symbol,
				Name:             a.Name,
				Type:             a.Type,
				QuantityUnits:    a.Quantity,
				AvgPriceMicros:   a.PurchasePrice,
				CurrentPrice:     a.CurrentPrice,
				UnrealizedMicros: notionalMicros(a.CurrentPrice, a.Quantity) - notionalMicros(a.PurchasePrice, a.Quantity),
			})
		}
	}
	sort.Slice(d.Positions, func(i, j int) bool { return d.Positions[i].Symbol < d.Positions[j].Symbol })
	for _, b := range s.Businesses {
		d.Businesses = append(d.Businesses, BusinessView{
			ID:              b.ID,
			Name:            b.Name,
			Symbol:          b.Symbol,
			MonthlyCashflow: b.MonthlyCashflow(),
			MonthlyDividend: b.MonthlyDividend(),
			RevenueShare:    b.RevenueShare,
			ExitMultiple:    b.CurrentExitMultiple,
			SaleMultiple:    b.SaleMultiple,
			ExitValue:       b.ExitValue(),
			PlayerProceeds:  b.PlayerExitProceeds(),
		})
	}
	return d
}

// GoalProgressFor reports passive income against the goal target, capped at
// 100 percent. An unknown goal id yields only the id.
func GoalProgressFor(s *State) GoalProgress {
	gp := GoalProgress{ID: s.GoalID, PassiveIncome: PassiveIncome(s)}
	goal, err := GoalByID(s.GoalID)
	if err != nil {
		return gp
	}
	gp.Title = goal.Title
	gp.TargetPassiveIncome = goal.TargetPassiveIncome
	if goal.TargetPassiveIncome <= 0 {
		return gp
	}
	pct := decimal.NewFromInt(gp.PassiveIncome).Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(goal.TargetPassiveIncome)).Round(1)
	if pct.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		pct = decimal.NewFromInt(100)
		gp.Reached = true
	}
	gp.Percent = pct.InexactFloat64()
	return gp
}

// PendingOffers lists offers still awaiting an answer, oldest first.
func PendingOffers(s *State) []Message {
	var out []Message
	for _, m := range s.Inbox.Messages {
		if m.Status == StatusPending && m.Opportunity != nil {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// RecentTransactions returns up to limit transactions, newest first.
func RecentTransactions(s *State, limit int) []Transaction {
	n := len(s.Transactions)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Transaction, 0, limit)
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.Transactions[i])
	}
	return out
}
