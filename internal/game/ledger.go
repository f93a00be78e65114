package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const monthKeyLayout = "2006-01"

func (s *State) Role() Role {
	r, err := RoleByID(s.Player.RoleID)
	if err != nil {
		return Role{}
	}
	return r
}

func isCreditAccount(kind AccountKind) bool {
	switch kind {
	case AccountCreditStandard, AccountCreditPlatinum, AccountCreditBlack:
		return true
	}
	return false
}

func isDebitAccount(kind AccountKind) bool {
	switch kind {
	case AccountChecking, AccountSavings, AccountFamilyTrust:
		return true
	}
	return false
}

func accountField(a *Accounts, kind AccountKind) (*int64, error) {
	switch kind {
	case AccountChecking:
		return &a.Checking, nil
	case AccountSavings:
		return &a.Savings, nil
	case AccountCreditStandard:
		return &a.CreditStandard, nil
	case AccountCreditPlatinum:
		return &a.CreditPlatinum, nil
	case AccountCreditBlack:
		return &a.CreditBlack, nil
	case AccountFamilyTrust:
		return &a.FamilyTrust, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrAccountNotFound, kind)
}

// Balance returns the balance of a debit account or the amount owed on a card.
func (a Accounts) Balance(kind AccountKind) int64 {
	p, err := accountField(&a, kind)
	if err != nil {
		return 0
	}
	return *p
}

// CreditAvailable is the unused limit on the player's card. Cards the role
// does not carry have no limit.
func CreditAvailable(s *State, card AccountKind) int64 {
	role := s.Role()
	if role.CardType != card {
		return 0
	}
	owed := s.Accounts.Balance(card)
	if owed >= role.CreditLimit {
		return 0
	}
	return role.CreditLimit - owed
}

// CanAfford reports whether amount can be paid from account.
func CanAfford(s *State, account AccountKind, amount int64) bool {
	if amount < 0 {
		return false
	}
	switch {
	case isDebitAccount(account):
		return s.Accounts.Balance(account) >= amount
	case isCreditAccount(account):
		return CreditAvailable(s, account) >= amount
	}
	return false
}

func recordTransaction(s *State, at time.Time, desc string, amount int64, income bool, account AccountKind) {
	s.Transactions = append(s.Transactions, Transaction{
		ID:          uuid.NewString(),
		Date:        at,
		Description: desc,
		Amount:      amount,
		IsIncome:    income,
		Account:     account,
	})
}

// Charge pays amount out of a funding account. Cards accrue debt instead of
// lowering a balance. Nothing is mutated on error.
func Charge(s *State, account AccountKind, amount int64, desc string, at time.Time) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	field, err := accountField(&s.Accounts, account)
	if err != nil {
		return err
	}
	if !CanAfford(s, account, amount) {
		return fmt.Errorf("%w: %s needs %s", ErrInsufficientFunds, account, FormatUSD(amount))
	}
	if isCreditAccount(account) {
		*field += amount
	} else {
		*field -= amount
	}
	recordTransaction(s, at, desc, amount, false, account)
	return nil
}

// Deposit credits a debit account.
func Deposit(s *State, account AccountKind, amount int64, desc string, at time.Time) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !isDebitAccount(account) {
		return fmt.Errorf("%w: cannot deposit into %q", ErrAccountNotFound, account)
	}
	field, err := accountField(&s.Accounts, account)
	if err != nil {
		return err
	}
	*field += amount
	recordTransaction(s, at, desc, amount, true, account)
	return nil
}

// Transfer moves money between debit accounts.
func Transfer(s *State, from, to AccountKind, amount int64, at time.Time) error {
	if !isDebitAccount(from) {
		return fmt.Errorf("%w: %q", ErrAccountNotFound, from)
	}
	if !isDebitAccount(to) {
		return fmt.Errorf("%w: %q", ErrAccountNotFound, to)
	}
	if from == to {
		return fmt.Errorf("%w: transfer to the same account", ErrInvalidState)
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !CanAfford(s, from, amount) {
		return ErrInsufficientFunds
	}
	src, _ := accountField(&s.Accounts, from)
	dst, _ := accountField(&s.Accounts, to)
	*src -= amount
	*dst += amount
	recordTransaction(s, at, fmt.Sprintf("Transfer to %s", to), amount, false, from)
	recordTransaction(s, at, fmt.Sprintf("Transfer from %s", from), amount, true, to)
	return nil
}

// PayCredit pays card debt from checking. Payments above the owed amount are
// clamped. It returns the amount actually paid.
func PayCredit(s *State, amount int64, card AccountKind, at time.Time) (int64, error) {
	if !isCreditAccount(card) {
		return 0, fmt.Errorf("%w: %q is not a card", ErrAccountNotFound, card)
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	owedField, _ := accountField(&s.Accounts, card)
	if *owedField <= 0 {
		return 0, fmt.Errorf("%w: nothing owed on %s", ErrInvalidState, card)
	}
	if amount > *owedField {
		amount = *owedField
	}
	if !CanAfford(s, AccountChecking, amount) {
		return 0, ErrInsufficientFunds
	}
	s.Accounts.Checking -= amount
	*owedField -= amount
	recordTransaction(s, at, fmt.Sprintf("Payment to %s", card), amount, false, AccountChecking)
	return amount, nil
}

// RecordMonthlyTransactions books salary, business dividends and every
// expense line for the calendar month of date. It returns false when that
// month was already booked.
func RecordMonthlyTransactions(s *State, date time.Time) bool {
	key := date.Format(monthKeyLayout)
	if s.LastRecordedMonth == key {
		return false
	}
	role := s.Role()
	if role.MonthlySalary > 0 {
		s.Accounts.Checking += role.MonthlySalary
		recordTransaction(s, date, fmt.Sprintf("Salary: %s", role.Title), role.MonthlySalary, true, AccountChecking)
	}
	if div := PassiveIncome(s); div > 0 {
		s.Accounts.Checking += div
		recordTransaction(s, date, "Business dividends", div, true, AccountChecking)
	}
	// Mandatory bills may overdraw checking.
	for _, item := range expenseLines(s) {
		s.Accounts.Checking -= item.Amount
		recordTransaction(s, date, item.Name, item.Amount, false, AccountChecking)
	}
	s.LastRecordedMonth = key
	return true
}

func expenseLines(s *State) []ExpenseItem {
	role := s.Role()
	out := make([]ExpenseItem, 0, len(role.Expenses)+1)
	out = append(out, role.Expenses...)
	if s.Player.Children > 0 {
		out = append(out, ExpenseItem{
			Name:   fmt.Sprintf("Childcare (%d)", s.Player.Children),
			Amount: int64(s.Player.Children) * ChildMonthlyCostMicros,
		})
	}
	return out
}

func MonthlySalary(s *State) int64 {
	return s.Role().MonthlySalary
}

// PassiveIncome is the player's monthly dividend across active businesses.
func PassiveIncome(s *State) int64 {
	var total int64
	for _, b := range s.Businesses {
		total += b.MonthlyDividend()
	}
	return total
}

func MonthlyIncome(s *State) int64 {
	return MonthlySalary(s) + PassiveIncome(s)
}

func MonthlyExpenses(s *State) int64 {
	var total int64
	for _, item := range expenseLines(s) {
		total += item.Amount
	}
	return total
}

func MonthlyCashflow(s *State) int64 {
	return MonthlyIncome(s) - MonthlyExpenses(s)
}

// OutOfRatRace reports whether income covers expenses.
func OutOfRatRace(s *State) bool {
	return MonthlyIncome(s) > MonthlyExpenses(s)
}

func NetWorth(s *State) int64 {
	a := s.Accounts
	total := a.Checking + a.Savings + a.FamilyTrust - a.CreditStandard - a.CreditPlatinum - a.CreditBlack
	for _, p := range []*Portfolio{&s.Crypto, &s.Equity} {
		total += p.MarketValue()
	}
	for _, b := range s.Businesses {
		total += b.PlayerExitProceeds()
	}
	return total
}
