package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferRejectsWithoutMutation(t *testing.T) {
	s := newTestState(t, "teacher")
	before := s.Accounts
	txs := len(s.Transactions)

	tests := []struct {
		name     string
		from, to AccountKind
		amount   int64
		want     error
	}{
		{name: "insufficient", from: AccountSavings, to: AccountChecking, amount: usd(1_000_000), want: ErrInsufficientFunds},
		{name: "zero", from: AccountChecking, to: AccountSavings, amount: 0, want: ErrInvalidAmount},
		{name: "negative", from: AccountChecking, to: AccountSavings, amount: -usd(5), want: ErrInvalidAmount},
		{name: "card source", from: AccountCreditStandard, to: AccountChecking, amount: usd(10), want: ErrAccountNotFound},
		{name: "unknown", from: AccountChecking, to: AccountKind("offshore"), amount: usd(10), want: ErrAccountNotFound},
	}
	for _, tc := range tests {
		err := Transfer(s, tc.from, tc.to, tc.amount, testNow)
		assert.ErrorIs(t, err, tc.want, tc.name)
	}
	assert.Equal(t, before, s.Accounts)
	assert.Len(t, s.Transactions, txs)
}

func TestTransferMovesFunds(t *testing.T) {
	s := newTestState(t, "teacher")
	require.NoError(t, Transfer(s, AccountChecking, AccountSavings, usd(1_500), testNow))
	assert.Equal(t, usd(3_500), s.Accounts.Checking)
	assert.Equal(t, usd(2_500), s.Accounts.Savings)
	require.Len(t, s.Transactions, 2)
	assert.False(t, s.Transactions[0].IsIncome)
	assert.True(t, s.Transactions[1].IsIncome)
}

func TestPayCreditClampsToOwed(t *testing.T) {
	s := newTestState(t, "teacher")
	_, err := PayCredit(s, usd(100), AccountCreditStandard, testNow)
	require.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, Charge(s, AccountCreditStandard, usd(300), "Groceries", testNow))
	assert.Equal(t, usd(300), s.Accounts.CreditStandard)

	paid, err := PayCredit(s, usd(1_000), AccountCreditStandard, testNow)
	require.NoError(t, err)
	assert.Equal(t, usd(300), paid)
	assert.Zero(t, s.Accounts.CreditStandard)
	assert.Equal(t, usd(4_700), s.Accounts.Checking)
}

func TestCanAffordCredit(t *testing.T) {
	s := newTestState(t, "teacher")
	assert.True(t, CanAfford(s, AccountCreditStandard, usd(5_000)))
	assert.False(t, CanAfford(s, AccountCreditStandard, usd(5_001)))
	// Teachers do not carry a platinum card.
	assert.False(t, CanAfford(s, AccountCreditPlatinum, usd(1)))

	err := Charge(s, AccountCreditPlatinum, usd(1), "nope", testNow)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Zero(t, s.Accounts.CreditPlatinum)
}

func TestRecordMonthlyTransactionsOncePerMonth(t *testing.T) {
	s := newTestState(t, "teacher")
	s.Player.Children = 1
	role := s.Role()

	require.True(t, RecordMonthlyTransactions(s, testNow))
	booked := len(s.Transactions)
	// Salary plus five expense lines plus childcare.
	assert.Equal(t, 1+len(role.Expenses)+1, booked)
	want := usd(5_000) + role.MonthlySalary - MonthlyExpenses(s)
	assert.Equal(t, want, s.Accounts.Checking)

	checking := s.Accounts.Checking
	assert.False(t, RecordMonthlyTransactions(s, testNow.AddDate(0, 0, 10)))
	assert.Len(t, s.Transactions, booked)
	assert.Equal(t, checking, s.Accounts.Checking)

	assert.True(t, RecordMonthlyTransactions(s, testNow.AddDate(0, 1, 0)))
}

func TestDerivedIncome(t *testing.T) {
	s := newTestState(t, "barista")
	assert.Equal(t, usd(3_200), MonthlyIncome(s))
	assert.Equal(t, usd(3_300), MonthlyExpenses(s))
	assert.Equal(t, -usd(100), MonthlyCashflow(s))
	assert.False(t, OutOfRatRace(s))

	s.Businesses = append(s.Businesses, Business{Revenue: usd(12_000), Expenses: usd(4_000), RevenueShare: 20, CurrentExitMultiple: 4})
	assert.Equal(t, usd(1_600), PassiveIncome(s))
	assert.True(t, OutOfRatRace(s))
	assert.Equal(t, usd(5_000)+usd(1_000)+usd(76_800), NetWorth(s))

	// Income equal to expenses is still the rat race.
	s.Player.Children = 2
	assert.Equal(t, usd(4_800), MonthlyExpenses(s))
	assert.False(t, OutOfRatRace(s))
}

func TestRolesStartInRatRace(t *testing.T) {
	for _, r := range Roles {
		s := newTestState(t, r.ID)
		assert.GreaterOrEqual(t, MonthlyExpenses(s), r.MonthlySalary, r.ID)
		assert.False(t, OutOfRatRace(s), r.ID)
		assert.Zero(t, PassiveIncome(s), r.ID)
	}
}
