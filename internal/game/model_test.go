package game

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestState(t *testing.T, roleID string) *State {
	t.Helper()
	s, err := NewGame(NewGameInput{RoleID: roleID, GoalID: "escape", Name: "Test Player"}, NewDice(7), DefaultTunables(), testNow)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return s
}

func TestValidateSymbol(t *testing.T) {
	valid := []string{"BTC", "PIXL", "AB", "NVDA42"}
	for _, s := range valid {
		if err := ValidateSymbol(s); err != nil {
			t.Fatalf("expected symbol %q to be valid: %v", s, err)
		}
	}

	invalid := []string{"btc", "A", "TOOLONG7", "A_BC", ""}
	for _, s := range invalid {
		if err := ValidateSymbol(s); err == nil {
			t.Fatalf("expected symbol %q to fail", s)
		}
	}
}

func TestNotionalMicros(t *testing.T) {
	price := 50_000 * MicrosPerDollar
	qty, err := QtyToUnits(0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qty != QtyScale/10 {
		t.Fatalf("qty units: got %d want %d", qty, QtyScale/10)
	}
	got := notionalMicros(price, qty)
	want := 5_000 * MicrosPerDollar
	if got != want {
		t.Fatalf("got %d want %d", got, want)
	}
}

func TestWeightedAverage(t *testing.T) {
	tests := []struct {
		name                    string
		oldQty, oldAvg, qty, px int64
		want                    int64
	}{
		{name: "first lot", oldQty: 0, oldAvg: 0, qty: 2 * QtyScale, px: 100 * MicrosPerDollar, want: 100 * MicrosPerDollar},
		{name: "equal lots", oldQty: QtyScale, oldAvg: 100 * MicrosPerDollar, qty: QtyScale, px: 200 * MicrosPerDollar, want: 150 * MicrosPerDollar},
		{name: "uneven lots", oldQty: 3 * QtyScale, oldAvg: 10 * MicrosPerDollar, qty: QtyScale, px: 30 * MicrosPerDollar, want: 15 * MicrosPerDollar},
	}
	for _, tc := range tests {
		got := weightedAverage(tc.oldQty, tc.oldAvg, tc.qty, tc.px)
		if got != tc.want {
			t.Fatalf("%s: got %d want %d", tc.name, got, tc.want)
		}
	}
}

func TestShareOfAndClamp(t *testing.T) {
	if got := shareOf(384_000*MicrosPerDollar, 20); got != 76_800*MicrosPerDollar {
		t.Fatalf("shareOf: got %d", got)
	}
	tests := []struct {
		in, want float64
	}{
		{in: 0.2, want: MinExitMultiple},
		{in: 4, want: 4},
		{in: 55, want: MaxExitMultiple},
	}
	for _, tc := range tests {
		if got := clampMultiple(tc.in); got != tc.want {
			t.Fatalf("clampMultiple(%v)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	if got := FormatUSD(76_800 * MicrosPerDollar); got != "$76,800.00" {
		t.Fatalf("got %q", got)
	}
	if got := FormatUSD(1_250_000); got != "$1.25" {
		t.Fatalf("got %q", got)
	}
}

func TestValidateName(t *testing.T) {
	if err := validateName("Alex Rivera"); err != nil {
		t.Fatalf("expected valid name: %v", err)
	}
	if err := validateName("admin person"); err == nil {
		t.Fatalf("expected blocked name to fail")
	}
	if got := sanitizeHandle("Dr. Ada Chen"); got != "dr__ada_chen" {
		t.Fatalf("sanitizeHandle got %q", got)
	}
	if got := sanitizeHandle("!!"); got != "player" {
		t.Fatalf("sanitizeHandle got %q", got)
	}
}

func TestNewGameStartingBalances(t *testing.T) {
	tests := []struct {
		role     string
		checking int64
		trust    int64
	}{
		{role: "barista", checking: usd(5_000)},
		{role: "engineer", checking: usd(15_000)},
		{role: "heir", checking: usd(60_000), trust: usd(250_000)},
	}
	for _, tc := range tests {
		s := newTestState(t, tc.role)
		if s.Accounts.Checking != tc.checking || s.Accounts.FamilyTrust != tc.trust {
			t.Fatalf("%s: got %+v", tc.role, s.Accounts)
		}
		if len(s.Inbox.Messages) != 4 {
			t.Fatalf("%s: expected onboarding script, got %d messages", tc.role, len(s.Inbox.Messages))
		}
		if s.PaydayThreshold < 3 || s.PaydayThreshold > 6 {
			t.Fatalf("%s: payday threshold %d out of range", tc.role, s.PaydayThreshold)
		}
	}

	if _, err := NewGame(NewGameInput{RoleID: "astronaut", GoalID: "escape"}, NewDice(1), DefaultTunables(), testNow); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
	if _, err := NewGame(NewGameInput{RoleID: "teacher", GoalID: "moon"}, NewDice(1), DefaultTunables(), testNow); err == nil {
		t.Fatalf("expected unknown goal to fail")
	}
}
