package game

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var handleRE = regexp.MustCompile(`^@?[a-zA-Z0-9_]{3,24}$`)

var blockedNameFragments = []string{
	"admin",
	"support",
	"shit",
	"fuck",
	"nazi",
}

const (
	defaultRoleID = "teacher"
	defaultGoalID = "escape"
	defaultName   = "Player"
)

// NewGame builds a fresh world for the chosen role and goal. Balances come
// from the role's tier and the inbox opens with the onboarding script.
func NewGame(in NewGameInput, d *Dice, tun Tunables, now time.Time) (*State, error) {
	role, err := RoleByID(in.RoleID)
	if err != nil {
		return nil, err
	}
	goal, err := GoalByID(in.GoalID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = defaultName
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	handle := strings.TrimSpace(in.Handle)
	if handle == "" {
		handle = handleFor(name)
	}
	if !handleRE.MatchString(handle) {
		return nil, fmt.Errorf("%w: handle must be 3-24 letters, digits or underscores", ErrInvalidState)
	}
	if !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}

	s := &State{
		Player: Player{
			ID:        uuid.NewString(),
			Name:      name,
			Handle:    handle,
			RoleID:    role.ID,
			AvatarRef: strings.TrimSpace(in.AvatarRef),
			Stage:     StageRatRace,
			CreatedAt: now,
		},
		GoalID:   goal.ID,
		Accounts: startingAccounts(role.Tier),
		Quotes:   defaultQuotes(),
		Market:   MarketState{Regime: regimeNeutral},
		GameDate: firstOfMonth(now),
	}
	Restore(s, d, tun, now)
	return s, nil
}

func validateName(name string) error {
	if len([]rune(name)) > 40 {
		return fmt.Errorf("%w: name too long (max 40 chars)", ErrInvalidState)
	}
	lower := strings.ToLower(name)
	for _, fragment := range blockedNameFragments {
		if strings.Contains(lower, fragment) {
			return fmt.Errorf("%w: name contains blocked content", ErrInvalidState)
		}
	}
	return nil
}

func sanitizeHandle(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	res := strings.Trim(string(out), "_")
	if len(res) < 3 {
		res = "player_" + res
		res = strings.TrimRight(res, "_")
	}
	if len(res) > 24 {
		res = res[:24]
	}
	return res
}

func defaultGame(d *Dice, tun Tunables, now time.Time) *State {
	s, err := NewGame(NewGameInput{RoleID: defaultRoleID, GoalID: defaultGoalID}, d, tun, now)
	if err != nil {
		panic(fmt.Sprintf("default game: %v", err))
	}
	return s
}
