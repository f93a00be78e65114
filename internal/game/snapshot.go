package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const SnapshotVersion = 1

var ErrNoSnapshot = errors.New("no saved game")

// snapshot is the persisted form of State. Everything except the player is
// optional so older or partial saves still load.
type snapshot struct {
	Version              int                `json:"version"`
	SavedAt              time.Time          `json:"saved_at"`
	Player               *Player            `json:"player"`
	GoalID               *string            `json:"goal_id,omitempty"`
	Accounts             *Accounts          `json:"accounts,omitempty"`
	Transactions         []Transaction      `json:"transactions,omitempty"`
	Crypto               *Portfolio         `json:"crypto,omitempty"`
	Equity               *Portfolio         `json:"equity,omitempty"`
	Quotes               []Quote            `json:"quotes,omitempty"`
	Businesses           []Business         `json:"businesses,omitempty"`
	StartupOwned         *bool              `json:"startup_owned,omitempty"`
	Messages             []Message          `json:"messages,omitempty"`
	Threads              map[string]*Thread `json:"threads,omitempty"`
	UserPosts            []Post             `json:"user_posts,omitempty"`
	PendingPosts         []Post             `json:"pending_posts,omitempty"`
	Market               *MarketState       `json:"market,omitempty"`
	ExitPrompt           *ExitPrompt        `json:"exit_prompt,omitempty"`
	GameDate             *time.Time         `json:"game_date,omitempty"`
	LastRecordedMonth    *string            `json:"last_recorded_month,omitempty"`
	Cycle                *int64             `json:"cycle,omitempty"`
	RefreshesSincePayday *int               `json:"refreshes_since_payday,omitempty"`
	PaydayThreshold      *int               `json:"payday_threshold,omitempty"`
	LeveledUp            *bool              `json:"leveled_up,omitempty"`
}

func Encode(s *State, now time.Time) ([]byte, error) {
	snap := snapshot{
		Version:              SnapshotVersion,
		SavedAt:              now,
		Player:               &s.Player,
		GoalID:               &s.GoalID,
		Accounts:             &s.Accounts,
		Transactions:         s.Transactions,
		Crypto:               &s.Crypto,
		Equity:               &s.Equity,
		Quotes:               s.Quotes,
		Businesses:           s.Businesses,
		StartupOwned:         &s.StartupOwned,
		Messages:             s.Inbox.Messages,
		Threads:              s.Inbox.Threads,
		UserPosts:            s.UserPosts,
		PendingPosts:         s.PendingPosts,
		Market:               &s.Market,
		ExitPrompt:           s.ExitPrompt,
		LastRecordedMonth:    &s.LastRecordedMonth,
		Cycle:                &s.Cycle,
		RefreshesSincePayday: &s.RefreshesSincePayday,
		PaydayThreshold:      &s.PaydayThreshold,
		LeveledUp:            &s.LeveledUp,
	}
	if !s.GameDate.IsZero() {
		snap.GameDate = &s.GameDate
	}
	return json.Marshal(snap)
}

// Decode parses a snapshot and restores derived invariants. A snapshot
// without a player is rejected.
func Decode(raw []byte, d *Dice, tun Tunables, now time.Time) (*State, error) {
	if len(raw) == 0 {
		return nil, ErrNoSnapshot
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("decode snapshot: version %d is newer than %d", snap.Version, SnapshotVersion)
	}
	if snap.Player == nil || snap.Player.ID == "" {
		return nil, fmt.Errorf("decode snapshot: missing player")
	}

	s := &State{
		Player:       *snap.Player,
		Transactions: snap.Transactions,
		Quotes:       snap.Quotes,
		Businesses:   snap.Businesses,
		UserPosts:    snap.UserPosts,
		PendingPosts: snap.PendingPosts,
		ExitPrompt:   snap.ExitPrompt,
		Inbox:        Inbox{Messages: snap.Messages, Threads: snap.Threads},
	}
	setIf(&s.GoalID, snap.GoalID)
	setIf(&s.Accounts, snap.Accounts)
	setIf(&s.Crypto, snap.Crypto)
	setIf(&s.Equity, snap.Equity)
	setIf(&s.StartupOwned, snap.StartupOwned)
	setIf(&s.Market, snap.Market)
	setIf(&s.GameDate, snap.GameDate)
	setIf(&s.LastRecordedMonth, snap.LastRecordedMonth)
	setIf(&s.Cycle, snap.Cycle)
	setIf(&s.RefreshesSincePayday, snap.RefreshesSincePayday)
	setIf(&s.PaydayThreshold, snap.PaydayThreshold)
	setIf(&s.LeveledUp, snap.LeveledUp)

	Restore(s, d, tun, now)
	return s, nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Restore repairs a loaded state: duplicate messages are dropped, threads are
// rebuilt, missing defaults are filled and an empty inbox gets the
// onboarding script.
func Restore(s *State, d *Dice, tun Tunables, now time.Time) {
	tun = tun.Normalized()
	s.Inbox.Messages = dedupeMessages(s.Inbox.Messages)
	s.Inbox.rebuildThreads()
	if len(s.Inbox.Messages) == 0 {
		injectOnboarding(s, now)
	}
	if s.PaydayThreshold <= 0 {
		s.PaydayThreshold = rollPaydayThreshold(d, tun)
	}
	if len(s.Quotes) == 0 {
		s.Quotes = defaultQuotes()
	}
	if s.Market.Regime == "" {
		s.Market.Regime = regimeNeutral
	}
	if s.Player.Stage == "" {
		s.Player.Stage = StageRatRace
		if s.LeveledUp {
			s.Player.Stage = StageWealth
		}
	}
	if s.ExitPrompt != nil && s.businessIndex(s.ExitPrompt.BusinessID) < 0 {
		s.ExitPrompt = nil
	}
	if len(s.Businesses) > 0 {
		s.StartupOwned = true
	}
}

func dedupeMessages(in []Message) []Message {
	type key struct {
		thread  string
		sender  string
		at      int64
		content string
	}
	seen := make(map[key]bool, len(in))
	ids := make(map[string]bool, len(in))
	out := make([]Message, 0, len(in))
	for _, m := range in {
		thread := m.ThreadID
		if thread == "" {
			thread = m.SenderID
		}
		k := key{thread, m.SenderID, m.Timestamp.UnixNano(), m.Content}
		if seen[k] || (m.ID != "" && ids[m.ID]) {
			continue
		}
		seen[k] = true
		ids[m.ID] = true
		out = append(out, m)
	}
	return out
}

func injectOnboarding(s *State, now time.Time) {
	for i, step := range onboardingScript() {
		sendMessage(s, step.From, step.Content, now.Add(time.Duration(i)*time.Second))
	}
}
