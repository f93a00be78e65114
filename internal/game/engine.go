package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Store persists one encoded snapshot.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

type Options struct {
	Seed     int64
	Tunables Tunables
	Now      func() time.Time
}

// Engine owns one State. Calls are serialized and every mutation is saved
// before the call returns.
type Engine struct {
	store Store
	log   *slog.Logger
	mu    sync.Mutex
	dice  *Dice
	tun   Tunables
	now   func() time.Time
	state *State
}

func NewEngine(store Store, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	e := &Engine{
		store: store,
		log:   logger,
		dice:  NewDice(opts.Seed),
		tun:   opts.Tunables.Normalized(),
		now:   now,
	}
	e.state = defaultGame(e.dice, e.tun, now())
	return e
}

// Load replaces the current state with the stored snapshot. Missing or
// unreadable snapshots start a fresh default game.
func (e *Engine) Load(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if e.store == nil {
		return
	}
	raw, err := e.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			e.log.Info("no saved game, starting fresh")
		} else {
			e.log.Warn("load snapshot failed, starting fresh", "err", err)
		}
		e.state = defaultGame(e.dice, e.tun, now)
		e.saveLocked(ctx, "load")
		return
	}
	s, err := Decode(raw, e.dice, e.tun, now)
	if err != nil {
		e.log.Warn("decode snapshot failed, starting fresh", "err", err)
		e.state = defaultGame(e.dice, e.tun, now)
		e.saveLocked(ctx, "load")
		return
	}
	e.state = s
	e.log.Info("game loaded", "player", s.Player.ID, "cycle", s.Cycle, "messages", len(s.Inbox.Messages))
}

func (e *Engine) saveLocked(ctx context.Context, op string) {
	if e.store == nil {
		return
	}
	raw, err := Encode(e.state, e.now())
	if err != nil {
		e.log.Error("encode snapshot", "op", op, "err", err)
		return
	}
	if err := e.store.Save(ctx, raw); err != nil {
		e.log.Error("save snapshot", "op", op, "err", err)
	}
}

// mutate runs fn under the lock and saves when it succeeds.
func (e *Engine) mutate(ctx context.Context, op string, fn func(s *State, now time.Time) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e.state, e.now()); err != nil {
		e.log.Debug("operation rejected", "op", op, "err", err)
		return err
	}
	e.saveLocked(ctx, op)
	return nil
}

func (e *Engine) view(fn func(s *State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.state)
}

func (e *Engine) NewGame(ctx context.Context, in NewGameInput) (Player, error) {
	var p Player
	err := e.mutate(ctx, "new_game", func(_ *State, now time.Time) error {
		s, err := NewGame(in, e.dice, e.tun, now)
		if err != nil {
			return err
		}
		e.state = s
		p = s.Player
		return nil
	})
	if err == nil {
		e.log.Info("new game", "player", p.ID, "role", p.RoleID)
	}
	return p, err
}

func (e *Engine) Refresh(ctx context.Context) RefreshReport {
	var rep RefreshReport
	_ = e.mutate(ctx, "refresh", func(s *State, now time.Time) error {
		rep = Refresh(s, e.dice, e.tun, now)
		return nil
	})
	e.log.Debug("refresh",
		"cycle", rep.Cycle,
		"day_type", rep.DayType,
		"market", rep.MarketKind,
		"opportunities", rep.Opportunities,
		"expired", rep.Expired,
		"payday", rep.Payday,
	)
	if rep.LeveledUp {
		e.log.Info("player left the rat race", "cycle", rep.Cycle)
	}
	return rep
}

func (e *Engine) Transfer(ctx context.Context, from, to AccountKind, amount int64) error {
	return e.mutate(ctx, "transfer", func(s *State, now time.Time) error {
		return Transfer(s, from, to, amount, now)
	})
}

func (e *Engine) PayCredit(ctx context.Context, amount int64, card AccountKind) (int64, error) {
	var paid int64
	err := e.mutate(ctx, "pay_credit", func(s *State, now time.Time) error {
		var err error
		paid, err = PayCredit(s, amount, card, now)
		return err
	})
	return paid, err
}

// Buy trades at the quoted price. An empty account pays from checking.
func (e *Engine) Buy(ctx context.Context, symbol string, qtyUnits int64, account AccountKind) (Asset, error) {
	var a Asset
	err := e.mutate(ctx, "buy", func(s *State, now time.Time) error {
		q, ok := s.Quote(symbol)
		if !ok {
			return fmt.Errorf("%w: no quote for %s", ErrAssetNotFound, strings.ToUpper(symbol))
		}
		if account == "" {
			account = AccountChecking
		}
		var err error
		a, err = BuyAsset(s, TradeInput{
			Symbol:   q.Symbol,
			Name:     q.Name,
			Type:     q.Type,
			Quantity: qtyUnits,
			Price:    q.Price,
			Account:  account,
			At:       now,
		})
		return err
	})
	return a, err
}

func (e *Engine) Sell(ctx context.Context, symbol string, qtyUnits int64) (int64, error) {
	var proceeds int64
	err := e.mutate(ctx, "sell", func(s *State, now time.Time) error {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		typ := AssetCrypto
		if _, ok := s.Crypto.Get(symbol); !ok {
			if _, ok := s.Equity.Get(symbol); !ok {
				return fmt.Errorf("%w: %s", ErrAssetNotFound, symbol)
			}
			typ = AssetStock
		}
		var err error
		proceeds, err = SellAsset(s, TradeInput{Symbol: symbol, Type: typ, Quantity: qtyUnits, At: now})
		return err
	})
	return proceeds, err
}

// ApplyMarketUpdate applies an externally supplied update.
func (e *Engine) ApplyMarketUpdate(ctx context.Context, u MarketUpdate) error {
	return e.mutate(ctx, "market_update", func(s *State, _ time.Time) error {
		return ApplyMarketUpdate(s, u)
	})
}

// RespondToOffer accepts or rejects a pending offer. Accepting charges the
// setup cost to account first; if that fails the offer stays pending.
func (e *Engine) RespondToOffer(ctx context.Context, messageID string, accept bool, account AccountKind) (Business, error) {
	var owned Business
	err := e.mutate(ctx, "respond_offer", func(s *State, now time.Time) error {
		m := s.Inbox.find(messageID)
		if m == nil {
			return fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
		}
		if m.Opportunity == nil || m.Status != StatusPending {
			return fmt.Errorf("%w: message %s is not a pending offer", ErrInvalidState, messageID)
		}
		if !accept {
			return HandleOpportunityResponse(s, messageID, false, false, now)
		}
		offer := *m.Opportunity
		if account == "" {
			account = AccountChecking
		}
		if err := Charge(s, account, offer.SetupCost, "Investment: "+offer.Name, now); err != nil {
			return err
		}
		if err := HandleOpportunityResponse(s, messageID, true, false, now); err != nil {
			return err
		}
		owned = AcceptOpportunity(s, offer, now)
		return nil
	})
	if err == nil && accept {
		e.log.Info("offer accepted", "business", owned.Name, "setup_cost", owned.SetupCost)
	}
	return owned, err
}

func (e *Engine) ExpireOffer(ctx context.Context, messageID string) error {
	return e.mutate(ctx, "expire_offer", func(s *State, now time.Time) error {
		return HandleOpportunityResponse(s, messageID, false, true, now)
	})
}

func (e *Engine) SellBusiness(ctx context.Context, businessID string) (int64, error) {
	var proceeds int64
	err := e.mutate(ctx, "sell_business", func(s *State, now time.Time) error {
		var err error
		proceeds, err = SellBusiness(s, businessID, now)
		return err
	})
	if err == nil {
		e.log.Info("business sold", "business", businessID, "proceeds", proceeds)
	}
	return proceeds, err
}

func (e *Engine) DismissExitPrompt(ctx context.Context) error {
	return e.mutate(ctx, "dismiss_exit", func(s *State, _ time.Time) error {
		if s.ExitPrompt == nil {
			return fmt.Errorf("%w: no exit offer to dismiss", ErrInvalidState)
		}
		s.ExitPrompt = nil
		return nil
	})
}

func (e *Engine) ArchiveMessage(ctx context.Context, messageID string) error {
	return e.mutate(ctx, "archive", func(s *State, _ time.Time) error {
		return ArchiveMessage(s, messageID)
	})
}

func (e *Engine) MarkMessageRead(ctx context.Context, messageID string) (bool, error) {
	var changed bool
	err := e.mutate(ctx, "mark_read", func(s *State, _ time.Time) error {
		var err error
		changed, err = MarkMessageAsRead(s, messageID)
		return err
	})
	return changed, err
}

func (e *Engine) MarkThreadRead(ctx context.Context, threadID string) bool {
	var changed bool
	_ = e.mutate(ctx, "mark_thread_read", func(s *State, _ time.Time) error {
		changed = MarkThreadAsRead(s, threadID)
		return nil
	})
	return changed
}

func (e *Engine) AddPost(ctx context.Context, content string, media []string) (Post, error) {
	var p Post
	err := e.mutate(ctx, "add_post", func(s *State, now time.Time) error {
		var err error
		p, err = AddPost(s, content, media, now)
		return err
	})
	return p, err
}

func (e *Engine) Dashboard() Dashboard {
	var d Dashboard
	e.view(func(s *State) { d = BuildDashboard(s) })
	return d
}

func (e *Engine) Messages(archived bool) []Message {
	var out []Message
	e.view(func(s *State) {
		if archived {
			out = ArchivedMessages(s)
		} else {
			out = ActiveMessages(s)
		}
	})
	return out
}

func (e *Engine) Thread(threadID string) []Message {
	var out []Message
	e.view(func(s *State) { out = ThreadMessages(s, threadID) })
	return out
}

func (e *Engine) Offers() []Message {
	var out []Message
	e.view(func(s *State) { out = PendingOffers(s) })
	return out
}

func (e *Engine) Feed() []Post {
	var out []Post
	e.view(func(s *State) { out = append([]Post(nil), s.Feed...) })
	return out
}

func (e *Engine) Quotes() []Quote {
	var out []Quote
	e.view(func(s *State) { out = append([]Quote(nil), s.Quotes...) })
	return out
}

func (e *Engine) Transactions(limit int) []Transaction {
	var out []Transaction
	e.view(func(s *State) { out = RecentTransactions(s, limit) })
	return out
}

// Snapshot returns the encoded current state.
func (e *Engine) Snapshot() ([]byte, error) {
	var (
		raw []byte
		err error
	)
	e.view(func(s *State) { raw, err = Encode(s, e.now()) })
	return raw, err
}
