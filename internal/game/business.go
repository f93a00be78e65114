package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const assetTipProbability = 0.3

func (b Business) MonthlyCashflow() int64 {
	return b.Revenue - b.Expenses
}

// ExitValue is annual cashflow times the current exit multiple.
func (b Business) ExitValue() int64 {
	v := scaleMicros(b.MonthlyCashflow()*12, b.CurrentExitMultiple)
	if v < 0 {
		return 0
	}
	return v
}

func (b Business) PlayerExitProceeds() int64 {
	return shareOf(b.ExitValue(), b.RevenueShare)
}

func (b Business) MonthlyDividend() int64 {
	return shareOf(b.MonthlyCashflow(), b.RevenueShare)
}

func (s *State) businessIndex(id string) int {
	for i := range s.Businesses {
		if s.Businesses[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) businessIndexBySymbol(symbol string) int {
	for i := range s.Businesses {
		if s.Businesses[i].Symbol == symbol {
			return i
		}
	}
	return -1
}

// businessForItem resolves a market update item by business id, falling back
// to the symbol for updates built by hand.
func (s *State) businessForItem(item MarketUpdateItem) int {
	if item.BusinessID != "" {
		return s.businessIndex(item.BusinessID)
	}
	return s.businessIndexBySymbol(item.Symbol)
}

func templateByID(id string) (businessTemplate, bool) {
	for _, t := range businessCatalog {
		if t.ID == id {
			return t, true
		}
	}
	return businessTemplate{}, false
}

func founderOf(b Business) contact {
	if t, ok := templateByID(b.TemplateID); ok {
		return founderContact(t)
	}
	return contact{ID: b.FounderID, Name: b.Name, Role: "Founder"}
}

func businessFromTemplate(t businessTemplate, d *Dice) Business {
	jitter := func(v int64) int64 { return scaleMicros(v, d.Range(0.9, 1.1)) }
	return Business{
		ID:                  uuid.NewString(),
		TemplateID:          t.ID,
		Name:                t.Name,
		Symbol:              t.Symbol,
		Category:            t.Category,
		FounderID:           founderContact(t).ID,
		Revenue:             jitter(t.Revenue),
		Expenses:            jitter(t.Expenses),
		SetupCost:           t.SetupCost,
		SaleMultiple:        t.SaleMultiple,
		RevenueShare:        t.RevenueShare,
		CurrentExitMultiple: clampMultiple(t.Multiple),
	}
}

// GenerateOpportunity either posts an informational asset tip to the feed or
// sends a pending business offer. It reports whether an offer was sent.
func GenerateOpportunity(s *State, d *Dice, large bool, now time.Time) bool {
	if d.Float() < assetTipProbability && len(s.Quotes) > 0 {
		q := pick(d, s.Quotes)
		s.Feed = append(s.Feed, assetTipPost(d, q, now))
		return false
	}
	pool := templatesForSize(large)
	if len(pool) == 0 {
		return false
	}
	t := pick(d, pool)
	b := businessFromTemplate(t, d)
	content := fmt.Sprintf("%s\n\n%s is raising %s for a %.0f%% revenue share. Monthly revenue %s, expenses %s.",
		t.Pitch, b.Name, FormatUSD(b.SetupCost), b.RevenueShare, FormatUSD(b.Revenue), FormatUSD(b.Expenses))
	m := newMessage(founderContact(t), content, now, s.Cycle)
	m.Opportunity = &b
	m.Status = StatusPending
	AddMessageToThread(s, m)
	return true
}

// ExpirePendingStartupOffers closes offers left unanswered from earlier
// cycles and lets each sender say it is too late.
func ExpirePendingStartupOffers(s *State, now time.Time) int {
	var expired []Message
	for i := range s.Inbox.Messages {
		m := &s.Inbox.Messages[i]
		if m.Status != StatusPending || m.Cycle >= s.Cycle {
			continue
		}
		m.Status = StatusExpired
		expired = append(expired, *m)
	}
	for _, m := range expired {
		c := contact{ID: m.SenderID, Name: m.SenderName, Role: m.SenderRole}
		name := "the deal"
		if m.Opportunity != nil {
			name = m.Opportunity.Name
		}
		sendMessage(s, c, fmt.Sprintf("Too late, the round for %s closed. Maybe next time.", name), now)
	}
	return len(expired)
}

// HandleOpportunityResponse resolves a pending offer and appends the player's
// reply and the counterparty's answer. Offers already resolved are rejected
// with ErrInvalidState.
func HandleOpportunityResponse(s *State, messageID string, accepted, expired bool, now time.Time) error {
	m := s.Inbox.find(messageID)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	if m.Opportunity == nil || m.Status != StatusPending {
		return fmt.Errorf("%w: message %s is not a pending offer", ErrInvalidState, messageID)
	}
	var reply, answer string
	switch {
	case expired:
		m.Status = StatusExpired
		reply = "Sorry, I missed this one."
		answer = "No worries, the round already closed."
	case accepted:
		m.Status = StatusAccepted
		reply = "I'm in. Let's do this."
		answer = fmt.Sprintf("Welcome aboard! Funds received, %s is officially part of your portfolio.", m.Opportunity.Name)
	default:
		m.Status = StatusRejected
		reply = "I'll pass on this one, thanks."
		answer = "Understood. I'll keep you in mind for the next one."
	}
	threadID := m.ThreadID
	c := contact{ID: m.SenderID, Name: m.SenderName, Role: m.SenderRole}
	AddMessageToThread(s, playerMessage(s, threadID, reply, now))
	AddMessageToThread(s, newMessage(c, answer, now, s.Cycle))
	return nil
}

// AcceptOpportunity adds a copy of b with a fresh identity to the active
// businesses. The caller has already paid the setup cost.
func AcceptOpportunity(s *State, b Business, now time.Time) Business {
	nb := b
	nb.ID = uuid.NewString()
	nb.AcquiredAt = now
	nb.CurrentExitMultiple = clampMultiple(nb.CurrentExitMultiple)
	s.Businesses = append(s.Businesses, nb)
	s.StartupOwned = true
	s.Feed = append([]Post{{
		ID:         uuid.NewString(),
		Author:     s.Player.Name,
		Handle:     s.Player.Handle,
		FromPlayer: true,
		Content:    fmt.Sprintf("Just became a partner in %s! %s a month coming my way.", nb.Name, FormatUSD(nb.MonthlyDividend())),
		Timestamp:  now,
		Link:       PostLink{Kind: LinkOpportunity, Symbol: nb.Symbol},
	}}, s.Feed...)
	return nb
}

// SellBusiness sells the player's stake at the current exit value. Tier 3
// players receive proceeds into the family trust.
func SellBusiness(s *State, businessID string, now time.Time) (int64, error) {
	i := s.businessIndex(businessID)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrBusinessNotFound, businessID)
	}
	b := s.Businesses[i]
	proceeds := b.PlayerExitProceeds()
	account := AccountChecking
	if s.Role().Tier >= 3 {
		account = AccountFamilyTrust
	}
	if proceeds > 0 {
		if err := Deposit(s, account, proceeds, fmt.Sprintf("Sale of %s stake", b.Name), now); err != nil {
			return 0, err
		}
	}
	s.Businesses = append(s.Businesses[:i], s.Businesses[i+1:]...)
	if s.ExitPrompt != nil && s.ExitPrompt.BusinessID == businessID {
		s.ExitPrompt = nil
	}
	sendMessage(s, founderOf(b), fmt.Sprintf("Sale closed: your %.0f%% of %s went for %s at %.1fx. Pleasure doing business.",
		b.RevenueShare, b.Name, FormatUSD(proceeds), b.CurrentExitMultiple), now)
	return proceeds, nil
}

// CheckStartupExitOpportunities surfaces at most one business per cycle whose
// exit multiple has reached 1.2x its target.
func CheckStartupExitOpportunities(s *State) *ExitPrompt {
	for _, b := range s.Businesses {
		if b.CurrentExitMultiple >= ExitTriggerRatio*b.SaleMultiple {
			return &ExitPrompt{
				BusinessID: b.ID,
				Name:       b.Name,
				Multiple:   b.CurrentExitMultiple,
				Proceeds:   b.PlayerExitProceeds(),
			}
		}
	}
	return nil
}
