package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pixelForge() Business {
	return Business{
		ID:                  "biz-1",
		TemplateID:          "app_studio",
		Name:                "Pixel Forge Apps",
		Symbol:              "PIXL",
		Revenue:             usd(12_000),
		Expenses:            usd(4_000),
		SetupCost:           usd(35_000),
		SaleMultiple:        5,
		RevenueShare:        20,
		CurrentExitMultiple: 4,
	}
}

func addOffer(t *testing.T, s *State) Message {
	t.Helper()
	tpl, ok := templateByID("app_studio")
	require.True(t, ok)
	b := businessFromTemplate(tpl, NewDice(3))
	m := newMessage(founderContact(tpl), "Want in?", testNow, s.Cycle)
	m.Opportunity = &b
	m.Status = StatusPending
	stored, added := AddMessageToThread(s, m)
	require.True(t, added)
	return stored
}

func TestBusinessExitMaths(t *testing.T) {
	b := pixelForge()
	assert.Equal(t, usd(8_000), b.MonthlyCashflow())
	assert.Equal(t, usd(384_000), b.ExitValue())
	assert.Equal(t, usd(76_800), b.PlayerExitProceeds())
	assert.Equal(t, usd(1_600), b.MonthlyDividend())

	b.Expenses = usd(20_000)
	assert.Zero(t, b.ExitValue())
}

func TestSellBusinessDestination(t *testing.T) {
	tests := []struct {
		role    string
		account AccountKind
	}{
		{role: "teacher", account: AccountChecking},
		{role: "executive", account: AccountFamilyTrust},
	}
	for _, tc := range tests {
		s := newTestState(t, tc.role)
		s.Businesses = []Business{pixelForge()}
		s.ExitPrompt = CheckStartupExitOpportunities(s)
		before := s.Accounts.Balance(tc.account)

		proceeds, err := SellBusiness(s, "biz-1", testNow)
		require.NoError(t, err, tc.role)
		assert.Equal(t, usd(76_800), proceeds)
		assert.Equal(t, before+usd(76_800), s.Accounts.Balance(tc.account), tc.role)
		assert.Empty(t, s.Businesses)

		thread := ThreadMessages(s, "founder-app_studio")
		require.NotEmpty(t, thread)
		assert.True(t, strings.HasPrefix(thread[len(thread)-1].Content, "Sale closed"))

		_, err = SellBusiness(s, "biz-1", testNow)
		assert.ErrorIs(t, err, ErrBusinessNotFound)
	}
}

func TestOfferResponseIsTerminal(t *testing.T) {
	s := newTestState(t, "teacher")
	offer := addOffer(t, s)

	require.NoError(t, HandleOpportunityResponse(s, offer.ID, false, false, testNow))
	m := s.Inbox.find(offer.ID)
	require.NotNil(t, m)
	assert.Equal(t, StatusRejected, m.Status)

	thread := ThreadMessages(s, offer.ThreadID)
	require.Len(t, thread, 3)
	assert.True(t, thread[1].FromPlayer)
	assert.False(t, thread[2].FromPlayer)
	for i := 1; i < len(thread); i++ {
		assert.Greater(t, thread[i].Seq, thread[i-1].Seq)
	}

	err := HandleOpportunityResponse(s, offer.ID, true, false, testNow)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StatusRejected, s.Inbox.find(offer.ID).Status)
	assert.Len(t, ThreadMessages(s, offer.ThreadID), 3)

	assert.ErrorIs(t, HandleOpportunityResponse(s, "missing", true, false, testNow), ErrMessageNotFound)
	plain := s.Inbox.Messages[0]
	assert.ErrorIs(t, HandleOpportunityResponse(s, plain.ID, true, false, testNow), ErrInvalidState)
}

func TestExpirePendingStartupOffers(t *testing.T) {
	s := newTestState(t, "teacher")
	offer := addOffer(t, s)

	assert.Zero(t, ExpirePendingStartupOffers(s, testNow))

	s.Cycle++
	assert.Equal(t, 1, ExpirePendingStartupOffers(s, testNow))
	assert.Equal(t, StatusExpired, s.Inbox.find(offer.ID).Status)
	thread := ThreadMessages(s, offer.ThreadID)
	assert.Contains(t, thread[len(thread)-1].Content, "Too late")

	assert.Zero(t, ExpirePendingStartupOffers(s, testNow))
}

func TestAcceptOpportunity(t *testing.T) {
	s := newTestState(t, "teacher")
	offer := pixelForge()
	owned := AcceptOpportunity(s, offer, testNow)

	assert.NotEqual(t, offer.ID, owned.ID)
	assert.True(t, s.StartupOwned)
	require.Len(t, s.Businesses, 1)
	assert.Equal(t, testNow, s.Businesses[0].AcquiredAt)
	require.NotEmpty(t, s.Feed)
	assert.True(t, s.Feed[0].FromPlayer)
	assert.Equal(t, LinkOpportunity, s.Feed[0].Link.Kind)
}

func TestGenerateOpportunitySize(t *testing.T) {
	for _, large := range []bool{false, true} {
		s := newTestState(t, "teacher")
		d := NewDice(11)
		offers := 0
		for i := 0; i < 60; i++ {
			if GenerateOpportunity(s, d, large, testNow) {
				offers++
			}
		}
		pending := PendingOffers(s)
		assert.Len(t, pending, offers)
		assert.Equal(t, 60, offers+len(s.Feed))
		assert.NotZero(t, offers)
		for _, m := range pending {
			assert.Equal(t, large, m.Opportunity.SetupCost >= LargeOpportunityMicros, m.Opportunity.Name)
		}
	}
}

func TestCheckStartupExitSurfacesOne(t *testing.T) {
	s := newTestState(t, "teacher")
	assert.Nil(t, CheckStartupExitOpportunities(s))

	a := pixelForge()
	a.CurrentExitMultiple = 6
	b := pixelForge()
	b.ID = "biz-2"
	b.CurrentExitMultiple = 9
	s.Businesses = []Business{a, b}

	p := CheckStartupExitOpportunities(s)
	require.NotNil(t, p)
	assert.Equal(t, "biz-1", p.BusinessID)
	assert.Equal(t, a.PlayerExitProceeds(), p.Proceeds)
}
