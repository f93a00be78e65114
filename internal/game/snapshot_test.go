package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestState(t, "engineer")
	d := NewDice(12)
	_, err := BuyAsset(s, btcTrade(t, 0.1, usd(50_000)))
	require.NoError(t, err)
	AcceptOpportunity(s, pixelForge(), testNow)
	_, err = AddPost(s, "hello", []string{"media://1"}, testNow)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		Refresh(s, d, DefaultTunables(), testNow)
	}

	raw, err := Encode(s, testNow)
	require.NoError(t, err)
	got, err := Decode(raw, NewDice(1), DefaultTunables(), testNow)
	require.NoError(t, err)

	assert.Equal(t, s.Player, got.Player)
	assert.Equal(t, s.Accounts, got.Accounts)
	assert.Len(t, got.Transactions, len(s.Transactions))
	assert.Equal(t, s.Crypto, got.Crypto)
	assert.Equal(t, s.Quotes, got.Quotes)
	assert.Len(t, got.Businesses, 1)
	assert.Equal(t, s.Cycle, got.Cycle)
	assert.Equal(t, s.PaydayThreshold, got.PaydayThreshold)
	assert.Equal(t, s.RefreshesSincePayday, got.RefreshesSincePayday)
	assert.Equal(t, s.LastRecordedMonth, got.LastRecordedMonth)
	assert.Equal(t, s.Market, got.Market)
	assert.True(t, s.GameDate.Equal(got.GameDate))
	assert.Len(t, got.Inbox.Messages, len(s.Inbox.Messages))
	assert.Len(t, got.UserPosts, 1)
	assert.Empty(t, got.Feed)
	for id, th := range s.Inbox.Threads {
		require.Contains(t, got.Inbox.Threads, id)
		assert.Equal(t, th.MessageIDs, got.Inbox.Threads[id].MessageIDs)
	}
}

func TestDecodeDropsDuplicateMessages(t *testing.T) {
	s := newTestState(t, "teacher")
	n := len(s.Inbox.Messages)
	dup := s.Inbox.Messages[0]
	dup.ID = "copy"
	s.Inbox.Messages = append(s.Inbox.Messages, dup)

	raw, err := Encode(s, testNow)
	require.NoError(t, err)
	got, err := Decode(raw, NewDice(1), DefaultTunables(), testNow)
	require.NoError(t, err)
	assert.Len(t, got.Inbox.Messages, n)
	assert.Nil(t, got.Inbox.find("copy"))
}

func TestDecodeFillsDefaults(t *testing.T) {
	raw := []byte(`{"version":1,"player":{"id":"p1","name":"Sam","role_id":"teacher"}}`)
	s, err := Decode(raw, NewDice(1), DefaultTunables(), testNow)
	require.NoError(t, err)

	assert.Len(t, s.Inbox.Messages, 4)
	assert.GreaterOrEqual(t, s.PaydayThreshold, 3)
	assert.LessOrEqual(t, s.PaydayThreshold, 6)
	assert.Equal(t, defaultQuotes(), s.Quotes)
	assert.Equal(t, regimeNeutral, s.Market.Regime)
	assert.Equal(t, StageRatRace, s.Player.Stage)
	assert.Zero(t, s.Accounts.Checking)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "{"},
		{name: "no player", raw: `{"version":1}`},
		{name: "future version", raw: `{"version":99,"player":{"id":"x"}}`},
	}
	for _, tc := range tests {
		_, err := Decode([]byte(tc.raw), NewDice(1), DefaultTunables(), testNow)
		assert.Error(t, err, tc.name)
	}
	_, err := Decode(nil, NewDice(1), DefaultTunables(), testNow)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestEncodeOmitsFeed(t *testing.T) {
	s := newTestState(t, "teacher")
	Refresh(s, NewDice(1), DefaultTunables(), testNow)
	require.NotEmpty(t, s.Feed)

	raw, err := Encode(s, testNow)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.NotContains(t, doc, "feed")
	assert.Contains(t, doc, "messages")
	assert.Contains(t, doc, "version")
}
