package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMessageToThreadDedupes(t *testing.T) {
	s := newTestState(t, "teacher")
	n := len(s.Inbox.Messages)

	first, added := AddMessageToThread(s, newMessage(contactBank, "Statement ready", testNow, 0))
	require.True(t, added)
	dup, added := AddMessageToThread(s, newMessage(contactBank, "Statement ready", testNow.Add(500*time.Millisecond), 0))
	assert.False(t, added)
	assert.Equal(t, first.ID, dup.ID)

	_, added = AddMessageToThread(s, newMessage(contactBank, "Statement ready", testNow.Add(2*time.Second), 0))
	assert.True(t, added)
	_, added = AddMessageToThread(s, newMessage(contactBank, "Different text", testNow, 0))
	assert.True(t, added)
	assert.Len(t, s.Inbox.Messages, n+3)
}

func TestArchiveMessageScopesToThread(t *testing.T) {
	s := newTestState(t, "teacher")
	mentor := ThreadMessages(s, contactMentor.ID)
	require.Len(t, mentor, 2)

	require.NoError(t, ArchiveMessage(s, mentor[0].ID))
	archived := ArchivedMessages(s)
	require.Len(t, archived, 2)
	for _, m := range archived {
		assert.Equal(t, contactMentor.ID, m.SenderID)
		assert.True(t, m.Read)
	}
	assert.Len(t, ActiveMessages(s), 2)
	assert.Equal(t, 2, UnreadMessageCount(s))

	require.NoError(t, ArchiveMessage(s, mentor[1].ID))
	assert.Empty(t, ArchivedMessages(s))
	assert.Len(t, ActiveMessages(s), 4)

	assert.ErrorIs(t, ArchiveMessage(s, "nope"), ErrMessageNotFound)
}

func TestMarkRead(t *testing.T) {
	s := newTestState(t, "teacher")
	assert.Equal(t, 4, UnreadMessageCount(s))
	bank := ThreadMessages(s, contactBank.ID)
	require.Len(t, bank, 1)

	changed, err := MarkMessageAsRead(s, bank[0].ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = MarkMessageAsRead(s, bank[0].ID)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.True(t, MarkThreadAsRead(s, contactMentor.ID))
	assert.False(t, MarkThreadAsRead(s, contactMentor.ID))
	assert.False(t, MarkThreadAsRead(s, "stranger"))
	assert.Equal(t, 1, UnreadMessageCount(s))

	_, err = MarkMessageAsRead(s, "nope")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestThreadOrderUsesSequence(t *testing.T) {
	s := newTestState(t, "teacher")
	// Same timestamp for both sides of the exchange.
	AddMessageToThread(s, newMessage(contactAdvisor, "Question?", testNow, 0))
	AddMessageToThread(s, playerMessage(s, contactAdvisor.ID, "Answer.", testNow))
	AddMessageToThread(s, newMessage(contactAdvisor, "Thanks!", testNow, 0))

	thread := ThreadMessages(s, contactAdvisor.ID)
	require.Len(t, thread, 4)
	assert.Equal(t, "Question?", thread[1].Content)
	assert.Equal(t, "Answer.", thread[2].Content)
	assert.Equal(t, "Thanks!", thread[3].Content)
	assert.Equal(t, int64(4), s.Inbox.Threads[contactAdvisor.ID].LastSeq)
}

func TestActiveMessagesNewestFirstOnTies(t *testing.T) {
	s := newTestState(t, "teacher")
	offer := addOffer(t, s)
	later := testNow.Add(time.Hour)
	require.NoError(t, HandleOpportunityResponse(s, offer.ID, false, false, later))

	active := ActiveMessages(s)
	require.GreaterOrEqual(t, len(active), 3)
	assert.Equal(t, "Understood. I'll keep you in mind for the next one.", active[0].Content)
	assert.True(t, active[0].Timestamp.Equal(later))
	assert.Equal(t, "I'll pass on this one, thanks.", active[1].Content)
	assert.Greater(t, active[0].Seq, active[1].Seq)
}
