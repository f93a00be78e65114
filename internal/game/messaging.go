package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Thread groups every message exchanged with one participant. Seq values are
// handed out from LastSeq so ordering never depends on clock resolution.
type Thread struct {
	ParticipantID string   `json:"participant_id"`
	MessageIDs    []string `json:"message_ids"`
	LastSeq       int64    `json:"last_seq"`
}

type Inbox struct {
	Messages []Message          `json:"messages"`
	Threads  map[string]*Thread `json:"threads"`

	byID map[string]int
}

func (in *Inbox) reindex() {
	in.byID = make(map[string]int, len(in.Messages))
	for i := range in.Messages {
		in.byID[in.Messages[i].ID] = i
	}
}

func (in *Inbox) find(id string) *Message {
	if in.byID == nil || len(in.byID) != len(in.Messages) {
		in.reindex()
	}
	i, ok := in.byID[id]
	if !ok || i >= len(in.Messages) || in.Messages[i].ID != id {
		return nil
	}
	return &in.Messages[i]
}

func (in *Inbox) thread(participantID string) *Thread {
	if in.Threads == nil {
		in.Threads = make(map[string]*Thread)
	}
	t, ok := in.Threads[participantID]
	if !ok {
		t = &Thread{ParticipantID: participantID}
		in.Threads[participantID] = t
	}
	return t
}

// rebuildThreads derives thread aggregates from the flat message list.
// Messages keep their sequence order; saves without sequence numbers fall
// back to timestamps.
func (in *Inbox) rebuildThreads() {
	groups := make(map[string][]int)
	var order []string
	for i := range in.Messages {
		m := &in.Messages[i]
		if m.ThreadID == "" {
			m.ThreadID = m.SenderID
		}
		if _, ok := groups[m.ThreadID]; !ok {
			order = append(order, m.ThreadID)
		}
		groups[m.ThreadID] = append(groups[m.ThreadID], i)
	}
	in.Threads = make(map[string]*Thread, len(groups))
	for _, id := range order {
		idx := groups[id]
		sort.SliceStable(idx, func(a, b int) bool {
			ma, mb := in.Messages[idx[a]], in.Messages[idx[b]]
			if ma.Seq != mb.Seq {
				return ma.Seq < mb.Seq
			}
			return ma.Timestamp.Before(mb.Timestamp)
		})
		t := &Thread{ParticipantID: id}
		for n, i := range idx {
			in.Messages[i].Seq = int64(n + 1)
			t.MessageIDs = append(t.MessageIDs, in.Messages[i].ID)
		}
		t.LastSeq = int64(len(idx))
		in.Threads[id] = t
	}
	in.reindex()
}

func newMessage(c contact, content string, at time.Time, cycle int64) Message {
	return Message{
		ID:         uuid.NewString(),
		ThreadID:   c.ID,
		SenderID:   c.ID,
		SenderName: c.Name,
		SenderRole: c.Role,
		Timestamp:  at,
		Cycle:      cycle,
		Content:    content,
	}
}

func playerMessage(s *State, threadID, content string, at time.Time) Message {
	return Message{
		ID:         uuid.NewString(),
		ThreadID:   threadID,
		SenderID:   s.Player.ID,
		SenderName: s.Player.Name,
		SenderRole: "You",
		FromPlayer: true,
		Timestamp:  at,
		Cycle:      s.Cycle,
		Content:    content,
		Read:       true,
	}
}

// AddMessageToThread appends m to its thread unless a message with the same
// sender and content already sits within a second of it. It returns the
// stored message and whether it was added.
func AddMessageToThread(s *State, m Message) (Message, bool) {
	in := &s.Inbox
	if m.ThreadID == "" {
		m.ThreadID = m.SenderID
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	t := in.thread(m.ThreadID)
	for _, id := range t.MessageIDs {
		prev := in.find(id)
		if prev == nil || prev.SenderID != m.SenderID || prev.Content != m.Content {
			continue
		}
		if absDuration(prev.Timestamp.Sub(m.Timestamp)) <= DuplicateWindowSeconds*time.Second {
			return *prev, false
		}
	}
	t.LastSeq++
	m.Seq = t.LastSeq
	in.Messages = append(in.Messages, m)
	t.MessageIDs = append(t.MessageIDs, m.ID)
	if in.byID == nil {
		in.byID = make(map[string]int)
	}
	in.byID[m.ID] = len(in.Messages) - 1
	return m, true
}

func sendMessage(s *State, c contact, content string, at time.Time) Message {
	m, _ := AddMessageToThread(s, newMessage(c, content, at, s.Cycle))
	return m
}

// ArchiveMessage flips the archive flag on every message in m's thread and
// marks the thread read.
func ArchiveMessage(s *State, messageID string) error {
	m := s.Inbox.find(messageID)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	archived := !m.Archived
	t := s.Inbox.thread(m.ThreadID)
	for _, id := range t.MessageIDs {
		if tm := s.Inbox.find(id); tm != nil {
			tm.Archived = archived
			tm.Read = true
		}
	}
	return nil
}

// MarkMessageAsRead returns false when the message was already read.
func MarkMessageAsRead(s *State, messageID string) (bool, error) {
	m := s.Inbox.find(messageID)
	if m == nil {
		return false, fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	if m.Read {
		return false, nil
	}
	m.Read = true
	return true, nil
}

// MarkThreadAsRead returns false when nothing in the thread was unread.
func MarkThreadAsRead(s *State, threadID string) bool {
	t, ok := s.Inbox.Threads[threadID]
	if !ok {
		return false
	}
	changed := false
	for _, id := range t.MessageIDs {
		if m := s.Inbox.find(id); m != nil && !m.Read {
			m.Read = true
			changed = true
		}
	}
	return changed
}

func ActiveMessages(s *State) []Message {
	return filterMessages(s, func(m Message) bool { return !m.Archived })
}

func ArchivedMessages(s *State) []Message {
	return filterMessages(s, func(m Message) bool { return m.Archived })
}

func UnreadMessageCount(s *State) int {
	n := 0
	for _, m := range s.Inbox.Messages {
		if !m.Read && !m.Archived {
			n++
		}
	}
	return n
}

// ThreadMessages returns a thread in sequence order.
func ThreadMessages(s *State, threadID string) []Message {
	t, ok := s.Inbox.Threads[threadID]
	if !ok {
		return nil
	}
	out := make([]Message, 0, len(t.MessageIDs))
	for _, id := range t.MessageIDs {
		if m := s.Inbox.find(id); m != nil {
			out = append(out, *m)
		}
	}
	return out
}

// filterMessages returns matches newest first. Equal timestamps fall back to
// the thread sequence, then to the most recently added.
func filterMessages(s *State, keep func(Message) bool) []Message {
	out := make([]Message, 0, len(s.Inbox.Messages))
	for i := len(s.Inbox.Messages) - 1; i >= 0; i-- {
		if m := s.Inbox.Messages[i]; keep(m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		if a.ThreadID == b.ThreadID {
			return a.Seq > b.Seq
		}
		return false
	})
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
