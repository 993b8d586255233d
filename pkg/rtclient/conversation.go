package rtclient

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Message is the client-side view of a chat message
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	IsDeleted  bool      `json:"is_deleted"`
	CreatedAt  time.Time `json:"created_at"`
}

// Conversation summarizes one peer thread for the sidebar
type Conversation struct {
	PeerID        string
	LastMessageAt time.Time
	UnreadCount   int
}

// ConversationStore keeps per-peer message threads ordered by creation time.
// Inserts go through a Dedup first, so a REST backfill racing a live push
// lands exactly once regardless of arrival order.
type ConversationStore struct {
	mu      sync.Mutex
	selfID  string
	dedup   *Dedup
	log     *zap.SugaredLogger
	threads map[string][]Message // peerID -> ascending by CreatedAt
}

// NewConversationStore builds a store for the given local user id
func NewConversationStore(selfID string, dedup *Dedup) *ConversationStore {
	if dedup == nil {
		dedup = NewDedup(0)
	}
	return &ConversationStore{
		selfID:  selfID,
		dedup:   dedup,
		log:     zap.NewNop().Sugar(),
		threads: map[string][]Message{},
	}
}

// SetLogger replaces the no-op logger so dropped messages surface in logs
func (s *ConversationStore) SetLogger(log *zap.SugaredLogger) {
	if log != nil {
		s.log = log
	}
}

// peerOf returns the other party of a message relative to the local user
func (s *ConversationStore) peerOf(m Message) string {
	if m.SenderID == s.selfID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Insert adds a message at its chronological position within the peer thread.
// Messages without an id are logged and dropped, duplicates are dropped; the
// return value reports whether the message was actually added.
func (s *ConversationStore) Insert(m Message) bool {
	if m.ID == "" {
		s.log.Warnw("message without id dropped", "sender_id", m.SenderID, "receiver_id", m.ReceiverID)
		return false
	}
	if s.dedup.IsProcessed(m.ID) {
		return false
	}
	s.dedup.MarkProcessed(m.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	peer := s.peerOf(m)
	thread := s.threads[peer]
	idx := sort.Search(len(thread), func(i int) bool {
		return thread[i].CreatedAt.After(m.CreatedAt)
	})
	thread = append(thread, Message{})
	copy(thread[idx+1:], thread[idx:])
	thread[idx] = m
	s.threads[peer] = thread
	return true
}

// Messages returns the thread with a peer, oldest first
func (s *ConversationStore) Messages(peerID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.threads[peerID]...)
}

// SetRead updates the read flag of a message wherever it is stored.
// Last write wins; conflicting REST and push updates simply overwrite.
func (s *ConversationStore) SetRead(messageID string, read bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for peer, thread := range s.threads {
		for i := range thread {
			if thread[i].ID == messageID {
				thread[i].IsRead = read
				s.threads[peer] = thread
				return true
			}
		}
	}
	return false
}

// MarkDeleted swaps a message's content for the placeholder text
func (s *ConversationStore) MarkDeleted(messageID, placeholder string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for peer, thread := range s.threads {
		for i := range thread {
			if thread[i].ID == messageID {
				thread[i].IsDeleted = true
				thread[i].Content = placeholder
				s.threads[peer] = thread
				return true
			}
		}
	}
	return false
}

// Conversations lists peer summaries: conversations with unread incoming
// messages first, then most recent activity first.
func (s *ConversationStore) Conversations() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Conversation, 0, len(s.threads))
	for peer, thread := range s.threads {
		if len(thread) == 0 {
			continue
		}
		conv := Conversation{PeerID: peer, LastMessageAt: thread[len(thread)-1].CreatedAt}
		for _, m := range thread {
			if m.ReceiverID == s.selfID && !m.IsRead {
				conv.UnreadCount++
			}
		}
		out = append(out, conv)
	}

	sort.SliceStable(out, func(i, j int) bool {
		iUnread := out[i].UnreadCount > 0
		jUnread := out[j].UnreadCount > 0
		if iUnread != jUnread {
			return iUnread
		}
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out
}
