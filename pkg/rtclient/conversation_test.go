package rtclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const self = "self"

func msgAt(id, sender, receiver string, at time.Time) Message {
	return Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    "m-" + id,
		CreatedAt:  at,
	}
}

func TestInsertKeepsChronologicalOrder(t *testing.T) {
	s := NewConversationStore(self, nil)
	base := time.Now()

	// arrival order T3, T1, T2
	require.True(t, s.Insert(msgAt("t3", "peer", self, base.Add(3*time.Second))))
	require.True(t, s.Insert(msgAt("t1", "peer", self, base.Add(1*time.Second))))
	require.True(t, s.Insert(msgAt("t2", "peer", self, base.Add(2*time.Second))))

	thread := s.Messages("peer")
	require.Len(t, thread, 3)
	assert.Equal(t, []string{"t1", "t2", "t3"}, []string{thread[0].ID, thread[1].ID, thread[2].ID})
}

func TestInsertDropsDuplicateFromEitherPath(t *testing.T) {
	s := NewConversationStore(self, nil)
	m := msgAt("m1", self, "peer", time.Now())

	// REST response first, socket echo second
	assert.True(t, s.Insert(m))
	assert.False(t, s.Insert(m))
	assert.Len(t, s.Messages("peer"), 1)
}

func TestInsertDropsMessageWithoutID(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewConversationStore(self, nil)
	s.SetLogger(zap.New(core).Sugar())

	assert.False(t, s.Insert(msgAt("", "peer", self, time.Now())))
	assert.Empty(t, s.Messages("peer"))

	// the drop is surfaced as a warning, not swallowed
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "without id")
}

func TestSetReadLastWriteWins(t *testing.T) {
	s := NewConversationStore(self, nil)
	require.True(t, s.Insert(msgAt("m1", "peer", self, time.Now())))

	assert.True(t, s.SetRead("m1", true))
	assert.True(t, s.SetRead("m1", false))
	assert.False(t, s.Messages("peer")[0].IsRead)

	assert.False(t, s.SetRead("unknown", true))
}

func TestMarkDeletedReplacesContent(t *testing.T) {
	s := NewConversationStore(self, nil)
	require.True(t, s.Insert(msgAt("m1", self, "peer", time.Now())))

	assert.True(t, s.MarkDeleted("m1", "This message has been deleted"))
	got := s.Messages("peer")[0]
	assert.True(t, got.IsDeleted)
	assert.Equal(t, "This message has been deleted", got.Content)
}

func TestConversationsUnreadFirst(t *testing.T) {
	s := NewConversationStore(self, nil)
	base := time.Now()

	// read conversation with the most recent activity
	require.True(t, s.Insert(msgAt("a1", self, "alice", base.Add(time.Hour))))
	// unread conversation with older activity
	require.True(t, s.Insert(msgAt("b1", "bob", self, base)))
	// second unread conversation, newer than bob's
	require.True(t, s.Insert(msgAt("c1", "carol", self, base.Add(30*time.Minute))))

	convs := s.Conversations()
	require.Len(t, convs, 3)
	assert.Equal(t, "carol", convs[0].PeerID)
	assert.Equal(t, "bob", convs[1].PeerID)
	assert.Equal(t, "alice", convs[2].PeerID)
	assert.Equal(t, 1, convs[0].UnreadCount)
	assert.Zero(t, convs[2].UnreadCount)
}

func TestConversationsUnreadCountDropsAfterRead(t *testing.T) {
	s := NewConversationStore(self, nil)
	require.True(t, s.Insert(msgAt("m1", "peer", self, time.Now())))

	require.True(t, s.SetRead("m1", true))
	convs := s.Conversations()
	require.Len(t, convs, 1)
	assert.Zero(t, convs[0].UnreadCount)
}
