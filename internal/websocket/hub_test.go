package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(channels ...string) *Client {
	return &Client{Send: make(chan []byte, 4), Channels: channels}
}

func register(t *testing.T, h *Hub, c *Client, want int) {
	t.Helper()
	h.Register <- c
	require.Eventually(t, func() bool { return h.ClientCount() == want },
		time.Second, 5*time.Millisecond)
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHub_FanOutToSubscribedClients(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	a := newTestClient(ChannelAlerts)
	b := newTestClient(ChannelAlerts)
	register(t, h, a, 1)
	register(t, h, b, 2)

	h.BroadcastTo(ChannelAlerts, []byte("quake"))

	assert.Equal(t, "quake", string(receive(t, a)))
	assert.Equal(t, "quake", string(receive(t, b)))
}

// A session that subscribes after the publish does not receive that message;
// recovery is by range query, not replay.
func TestHub_LateSubscriberMissesEarlierMessages(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	early := newTestClient(ChannelAlerts)
	register(t, h, early, 1)

	h.BroadcastTo(ChannelAlerts, []byte("first"))
	assert.Equal(t, "first", string(receive(t, early)))

	late := newTestClient(ChannelAlerts)
	register(t, h, late, 2)

	select {
	case msg := <-late.Send:
		t.Fatalf("late subscriber unexpectedly received %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UserChannelIsolation(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	alice := newTestClient(ChannelAlerts, UserChannel("alice"))
	bob := newTestClient(ChannelAlerts, UserChannel("bob"))
	register(t, h, alice, 1)
	register(t, h, bob, 2)

	h.NotifyUser("alice", []byte("personal"))

	assert.Equal(t, "personal", string(receive(t, alice)))
	select {
	case msg := <-bob.Send:
		t.Fatalf("bob unexpectedly received %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

// A subscriber whose buffer is full gets evicted instead of blocking the
// fan-out for everyone else.
func TestHub_SlowSubscriberDropped(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	slow := &Client{Send: make(chan []byte), Channels: []string{ChannelAlerts}} // no buffer, never drained
	healthy := newTestClient(ChannelAlerts)
	register(t, h, slow, 1)
	register(t, h, healthy, 2)

	h.BroadcastTo(ChannelAlerts, []byte("quake"))

	assert.Equal(t, "quake", string(receive(t, healthy)))
	assert.Equal(t, 1, h.ClientCount())
}

func TestHub_SendToClient(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	c := newTestClient(ChannelAlerts)
	register(t, h, c, 1)

	h.SendToClient(c, []byte("direct"))
	assert.Equal(t, "direct", string(receive(t, c)))
}

// An eviction closes the client's Send channel; a reply attempted after that
// (the read pump can outlive the eviction by up to a ping period) must be a
// no-op, not a send on a closed channel.
func TestHub_SendToClientAfterEvictionIsNoOp(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	slow := &Client{Send: make(chan []byte), Channels: []string{ChannelAlerts}} // no buffer, never drained
	register(t, h, slow, 1)

	h.BroadcastTo(ChannelAlerts, []byte("quake")) // full buffer, client evicted
	require.Equal(t, 0, h.ClientCount())

	h.SendToClient(slow, []byte("late reply"))

	select {
	case msg, ok := <-slow.Send:
		require.False(t, ok, "expected closed channel, got %q", msg)
	default:
		t.Fatal("expected Send to be closed after eviction")
	}
}

func TestHub_UnregisterRemovesSubscriptions(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	c := newTestClient(ChannelAlerts)
	register(t, h, c, 1)

	h.Unregister <- c
	require.Eventually(t, func() bool { return h.ClientCount() == 0 },
		time.Second, 5*time.Millisecond)

	// Publishing afterwards must not panic or resurrect the client.
	h.BroadcastTo(ChannelAlerts, []byte("quake"))
}
