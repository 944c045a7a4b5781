package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConn struct {
	id       string
	received [][]byte
	mu       sync.Mutex
	sendErr  error
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Close() error { return nil }

func (m *mockConn) getReceived() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.received
}

func TestHub_JoinRoster(t *testing.T) {
	h := New()

	roster, prev := h.Join(&mockConn{id: "s1"}, "room1", "alice")
	assert.Empty(t, prev)
	assert.Equal(t, []string{"alice"}, roster)

	roster, prev = h.Join(&mockConn{id: "s2"}, "room1", "bob")
	assert.Empty(t, prev)
	assert.Equal(t, []string{"alice", "bob"}, roster, "roster is sorted")
}

func TestHub_JoinMovesBetweenRooms(t *testing.T) {
	h := New()
	conn := &mockConn{id: "s1"}

	h.Join(conn, "room1", "alice")
	roster, prev := h.Join(conn, "room2", "alice")

	assert.Equal(t, "room1", prev)
	assert.Equal(t, []string{"alice"}, roster)

	room, ok := h.RoomOf("s1")
	require.True(t, ok)
	assert.Equal(t, "room2", room)

	rooms, clients := h.Stats()
	assert.Equal(t, 1, rooms, "emptied room is removed")
	assert.Equal(t, 1, clients)
}

func TestHub_RejoinSameRoom(t *testing.T) {
	h := New()
	conn := &mockConn{id: "s1"}

	h.Join(conn, "room1", "alice")
	roster, prev := h.Join(conn, "room1", "alice")

	assert.Empty(t, prev)
	assert.Equal(t, []string{"alice"}, roster)
}

func TestHub_RoomBroadcast(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(*Hub) []*mockConn
		room         string
		exceptID     string
		wantReceived map[string]int
	}{
		{
			name: "room members except sender",
			setup: func(h *Hub) []*mockConn {
				sender := &mockConn{id: "sender"}
				recv1 := &mockConn{id: "recv1"}
				recv2 := &mockConn{id: "recv2"}
				h.Join(sender, "room1", "a")
				h.Join(recv1, "room1", "b")
				h.Join(recv2, "room1", "c")
				return []*mockConn{sender, recv1, recv2}
			},
			room:         "room1",
			exceptID:     "sender",
			wantReceived: map[string]int{"sender": 0, "recv1": 1, "recv2": 1},
		},
		{
			name: "no cross-room delivery",
			setup: func(h *Hub) []*mockConn {
				sender := &mockConn{id: "sender"}
				other := &mockConn{id: "other"}
				h.Join(sender, "room1", "a")
				h.Join(other, "room2", "b")
				return []*mockConn{sender, other}
			},
			room:         "room1",
			exceptID:     "sender",
			wantReceived: map[string]int{"sender": 0, "other": 0},
		},
		{
			name: "unknown room is a no-op",
			setup: func(h *Hub) []*mockConn {
				conn := &mockConn{id: "c1"}
				h.Join(conn, "room1", "a")
				return []*mockConn{conn}
			},
			room:         "ghost",
			exceptID:     "",
			wantReceived: map[string]int{"c1": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			conns := tt.setup(h)

			h.RoomBroadcast(tt.room, []byte("test message"), tt.exceptID)

			for _, c := range conns {
				assert.Len(t, c.getReceived(), tt.wantReceived[c.ID()], "conn %s", c.ID())
			}
		})
	}
}

func TestHub_BroadcastSurvivesSendError(t *testing.T) {
	h := New()
	broken := &mockConn{id: "broken", sendErr: assert.AnError}
	healthy := &mockConn{id: "healthy"}
	h.Join(broken, "room1", "a")
	h.Join(healthy, "room1", "b")

	h.RoomBroadcast("room1", []byte("msg"), "")

	assert.Len(t, healthy.getReceived(), 1)
}

func TestHub_Leave(t *testing.T) {
	h := New()
	conn := &mockConn{id: "s1"}
	h.Join(conn, "room1", "alice")

	name, ok := h.Leave(conn, "room2")
	assert.False(t, ok, "leaving a room not joined")
	assert.Empty(t, name)

	name, ok = h.Leave(conn, "room1")
	require.True(t, ok)
	assert.Equal(t, "alice", name)

	rooms, clients := h.Stats()
	assert.Equal(t, 0, rooms)
	assert.Equal(t, 0, clients)
}

func TestHub_Drop(t *testing.T) {
	h := New()
	conn := &mockConn{id: "s1"}

	_, _, ok := h.Drop(conn)
	assert.False(t, ok, "drop before join")

	h.Join(conn, "room1", "alice")
	room, name, ok := h.Drop(conn)
	require.True(t, ok)
	assert.Equal(t, "room1", room)
	assert.Equal(t, "alice", name)

	rooms, clients := h.Stats()
	assert.Equal(t, 0, rooms)
	assert.Equal(t, 0, clients)
}

func TestHub_Stats(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*Hub)
		wantRooms   int
		wantClients int
	}{
		{
			name:        "empty hub",
			setup:       func(h *Hub) {},
			wantRooms:   0,
			wantClients: 0,
		},
		{
			name: "one room one client",
			setup: func(h *Hub) {
				h.Join(&mockConn{id: "c1"}, "r1", "a")
			},
			wantRooms:   1,
			wantClients: 1,
		},
		{
			name: "multiple rooms",
			setup: func(h *Hub) {
				h.Join(&mockConn{id: "c1"}, "r1", "a")
				h.Join(&mockConn{id: "c2"}, "r1", "b")
				h.Join(&mockConn{id: "c3"}, "r2", "c")
			},
			wantRooms:   2,
			wantClients: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			tt.setup(h)

			rooms, clients := h.Stats()

			assert.Equal(t, tt.wantRooms, rooms)
			assert.Equal(t, tt.wantClients, clients)
		})
	}
}
