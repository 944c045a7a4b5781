// Package hub tracks which connection sits in which room and fans events
// out to room members. Unlike a connection registry, membership is mutable:
// clients switch rooms over the lifetime of one connection.
package hub

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/Asadafridi84/whiteboard-final/domain"
)

type member struct {
	conn domain.Connection
	name string
}

// Hub is the room registry. A connection belongs to at most one room; Join
// moves it out of its previous room implicitly.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]member // room id -> session id -> member
	index map[string]string            // session id -> room id
}

func New() *Hub {
	return &Hub{
		rooms: make(map[string]map[string]member),
		index: make(map[string]string),
	}
}

// Join places conn in roomID under the given display name and returns the
// post-join roster plus the room the connection was moved out of, if any.
func (h *Hub) Join(conn domain.Connection, roomID, name string) (roster []string, prevRoom string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := conn.ID()
	if cur, ok := h.index[id]; ok && cur != roomID {
		h.removeLocked(cur, id)
		prevRoom = cur
	}

	r, ok := h.rooms[roomID]
	if !ok {
		r = make(map[string]member)
		h.rooms[roomID] = r
	}
	r[id] = member{conn: conn, name: name}
	h.index[id] = roomID

	roster = make([]string, 0, len(r))
	for _, m := range r {
		roster = append(roster, m.name)
	}
	sort.Strings(roster)

	slog.Info("participant joined", "room", roomID, "sessionId", id, "name", name, "members", len(r))
	return roster, prevRoom
}

// Leave removes conn from roomID if it is a member there, reporting the
// display name it was registered under.
func (h *Hub) Leave(conn domain.Connection, roomID string) (name string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := conn.ID()
	if h.index[id] != roomID {
		return "", false
	}
	name = h.rooms[roomID][id].name
	h.removeLocked(roomID, id)
	delete(h.index, id)

	slog.Info("participant left", "room", roomID, "sessionId", id, "name", name)
	return name, true
}

// Drop removes conn from whatever room it is in, used when the connection
// goes away without an explicit leave.
func (h *Hub) Drop(conn domain.Connection) (roomID, name string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := conn.ID()
	roomID, ok = h.index[id]
	if !ok {
		return "", "", false
	}
	name = h.rooms[roomID][id].name
	h.removeLocked(roomID, id)
	delete(h.index, id)

	slog.Info("participant dropped", "room", roomID, "sessionId", id, "name", name)
	return roomID, name, true
}

// RoomOf reports the room a session currently sits in.
func (h *Hub) RoomOf(sessionID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	roomID, ok := h.index[sessionID]
	return roomID, ok
}

// RoomBroadcast sends data to every member of roomID except exceptID.
func (h *Hub) RoomBroadcast(roomID string, data []byte, exceptID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, m := range h.rooms[roomID] {
		if id == exceptID {
			continue
		}
		if err := m.conn.Send(data); err != nil {
			slog.Warn("send failed", "room", roomID, "sessionId", id, "error", err)
		}
	}
}

// Stats reports room and client counts.
func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms), len(h.index)
}

func (h *Hub) removeLocked(roomID, id string) {
	r, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(r, id)
	if len(r) == 0 {
		delete(h.rooms, roomID)
		slog.Info("room removed", "room", roomID)
	}
}
