// Package protocol implements the service side of the whiteboard wire
// protocol: join/leave bookkeeping with authoritative confirmations, and
// room-scoped relay of drawing and clear events.
package protocol

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/Asadafridi84/whiteboard-final/domain"
)

type Handler struct {
	broadcaster domain.Broadcaster
}

func NewHandler(b domain.Broadcaster) *Handler {
	return &Handler{broadcaster: b}
}

// Attached assigns the connection its session id on the wire.
func (h *Handler) Attached(conn domain.Connection) {
	h.reply(conn, domain.EventWelcome, domain.Welcome{SessionID: conn.ID()})
}

// Detached cleans up membership when a connection drops without leaving.
func (h *Handler) Detached(conn domain.Connection) {
	roomID, name, ok := h.broadcaster.Drop(conn)
	if !ok {
		return
	}
	h.relay(roomID, domain.EventParticipantLeft, domain.Membership{RoomID: roomID, Name: name}, conn.ID())
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("invalid message", "sessionId", conn.ID(), "error", err)
		return
	}

	switch env.Event {
	case domain.EventJoinRoom:
		h.handleJoin(conn, env.Data)
	case domain.EventLeaveRoom:
		h.handleLeave(conn, env.Data)
	case domain.EventDrawing, domain.EventClearBoard:
		h.handleRelay(conn, env.Event, env.Data, data)
	default:
		slog.Warn("unknown event", "sessionId", conn.ID(), "event", env.Event)
	}
}

func (h *Handler) handleJoin(conn domain.Connection, data json.RawMessage) {
	var p domain.JoinRoom
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("invalid join-room", "sessionId", conn.ID(), "error", err)
		return
	}
	roomID := domain.NormalizeRoom(p.RoomID)
	name := strings.TrimSpace(p.ParticipantName)
	if name == "" {
		name = "guest"
	}

	roster, prevRoom := h.broadcaster.Join(conn, roomID, name)
	if prevRoom != "" {
		h.relay(prevRoom, domain.EventParticipantLeft, domain.Membership{RoomID: prevRoom, Name: name}, conn.ID())
	}

	h.reply(conn, domain.EventRoomJoined, domain.RoomJoined{Room: roomID, Participants: roster})
	h.relay(roomID, domain.EventParticipantJoined, domain.Membership{RoomID: roomID, Name: name}, conn.ID())
}

func (h *Handler) handleLeave(conn domain.Connection, data json.RawMessage) {
	var p domain.LeaveRoom
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("invalid leave-room", "sessionId", conn.ID(), "error", err)
		return
	}
	roomID := domain.NormalizeRoom(p.RoomID)
	name, ok := h.broadcaster.Leave(conn, roomID)
	if !ok {
		slog.Warn("leave for room not joined", "sessionId", conn.ID(), "room", roomID)
		return
	}
	h.relay(roomID, domain.EventParticipantLeft, domain.Membership{RoomID: roomID, Name: name}, conn.ID())
}

// handleRelay forwards drawing and clear-board events verbatim to the
// sender's room. The room tag must name the room the sender actually sits
// in; anything else is dropped.
func (h *Handler) handleRelay(conn domain.Connection, event string, data json.RawMessage, raw []byte) {
	var tag struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &tag); err != nil || tag.RoomID == "" {
		slog.Warn("missing room tag", "sessionId", conn.ID(), "event", event)
		return
	}
	current, ok := h.broadcaster.RoomOf(conn.ID())
	if !ok || current != tag.RoomID {
		slog.Warn("event for room not joined", "sessionId", conn.ID(), "event", event, "room", tag.RoomID)
		return
	}
	h.broadcaster.RoomBroadcast(tag.RoomID, raw, conn.ID())
}

func (h *Handler) reply(conn domain.Connection, event string, payload any) {
	b, err := domain.Encode(event, payload)
	if err != nil {
		slog.Warn("marshal error", "event", event, "error", err)
		return
	}
	if err := conn.Send(b); err != nil {
		slog.Warn("reply failed", "sessionId", conn.ID(), "event", event, "error", err)
	}
}

func (h *Handler) relay(roomID, event string, payload any, exceptID string) {
	b, err := domain.Encode(event, payload)
	if err != nil {
		slog.Warn("marshal error", "event", event, "error", err)
		return
	}
	h.broadcaster.RoomBroadcast(roomID, b, exceptID)
}
