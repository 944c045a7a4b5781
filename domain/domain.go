package domain

import (
	"encoding/json"
	"image/color"
	"strings"
)

// DefaultRoom is joined when the user supplies an empty or whitespace room id.
const DefaultRoom = "default-room"

// NormalizeRoom trims a user-supplied room id and substitutes DefaultRoom
// when nothing is left.
func NormalizeRoom(roomID string) string {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return DefaultRoom
	}
	return roomID
}

// Participant is one member of a room. Name is user-chosen and not unique;
// SessionID is assigned by the transport on connect and empty while
// disconnected.
type Participant struct {
	Name      string
	SessionID string
}

// ConnState is the lifecycle state of the transport connection. Room and
// drawing operations are only available in Connected.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Transport is the client's persistent duplex channel to the broadcast
// service. Implementations deliver inbound events FIFO from a single
// goroutine; Send is fire-and-forget and fails rather than queues while
// disconnected.
type Transport interface {
	Connect() error
	Send(event string, payload any) error
	On(event string, handler func(data json.RawMessage))
	OnStateChange(fn func(state ConnState, reason error))
	SessionID() string
	Close() error
}

// Surface is the raster drawing target. Implementations must tolerate calls
// before initialization as no-ops, since input can race surface setup.
type Surface interface {
	BeginStroke(x, y float64)
	ExtendStroke(x, y float64, c color.Color, width float64)
	Clear()
}

// Connection is one attached client as seen by the broadcast service.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Broadcaster tracks room membership and fans events out to room members.
type Broadcaster interface {
	Join(conn Connection, roomID, name string) (roster []string, prevRoom string)
	Leave(conn Connection, roomID string) (name string, ok bool)
	Drop(conn Connection) (roomID, name string, ok bool)
	RoomOf(sessionID string) (string, bool)
	RoomBroadcast(roomID string, data []byte, exceptID string)
	Stats() (rooms, clients int)
}

// MessageHandler owns the wire protocol on the service side.
type MessageHandler interface {
	Attached(conn Connection)
	Handle(conn Connection, data []byte)
	Detached(conn Connection)
}
