package domain

import "encoding/json"

// Event names exchanged with the broadcast service.
const (
	EventJoinRoom          = "join-room"
	EventLeaveRoom         = "leave-room"
	EventDrawing           = "drawing"
	EventClearBoard        = "clear-board"
	EventRoomJoined        = "room-joined"
	EventParticipantJoined = "participant-joined"
	EventParticipantLeft   = "participant-left"
	EventWelcome           = "welcome"
)

// Envelope wraps every wire message with its event name.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoom requests joining or switching to a room.
type JoinRoom struct {
	RoomID          string `json:"roomId"`
	ParticipantName string `json:"participantName"`
}

// LeaveRoom notifies the service that the prior room is being left.
type LeaveRoom struct {
	RoomID string `json:"roomId"`
}

// Drawing is one stroke segment. IsStart distinguishes "begin a new path"
// from "extend the current path".
type Drawing struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Color   string  `json:"color"`
	Size    float64 `json:"size"`
	RoomID  string  `json:"roomId"`
	IsStart bool    `json:"isStart"`
}

// ClearBoard asks all members of a room to reset their surface.
type ClearBoard struct {
	RoomID string `json:"roomId"`
}

// RoomJoined is the authoritative join confirmation carrying the full
// current roster.
type RoomJoined struct {
	Room         string   `json:"room"`
	Participants []string `json:"participants"`
}

// Membership is a participant-joined / participant-left delta.
type Membership struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// Welcome carries the transport-assigned session id, sent once per
// connection right after attach.
type Welcome struct {
	SessionID string `json:"sessionId"`
}

// Encode marshals a payload into its envelope, ready for the wire.
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
