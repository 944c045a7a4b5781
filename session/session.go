// Package session tracks the local participant's identity and room
// membership. Room transitions are confirmation-gated: the current room only
// changes when the service acknowledges the join, never optimistically on
// request.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Asadafridi84/whiteboard-final/domain"
)

// State holds the local identity, the current room, a pending room switch
// and the roster of other known participants. Safe for concurrent use.
type State struct {
	mu      sync.RWMutex
	self    domain.Participant
	current string
	pending string
	roster  []string
}

// New creates session state for the given display name. An empty name gets
// a random guest identity.
func New(name string) *State {
	if name == "" {
		name = fmt.Sprintf("guest-%s", uuid.NewString()[:8])
	}
	return &State{self: domain.Participant{Name: name}}
}

// Self reports the local participant.
func (s *State) Self() domain.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.self
}

// SetName updates the display name. It applies to the next join request;
// the service is not notified retroactively.
func (s *State) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" {
		s.self.Name = name
	}
}

// SetSessionID attaches the transport-assigned session id.
func (s *State) SetSessionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self.SessionID = id
}

// ClearSessionID detaches the session id on disconnect.
func (s *State) ClearSessionID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self.SessionID = ""
}

// Current reports the authoritatively joined room, empty before the first
// confirmation.
func (s *State) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Pending reports the requested-but-unconfirmed room, if any.
func (s *State) Pending() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// RequestSwitch normalizes roomID and records it as the pending target.
// leave names the room a leave-notice should be sent for. ok is false when
// the client is already in the normalized room, making the request a no-op.
func (s *State) RequestSwitch(roomID string) (target, leave string, ok bool) {
	target = domain.NormalizeRoom(roomID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if target == s.current {
		s.pending = ""
		return "", "", false
	}
	s.pending = target
	return target, s.current, true
}

// Announce records room as the pending target for a (re-)announced join
// request that carries no leave notice, such as the automatic join after
// connecting. No-op when already confirmed in that room.
func (s *State) Announce(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room != s.current {
		s.pending = room
	}
}

// Confirm applies a room-joined acknowledgement. The confirmation must name
// either the pending target or the current room (a roster refresh after
// reconnect); anything else is a stray and is rejected.
func (s *State) Confirm(room string, participants []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room != s.pending && room != s.current {
		return false
	}
	s.current = room
	s.pending = ""
	s.roster = append([]string(nil), participants...)
	return true
}

// ApplyJoined records a participant-joined delta, discarding deltas for any
// room other than the current one.
func (s *State) ApplyJoined(room, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room != s.current || s.current == "" {
		return false
	}
	s.roster = append(s.roster, name)
	return true
}

// ApplyLeft records a participant-left delta, removing one occurrence of
// the name. Deltas for other rooms are discarded.
func (s *State) ApplyLeft(room, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room != s.current || s.current == "" {
		return false
	}
	for i, n := range s.roster {
		if n == name {
			s.roster = append(s.roster[:i], s.roster[i+1:]...)
			return true
		}
	}
	return false
}

// Participants reports a copy of the current roster.
func (s *State) Participants() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.roster...)
}
