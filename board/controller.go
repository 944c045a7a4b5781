// Package board orchestrates stroke synchronization: it turns local pointer
// input into outbound drawing events, applies inbound events to the drawing
// surface, and enforces that only events scoped to the currently joined
// room are ever rendered.
package board

import (
	"encoding/json"
	"errors"
	"image/color"
	"log/slog"
	"sync"

	"github.com/Asadafridi84/whiteboard-final/canvas"
	"github.com/Asadafridi84/whiteboard-final/domain"
	"github.com/Asadafridi84/whiteboard-final/session"
	"github.com/Asadafridi84/whiteboard-final/store"
)

// ErrNotConnected is returned for room and drawing operations attempted
// while the transport is down.
var ErrNotConnected = errors.New("board: not connected")

const (
	defaultColor = "#000000"
	defaultWidth = 5.0
)

// Controller is the stroke synchronization core. Pointer methods expect
// coordinates already mapped into canvas space (see canvas.Mapper).
type Controller struct {
	tr      domain.Transport
	surface domain.Surface
	sess    *session.State
	st      *store.Store
	log     *slog.Logger

	mu        sync.Mutex
	connState domain.ConnState
	stroking  bool
	homeRoom  string
	colorHex  string
	colorVal  color.RGBA
	width     float64
}

// New wires a controller to its capabilities and subscribes it to the
// transport's inbound events. homeRoom is the room announced on first
// connect; st may be nil to disable persistence.
func New(tr domain.Transport, surface domain.Surface, sess *session.State, st *store.Store, homeRoom string, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	colorVal, _ := canvas.ParseHex(defaultColor)
	c := &Controller{
		tr:       tr,
		surface:  surface,
		sess:     sess,
		st:       st,
		log:      log,
		homeRoom: domain.NormalizeRoom(homeRoom),
		colorHex: defaultColor,
		colorVal: colorVal,
		width:    defaultWidth,
	}

	// single dispatch table instead of scattered handlers
	for event, handler := range map[string]func(json.RawMessage){
		domain.EventWelcome:           c.onWelcome,
		domain.EventRoomJoined:        c.onRoomJoined,
		domain.EventParticipantJoined: c.onParticipantJoined,
		domain.EventParticipantLeft:   c.onParticipantLeft,
		domain.EventDrawing:           c.onDrawing,
		domain.EventClearBoard:        c.onClearBoard,
	} {
		tr.On(event, handler)
	}
	tr.OnStateChange(c.onStateChange)
	return c
}

// SetColor selects the stroke color for subsequent local drawing.
func (c *Controller) SetColor(hex string) error {
	val, err := canvas.ParseHex(hex)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.colorHex = hex
	c.colorVal = val
	return nil
}

// SetWidth selects the stroke width; non-positive values are rejected.
func (c *Controller) SetWidth(w float64) error {
	if w <= 0 {
		return errors.New("board: width must be positive")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = w
	return nil
}

// JoinRoom requests switching to roomID. The current room does not change
// until the service confirms with a room-joined event.
func (c *Controller) JoinRoom(roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connState != domain.Connected {
		return ErrNotConnected
	}
	target, leave, ok := c.sess.RequestSwitch(roomID)
	if !ok {
		return nil
	}
	if leave != "" {
		c.send(domain.EventLeaveRoom, domain.LeaveRoom{RoomID: leave})
	}
	c.send(domain.EventJoinRoom, domain.JoinRoom{RoomID: target, ParticipantName: c.sess.Self().Name})
	if c.st != nil {
		if err := c.st.SaveLastRoom(target); err != nil {
			c.log.Warn("persist last room", "error", err)
		}
	}
	return nil
}

// PointerDown transitions Idle -> Stroking, starting a path locally and
// announcing the start segment.
func (c *Controller) PointerDown(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connState != domain.Connected || c.stroking {
		return
	}
	room := c.sess.Current()
	if room == "" {
		return
	}
	c.stroking = true
	c.surface.BeginStroke(x, y)
	c.emitDrawing(x, y, room, true)
}

// PointerMove extends the current stroke. Ignored while Idle.
func (c *Controller) PointerMove(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stroking || c.connState != domain.Connected {
		return
	}
	room := c.sess.Current()
	if room == "" {
		return
	}
	c.surface.ExtendStroke(x, y, c.colorVal, c.width)
	c.emitDrawing(x, y, room, false)
}

// PointerUp transitions Stroking -> Idle. Purely local; nothing is emitted.
// Also used when the pointer leaves the surface.
func (c *Controller) PointerUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stroking = false
}

// ClearBoard resets the local surface and asks the service to relay the
// clear to the rest of the room.
func (c *Controller) ClearBoard() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connState != domain.Connected {
		return ErrNotConnected
	}
	room := c.sess.Current()
	if room == "" {
		return ErrNotConnected
	}
	c.surface.Clear()
	c.send(domain.EventClearBoard, domain.ClearBoard{RoomID: room})
	return nil
}

// State reports the connection state as seen by the controller.
func (c *Controller) State() domain.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connState
}

// CurrentRoom reports the authoritatively joined room.
func (c *Controller) CurrentRoom() string {
	return c.sess.Current()
}

// Participants reports the roster of the current room.
func (c *Controller) Participants() []string {
	return c.sess.Participants()
}

func (c *Controller) emitDrawing(x, y float64, room string, isStart bool) {
	c.send(domain.EventDrawing, domain.Drawing{
		X:       x,
		Y:       y,
		Color:   c.colorHex,
		Size:    c.width,
		RoomID:  room,
		IsStart: isStart,
	})
}

// send is fire and forget; a drop while disconnecting is expected, not an
// error the caller can act on.
func (c *Controller) send(event string, payload any) {
	if err := c.tr.Send(event, payload); err != nil {
		c.log.Debug("send dropped", "event", event, "error", err)
	}
}

func (c *Controller) onStateChange(state domain.ConnState, reason error) {
	c.mu.Lock()
	c.connState = state
	if state != domain.Connected {
		c.stroking = false
	}
	c.mu.Unlock()

	switch state {
	case domain.Connected:
		c.log.Info("connected")
		c.announce()
	case domain.Disconnected:
		c.sess.ClearSessionID()
		if reason != nil {
			c.log.Warn("disconnected", "reason", reason)
		} else {
			c.log.Info("disconnected")
		}
	case domain.Connecting:
		if reason != nil {
			c.log.Warn("connect error", "reason", reason)
		}
	}
}

// announce (re-)declares room membership. The service does not restore room
// state across reconnects, so the pending target, the previously confirmed
// room, or the home room is re-requested in that order.
func (c *Controller) announce() {
	room := c.sess.Pending()
	if room == "" {
		room = c.sess.Current()
	}
	if room == "" {
		room = c.homeRoom
	}
	c.sess.Announce(room)
	c.send(domain.EventJoinRoom, domain.JoinRoom{RoomID: room, ParticipantName: c.sess.Self().Name})
}

func (c *Controller) onWelcome(data json.RawMessage) {
	var w domain.Welcome
	if err := json.Unmarshal(data, &w); err != nil {
		c.log.Warn("invalid welcome payload", "error", err)
		return
	}
	c.sess.SetSessionID(w.SessionID)
}

func (c *Controller) onRoomJoined(data json.RawMessage) {
	var p domain.RoomJoined
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		c.log.Warn("invalid room-joined payload", "error", err)
		return
	}
	if !c.sess.Confirm(p.Room, p.Participants) {
		c.log.Warn("stray join confirmation", "room", p.Room)
		return
	}
	// the new room's history is not replayed; start from a blank surface
	c.mu.Lock()
	c.surface.Clear()
	c.mu.Unlock()
	c.log.Info("room joined", "room", p.Room, "participants", len(p.Participants))
}

func (c *Controller) onParticipantJoined(data json.RawMessage) {
	var p domain.Membership
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		c.log.Warn("invalid participant-joined payload", "error", err)
		return
	}
	if !c.sess.ApplyJoined(p.RoomID, p.Name) {
		c.log.Debug("stale membership delta", "room", p.RoomID)
	}
}

func (c *Controller) onParticipantLeft(data json.RawMessage) {
	var p domain.Membership
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		c.log.Warn("invalid participant-left payload", "error", err)
		return
	}
	if !c.sess.ApplyLeft(p.RoomID, p.Name) {
		c.log.Debug("stale membership delta", "room", p.RoomID)
	}
}

// onDrawing replays a relayed segment through the same primitives the local
// path uses, so senders and receivers render identically.
func (c *Controller) onDrawing(data json.RawMessage) {
	var d domain.Drawing
	if err := json.Unmarshal(data, &d); err != nil || d.RoomID == "" {
		c.log.Warn("invalid drawing payload", "error", err)
		return
	}
	if d.RoomID != c.sess.Current() {
		return
	}
	if d.IsStart {
		c.mu.Lock()
		c.surface.BeginStroke(d.X, d.Y)
		c.mu.Unlock()
		return
	}
	col, err := canvas.ParseHex(d.Color)
	if err != nil || d.Size <= 0 {
		c.log.Warn("inapplicable drawing event", "color", d.Color, "size", d.Size)
		return
	}
	c.mu.Lock()
	c.surface.ExtendStroke(d.X, d.Y, col, d.Size)
	c.mu.Unlock()
}

func (c *Controller) onClearBoard(data json.RawMessage) {
	var p domain.ClearBoard
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		c.log.Warn("invalid clear-board payload", "error", err)
		return
	}
	if p.RoomID != c.sess.Current() {
		return
	}
	// never re-broadcast an inbound clear; that would echo forever
	c.mu.Lock()
	c.surface.Clear()
	c.mu.Unlock()
}
