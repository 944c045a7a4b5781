package main

import (
	"image/color"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asadafridi84/whiteboard-final/board"
	"github.com/Asadafridi84/whiteboard-final/canvas"
	"github.com/Asadafridi84/whiteboard-final/hub"
	"github.com/Asadafridi84/whiteboard-final/protocol"
	"github.com/Asadafridi84/whiteboard-final/session"
	"github.com/Asadafridi84/whiteboard-final/transport"
)

const e2eTimeout = 5 * time.Second

var (
	e2eWhite = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	e2eRed   = color.RGBA{R: 0xff, A: 0xff}
)

type e2eClient struct {
	tr      *transport.Client
	surface *canvas.Surface
	ctl     *board.Controller
}

func newE2EClient(t *testing.T, wsURL, name, room string) *e2eClient {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(nullWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
	surface := canvas.NewSurface(100, 100)
	tr := transport.New(transport.Options{Endpoints: []string{wsURL}}, logger)
	ctl := board.New(tr, surface, session.New(name), nil, room, logger)

	require.NoError(t, tr.Connect())
	t.Cleanup(func() { tr.Close() })

	waitFor(t, func() bool { return ctl.CurrentRoom() == room }, "client %s never joined %s", name, room)
	return &e2eClient{tr: tr, surface: surface, ctl: ctl}
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

func waitFor(t *testing.T, cond func() bool, format string, args ...any) {
	t.Helper()
	deadline := time.Now().Add(e2eTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf(format, args...)
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestE2E_StrokeRelayAndRoomIsolation(t *testing.T) {
	broadcaster := hub.New()
	srv := httptest.NewServer(newRouter(broadcaster, protocol.NewHandler(broadcaster)))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	alice := newE2EClient(t, wsURL, "alice", "e2e-room")
	bob := newE2EClient(t, wsURL, "bob", "e2e-room")
	carol := newE2EClient(t, wsURL, "carol", "other-room")

	// alice learns about bob through a membership delta
	waitFor(t, func() bool { return contains(alice.ctl.Participants(), "bob") }, "alice never saw bob join")
	assert.False(t, contains(alice.ctl.Participants(), "carol"), "carol is in another room")

	require.NoError(t, alice.ctl.SetColor("#ff0000"))
	require.NoError(t, alice.ctl.SetWidth(5))
	alice.ctl.PointerDown(10, 10)
	alice.ctl.PointerMove(20, 20)
	alice.ctl.PointerUp()

	// the stroke shows up identically on alice's and bob's surfaces
	assert.Equal(t, e2eRed, alice.surface.At(15, 15))
	waitFor(t, func() bool { return bob.surface.At(15, 15) == e2eRed }, "stroke never reached bob")
	assert.Equal(t, e2eRed, bob.surface.At(10, 10))
	assert.Equal(t, e2eRed, bob.surface.At(20, 20))

	// carol's room is untouched
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, e2eWhite, carol.surface.At(15, 15))

	// clear relays to the room without echoing back
	require.NoError(t, alice.ctl.ClearBoard())
	assert.Equal(t, e2eWhite, alice.surface.At(15, 15))
	waitFor(t, func() bool { return bob.surface.At(15, 15) == e2eWhite }, "clear never reached bob")
}

func TestE2E_RoomSwitch(t *testing.T) {
	broadcaster := hub.New()
	srv := httptest.NewServer(newRouter(broadcaster, protocol.NewHandler(broadcaster)))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	alice := newE2EClient(t, wsURL, "alice", "room-a")
	bob := newE2EClient(t, wsURL, "bob", "room-a")
	waitFor(t, func() bool { return contains(alice.ctl.Participants(), "bob") }, "alice never saw bob")

	require.NoError(t, bob.ctl.JoinRoom("room-b"))
	waitFor(t, func() bool { return bob.ctl.CurrentRoom() == "room-b" }, "bob never switched rooms")

	// alice sees bob leave; strokes she draws no longer reach him
	waitFor(t, func() bool { return !contains(alice.ctl.Participants(), "bob") }, "alice never saw bob leave")

	require.NoError(t, alice.ctl.SetColor("#ff0000"))
	alice.ctl.PointerDown(10, 10)
	alice.ctl.PointerMove(20, 20)
	alice.ctl.PointerUp()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, e2eWhite, bob.surface.At(15, 15))
}

func TestE2E_DisconnectDropsMembership(t *testing.T) {
	broadcaster := hub.New()
	srv := httptest.NewServer(newRouter(broadcaster, protocol.NewHandler(broadcaster)))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	alice := newE2EClient(t, wsURL, "alice", "room-a")
	bob := newE2EClient(t, wsURL, "bob", "room-a")
	waitFor(t, func() bool { return contains(alice.ctl.Participants(), "bob") }, "alice never saw bob")

	require.NoError(t, bob.tr.Close())
	waitFor(t, func() bool { return !contains(alice.ctl.Participants(), "bob") }, "bob's drop never propagated")

	rooms, clients := broadcaster.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, clients)
}
