// Command demo runs a headless whiteboard client: it connects to the
// broadcast service, joins a room, draws one stroke and writes a PNG of the
// resulting surface.
package main

import (
	"context"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/Asadafridi84/whiteboard-final/board"
	"github.com/Asadafridi84/whiteboard-final/canvas"
	"github.com/Asadafridi84/whiteboard-final/session"
	"github.com/Asadafridi84/whiteboard-final/store"
	"github.com/Asadafridi84/whiteboard-final/transport"
)

type Env struct {
	URL  string `env:"WHITEBOARD_URL,default=ws://localhost:8080/ws"`
	Room string `env:"WHITEBOARD_ROOM"`
	Name string `env:"WHITEBOARD_NAME"`
	Out  string `env:"WHITEBOARD_OUT,default=board.png"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	env := Env{}
	if err := envconfig.Process(context.Background(), &env); err != nil {
		logger.Error("config error", "error", err)
		os.Exit(1)
	}

	var st *store.Store
	if path, err := store.DefaultPath(); err == nil {
		st = store.New(path)
	}

	room := env.Room
	if room == "" && st != nil {
		room = st.LastRoom()
	}

	surface := canvas.NewSurface(800, 600)
	sess := session.New(env.Name)
	tr := transport.New(transport.Options{
		Endpoints: []string{env.URL},
		Reconnect: true,
	}, logger)
	ctl := board.New(tr, surface, sess, st, room, logger)

	if err := tr.Connect(); err != nil {
		logger.Error("connect", "error", err)
		os.Exit(1)
	}
	defer tr.Close()

	if !waitForRoom(ctl, 10*time.Second) {
		logger.Error("never joined a room")
		os.Exit(1)
	}
	logger.Info("joined", "room", ctl.CurrentRoom(), "participants", ctl.Participants())

	// pointer input arrives in viewport space; map it like a UI would
	m := canvas.Mapper{
		Element:       canvas.Bounds{Left: 0, Top: 0, Width: 800, Height: 600},
		BackingWidth:  800,
		BackingHeight: 600,
	}

	_ = ctl.SetColor("#ff0000")
	_ = ctl.SetWidth(5)

	x, y := m.Map(100, 100)
	ctl.PointerDown(x, y)
	for i := 1; i <= 20; i++ {
		x, y = m.Map(100+float64(i)*10, 100+float64(i)*5)
		ctl.PointerMove(x, y)
	}
	ctl.PointerUp()

	// give relays a moment before tearing the connection down
	time.Sleep(200 * time.Millisecond)

	f, err := os.Create(env.Out)
	if err != nil {
		logger.Error("create output", "error", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := png.Encode(f, surface.Snapshot()); err != nil {
		logger.Error("encode output", "error", err)
		os.Exit(1)
	}
	logger.Info("wrote snapshot", "path", env.Out)
}

func waitForRoom(ctl *board.Controller, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ctl.CurrentRoom() != "" {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}
