package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/segmentio/ksuid"
	"github.com/sethvargo/go-envconfig"

	"github.com/Asadafridi84/whiteboard-final/domain"
	"github.com/Asadafridi84/whiteboard-final/hub"
	"github.com/Asadafridi84/whiteboard-final/protocol"
	ws "github.com/Asadafridi84/whiteboard-final/websocket"
)

type Env struct {
	Port     string `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	ctx := context.Background()
	env := Env{}
	if err := envconfig.Process(ctx, &env); err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	setupLogger(env.LogLevel)

	broadcaster := hub.New()
	handler := protocol.NewHandler(broadcaster)

	server := &http.Server{
		Addr:    ":" + env.Port,
		Handler: newRouter(broadcaster, handler),
	}

	go func() {
		slog.Info("server starting", "port", env.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(name string) {
	level := slog.LevelInfo
	switch name {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func newRouter(broadcaster *hub.Hub, handler domain.MessageHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/ws", wsHandler(handler))
	r.Get("/health", healthHandler)
	r.Get("/stats", statsHandler(broadcaster))
	return r
}

func wsHandler(handler domain.MessageHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade error", "error", err)
			return
		}

		wsConn := ws.NewConn(ksuid.New().String(), conn, handler)
		wsConn.Start()
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func statsHandler(broadcaster *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, clients := broadcaster.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"rooms": rooms, "clients": clients})
	}
}
