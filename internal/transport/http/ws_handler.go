package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/metrics"
)

// WSConfig holds websocket connection limits.
type WSConfig struct {
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	AllowedOrigins []string
}

func DefaultWSConfig() WSConfig {
	return WSConfig{
		WriteTimeout:   10 * time.Second,
		PongTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 4096,
		AllowedOrigins: []string{"*"},
	}
}

type WSHandler struct {
	service  *app.QuizService
	hub      *Hub
	metrics  *metrics.Metrics
	config   WSConfig
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, hub *Hub, m *metrics.Metrics, cfg WSConfig) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
		metrics: m,
		config:  cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
}

// ServeWS upgrades the request and feeds every inbound frame to the quiz service
// as a command. Closing the socket disconnects the connection from its session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	send := h.hub.Register(connID)
	h.metrics.ConnectionOpened()
	log.Debug().Str("conn_id", connID).Str("remote", r.RemoteAddr).Msg("ws connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(conn, connID, send)
	}()

	// Detached from the request so teardown still runs after the client is gone.
	ctx := context.WithoutCancel(r.Context())
	h.readPump(ctx, conn, connID)

	_ = h.service.Handle(ctx, connID, domain.Disconnect{})
	h.hub.Unregister(connID)
	<-writerDone
	h.metrics.ConnectionClosed()
	log.Debug().Str("conn_id", connID).Msg("ws disconnected")
}

func (h *WSHandler) readPump(ctx context.Context, conn *websocket.Conn, connID string) {
	conn.SetReadLimit(h.config.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	})

	for {
		var in envelope
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn_id", connID).Msg("ws read failed")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))

		cmd, err := ParseCommand(in.Type, in.Payload)
		if err != nil {
			h.hub.Unicast(connID, domain.Message{Type: domain.MsgError, Payload: domain.ErrorPayload{Message: err.Error()}})
			continue
		}
		if err := h.service.Handle(ctx, connID, cmd); err != nil && !domain.IsSilent(err) && !isUserError(err) {
			log.Error().Err(err).Str("conn_id", connID).Str("command", cmd.Name()).Msg("handle command")
		}
	}
}

// writePump is the only writer of conn. It exits when the hub closes send.
func (h *WSHandler) writePump(conn *websocket.Conn, connID string, send <-chan []byte) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		// Unblock the reader if the hub dropped this client.
		_ = conn.Close()
	}()

	for {
		select {
		case data, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("conn_id", connID).Msg("ws write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func isUserError(err error) bool {
	for _, target := range []error{
		domain.ErrSessionNotFound,
		domain.ErrAlreadyStarted,
		domain.ErrNameTaken,
		domain.ErrAlreadyInSession,
		domain.ErrInvalidCommand,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
