package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/holoocg/holo-server-go/internal/config"
	"github.com/holoocg/holo-server-go/internal/game"
	"github.com/holoocg/holo-server-go/internal/game/rules"
	"go.uber.org/zap"
	"google.golang.org/grpc/status"
)

// Client message types.
const (
	MessageCreate  = "create"
	MessageCommand = "command"
	MessageAdvance = "advance"
	MessageState   = "state"
)

// Reply types.
const (
	ReplyState    = "state"
	ReplyRejected = "rejected"
	ReplyError    = "error"
	ReplyEvent    = "event"
)

// Message is a request from a WebSocket client. Request holds a
// CreateMatchRequest for "create" and a CommandRequest for "command".
type Message struct {
	Type    string          `json:"type"`
	MatchID string          `json:"match_id,omitempty"`
	Request json.RawMessage `json:"request,omitempty"`
}

// Reply is sent back to clients. Accepted transitions are broadcast as
// "state" to every client following the match, preceded by one "event" per
// newly resolved event.
type Reply struct {
	Type    string            `json:"type"`
	MatchID string            `json:"match_id,omitempty"`
	State   *MatchView        `json:"state,omitempty"`
	Event   *game.EventRecord `json:"event,omitempty"`
	Reason  string            `json:"reason,omitempty"`
	Error   string            `json:"error,omitempty"`
	Code    string            `json:"code,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte

	mu      sync.Mutex
	matchID string
}

func (c *client) follow(matchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matchID = matchID
}

func (c *client) following() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matchID
}

type matchBroadcast struct {
	matchID string
	payload []byte
}

type directReply struct {
	client  *client
	payload []byte
}

// Hub accepts WebSocket clients and routes their messages to the match
// service. Each client follows at most one match at a time.
type Hub struct {
	service      *MatchService
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	logger       *zap.Logger

	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan matchBroadcast
	direct     chan directReply
	done       chan struct{}
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(service *MatchService, cfg config.WebSocketConfig, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		service:      service,
		writeTimeout: cfg.WriteTimeout,
		logger:       logger,
		clients:      make(map[*client]bool),
		register:     make(chan *client),
		unregister:   make(chan *client),
		broadcast:    make(chan matchBroadcast),
		direct:       make(chan directReply),
		done:         make(chan struct{}),
	}
	if service != nil {
		service.ObserveResolved(h.forwardResolved)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.ReadBufferSize,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	return h
}

// originChecker allows every origin when none are configured.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		return slices.Contains(allowed, r.Header.Get("Origin"))
	}
}

// Run dispatches registrations and outgoing messages until ctx ends. Only
// Run writes to or closes a client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			h.logger.Debug("websocket client registered", zap.String("remote", c.conn.RemoteAddr().String()))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Debug("websocket client unregistered", zap.String("remote", c.conn.RemoteAddr().String()))
			}

		case d := <-h.direct:
			if h.clients[d.client] {
				h.trySend(d.client, d.payload)
			}

		case b := <-h.broadcast:
			for c := range h.clients {
				if c.following() == b.matchID {
					h.trySend(c, b.payload)
				}
			}
		}
	}
}

// trySend drops clients whose buffer is full.
func (h *Hub) trySend(c *client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.logger.Warn("dropping slow websocket client", zap.String("match_id", c.following()))
		close(c.send)
		delete(h.clients, c)
	}
}

// ServeHTTP upgrades the connection and starts the client pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 256)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(r.Context(), c)
}

func (h *Hub) readPump(ctx context.Context, c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(c, Reply{Type: ReplyError, Error: "malformed message", Code: "InvalidArgument"})
			continue
		}
		h.handleMessage(context.WithoutCancel(ctx), c, msg)
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for message := range c.send {
		if h.writeTimeout > 0 {
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) handleMessage(ctx context.Context, c *client, msg Message) {
	h.logger.Debug("websocket message",
		zap.String("type", msg.Type),
		zap.String("match_id", msg.MatchID))

	var (
		view MatchView
		err  error
	)
	switch msg.Type {
	case MessageCreate:
		var req CreateMatchRequest
		if err = decodeRequest(msg.Request, &req); err == nil {
			view, err = h.service.CreateMatch(ctx, req)
		}
	case MessageCommand:
		var req CommandRequest
		if err = decodeRequest(msg.Request, &req); err == nil {
			view, err = h.service.Submit(ctx, msg.MatchID, req)
		}
	case MessageAdvance:
		view, err = h.service.Advance(ctx, msg.MatchID)
	case MessageState:
		view, err = h.service.State(msg.MatchID)
	default:
		err = badRequest("unknown message type %q", msg.Type)
	}

	var rejection *RejectionError
	switch {
	case errors.As(err, &rejection):
		c.follow(view.MatchID)
		h.reply(c, Reply{Type: ReplyRejected, MatchID: view.MatchID, State: &view, Reason: rejection.Reason})
	case err != nil:
		st := status.Convert(StatusFromError(err))
		h.reply(c, Reply{Type: ReplyError, MatchID: msg.MatchID, Error: st.Message(), Code: st.Code().String()})
	case msg.Type == MessageState:
		c.follow(view.MatchID)
		h.reply(c, Reply{Type: ReplyState, MatchID: view.MatchID, State: &view})
	default:
		c.follow(view.MatchID)
		h.publish(Reply{Type: ReplyState, MatchID: view.MatchID, State: &view})
	}
}

func decodeRequest(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return badRequest("request is required")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return badRequest("malformed request: %v", err)
	}
	return nil
}

func (h *Hub) reply(c *client, r Reply) {
	payload, err := json.Marshal(r)
	if err != nil {
		h.logger.Error("failed to encode reply", zap.Error(err))
		return
	}
	select {
	case h.direct <- directReply{client: c, payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) publish(r Reply) {
	payload, err := json.Marshal(r)
	if err != nil {
		h.logger.Error("failed to encode reply", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- matchBroadcast{matchID: r.MatchID, payload: payload}:
	case <-h.done:
	}
}

// forwardResolved broadcasts one resolved event to the match's followers.
func (h *Hub) forwardResolved(matchID string, seq int, event rules.Event) {
	record := game.NewEventRecords(matchID, seq, []rules.Event{event})[0]
	h.publish(Reply{Type: ReplyEvent, MatchID: matchID, Event: &record})
}

// StartWebSocketServer serves hub on cfg.Address until ctx ends.
func StartWebSocketServer(ctx context.Context, cfg config.WebSocketConfig, hub *Hub, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, hub)

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting WebSocket server",
		zap.String("address", cfg.Address),
		zap.String("path", cfg.Path))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
