package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/holoocg/holo-server-go/internal/config"
	"github.com/holoocg/holo-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func startTestHub(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(newTestService(t), config.WebSocketConfig{ReadBufferSize: 4096, WriteTimeout: time.Second}, zaptest.NewLogger(t))
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType, matchID string, req any) {
	t.Helper()
	msg := Message{Type: msgType, MatchID: matchID}
	if req != nil {
		raw, err := json.Marshal(req)
		require.NoError(t, err)
		msg.Request = raw
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func receiveAny(t *testing.T, conn *websocket.Conn) Reply {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var reply Reply
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

// receive returns the next reply that is not a resolved-event push.
func receive(t *testing.T, conn *websocket.Conn) Reply {
	t.Helper()
	for {
		if reply := receiveAny(t, conn); reply.Type != ReplyEvent {
			return reply
		}
	}
}

func TestWebSocketMatchFlow(t *testing.T) {
	url := startTestHub(t)
	alice := dial(t, url)
	bob := dial(t, url)

	send(t, alice, MessageCreate, "", testCreateRequest())
	created := receive(t, alice)
	require.Equal(t, ReplyState, created.Type, created.Error)
	require.NotNil(t, created.State)
	matchID := created.MatchID
	assert.Equal(t, "START", created.State.Phase)

	// bob follows the match
	send(t, bob, MessageState, matchID, nil)
	followed := receive(t, bob)
	require.Equal(t, ReplyState, followed.Type)
	assert.Equal(t, created.State.Checksum, followed.State.Checksum)

	// both followers see the advance
	send(t, alice, MessageAdvance, matchID, nil)
	for _, conn := range []*websocket.Conn{alice, bob} {
		reply := receive(t, conn)
		require.Equal(t, ReplyState, reply.Type)
		assert.Equal(t, "DRAW", reply.State.Phase)
	}

	// a command outside an action window is only answered to the sender
	card := handTop(t, *created.State, 1)
	send(t, alice, MessageCommand, matchID, CommandRequest{
		CommandType: CommandPlayCard, PlayerID: 1, CardInstanceID: card.InstanceID, Destination: "center",
	})
	rejected := receive(t, alice)
	assert.Equal(t, ReplyRejected, rejected.Type)
	assert.Equal(t, "Commands are not accepted during the DRAW phase.", rejected.Reason)

	send(t, alice, MessageAdvance, matchID, nil)
	receive(t, alice)
	cheer := receive(t, bob)
	require.Equal(t, "CHEER", cheer.State.Phase)

	send(t, alice, MessageCommand, matchID, CommandRequest{
		CommandType: CommandPlayCard, PlayerID: 1, CardInstanceID: card.InstanceID, Destination: "center",
	})
	played := receive(t, bob)
	require.Equal(t, ReplyState, played.Type)
	center, ok := played.State.Zone(1, rules.ZoneCenterStage)
	require.True(t, ok)
	require.Len(t, center.Cards, 1)
	assert.Equal(t, card.InstanceID, center.Cards[0].InstanceID)
}

func TestWebSocketForwardsResolvedEvents(t *testing.T) {
	url := startTestHub(t)
	alice := dial(t, url)
	bob := dial(t, url)

	send(t, alice, MessageCreate, "", testCreateRequest())
	created := receive(t, alice)
	require.Equal(t, ReplyState, created.Type, created.Error)
	matchID := created.MatchID

	send(t, bob, MessageState, matchID, nil)
	require.Equal(t, ReplyState, receive(t, bob).Type)

	send(t, alice, MessageAdvance, matchID, nil)

	var events []Reply
	var final Reply
	for {
		reply := receiveAny(t, bob)
		if reply.Type != ReplyEvent {
			final = reply
			break
		}
		events = append(events, reply)
	}
	require.Equal(t, ReplyState, final.Type)
	assert.Equal(t, "DRAW", final.State.Phase)

	fresh := final.State.ResolvedEvents[len(created.State.ResolvedEvents):]
	require.NotEmpty(t, fresh)
	require.Len(t, events, len(fresh))
	for i, reply := range events {
		assert.Equal(t, matchID, reply.MatchID)
		require.NotNil(t, reply.Event)
		assert.Equal(t, fresh[i].Seq, reply.Event.Seq)
		assert.Equal(t, fresh[i].Kind, reply.Event.Kind)
		assert.NotEmpty(t, reply.Event.RecordID)
	}
	assert.Equal(t, "DRAW", events[0].Event.Kind)
}

func TestWebSocketErrors(t *testing.T) {
	url := startTestHub(t)
	conn := dial(t, url)

	send(t, conn, MessageAdvance, "missing", nil)
	reply := receive(t, conn)
	assert.Equal(t, ReplyError, reply.Type)
	assert.Equal(t, "NotFound", reply.Code)

	send(t, conn, "shuffle", "", nil)
	reply = receive(t, conn)
	assert.Equal(t, "InvalidArgument", reply.Code)

	send(t, conn, MessageCreate, "", nil)
	reply = receive(t, conn)
	assert.Equal(t, "InvalidArgument", reply.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	reply = receive(t, conn)
	assert.Equal(t, ReplyError, reply.Type)
	assert.Equal(t, "InvalidArgument", reply.Code)
}

func TestOriginChecker(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "https://holo.example")

	assert.True(t, originChecker(nil)(req))
	assert.True(t, originChecker([]string{"https://holo.example"})(req))
	assert.False(t, originChecker([]string{"https://other.example"})(req))
}
