package api

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sseMessage struct {
	Event string
	Data  string
}

// readSSE 在背景讀取事件串流，回傳收到的事件
func readSSE(body *bufio.Reader) <-chan sseMessage {
	out := make(chan sseMessage, 8)
	go func() {
		defer close(out)
		var current sseMessage
		for {
			line, err := body.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			switch {
			case strings.HasPrefix(line, "event:"):
				current.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				current.Data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "" && current.Event != "":
				out <- current
				current = sseMessage{}
			}
		}
	}()
	return out
}

func TestNotificationEvents(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	owner := env.user(t, "owner")
	freelancer := env.user(t, "freelancer")
	gigID := env.createGig(t, owner, "Data pipeline")
	bidID := env.createBid(t, freelancer, gigID, 300)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/notifications/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+freelancer.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Equal(t, 1, env.impl.hub.Online(freelancer.ID))

	events := readSSE(bufio.NewReader(resp.Body))
	rec, _ := env.do(t, http.MethodPatch, "/api/bids/"+bidID+"/hire", owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case message := <-events:
		assert.Equal(t, "hired", message.Event)
		var payload map[string]string
		require.NoError(t, json.Unmarshal([]byte(message.Data), &payload))
		assert.Equal(t, gigID, payload["gigId"])
		assert.Equal(t, bidID, payload["bidId"])
		assert.Equal(t, "You have been hired for Data pipeline!", payload["message"])
		assert.NotEmpty(t, payload["id"])
	case <-time.After(5 * time.Second):
		t.Fatal("hired event not received")
	}
}

func TestNotificationEventsRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	rec, _ := env.do(t, http.MethodGet, "/api/notifications/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type wsMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialWS(t *testing.T, server *httptest.Server, token string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	if header == nil {
		header = http.Header{}
	}
	header.Set("Authorization", "Bearer "+token)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws"
	return websocket.DefaultDialer.Dial(url, header)
}

func readWS(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var message wsMessage
	require.NoError(t, conn.ReadJSON(&message))
	return message
}

func TestWebSocket(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	owner := env.user(t, "owner")
	freelancer := env.user(t, "freelancer")
	gigID := env.createGig(t, owner, "Chat widget")
	bidID := env.createBid(t, freelancer, gigID, 200)

	conn, _, err := dialWS(t, server, freelancer.Token, nil)
	require.NoError(t, err)
	defer conn.Close()

	t.Run("join another user", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]any{"action": "join", "data": owner.ID.String()}))
		message := readWS(t, conn)
		assert.Equal(t, "error", message.Event)
		assert.Equal(t, 0, env.impl.hub.Online(owner.ID))
	})

	t.Run("unknown action", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]any{"action": "dance"}))
		assert.Equal(t, "error", readWS(t, conn).Event)
	})

	t.Run("join and receive", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]any{"action": "join", "data": freelancer.ID.String()}))
		message := readWS(t, conn)
		require.Equal(t, "joined", message.Event)
		assert.JSONEq(t, `"user:`+freelancer.ID.String()+`"`, string(message.Data))
		require.Equal(t, 1, env.impl.hub.Online(freelancer.ID))

		rec, _ := env.do(t, http.MethodPatch, "/api/bids/"+bidID+"/hire", owner.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		message = readWS(t, conn)
		assert.Equal(t, "hired", message.Event)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(message.Data, &payload))
		assert.Equal(t, bidID, payload["bidId"])
		assert.Equal(t, gigID, payload["gigId"])
	})

	t.Run("session released on close", func(t *testing.T) {
		require.NoError(t, conn.Close())
		assert.Eventually(t, func() bool {
			return env.impl.hub.Online(freelancer.ID) == 0
		}, 5*time.Second, 10*time.Millisecond)
	})
}

func TestWebSocketOrigin(t *testing.T) {
	env := newTestEnv(t)
	env.impl.config.ClientURL = "https://app.example.com"
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)
	user := env.user(t, "user")

	_, resp, err := dialWS(t, server, user.Token, http.Header{"Origin": {"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := dialWS(t, server, user.Token, http.Header{"Origin": {"https://app.example.com"}})
	require.NoError(t, err)
	conn.Close()
}
