package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gigboard/market"
	"gigboard/notify"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsMaxMessage = 4096
)

// Track notification events of the caller
// (GET /api/notifications/events)
func (impl *ServerImpl) GetNotificationEvents(c *gin.Context) {
	const op = "GetNotificationEvents"
	caller, found := impl.mustCaller(c, op)
	if !found {
		return
	}
	session, err := impl.hub.Connect(caller)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	defer session.Close()

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	heartbeat := time.NewTicker(impl.config.SSE.Heartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case event, ok := <-session.Events():
			if !ok {
				return
			}
			c.SSEvent(string(event.Type), event)
			w.Flush()
		// 一段時間沒有事件就發送註解行，避免代理伺服器斷開連線
		case <-heartbeat.C:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return
			}
			w.Flush()
		}
	}
}

type wsIncoming struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type wsOutgoing struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Open a socket for real-time notifications
// (GET /api/ws)
//
// 連線後客戶端送出 {"action":"join","data":"<userId>"}，只能加入自己的頻道
func (impl *ServerImpl) GetWebSocket(c *gin.Context) {
	const op = "GetWebSocket"
	caller, found := impl.mustCaller(c, op)
	if !found {
		return
	}
	conn, err := impl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 失敗時已經回應了錯誤
		impl.logger.Debug("Fail to upgrade websocket", slog.Any("error", err))
		return
	}
	defer conn.Close()
	logger := impl.logger.With(slog.String("userID", caller.String()))

	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// 讀取與寫入分開，寫入只在這個 goroutine 進行
	replies := make(chan wsOutgoing)
	joins := make(chan struct{})
	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var message wsIncoming
			if err := conn.ReadJSON(&message); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debug("Websocket closed", slog.Any("error", err))
				}
				return
			}

			var reply chan<- wsOutgoing = replies
			out := wsOutgoing{Event: "error"}
			var join chan<- struct{}
			switch message.Action {
			case "join":
				var userID string
				if err := json.Unmarshal(message.Data, &userID); err != nil || userID != caller.String() {
					out.Data = "Cannot join another user's channel"
				} else {
					join, reply = joins, nil
				}
			default:
				out.Data = "Unknown action"
			}

			select {
			case reply <- out:
			case join <- struct{}{}:
			case <-stop:
				return
			}
		}
	}()
	defer func() {
		close(stop)
		conn.Close()
		<-readerDone
	}()

	var session *notify.Session
	var events <-chan market.Event
	defer func() {
		if session != nil {
			session.Close()
		}
	}()

	ping := time.NewTicker(impl.config.SSE.Heartbeat)
	defer ping.Stop()
	write := func(message wsOutgoing) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(message)
	}
	for {
		var err error
		select {
		case <-readerDone:
			return
		case <-joins:
			if session == nil {
				session, err = impl.hub.Connect(caller)
				if err != nil {
					logger.Warn("Fail to join channel", slog.Any("error", err))
					return
				}
				events = session.Events()
			}
			err = write(wsOutgoing{Event: "joined", Data: notify.ChannelName(caller)})
		case out := <-replies:
			err = write(out)
		case event, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(wsWriteWait))
				return
			}
			err = write(wsOutgoing{Event: string(event.Type), Data: event})
		case <-ping.C:
			err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
		}
		if err != nil {
			logger.Debug("Fail to write websocket message", slog.Any("error", err))
			return
		}
	}
}
