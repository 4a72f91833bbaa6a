package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"gigboard/adapters/sse"
	"gigboard/market"
)

// ChannelName 回傳使用者的事件頻道名稱
func ChannelName(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// Hub 將業務事件推送給使用者目前所有連線中的 session (SSE 或 WebSocket)
type Hub struct {
	manager sse.IConnectionManager[market.Event]
	logger  *slog.Logger
}

var _ market.Dispatcher = (*Hub)(nil)

type HubOption func(*Hub)

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

func NewHub(manager sse.IConnectionManager[market.Event], opts ...HubOption) (*Hub, error) {
	if manager == nil {
		return nil, errors.New("connection manager cannot be nil")
	}
	h := &Hub{
		manager: manager,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(slog.String("caller", "NotifyHub"))
	return h, nil
}

// Dispatch 推送事件給使用者，使用者沒有任何連線時事件直接被丟棄
func (h *Hub) Dispatch(ctx context.Context, userID uuid.UUID, event market.Event) error {
	const op = "Hub.Dispatch"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("[%s] Context is done, err=%w", op, err)
	}
	if err := h.manager.Publish(ChannelName(userID), event); err != nil {
		return fmt.Errorf("[%s] Fail to publish event, userID=%s, err=%w", op, userID, err)
	}
	h.logger.Debug("Event dispatched",
		slog.String("userID", userID.String()),
		slog.String("type", string(event.Type)),
		slog.String("gigID", event.GigID))
	return nil
}

// Session 代表使用者的一條即時連線
type Session struct {
	hub     *Hub
	channel string
	events  <-chan market.Event
}

// Connect 為使用者建立新的 session，使用完畢後必須呼叫 Close
func (h *Hub) Connect(userID uuid.UUID) (*Session, error) {
	const op = "Hub.Connect"
	channel := ChannelName(userID)
	events, err := h.manager.Subscribe(channel)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to subscribe, userID=%s, err=%w", op, userID, err)
	}
	h.logger.Debug("Session connected",
		slog.String("userID", userID.String()),
		slog.Int("sessions", h.manager.Subscribers(channel)))
	return &Session{hub: h, channel: channel, events: events}, nil
}

// Events 回傳事件通道，Hub 關閉時通道也會關閉
func (s *Session) Events() <-chan market.Event {
	return s.events
}

func (s *Session) Close() {
	s.hub.manager.Unsubscribe(s.channel, s.events)
}

// Online 回傳使用者目前的連線數量
func (h *Hub) Online(userID uuid.UUID) int {
	return h.manager.Subscribers(ChannelName(userID))
}
