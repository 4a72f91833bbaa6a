package sse

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrManagerClosed 表示連線管理員已經停止
var ErrManagerClosed = errors.New("connection manager is closed")

type managerOptions[T any] struct {
	logger     *slog.Logger
	bufferSize int
	publisher  Publisher[T]
	subscriber Subscriber[T]
}

type ManagerOption[T any] func(*managerOptions[T])

// WithLogger 設置日誌記錄器
func WithLogger[T any](logger *slog.Logger) ManagerOption[T] {
	return func(o *managerOptions[T]) {
		o.logger = logger
	}
}

// WithBufferSize 設置每個訂閱者的緩衝大小
func WithBufferSize[T any](size int) ManagerOption[T] {
	return func(o *managerOptions[T]) {
		o.bufferSize = size
	}
}

// WithPublisher 將發布導向外部訊息流，訊息會在 Subscriber 收到後才廣播給本地訂閱者
func WithPublisher[T any](publisher Publisher[T]) ManagerOption[T] {
	return func(o *managerOptions[T]) {
		o.publisher = publisher
	}
}

// WithSubscriber 從外部訊息流接收要廣播給本地訂閱者的訊息
func WithSubscriber[T any](subscriber Subscriber[T]) ManagerOption[T] {
	return func(o *managerOptions[T]) {
		o.subscriber = subscriber
	}
}

// ConnectionManager 管理多個頻道的訂閱與發布。
// 設定外部訊息流時，多個服務實例透過同一個訊息流協同運作，每個實例只廣播給自己的訂閱者。
type ConnectionManager[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu     sync.RWMutex   // 保護 active 和 channels 的讀寫
	wg     sync.WaitGroup // 用於等待所有 goroutine 完成
	active bool           // 標記 manager 是否正在運作中

	options  managerOptions[T]
	channels map[string]*Channel[T] // 儲存所有活躍的頻道
}

var _ IConnectionManager[struct{}] = (*ConnectionManager[struct{}])(nil)

// NewConnectionManager 建立一個新的連線管理器。
func NewConnectionManager[T any](opts ...ManagerOption[T]) (*ConnectionManager[T], error) {
	options := managerOptions[T]{
		logger:     slog.Default(),
		bufferSize: 16,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.publisher != nil && options.subscriber == nil {
		return nil, errors.New("publisher requires a subscriber to deliver messages locally")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ConnectionManager[T]{
		ctx:      ctx,
		cancel:   cancel,
		logger:   options.logger.With(slog.String("caller", "ConnectionManager")),
		active:   true,
		options:  options,
		channels: make(map[string]*Channel[T]),
	}, nil
}

// Start 開始接收外部訊息流，沒有設定 Subscriber 時不做任何事。
func (cm *ConnectionManager[T]) Start() {
	if cm.options.subscriber == nil {
		return
	}
	source := cm.options.subscriber.Subscribe()

	cm.wg.Add(1)
	go func() {
		defer cm.wg.Done()
		for {
			select {
			case <-cm.ctx.Done():
				return
			case request, ok := <-source:
				if !ok {
					cm.logger.Warn("subscriber stream closed")
					return
				}
				cm.broadcast(request.Channel, request.Message)
			}
		}
	}()
}

func (cm *ConnectionManager[T]) broadcast(channelName string, data T) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	c, ok := cm.channels[channelName]
	if !ok {
		return
	}
	if dropped := c.Broadcast(data); dropped > 0 {
		cm.logger.Warn("subscriber buffer full, message dropped",
			slog.String("channel", channelName),
			slog.Int("dropped", dropped))
	}
}

// Done 停止連線管理器的運作，並關閉所有訂閱的通道。
func (cm *ConnectionManager[T]) Done() {
	cm.mu.Lock()
	if !cm.active {
		cm.mu.Unlock()
		return
	}
	cm.active = false
	cm.cancel()
	cm.mu.Unlock()

	cm.wg.Wait()

	cm.mu.Lock()
	defer cm.mu.Unlock()
	for _, channel := range cm.channels {
		channel.UnsubscribeAll()
	}
	clear(cm.channels)
}

// Subscribe 訂閱指定的頻道，返回用於接收訊息的唯讀通道。
func (cm *ConnectionManager[T]) Subscribe(channelName string) (<-chan T, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.active {
		return nil, ErrManagerClosed
	}

	c, ok := cm.channels[channelName]
	if !ok {
		c = NewChannel[T](cm.options.bufferSize)
		cm.channels[channelName] = c
	}
	return c.Subscribe(), nil
}

// Publish 發布訊息到指定的頻道。
// 設定 Publisher 時訊息送往外部訊息流，否則直接廣播給本地訂閱者。
func (cm *ConnectionManager[T]) Publish(channelName string, data T) error {
	cm.mu.RLock()
	active := cm.active
	cm.mu.RUnlock()
	if !active {
		return ErrManagerClosed
	}

	if cm.options.publisher != nil {
		return cm.options.publisher.Publish(PublishRequest[T]{
			Channel: channelName,
			Message: data,
		})
	}
	cm.broadcast(channelName, data)
	return nil
}

// Unsubscribe 取消訂閱指定的頻道，頻道沒有訂閱者時會被移除。
func (cm *ConnectionManager[T]) Unsubscribe(channelName string, ch <-chan T) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	c, ok := cm.channels[channelName]
	if !ok {
		return
	}

	c.Unsubscribe(ch)
	if c.IsIdle() {
		delete(cm.channels, channelName)
	}
}

// Subscribers 回傳指定頻道目前的訂閱數量。
func (cm *ConnectionManager[T]) Subscribers(channelName string) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	c, ok := cm.channels[channelName]
	if !ok {
		return 0
	}
	return c.Len()
}
