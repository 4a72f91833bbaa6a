package redis

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type consumerOptions[T any] struct {
	logger       *slog.Logger
	bufferSize   int
	blockTimeout time.Duration
	retryDelay   time.Duration
	decodeFunc   func(map[string]any) (T, error)
}

type ConsumerOption[T any] func(*consumerOptions[T])

// WithConsumerLogger 設置日誌記錄器
func WithConsumerLogger[T any](logger *slog.Logger) ConsumerOption[T] {
	return func(o *consumerOptions[T]) {
		o.logger = logger
	}
}

// WithConsumerBufferSize 設置下游channel的緩衝大小
func WithConsumerBufferSize[T any](size int) ConsumerOption[T] {
	return func(o *consumerOptions[T]) {
		o.bufferSize = size
	}
}

// WithConsumerBlockTimeout 設置阻塞讀取超時時間
func WithConsumerBlockTimeout[T any](d time.Duration) ConsumerOption[T] {
	return func(o *consumerOptions[T]) {
		o.blockTimeout = d
	}
}

// WithConsumerRetryDelay 設置讀取失敗後重新讀取前的等待時間
func WithConsumerRetryDelay[T any](d time.Duration) ConsumerOption[T] {
	return func(o *consumerOptions[T]) {
		o.retryDelay = d
	}
}

// WithConsumerDecodeFunc 設置自定義解析函數
func WithConsumerDecodeFunc[T any](fn func(map[string]any) (T, error)) ConsumerOption[T] {
	return func(o *consumerOptions[T]) {
		o.decodeFunc = fn
	}
}

// Consumer 從 Redis Stream 讀取啟動之後的新訊息
// 每個服務實例都有自己的 Consumer，因此同一則訊息會被所有實例收到
type Consumer[T any] struct {
	client     *redis.Client
	stream     string
	lastID     string
	downStream chan T
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	closed     bool
	logger     *slog.Logger
	options    consumerOptions[T]
}

var _ IConsumer[struct{}] = (*Consumer[struct{}])(nil)

func NewConsumer[T any](client *redis.Client, stream string, opts ...ConsumerOption[T]) (*Consumer[T], error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if stream == "" {
		return nil, errors.New("stream cannot be empty")
	}

	options := consumerOptions[T]{
		logger:       slog.Default(),
		bufferSize:   100,
		blockTimeout: time.Second,
		retryDelay:   time.Second,
		decodeFunc:   Decode[T],
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Consumer[T]{
		client: client,
		stream: stream,
		lastID: "$",
		// 尚未啟動前 Subscribe 也能取得通道
		downStream: make(chan T, options.bufferSize),
		closed:     true,
		logger:     options.logger.With(slog.String("caller", "Consumer"), slog.String("stream", stream)),
		options:    options,
	}, nil
}

func (s *Consumer[T]) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed || s.cancelFunc != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.closed = false
	s.cancelFunc = cancel
	s.logger.Info("starting stream consumer")

	downStream := s.downStream
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.logger.Info("consumer goroutine stopped")
		defer close(downStream)

		for ctx.Err() == nil {
			messages, err := s.fetch(ctx)
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				s.logger.Error("fetch message error", slog.Any("error", err))
				select {
				case <-ctx.Done():
				case <-time.After(s.options.retryDelay):
				}
				continue
			}

			for _, message := range messages {
				data, err := s.options.decodeFunc(message.Values)
				if err != nil {
					s.logger.Error("failed to decode message",
						slog.String("messageId", message.ID),
						slog.Any("error", err))
					continue
				}

				select {
				case <-ctx.Done():
					return
				case downStream <- data:
					s.logger.Debug("message sent to downstream",
						slog.String("messageId", message.ID))
				}
			}
		}
	}()
}

// fetch 讀取 lastID 之後的訊息，並將 lastID 推進到最後一筆
func (s *Consumer[T]) fetch(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := s.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{s.stream, s.lastID},
		Count:   int64(s.options.bufferSize),
		Block:   s.options.blockTimeout,
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, redis.Nil
	}

	messages := streams[0].Messages
	s.lastID = messages[len(messages)-1].ID
	s.logger.Debug("received messages",
		slog.Int("count", len(messages)),
		slog.String("lastId", s.lastID))
	return messages, nil
}

// Subscribe 回傳接收訊息的通道，Consumer 關閉後通道也會關閉
func (s *Consumer[T]) Subscribe() <-chan T {
	return s.downStream
}

// Close 關閉消費者，關閉後無法再次啟動
func (s *Consumer[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.logger.Info("closing stream consumer")
	s.closed = true
	s.cancelFunc()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("stream consumer closed")
}
