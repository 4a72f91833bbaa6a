package sse_test

import (
	"io"
	"log/slog"

	"gigboard/adapters/sse"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Message 表示測試用的訊息
type Message struct {
	Data string `json:"data"`
}

// loopback 將發布的請求直接送回訂閱端，模擬外部訊息流
type loopback struct {
	stream chan sse.PublishRequest[Message]
}

func newLoopback() *loopback {
	return &loopback{stream: make(chan sse.PublishRequest[Message], 16)}
}

func (l *loopback) Publish(request sse.PublishRequest[Message]) error {
	l.stream <- request
	return nil
}

func (l *loopback) Subscribe() <-chan sse.PublishRequest[Message] {
	return l.stream
}
