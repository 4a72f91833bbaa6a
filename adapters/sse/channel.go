package sse

import (
	"sync"
)

// Channel 管理同一個頻道的所有訂閱者，並將訊息廣播給每一個訂閱者。
// 每個訂閱者都有自己的緩衝區，緩衝區滿時該訂閱者會漏掉這則訊息，不會阻塞其他訂閱者。
type Channel[T any] struct {
	subscribers map[<-chan T]chan T
	bufferSize  int
	mu          sync.RWMutex
}

// NewChannel 建立新的頻道，bufferSize 為每個訂閱者的緩衝大小
func NewChannel[T any](bufferSize int) *Channel[T] {
	return &Channel[T]{
		subscribers: make(map[<-chan T]chan T),
		bufferSize:  max(bufferSize, 0),
	}
}

// Subscribe 建立一個新的訂閱，回傳唯讀通道給呼叫者。
func (c *Channel[T]) Subscribe() <-chan T {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan T, c.bufferSize)
	c.subscribers[ch] = ch
	return ch
}

// Unsubscribe 移除指定的訂閱並關閉其通道。
func (c *Channel[T]) Unsubscribe(ch <-chan T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if writeCh, exists := c.subscribers[ch]; exists {
		delete(c.subscribers, ch)
		close(writeCh)
	}
}

// UnsubscribeAll 關閉所有訂閱者的通道並清空訂閱清單。
func (c *Channel[T]) UnsubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, writeCh := range c.subscribers {
		close(writeCh)
	}
	clear(c.subscribers)
}

// Broadcast 將訊息送給所有訂閱者，回傳因為緩衝區已滿而漏送的訂閱者數量。
func (c *Channel[T]) Broadcast(message T) (dropped int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, writeCh := range c.subscribers {
		select {
		case writeCh <- message:
		default:
			dropped++
		}
	}
	return dropped
}

// Len 回傳目前的訂閱者數量。
func (c *Channel[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscribers)
}

// IsIdle 判斷是否已經沒有訂閱者。
func (c *Channel[T]) IsIdle() bool {
	return c.Len() == 0
}
