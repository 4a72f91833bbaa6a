package sse

// PublishRequest 表示一個發布請求，包含頻道名稱和訊息。
type PublishRequest[T any] struct {
	Channel string `json:"channel" msgpack:"channel"`
	Message T      `json:"message" msgpack:"message"`
}

// Publisher 將發布請求送往外部的訊息流(例如 Redis Stream)
type Publisher[T any] interface {
	Publish(request PublishRequest[T]) error
}

// Subscriber 從外部的訊息流接收發布請求
// 通道關閉代表訊息流已經停止
type Subscriber[T any] interface {
	Subscribe() <-chan PublishRequest[T]
}

// IConnectionManager 定義了連線管理員的介面
type IConnectionManager[T any] interface {
	// Start 開始處理外部訊息流的接收與廣播，應在呼叫其他方法前先呼叫此方法。
	Start()
	// Done 停止連線管理員並關閉所有訂閱。
	Done()
	// Subscribe 訂閱指定頻道，返回接收訊息的通道。
	Subscribe(channelName string) (<-chan T, error)
	// Publish 將資料推送到指定頻道。
	Publish(channelName string, data T) error
	// Unsubscribe 取消訂閱指定頻道。
	Unsubscribe(channelName string, ch <-chan T)
	// Subscribers 回傳指定頻道目前的訂閱數量。
	Subscribers(channelName string) int
}
