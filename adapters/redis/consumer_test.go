package redis

import (
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func xReadArgs(lastID string) *redis.XReadArgs {
	return &redis.XReadArgs{
		Streams: []string{"events", lastID},
		Count:   100,
		Block:   time.Second,
	}
}

func newTestConsumer(t *testing.T, client *redis.Client, opts ...ConsumerOption[TestRequest]) *Consumer[TestRequest] {
	t.Helper()
	opts = append([]ConsumerOption[TestRequest]{
		WithConsumerLogger[TestRequest](discardLogger),
		WithConsumerRetryDelay[TestRequest](10 * time.Second),
	}, opts...)
	consumer, err := NewConsumer(client, "events", opts...)
	require.NoError(t, err)
	return consumer
}

func TestNewConsumer(t *testing.T) {
	client, _, cleanup := setupTest(t)
	defer cleanup()

	tests := []struct {
		name    string
		client  *redis.Client
		stream  string
		wantErr bool
		errMsg  string
	}{
		{name: "valid configuration", client: client, stream: "events"},
		{name: "nil client", client: nil, stream: "events", wantErr: true, errMsg: "redis client cannot be nil"},
		{name: "empty stream", client: client, stream: "", wantErr: true, errMsg: "stream cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			consumer, err := NewConsumer[TestRequest](tt.client, tt.stream)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, consumer)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, consumer.Subscribe())
			consumer.Close()
		})
	}
}

func TestConsumer_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)
	client, mock, cleanup := setupTest(t)
	defer cleanup()

	mock.ExpectXRead(xReadArgs("$")).SetErr(redis.Nil)

	consumer := newTestConsumer(t, client)
	consumer.Start()
	consumer.Start() // Should be no-op
	time.Sleep(100 * time.Millisecond)
	consumer.Close()
	consumer.Close() // Should be no-op

	_, ok := <-consumer.Subscribe()
	assert.False(t, ok, "downstream should be closed")

	// 關閉後不能再次啟動
	consumer.Start()
	_, ok = <-consumer.Subscribe()
	assert.False(t, ok)
}

func TestConsumer_MessageConsumption(t *testing.T) {
	t.Run("messages are delivered in order and lastID advances", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, mock, cleanup := setupTest(t)
		defer cleanup()

		first := TestRequest{Channel: "user:1", Message: TestEvent{ID: "n1"}}
		second := TestRequest{Channel: "user:2", Message: TestEvent{ID: "n2"}}
		firstValues, err := Encode(first)
		require.NoError(t, err)
		secondValues, err := Encode(second)
		require.NoError(t, err)

		mock.ExpectXRead(xReadArgs("$")).SetVal([]redis.XStream{
			{
				Stream: "events",
				Messages: []redis.XMessage{
					{ID: "1-0", Values: firstValues},
					{ID: "2-0", Values: secondValues},
				},
			},
		})
		mock.ExpectXRead(xReadArgs("2-0")).SetErr(redis.Nil)

		consumer := newTestConsumer(t, client)
		consumer.Start()
		defer consumer.Close()

		for _, want := range []TestRequest{first, second} {
			select {
			case got := <-consumer.Subscribe():
				assert.Equal(t, want, got)
			case <-time.After(2 * time.Second):
				t.Fatal("timeout waiting for message")
			}
		}
		time.Sleep(50 * time.Millisecond)
	})

	t.Run("redis error is retried after delay", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, mock, cleanup := setupTest(t)
		defer cleanup()

		mock.ExpectXRead(xReadArgs("$")).SetErr(redis.ErrClosed)

		consumer := newTestConsumer(t, client)
		consumer.Start()
		time.Sleep(100 * time.Millisecond)
		consumer.Close()
	})

	t.Run("invalid message is skipped", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, mock, cleanup := setupTest(t)
		defer cleanup()

		valid := TestRequest{Channel: "user:1", Message: TestEvent{ID: "n1"}}
		validValues, err := Encode(valid)
		require.NoError(t, err)

		mock.ExpectXRead(xReadArgs("$")).SetVal([]redis.XStream{
			{
				Stream: "events",
				Messages: []redis.XMessage{
					{ID: "1-0", Values: map[string]interface{}{"data": "not base64"}},
					{ID: "2-0", Values: validValues},
				},
			},
		})
		mock.ExpectXRead(xReadArgs("2-0")).SetErr(redis.Nil)

		consumer := newTestConsumer(t, client)
		consumer.Start()
		defer consumer.Close()

		select {
		case got := <-consumer.Subscribe():
			assert.Equal(t, valid, got)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for message")
		}
		time.Sleep(50 * time.Millisecond)
	})

	t.Run("custom decode function", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, mock, cleanup := setupTest(t)
		defer cleanup()

		mock.ExpectXRead(xReadArgs("$")).SetVal([]redis.XStream{
			{
				Stream:   "events",
				Messages: []redis.XMessage{{ID: "1-0", Values: map[string]interface{}{"anything": "x"}}},
			},
		})

		consumer := newTestConsumer(t, client,
			WithConsumerDecodeFunc(func(map[string]any) (TestRequest, error) {
				return TestRequest{}, fmt.Errorf("failed to decode message")
			}),
		)
		consumer.Start()
		defer consumer.Close()

		select {
		case <-consumer.Subscribe():
			t.Fatal("should not receive invalid message")
		case <-time.After(300 * time.Millisecond):
		}
	})

	t.Run("empty stream response", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, mock, cleanup := setupTest(t)
		defer cleanup()

		mock.ExpectXRead(xReadArgs("$")).SetVal([]redis.XStream{})

		consumer := newTestConsumer(t, client)
		consumer.Start()
		defer consumer.Close()

		select {
		case <-consumer.Subscribe():
			t.Fatal("should not receive message from empty stream")
		case <-time.After(300 * time.Millisecond):
		}
	})
}
