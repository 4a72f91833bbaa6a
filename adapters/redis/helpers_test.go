package redis

import (
	"io"
	"log/slog"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func setupTest(t *testing.T) (*redis.Client, redismock.ClientMock, func()) {
	db, mock := redismock.NewClientMock()
	return db, mock, func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	}
}

type TestRequest struct {
	Channel string `msgpack:"channel"`
	Message TestEvent
}

type TestEvent struct {
	ID    string `msgpack:"id"`
	GigID string `msgpack:"gigId"`
	BidID string `msgpack:"bidId,omitempty"`
}
