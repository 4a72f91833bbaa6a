package market_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gigboard/adapters/gormstore"
	"gigboard/market"
	"gigboard/models"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type dispatched struct {
	UserID uuid.UUID
	Event  market.Event
}

// recordDispatcher 記錄所有推播的事件，err 不為 nil 時模擬推播失敗
type recordDispatcher struct {
	mu     sync.Mutex
	events []dispatched
	err    error
}

func (d *recordDispatcher) Dispatch(ctx context.Context, userID uuid.UUID, event market.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, dispatched{UserID: userID, Event: event})
	return nil
}

func (d *recordDispatcher) Events() []dispatched {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatched(nil), d.events...)
}

type fixture struct {
	store      *gormstore.Store
	service    *market.Service
	dispatcher *recordDispatcher
}

// newFixture 使用暫存的 SQLite 資料庫
// SQLite 只開一條連線，所有交易都是依序執行的
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gormstore.OpenSQLite(filepath.Join(t.TempDir(), "market.db"))
	require.NoError(t, err)
	return newFixtureWithDB(t, db)
}

func newFixtureWithDB(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	store, err := gormstore.New(db, gormstore.WithLogger(discardLogger))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	dispatcher := &recordDispatcher{}
	service, err := market.NewService(store, dispatcher, market.WithServiceLogger(discardLogger))
	require.NoError(t, err)
	return &fixture{store: store, service: service, dispatcher: dispatcher}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	user, err := f.service.SyncUser(context.Background(), uuid.New(), name, name+"@example.com")
	require.NoError(t, err)
	return user
}

func (f *fixture) gig(t *testing.T, owner *models.User, title string, admins ...uuid.UUID) *models.Gig {
	t.Helper()
	gig, err := f.service.CreateGig(context.Background(), market.CreateGigInput{
		Title:       title,
		Description: "Description of " + title,
		Budget:      500,
		Admins:      admins,
	}, owner.ID)
	require.NoError(t, err)
	return gig
}

func (f *fixture) bid(t *testing.T, gig *models.Gig, freelancer *models.User, price float64) *models.Bid {
	t.Helper()
	bid, err := f.service.SubmitBid(context.Background(), market.SubmitBidInput{
		GigID:   gig.ID,
		Message: "I am a good fit for this job",
		Price:   price,
	}, freelancer.ID)
	require.NoError(t, err)
	return bid
}

var errDispatch = errors.New("dispatch failed")
