package gormstore_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"gigboard/adapters/gormstore"
	"gigboard/models"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestStore 建立使用暫存 SQLite 檔案的 Store
func newTestStore(t *testing.T) *gormstore.Store {
	t.Helper()
	db, err := gormstore.OpenSQLite(filepath.Join(t.TempDir(), "gigboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	store, err := gormstore.New(db, gormstore.WithLogger(discardLogger))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func createUser(t *testing.T, store *gormstore.Store, name string) *models.User {
	t.Helper()
	user := &models.User{ID: uuid.New(), Name: name, Email: lo.ToPtr(name + "@example.com")}
	require.NoError(t, store.UpsertUser(context.Background(), user))
	return user
}

func createGig(t *testing.T, store *gormstore.Store, title string, ownerID uuid.UUID, adminIDs ...uuid.UUID) *models.Gig {
	t.Helper()
	gig := &models.Gig{
		Title:       title,
		Description: "description of " + title,
		Budget:      100,
		OwnerID:     ownerID,
	}
	for _, id := range adminIDs {
		gig.Admins = append(gig.Admins, models.GigAdmin{UserID: id})
	}
	require.NoError(t, store.CreateGig(context.Background(), gig))
	return gig
}

func createBid(t *testing.T, store *gormstore.Store, gigID, freelancerID uuid.UUID) *models.Bid {
	t.Helper()
	bid := &models.Bid{GigID: gigID, FreelancerID: freelancerID, Message: "I can do it", Price: 50}
	require.NoError(t, store.CreateBid(context.Background(), bid))
	return bid
}
