package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"gigboard/api/identity"
)

type testEnv struct {
	impl   *ServerImpl
	router *gin.Engine
}

type testUser struct {
	ID    uuid.UUID
	Name  string
	Email string
	Token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	impl, err := NewServer(ServerConfig{
		DB: DBConfig{
			Driver:      "sqlite",
			SQLitePath:  filepath.Join(t.TempDir(), "api.db"),
			AutoMigrate: true,
		},
		Auth: AuthConfig{JWTSecret: "test-secret", CookieName: "token"},
		SSE:  SSEConfig{Heartbeat: time.Second},
	})
	require.NoError(t, err)
	impl.Start()
	t.Cleanup(impl.Close)

	router := gin.New()
	impl.RegisterRoutes(router)
	return &testEnv{impl: impl, router: router}
}

func (e *testEnv) user(t *testing.T, name string) testUser {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	u := testUser{ID: id, Name: name, Email: name + "@example.com"}
	u.Token, err = e.impl.verifier.Sign(identity.Identity{UserID: u.ID, Name: u.Name, Email: u.Email}, time.Hour)
	require.NoError(t, err)
	// 第一次請求時才會同步到本地
	rec, _ := e.do(t, http.MethodGet, "/api/notifications", u.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return u
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

// createGig 建立預算 500 的工作並回傳 id
func (e *testEnv) createGig(t *testing.T, owner testUser, title string) string {
	t.Helper()
	rec, body := e.do(t, http.MethodPost, "/api/gigs", owner.Token, gin.H{
		"title":       title,
		"description": "Build a landing page",
		"budget":      500,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return body["gig"].(map[string]any)["id"].(string)
}

func (e *testEnv) createBid(t *testing.T, freelancer testUser, gigID string, price float64) string {
	t.Helper()
	rec, body := e.do(t, http.MethodPost, "/api/bids", freelancer.Token, gin.H{
		"gigId":   gigID,
		"message": "I can do it",
		"price":   price,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return body["bid"].(map[string]any)["id"].(string)
}
