package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const contextKeyCaller = "caller_id"

// bearerToken 優先讀取 cookie，沒有才讀取 Authorization header
func (impl *ServerImpl) bearerToken(c *gin.Context) string {
	if cookie, err := c.Cookie(impl.config.Auth.CookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if token, found := strings.CutPrefix(header, "Bearer "); found {
		return token
	}
	return ""
}

// Authenticate 驗證 token 並將呼叫者同步到本地使用者資料
func (impl *ServerImpl) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "Authenticate"
		identity, err := impl.verifier.Verify(impl.bearerToken(c))
		if err != nil {
			impl.logger.Debug("Reject unauthenticated request", slog.String("path", c.FullPath()), slog.Any("error", err))
			abort(c, http.StatusUnauthorized, "Not authorized. Please log in.")
			return
		}
		if _, err := impl.service.SyncUser(c.Request.Context(), identity.UserID, identity.Name, identity.Email); err != nil {
			impl.fail(c, op, err)
			return
		}
		c.Set(contextKeyCaller, identity.UserID)
		c.Next()
	}
}

func callerID(c *gin.Context) (uuid.UUID, error) {
	value, exists := c.Get(contextKeyCaller)
	if !exists {
		return uuid.Nil, errNoCaller
	}
	id, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, errNoCaller
	}
	return id, nil
}

var errNoCaller = errors.New("caller not found in context")
