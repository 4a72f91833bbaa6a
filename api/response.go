package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"gigboard/market"
)

// ok 回應成功的請求，所有回應都包含 success 欄位
func ok(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(status, body)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// statusOf 將業務錯誤分類對應到 HTTP 狀態碼
func statusOf(kind market.Kind) int {
	switch kind {
	case market.KindNotFound:
		return http.StatusNotFound
	case market.KindForbidden:
		return http.StatusForbidden
	case market.KindConflict, market.KindDuplicateBid:
		return http.StatusConflict
	case market.KindValidation:
		return http.StatusBadRequest
	case market.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail 回應業務錯誤，未知的錯誤只記錄在日誌中，不把細節回傳給呼叫者
func (impl *ServerImpl) fail(c *gin.Context, op string, err error) {
	var marketErr *market.Error
	if !errors.As(err, &marketErr) {
		impl.logger.Error("Unexpected error", slog.String("op", op), slog.Any("error", err))
		abort(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := statusOf(marketErr.Kind)
	if status >= http.StatusInternalServerError {
		impl.logger.Error("Request failed", slog.String("op", op), slog.Any("error", err))
	} else {
		impl.logger.Debug("Request rejected", slog.String("op", op), slog.Any("error", err))
	}
	abort(c, status, marketErr.Message)
}
