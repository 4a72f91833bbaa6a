package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// List notifications of the caller
// (GET /api/notifications)
func (impl *ServerImpl) GetNotifications(c *gin.Context) {
	const op = "GetNotifications"
	caller, found := impl.mustCaller(c, op)
	if !found {
		return
	}
	notifications, err := impl.service.ListNotifications(c.Request.Context(), caller)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"count":         len(notifications),
		"notifications": newNotificationViews(notifications),
	})
}

// Mark a notification as read
// (PATCH /api/notifications/{id}/read)
func (impl *ServerImpl) PatchNotificationRead(c *gin.Context) {
	const op = "PatchNotificationRead"
	caller, found := impl.mustCaller(c, op)
	if !found {
		return
	}
	notificationID, valid := pathID(c, "id")
	if !valid {
		return
	}
	notification, err := impl.service.MarkRead(c.Request.Context(), notificationID, caller)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"notification": newNotificationView(notification)})
}
