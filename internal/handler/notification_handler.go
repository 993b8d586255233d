package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	{
		notifications.GET("", middleware.RequireAuth(), h.List)
		notifications.PUT("/:id/read", middleware.RequireAuth(), h.MarkRead)
		notifications.PUT("/read-all", middleware.RequireAuth(), h.MarkAllRead)
		notifications.PUT("/:id/archive", middleware.RequireAuth(), h.Archive)

		// administrative
		notifications.POST("", middleware.RequirePermission("notifications", "manage", model.AccessLevelManage), h.Create)
		notifications.DELETE("/:id", middleware.RequirePermission("notifications", "manage", model.AccessLevelManage), h.DeleteScheduled)
	}
}

// List handles GET /notifications for the caller
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread  query     bool  false  "Only unread"
// @Param        page    query     int   false  "Page number"
// @Param        limit   query     int   false  "Page size"
// @Success      200     {object}  response.Response{data=[]service.NotificationResponse}
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	unreadOnly := c.Query("unread") == "true"

	items, total, err := h.notificationService.List(c.Request.Context(), currentUserID(c), unreadOnly, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, items, total, p))
}

// MarkRead handles PUT /notifications/:id/read
// @Summary      Mark a notification read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Notification read"}))
}

// MarkAllRead handles PUT /notifications/read-all
// @Summary      Mark all notifications read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notificationService.MarkAllRead(c.Request.Context(), currentUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "All notifications read"}))
}

// Archive handles PUT /notifications/:id/archive
// @Summary      Archive a notification
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /notifications/{id}/archive [put]
func (h *NotificationHandler) Archive(c *gin.Context) {
	if err := h.notificationService.Archive(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Notification archived"}))
}

// Create handles POST /notifications (admin send or schedule)
// @Summary      Create a notification
// @Description  Sends immediately without a schedule, otherwise queues for the dispatcher
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateNotificationRequest  true  "Notification"
// @Success      201      {object}  response.Response{data=service.NotificationResponse}
// @Failure      400      {object}  response.Response
// @Router       /notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	var req service.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	n, err := h.notificationService.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, n))
}

// DeleteScheduled handles DELETE /notifications/:id
// @Summary      Delete a scheduled notification
// @Description  Allowed only while the notification has not been dispatched
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /notifications/{id} [delete]
func (h *NotificationHandler) DeleteScheduled(c *gin.Context) {
	if err := h.notificationService.DeleteScheduled(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Notification deleted"}))
}
