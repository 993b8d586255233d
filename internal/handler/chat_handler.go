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

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup) {
	chat := router.Group("/chat", middleware.RequirePermission("chat", "access", model.AccessLevelBasic))
	{
		chat.GET("/conversations", h.ListConversations)
		chat.GET("/messages/:peerID", h.ListMessages)
		chat.POST("/messages", h.SendMessage)
		chat.PUT("/messages/:id/read", h.MarkRead)
		chat.DELETE("/messages/:id", h.DeleteMessage)
	}
}

// ListConversations handles GET /chat/conversations
// @Summary      List conversations
// @Description  Peers the caller has exchanged messages with, unread conversations first
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ConversationResponse}
// @Router       /chat/conversations [get]
func (h *ChatHandler) ListConversations(c *gin.Context) {
	conversations, err := h.chatService.Conversations(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, conversations))
}

// ListMessages handles GET /chat/messages/:peerID
// @Summary      List messages with a peer
// @Description  Pages through the two-party history, oldest first within the page
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        peerID  path      string  true   "Peer user ID"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=[]service.ChatMessageResponse}
// @Router       /chat/messages/{peerID} [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	p := pagination.Parse(c)
	messages, total, err := h.chatService.Messages(c.Request.Context(), currentUserID(c), c.Param("peerID"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, messages, total, p))
}

// SendMessage handles POST /chat/messages
// @Summary      Send a message
// @Description  Persists the message and emits the matching socket events
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SendChatMessageRequest  true  "Message"
// @Success      201      {object}  response.Response{data=service.ChatMessageResponse}
// @Failure      400      {object}  response.Response
// @Router       /chat/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req service.SendChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	msg, err := h.chatService.Send(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, msg))
}

// MarkRead handles PUT /chat/messages/:id/read
// @Summary      Mark a message read
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Message ID"
// @Success      200  {object}  response.Response{data=service.ChatMessageResponse}
// @Failure      400  {object}  response.Response
// @Router       /chat/messages/{id}/read [put]
func (h *ChatHandler) MarkRead(c *gin.Context) {
	msg, err := h.chatService.Read(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, msg))
}

// DeleteMessage handles DELETE /chat/messages/:id
// @Summary      Delete a message
// @Description  Soft delete, the message content becomes a placeholder for both parties
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Message ID"
// @Success      200  {object}  response.Response{data=service.ChatMessageResponse}
// @Failure      400  {object}  response.Response
// @Router       /chat/messages/{id} [delete]
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	msg, err := h.chatService.Delete(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, msg))
}
