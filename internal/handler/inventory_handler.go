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

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/inventory/items")
	{
		items.GET("", middleware.RequirePermission("inventory", "read", model.AccessLevelBasic), h.ListItems)
		items.GET("/:id", middleware.RequirePermission("inventory", "read", model.AccessLevelBasic), h.GetItem)
		items.POST("", middleware.RequirePermission("inventory", "create", model.AccessLevelManage), h.CreateItem)
		items.PUT("/:id", middleware.RequirePermission("inventory", "update", model.AccessLevelManage), h.UpdateItem)
		items.DELETE("/:id", middleware.RequirePermission("inventory", "delete", model.AccessLevelManage), h.DeleteItem)
		items.POST("/:id/movements", middleware.RequirePermission("inventory", "update", model.AccessLevelBasic), h.RecordMovement)
	}

	router.GET("/inventory/movements", middleware.RequirePermission("inventory", "read", model.AccessLevelBasic), h.ListMovements)
}

// ListItems handles GET /inventory/items
// @Summary      List inventory items
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.ItemResponse}
// @Router       /inventory/items [get]
func (h *InventoryHandler) ListItems(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.inventoryService.ListItems(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, items, total, p))
}

// GetItem handles GET /inventory/items/:id
// @Summary      Get item by id
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=service.ItemResponse}
// @Failure      404  {object}  response.Response
// @Router       /inventory/items/{id} [get]
func (h *InventoryHandler) GetItem(c *gin.Context) {
	item, err := h.inventoryService.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// CreateItem handles POST /inventory/items
// @Summary      Create item
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateItemRequest  true  "Item"
// @Success      201      {object}  response.Response{data=service.ItemResponse}
// @Failure      400      {object}  response.Response
// @Router       /inventory/items [post]
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.inventoryService.CreateItem(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateItem handles PUT /inventory/items/:id
// @Summary      Update item
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Item ID"
// @Param        payload  body      service.UpdateItemRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=service.ItemResponse}
// @Failure      400      {object}  response.Response
// @Router       /inventory/items/{id} [put]
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.inventoryService.UpdateItem(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem handles DELETE /inventory/items/:id
// @Summary      Delete item
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /inventory/items/{id} [delete]
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	if err := h.inventoryService.DeleteItem(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Item deleted"}))
}

// RecordMovement handles POST /inventory/items/:id/movements
// @Summary      Record a stock movement
// @Description  IN raises the level, OUT lowers it; going negative is rejected
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Item ID"
// @Param        payload  body      service.RecordMovementRequest  true  "Movement"
// @Success      201      {object}  response.Response{data=service.MovementResponse}
// @Failure      400      {object}  response.Response
// @Router       /inventory/items/{id}/movements [post]
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	var req service.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, err := h.inventoryService.RecordMovement(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// ListMovements handles GET /inventory/movements
// @Summary      List stock movements
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        item_id  query     string  false  "Filter by item"
// @Param        page     query     int     false  "Page number"
// @Param        limit    query     int     false  "Page size"
// @Success      200      {object}  response.Response{data=[]service.MovementResponse}
// @Router       /inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	p := pagination.Parse(c)
	movements, total, err := h.inventoryService.ListMovements(c.Request.Context(), c.Query("item_id"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, movements, total, p))
}
