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

type ProductionHandler struct {
	productionService service.ProductionService
}

func NewProductionHandler(productionService service.ProductionService) *ProductionHandler {
	return &ProductionHandler{productionService: productionService}
}

func (h *ProductionHandler) RegisterRoutes(router *gin.RouterGroup) {
	guides := router.Group("/production/guides")
	{
		guides.GET("", middleware.RequirePermission("production", "read", model.AccessLevelBasic), h.ListGuides)
		guides.GET("/:id", middleware.RequirePermission("production", "read", model.AccessLevelBasic), h.GetGuide)
		guides.POST("", middleware.RequirePermission("production", "create", model.AccessLevelManage), h.CreateGuide)
		guides.PUT("/:id", middleware.RequirePermission("production", "update", model.AccessLevelManage), h.UpdateGuide)
		guides.DELETE("/:id", middleware.RequirePermission("production", "delete", model.AccessLevelManage), h.DeleteGuide)
		guides.POST("/:id/steps", middleware.RequirePermission("production", "update", model.AccessLevelManage), h.AddStep)
	}

	steps := router.Group("/production/steps")
	{
		// step completion is a floor-level action, editing is not
		steps.PUT("/:id", middleware.RequirePermission("production", "update", model.AccessLevelBasic), h.UpdateStep)
		steps.DELETE("/:id", middleware.RequirePermission("production", "update", model.AccessLevelManage), h.DeleteStep)
	}
}

// ListGuides handles GET /production/guides
// @Summary      List production guides
// @Tags         production
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter (DRAFT, ACTIVE, COMPLETED, ARCHIVED)"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=[]service.GuideResponse}
// @Router       /production/guides [get]
func (h *ProductionHandler) ListGuides(c *gin.Context) {
	p := pagination.Parse(c)
	guides, total, err := h.productionService.ListGuides(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, guides, total, p))
}

// GetGuide handles GET /production/guides/:id with ordered steps
// @Summary      Get guide by id
// @Tags         production
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Guide ID"
// @Success      200  {object}  response.Response{data=service.GuideResponse}
// @Failure      404  {object}  response.Response
// @Router       /production/guides/{id} [get]
func (h *ProductionHandler) GetGuide(c *gin.Context) {
	guide, err := h.productionService.GetGuide(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, guide))
}

// CreateGuide handles POST /production/guides
// @Summary      Create guide
// @Tags         production
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateGuideRequest  true  "Guide"
// @Success      201      {object}  response.Response{data=service.GuideResponse}
// @Failure      400      {object}  response.Response
// @Router       /production/guides [post]
func (h *ProductionHandler) CreateGuide(c *gin.Context) {
	var req service.CreateGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	guide, err := h.productionService.CreateGuide(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, guide))
}

// UpdateGuide handles PUT /production/guides/:id
// @Summary      Update guide
// @Tags         production
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Guide ID"
// @Param        payload  body      service.UpdateGuideRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=service.GuideResponse}
// @Failure      400      {object}  response.Response
// @Router       /production/guides/{id} [put]
func (h *ProductionHandler) UpdateGuide(c *gin.Context) {
	var req service.UpdateGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	guide, err := h.productionService.UpdateGuide(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, guide))
}

// DeleteGuide handles DELETE /production/guides/:id
// @Summary      Delete guide
// @Tags         production
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Guide ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /production/guides/{id} [delete]
func (h *ProductionHandler) DeleteGuide(c *gin.Context) {
	if err := h.productionService.DeleteGuide(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Guide deleted"}))
}

// AddStep handles POST /production/guides/:id/steps
// @Summary      Append a step to a guide
// @Tags         production
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Guide ID"
// @Param        payload  body      service.CreateStepRequest  true  "Step"
// @Success      201      {object}  response.Response{data=service.StepResponse}
// @Failure      400      {object}  response.Response
// @Router       /production/guides/{id}/steps [post]
func (h *ProductionHandler) AddStep(c *gin.Context) {
	var req service.CreateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	step, err := h.productionService.AddStep(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, step))
}

// UpdateStep handles PUT /production/steps/:id including the done toggle
// @Summary      Update step
// @Tags         production
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Step ID"
// @Param        payload  body      service.UpdateStepRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=service.StepResponse}
// @Failure      400      {object}  response.Response
// @Router       /production/steps/{id} [put]
func (h *ProductionHandler) UpdateStep(c *gin.Context) {
	var req service.UpdateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	step, err := h.productionService.UpdateStep(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, step))
}

// DeleteStep handles DELETE /production/steps/:id
// @Summary      Delete step
// @Tags         production
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Step ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /production/steps/{id} [delete]
func (h *ProductionHandler) DeleteStep(c *gin.Context) {
	if err := h.productionService.DeleteStep(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Step deleted"}))
}
