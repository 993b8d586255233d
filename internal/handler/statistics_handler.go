package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/statistics/overview", middleware.RequireAnyPermission(model.AccessLevelBasic,
		middleware.PermissionRef{Module: "dashboard", Action: "read"},
		middleware.PermissionRef{Module: "statistics", Action: "read"},
	), h.Overview)
}

// Overview handles GET /statistics/overview
// @Summary      Dashboard overview counts
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.OverviewResponse}
// @Router       /statistics/overview [get]
func (h *StatisticsHandler) Overview(c *gin.Context) {
	overview, err := h.statisticsService.Overview(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, overview))
}
