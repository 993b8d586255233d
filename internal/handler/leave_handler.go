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

type LeaveHandler struct {
	leaveService service.LeaveService
}

func NewLeaveHandler(leaveService service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaveService: leaveService}
}

func (h *LeaveHandler) RegisterRoutes(router *gin.RouterGroup) {
	leave := router.Group("/leave")
	{
		leave.POST("", middleware.RequirePermission("leave", "create", model.AccessLevelBasic), h.Request)
		leave.GET("/mine", middleware.RequirePermission("leave", "read", model.AccessLevelBasic), h.ListOwn)
		leave.GET("", middleware.RequirePermission("leave", "approve", model.AccessLevelManage), h.ListAll)
		leave.PUT("/:id/approve", middleware.RequirePermission("leave", "approve", model.AccessLevelManage), h.Approve)
		leave.PUT("/:id/reject", middleware.RequirePermission("leave", "approve", model.AccessLevelManage), h.Reject)
	}
}

// Request handles POST /leave
// @Summary      Request leave
// @Tags         leave
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateLeaveRequest  true  "Leave request"
// @Success      201      {object}  response.Response{data=service.LeaveResponse}
// @Failure      400      {object}  response.Response
// @Router       /leave [post]
func (h *LeaveHandler) Request(c *gin.Context) {
	var req service.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	leave, err := h.leaveService.Request(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, leave))
}

// ListOwn handles GET /leave/mine
// @Summary      List own leave requests
// @Tags         leave
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter (PENDING, APPROVED, REJECTED)"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=[]service.LeaveResponse}
// @Router       /leave/mine [get]
func (h *LeaveHandler) ListOwn(c *gin.Context) {
	p := pagination.Parse(c)
	requests, total, err := h.leaveService.ListOwn(c.Request.Context(), currentUserID(c), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, requests, total, p))
}

// ListAll handles GET /leave for reviewers
// @Summary      List all leave requests
// @Tags         leave
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=[]service.LeaveResponse}
// @Router       /leave [get]
func (h *LeaveHandler) ListAll(c *gin.Context) {
	p := pagination.Parse(c)
	requests, total, err := h.leaveService.ListAll(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, requests, total, p))
}

// Approve handles PUT /leave/:id/approve
// @Summary      Approve a leave request
// @Tags         leave
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true   "Request ID"
// @Param        payload  body      service.ReviewLeaveRequest  false  "Reviewer note"
// @Success      200      {object}  response.Response{data=service.LeaveResponse}
// @Failure      400      {object}  response.Response
// @Router       /leave/{id}/approve [put]
func (h *LeaveHandler) Approve(c *gin.Context) {
	var req service.ReviewLeaveRequest
	_ = c.ShouldBindJSON(&req)

	leave, err := h.leaveService.Approve(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, leave))
}

// Reject handles PUT /leave/:id/reject
// @Summary      Reject a leave request
// @Tags         leave
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true   "Request ID"
// @Param        payload  body      service.ReviewLeaveRequest  false  "Reviewer note"
// @Success      200      {object}  response.Response{data=service.LeaveResponse}
// @Failure      400      {object}  response.Response
// @Router       /leave/{id}/reject [put]
func (h *LeaveHandler) Reject(c *gin.Context) {
	var req service.ReviewLeaveRequest
	_ = c.ShouldBindJSON(&req)

	leave, err := h.leaveService.Reject(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, leave))
}
