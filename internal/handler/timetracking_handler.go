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

type TimeTrackingHandler struct {
	timeTrackingService service.TimeTrackingService
}

func NewTimeTrackingHandler(timeTrackingService service.TimeTrackingService) *TimeTrackingHandler {
	return &TimeTrackingHandler{timeTrackingService: timeTrackingService}
}

func (h *TimeTrackingHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Mutations run under timeTracking.track, reads under timeTracking.read,
	// matching the seeded catalog keys.
	track := middleware.RequirePermission("timeTracking", "track", model.AccessLevelBasic)
	read := middleware.RequirePermission("timeTracking", "read", model.AccessLevelBasic)

	tracking := router.Group("/time-tracking")
	{
		tracking.POST("/sessions/start", track, h.StartSession)
		tracking.POST("/sessions/end", track, h.EndSession)
		tracking.POST("/breaks/start", track, h.StartBreak)
		tracking.POST("/breaks/end", track, h.EndBreak)
		tracking.GET("/sessions/active", read, h.ActiveSession)
		tracking.GET("/sessions", read, h.ListSessions)
		tracking.POST("/entries", track, h.LogWork)
		tracking.GET("/entries", read, h.ListWorkEntries)
	}
}

// StartSession handles POST /time-tracking/sessions/start
// @Summary      Start a work session
// @Description  Fails while another session is active for the caller
// @Tags         time-tracking
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  response.Response{data=service.WorkSessionResponse}
// @Failure      400  {object}  response.Response
// @Router       /time-tracking/sessions/start [post]
func (h *TimeTrackingHandler) StartSession(c *gin.Context) {
	session, err := h.timeTrackingService.StartSession(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, session))
}

// EndSession handles POST /time-tracking/sessions/end
// @Summary      End the active work session
// @Description  An open break is closed at the same instant
// @Tags         time-tracking
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.WorkSessionResponse}
// @Failure      400  {object}  response.Response
// @Router       /time-tracking/sessions/end [post]
func (h *TimeTrackingHandler) EndSession(c *gin.Context) {
	session, err := h.timeTrackingService.EndSession(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, session))
}

// StartBreak handles POST /time-tracking/breaks/start
// @Summary      Start a break in the active session
// @Tags         time-tracking
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.WorkSessionResponse}
// @Failure      400  {object}  response.Response
// @Router       /time-tracking/breaks/start [post]
func (h *TimeTrackingHandler) StartBreak(c *gin.Context) {
	session, err := h.timeTrackingService.StartBreak(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, session))
}

// EndBreak handles POST /time-tracking/breaks/end
// @Summary      End the open break
// @Tags         time-tracking
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.WorkSessionResponse}
// @Failure      400  {object}  response.Response
// @Router       /time-tracking/breaks/end [post]
func (h *TimeTrackingHandler) EndBreak(c *gin.Context) {
	session, err := h.timeTrackingService.EndBreak(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, session))
}

// ActiveSession handles GET /time-tracking/sessions/active
// @Summary      Get the caller's active session
// @Tags         time-tracking
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.WorkSessionResponse}
// @Failure      404  {object}  response.Response
// @Router       /time-tracking/sessions/active [get]
func (h *TimeTrackingHandler) ActiveSession(c *gin.Context) {
	session, err := h.timeTrackingService.ActiveSession(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, session))
}

// ListSessions handles GET /time-tracking/sessions
// @Summary      List the caller's sessions
// @Tags         time-tracking
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.WorkSessionResponse}
// @Router       /time-tracking/sessions [get]
func (h *TimeTrackingHandler) ListSessions(c *gin.Context) {
	p := pagination.Parse(c)
	sessions, total, err := h.timeTrackingService.ListSessions(c.Request.Context(), currentUserID(c), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, sessions, total, p))
}

// LogWork handles POST /time-tracking/entries
// @Summary      Log minutes against a production step
// @Tags         time-tracking
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.LogWorkRequest  true  "Work entry"
// @Success      201      {object}  response.Response{data=service.WorkEntryResponse}
// @Failure      400      {object}  response.Response
// @Router       /time-tracking/entries [post]
func (h *TimeTrackingHandler) LogWork(c *gin.Context) {
	var req service.LogWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entry, err := h.timeTrackingService.LogWork(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

// ListWorkEntries handles GET /time-tracking/entries
// @Summary      List the caller's work entries
// @Tags         time-tracking
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.WorkEntryResponse}
// @Router       /time-tracking/entries [get]
func (h *TimeTrackingHandler) ListWorkEntries(c *gin.Context) {
	p := pagination.Parse(c)
	entries, total, err := h.timeTrackingService.ListWorkEntries(c.Request.Context(), currentUserID(c), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, entries, total, p))
}
