package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"wil-portal/internal/dto"
	"wil-portal/internal/service"
	"wil-portal/pkg/response"
)

// EventHandler 活动 / 签到 HTTP 处理器
type EventHandler struct {
	eventSvc service.EventService
	students StudentResolver
	debug    bool
}

// NewEventHandler 创建 EventHandler
// student 角色只能为自己报名 / 签到
func NewEventHandler(eventSvc service.EventService, students StudentResolver, debug bool) *EventHandler {
	return &EventHandler{eventSvc: eventSvc, students: students, debug: debug}
}

// Create 创建活动
// POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Validation failed")
		return
	}

	result, err := h.eventSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.Created(c, result)
}

// Get 活动详情
// GET /api/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	result, err := h.eventSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, result)
}

// Register 活动报名
// POST /api/events/:id/register
func (h *EventHandler) Register(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req dto.RegisterEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "student_id is required")
		return
	}
	if !requireOwnStudentID(c, h.students, req.StudentID, h.debug) {
		return
	}

	result, err := h.eventSvc.Register(c.Request.Context(), id, req.StudentID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.Created(c, result)
}

// Attend 凭活动码签到
// POST /api/events/attend
func (h *EventHandler) Attend(c *gin.Context) {
	var req dto.AttendEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Validation failed")
		return
	}
	if !requireOwnStudentID(c, h.students, req.StudentID, h.debug) {
		return
	}

	result, err := h.eventSvc.Attend(c.Request.Context(), &req)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, result)
}

// ListAttendance 活动报名 / 签到列表
// GET /api/events/:id/attendance
func (h *EventHandler) ListAttendance(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	list, err := h.eventSvc.ListAttendance(c.Request.Context(), id)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Calendar 导出 iCalendar
// GET /api/events/:id/calendar.ics
func (h *EventHandler) Calendar(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	ics, err := h.eventSvc.CalendarICS(c.Request.Context(), id)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=event-%d.ics", id))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

func (h *EventHandler) handleEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 16001, "Event not found")
	case errors.Is(err, service.ErrRegistrationLimit):
		response.Conflict(c, 16002, "Maximum registrations reached for this event")
	case errors.Is(err, service.ErrInvalidCode):
		response.BadRequest(c, 16003, "Invalid event code")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 14001, "Student not found")
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, 10001, "ends_at must be after starts_at")
	case errors.Is(err, service.ErrCodeGenerationExhausted):
		response.Error(c, http.StatusServiceUnavailable, 12004, "Could not generate a unique code, please retry")
	default:
		serverError(c, err, h.debug)
	}
}
