package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"wil-portal/internal/dto"
	"wil-portal/internal/service"
	"wil-portal/pkg/response"
)

// LogsheetHandler 每日日志 HTTP 处理器
type LogsheetHandler struct {
	logsheetSvc service.LogsheetService
	students    StudentResolver
	debug       bool
}

// NewLogsheetHandler 创建 LogsheetHandler
func NewLogsheetHandler(logsheetSvc service.LogsheetService, students StudentResolver, debug bool) *LogsheetHandler {
	return &LogsheetHandler{logsheetSvc: logsheetSvc, students: students, debug: debug}
}

// Create 创建日志
// POST /api/logsheets
func (h *LogsheetHandler) Create(c *gin.Context) {
	var req dto.CreateLogsheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Validation failed")
		return
	}
	if !requireOwnStudentNumber(c, h.students, req.StudentNumber, h.debug) {
		return
	}

	result, err := h.logsheetSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleLogsheetError(c, err)
		return
	}

	response.Created(c, result)
}

// List 学生日志列表
// GET /api/logsheets?student_number=xxx
func (h *LogsheetHandler) List(c *gin.Context) {
	var req dto.LogsheetListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "student_number is required")
		return
	}
	if !requireOwnStudentNumber(c, h.students, req.StudentNumber, h.debug) {
		return
	}

	list, total, err := h.logsheetSvc.List(c.Request.Context(), &req)
	if err != nil {
		serverError(c, err, h.debug)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

func (h *LogsheetHandler) handleLogsheetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLogsheetExists):
		response.Conflict(c, 15001, "A logsheet already exists for this date")
	case errors.Is(err, service.ErrInvalidLogDate):
		response.BadRequest(c, 15002, "Invalid log date")
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, 10001, "A logsheet needs between 1 and 14 activities")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 14001, "Student not found")
	default:
		serverError(c, err, h.debug)
	}
}
