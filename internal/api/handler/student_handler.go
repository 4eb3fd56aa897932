package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"wil-portal/internal/dto"
	"wil-portal/internal/service"
	"wil-portal/pkg/response"
)

// StudentHandler 学生状态 HTTP 处理器
type StudentHandler struct {
	studentSvc service.StudentService
	debug      bool
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService, debug bool) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc, debug: debug}
}

// List 学生列表
// GET /api/students
func (h *StudentHandler) List(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Validation failed")
		return
	}

	list, total, err := h.studentSvc.List(c.Request.Context(), &req)
	if err != nil {
		serverError(c, err, h.debug)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// UpdateStatus 按活动记录重算状态
// POST /api/update-student-status/:studentNumber
func (h *StudentHandler) UpdateStatus(c *gin.Context) {
	h.transition(c, h.studentSvc.RecomputeStatus)
}

// Suspend POST /api/suspend-student/:studentNumber
func (h *StudentHandler) Suspend(c *gin.Context) {
	h.transition(c, h.studentSvc.Suspend)
}

// Unenroll POST /api/unenroll-student/:studentNumber
func (h *StudentHandler) Unenroll(c *gin.Context) {
	h.transition(c, h.studentSvc.Unenroll)
}

// Enroll POST /api/enroll-student/:studentNumber
func (h *StudentHandler) Enroll(c *gin.Context) {
	h.transition(c, h.studentSvc.Enroll)
}

// Reactivate POST /api/reactivate-student/:studentNumber
func (h *StudentHandler) Reactivate(c *gin.Context) {
	h.transition(c, h.studentSvc.Reactivate)
}

// SweepInactive 批量不活跃扫描
// POST /api/students/sweep-inactive
func (h *StudentHandler) SweepInactive(c *gin.Context) {
	result, err := h.studentSvc.SweepInactive(c.Request.Context())
	if err != nil {
		serverError(c, err, h.debug)
		return
	}

	response.OK(c, result)
}

func (h *StudentHandler) transition(c *gin.Context, fn func(ctx context.Context, studentNumber string) (*dto.StudentStatusResponse, error)) {
	sn, ok := studentNumberParam(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), sn)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *StudentHandler) handleStudentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 14001, "Student not found")
	case errors.Is(err, service.ErrStaleActivity):
		response.BadRequest(c, 14002, "No logsheet activity within the reactivation window")
	default:
		serverError(c, err, h.debug)
	}
}
