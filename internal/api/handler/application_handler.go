package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wil-portal/internal/dto"
	"wil-portal/internal/service"
	"wil-portal/pkg/response"
)

// ApplicationHandler 实习申请 HTTP 处理器
type ApplicationHandler struct {
	appSvc service.ApplicationService
	debug  bool
}

// NewApplicationHandler 创建 ApplicationHandler
func NewApplicationHandler(appSvc service.ApplicationService, debug bool) *ApplicationHandler {
	return &ApplicationHandler{appSvc: appSvc, debug: debug}
}

// Submit 提交申请
// POST /api/applications
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req dto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Validation failed")
		return
	}

	result, err := h.appSvc.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.Created(c, result)
}

// List 申请列表
// GET /api/applications
func (h *ApplicationHandler) List(c *gin.Context) {
	var req dto.ApplicationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Validation failed")
		return
	}

	list, total, err := h.appSvc.List(c.Request.Context(), &req)
	if err != nil {
		serverError(c, err, h.debug)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get 申请详情
// GET /api/applications/:id
func (h *ApplicationHandler) Get(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	result, err := h.appSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, result)
}

// SetStatus 变更申请状态；Accepted 时返回注册码
// POST /api/signup-codes
func (h *ApplicationHandler) SetStatus(c *gin.Context) {
	var req dto.SetApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "applicationId and status are required")
		return
	}

	result, err := h.appSvc.SetStatus(c.Request.Context(), req.ApplicationID, req.Status)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *ApplicationHandler) handleApplicationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrApplicationNotFound):
		response.NotFound(c, 13001, "Application not found")
	case errors.Is(err, service.ErrDuplicateApplication):
		response.Conflict(c, 13002, "A pending application already exists for this student number")
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, 13003, "Invalid status")
	case errors.Is(err, service.ErrCodeGenerationExhausted):
		response.Error(c, http.StatusServiceUnavailable, 12004, "Could not generate a unique code, please retry")
	default:
		serverError(c, err, h.debug)
	}
}
