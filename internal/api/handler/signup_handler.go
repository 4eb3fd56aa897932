package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wil-portal/internal/dto"
	"wil-portal/internal/service"
	"wil-portal/pkg/response"
)

// SignupHandler 注册码校验、兑换与签发
type SignupHandler struct {
	signupSvc service.SignupService
	codeSvc   service.CodeService
	debug     bool
}

// NewSignupHandler 创建 SignupHandler
func NewSignupHandler(signupSvc service.SignupService, codeSvc service.CodeService, debug bool) *SignupHandler {
	return &SignupHandler{signupSvc: signupSvc, codeSvc: codeSvc, debug: debug}
}

// ValidateSignupCode 校验注册码
// POST /api/validate-signup-code
// 失败时 data 为 {success:false, message}
func (h *SignupHandler) ValidateSignupCode(c *gin.Context) {
	var req dto.ValidateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Code is required")
		return
	}

	result, err := h.signupSvc.ValidateSignupCode(c.Request.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			msg := "Invalid code"
			response.ErrorWithData(c, http.StatusBadRequest, 12001, msg, dto.ValidateCodeResponse{Message: msg})
		case errors.Is(err, service.ErrEmailBlocked):
			msg := "This email has been blocked from signing up"
			response.ErrorWithData(c, http.StatusBadRequest, 12002, msg, dto.ValidateCodeResponse{Message: msg})
		default:
			serverError(c, err, h.debug)
		}
		return
	}

	response.OK(c, result)
}

// StudentSignup 学生兑换注册码创建账号
// POST /api/student_signup
func (h *SignupHandler) StudentSignup(c *gin.Context) {
	var req dto.StudentSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Validation failed")
		return
	}

	result, err := h.signupSvc.StudentSignup(c.Request.Context(), &req)
	if err != nil {
		h.handleSignupError(c, err)
		return
	}

	response.Created(c, result)
}

// StaffSignup 教职工 / 导师兑换注册码
// POST /api/staff_signup
func (h *SignupHandler) StaffSignup(c *gin.Context) {
	var req dto.StaffSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Validation failed")
		return
	}

	result, err := h.signupSvc.StaffSignup(c.Request.Context(), &req)
	if err != nil {
		h.handleSignupError(c, err)
		return
	}

	response.Created(c, result)
}

// BlockSignupEmail 封禁注册邮箱
// POST /api/block-signup-email
func (h *SignupHandler) BlockSignupEmail(c *gin.Context) {
	var req dto.BlockEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Email is required")
		return
	}

	if err := h.signupSvc.BlockSignupEmail(c.Request.Context(), req.Email); err != nil {
		h.handleSignupError(c, err)
		return
	}

	response.OK(c, gin.H{"email": req.Email, "blocked": true})
}

// IssueStaffCode 签发教职工 / 导师注册码
// POST /api/staff-codes
func (h *SignupHandler) IssueStaffCode(c *gin.Context) {
	var req dto.IssueStaffCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Validation failed")
		return
	}

	result, err := h.codeSvc.IssueStaffCode(c.Request.Context(), &req)
	if err != nil {
		h.handleSignupError(c, err)
		return
	}

	response.Created(c, result)
}

// handleSignupError 重复账号按 400 返回，与注册表单的其他输入错误一致
func (h *SignupHandler) handleSignupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, 10001, "Email is required")
	case errors.Is(err, service.ErrInvalidCode):
		response.BadRequest(c, 12001, "Invalid code")
	case errors.Is(err, service.ErrEmailBlocked):
		response.BadRequest(c, 12002, "This email has been blocked from signing up")
	case errors.Is(err, service.ErrDuplicateAccount):
		response.BadRequest(c, 12003, "An account with this email or student number already exists")
	case errors.Is(err, service.ErrCodeGenerationExhausted):
		response.Error(c, http.StatusServiceUnavailable, 12004, "Could not generate a unique code, please retry")
	default:
		serverError(c, err, h.debug)
	}
}
