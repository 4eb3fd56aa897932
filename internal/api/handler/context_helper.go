package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"wil-portal/internal/dto"
	"wil-portal/internal/model"
	"wil-portal/internal/service"
	"wil-portal/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "Not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "Not authenticated")
		return "", false
	}
	return s, true
}

// tokenMeta 当前请求 Token 的 jti 与过期时间，供登出使用
func tokenMeta(c *gin.Context) (string, time.Time) {
	jti := c.GetString("jti")
	var exp time.Time
	if v, ok := c.Get("token_exp"); ok {
		exp, _ = v.(time.Time)
	}
	return jti, exp
}

// parseUintParam 解析路径中的正整数 ID，失败时写入 400
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, 10001, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// studentNumberParam 路径中的学号，空值写入 400
func studentNumberParam(c *gin.Context) (string, bool) {
	sn := c.Param("studentNumber")
	if sn == "" {
		response.BadRequest(c, 10001, "Student number is required")
		return "", false
	}
	return sn, true
}

// StudentResolver 按登录邮箱查找学生账号（service.StudentService 实现）
type StudentResolver interface {
	GetByEmail(ctx context.Context, email string) (*dto.StudentResponse, error)
}

// callerStudent student 角色返回 Token 对应的学生账号，其他角色返回 nil。
// ok=false 时已写入响应，调用方应直接 return。
func callerStudent(c *gin.Context, students StudentResolver, debug bool) (*dto.StudentResponse, bool) {
	if c.GetString("role") != model.RoleStudent {
		return nil, true
	}
	email := c.GetString("email")
	if email == "" {
		response.Forbidden(c, 10003, "Forbidden")
		return nil, false
	}
	st, err := students.GetByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.Forbidden(c, 10003, "No student account is linked to this login")
		} else {
			serverError(c, err, debug)
		}
		return nil, false
	}
	return st, true
}

// requireOwnStudentNumber student 角色只能操作自己的学号
func requireOwnStudentNumber(c *gin.Context, students StudentResolver, studentNumber string, debug bool) bool {
	me, ok := callerStudent(c, students, debug)
	if !ok {
		return false
	}
	if me != nil && !strings.EqualFold(me.StudentNumber, strings.TrimSpace(studentNumber)) {
		response.Forbidden(c, 10003, "Cannot act on another student's records")
		return false
	}
	return true
}

// requireOwnStudentID 同上，按 student_users.id 比较
func requireOwnStudentID(c *gin.Context, students StudentResolver, studentID uint, debug bool) bool {
	me, ok := callerStudent(c, students, debug)
	if !ok {
		return false
	}
	if me != nil && me.ID != studentID {
		response.Forbidden(c, 10003, "Cannot act on another student's records")
		return false
	}
	return true
}
