package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrInvalidInput 缺失或格式错误的字段
var ErrInvalidInput = errors.New("invalid input")

// ── 注册码 / 兑换 ──

var (
	ErrInvalidCode             = errors.New("invalid code")
	ErrEmailBlocked            = errors.New("email is blocked from signing up")
	ErrDuplicateAccount        = errors.New("an account with this email or student number already exists")
	ErrCodeGenerationExhausted = errors.New("could not generate a unique code")
)

// ── 申请 ──

var (
	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("a pending application already exists for this student number")
	ErrInvalidStatus        = errors.New("invalid status")
)

// ── 学生 / 日志 ──

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrStaleActivity   = errors.New("no logsheet activity within the reactivation window")
	ErrLogsheetExists  = errors.New("a logsheet already exists for this date")
	ErrInvalidLogDate  = errors.New("invalid log date")
)

// ── 活动 ──

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrRegistrationLimit = errors.New("maximum registrations reached for this event")
)

// ── 认证 ──

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// isDuplicateKey 唯一约束冲突
// TranslateError 已将 PostgreSQL / SQLite 的唯一冲突统一为 gorm.ErrDuplicatedKey，
// 文本匹配兜底未注册翻译器的方言
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
