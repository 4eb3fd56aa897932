package dto

import "time"

// ── 活动 / 签到 ──

// CreateEventRequest 创建活动
type CreateEventRequest struct {
	Title       string    `json:"title"       binding:"required,max=200"`
	Description string    `json:"description" binding:"omitempty,max=2000"`
	Venue       string    `json:"venue"       binding:"omitempty,max=200"`
	StartsAt    time.Time `json:"starts_at"   binding:"required"`
	EndsAt      time.Time `json:"ends_at"     binding:"required,gtfield=StartsAt"`
}

// RegisterEventRequest 活动报名
type RegisterEventRequest struct {
	StudentID uint `json:"student_id" binding:"required,min=1"`
}

// AttendEventRequest 凭活动码签到
type AttendEventRequest struct {
	Code      string `json:"code"       binding:"required,max=16"`
	StudentID uint   `json:"student_id" binding:"required,min=1"`
}

// EventResponse 活动详情
type EventResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Venue       string `json:"venue"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
	Code        string `json:"code"`
}

// AttendanceResponse 报名 / 签到记录
type AttendanceResponse struct {
	ID        uint    `json:"id"`
	EventID   uint    `json:"event_id"`
	StudentID uint    `json:"student_id"`
	Attended  bool    `json:"attended"`
	SignedAt  *string `json:"signed_at,omitempty"`
}
