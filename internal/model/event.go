package model

import "time"

// Event 活动 / 讲座表，对应 events
type Event struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"                            json:"id"`
	Title       string    `gorm:"type:varchar(200);not null"                          json:"title"`
	Description string    `gorm:"type:text;not null;default:''"                       json:"description"`
	Venue       string    `gorm:"type:varchar(200);not null;default:''"               json:"venue"`
	StartsAt    time.Time `gorm:"not null"                                            json:"starts_at"`
	EndsAt      time.Time `gorm:"not null"                                            json:"ends_at"`
	Code        string    `gorm:"type:varchar(16);not null;uniqueIndex:uk_events_code" json:"code"`
	BaseModel
}

// TableName 指定表名
func (Event) TableName() string { return "events" }

// EventAttendance 活动报名 / 签到表，对应 event_attendance
type EventAttendance struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"                                json:"id"`
	EventID   uint       `gorm:"not null;index:idx_event_attendance_event_student,priority:1" json:"event_id"`
	StudentID uint       `gorm:"not null;index:idx_event_attendance_event_student,priority:2" json:"student_id"`
	Attended  bool       `gorm:"not null;default:false"                                  json:"attended"`
	SignedAt  *time.Time `json:"signed_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (EventAttendance) TableName() string { return "event_attendance" }
