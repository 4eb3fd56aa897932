package model

import "time"

// MaxActivityEntries 每张日志表最多 14 条活动
const MaxActivityEntries = 14

// DailyLogsheet 每日实习日志表，对应 daily_logsheets
// 同一学生同一天至多一张（uk_logsheet_student_date）
type DailyLogsheet struct {
	ID                  uint            `gorm:"primaryKey;autoIncrement"                                         json:"id"`
	StudentNumber       string          `gorm:"type:varchar(20);not null;uniqueIndex:uk_logsheet_student_date,priority:1" json:"student_number"`
	LogDate             time.Time       `gorm:"type:date;not null;uniqueIndex:uk_logsheet_student_date,priority:2"        json:"log_date"`
	Activities          ActivityEntries `gorm:"type:jsonb;not null"                                              json:"activities"`
	StudentSignature    string          `gorm:"type:varchar(255);not null;default:''"                            json:"student_signature"`
	SupervisorSignature string          `gorm:"type:varchar(255);not null;default:''"                            json:"supervisor_signature"`
	BaseModel
}

// TableName 指定表名
func (DailyLogsheet) TableName() string { return "daily_logsheets" }
