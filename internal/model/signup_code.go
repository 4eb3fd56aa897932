package model

import "time"

// SignupCode 学生注册码表，对应 signup_codes
// 申请通过时生成，注册成功后物理删除，不做软删除
type SignupCode struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"                                  json:"id"`
	Code          string    `gorm:"type:varchar(16);not null;uniqueIndex:uk_signup_codes_code" json:"code"`
	ApplicationID uint      `gorm:"not null;index:idx_signup_codes_application_id"            json:"application_id"`
	FirstNames    string    `gorm:"type:varchar(100);not null"                                json:"first_names"`
	Surname       string    `gorm:"type:varchar(100);not null"                                json:"surname"`
	StudentNumber string    `gorm:"type:varchar(20);not null"                                 json:"student_number"`
	LevelOfStudy  string    `gorm:"type:varchar(50);not null"                                 json:"level_of_study"`
	Email         string    `gorm:"type:varchar(255);not null"                                json:"email"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                        json:"created_at"`
}

// TableName 指定表名
func (SignupCode) TableName() string { return "signup_codes" }

// StaffCode 教职工 / 导师注册码表，对应 staff_codes
// Role 决定兑换后创建的账号角色（staff | mentor）
type StaffCode struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"                                 json:"id"`
	Code       string    `gorm:"type:varchar(16);not null;uniqueIndex:uk_staff_codes_code" json:"code"`
	OwnerName  string    `gorm:"type:varchar(200);not null"                               json:"owner_name"`
	OwnerEmail string    `gorm:"type:varchar(255);not null"                               json:"owner_email"`
	Role       string    `gorm:"type:varchar(20);not null"                                json:"role"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                       json:"created_at"`
}

// TableName 指定表名
func (StaffCode) TableName() string { return "staff_codes" }

// BlockedSignup 注册封禁邮箱表，对应 blocked_signups（只增不删）
type BlockedSignup struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                                     json:"id"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex:uk_blocked_signups_email" json:"email"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                           json:"created_at"`
}

// TableName 指定表名
func (BlockedSignup) TableName() string { return "blocked_signups" }
