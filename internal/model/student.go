package model

// 学生账号状态
const (
	StudentActive     = "active"
	StudentInactive   = "inactive"
	StudentSuspended  = "suspended"
	StudentUnenrolled = "unenrolled"
)

// StudentUser 学生账号表，对应 student_users
type StudentUser struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"                                          json:"id"`
	Title         string `gorm:"type:varchar(20);not null;default:''"                              json:"title"`
	FirstNames    string `gorm:"type:varchar(100);not null"                                        json:"first_names"`
	Surname       string `gorm:"type:varchar(100);not null"                                        json:"surname"`
	StudentNumber string `gorm:"type:varchar(20);not null;uniqueIndex:uk_student_users_student_number" json:"student_number"`
	LevelOfStudy  string `gorm:"type:varchar(50);not null"                                         json:"level_of_study"`
	Email         string `gorm:"type:varchar(255);not null;uniqueIndex:uk_student_users_email"     json:"email"`
	PasswordHash  string `gorm:"type:varchar(255);not null"                                        json:"-"`
	Status        string `gorm:"type:varchar(20);not null;default:'active';index:idx_student_users_status" json:"status"`
	BaseModel
}

// TableName 指定表名
func (StudentUser) TableName() string { return "student_users" }
