package model

// 申请状态
const (
	ApplicationPending  = "Pending"
	ApplicationAccepted = "Accepted"
	ApplicationRejected = "Rejected"
)

// IsValidApplicationStatus 判断申请状态是否合法
func IsValidApplicationStatus(s string) bool {
	switch s {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// Application WIL 实习申请表，对应 applications
type Application struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"                              json:"id"`
	FirstNames    string `gorm:"type:varchar(100);not null"                            json:"first_names"`
	Surname       string `gorm:"type:varchar(100);not null"                            json:"surname"`
	StudentNumber string `gorm:"type:varchar(20);not null;index:idx_applications_student_number" json:"student_number"`
	LevelOfStudy  string `gorm:"type:varchar(50);not null"                             json:"level_of_study"`
	Email         string `gorm:"type:varchar(255);not null"                            json:"email"`
	Phone         string `gorm:"type:varchar(30)"                                      json:"phone,omitempty"`
	Status        string `gorm:"type:varchar(20);not null;default:'Pending';index:idx_applications_status" json:"status"`
	BaseModel
}

// TableName 指定表名
func (Application) TableName() string { return "applications" }
