package model

// 登录角色
const (
	RoleStudent = "student"
	RoleStaff   = "staff"
	RoleMentor  = "mentor"
	RoleAdmin   = "admin"
)

// User 登录用户表，对应 users
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"                     json:"id"`
	Name         string `gorm:"type:varchar(200);not null"                   json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex:uk_users_email" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                   json:"-"`
	Role         string `gorm:"type:varchar(20);not null"                    json:"role"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
