package dto

// ── 注册码校验 / 兑换 ──

// ValidateCodeRequest 注册码校验请求
type ValidateCodeRequest struct {
	Code string `json:"code" binding:"required,max=16"`
}

// ValidateCodeResponse 注册码校验结果
type ValidateCodeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StudentSignupRequest 学生注册请求
type StudentSignupRequest struct {
	Email    string `json:"email"    binding:"required,email,max=255"`
	Title    string `json:"title"    binding:"omitempty,max=20"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Code     string `json:"code"     binding:"required,max=16"`
}

// StaffSignupRequest 教职工 / 导师注册请求
type StaffSignupRequest struct {
	Name     string `json:"name"     binding:"omitempty,max=200"`
	Email    string `json:"email"    binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Code     string `json:"code"     binding:"required,max=16"`
}

// SignupResponse 注册成功响应
type SignupResponse struct {
	UserID        uint   `json:"user_id"`
	StudentID     uint   `json:"student_id,omitempty"`
	StudentNumber string `json:"student_number,omitempty"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	Status        string `json:"status,omitempty"`
}

// BlockEmailRequest 封禁注册邮箱请求
type BlockEmailRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// ── 教职工码签发 ──

// IssueStaffCodeRequest 签发教职工 / 导师注册码
type IssueStaffCodeRequest struct {
	OwnerName  string `json:"owner_name"  binding:"required,max=200"`
	OwnerEmail string `json:"owner_email" binding:"required,email,max=255"`
	Role       string `json:"role"        binding:"required,oneof=staff mentor"`
}

// IssueCodeResponse 签发结果；Warning 非空表示通知发送失败
type IssueCodeResponse struct {
	Code    string `json:"code"`
	Warning string `json:"warning,omitempty"`
}
