package dto

// ── 实习申请 ──

// SubmitApplicationRequest 提交申请
type SubmitApplicationRequest struct {
	FirstNames    string `json:"first_names"    binding:"required,max=100"`
	Surname       string `json:"surname"        binding:"required,max=100"`
	StudentNumber string `json:"student_number" binding:"required,student_number"`
	LevelOfStudy  string `json:"level_of_study" binding:"required,max=50"`
	Email         string `json:"email"          binding:"required,email,max=255"`
	Phone         string `json:"phone"          binding:"omitempty,max=30"`
}

// ApplicationListRequest 申请列表查询参数
type ApplicationListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=Pending Accepted Rejected"`
}

// SetApplicationStatusRequest 申请状态变更（POST /api/signup-codes）
// Status 的取值由业务层校验，非法值返回 InvalidStatus
type SetApplicationStatusRequest struct {
	ApplicationID uint   `json:"applicationId" binding:"required,min=1"`
	Status        string `json:"status"        binding:"required"`
}

// ApplicationResponse 申请详情
type ApplicationResponse struct {
	ID            uint   `json:"id"`
	FirstNames    string `json:"first_names"`
	Surname       string `json:"surname"`
	StudentNumber string `json:"student_number"`
	LevelOfStudy  string `json:"level_of_study"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// SetApplicationStatusResponse 状态变更结果；Accepted 时携带注册码
type SetApplicationStatusResponse struct {
	Application ApplicationResponse `json:"application"`
	Code        string              `json:"code,omitempty"`
	Warning     string              `json:"warning,omitempty"`
}
