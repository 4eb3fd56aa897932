package dto

// ── 学生状态 ──

// StudentListRequest 学生列表查询参数
type StudentListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=active inactive suspended unenrolled"`
}

// StudentResponse 学生账号信息（脱敏）
type StudentResponse struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	FirstNames    string `json:"first_names"`
	Surname       string `json:"surname"`
	StudentNumber string `json:"student_number"`
	LevelOfStudy  string `json:"level_of_study"`
	Email         string `json:"email"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

// StudentStatusResponse 状态变更 / 重算结果
// DaysSinceLastActivity 为 nil 表示没有任何日志
type StudentStatusResponse struct {
	Student               StudentResponse `json:"student"`
	StatusChanged         bool            `json:"statusChanged"`
	DaysSinceLastActivity *int            `json:"daysSinceLastActivity"`
	Warning               string          `json:"warning,omitempty"`
}

// SweepFailure 批量扫描中单个学生的失败原因
type SweepFailure struct {
	StudentNumber string `json:"student_number"`
	Error         string `json:"error"`
}

// SweepResponse 批量不活跃扫描结果
type SweepResponse struct {
	Checked     int            `json:"checked"`
	Deactivated int            `json:"deactivated"`
	Failed      []SweepFailure `json:"failed"`
	Interrupted bool           `json:"interrupted,omitempty"`
}
