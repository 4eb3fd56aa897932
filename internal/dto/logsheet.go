package dto

// ── 每日日志 ──

// ActivityEntryRequest 单条活动
type ActivityEntryRequest struct {
	Activity string  `json:"activity" binding:"required,max=255"`
	Hours    float64 `json:"hours"    binding:"required,gt=0,lte=24"`
}

// CreateLogsheetRequest 创建日志
type CreateLogsheetRequest struct {
	StudentNumber       string                 `json:"student_number"       binding:"required,student_number"`
	LogDate             string                 `json:"log_date"             binding:"required,datetime=2006-01-02"`
	Activities          []ActivityEntryRequest `json:"activities"           binding:"required,min=1,max=14,dive"`
	StudentSignature    string                 `json:"student_signature"    binding:"omitempty,max=255"`
	SupervisorSignature string                 `json:"supervisor_signature" binding:"omitempty,max=255"`
}

// LogsheetListRequest 日志列表查询参数
type LogsheetListRequest struct {
	PaginationRequest
	StudentNumber string `form:"student_number" binding:"required,student_number"`
}

// ActivityEntryResponse 单条活动
type ActivityEntryResponse struct {
	Activity string  `json:"activity"`
	Hours    float64 `json:"hours"`
}

// LogsheetResponse 日志详情
type LogsheetResponse struct {
	ID                  uint                    `json:"id"`
	StudentNumber       string                  `json:"student_number"`
	LogDate             string                  `json:"log_date"`
	Activities          []ActivityEntryResponse `json:"activities"`
	TotalHours          float64                 `json:"total_hours"`
	StudentSignature    string                  `json:"student_signature"`
	SupervisorSignature string                  `json:"supervisor_signature"`
	CreatedAt           string                  `json:"created_at"`
}
