package dto

// DashboardStats 仪表盘汇总
type DashboardStats struct {
	ApplicationsByStatus map[string]int64 `json:"applications_by_status"`
	StudentsByStatus     map[string]int64 `json:"students_by_status"`
	UsersByRole          map[string]int64 `json:"users_by_role"`
	LogsheetsLast7Days   int64            `json:"logsheets_last_7_days"`
	UpcomingEvents       int64            `json:"upcoming_events"`
}
