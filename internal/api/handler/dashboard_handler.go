package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"wil-portal/internal/service"
	"wil-portal/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DashboardHandler 仪表盘 HTTP 处理器
type DashboardHandler struct {
	dashboardSvc service.DashboardService
	debug        bool
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService, debug bool) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc, debug: debug}
}

// Stats 汇总统计
// GET /api/dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboardSvc.Stats(c.Request.Context())
	if err != nil {
		serverError(c, err, h.debug)
		return
	}

	response.OK(c, stats)
}

// ExportStudents 导出学生状态
// GET /api/dashboard/students.xlsx
func (h *DashboardHandler) ExportStudents(c *gin.Context) {
	buf, filename, err := h.dashboardSvc.ExportStudents(c.Request.Context())
	if err != nil {
		serverError(c, err, h.debug)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
