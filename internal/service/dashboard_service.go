package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wil-portal/config"
	"wil-portal/internal/dto"
	"wil-portal/internal/repository"
)

// ErrExportGenerateFail 生成 Excel 失败
var ErrExportGenerateFail = errors.New("failed to generate excel file")

// DashboardService 仪表盘统计与导出接口
//
// 设计说明：
//   - Stats 各项计数互不依赖，用 errgroup 并发查询，任一失败整体失败
//   - ExportStudents 以 bytes.Buffer 返回，由 Handler 层设置响应头后写出
type DashboardService interface {
	Stats(ctx context.Context) (*dto.DashboardStats, error)
	// ExportStudents 导出学生状态与距最近活动天数
	ExportStudents(ctx context.Context) (*bytes.Buffer, string, error)
}

type dashboardService struct {
	repo           *repository.Repository
	logger         *zap.Logger
	inactivityDays int
	now            func() time.Time
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) DashboardService {
	return &dashboardService{
		repo:           repo,
		logger:         logger,
		inactivityDays: cfg.Student.InactivityDays,
		now:            time.Now,
	}
}

// ═══════════════════════════════════════════════════════════
// Stats
// ═══════════════════════════════════════════════════════════

func (s *dashboardService) Stats(ctx context.Context) (*dto.DashboardStats, error) {
	stats := &dto.DashboardStats{}
	now := s.now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.repo.Application.CountByStatus(gctx)
		stats.ApplicationsByStatus = m
		return err
	})
	g.Go(func() error {
		m, err := s.repo.Student.CountByStatus(gctx)
		stats.StudentsByStatus = m
		return err
	})
	g.Go(func() error {
		m, err := s.repo.User.CountByRole(gctx)
		stats.UsersByRole = m
		return err
	})
	g.Go(func() error {
		n, err := s.repo.Logsheet.CountSince(gctx, dateOf(now).AddDate(0, 0, -7))
		stats.LogsheetsLast7Days = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.Event.CountUpcoming(gctx, now)
		stats.UpcomingEvents = n
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("查询仪表盘统计失败", zap.Error(err))
		return nil, err
	}
	return stats, nil
}

// ═══════════════════════════════════════════════════════════
// ExportStudents 导出学生状态为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "Students"
//   - 列：学号 / 姓名 / 邮箱 / 层次 / 状态 / 最近日志 / 距今天数
//   - 超过 inactivity_days 的行标红

func (s *dashboardService) ExportStudents(ctx context.Context) (*bytes.Buffer, string, error) {
	students, err := s.repo.Student.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询学生列表失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Students"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	widths := []float64{16, 28, 32, 14, 14, 14, 12}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	staleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000"},
	})

	headers := []string{"Student Number", "Name", "Email", "Level", "Status", "Last Log", "Days Since"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	now := s.now()
	row := 2
	for _, st := range students {
		last, err := s.repo.Logsheet.LatestLogDate(ctx, st.StudentNumber)
		if err != nil {
			s.logger.Error("查询最近日志失败", zap.String("student_number", st.StudentNumber), zap.Error(err))
			return nil, "", err
		}

		f.SetCellValue(sheetName, cell("A", row), st.StudentNumber)
		f.SetCellValue(sheetName, cell("B", row), st.FirstNames+" "+st.Surname)
		f.SetCellValue(sheetName, cell("C", row), st.Email)
		f.SetCellValue(sheetName, cell("D", row), st.LevelOfStudy)
		f.SetCellValue(sheetName, cell("E", row), st.Status)
		if last == nil {
			f.SetCellValue(sheetName, cell("F", row), "-")
			f.SetCellValue(sheetName, cell("G", row), "-")
		} else {
			days := calendarDaysBetween(*last, now)
			f.SetCellValue(sheetName, cell("F", row), last.UTC().Format(dto.DateLayout))
			f.SetCellValue(sheetName, cell("G", row), days)
			if days > s.inactivityDays {
				f.SetCellStyle(sheetName, cell("A", row), cell("G", row), staleStyle)
			}
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("students_%s.xlsx", now.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
