package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"wil-portal/internal/dto"
	"wil-portal/internal/model"
	"wil-portal/internal/repository"
)

// LogsheetService 每日实习日志接口
type LogsheetService interface {
	Create(ctx context.Context, req *dto.CreateLogsheetRequest) (*dto.LogsheetResponse, error)
	List(ctx context.Context, req *dto.LogsheetListRequest) ([]dto.LogsheetResponse, int64, error)
}

type logsheetService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewLogsheetService 创建 LogsheetService 实例
func NewLogsheetService(repo *repository.Repository, logger *zap.Logger) LogsheetService {
	return &logsheetService{repo: repo, logger: logger, now: time.Now}
}

func (s *logsheetService) Create(ctx context.Context, req *dto.CreateLogsheetRequest) (*dto.LogsheetResponse, error) {
	logDate, err := parseLogDate(req.LogDate)
	if err != nil {
		return nil, ErrInvalidLogDate
	}
	if logDate.After(dateOf(s.now())) {
		return nil, ErrInvalidLogDate
	}
	if len(req.Activities) == 0 || len(req.Activities) > model.MaxActivityEntries {
		return nil, ErrInvalidInput
	}

	sn := strings.TrimSpace(req.StudentNumber)
	if _, err := s.repo.Student.GetByStudentNumber(ctx, sn); err != nil {
		if isNotFound(err) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	entries := make(model.ActivityEntries, 0, len(req.Activities))
	for _, a := range req.Activities {
		entries = append(entries, model.ActivityEntry{Activity: strings.TrimSpace(a.Activity), Hours: a.Hours})
	}

	sheet := &model.DailyLogsheet{
		StudentNumber:       sn,
		LogDate:             logDate,
		Activities:          entries,
		StudentSignature:    strings.TrimSpace(req.StudentSignature),
		SupervisorSignature: strings.TrimSpace(req.SupervisorSignature),
	}
	if err := s.repo.Logsheet.Create(ctx, sheet); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrLogsheetExists
		}
		s.logger.Error("创建日志失败", zap.String("student_number", sn), zap.Error(err))
		return nil, err
	}

	s.logger.Info("日志已创建",
		zap.String("student_number", sn),
		zap.String("log_date", req.LogDate),
		zap.Float64("hours", entries.TotalHours()),
	)
	resp := toLogsheetResponse(sheet)
	return &resp, nil
}

func (s *logsheetService) List(ctx context.Context, req *dto.LogsheetListRequest) ([]dto.LogsheetResponse, int64, error) {
	sheets, total, err := s.repo.Logsheet.ListByStudentNumber(ctx, strings.TrimSpace(req.StudentNumber), req.GetOffset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	list := make([]dto.LogsheetResponse, 0, len(sheets))
	for i := range sheets {
		list = append(list, toLogsheetResponse(&sheets[i]))
	}
	return list, total, nil
}

// parseLogDate 日期统一存为 UTC 零点
func parseLogDate(v string) (time.Time, error) {
	return time.ParseInLocation(dto.DateLayout, strings.TrimSpace(v), time.UTC)
}

func toLogsheetResponse(l *model.DailyLogsheet) dto.LogsheetResponse {
	acts := make([]dto.ActivityEntryResponse, 0, len(l.Activities))
	for _, a := range l.Activities {
		acts = append(acts, dto.ActivityEntryResponse{Activity: a.Activity, Hours: a.Hours})
	}
	return dto.LogsheetResponse{
		ID:                  l.ID,
		StudentNumber:       l.StudentNumber,
		LogDate:             l.LogDate.UTC().Format(dto.DateLayout),
		Activities:          acts,
		TotalHours:          l.Activities.TotalHours(),
		StudentSignature:    l.StudentSignature,
		SupervisorSignature: l.SupervisorSignature,
		CreatedAt:           l.CreatedAt.Format(dto.TimeLayout),
	}
}
