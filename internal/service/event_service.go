package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"wil-portal/config"
	"wil-portal/internal/dto"
	"wil-portal/internal/metrics"
	"wil-portal/internal/model"
	"wil-portal/internal/repository"
	pkgerrors "wil-portal/pkg/errors"
)

// EventService 活动、报名与签到接口
type EventService interface {
	// Create 创建活动并在同一事务内签发活动码
	Create(ctx context.Context, req *dto.CreateEventRequest) (*dto.EventResponse, error)
	GetByID(ctx context.Context, id uint) (*dto.EventResponse, error)
	Register(ctx context.Context, eventID, studentID uint) (*dto.AttendanceResponse, error)
	// Attend 凭活动码签到；未报名视为现场签到，重复签到幂等
	Attend(ctx context.Context, req *dto.AttendEventRequest) (*dto.AttendanceResponse, error)
	ListAttendance(ctx context.Context, eventID uint) ([]dto.AttendanceResponse, error)
	// CalendarICS 导出单个活动的 iCalendar 文本
	CalendarICS(ctx context.Context, eventID uint) (string, error)
}

type eventService struct {
	repo            *repository.Repository
	codes           *codeIssuer
	logger          *zap.Logger
	registrationCap int64
	baseURL         string
	now             func() time.Time
}

// NewEventService 创建 EventService 实例
func NewEventService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) EventService {
	return &eventService{
		repo:            repo,
		codes:           newCodeIssuer(cfg.Codes.MaxAttempts),
		logger:          logger,
		registrationCap: int64(cfg.Event.RegistrationCap),
		baseURL:         cfg.Server.BaseURL,
		now:             time.Now,
	}
}

// ────────────────────── Create ──────────────────────

func (s *eventService) Create(ctx context.Context, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, ErrInvalidInput
	}

	var event *model.Event
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		code, err := s.codes.eventCode(ctx, tx)
		if err != nil {
			return err
		}
		event = &model.Event{
			Title:       strings.TrimSpace(req.Title),
			Description: strings.TrimSpace(req.Description),
			Venue:       strings.TrimSpace(req.Venue),
			StartsAt:    req.StartsAt,
			EndsAt:      req.EndsAt,
			Code:        code,
		}
		return tx.Event.Create(ctx, event)
	})
	if err != nil {
		if errors.Is(err, ErrCodeGenerationExhausted) {
			return nil, err
		}
		s.logger.Error("创建活动失败", zap.Error(err))
		return nil, pkgerrors.WrapTx(err)
	}

	metrics.CodesIssuedTotal.WithLabelValues("event").Inc()
	s.logger.Info("活动已创建", zap.Uint("event_id", event.ID), zap.String("code", event.Code))
	resp := toEventResponse(event)
	return &resp, nil
}

func (s *eventService) GetByID(ctx context.Context, id uint) (*dto.EventResponse, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toEventResponse(event)
	return &resp, nil
}

// ────────────────────── Register ──────────────────────

// Register 锁定活动行后计数，同一学生并发报名也不会超过上限
func (s *eventService) Register(ctx context.Context, eventID, studentID uint) (*dto.AttendanceResponse, error) {
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}

	var att *model.EventAttendance
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Event.GetByIDForUpdate(ctx, eventID); err != nil {
			if isNotFound(err) {
				return ErrEventNotFound
			}
			return err
		}
		n, err := tx.Attendance.CountByEventAndStudent(ctx, eventID, studentID)
		if err != nil {
			return err
		}
		if n >= s.registrationCap {
			return ErrRegistrationLimit
		}
		att = &model.EventAttendance{EventID: eventID, StudentID: studentID}
		return tx.Attendance.Create(ctx, att)
	})
	if err != nil {
		return nil, s.eventError("活动报名失败", err)
	}

	s.logger.Info("活动报名成功", zap.Uint("event_id", eventID), zap.Uint("student_id", studentID))
	resp := toAttendanceResponse(att)
	return &resp, nil
}

// ────────────────────── Attend ──────────────────────

func (s *eventService) Attend(ctx context.Context, req *dto.AttendEventRequest) (*dto.AttendanceResponse, error) {
	code := normalizeCode(req.Code)
	if code == "" {
		return nil, ErrInvalidCode
	}
	event, err := s.repo.Event.GetByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}
	if err := s.ensureStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}

	var att *model.EventAttendance
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Event.GetByIDForUpdate(ctx, event.ID); err != nil {
			return err
		}
		at := s.now()

		existing, err := tx.Attendance.GetByEventAndStudent(ctx, event.ID, req.StudentID)
		if err != nil && !isNotFound(err) {
			return err
		}
		if existing == nil {
			att = &model.EventAttendance{EventID: event.ID, StudentID: req.StudentID, Attended: true, SignedAt: &at}
			return tx.Attendance.Create(ctx, att)
		}
		att = existing
		if existing.Attended {
			return nil
		}
		if err := tx.Attendance.MarkAttended(ctx, existing.ID, at); err != nil {
			return err
		}
		att.Attended = true
		att.SignedAt = &at
		return nil
	})
	if err != nil {
		return nil, s.eventError("活动签到失败", err)
	}

	metrics.CodeRedemptionsTotal.WithLabelValues("event", "ok").Inc()
	s.logger.Info("活动签到成功", zap.Uint("event_id", event.ID), zap.Uint("student_id", req.StudentID))
	resp := toAttendanceResponse(att)
	return &resp, nil
}

func (s *eventService) ListAttendance(ctx context.Context, eventID uint) ([]dto.AttendanceResponse, error) {
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, err
	}
	rows, err := s.repo.Attendance.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	list := make([]dto.AttendanceResponse, 0, len(rows))
	for i := range rows {
		list = append(list, toAttendanceResponse(&rows[i]))
	}
	return list, nil
}

// ────────────────────── Calendar ──────────────────────

func (s *eventService) CalendarICS(ctx context.Context, eventID uint) (string, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//WIL Portal//Events//EN")

	vevent := cal.AddEvent(fmt.Sprintf("event-%d@wil-portal", event.ID))
	vevent.SetDtStampTime(s.now().UTC())
	vevent.SetStartAt(event.StartsAt.UTC())
	vevent.SetEndAt(event.EndsAt.UTC())
	vevent.SetSummary(event.Title)
	if event.Venue != "" {
		vevent.SetLocation(event.Venue)
	}
	if event.Description != "" {
		vevent.SetDescription(event.Description)
	}
	if s.baseURL != "" {
		vevent.SetURL(fmt.Sprintf("%s/events/%d", strings.TrimRight(s.baseURL, "/"), event.ID))
	}

	return cal.Serialize(), nil
}

// ────────────────────── helpers ──────────────────────

func (s *eventService) getEvent(ctx context.Context, id uint) (*model.Event, error) {
	event, err := s.repo.Event.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *eventService) ensureStudent(ctx context.Context, studentID uint) error {
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if isNotFound(err) {
			return ErrStudentNotFound
		}
		return err
	}
	return nil
}

func (s *eventService) eventError(msg string, err error) error {
	switch {
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrRegistrationLimit):
		return err
	default:
		s.logger.Error(msg, zap.Error(err))
		return pkgerrors.WrapTx(err)
	}
}

func toEventResponse(e *model.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Venue:       e.Venue,
		StartsAt:    e.StartsAt.Format(dto.TimeLayout),
		EndsAt:      e.EndsAt.Format(dto.TimeLayout),
		Code:        e.Code,
	}
}

func toAttendanceResponse(a *model.EventAttendance) dto.AttendanceResponse {
	resp := dto.AttendanceResponse{
		ID:        a.ID,
		EventID:   a.EventID,
		StudentID: a.StudentID,
		Attended:  a.Attended,
	}
	if a.SignedAt != nil {
		v := a.SignedAt.Format(dto.TimeLayout)
		resp.SignedAt = &v
	}
	return resp
}
