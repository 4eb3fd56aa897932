package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wil-portal/config"
	"wil-portal/internal/dto"
	"wil-portal/internal/metrics"
	"wil-portal/internal/model"
	"wil-portal/internal/notify"
	"wil-portal/internal/repository"
	pkgerrors "wil-portal/pkg/errors"
)

// StudentService 学生状态引擎
type StudentService interface {
	List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error)
	// GetByEmail 按登录邮箱查找学生账号，用于 student 角色的归属校验
	GetByEmail(ctx context.Context, email string) (*dto.StudentResponse, error)
	// RecomputeStatus 按最近一次日志日期重算 active / inactive，不发送通知
	// suspended / unenrolled 由管理员设置，重算不覆盖
	RecomputeStatus(ctx context.Context, studentNumber string) (*dto.StudentStatusResponse, error)
	Suspend(ctx context.Context, studentNumber string) (*dto.StudentStatusResponse, error)
	Unenroll(ctx context.Context, studentNumber string) (*dto.StudentStatusResponse, error)
	Enroll(ctx context.Context, studentNumber string) (*dto.StudentStatusResponse, error)
	// Reactivate 恢复为 active，要求最近活动不超过 inactivity_days
	Reactivate(ctx context.Context, studentNumber string) (*dto.StudentStatusResponse, error)
	// SweepInactive 批量扫描所有 active 学生，单个学生失败不影响其他学生
	SweepInactive(ctx context.Context) (*dto.SweepResponse, error)
}

type studentService struct {
	repo             *repository.Repository
	dispatcher       notify.Dispatcher
	logger           *zap.Logger
	inactivityDays   int
	sweepConcurrency int
	now              func() time.Time
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(cfg *config.Config, repo *repository.Repository, dispatcher notify.Dispatcher, logger *zap.Logger) StudentService {
	concurrency := cfg.Student.SweepConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &studentService{
		repo:             repo,
		dispatcher:       dispatcher,
		logger:           logger,
		inactivityDays:   cfg.Student.InactivityDays,
		sweepConcurrency: concurrency,
		now:              time.Now,
	}
}

// ────────────────────── List ──────────────────────

func (s *studentService) List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	students, total, err := s.repo.Student.List(ctx, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	list := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		list = append(list, toStudentResponse(&students[i]))
	}
	return list, total, nil
}

func (s *studentService) GetByEmail(ctx context.Context, email string) (*dto.StudentResponse, error) {
	st, err := s.repo.Student.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	resp := toStudentResponse(st)
	return &resp, nil
}

// ────────────────────── Recompute ──────────────────────

func (s *studentService) RecomputeStatus(ctx context.Context, studentNumber string) (*dto.StudentStatusResponse, error) {
	var (
		student *model.StudentUser
		days    *int
		prev    string
	)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		st, err := s.lockStudent(ctx, tx, studentNumber)
		if err != nil {
			return err
		}
		student = st
		prev = st.Status

		days, err = s.daysSinceLastActivity(ctx, tx, studentNumber)
		if err != nil {
			return err
		}
		if isAdminHeld(prev) {
			return nil
		}

		target := model.StudentInactive
		if days != nil && *days <= s.inactivityDays {
			target = model.StudentActive
		}
		if target == prev {
			return nil
		}
		if err := tx.Student.UpdateStatus(ctx, st.ID, prev, target); err != nil {
			return err
		}
		st.Status = target
		return nil
	})
	if err != nil {
		return nil, s.transitionError(studentNumber, err)
	}

	changed := student.Status != prev
	if changed {
		s.recordTransition(student, prev)
	}
	return &dto.StudentStatusResponse{
		Student:               toStudentResponse(student),
		StatusChanged:         changed,
		DaysSinceLastActivity: days,
	}, nil
}

// ────────────────────── 管理员操作 ──────────────────────

func (s *studentService) Suspend(ctx context.Context, studentNumber string) (*dto.StudentStatusResponse, error) {
	return s.setStatus(ctx, studentNumber, model.StudentSuspended, notify.TemplateStudentSuspended, false)
}

func (s *studentService) Unenroll(ctx context.Context, studentNumber string) (*dto.StudentStatusResponse, error) {
	return s.setStatus(ctx, studentNumber, model.StudentUnenrolled, notify.TemplateStudentUnenrolled, false)
}

func (s *studentService) Enroll(ctx context.Context, studentNumber string) (*dto.StudentStatusResponse, error) {
	return s.setStatus(ctx, studentNumber, model.StudentActive, notify.TemplateStudentEnrolled, false)
}

func (s *studentService) Reactivate(ctx context.Context, studentNumber string) (*dto.StudentStatusResponse, error) {
	return s.setStatus(ctx, studentNumber, model.StudentActive, notify.TemplateStudentReactivated, true)
}

// setStatus 直接设置目标状态；gate 为 true 时先校验活动窗口
// 状态未变化时不发送通知
func (s *studentService) setStatus(ctx context.Context, studentNumber, target, template string, gate bool) (*dto.StudentStatusResponse, error) {
	var (
		student *model.StudentUser
		days    *int
		prev    string
	)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		st, err := s.lockStudent(ctx, tx, studentNumber)
		if err != nil {
			return err
		}
		student = st
		prev = st.Status

		if gate {
			days, err = s.daysSinceLastActivity(ctx, tx, studentNumber)
			if err != nil {
				return err
			}
			if days == nil || *days > s.inactivityDays {
				return ErrStaleActivity
			}
		}

		if prev == target {
			return nil
		}
		if err := tx.Student.UpdateStatus(ctx, st.ID, prev, target); err != nil {
			return err
		}
		st.Status = target
		return nil
	})
	if err != nil {
		return nil, s.transitionError(studentNumber, err)
	}

	resp := &dto.StudentStatusResponse{
		Student:               toStudentResponse(student),
		StatusChanged:         prev != target,
		DaysSinceLastActivity: days,
	}
	if !resp.StatusChanged {
		return resp, nil
	}

	s.recordTransition(student, prev)
	resp.Warning = dispatchAfterCommit(ctx, s.dispatcher, s.logger, notify.Notification{
		Template:  template,
		Recipient: student.Email,
		Fields: map[string]string{
			"first_names":    student.FirstNames,
			"surname":        student.Surname,
			"student_number": student.StudentNumber,
		},
	})
	return resp, nil
}

// ────────────────────── Sweep ──────────────────────

func (s *studentService) SweepInactive(ctx context.Context) (*dto.SweepResponse, error) {
	start := time.Now()
	defer func() {
		metrics.SweepDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	numbers, err := s.repo.Student.ListStudentNumbersByStatus(ctx, model.StudentActive)
	if err != nil {
		s.logger.Error("查询 active 学生失败", zap.Error(err))
		return nil, err
	}

	var mu sync.Mutex
	resp := &dto.SweepResponse{Failed: []dto.SweepFailure{}}

	var g errgroup.Group
	g.SetLimit(s.sweepConcurrency)

	for _, sn := range numbers {
		if ctx.Err() != nil {
			mu.Lock()
			resp.Interrupted = true
			mu.Unlock()
			break
		}
		sn := sn
		g.Go(func() error {
			changed, err := s.sweepOne(ctx, sn)

			mu.Lock()
			defer mu.Unlock()
			resp.Checked++
			if err != nil {
				s.logger.Warn("学生不活跃扫描失败", zap.String("student_number", sn), zap.Error(err))
				resp.Failed = append(resp.Failed, dto.SweepFailure{StudentNumber: sn, Error: err.Error()})
				return nil
			}
			if changed {
				resp.Deactivated++
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("不活跃扫描完成",
		zap.Int("total", len(numbers)),
		zap.Int("checked", resp.Checked),
		zap.Int("deactivated", resp.Deactivated),
		zap.Int("failed", len(resp.Failed)),
		zap.Bool("interrupted", resp.Interrupted),
	)
	return resp, nil
}

// sweepOne 单个学生独立事务；加锁后状态已不是 active 则跳过
func (s *studentService) sweepOne(ctx context.Context, studentNumber string) (bool, error) {
	var student *model.StudentUser
	changed := false

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		st, err := s.lockStudent(ctx, tx, studentNumber)
		if err != nil {
			return err
		}
		if st.Status != model.StudentActive {
			return nil
		}
		days, err := s.daysSinceLastActivity(ctx, tx, studentNumber)
		if err != nil {
			return err
		}
		if days != nil && *days <= s.inactivityDays {
			return nil
		}
		if err := tx.Student.UpdateStatus(ctx, st.ID, model.StudentActive, model.StudentInactive); err != nil {
			return err
		}
		st.Status = model.StudentInactive
		student = st
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if changed {
		s.recordTransition(student, model.StudentActive)
	}
	return changed, nil
}

// ────────────────────── helpers ──────────────────────

func (s *studentService) lockStudent(ctx context.Context, tx *repository.Repository, studentNumber string) (*model.StudentUser, error) {
	st, err := tx.Student.GetByStudentNumberForUpdate(ctx, studentNumber)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return st, nil
}

// daysSinceLastActivity 无日志时返回 nil
func (s *studentService) daysSinceLastActivity(ctx context.Context, tx *repository.Repository, studentNumber string) (*int, error) {
	last, err := tx.Logsheet.LatestLogDate(ctx, studentNumber)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, nil
	}
	d := calendarDaysBetween(*last, s.now())
	return &d, nil
}

// calendarDaysBetween 只比较日期部分；log_date 按 UTC 存储，today 取本地日期
func calendarDaysBetween(last, now time.Time) int {
	return int(dateOf(now).Sub(dateOf(last.UTC())) / (24 * time.Hour))
}

// dateOf 取 t 的日期部分，表示为 UTC 零点，与 log_date 的存储方式一致
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// isAdminHeld 管理员设置的状态只能由管理员操作解除
func isAdminHeld(status string) bool {
	return status == model.StudentSuspended || status == model.StudentUnenrolled
}

func (s *studentService) recordTransition(st *model.StudentUser, prev string) {
	metrics.StatusTransitionsTotal.WithLabelValues("student", prev, st.Status).Inc()
	s.logger.Info("学生状态已变更",
		zap.String("student_number", st.StudentNumber),
		zap.String("from", prev),
		zap.String("to", st.Status),
	)
}

func (s *studentService) transitionError(studentNumber string, err error) error {
	switch {
	case errors.Is(err, ErrStudentNotFound), errors.Is(err, ErrStaleActivity):
		return err
	default:
		s.logger.Error("学生状态事务失败", zap.String("student_number", studentNumber), zap.Error(err))
		return pkgerrors.WrapTx(err)
	}
}

func toStudentResponse(st *model.StudentUser) dto.StudentResponse {
	return dto.StudentResponse{
		ID:            st.ID,
		Title:         st.Title,
		FirstNames:    st.FirstNames,
		Surname:       st.Surname,
		StudentNumber: st.StudentNumber,
		LevelOfStudy:  st.LevelOfStudy,
		Email:         st.Email,
		Status:        st.Status,
		CreatedAt:     st.CreatedAt.Format(dto.TimeLayout),
	}
}
