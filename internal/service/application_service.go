package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"wil-portal/config"
	"wil-portal/internal/dto"
	"wil-portal/internal/metrics"
	"wil-portal/internal/model"
	"wil-portal/internal/notify"
	"wil-portal/internal/repository"
	pkgerrors "wil-portal/pkg/errors"
)

// ApplicationService 实习申请与状态流转接口
type ApplicationService interface {
	Submit(ctx context.Context, req *dto.SubmitApplicationRequest) (*dto.ApplicationResponse, error)
	GetByID(ctx context.Context, id uint) (*dto.ApplicationResponse, error)
	List(ctx context.Context, req *dto.ApplicationListRequest) ([]dto.ApplicationResponse, int64, error)
	// SetStatus Pending / Accepted / Rejected 流转
	// Accepted 在同一事务内签发注册码，邮件在提交后发送
	SetStatus(ctx context.Context, id uint, status string) (*dto.SetApplicationStatusResponse, error)
}

type applicationService struct {
	repo       *repository.Repository
	codes      *codeIssuer
	dispatcher notify.Dispatcher
	logger     *zap.Logger
}

// NewApplicationService 创建 ApplicationService 实例
func NewApplicationService(cfg *config.Config, repo *repository.Repository, dispatcher notify.Dispatcher, logger *zap.Logger) ApplicationService {
	return &applicationService{
		repo:       repo,
		codes:      newCodeIssuer(cfg.Codes.MaxAttempts),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ────────────────────── Submit ──────────────────────

func (s *applicationService) Submit(ctx context.Context, req *dto.SubmitApplicationRequest) (*dto.ApplicationResponse, error) {
	sn := strings.TrimSpace(req.StudentNumber)

	exists, err := s.repo.Application.ExistsPending(ctx, sn)
	if err != nil {
		s.logger.Error("查询待审申请失败", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateApplication
	}

	app := &model.Application{
		FirstNames:    strings.TrimSpace(req.FirstNames),
		Surname:       strings.TrimSpace(req.Surname),
		StudentNumber: sn,
		LevelOfStudy:  strings.TrimSpace(req.LevelOfStudy),
		Email:         normalizeEmail(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		Status:        model.ApplicationPending,
	}
	if err := s.repo.Application.Create(ctx, app); err != nil {
		s.logger.Error("创建申请失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("申请已提交", zap.Uint("application_id", app.ID), zap.String("student_number", sn))
	resp := toApplicationResponse(app)
	return &resp, nil
}

// ────────────────────── Query ──────────────────────

func (s *applicationService) GetByID(ctx context.Context, id uint) (*dto.ApplicationResponse, error) {
	app, err := s.repo.Application.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	resp := toApplicationResponse(app)
	return &resp, nil
}

func (s *applicationService) List(ctx context.Context, req *dto.ApplicationListRequest) ([]dto.ApplicationResponse, int64, error) {
	apps, total, err := s.repo.Application.List(ctx, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	list := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		list = append(list, toApplicationResponse(&apps[i]))
	}
	return list, total, nil
}

// ────────────────────── SetStatus ──────────────────────

// SetStatus 状态流转规则：
//   - Accepted → Accepted 不重复签发，返回尚未兑换的原注册码，不重发邮件
//   - Rejected → Rejected 不重发拒信
//   - Accepted → 其他状态时删除尚未兑换的注册码
func (s *applicationService) SetStatus(ctx context.Context, id uint, status string) (*dto.SetApplicationStatusResponse, error) {
	if !model.IsValidApplicationStatus(status) {
		return nil, ErrInvalidStatus
	}

	var (
		app    *model.Application
		code   *model.SignupCode
		prev   string
		issued bool
	)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		a, err := tx.Application.GetByIDForUpdate(ctx, id)
		if err != nil {
			if isNotFound(err) {
				return ErrApplicationNotFound
			}
			return err
		}
		app = a
		prev = a.Status

		if prev == status {
			if status == model.ApplicationAccepted {
				existing, err := tx.SignupCode.GetByApplicationID(ctx, id)
				if err != nil && !isNotFound(err) {
					return err
				}
				code = existing
			}
			return nil
		}

		if err := tx.Application.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		a.Status = status
		a.UpdatedAt = time.Now()

		if prev == model.ApplicationAccepted {
			if _, err := tx.SignupCode.DeleteByApplicationID(ctx, id); err != nil {
				return err
			}
		}

		if status == model.ApplicationAccepted {
			sc, err := s.codes.signupCode(ctx, tx, a)
			if err != nil {
				return err
			}
			code = sc
			issued = true
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrApplicationNotFound) || errors.Is(err, ErrCodeGenerationExhausted) {
			return nil, err
		}
		s.logger.Error("申请状态变更事务失败",
			zap.Uint("application_id", id),
			zap.String("status", status),
			zap.Error(err),
		)
		return nil, pkgerrors.WrapTx(err)
	}

	resp := &dto.SetApplicationStatusResponse{Application: toApplicationResponse(app)}
	if code != nil {
		resp.Code = code.Code
	}
	if prev == status {
		return resp, nil
	}

	metrics.StatusTransitionsTotal.WithLabelValues("application", prev, status).Inc()
	s.logger.Info("申请状态已变更",
		zap.Uint("application_id", id),
		zap.String("from", prev),
		zap.String("to", status),
	)

	// 提交后通知
	fields := map[string]string{
		"first_names":    app.FirstNames,
		"surname":        app.Surname,
		"student_number": app.StudentNumber,
	}
	switch {
	case issued:
		metrics.CodesIssuedTotal.WithLabelValues("signup").Inc()
		fields["code"] = code.Code
		resp.Warning = dispatchAfterCommit(ctx, s.dispatcher, s.logger, notify.Notification{
			Template: notify.TemplateSignupCode, Recipient: app.Email, Fields: fields,
		})
	case status == model.ApplicationRejected:
		resp.Warning = dispatchAfterCommit(ctx, s.dispatcher, s.logger, notify.Notification{
			Template: notify.TemplateApplicationRejected, Recipient: app.Email, Fields: fields,
		})
	}

	return resp, nil
}

func toApplicationResponse(a *model.Application) dto.ApplicationResponse {
	return dto.ApplicationResponse{
		ID:            a.ID,
		FirstNames:    a.FirstNames,
		Surname:       a.Surname,
		StudentNumber: a.StudentNumber,
		LevelOfStudy:  a.LevelOfStudy,
		Email:         a.Email,
		Phone:         a.Phone,
		Status:        a.Status,
		CreatedAt:     a.CreatedAt.Format(dto.TimeLayout),
		UpdatedAt:     a.UpdatedAt.Format(dto.TimeLayout),
	}
}
