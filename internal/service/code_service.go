package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"wil-portal/config"
	"wil-portal/internal/dto"
	"wil-portal/internal/metrics"
	"wil-portal/internal/model"
	"wil-portal/internal/notify"
	"wil-portal/internal/repository"
	"wil-portal/pkg/codegen"
	pkgerrors "wil-portal/pkg/errors"
)

// CodeService 一次性码签发接口（教职工 / 导师）
// 学生注册码在申请通过时由 ApplicationService 签发，活动码由 EventService 签发
type CodeService interface {
	IssueStaffCode(ctx context.Context, req *dto.IssueStaffCodeRequest) (*dto.IssueCodeResponse, error)
}

// codeIssuer 各类一次性码的生成与落库，只在事务内调用
type codeIssuer struct {
	signupGen *codegen.Generator // 8 位十六进制
	shortGen  *codegen.Generator // 6 位 base36
}

func newCodeIssuer(maxAttempts int) *codeIssuer {
	return &codeIssuer{
		signupGen: codegen.NewSignup(maxAttempts),
		shortGen:  codegen.NewShort(maxAttempts),
	}
}

// unique 生成码并把重试耗尽映射为业务错误
func unique(ctx context.Context, gen *codegen.Generator, exists codegen.ExistsFunc) (string, error) {
	code, err := gen.GenerateUnique(ctx, exists)
	if err != nil {
		if errors.Is(err, codegen.ErrExhausted) {
			return "", ErrCodeGenerationExhausted
		}
		return "", err
	}
	return code, nil
}

// signupCode 为通过的申请签发学生注册码，身份字段从申请复制
func (ci *codeIssuer) signupCode(ctx context.Context, tx *repository.Repository, app *model.Application) (*model.SignupCode, error) {
	code, err := unique(ctx, ci.signupGen, tx.SignupCode.ExistsByCode)
	if err != nil {
		return nil, err
	}
	sc := &model.SignupCode{
		Code:          code,
		ApplicationID: app.ID,
		FirstNames:    app.FirstNames,
		Surname:       app.Surname,
		StudentNumber: app.StudentNumber,
		LevelOfStudy:  app.LevelOfStudy,
		Email:         app.Email,
	}
	if err := tx.SignupCode.Create(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (ci *codeIssuer) staffCode(ctx context.Context, tx *repository.Repository, name, email, role string) (*model.StaffCode, error) {
	code, err := unique(ctx, ci.shortGen, tx.StaffCode.ExistsByCode)
	if err != nil {
		return nil, err
	}
	sc := &model.StaffCode{Code: code, OwnerName: name, OwnerEmail: email, Role: role}
	if err := tx.StaffCode.Create(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (ci *codeIssuer) eventCode(ctx context.Context, tx *repository.Repository) (string, error) {
	return unique(ctx, ci.shortGen, tx.Event.ExistsByCode)
}

// ────────────────────── IssueStaffCode ──────────────────────

type codeService struct {
	repo       *repository.Repository
	codes      *codeIssuer
	dispatcher notify.Dispatcher
	logger     *zap.Logger
}

// NewCodeService 创建 CodeService 实例
func NewCodeService(cfg *config.Config, repo *repository.Repository, dispatcher notify.Dispatcher, logger *zap.Logger) CodeService {
	return &codeService{
		repo:       repo,
		codes:      newCodeIssuer(cfg.Codes.MaxAttempts),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *codeService) IssueStaffCode(ctx context.Context, req *dto.IssueStaffCodeRequest) (*dto.IssueCodeResponse, error) {
	email := normalizeEmail(req.OwnerEmail)
	name := strings.TrimSpace(req.OwnerName)

	var sc *model.StaffCode
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		sc, err = s.codes.staffCode(ctx, tx, name, email, req.Role)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrCodeGenerationExhausted) {
			return nil, err
		}
		s.logger.Error("签发教职工注册码失败", zap.String("role", req.Role), zap.Error(err))
		return nil, pkgerrors.WrapTx(err)
	}

	metrics.CodesIssuedTotal.WithLabelValues(sc.Role).Inc()
	s.logger.Info("教职工注册码已签发", zap.String("role", sc.Role), zap.String("owner_email", email))

	warning := dispatchAfterCommit(ctx, s.dispatcher, s.logger, notify.Notification{
		Template:  notify.TemplateStaffCode,
		Recipient: email,
		Fields:    map[string]string{"name": name, "code": sc.Code, "role": sc.Role},
	})

	return &dto.IssueCodeResponse{Code: sc.Code, Warning: warning}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
