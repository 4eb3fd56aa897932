package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"wil-portal/internal/dto"
	"wil-portal/internal/metrics"
	"wil-portal/internal/model"
	"wil-portal/internal/repository"
	pkgerrors "wil-portal/pkg/errors"
)

// SignupService 注册码校验与兑换接口
type SignupService interface {
	ValidateSignupCode(ctx context.Context, code string) (*dto.ValidateCodeResponse, error)
	// StudentSignup 兑换学生注册码：student_users 与 users 同时写入，注册码同事务删除
	StudentSignup(ctx context.Context, req *dto.StudentSignupRequest) (*dto.SignupResponse, error)
	// StaffSignup 兑换教职工 / 导师注册码
	StaffSignup(ctx context.Context, req *dto.StaffSignupRequest) (*dto.SignupResponse, error)
	BlockSignupEmail(ctx context.Context, email string) error
}

type signupService struct {
	repo   *repository.Repository
	hasher PasswordHasher
	logger *zap.Logger
}

// NewSignupService 创建 SignupService 实例
func NewSignupService(repo *repository.Repository, hasher PasswordHasher, logger *zap.Logger) SignupService {
	return &signupService{repo: repo, hasher: hasher, logger: logger}
}

// ────────────────────── Validate ──────────────────────

// ValidateSignupCode 封禁检查针对注册码绑定的邮箱，而非请求方邮箱
func (s *signupService) ValidateSignupCode(ctx context.Context, code string) (*dto.ValidateCodeResponse, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	sc, err := s.repo.SignupCode.GetByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCode
		}
		s.logger.Error("查询注册码失败", zap.Error(err))
		return nil, err
	}

	blocked, err := s.repo.BlockedSignup.IsBlocked(ctx, sc.Email)
	if err != nil {
		s.logger.Error("查询封禁邮箱失败", zap.Error(err))
		return nil, err
	}
	if blocked {
		return nil, ErrEmailBlocked
	}

	return &dto.ValidateCodeResponse{Success: true, Message: "Code is valid"}, nil
}

// ────────────────────── StudentSignup ──────────────────────

func (s *signupService) StudentSignup(ctx context.Context, req *dto.StudentSignupRequest) (*dto.SignupResponse, error) {
	code := normalizeCode(req.Code)
	if code == "" {
		return nil, ErrInvalidCode
	}
	email := normalizeEmail(req.Email)

	var student *model.StudentUser
	var user *model.User

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 1. 锁定注册码行，并发兑换同一码时后到者等待
		sc, err := tx.SignupCode.GetByCodeForUpdate(ctx, code)
		if err != nil {
			if isNotFound(err) {
				return ErrInvalidCode
			}
			return err
		}

		// 2. 封禁检查
		blocked, err := tx.BlockedSignup.IsBlocked(ctx, sc.Email)
		if err != nil {
			return err
		}
		if blocked {
			return ErrEmailBlocked
		}

		// 3. 哈希密码
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return err
		}

		// 4. 写入 student_users + users
		student = &model.StudentUser{
			Title:         strings.TrimSpace(req.Title),
			FirstNames:    sc.FirstNames,
			Surname:       sc.Surname,
			StudentNumber: sc.StudentNumber,
			LevelOfStudy:  sc.LevelOfStudy,
			Email:         email,
			PasswordHash:  hash,
			Status:        model.StudentActive,
		}
		if err := tx.Student.Create(ctx, student); err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicateAccount
			}
			return err
		}

		user = &model.User{
			Name:         strings.TrimSpace(sc.FirstNames + " " + sc.Surname),
			Email:        email,
			PasswordHash: hash,
			Role:         model.RoleStudent,
		}
		if err := tx.User.Create(ctx, user); err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicateAccount
			}
			return err
		}

		// 5. 消费注册码
		n, err := tx.SignupCode.DeleteByCode(ctx, code)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrInvalidCode
		}
		return nil
	})
	if err != nil {
		return nil, s.redemptionError("signup", err)
	}

	metrics.CodeRedemptionsTotal.WithLabelValues("signup", "ok").Inc()
	s.logger.Info("学生注册成功",
		zap.Uint("student_id", student.ID),
		zap.String("student_number", student.StudentNumber),
	)

	return &dto.SignupResponse{
		UserID:        user.ID,
		StudentID:     student.ID,
		StudentNumber: student.StudentNumber,
		Name:          user.Name,
		Email:         student.Email,
		Role:          user.Role,
		Status:        student.Status,
	}, nil
}

// ────────────────────── StaffSignup ──────────────────────

func (s *signupService) StaffSignup(ctx context.Context, req *dto.StaffSignupRequest) (*dto.SignupResponse, error) {
	code := normalizeCode(req.Code)
	if code == "" {
		return nil, ErrInvalidCode
	}
	email := normalizeEmail(req.Email)

	var user *model.User
	var kind string

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		sc, err := tx.StaffCode.GetByCodeForUpdate(ctx, code)
		if err != nil {
			if isNotFound(err) {
				return ErrInvalidCode
			}
			return err
		}
		kind = sc.Role

		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return err
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = sc.OwnerName
		}
		user = &model.User{Name: name, Email: email, PasswordHash: hash, Role: sc.Role}
		if err := tx.User.Create(ctx, user); err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicateAccount
			}
			return err
		}

		n, err := tx.StaffCode.DeleteByCode(ctx, code)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrInvalidCode
		}
		return nil
	})
	if err != nil {
		if kind == "" {
			kind = "staff"
		}
		return nil, s.redemptionError(kind, err)
	}

	metrics.CodeRedemptionsTotal.WithLabelValues(kind, "ok").Inc()
	s.logger.Info("教职工注册成功", zap.Uint("user_id", user.ID), zap.String("role", user.Role))

	return &dto.SignupResponse{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

// ────────────────────── Block ──────────────────────

func (s *signupService) BlockSignupEmail(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrInvalidInput
	}
	if err := s.repo.BlockedSignup.Block(ctx, email); err != nil {
		s.logger.Error("封禁注册邮箱失败", zap.Error(err))
		return err
	}
	s.logger.Info("注册邮箱已封禁", zap.String("email", email))
	return nil
}

// redemptionError 记录指标；业务错误原样返回，其余包装为事务失败
func (s *signupService) redemptionError(kind string, err error) error {
	switch {
	case errors.Is(err, ErrInvalidCode):
		metrics.CodeRedemptionsTotal.WithLabelValues(kind, "invalid_code").Inc()
		return err
	case errors.Is(err, ErrEmailBlocked):
		metrics.CodeRedemptionsTotal.WithLabelValues(kind, "email_blocked").Inc()
		return err
	case errors.Is(err, ErrDuplicateAccount):
		metrics.CodeRedemptionsTotal.WithLabelValues(kind, "duplicate").Inc()
		return err
	default:
		metrics.CodeRedemptionsTotal.WithLabelValues(kind, "error").Inc()
		s.logger.Error("注册码兑换事务失败", zap.String("kind", kind), zap.Error(err))
		return pkgerrors.WrapTx(err)
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
