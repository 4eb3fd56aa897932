package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wil-portal/internal/model"
)

// ────── 学生注册码 ──────

// SignupCodeRepository 学生注册码数据访问接口
type SignupCodeRepository interface {
	Create(ctx context.Context, code *model.SignupCode) error
	GetByCode(ctx context.Context, code string) (*model.SignupCode, error)
	// GetByCodeForUpdate 使用 SELECT ... FOR UPDATE 行级锁查询，防止并发兑换
	GetByCodeForUpdate(ctx context.Context, code string) (*model.SignupCode, error)
	GetByApplicationID(ctx context.Context, applicationID uint) (*model.SignupCode, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// DeleteByCode 物理删除，返回受影响行数（0 表示已被其他事务兑换）
	DeleteByCode(ctx context.Context, code string) (int64, error)
	DeleteByApplicationID(ctx context.Context, applicationID uint) (int64, error)
}

type signupCodeRepo struct {
	db *gorm.DB
}

// NewSignupCodeRepo 创建 SignupCodeRepository 实例
func NewSignupCodeRepo(db *gorm.DB) SignupCodeRepository {
	return &signupCodeRepo{db: db}
}

func (r *signupCodeRepo) Create(ctx context.Context, code *model.SignupCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *signupCodeRepo) GetByCode(ctx context.Context, code string) (*model.SignupCode, error) {
	var sc model.SignupCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&sc).Error; err != nil {
		return nil, err
	}
	return &sc, nil
}

// GetByCodeForUpdate 必须在事务连接上调用
func (r *signupCodeRepo) GetByCodeForUpdate(ctx context.Context, code string) (*model.SignupCode, error) {
	var sc model.SignupCode
	if err := forUpdate(r.db.WithContext(ctx)).Where("code = ?", code).First(&sc).Error; err != nil {
		return nil, err
	}
	return &sc, nil
}

func (r *signupCodeRepo) GetByApplicationID(ctx context.Context, applicationID uint) (*model.SignupCode, error) {
	var sc model.SignupCode
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("id DESC").
		First(&sc).Error
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func (r *signupCodeRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.SignupCode{}).Where("code = ?", code).Count(&n).Error
	return n > 0, err
}

func (r *signupCodeRepo) DeleteByCode(ctx context.Context, code string) (int64, error) {
	result := r.db.WithContext(ctx).Where("code = ?", code).Delete(&model.SignupCode{})
	return result.RowsAffected, result.Error
}

func (r *signupCodeRepo) DeleteByApplicationID(ctx context.Context, applicationID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("application_id = ?", applicationID).Delete(&model.SignupCode{})
	return result.RowsAffected, result.Error
}

// ────── 教职工 / 导师注册码 ──────

// StaffCodeRepository 教职工 / 导师注册码数据访问接口
type StaffCodeRepository interface {
	Create(ctx context.Context, code *model.StaffCode) error
	GetByCodeForUpdate(ctx context.Context, code string) (*model.StaffCode, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	DeleteByCode(ctx context.Context, code string) (int64, error)
}

type staffCodeRepo struct {
	db *gorm.DB
}

// NewStaffCodeRepo 创建 StaffCodeRepository 实例
func NewStaffCodeRepo(db *gorm.DB) StaffCodeRepository {
	return &staffCodeRepo{db: db}
}

func (r *staffCodeRepo) Create(ctx context.Context, code *model.StaffCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *staffCodeRepo) GetByCodeForUpdate(ctx context.Context, code string) (*model.StaffCode, error) {
	var sc model.StaffCode
	if err := forUpdate(r.db.WithContext(ctx)).Where("code = ?", code).First(&sc).Error; err != nil {
		return nil, err
	}
	return &sc, nil
}

func (r *staffCodeRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.StaffCode{}).Where("code = ?", code).Count(&n).Error
	return n > 0, err
}

func (r *staffCodeRepo) DeleteByCode(ctx context.Context, code string) (int64, error) {
	result := r.db.WithContext(ctx).Where("code = ?", code).Delete(&model.StaffCode{})
	return result.RowsAffected, result.Error
}

// ────── 注册封禁邮箱 ──────

// BlockedSignupRepository 注册封禁邮箱数据访问接口（只增不删）
type BlockedSignupRepository interface {
	// Block 幂等写入，邮箱已存在时不报错
	Block(ctx context.Context, email string) error
	IsBlocked(ctx context.Context, email string) (bool, error)
}

type blockedSignupRepo struct {
	db *gorm.DB
}

// NewBlockedSignupRepo 创建 BlockedSignupRepository 实例
func NewBlockedSignupRepo(db *gorm.DB) BlockedSignupRepository {
	return &blockedSignupRepo{db: db}
}

func (r *blockedSignupRepo) Block(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&model.BlockedSignup{Email: email}).Error
}

func (r *blockedSignupRepo) IsBlocked(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.BlockedSignup{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}
