package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"wil-portal/internal/model"
	pkgerrors "wil-portal/pkg/errors"
)

// StudentRepository 学生账号数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.StudentUser) error
	GetByID(ctx context.Context, id uint) (*model.StudentUser, error)
	GetByStudentNumber(ctx context.Context, studentNumber string) (*model.StudentUser, error)
	GetByEmail(ctx context.Context, email string) (*model.StudentUser, error)
	GetByStudentNumberForUpdate(ctx context.Context, studentNumber string) (*model.StudentUser, error)
	// UpdateStatus 条件更新：仅当当前状态仍为 from 时写入 to，否则返回 ErrOptimisticLock
	UpdateStatus(ctx context.Context, id uint, from, to string) error
	List(ctx context.Context, status string, offset, limit int) ([]model.StudentUser, int64, error)
	ListStudentNumbersByStatus(ctx context.Context, status string) ([]string, error)
	ListAll(ctx context.Context) ([]model.StudentUser, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.StudentUser) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id uint) (*model.StudentUser, error) {
	var s model.StudentUser
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) GetByStudentNumber(ctx context.Context, studentNumber string) (*model.StudentUser, error) {
	var s model.StudentUser
	if err := r.db.WithContext(ctx).Where("student_number = ?", studentNumber).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) GetByEmail(ctx context.Context, email string) (*model.StudentUser, error) {
	var s model.StudentUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) GetByStudentNumberForUpdate(ctx context.Context, studentNumber string) (*model.StudentUser, error) {
	var s model.StudentUser
	err := forUpdate(r.db.WithContext(ctx)).
		Where("student_number = ?", studentNumber).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) UpdateStatus(ctx context.Context, id uint, from, to string) error {
	result := r.db.WithContext(ctx).
		Model(&model.StudentUser{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *studentRepo) List(ctx context.Context, status string, offset, limit int) ([]model.StudentUser, int64, error) {
	var students []model.StudentUser
	var total int64

	db := r.db.WithContext(ctx).Model(&model.StudentUser{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("surname ASC, id ASC").
		Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepo) ListStudentNumbersByStatus(ctx context.Context, status string) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&model.StudentUser{}).
		Where("status = ?", status).
		Order("id ASC").
		Pluck("student_number", &numbers).Error
	return numbers, err
}

func (r *studentRepo) ListAll(ctx context.Context) ([]model.StudentUser, error) {
	var students []model.StudentUser
	err := r.db.WithContext(ctx).Order("surname ASC, id ASC").Find(&students).Error
	return students, err
}

func (r *studentRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countGrouped(ctx, r.db, &model.StudentUser{}, "status")
}
