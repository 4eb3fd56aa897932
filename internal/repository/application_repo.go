package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"wil-portal/internal/model"
)

// ApplicationRepository 实习申请数据访问接口
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	GetByID(ctx context.Context, id uint) (*model.Application, error)
	// GetByIDForUpdate 使用 SELECT ... FOR UPDATE 行级锁，防止并发状态变更
	GetByIDForUpdate(ctx context.Context, id uint) (*model.Application, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	ExistsPending(ctx context.Context, studentNumber string) (bool, error)
	List(ctx context.Context, status string, offset, limit int) ([]model.Application, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type applicationRepo struct {
	db *gorm.DB
}

// NewApplicationRepo 创建 ApplicationRepository 实例
func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepo) GetByID(ctx context.Context, id uint) (*model.Application, error) {
	var app model.Application
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// GetByIDForUpdate 必须在事务连接上调用（通过 Repository.Transaction 注入）
func (r *applicationRepo) GetByIDForUpdate(ctx context.Context, id uint) (*model.Application, error) {
	var app model.Application
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *applicationRepo) ExistsPending(ctx context.Context, studentNumber string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("student_number = ? AND status = ?", studentNumber, model.ApplicationPending).
		Count(&n).Error
	return n > 0, err
}

func (r *applicationRepo) List(ctx context.Context, status string, offset, limit int) ([]model.Application, int64, error) {
	var apps []model.Application
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Application{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC, id DESC").
		Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

func (r *applicationRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countGrouped(ctx, r.db, &model.Application{}, "status")
}
