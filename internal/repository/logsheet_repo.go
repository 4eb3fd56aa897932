package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"wil-portal/internal/model"
)

// LogsheetRepository 每日日志数据访问接口
type LogsheetRepository interface {
	Create(ctx context.Context, sheet *model.DailyLogsheet) error
	// LatestLogDate 最近一次日志日期，无日志时返回 nil
	LatestLogDate(ctx context.Context, studentNumber string) (*time.Time, error)
	ListByStudentNumber(ctx context.Context, studentNumber string, offset, limit int) ([]model.DailyLogsheet, int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type logsheetRepo struct {
	db *gorm.DB
}

// NewLogsheetRepo 创建 LogsheetRepository 实例
func NewLogsheetRepo(db *gorm.DB) LogsheetRepository {
	return &logsheetRepo{db: db}
}

func (r *logsheetRepo) Create(ctx context.Context, sheet *model.DailyLogsheet) error {
	return r.db.WithContext(ctx).Create(sheet).Error
}

// LatestLogDate 走 (student_number, log_date) 唯一索引倒序取第一条
func (r *logsheetRepo) LatestLogDate(ctx context.Context, studentNumber string) (*time.Time, error) {
	var sheet model.DailyLogsheet
	err := r.db.WithContext(ctx).
		Select("log_date").
		Where("student_number = ?", studentNumber).
		Order("log_date DESC").
		First(&sheet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	d := sheet.LogDate
	return &d, nil
}

func (r *logsheetRepo) ListByStudentNumber(ctx context.Context, studentNumber string, offset, limit int) ([]model.DailyLogsheet, int64, error) {
	var sheets []model.DailyLogsheet
	var total int64

	db := r.db.WithContext(ctx).Model(&model.DailyLogsheet{}).Where("student_number = ?", studentNumber)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("log_date DESC").
		Find(&sheets).Error; err != nil {
		return nil, 0, err
	}

	return sheets, total, nil
}

func (r *logsheetRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.DailyLogsheet{}).
		Where("log_date >= ?", since).
		Count(&n).Error
	return n, err
}
