package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"wil-portal/internal/model"
)

// ────── 活动 ──────

// EventRepository 活动数据访问接口
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id uint) (*model.Event, error)
	// GetByIDForUpdate 锁定活动行，串行化同一活动的报名
	GetByIDForUpdate(ctx context.Context, id uint) (*model.Event, error)
	GetByCode(ctx context.Context, code string) (*model.Event, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	CountUpcoming(ctx context.Context, now time.Time) (int64, error)
}

type eventRepo struct {
	db *gorm.DB
}

// NewEventRepo 创建 EventRepository 实例
func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepo) GetByID(ctx context.Context, id uint) (*model.Event, error) {
	var e model.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepo) GetByIDForUpdate(ctx context.Context, id uint) (*model.Event, error) {
	var e model.Event
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepo) GetByCode(ctx context.Context, code string) (*model.Event, error) {
	var e model.Event
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Event{}).Where("code = ?", code).Count(&n).Error
	return n > 0, err
}

func (r *eventRepo) CountUpcoming(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Event{}).Where("starts_at > ?", now).Count(&n).Error
	return n, err
}

// ────── 报名 / 签到 ──────

// AttendanceRepository 活动报名与签到数据访问接口
type AttendanceRepository interface {
	Create(ctx context.Context, a *model.EventAttendance) error
	CountByEventAndStudent(ctx context.Context, eventID, studentID uint) (int64, error)
	GetByEventAndStudent(ctx context.Context, eventID, studentID uint) (*model.EventAttendance, error)
	MarkAttended(ctx context.Context, id uint, at time.Time) error
	ListByEvent(ctx context.Context, eventID uint) ([]model.EventAttendance, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, a *model.EventAttendance) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *attendanceRepo) CountByEventAndStudent(ctx context.Context, eventID, studentID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.EventAttendance{}).
		Where("event_id = ? AND student_id = ?", eventID, studentID).
		Count(&n).Error
	return n, err
}

func (r *attendanceRepo) GetByEventAndStudent(ctx context.Context, eventID, studentID uint) (*model.EventAttendance, error) {
	var a model.EventAttendance
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND student_id = ?", eventID, studentID).
		Order("id ASC").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attendanceRepo) MarkAttended(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.EventAttendance{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attended":   true,
			"signed_at":  at,
			"updated_at": time.Now(),
		}).Error
}

func (r *attendanceRepo) ListByEvent(ctx context.Context, eventID uint) ([]model.EventAttendance, error) {
	var list []model.EventAttendance
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("id ASC").Find(&list).Error
	return list, err
}
