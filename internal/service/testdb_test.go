package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"wil-portal/internal/model"
	"wil-portal/internal/repository"
)

var testDBSeq atomic.Int64

// newTestDB 每个测试独立的内存 SQLite；单连接保证事务串行
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:wiltest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("打开 sqlite 失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取 sql.DB 失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&model.User{},
		&model.Application{},
		&model.SignupCode{},
		&model.StaffCode{},
		&model.BlockedSignup{},
		&model.StudentUser{},
		&model.DailyLogsheet{},
		&model.Event{},
		&model.EventAttendance{},
	); err != nil {
		t.Fatalf("AutoMigrate 失败: %v", err)
	}
	return db
}

// testEnv 真实仓储 + 记录型通知
type testEnv struct {
	db         *gorm.DB
	repo       *repository.Repository
	dispatcher *recordDispatcher
	svc        *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	repo := repository.NewRepository(db)
	d := &recordDispatcher{}
	svc := NewService(testConfig(), repo, d, nil, nil, zap.NewNop())
	return &testEnv{db: db, repo: repo, dispatcher: d, svc: svc}
}

// ── fixtures ──

func (e *testEnv) seedApplication(t *testing.T, app *model.Application) *model.Application {
	t.Helper()
	if app.Status == "" {
		app.Status = model.ApplicationPending
	}
	if err := e.repo.Application.Create(context.Background(), app); err != nil {
		t.Fatalf("创建申请失败: %v", err)
	}
	return app
}

func (e *testEnv) seedSignupCode(t *testing.T, code, email string) *model.SignupCode {
	t.Helper()
	sc := &model.SignupCode{
		Code:          code,
		ApplicationID: 1,
		FirstNames:    "Thandi",
		Surname:       "Mokoena",
		StudentNumber: "221234567",
		LevelOfStudy:  "Diploma",
		Email:         email,
	}
	if err := e.repo.SignupCode.Create(context.Background(), sc); err != nil {
		t.Fatalf("创建注册码失败: %v", err)
	}
	return sc
}

func (e *testEnv) seedStudent(t *testing.T, sn, status string) *model.StudentUser {
	t.Helper()
	st := &model.StudentUser{
		Title:         "Ms",
		FirstNames:    "Student",
		Surname:       sn,
		StudentNumber: sn,
		LevelOfStudy:  "Diploma",
		Email:         sn + "@students.example.ac.za",
		PasswordHash:  "x",
		Status:        status,
	}
	if err := e.repo.Student.Create(context.Background(), st); err != nil {
		t.Fatalf("创建学生失败: %v", err)
	}
	return st
}

func (e *testEnv) seedLogsheet(t *testing.T, sn string, date time.Time) {
	t.Helper()
	sheet := &model.DailyLogsheet{
		StudentNumber: sn,
		LogDate:       time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Activities:    model.ActivityEntries{{Activity: "site visit", Hours: 4}},
	}
	if err := e.repo.Logsheet.Create(context.Background(), sheet); err != nil {
		t.Fatalf("创建日志失败: %v", err)
	}
}

func (e *testEnv) countRows(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
