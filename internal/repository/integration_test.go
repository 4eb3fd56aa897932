//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pkgerrors "wil-portal/pkg/errors"

	"wil-portal/internal/model"
	"wil-portal/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=wil password=wil_password dbname=wil_portal_test sslmode=disable TimeZone=Africa/Johannesburg"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 自动迁移测试表结构
	err = testDB.AutoMigrate(
		&model.Application{},
		&model.SignupCode{},
		&model.StaffCode{},
		&model.BlockedSignup{},
		&model.StudentUser{},
		&model.User{},
		&model.DailyLogsheet{},
		&model.Event{},
		&model.EventAttendance{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupApplication 创建一条申请并返回清理函数
func setupApplication(t *testing.T) (*model.Application, func()) {
	t.Helper()
	suffix := time.Now().UnixNano()
	app := &model.Application{
		FirstNames:    "Thandeka",
		Surname:       "Mkhize",
		StudentNumber: fmt.Sprintf("%d", suffix%100000000),
		LevelOfStudy:  "3",
		Email:         fmt.Sprintf("t%d@dut4life.ac.za", suffix),
		Status:        model.ApplicationPending,
	}
	if err := testDB.Create(app).Error; err != nil {
		t.Fatalf("创建申请失败: %v", err)
	}
	return app, func() {
		testDB.Where("application_id = ?", app.ID).Delete(&model.SignupCode{})
		testDB.Where("id = ?", app.ID).Delete(&model.Application{})
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction Rollback / Commit
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	app, cleanup := setupApplication(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	code := fmt.Sprintf("R%07d", time.Now().UnixNano()%10000000)

	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.SignupCode.Create(ctx, &model.SignupCode{
			Code: code, ApplicationID: app.ID,
			FirstNames: app.FirstNames, Surname: app.Surname,
			StudentNumber: app.StudentNumber, LevelOfStudy: app.LevelOfStudy, Email: app.Email,
		}); err != nil {
			return err
		}
		return errors.New("强制回滚")
	})
	if err == nil {
		t.Fatal("期望事务返回错误")
	}

	exists, err := repo.SignupCode.ExistsByCode(ctx, code)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if exists {
		t.Fatal("期望回滚后查不到注册码，但实际查到了")
	}
}

func TestTransaction_BeginTxCommit(t *testing.T) {
	app, cleanup := setupApplication(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	if _, err := txRepo.Application.GetByIDForUpdate(ctx, app.ID); err != nil {
		tx.Rollback()
		t.Fatalf("FOR UPDATE 查询失败: %v", err)
	}
	if err := txRepo.Application.UpdateStatus(ctx, app.ID, model.ApplicationAccepted); err != nil {
		tx.Rollback()
		t.Fatalf("事务内更新失败: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("Commit 失败: %v", err)
	}

	found, err := repo.Application.GetByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("提交后查询失败: %v", err)
	}
	if found.Status != model.ApplicationAccepted {
		t.Errorf("期望 Accepted，实际 %s", found.Status)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Unique Constraint / Conditional Update
// ═══════════════════════════════════════════════════════════

func TestUniqueViolation_TranslatedToDuplicatedKey(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	email := fmt.Sprintf("dup%d@dut4life.ac.za", time.Now().UnixNano())

	u := &model.User{Name: "A", Email: email, PasswordHash: "$2a$10$placeholder", Role: model.RoleStaff}
	if err := repo.User.Create(ctx, u); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	defer testDB.Where("id = ?", u.ID).Delete(&model.User{})

	err := repo.User.Create(ctx, &model.User{Name: "B", Email: email, PasswordHash: "x", Role: model.RoleStaff})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("期望 ErrDuplicatedKey，得到: %v", err)
	}
}

func TestStudentUpdateStatus_ConflictDetected(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	s := &model.StudentUser{
		FirstNames: "Sipho", Surname: "Dlamini",
		StudentNumber: fmt.Sprintf("S%d", suffix%10000000),
		LevelOfStudy:  "2", Email: fmt.Sprintf("s%d@dut4life.ac.za", suffix),
		PasswordHash: "$2a$10$placeholder", Status: model.StudentActive,
	}
	if err := repo.Student.Create(ctx, s); err != nil {
		t.Fatalf("创建学生失败: %v", err)
	}
	defer testDB.Where("id = ?", s.ID).Delete(&model.StudentUser{})

	if err := repo.Student.UpdateStatus(ctx, s.ID, model.StudentActive, model.StudentSuspended); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}

	// 第二次仍以 active 为前置状态，应冲突
	err := repo.Student.UpdateStatus(ctx, s.ID, model.StudentActive, model.StudentInactive)
	if err != pkgerrors.ErrOptimisticLock {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}
}

func TestLatestLogDate(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	sn := fmt.Sprintf("L%d", time.Now().UnixNano()%10000000)
	defer testDB.Where("student_number = ?", sn).Delete(&model.DailyLogsheet{})

	for _, d := range []time.Time{
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
	} {
		sheet := &model.DailyLogsheet{
			StudentNumber: sn, LogDate: d,
			Activities: model.ActivityEntries{{Activity: "Site visit", Hours: 2}},
		}
		if err := repo.Logsheet.Create(ctx, sheet); err != nil {
			t.Fatalf("创建日志失败: %v", err)
		}
	}

	got, err := repo.Logsheet.LatestLogDate(ctx, sn)
	if err != nil || got == nil {
		t.Fatalf("LatestLogDate 失败: %v %v", got, err)
	}
	if got.Day() != 9 {
		t.Errorf("期望 3 月 9 日，实际 %v", got)
	}
}
