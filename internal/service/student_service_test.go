package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"wil-portal/internal/model"
)

// 2026-03-20 中午，UTC
var studentToday = time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

func newStudentEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	env.svc.Student.(*studentService).now = fixedClock(studentToday)
	return env
}

func daysAgo(n int) time.Time {
	return studentToday.AddDate(0, 0, -n)
}

// ═══════════════════════════════════════════════════════════
// RecomputeStatus
// ═══════════════════════════════════════════════════════════

func TestRecomputeStatus_ThresholdBoundary(t *testing.T) {
	env := newStudentEnv(t)
	ctx := context.Background()

	env.seedStudent(t, "S10", model.StudentInactive)
	env.seedLogsheet(t, "S10", daysAgo(10))
	env.seedStudent(t, "S11", model.StudentActive)
	env.seedLogsheet(t, "S11", daysAgo(11))

	tests := []struct {
		sn      string
		days    int
		status  string
		changed bool
	}{
		{"S10", 10, model.StudentActive, true},
		{"S11", 11, model.StudentInactive, true},
	}
	for _, tt := range tests {
		t.Run(tt.sn, func(t *testing.T) {
			resp, err := env.svc.Student.RecomputeStatus(ctx, tt.sn)
			if err != nil {
				t.Fatalf("RecomputeStatus: %v", err)
			}
			if resp.DaysSinceLastActivity == nil || *resp.DaysSinceLastActivity != tt.days {
				t.Errorf("DaysSinceLastActivity = %v, 期望 %d", resp.DaysSinceLastActivity, tt.days)
			}
			if resp.Student.Status != tt.status {
				t.Errorf("Status = %q, 期望 %q", resp.Student.Status, tt.status)
			}
			if resp.StatusChanged != tt.changed {
				t.Errorf("StatusChanged = %v", resp.StatusChanged)
			}
		})
	}

	if len(env.dispatcher.templates()) != 0 {
		t.Error("重算不应发送通知")
	}
}

func TestRecomputeStatus_Idempotent(t *testing.T) {
	env := newStudentEnv(t)
	ctx := context.Background()
	env.seedStudent(t, "S1", model.StudentActive)
	env.seedLogsheet(t, "S1", daysAgo(30))

	first, err := env.svc.Student.RecomputeStatus(ctx, "S1")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if !first.StatusChanged || first.Student.Status != model.StudentInactive {
		t.Errorf("first = %+v", first)
	}

	second, err := env.svc.Student.RecomputeStatus(ctx, "S1")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.StatusChanged {
		t.Error("无新日志时第二次重算不应改变状态")
	}
	if *second.DaysSinceLastActivity != 30 {
		t.Errorf("DaysSinceLastActivity = %d", *second.DaysSinceLastActivity)
	}
}

func TestRecomputeStatus_NoLogsheet(t *testing.T) {
	env := newStudentEnv(t)
	env.seedStudent(t, "S1", model.StudentActive)

	resp, err := env.svc.Student.RecomputeStatus(context.Background(), "S1")
	if err != nil {
		t.Fatalf("RecomputeStatus: %v", err)
	}
	if resp.DaysSinceLastActivity != nil {
		t.Errorf("无日志时距离应为 nil，得到 %d", *resp.DaysSinceLastActivity)
	}
	if resp.Student.Status != model.StudentInactive || !resp.StatusChanged {
		t.Errorf("resp = %+v", resp)
	}
}

func TestRecomputeStatus_NotFound(t *testing.T) {
	env := newStudentEnv(t)
	if _, err := env.svc.Student.RecomputeStatus(context.Background(), "NOPE"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，得到 %v", err)
	}
}

func TestRecomputeStatus_KeepsAdminStatus(t *testing.T) {
	env := newStudentEnv(t)
	ctx := context.Background()

	// 先由管理员暂停，近期日志不应让重算恢复为 active
	env.seedStudent(t, "S1", model.StudentActive)
	env.seedLogsheet(t, "S1", daysAgo(2))
	if _, err := env.svc.Student.Suspend(ctx, "S1"); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	env.seedStudent(t, "S2", model.StudentUnenrolled)

	tests := []struct {
		sn     string
		status string
		days   *int
	}{
		{"S1", model.StudentSuspended, intPtr(2)},
		{"S2", model.StudentUnenrolled, nil},
	}
	for _, tt := range tests {
		t.Run(tt.sn, func(t *testing.T) {
			resp, err := env.svc.Student.RecomputeStatus(ctx, tt.sn)
			if err != nil {
				t.Fatalf("RecomputeStatus: %v", err)
			}
			if resp.StatusChanged || resp.Student.Status != tt.status {
				t.Errorf("resp = %+v, 期望保持 %q", resp, tt.status)
			}
			if (tt.days == nil) != (resp.DaysSinceLastActivity == nil) ||
				(tt.days != nil && *resp.DaysSinceLastActivity != *tt.days) {
				t.Errorf("DaysSinceLastActivity = %v", resp.DaysSinceLastActivity)
			}
			st, _ := env.repo.Student.GetByStudentNumber(ctx, tt.sn)
			if st.Status != tt.status {
				t.Errorf("数据库状态 = %q, 期望 %q", st.Status, tt.status)
			}
		})
	}
}

func intPtr(v int) *int { return &v }

func TestStudentGetByEmail(t *testing.T) {
	env := newStudentEnv(t)
	ctx := context.Background()
	env.seedStudent(t, "s221234567", model.StudentActive)

	st, err := env.svc.Student.GetByEmail(ctx, "  S221234567@Students.Example.ac.za ")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if st.StudentNumber != "s221234567" {
		t.Errorf("StudentNumber = %q", st.StudentNumber)
	}

	if _, err := env.svc.Student.GetByEmail(ctx, "staff@example.ac.za"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，得到 %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// 管理员操作
// ═══════════════════════════════════════════════════════════

func TestAdminActions_NotifyOnChangeOnly(t *testing.T) {
	env := newStudentEnv(t)
	ctx := context.Background()
	env.seedStudent(t, "S1", model.StudentActive)

	resp, err := env.svc.Student.Suspend(ctx, "S1")
	if err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if resp.Student.Status != model.StudentSuspended || !resp.StatusChanged {
		t.Errorf("resp = %+v", resp)
	}

	again, err := env.svc.Student.Suspend(ctx, "S1")
	if err != nil {
		t.Fatalf("Suspend again: %v", err)
	}
	if again.StatusChanged {
		t.Error("重复暂停不应标记变更")
	}

	if _, err := env.svc.Student.Unenroll(ctx, "S1"); err != nil {
		t.Fatalf("Unenroll: %v", err)
	}
	if _, err := env.svc.Student.Enroll(ctx, "S1"); err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	want := []string{"student_suspended", "student_unenrolled", "student_enrolled"}
	got := env.dispatcher.templates()
	if len(got) != len(want) {
		t.Fatalf("通知 = %v, 期望 %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("通知[%d] = %q, 期望 %q", i, got[i], want[i])
		}
	}
}

func TestReactivate_StaleActivity(t *testing.T) {
	env := newStudentEnv(t)
	ctx := context.Background()
	env.seedStudent(t, "S1", model.StudentSuspended)
	env.seedLogsheet(t, "S1", daysAgo(11))

	if _, err := env.svc.Student.Reactivate(ctx, "S1"); !errors.Is(err, ErrStaleActivity) {
		t.Fatalf("期望 ErrStaleActivity，得到 %v", err)
	}
	st, _ := env.repo.Student.GetByStudentNumber(ctx, "S1")
	if st.Status != model.StudentSuspended {
		t.Errorf("状态不应改变，实际 %q", st.Status)
	}

	env.seedStudent(t, "S2", model.StudentSuspended)
	if _, err := env.svc.Student.Reactivate(ctx, "S2"); !errors.Is(err, ErrStaleActivity) {
		t.Errorf("无日志时期望 ErrStaleActivity，得到 %v", err)
	}
	if len(env.dispatcher.templates()) != 0 {
		t.Error("失败的恢复不应发送通知")
	}
}

func TestReactivate_RecentActivity(t *testing.T) {
	env := newStudentEnv(t)
	ctx := context.Background()
	env.seedStudent(t, "S1", model.StudentInactive)
	env.seedLogsheet(t, "S1", daysAgo(3))

	resp, err := env.svc.Student.Reactivate(ctx, "S1")
	if err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if resp.Student.Status != model.StudentActive || *resp.DaysSinceLastActivity != 3 {
		t.Errorf("resp = %+v", resp)
	}
	if got := env.dispatcher.templates(); len(got) != 1 || got[0] != "student_reactivated" {
		t.Errorf("通知 = %v", got)
	}
}

// ═══════════════════════════════════════════════════════════
// SweepInactive
// ═══════════════════════════════════════════════════════════

func TestSweepInactive(t *testing.T) {
	env := newStudentEnv(t)
	ctx := context.Background()

	env.seedStudent(t, "RECENT", model.StudentActive)
	env.seedLogsheet(t, "RECENT", daysAgo(2))
	env.seedStudent(t, "STALE", model.StudentActive)
	env.seedLogsheet(t, "STALE", daysAgo(15))
	env.seedStudent(t, "NOLOG", model.StudentActive)
	env.seedStudent(t, "SUSP", model.StudentSuspended)
	env.seedLogsheet(t, "SUSP", daysAgo(40))

	resp, err := env.svc.Student.SweepInactive(ctx)
	if err != nil {
		t.Fatalf("SweepInactive: %v", err)
	}
	if resp.Checked != 3 || resp.Deactivated != 2 || len(resp.Failed) != 0 {
		t.Errorf("resp = %+v", resp)
	}

	expect := map[string]string{
		"RECENT": model.StudentActive,
		"STALE":  model.StudentInactive,
		"NOLOG":  model.StudentInactive,
		"SUSP":   model.StudentSuspended,
	}
	for sn, status := range expect {
		st, err := env.repo.Student.GetByStudentNumber(ctx, sn)
		if err != nil {
			t.Fatalf("%s: %v", sn, err)
		}
		if st.Status != status {
			t.Errorf("%s status = %q, 期望 %q", sn, st.Status, status)
		}
	}
	if len(env.dispatcher.templates()) != 0 {
		t.Error("扫描不应发送通知")
	}
}

func TestSweepInactive_PerStudentIsolation(t *testing.T) {
	env := newStudentEnv(t)
	ctx := context.Background()

	env.seedStudent(t, "STALE1", model.StudentActive)
	env.seedLogsheet(t, "STALE1", daysAgo(20))
	env.seedStudent(t, "BROKEN", model.StudentActive)
	env.seedLogsheet(t, "BROKEN", daysAgo(20))
	env.seedStudent(t, "STALE2", model.StudentActive)

	// BROKEN 的日志查询注入故障
	err := env.db.Callback().Query().After("gorm:query").Register("test:fail_broken", func(db *gorm.DB) {
		if db.Statement.Table != "daily_logsheets" {
			return
		}
		for _, v := range db.Statement.Vars {
			if s, ok := v.(string); ok && s == "BROKEN" {
				_ = db.AddError(errors.New("disk I/O error"))
				return
			}
		}
	})
	if err != nil {
		t.Fatalf("注册回调失败: %v", err)
	}

	resp, err := env.svc.Student.SweepInactive(ctx)
	if err != nil {
		t.Fatalf("SweepInactive: %v", err)
	}
	if resp.Checked != 3 || resp.Deactivated != 2 {
		t.Errorf("Checked=%d Deactivated=%d", resp.Checked, resp.Deactivated)
	}
	if len(resp.Failed) != 1 || resp.Failed[0].StudentNumber != "BROKEN" {
		t.Fatalf("Failed = %+v", resp.Failed)
	}

	st, _ := env.repo.Student.GetByStudentNumber(ctx, "BROKEN")
	if st.Status != model.StudentActive {
		t.Errorf("失败学生状态应保持 active，实际 %q", st.Status)
	}
}

func TestCalendarDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		last time.Time
		now  time.Time
		want int
	}{
		{"同一天", time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 20, 23, 59, 0, 0, time.UTC), 0},
		{"跨月", time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC), 3},
		{"忽略时分", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 20, 0, 0, 1, 0, time.UTC), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calendarDaysBetween(tt.last, tt.now); got != tt.want {
				t.Errorf("calendarDaysBetween = %d, 期望 %d", got, tt.want)
			}
		})
	}
}
