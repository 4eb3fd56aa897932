package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"wil-portal/internal/dto"
	"wil-portal/internal/model"
	"wil-portal/internal/repository"
	"wil-portal/pkg/jwt"
)

func setupAuthService(t *testing.T) (AuthService, *mockUserRepo, *mockBlacklist, *jwt.Manager) {
	t.Helper()
	cfg := testConfig()
	userRepo := newMockUserRepo()
	blacklist := newMockBlacklist()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	hasher := NewBcryptHasher(cfg.Auth.BcryptCost)

	hash, err := hasher.Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	_ = userRepo.Create(context.Background(), &model.User{
		Name:         "Admin",
		Email:        "admin@example.ac.za",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	})

	repo := &repository.Repository{User: userRepo}
	svc := NewAuthService(cfg, repo, hasher, jwtMgr, blacklist, zap.NewNop())
	return svc, userRepo, blacklist, jwtMgr
}

// ═══════════════════════════════════════════════════════════
// Login
// ═══════════════════════════════════════════════════════════

func TestLogin_Success(t *testing.T) {
	svc, _, _, jwtMgr := setupAuthService(t)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "  Admin@Example.ac.za ",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("期望登录成功，得到错误: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("AccessToken 不应为空")
	}
	if resp.ExpiresIn != int((15 * time.Minute).Seconds()) {
		t.Errorf("ExpiresIn = %d", resp.ExpiresIn)
	}
	if resp.User.Role != model.RoleAdmin {
		t.Errorf("Role = %q, 期望 admin", resp.User.Role)
	}

	claims, err := jwtMgr.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("解析 Token 失败: %v", err)
	}
	if claims.Email != "admin@example.ac.za" || claims.Role != model.RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _, _ := setupAuthService(t)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "admin@example.ac.za",
		Password: "wrong",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，得到 %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _, _ := setupAuthService(t)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@example.ac.za",
		Password: "correct-horse",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，得到 %v", err)
	}
}

func TestLogin_RepoError(t *testing.T) {
	svc, userRepo, _, _ := setupAuthService(t)
	userRepo.err = errors.New("connection reset")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "admin@example.ac.za",
		Password: "correct-horse",
	})
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望底层错误透传，得到 %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Logout
// ═══════════════════════════════════════════════════════════

func TestLogout_BlacklistsUntilExpiry(t *testing.T) {
	svc, _, blacklist, _ := setupAuthService(t)

	if err := svc.Logout(context.Background(), "jti-1", time.Now().Add(10*time.Minute)); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	ttl, ok := blacklist.entries["jti-1"]
	if !ok {
		t.Fatal("jti 未加入黑名单")
	}
	if ttl <= 9*time.Minute || ttl > 10*time.Minute {
		t.Errorf("ttl = %v", ttl)
	}
}

func TestLogout_ExpiredTokenSkipped(t *testing.T) {
	svc, _, blacklist, _ := setupAuthService(t)

	if err := svc.Logout(context.Background(), "jti-2", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(blacklist.entries) != 0 {
		t.Error("已过期 Token 不应写入黑名单")
	}
}

func TestLogout_NoBlacklistConfigured(t *testing.T) {
	cfg := testConfig()
	svc := NewAuthService(cfg, &repository.Repository{}, NewBcryptHasher(10), jwt.NewManager(&cfg.Auth), nil, zap.NewNop())

	if err := svc.Logout(context.Background(), "jti-3", time.Now().Add(time.Minute)); err != nil {
		t.Errorf("未配置黑名单时应为空操作，得到 %v", err)
	}
}

func TestLogout_BlacklistError(t *testing.T) {
	svc, _, blacklist, _ := setupAuthService(t)
	blacklist.err = errors.New("redis down")

	if err := svc.Logout(context.Background(), "jti-4", time.Now().Add(time.Minute)); err == nil {
		t.Error("期望返回黑名单写入错误")
	}
}
