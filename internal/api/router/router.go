package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wil-portal/config"
	"wil-portal/internal/api/handler"
	"wil-portal/internal/api/middleware"
	"wil-portal/internal/model"
	"wil-portal/pkg/jwt"
	"wil-portal/pkg/redis"
)

// Pinger 健康检查依赖（repository.Repository 实现）
type Pinger interface {
	Ping(ctx context.Context) error
}

// 注册 / 校验接口限流：每 IP 每分钟 20 次
const (
	publicRateLimit  = 20
	publicRateWindow = time.Minute
	maxBodyBytes     = 1 << 20
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时黑名单与限流降级放行
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db Pinger, logger *zap.Logger) *gin.Engine {
	if cfg.Server.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.Limiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "db": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	publicLimit := middleware.RateLimit(limiter, publicRateLimit, publicRateWindow)
	jwtAuth := middleware.JWTAuth(jwtMgr, blacklist)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)
	staffOrAdmin := middleware.RoleAuth(model.RoleAdmin, model.RoleStaff)

	api := r.Group("/api")
	{
		// 无需认证
		api.POST("/auth/login", publicLimit, h.Auth.Login)
		api.POST("/applications", publicLimit, h.Application.Submit)
		api.POST("/validate-signup-code", publicLimit, h.Signup.ValidateSignupCode)
		api.POST("/student_signup", publicLimit, h.Signup.StudentSignup)
		api.POST("/staff_signup", publicLimit, h.Signup.StaffSignup)

		authorized := api.Group("")
		authorized.Use(jwtAuth)
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 日志
			authorized.POST("/logsheets", h.Logsheet.Create)
			authorized.GET("/logsheets", h.Logsheet.List)

			// 活动
			events := authorized.Group("/events")
			{
				events.POST("", staffOrAdmin, h.Event.Create)
				events.POST("/attend", h.Event.Attend)
				events.GET("/:id", h.Event.Get)
				events.POST("/:id/register", h.Event.Register)
				events.GET("/:id/attendance", staffOrAdmin, h.Event.ListAttendance)
				events.GET("/:id/calendar.ics", h.Event.Calendar)
			}

			// 申请 / 注册码
			authorized.GET("/applications", staffOrAdmin, h.Application.List)
			authorized.GET("/applications/:id", staffOrAdmin, h.Application.Get)
			authorized.POST("/signup-codes", adminOnly, h.Application.SetStatus)
			authorized.POST("/block-signup-email", adminOnly, h.Signup.BlockSignupEmail)
			authorized.POST("/staff-codes", adminOnly, h.Signup.IssueStaffCode)

			// 学生状态
			authorized.GET("/students", staffOrAdmin, h.Student.List)
			authorized.POST("/students/sweep-inactive", adminOnly, h.Student.SweepInactive)
			authorized.POST("/update-student-status/:studentNumber", staffOrAdmin, h.Student.UpdateStatus)
			authorized.POST("/suspend-student/:studentNumber", adminOnly, h.Student.Suspend)
			authorized.POST("/unenroll-student/:studentNumber", adminOnly, h.Student.Unenroll)
			authorized.POST("/enroll-student/:studentNumber", adminOnly, h.Student.Enroll)
			authorized.POST("/reactivate-student/:studentNumber", adminOnly, h.Student.Reactivate)

			// 仪表盘
			dashboard := authorized.Group("/dashboard", staffOrAdmin)
			{
				dashboard.GET("/stats", h.Dashboard.Stats)
				dashboard.GET("/students.xlsx", h.Dashboard.ExportStudents)
			}
		}
	}

	return r
}
