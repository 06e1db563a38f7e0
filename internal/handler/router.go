package handler

import (
	"visacenter/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *gin.Engine {
	// 设置 gin 为发布模式（减少日志输出）
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware(logger))
	r.Use(LoggerMiddleware(logger))
	r.Use(CORSMiddleware())

	// 创建处理器
	h := NewHandler(db, rdb, cfg, logger)

	// API 路由组
	api := r.Group("/api/v1")

	// 登录不需要认证
	api.POST("/auth/login", h.Login)

	// 其余接口都在 JWT 认证之后
	authed := api.Group("")
	authed.Use(AuthMiddleware(h.authService))
	{
		authed.GET("/auth/me", h.Me)

		// 用户管理
		users := authed.Group("/users")
		{
			users.GET("", h.ListUsers)
			users.POST("", h.CreateUser)
			users.PATCH("/:id", h.UpdateUser)
		}

		// 客户
		clients := authed.Group("/clients")
		{
			clients.GET("", h.ListClients)
			clients.GET("/:id", h.GetClient)
			clients.POST("", h.CreateClient)
			clients.PATCH("/:id", h.UpdateClient)
			clients.DELETE("/:id", h.DeleteClient)
		}

		// 护照
		passports := authed.Group("/passports")
		{
			passports.GET("", h.ListPassports)
			passports.GET("/:passportNo", h.GetPassport)
			passports.POST("", h.CreatePassport)
			passports.PATCH("/:passportNo", h.UpdatePassport)
			passports.DELETE("/:passportNo", h.DeletePassport)
		}

		// 签证
		visas := authed.Group("/visas")
		{
			visas.GET("", h.ListVisas)
			visas.GET("/:id", h.GetVisa)
			visas.POST("", h.CreateVisa)
			visas.PATCH("/:id", h.UpdateVisa)
			visas.DELETE("/:id", h.DeleteVisa)
		}

		// 供应商
		suppliers := authed.Group("/suppliers")
		{
			suppliers.GET("", h.ListSuppliers)
			suppliers.GET("/:id", h.GetSupplier)
			suppliers.POST("", h.CreateSupplier)
			suppliers.PATCH("/:id", h.UpdateSupplier)
			suppliers.DELETE("/:id", h.DeleteSupplier)
		}

		// 产品
		products := authed.Group("/products")
		{
			products.GET("", h.ListProducts)
			products.GET("/:id", h.GetProduct)
			products.POST("", h.CreateProduct)
			products.PATCH("/:id", h.UpdateProduct)
			products.DELETE("/:id", h.DeleteProduct)
		}

		// 订单
		orders := authed.Group("/orders")
		{
			orders.GET("", h.ListOrders)
			orders.GET("/:id", h.GetOrder)
			orders.POST("", h.CreateOrder)
			orders.PUT("/:id", h.UpdateOrder)
			orders.PATCH("/:id/status", h.UpdateOrderStatus)
			orders.DELETE("/:id", h.DeleteOrder)
		}

		// 账单与付款
		bills := authed.Group("/bills")
		{
			bills.GET("", h.ListBills)
			bills.GET("/:id", h.GetBill)
			bills.POST("", h.CreateBill)
			bills.DELETE("/:id", h.DeleteBill)
			bills.POST("/:id/payments", h.AddPayment)
		}
		authed.DELETE("/payments/:id", h.DeletePayment)

		// 审计日志
		audit := authed.Group("/audit")
		{
			audit.GET("", h.ListAuditLogs)
			audit.POST("/cleanup", h.CleanupAuditLogs)
		}

		// 通知设置与白名单
		notify := authed.Group("/notify")
		{
			notify.GET("/setting", h.GetNotifySetting)
			notify.PATCH("/setting", h.UpdateNotifySetting)
			notify.GET("/whitelist", h.ListWhitelist)
			notify.POST("/whitelist", h.AddWhitelist)
			notify.POST("/whitelist/sync", h.SyncWhitelist)
			notify.PATCH("/whitelist/:id", h.UpdateWhitelist)
			notify.DELETE("/whitelist/:id", h.RemoveWhitelist)
			notify.POST("/test-bot", h.TestBot)
			notify.POST("/run-now", h.RunNotifyNow)
		}

		// 到期查询
		overdue := authed.Group("/overdue")
		{
			overdue.GET("/passports", h.OverduePassports)
			overdue.GET("/visas", h.OverdueVisas)
		}

		// 仪表盘
		authed.GET("/dashboard/summary", h.DashboardSummary)
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
