package handler

import (
	"visacenter/internal/config"
	"visacenter/internal/infrastructure/auth"
	"visacenter/internal/infrastructure/telegram"
	"visacenter/internal/service"
	"visacenter/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	logger *zap.Logger

	authService      *service.AuthService
	userService      *service.UserService
	clientService    *service.ClientService
	passportService  *service.PassportService
	visaService      *service.VisaService
	supplierService  *service.SupplierService
	productService   *service.ProductService
	orderService     *service.OrderService
	billService      *service.BillService
	auditService     *service.AuditService
	notifyService    *service.NotifyService
	overdueService   *service.OverdueService
	dashboardService *service.DashboardService
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Handler {
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	tg := telegram.NewClient()

	return &Handler{
		logger:           logger,
		authService:      service.NewAuthService(db, logger, jwtManager),
		userService:      service.NewUserService(db, logger),
		clientService:    service.NewClientService(db, logger),
		passportService:  service.NewPassportService(db, logger),
		visaService:      service.NewVisaService(db, logger),
		supplierService:  service.NewSupplierService(db, logger),
		productService:   service.NewProductService(db, logger),
		orderService:     service.NewOrderService(db, logger),
		billService:      service.NewBillService(db, rdb, logger, cfg.Kafka.Topic.BillingEvents),
		auditService:     service.NewAuditService(db),
		notifyService:    service.NewNotifyService(db, logger, tg),
		overdueService:   service.NewOverdueService(db),
		dashboardService: service.NewDashboardService(db),
	}
}

// actorID 取中间件放入上下文的当前用户 ID，未登录返回 nil
func actorID(c *gin.Context) *int64 {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return nil
	}
	id, ok := v.(int64)
	if !ok {
		return nil
	}
	return &id
}

// ============================================================
// 认证相关接口
// ============================================================

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, result)
}

// Me 当前登录用户信息
// GET /api/v1/auth/me
func (h *Handler) Me(c *gin.Context) {
	id := actorID(c)
	if id == nil {
		response.Unauthorized(c, "未登录")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), *id)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, user)
}
