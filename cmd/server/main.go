package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visacenter/internal/config"
	"visacenter/internal/handler"
	"visacenter/internal/infrastructure/cache"
	"visacenter/internal/infrastructure/database"
	"visacenter/internal/infrastructure/mq"
	"visacenter/internal/infrastructure/telegram"
	"visacenter/internal/job"
	"visacenter/internal/logger"
	"visacenter/internal/service"
	"visacenter/pkg/idgen"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg := config.LoadConfig("config/config.yaml")

	// 初始化日志
	zapLog, err := logger.NewZapLog(cfg.Log)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer zapLog.Sync()

	// 初始化 ID 生成器
	idgen.Init(1)

	// 初始化 MySQL
	db := database.InitMySQL(&cfg.MySQL)

	// 初始化 Redis
	redisClient := cache.InitRedis(&cfg.Redis)

	// 初始化 Kafka
	mq.InitKafka(&cfg.Kafka)
	defer mq.CloseKafka()

	// 创建上下文（用于优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动后台任务
	outboxSender := job.NewOutboxSender(db, cfg, zapLog)
	go outboxSender.Start(ctx)

	notifySvc := service.NewNotifyService(db, zapLog, telegram.NewClient())
	expiryNotifier := job.NewExpiryNotifier(notifySvc, cfg, zapLog)
	go expiryNotifier.Start(ctx)

	// 设置路由
	router := handler.SetupRouter(db, redisClient, cfg, zapLog)

	// 启动 HTTP 服务
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// 在 goroutine 中启动服务器
	go func() {
		zapLog.Info("服务启动", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("正在关闭服务...")

	// 取消上下文，停止后台任务
	cancel()

	// 关闭 HTTP 服务（等待最多5秒）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("服务关闭异常", zap.Error(err))
	}

	zapLog.Info("服务已关闭")
}
