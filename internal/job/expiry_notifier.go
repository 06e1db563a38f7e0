package job

import (
	"context"
	"time"

	"visacenter/internal/config"
	"visacenter/internal/service"

	"go.uber.org/zap"
)

// ExpiryNotifier 按固定间隔给 Telegram 白名单推送证件到期提醒
type ExpiryNotifier struct {
	notifySvc *service.NotifyService
	logger    *zap.Logger
	interval  time.Duration
	stopCh    chan struct{}
}

func NewExpiryNotifier(notifySvc *service.NotifyService, cfg *config.Config, logger *zap.Logger) *ExpiryNotifier {
	interval := time.Duration(cfg.Notify.CheckIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &ExpiryNotifier{
		notifySvc: notifySvc,
		logger:    logger,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

func (n *ExpiryNotifier) Start(ctx context.Context) {
	n.logger.Info("到期提醒任务启动", zap.Duration("interval", n.interval))

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("收到停止信号，到期提醒任务退出")
			return
		case <-n.stopCh:
			n.logger.Info("到期提醒任务停止")
			return
		case <-ticker.C:
			if err := n.notifySvc.RunDailyNotifications(ctx); err != nil {
				n.logger.Error("到期提醒执行失败", zap.Error(err))
			}
		}
	}
}

func (n *ExpiryNotifier) Stop() {
	close(n.stopCh)
}
