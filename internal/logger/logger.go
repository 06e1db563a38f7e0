package logger

import (
	"visacenter/internal/config"

	"go.uber.org/zap"
)

// NewZapLog 根据配置构建 zap 日志器
func NewZapLog(cfg config.LogConfig) (*zap.Logger, error) {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	zapcfg := zap.NewProductionConfig()
	zapcfg.Level = lvl
	return zapcfg.Build()
}
