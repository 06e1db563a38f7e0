package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"visacenter/internal/infrastructure/telegram"
	"visacenter/internal/model"
	"visacenter/internal/repository"
	"visacenter/pkg/apperr"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TestBotResult 测试发送的逐个结果
type TestBotResult struct {
	ChatID string `json:"chatId"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// TestBotSummary 测试发送汇总
type TestBotSummary struct {
	OK      bool            `json:"ok"`
	Message string          `json:"message,omitempty"`
	Sent    int             `json:"sent"`
	Failed  int             `json:"failed"`
	Total   int             `json:"total"`
	Results []TestBotResult `json:"results,omitempty"`
}

// SyncResult 白名单同步汇总
type SyncResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Total   int    `json:"total"`
	Created int    `json:"created"`
}

// NotifyService 通知设置、Telegram 白名单和证件到期提醒
type NotifyService struct {
	logger *zap.Logger
	tg     *telegram.Client

	notifyRepo   *repository.NotifyRepository
	passportRepo *repository.PassportRepository
	visaRepo     *repository.VisaRepository
	auditSvc     *AuditService
}

func NewNotifyService(db *gorm.DB, logger *zap.Logger, tg *telegram.Client) *NotifyService {
	return &NotifyService{
		logger:       logger,
		tg:           tg,
		notifyRepo:   repository.NewNotifyRepository(db),
		passportRepo: repository.NewPassportRepository(db),
		visaRepo:     repository.NewVisaRepository(db),
		auditSvc:     NewAuditService(db),
	}
}

// GetSetting 读取通知设置，没有就建一条默认的
func (s *NotifyService) GetSetting(ctx context.Context) (*model.NotifySetting, error) {
	return s.notifyRepo.GetOrCreateSetting(ctx)
}

// UpdateSetting 更新通知设置
func (s *NotifyService) UpdateSetting(ctx context.Context, userID *int64, updates map[string]interface{}) (*model.NotifySetting, error) {
	before, err := s.notifyRepo.GetOrCreateSetting(ctx)
	if err != nil {
		return nil, err
	}

	after, err := s.notifyRepo.UpdateSetting(ctx, before.ID, updates)
	if err != nil {
		return nil, err
	}

	if err := s.auditSvc.RecordUpdate(ctx, userID, model.EntityNotify, before, after); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return after, nil
}

// ListWhitelist 白名单列表
func (s *NotifyService) ListWhitelist(ctx context.Context) ([]*model.TelegramWhitelist, error) {
	return s.notifyRepo.ListWhitelist(ctx)
}

// AddWhitelist 手工添加白名单会话
func (s *NotifyService) AddWhitelist(ctx context.Context, userID *int64, chatID, displayName string) (*model.TelegramWhitelist, error) {
	if chatID == "" {
		return nil, apperr.Validationf("chatId 不能为空")
	}

	existing, err := s.notifyRepo.GetWhitelistByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validationf("该会话已在白名单中")
	}

	entry := &model.TelegramWhitelist{
		ChatID:      chatID,
		DisplayName: displayName,
		IsActive:    true,
	}
	if err := s.notifyRepo.CreateWhitelist(ctx, entry); err != nil {
		return nil, err
	}

	if err := s.auditSvc.RecordCreate(ctx, userID, model.EntityNotify, entry); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return entry, nil
}

// UpdateWhitelist 更新白名单显示名或启用状态
func (s *NotifyService) UpdateWhitelist(ctx context.Context, userID *int64, id int64, updates map[string]interface{}) (*model.TelegramWhitelist, error) {
	before, err := s.notifyRepo.GetWhitelistByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.notifyRepo.UpdateWhitelist(ctx, id, updates); err != nil {
		return nil, err
	}

	after, err := s.notifyRepo.GetWhitelistByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.auditSvc.RecordUpdate(ctx, userID, model.EntityNotify, before, after); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return after, nil
}

// RemoveWhitelist 删除白名单会话
func (s *NotifyService) RemoveWhitelist(ctx context.Context, userID *int64, id int64) error {
	before, err := s.notifyRepo.GetWhitelistByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.notifyRepo.DeleteWhitelist(ctx, id); err != nil {
		return err
	}

	if err := s.auditSvc.RecordDelete(ctx, userID, model.EntityNotify, before); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return nil
}

// TestBot 用给定 token 给所有启用的白名单发一条测试消息
func (s *NotifyService) TestBot(ctx context.Context, token string) (*TestBotSummary, error) {
	if len(token) < 20 {
		return &TestBotSummary{OK: false, Message: "Token 格式看起来不正确"}, nil
	}

	targets, err := s.notifyRepo.ListActiveWhitelist(ctx)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return &TestBotSummary{OK: false, Message: "没有启用的白名单，无法发送测试消息"}, nil
	}

	const text = "测试通知：如果你看到这条消息，说明机器人可正常发送。"
	summary := &TestBotSummary{Total: len(targets)}
	for _, target := range targets {
		if err := s.tg.SendMessage(ctx, token, target.ChatID, text); err != nil {
			s.logger.Warn("测试消息发送失败", zap.String("chat_id", target.ChatID), zap.Error(err))
			summary.Failed++
			summary.Results = append(summary.Results, TestBotResult{ChatID: target.ChatID, OK: false, Error: err.Error()})
			continue
		}
		summary.Sent++
		summary.Results = append(summary.Results, TestBotResult{ChatID: target.ChatID, OK: true})
	}
	summary.OK = summary.Failed == 0
	return summary, nil
}

func chatDisplayName(chat *telegram.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	parts := make([]string, 0, 2)
	if chat.FirstName != "" {
		parts = append(parts, chat.FirstName)
	}
	if chat.LastName != "" {
		parts = append(parts, chat.LastName)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if chat.Username != "" {
		return "@" + chat.Username
	}
	return ""
}

// SyncWhitelist 从 Bot 收到的更新里提取会话，新会话以停用状态入库等人工启用
func (s *NotifyService) SyncWhitelist(ctx context.Context, userID *int64, token string) (*SyncResult, error) {
	if token == "" {
		setting, err := s.notifyRepo.GetOrCreateSetting(ctx)
		if err != nil {
			return nil, err
		}
		token = setting.TelegramBotToken
	}
	if token == "" {
		return &SyncResult{OK: false, Message: "未配置 Bot Token"}, nil
	}

	updates, err := s.tg.GetUpdates(ctx, token)
	if err != nil {
		return &SyncResult{OK: false, Message: err.Error()}, nil
	}

	seen := make(map[string]struct{})
	result := &SyncResult{OK: true}
	for i := range updates {
		chat := updates[i].ChatOf()
		if chat == nil {
			continue
		}
		chatID := strconv.FormatInt(chat.ID, 10)
		if _, dup := seen[chatID]; dup {
			continue
		}
		seen[chatID] = struct{}{}
		result.Total++

		displayName := chatDisplayName(chat)
		existing, err := s.notifyRepo.GetWhitelistByChatID(ctx, chatID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			// 仅在没有显示名时补充
			if existing.DisplayName == "" && displayName != "" {
				if err := s.notifyRepo.UpdateWhitelist(ctx, existing.ID, map[string]interface{}{
					"display_name": displayName,
				}); err != nil {
					return nil, err
				}
			}
			continue
		}

		if err := s.notifyRepo.CreateWhitelist(ctx, &model.TelegramWhitelist{
			ChatID:      chatID,
			DisplayName: displayName,
			IsActive:    false,
		}); err != nil {
			return nil, err
		}
		result.Created++
	}

	s.logger.Info("白名单同步完成",
		zap.Int("total", result.Total),
		zap.Int("created", result.Created))

	if err := s.auditSvc.RecordCreate(ctx, userID, model.EntityNotify, result); err != nil {
		s.logger.Warn("审计日志写入失败", zap.Error(err))
	}
	return result, nil
}

// thresholdDays 返回设置里启用的提醒天数档位
func thresholdDays(setting *model.NotifySetting) []int {
	var days []int
	if setting.Threshold15 {
		days = append(days, 15)
	}
	if setting.Threshold30 {
		days = append(days, 30)
	}
	if setting.Threshold90 {
		days = append(days, 90)
	}
	if setting.Threshold180 {
		days = append(days, 180)
	}
	return days
}

// buildReminderText 汇总各档位即将到期的护照和签证，没有内容返回空串
func (s *NotifyService) buildReminderText(ctx context.Context, days []int) (string, error) {
	var b strings.Builder
	now := time.Now()
	for _, d := range days {
		to := now.AddDate(0, 0, d)
		passports, err := s.passportRepo.CountFiltered(ctx, nil, nil, &now, &to)
		if err != nil {
			return "", err
		}
		visas, err := s.visaRepo.CountFiltered(ctx, &now, &to)
		if err != nil {
			return "", err
		}
		if passports == 0 && visas == 0 {
			continue
		}
		fmt.Fprintf(&b, "%d天内到期：护照 %d 本，签证 %d 个\n", d, passports, visas)
	}
	if b.Len() == 0 {
		return "", nil
	}
	return "证件到期提醒\n" + b.String(), nil
}

// RunDailyNotifications 给启用的白名单推送一轮到期提醒
func (s *NotifyService) RunDailyNotifications(ctx context.Context) error {
	setting, err := s.notifyRepo.GetOrCreateSetting(ctx)
	if err != nil {
		return err
	}
	if !setting.Enabled || setting.TelegramBotToken == "" {
		return nil
	}

	days := thresholdDays(setting)
	if len(days) == 0 {
		return nil
	}

	text, err := s.buildReminderText(ctx, days)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}

	targets, err := s.notifyRepo.ListActiveWhitelist(ctx)
	if err != nil {
		return err
	}
	for _, target := range targets {
		if err := s.tg.SendMessage(ctx, setting.TelegramBotToken, target.ChatID, text); err != nil {
			s.logger.Warn("到期提醒发送失败", zap.String("chat_id", target.ChatID), zap.Error(err))
		}
	}

	s.logger.Info("到期提醒已推送", zap.Int("targets", len(targets)))
	return nil
}
