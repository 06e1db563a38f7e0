package handler

import (
	"strconv"

	"visacenter/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// 通知设置与 Telegram 白名单接口
// ============================================================

// GetNotifySetting 读取通知设置
// GET /api/v1/notify/setting
func (h *Handler) GetNotifySetting(c *gin.Context) {
	setting, err := h.notifyService.GetSetting(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, setting)
}

// UpdateNotifySetting 更新通知设置
// PATCH /api/v1/notify/setting
func (h *Handler) UpdateNotifySetting(c *gin.Context) {
	var req struct {
		Enabled          *bool   `json:"enabled"`
		TelegramBotToken *string `json:"telegramBotToken"`
		Threshold15      *bool   `json:"threshold15"`
		Threshold30      *bool   `json:"threshold30"`
		Threshold90      *bool   `json:"threshold90"`
		Threshold180     *bool   `json:"threshold180"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}
	if req.TelegramBotToken != nil {
		updates["telegram_bot_token"] = *req.TelegramBotToken
	}
	if req.Threshold15 != nil {
		updates["threshold15"] = *req.Threshold15
	}
	if req.Threshold30 != nil {
		updates["threshold30"] = *req.Threshold30
	}
	if req.Threshold90 != nil {
		updates["threshold90"] = *req.Threshold90
	}
	if req.Threshold180 != nil {
		updates["threshold180"] = *req.Threshold180
	}

	setting, err := h.notifyService.UpdateSetting(c.Request.Context(), actorID(c), updates)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, setting)
}

// ListWhitelist 白名单列表
// GET /api/v1/notify/whitelist
func (h *Handler) ListWhitelist(c *gin.Context) {
	entries, err := h.notifyService.ListWhitelist(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, entries)
}

// AddWhitelist 手工添加白名单
// POST /api/v1/notify/whitelist
func (h *Handler) AddWhitelist(c *gin.Context) {
	var req struct {
		ChatID      string `json:"chatId" binding:"required"`
		DisplayName string `json:"displayName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	entry, err := h.notifyService.AddWhitelist(c.Request.Context(), actorID(c), req.ChatID, req.DisplayName)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, entry)
}

// UpdateWhitelist 更新白名单
// PATCH /api/v1/notify/whitelist/:id
func (h *Handler) UpdateWhitelist(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	var req struct {
		DisplayName *string `json:"displayName"`
		IsActive    *bool   `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	entry, err := h.notifyService.UpdateWhitelist(c.Request.Context(), actorID(c), id, updates)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, entry)
}

// RemoveWhitelist 删除白名单
// DELETE /api/v1/notify/whitelist/:id
func (h *Handler) RemoveWhitelist(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	if err := h.notifyService.RemoveWhitelist(c.Request.Context(), actorID(c), id); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// TestBot 用给定 token 给启用的白名单发测试消息
// POST /api/v1/notify/test-bot
func (h *Handler) TestBot(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.notifyService.TestBot(c.Request.Context(), req.Token)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// SyncWhitelist 从 Bot 更新里同步会话到白名单
// POST /api/v1/notify/whitelist/sync
func (h *Handler) SyncWhitelist(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	// token 可选，body 为空也允许
	_ = c.ShouldBindJSON(&req)

	result, err := h.notifyService.SyncWhitelist(c.Request.Context(), actorID(c), req.Token)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// RunNotifyNow 立即执行一轮到期提醒
// POST /api/v1/notify/run-now
func (h *Handler) RunNotifyNow(c *gin.Context) {
	if err := h.notifyService.RunDailyNotifications(c.Request.Context()); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
