package handler

import (
	"strconv"
	"time"

	"visacenter/internal/model"
	"visacenter/internal/repository"
	"visacenter/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ============================================================
// 审计日志相关接口
// ============================================================

// ListAuditLogs 审计日志查询
// GET /api/v1/audit?entity=BILL&entityId=xxx&from=2026-01-01T00:00:00Z&to=...&limit=200&offset=0
func (h *Handler) ListAuditLogs(c *gin.Context) {
	filter := repository.AuditFilter{
		Entity:   model.EntityKind(c.Query("entity")),
		EntityID: c.Query("entityId"),
	}
	if v := c.Query("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.ParamError(c, "from 参数错误")
			return
		}
		filter.From = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.ParamError(c, "to 参数错误")
			return
		}
		filter.To = &to
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			response.ParamError(c, "limit 参数错误")
			return
		}
		filter.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			response.ParamError(c, "offset 参数错误")
			return
		}
		filter.Offset = offset
	}

	logs, err := h.auditService.List(c.Request.Context(), filter)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, logs)
}

// CleanupAuditLogs 清理指定天数之前的审计日志
// POST /api/v1/audit/cleanup
func (h *Handler) CleanupAuditLogs(c *gin.Context) {
	var req struct {
		Days int `json:"days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	if req.Days <= 0 {
		response.ParamError(c, "days 必须为正数")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -req.Days)
	deleted, err := h.auditService.CleanupOlderThan(c.Request.Context(), cutoff)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	// 清理动作本身也落一条审计
	if err := h.auditService.RecordCreate(c.Request.Context(), actorID(c), model.EntityAudit, map[string]interface{}{
		"days":    req.Days,
		"deleted": deleted,
	}); err != nil {
		h.logger.Warn("审计日志写入失败", zap.Error(err))
	}

	response.Success(c, gin.H{"deleted": deleted})
}
