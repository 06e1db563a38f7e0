package handler

import (
	"strconv"
	"time"

	"visacenter/internal/repository"
	"visacenter/internal/service"
	"visacenter/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// 签证相关接口
// ============================================================

// ListVisas 签证列表
// GET /api/v1/visas?q=xxx&passportNo=xxx&days=30&expired=true
func (h *Handler) ListVisas(c *gin.Context) {
	filter := repository.VisaFilter{
		Q:          c.Query("q"),
		PassportNo: c.Query("passportNo"),
		Expired:    c.Query("expired") == "true",
	}
	if v := c.Query("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			response.ParamError(c, "days 参数错误")
			return
		}
		filter.Days = &days
	}

	visas, err := h.visaService.ListVisas(c.Request.Context(), filter)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, visas)
}

// GetVisa 签证详情
// GET /api/v1/visas/:id
func (h *Handler) GetVisa(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	visa, err := h.visaService.GetVisa(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, visa)
}

// CreateVisa 登记签证
// POST /api/v1/visas
func (h *Handler) CreateVisa(c *gin.Context) {
	var req service.VisaInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	visa, err := h.visaService.CreateVisa(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, visa)
}

// UpdateVisa 更新签证
// PATCH /api/v1/visas/:id
func (h *Handler) UpdateVisa(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	var req struct {
		Country    *string    `json:"country"`
		VisaName   *string    `json:"visaName"`
		ExpiryDate *time.Time `json:"expiryDate"`
		Status     *string    `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.VisaName != nil {
		updates["visa_name"] = *req.VisaName
	}
	if req.ExpiryDate != nil {
		updates["expiry_date"] = *req.ExpiryDate
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	visa, err := h.visaService.UpdateVisa(c.Request.Context(), actorID(c), id, updates)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, visa)
}

// DeleteVisa 删除签证
// DELETE /api/v1/visas/:id
func (h *Handler) DeleteVisa(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	if err := h.visaService.DeleteVisa(c.Request.Context(), actorID(c), id); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "签证已删除"})
}
