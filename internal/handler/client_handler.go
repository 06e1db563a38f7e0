package handler

import (
	"strconv"

	"visacenter/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// 客户相关接口
// ============================================================

// CreateClientRequest 创建客户请求
type CreateClientRequest struct {
	Name   string `json:"name" binding:"required"`
	Remark string `json:"remark"`
}

// ListClients 客户列表
// GET /api/v1/clients
func (h *Handler) ListClients(c *gin.Context) {
	clients, err := h.clientService.ListClients(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, clients)
}

// GetClient 客户详情
// GET /api/v1/clients/:id
func (h *Handler) GetClient(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	client, err := h.clientService.GetClient(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, client)
}

// CreateClient 创建客户
// POST /api/v1/clients
func (h *Handler) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), actorID(c), req.Name, req.Remark)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, client)
}

// UpdateClient 更新客户
// PATCH /api/v1/clients/:id
func (h *Handler) UpdateClient(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	var req struct {
		Name   *string `json:"name"`
		Remark *string `json:"remark"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Remark != nil {
		updates["remark"] = *req.Remark
	}

	client, err := h.clientService.UpdateClient(c.Request.Context(), actorID(c), id, updates)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, client)
}

// DeleteClient 删除客户，cascade=true 时级联删除名下护照和签证
// DELETE /api/v1/clients/:id?cascade=true
func (h *Handler) DeleteClient(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	cascade := c.Query("cascade") == "true"
	if err := h.clientService.DeleteClient(c.Request.Context(), actorID(c), id, cascade); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "客户已删除"})
}
