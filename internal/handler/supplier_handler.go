package handler

import (
	"strconv"

	"visacenter/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// 供应商相关接口
// ============================================================

// ListSuppliers 供应商分页列表
// GET /api/v1/suppliers?q=xxx&page=1&pageSize=10
func (h *Handler) ListSuppliers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))

	suppliers, total, err := h.supplierService.ListSuppliers(c.Request.Context(), c.Query("q"), page, pageSize)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":     suppliers,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// GetSupplier 供应商详情
// GET /api/v1/suppliers/:id
func (h *Handler) GetSupplier(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	supplier, err := h.supplierService.GetSupplier(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, supplier)
}

// CreateSupplier 创建供应商
// POST /api/v1/suppliers
func (h *Handler) CreateSupplier(c *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		Remark string `json:"remark"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	supplier, err := h.supplierService.CreateSupplier(c.Request.Context(), actorID(c), req.Name, req.Remark)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, supplier)
}

// UpdateSupplier 更新供应商
// PATCH /api/v1/suppliers/:id
func (h *Handler) UpdateSupplier(c *gin.Context) {
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

	supplier, err := h.supplierService.UpdateSupplier(c.Request.Context(), actorID(c), id, updates)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, supplier)
}

// DeleteSupplier 删除供应商
// DELETE /api/v1/suppliers/:id
func (h *Handler) DeleteSupplier(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	if err := h.supplierService.DeleteSupplier(c.Request.Context(), actorID(c), id); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "供应商已删除"})
}
