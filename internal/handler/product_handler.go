package handler

import (
	"strconv"

	"visacenter/internal/repository"
	"visacenter/internal/service"
	"visacenter/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ============================================================
// 产品相关接口
// ============================================================

// ListProducts 产品分页列表
// GET /api/v1/products?q=xxx&supplierId=1&status=active&page=1&pageSize=10
func (h *Handler) ListProducts(c *gin.Context) {
	filter := repository.ProductFilter{
		Q:      c.Query("q"),
		Status: c.Query("status"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	if v := c.Query("supplierId"); v != "" {
		supplierID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.ParamError(c, "supplierId 参数错误")
			return
		}
		filter.SupplierID = &supplierID
	}

	products, total, err := h.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":     products,
		"total":    total,
		"page":     filter.Page,
		"pageSize": filter.PageSize,
	})
}

// GetProduct 产品详情
// GET /api/v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建产品
// POST /api/v1/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新产品
// PATCH /api/v1/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	var req struct {
		Name       *string          `json:"name"`
		Price      *decimal.Decimal `json:"price"`
		CostPrice  *decimal.Decimal `json:"costPrice"`
		SupplierID *int64           `json:"supplierId"`
		Status     *string          `json:"status"`
		Remark     *string          `json:"remark"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.CostPrice != nil {
		updates["cost_price"] = *req.CostPrice
	}
	if req.SupplierID != nil {
		updates["supplier_id"] = *req.SupplierID
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Remark != nil {
		updates["remark"] = *req.Remark
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), actorID(c), id, updates)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除产品
// DELETE /api/v1/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), actorID(c), id); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "产品已删除"})
}
