package handler

import (
	"strconv"

	"visacenter/internal/repository"
	"visacenter/internal/service"
	"visacenter/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// 订单相关接口
// ============================================================

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	PassportNo string                   `json:"passportNo" binding:"required"`
	OrderItems []service.OrderItemInput `json:"orderItems" binding:"required"`
	Remark     string                   `json:"remark"`
}

// ListOrders 订单分页列表
// GET /api/v1/orders?q=xxx&clientId=1&orderStatus=pending&billStatus=unbilled&page=1&pageSize=10
func (h *Handler) ListOrders(c *gin.Context) {
	filter := repository.OrderFilter{
		Q:           c.Query("q"),
		OrderStatus: c.Query("orderStatus"),
		BillStatus:  c.Query("billStatus"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	if v := c.Query("clientId"); v != "" {
		clientID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.ParamError(c, "clientId 参数错误")
			return
		}
		filter.ClientID = &clientID
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":     orders,
		"total":    total,
		"page":     filter.Page,
		"pageSize": filter.PageSize,
	})
}

// GetOrder 订单详情
// GET /api/v1/orders/:id
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, order)
}

// CreateOrder 创建订单
// POST /api/v1/orders
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), actorID(c), req.PassportNo, req.OrderItems, req.Remark)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, order)
}

// UpdateOrder 更新订单明细
// PUT /api/v1/orders/:id
func (h *Handler) UpdateOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	var req struct {
		OrderItems []service.OrderItemInput `json:"orderItems" binding:"required"`
		Remark     string                   `json:"remark"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), actorID(c), id, req.OrderItems, req.Remark)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatus 调整订单状态
// PATCH /api/v1/orders/:id/status
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	var req struct {
		OrderStatus string `json:"orderStatus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), actorID(c), id, req.OrderStatus)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, order)
}

// DeleteOrder 删除订单
// DELETE /api/v1/orders/:id
func (h *Handler) DeleteOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	if err := h.orderService.DeleteOrder(c.Request.Context(), actorID(c), id); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "订单已删除"})
}
