package handler

import (
	"strconv"
	"time"

	"visacenter/internal/repository"
	"visacenter/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ============================================================
// 账单与付款相关接口
// ============================================================

// CreateBillRequest 创建账单请求
type CreateBillRequest struct {
	OrderIDs []int64 `json:"orderIds" binding:"required"`
}

// AddPaymentRequest 登记付款请求
type AddPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate time.Time       `json:"paymentDate" binding:"required"`
	Remark      string          `json:"remark"`
}

// ListBills 账单分页列表
// GET /api/v1/bills?q=xxx&clientId=1&billStatus=unpaid&page=1&pageSize=10
func (h *Handler) ListBills(c *gin.Context) {
	filter := repository.BillFilter{
		Q:          c.Query("q"),
		BillStatus: c.Query("billStatus"),
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

	bills, total, err := h.billService.ListBills(c.Request.Context(), filter)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":     bills,
		"total":    total,
		"page":     filter.Page,
		"pageSize": filter.PageSize,
	})
}

// GetBill 账单详情，附带订单明细和付款记录
// GET /api/v1/bills/:id
func (h *Handler) GetBill(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	detail, err := h.billService.GetBill(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, detail)
}

// CreateBill 为一组订单生成账单
// POST /api/v1/bills
func (h *Handler) CreateBill(c *gin.Context) {
	var req CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	bill, err := h.billService.CreateBill(c.Request.Context(), actorID(c), req.OrderIDs)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, bill)
}

// DeleteBill 删除账单
// DELETE /api/v1/bills/:id
func (h *Handler) DeleteBill(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	if err := h.billService.DeleteBill(c.Request.Context(), actorID(c), id); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "账单已删除"})
}

// AddPayment 给账单登记付款
// POST /api/v1/bills/:id/payments
func (h *Handler) AddPayment(c *gin.Context) {
	billID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	var req AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	payment, err := h.billService.AddPayment(c.Request.Context(), actorID(c), billID, req.Amount, req.PaymentDate, req.Remark)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, payment)
}

// DeletePayment 删除付款记录并重算账单
// DELETE /api/v1/payments/:id
func (h *Handler) DeletePayment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	bill, err := h.billService.DeletePayment(c.Request.Context(), actorID(c), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, bill)
}
