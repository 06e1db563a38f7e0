package handler

import (
	"strconv"

	"visacenter/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// 仪表盘与到期查询接口
// ============================================================

// DashboardSummary 仪表盘汇总
// GET /api/v1/dashboard/summary
func (h *Handler) DashboardSummary(c *gin.Context) {
	summary, err := h.dashboardService.GetSummary(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, summary)
}

// overdueParams 解析 days/expired 查询参数
func overdueParams(c *gin.Context) (*int, bool, bool) {
	expired := c.Query("expired") == "true"
	var days *int
	if v := c.Query("days"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			response.ParamError(c, "days 参数错误")
			return nil, false, false
		}
		days = &d
	}
	return days, expired, true
}

// OverduePassports 即将到期或已过期的护照
// GET /api/v1/overdue/passports?days=30 或 ?expired=true
func (h *Handler) OverduePassports(c *gin.Context) {
	days, expired, ok := overdueParams(c)
	if !ok {
		return
	}

	passports, err := h.overdueService.ListPassports(c.Request.Context(), days, expired)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, passports)
}

// OverdueVisas 即将到期或已过期的签证
// GET /api/v1/overdue/visas?days=30 或 ?expired=true
func (h *Handler) OverdueVisas(c *gin.Context) {
	days, expired, ok := overdueParams(c)
	if !ok {
		return
	}

	visas, err := h.overdueService.ListVisas(c.Request.Context(), days, expired)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, visas)
}
