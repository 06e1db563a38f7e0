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
// 护照相关接口
// ============================================================

// ListPassports 护照列表
// GET /api/v1/passports?q=xxx&clientId=1&days=30&expired=true
func (h *Handler) ListPassports(c *gin.Context) {
	filter := repository.PassportFilter{
		Q:       c.Query("q"),
		Expired: c.Query("expired") == "true",
	}
	if v := c.Query("clientId"); v != "" {
		clientID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.ParamError(c, "clientId 参数错误")
			return
		}
		filter.ClientID = &clientID
	}
	if v := c.Query("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			response.ParamError(c, "days 参数错误")
			return
		}
		filter.Days = &days
	}

	passports, err := h.passportService.ListPassports(c.Request.Context(), filter)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, passports)
}

// GetPassport 护照详情
// GET /api/v1/passports/:passportNo
func (h *Handler) GetPassport(c *gin.Context) {
	passport, err := h.passportService.GetPassport(c.Request.Context(), c.Param("passportNo"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, passport)
}

// CreatePassport 登记护照
// POST /api/v1/passports
func (h *Handler) CreatePassport(c *gin.Context) {
	var req service.PassportInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	passport, err := h.passportService.CreatePassport(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, passport)
}

// UpdatePassportRequest 更新护照请求，全部字段可选
type UpdatePassportRequest struct {
	Country     *string    `json:"country"`
	FullName    *string    `json:"fullName"`
	Gender      *string    `json:"gender"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	IssueDate   *time.Time `json:"issueDate"`
	ExpiryDate  *time.Time `json:"expiryDate"`
	InStock     *bool      `json:"inStock"`
	IsFollowing *bool      `json:"isFollowing"`
	Status      *string    `json:"status"`
	Remark      *string    `json:"remark"`
}

// UpdatePassport 更新护照
// PATCH /api/v1/passports/:passportNo
func (h *Handler) UpdatePassport(c *gin.Context) {
	var req UpdatePassportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.DateOfBirth != nil {
		updates["date_of_birth"] = *req.DateOfBirth
	}
	if req.IssueDate != nil {
		updates["issue_date"] = *req.IssueDate
	}
	if req.ExpiryDate != nil {
		updates["expiry_date"] = *req.ExpiryDate
	}
	if req.InStock != nil {
		updates["in_stock"] = *req.InStock
	}
	if req.IsFollowing != nil {
		updates["is_following"] = *req.IsFollowing
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Remark != nil {
		updates["remark"] = *req.Remark
	}

	passport, err := h.passportService.UpdatePassport(c.Request.Context(), actorID(c), c.Param("passportNo"), updates)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, passport)
}

// DeletePassport 删除护照
// DELETE /api/v1/passports/:passportNo
func (h *Handler) DeletePassport(c *gin.Context) {
	if err := h.passportService.DeletePassport(c.Request.Context(), actorID(c), c.Param("passportNo")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "护照已删除"})
}
