package handler

import (
	"strconv"

	"visacenter/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// 用户管理接口
// ============================================================

// ListUsers 用户列表
// GET /api/v1/users
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, users)
}

// CreateUser 创建用户
// POST /api/v1/users
func (h *Handler) CreateUser(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		IsActive *bool  `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	user, err := h.userService.CreateUser(c.Request.Context(), actorID(c), req.Username, req.Password, isActive)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateUser 更新用户口令或启用状态
// PATCH /api/v1/users/:id
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "id 参数错误")
		return
	}

	var req struct {
		Password *string `json:"password"`
		IsActive *bool   `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), actorID(c), id, req.Password, req.IsActive)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}
