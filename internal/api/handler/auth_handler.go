package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/college-connect/pkg/response"
)

type signUpRequest struct {
	Email    string `json:"email" binding:"required,college_email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName" binding:"required"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUp 注册
// @Summary 注册（仅限学校邮箱）
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body signUpRequest true "注册信息"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /auth/signup [post]
func (h *Handler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	acc, profile, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"user":   gin.H{"id": acc.ID, "email": acc.Email, "fullName": acc.FullName},
		"userId": profile.UserID,
	})
}

// SignIn 登录
// @Summary 登录，返回 bearer token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body signInRequest true "登录信息"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /auth/signin [post]
func (h *Handler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	acc := res.Session.Account
	response.Success(c, gin.H{
		"accessToken": res.Session.AccessToken,
		"expiresAt":   res.Session.ExpiresAt,
		"user":        gin.H{"id": acc.ID, "email": acc.Email, "fullName": acc.FullName},
		"profile":     res.Profile,
	})
}
