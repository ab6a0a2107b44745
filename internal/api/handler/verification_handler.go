package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/college-connect/internal/middleware"
	"github.com/d60-Lab/college-connect/internal/service"
	"github.com/d60-Lab/college-connect/pkg/response"
)

// SubmitVerification 提交学生认证
// @Summary 提交学生认证材料
// @Tags 认证审核
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param fullName formData string true "姓名"
// @Param dob formData string true "出生日期"
// @Param collegeName formData string true "学校"
// @Param collegePlace formData string true "学校所在地"
// @Param idCard formData file true "学生证"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /verification/submit [post]
func (h *Handler) SubmitVerification(c *gin.Context) {
	card, closeFn, err := formBlob(c, "idCard")
	if err != nil {
		response.BadRequest(c, "Invalid ID card upload")
		return
	}
	defer closeFn()

	rec, err := h.verification.Submit(c.Request.Context(), middleware.UserID(c), service.SubmitVerificationInput{
		FullName:     c.PostForm("fullName"),
		DOB:          c.PostForm("dob"),
		CollegeName:  c.PostForm("collegeName"),
		CollegePlace: c.PostForm("collegePlace"),
		IDCard:       card,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"message":      "Verification submitted",
		"status":       rec.Status,
		"reviewDueAt":  rec.ReviewDueAt,
		"verification": rec,
	})
}

// VerificationStatus 查询认证状态
// @Summary 查询认证状态，未提交时 verification 为 null
// @Tags 认证审核
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /verification/status [get]
func (h *Handler) VerificationStatus(c *gin.Context) {
	rec, err := h.verification.GetStatus(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"verification": rec})
}
