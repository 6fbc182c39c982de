// internal/handlers/license.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/services"
	"github.com/javajoker/pirotecnica-backend/internal/utils"
)

type LicenseHandler struct {
	licenseService *services.LicenseService
}

func NewLicenseHandler(licenseService *services.LicenseService) *LicenseHandler {
	return &LicenseHandler{
		licenseService: licenseService,
	}
}

// POST /auth/apply-license
func (h *LicenseHandler) ApplyForLicense(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.LicenseApplication
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, err)
		return
	}

	applicant, err := h.licenseService.Apply(c.Request.Context(), user.ID, &req)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLicenseApplied),
		"user":    applicant,
	})
}

// GET /auth/pending-licenses
func (h *LicenseHandler) GetPendingLicenses(c *gin.Context) {
	users, err := h.licenseService.ListPending(c.Request.Context())
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, users)
}

// PUT /auth/approve-license/:id
func (h *LicenseHandler) ApproveLicense(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.licenseService.Approve(c.Request.Context(), id)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLicenseApproved),
		"user":    user,
	})
}

// PUT /auth/reject-license/:id
func (h *LicenseHandler) RejectLicense(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.licenseService.Reject(c.Request.Context(), id)
	if err != nil {
		utils.ErrorFromErr(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLicenseRejected),
		"user":    user,
	})
}
