// internal/handlers/landlord.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/lease-backend/internal/i18n"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/utils"
)

type LandlordHandler struct {
	landlordService *services.LandlordService
}

func NewLandlordHandler(landlordService *services.LandlordService) *LandlordHandler {
	return &LandlordHandler{landlordService: landlordService}
}

// POST /landlords
func (h *LandlordHandler) CreateLandlord(c *gin.Context) {
	var req services.LandlordRequest
	if !bindJSON(c, &req) {
		return
	}
	landlord, err := h.landlordService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, landlord)
}

// GET /landlords/:id
func (h *LandlordHandler) GetLandlord(c *gin.Context) {
	id, ok := paramID(c, "id", "landlord")
	if !ok {
		return
	}
	landlord, err := h.landlordService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, landlord)
}

// GET /landlords?search=
func (h *LandlordHandler) GetLandlords(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	landlords, total, err := h.landlordService.List(c.Request.Context(), c.Query("search"), params)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, landlords, total, params)
}

// PUT /landlords/:id
func (h *LandlordHandler) UpdateLandlord(c *gin.Context) {
	id, ok := paramID(c, "id", "landlord")
	if !ok {
		return
	}
	var req services.LandlordRequest
	if !bindJSON(c, &req) {
		return
	}
	landlord, err := h.landlordService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, landlord)
}

// DELETE /landlords/:id
func (h *LandlordHandler) DeleteLandlord(c *gin.Context) {
	id, ok := paramID(c, "id", "landlord")
	if !ok {
		return
	}
	if err := h.landlordService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyLandlordDeleted), nil)
}

// GET /landlords/:id/bank-details and GET /bank-details/landlord/:id
func (h *LandlordHandler) GetLandlordBankDetails(c *gin.Context) {
	id, ok := paramID(c, "id", "landlord")
	if !ok {
		return
	}
	details, err := h.landlordService.ListBankDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, details)
}

// GET /bank-details
func (h *LandlordHandler) GetBankDetailsList(c *gin.Context) {
	details, err := h.landlordService.ListBankDetails(c.Request.Context(), 0)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, details)
}

// POST /bank-details
func (h *LandlordHandler) CreateBankDetails(c *gin.Context) {
	var req services.BankDetailsRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.LandlordID == 0 {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationID, "landlord"), nil)
		return
	}
	details, err := h.landlordService.CreateBankDetails(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, details)
}

// GET /bank-details/:id
func (h *LandlordHandler) GetBankDetails(c *gin.Context) {
	id, ok := paramID(c, "id", "bank details")
	if !ok {
		return
	}
	details, err := h.landlordService.GetBankDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, details)
}

// PUT /bank-details/:id
func (h *LandlordHandler) UpdateBankDetails(c *gin.Context) {
	id, ok := paramID(c, "id", "bank details")
	if !ok {
		return
	}
	var req services.BankDetailsRequest
	if !bindJSON(c, &req) {
		return
	}
	details, err := h.landlordService.UpdateBankDetails(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, details)
}

// DELETE /bank-details/:id
func (h *LandlordHandler) DeleteBankDetails(c *gin.Context) {
	id, ok := paramID(c, "id", "bank details")
	if !ok {
		return
	}
	if err := h.landlordService.DeleteBankDetails(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyBankDetailsDeleted), nil)
}
