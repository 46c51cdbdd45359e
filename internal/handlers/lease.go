// internal/handlers/lease.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/lease-backend/internal/i18n"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/utils"
)

type LeaseHandler struct {
	leaseService    *services.LeaseService
	queryService    *services.LeaseQueryService
	documentService *services.DocumentService
}

func NewLeaseHandler(leaseService *services.LeaseService, queryService *services.LeaseQueryService, documentService *services.DocumentService) *LeaseHandler {
	return &LeaseHandler{
		leaseService:    leaseService,
		queryService:    queryService,
		documentService: documentService,
	}
}

type RejectLeaseRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// POST /leases
func (h *LeaseHandler) CreateLease(c *gin.Context) {
	var req services.LeaseRequest
	if !bindJSON(c, &req) {
		return
	}

	lease, err := h.leaseService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusCreated, i18n.T(utils.GetLangFromContext(c), i18n.KeyLeaseCreated), lease)
}

// GET /leases/:id
func (h *LeaseHandler) GetLease(c *gin.Context) {
	id, ok := paramID(c, "id", "lease")
	if !ok {
		return
	}
	lease, err := h.leaseService.GetLease(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, lease)
}

// PUT /leases/:id
func (h *LeaseHandler) UpdateLease(c *gin.Context) {
	id, ok := paramID(c, "id", "lease")
	if !ok {
		return
	}
	var req services.LeaseRequest
	if !bindJSON(c, &req) {
		return
	}

	lease, err := h.leaseService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyLeaseUpdated), lease)
}

// DELETE /leases/:id
func (h *LeaseHandler) DeleteLease(c *gin.Context) {
	id, ok := paramID(c, "id", "lease")
	if !ok {
		return
	}
	if err := h.leaseService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyLeaseDeleted), nil)
}

// POST /leases/:id/approve
func (h *LeaseHandler) ApproveLease(c *gin.Context) {
	id, ok := paramID(c, "id", "lease")
	if !ok {
		return
	}
	lease, err := h.leaseService.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyLeaseApproved), lease)
}

// POST /leases/:id/reject
func (h *LeaseHandler) RejectLease(c *gin.Context) {
	id, ok := paramID(c, "id", "lease")
	if !ok {
		return
	}
	var req RejectLeaseRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	lease, err := h.leaseService.Reject(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyLeaseRejected, req.Reason), lease)
}

// POST /leases/:id/renew
func (h *LeaseHandler) RenewLease(c *gin.Context) {
	id, ok := paramID(c, "id", "lease")
	if !ok {
		return
	}
	lease, err := h.leaseService.Renew(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyLeaseRenewed), lease)
}

// list runs a filtered, paginated query.
func (h *LeaseHandler) list(c *gin.Context, filter services.LeaseFilter) {
	params := utils.GetPaginationParams(c)
	leases, total, err := h.queryService.List(c.Request.Context(), filter, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, leases, total, params)
}

// GET /leases
func (h *LeaseHandler) GetLeases(c *gin.Context) {
	h.list(c, services.LeaseFilter{})
}

// GET /leases/search
func (h *LeaseHandler) SearchLeases(c *gin.Context) {
	filter := services.LeaseFilter{AgreementNumber: c.Query("agreementNumber")}
	if raw := c.Query("status"); raw != "" {
		s, ok := leaseStatusParam(c, raw)
		if !ok {
			return
		}
		filter.Status = s
	}
	if raw := c.Query("operationalStatus"); raw != "" {
		s, ok := operationalStatusParam(c, raw)
		if !ok {
			return
		}
		filter.OperationalStatus = s
	}
	var ok bool
	if filter.LandlordID, ok = queryID(c, "landlordId"); !ok {
		return
	}
	if filter.SiteID, ok = queryID(c, "siteId"); !ok {
		return
	}
	h.list(c, filter)
}

// GET /leases/pending-approval
func (h *LeaseHandler) GetPendingLeases(c *gin.Context) {
	h.list(c, services.LeaseFilter{Status: models.LeaseStatusPendingApproval})
}

// GET /leases/approved
func (h *LeaseHandler) GetApprovedLeases(c *gin.Context) {
	h.list(c, services.LeaseFilter{Status: models.LeaseStatusApproved})
}

// GET /leases/status/:status
func (h *LeaseHandler) GetLeasesByStatus(c *gin.Context) {
	s, ok := leaseStatusParam(c, c.Param("status"))
	if !ok {
		return
	}
	h.list(c, services.LeaseFilter{Status: s})
}

// GET /leases/operational-status/:status
func (h *LeaseHandler) GetLeasesByOperationalStatus(c *gin.Context) {
	s, ok := operationalStatusParam(c, c.Param("status"))
	if !ok {
		return
	}
	h.list(c, services.LeaseFilter{OperationalStatus: s})
}

// GET /leases/rental-type/:type
func (h *LeaseHandler) GetLeasesByRentalType(c *gin.Context) {
	t, ok := rentalTypeParam(c, c.Param("type"))
	if !ok {
		return
	}
	h.list(c, services.LeaseFilter{RentalType: t})
}

// GET /leases/lease-type/:type
func (h *LeaseHandler) GetLeasesByLeaseType(c *gin.Context) {
	t, ok := leaseTypeParam(c, c.Param("type"))
	if !ok {
		return
	}
	h.list(c, services.LeaseFilter{LeaseType: t})
}

// GET /leases/landlord/:id
func (h *LeaseHandler) GetLeasesByLandlord(c *gin.Context) {
	id, ok := paramID(c, "id", "landlord")
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)
	leases, total, err := h.queryService.ByLandlord(c.Request.Context(), id, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, leases, total, params)
}

// GET /leases/site/:id
func (h *LeaseHandler) GetLeasesBySite(c *gin.Context) {
	id, ok := paramID(c, "id", "site")
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)
	leases, total, err := h.queryService.BySite(c.Request.Context(), id, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, leases, total, params)
}

// GET /leases/category/:category
func (h *LeaseHandler) GetLeasesByCategory(c *gin.Context) {
	h.list(c, services.LeaseFilter{Category: c.Param("category")})
}

// GET /leases/category/:category/status/:status
func (h *LeaseHandler) GetLeasesByCategoryAndStatus(c *gin.Context) {
	s, ok := leaseStatusParam(c, c.Param("status"))
	if !ok {
		return
	}
	h.list(c, services.LeaseFilter{Category: c.Param("category"), Status: s})
}

// GET /leases/expiring?startDate=&endDate=
func (h *LeaseHandler) GetExpiringLeases(c *gin.Context) {
	from, ok := queryDate(c, "startDate")
	if !ok {
		return
	}
	to, ok := queryDate(c, "endDate")
	if !ok {
		return
	}
	if from == nil || to == nil {
		utils.BadRequestResponse(c, "startDate and endDate are required", nil)
		return
	}

	params := utils.GetPaginationParams(c)
	leases, total, err := h.queryService.Expiring(c.Request.Context(), *from, *to, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, leases, total, params)
}

// GET /leases/expiring-soon
func (h *LeaseHandler) GetLeasesExpiringSoon(c *gin.Context) {
	leases, err := h.queryService.ExpiringSoon(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, leases)
}

// GET /leases/due-for-renewal?date=
func (h *LeaseHandler) GetLeasesDueForRenewal(c *gin.Context) {
	day, ok := queryDate(c, "date")
	if !ok {
		return
	}
	if day == nil {
		utils.BadRequestResponse(c, "date is required", nil)
		return
	}
	leases, err := h.queryService.DueForRenewal(c.Request.Context(), *day)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, leases)
}

// GET /leases/expired
func (h *LeaseHandler) GetExpiredLeases(c *gin.Context) {
	h.list(c, services.LeaseFilter{ExpiredOnly: true})
}

// GET /leases/active
func (h *LeaseHandler) GetActiveLeases(c *gin.Context) {
	h.list(c, services.LeaseFilter{ActiveOnly: true})
}

// GET /leases/with-documents
func (h *LeaseHandler) GetLeasesWithDocuments(c *gin.Context) {
	has := true
	h.list(c, services.LeaseFilter{HasDocuments: &has})
}

// GET /leases/without-documents
func (h *LeaseHandler) GetLeasesWithoutDocuments(c *gin.Context) {
	has := false
	h.list(c, services.LeaseFilter{HasDocuments: &has})
}

// GET /leases/auto-renewal/:enabled
func (h *LeaseHandler) GetLeasesByAutoRenewal(c *gin.Context) {
	enabled, err := strconv.ParseBool(c.Param("enabled"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "auto-renewal flag"), nil)
		return
	}
	h.list(c, services.LeaseFilter{AutoRenewal: &enabled})
}

func (h *LeaseHandler) count(c *gin.Context, filter services.LeaseFilter) {
	n, err := h.queryService.Count(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"count": n})
}

// GET /leases/count/total
func (h *LeaseHandler) CountLeases(c *gin.Context) {
	h.count(c, services.LeaseFilter{})
}

// GET /leases/count/status/:status
func (h *LeaseHandler) CountLeasesByStatus(c *gin.Context) {
	s, ok := leaseStatusParam(c, c.Param("status"))
	if !ok {
		return
	}
	h.count(c, services.LeaseFilter{Status: s})
}

// GET /leases/count/operational-status/:status
func (h *LeaseHandler) CountLeasesByOperationalStatus(c *gin.Context) {
	s, ok := operationalStatusParam(c, c.Param("status"))
	if !ok {
		return
	}
	h.count(c, services.LeaseFilter{OperationalStatus: s})
}

// GET /leases/statistics
func (h *LeaseHandler) GetStatistics(c *gin.Context) {
	stats, err := h.queryService.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, stats)
}

// GET /leases/statistics/landlord/:id
func (h *LeaseHandler) GetLandlordStatistics(c *gin.Context) {
	id, ok := paramID(c, "id", "landlord")
	if !ok {
		return
	}
	stats, err := h.queryService.LandlordStatistics(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, stats)
}

// GET /leases/statistics/expiry
func (h *LeaseHandler) GetExpiryStatistics(c *gin.Context) {
	stats, err := h.queryService.ExpiryStatistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, stats)
}

// GET /leases/:id/documents
func (h *LeaseHandler) GetLeaseDocuments(c *gin.Context) {
	id, ok := paramID(c, "id", "lease")
	if !ok {
		return
	}
	docs, err := h.documentService.ByLease(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, docs)
}

// POST /leases/:id/documents
// Multipart form: repeated "files" parts plus a "documents" field holding a JSON array of metadata,
// one entry per file in the same order.
func (h *LeaseHandler) AddDocuments(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := paramID(c, "id", "lease")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "No files provided for upload.", nil)
		return
	}
	var metas []services.DocumentMetadata
	if raw := c.PostForm("documents"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metas); err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "documents"), err.Error())
			return
		}
	}

	files, closeFiles, err := openUploads(form.File["files"])
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeFiles()

	docs, err := h.documentService.AddDocuments(c.Request.Context(), id, files, metas)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusCreated, i18n.T(lang, i18n.KeyLeaseDocumentsAdded, len(docs)), docs)
}
