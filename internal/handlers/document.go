// internal/handlers/document.go
package handlers

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/lease-backend/internal/i18n"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/utils"
)

type DocumentHandler struct {
	documentService *services.DocumentService
}

func NewDocumentHandler(documentService *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

type DeleteDocumentsRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1"`
}

func formLeaseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.PostForm("lease_id"), 10, 64)
	if err != nil || id == 0 {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationID, "lease"), nil)
		return 0, false
	}
	return uint(id), true
}

// POST /documents/upload
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	leaseID, ok := formLeaseID(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "No files provided for upload.", nil)
		return
	}

	files, closeFiles, err := openUploads([]*multipart.FileHeader{header})
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeFiles()

	doc, err := h.documentService.Upload(c.Request.Context(), leaseID, files[0], metadataFromForm(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusCreated, i18n.T(utils.GetLangFromContext(c), i18n.KeyDocumentUploaded), doc)
}

// POST /documents/upload-multiple
func (h *DocumentHandler) UploadDocuments(c *gin.Context) {
	leaseID, ok := formLeaseID(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "No files provided for upload.", nil)
		return
	}

	files, closeFiles, err := openUploads(form.File["files"])
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeFiles()

	docs, err := h.documentService.UploadMultiple(c.Request.Context(), leaseID, files, metadataFromForm(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusCreated, i18n.T(utils.GetLangFromContext(c), i18n.KeyDocumentsUploaded, len(docs)), docs)
}

// GET /documents/validate-upload/:leaseId
func (h *DocumentHandler) ValidateUpload(c *gin.Context) {
	leaseID, ok := paramID(c, "leaseId", "lease")
	if !ok {
		return
	}
	if err := h.documentService.ValidateUpload(c.Request.Context(), leaseID); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyDocumentUploadAllowed), gin.H{"lease_id": leaseID})
}

// GET /documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, ok := paramID(c, "id", "document")
	if !ok {
		return
	}
	doc, err := h.documentService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, doc)
}

// GET /documents/:id/url
func (h *DocumentHandler) GetDocumentURL(c *gin.Context) {
	id, ok := paramID(c, "id", "document")
	if !ok {
		return
	}
	doc, err := h.documentService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"id": doc.ID, "file_url": doc.FileURL})
}

// GET /documents/:id/file
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	id, ok := paramID(c, "id", "document")
	if !ok {
		return
	}
	rc, doc, err := h.documentService.OpenFile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		logrus.WithError(err).WithField("document_id", id).Warn("Document download interrupted")
	}
}

// documentFilter reads the optional list filters from the query string.
func documentFilter(c *gin.Context) (services.DocumentFilter, bool) {
	f := services.DocumentFilter{
		DocumentType: c.Query("documentType"),
		Category:     c.Query("category"),
		FileName:     c.Query("fileName"),
	}
	var ok bool
	if f.LeaseID, ok = queryID(c, "leaseId"); !ok {
		return f, false
	}
	if f.LandlordID, ok = queryID(c, "landlordId"); !ok {
		return f, false
	}
	if f.SiteID, ok = queryID(c, "siteId"); !ok {
		return f, false
	}
	after, ok := queryDate(c, "uploadedAfter")
	if !ok {
		return f, false
	}
	if after != nil {
		t := after.Time
		f.UploadedAfter = &t
	}
	before, ok := queryDate(c, "uploadedBefore")
	if !ok {
		return f, false
	}
	if before != nil {
		t := before.Time
		f.UploadedBefore = &t
	}
	return f, true
}

func (h *DocumentHandler) list(c *gin.Context, f services.DocumentFilter) {
	params := utils.GetPaginationParams(c)
	docs, total, err := h.documentService.List(c.Request.Context(), f, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, docs, total, params)
}

// GET /documents and GET /documents/search
func (h *DocumentHandler) GetDocuments(c *gin.Context) {
	f, ok := documentFilter(c)
	if !ok {
		return
	}
	h.list(c, f)
}

// GET /documents/lease/:leaseId
func (h *DocumentHandler) GetDocumentsByLease(c *gin.Context) {
	leaseID, ok := paramID(c, "leaseId", "lease")
	if !ok {
		return
	}
	docs, err := h.documentService.ByLease(c.Request.Context(), leaseID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, docs)
}

// GET /documents/type/:type
func (h *DocumentHandler) GetDocumentsByType(c *gin.Context) {
	h.list(c, services.DocumentFilter{DocumentType: c.Param("type")})
}

// GET /documents/category/:category
func (h *DocumentHandler) GetDocumentsByCategory(c *gin.Context) {
	h.list(c, services.DocumentFilter{Category: c.Param("category")})
}

// GET /documents/landlord/:id
func (h *DocumentHandler) GetDocumentsByLandlord(c *gin.Context) {
	id, ok := paramID(c, "id", "landlord")
	if !ok {
		return
	}
	h.list(c, services.DocumentFilter{LandlordID: id})
}

// GET /documents/site/:id
func (h *DocumentHandler) GetDocumentsBySite(c *gin.Context) {
	id, ok := paramID(c, "id", "site")
	if !ok {
		return
	}
	h.list(c, services.DocumentFilter{SiteID: id})
}

// GET /documents/latest?limit=
func (h *DocumentHandler) GetLatestDocuments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	docs, err := h.documentService.Latest(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, docs)
}

func (h *DocumentHandler) count(c *gin.Context, f services.DocumentFilter) {
	n, err := h.documentService.Count(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"count": n})
}

// GET /documents/count/lease/:leaseId
func (h *DocumentHandler) CountByLease(c *gin.Context) {
	leaseID, ok := paramID(c, "leaseId", "lease")
	if !ok {
		return
	}
	h.count(c, services.DocumentFilter{LeaseID: leaseID})
}

// GET /documents/count/type/:type
func (h *DocumentHandler) CountByType(c *gin.Context) {
	h.count(c, services.DocumentFilter{DocumentType: c.Param("type")})
}

// GET /documents/count/category/:category
func (h *DocumentHandler) CountByCategory(c *gin.Context) {
	h.count(c, services.DocumentFilter{Category: c.Param("category")})
}

// GET /documents/statistics?leaseId=
func (h *DocumentHandler) GetStatistics(c *gin.Context) {
	leaseID, ok := queryID(c, "leaseId")
	if !ok {
		return
	}
	stats, err := h.documentService.Statistics(c.Request.Context(), leaseID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, stats)
}

// GET /documents/types
func (h *DocumentHandler) GetDocumentTypes(c *gin.Context) {
	types, err := h.documentService.DocumentTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, types)
}

// GET /documents/categories
func (h *DocumentHandler) GetCategories(c *gin.Context) {
	categories, err := h.documentService.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, categories)
}

// PUT /documents/:id
func (h *DocumentHandler) UpdateDocument(c *gin.Context) {
	id, ok := paramID(c, "id", "document")
	if !ok {
		return
	}
	var req services.DocumentMetadata
	if !bindJSON(c, &req) {
		return
	}
	doc, err := h.documentService.UpdateMetadata(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyDocumentUpdated), doc)
}

// DELETE /documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id, ok := paramID(c, "id", "document")
	if !ok {
		return
	}
	if err := h.documentService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyDocumentDeleted), nil)
}

// DELETE /documents
func (h *DocumentHandler) DeleteDocuments(c *gin.Context) {
	var req DeleteDocumentsRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.documentService.DeleteMany(c.Request.Context(), req.IDs); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyDocumentsDeleted, len(req.IDs)), nil)
}

