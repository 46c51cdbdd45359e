// internal/handlers/issue.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/lease-backend/internal/i18n"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/utils"
)

type IssueHandler struct {
	issueService *services.IssueService
}

func NewIssueHandler(issueService *services.IssueService) *IssueHandler {
	return &IssueHandler{issueService: issueService}
}

type IssueStatusRequest struct {
	Status models.IssueStatus `json:"status" validate:"required"`
}

// POST /issues
func (h *IssueHandler) CreateIssue(c *gin.Context) {
	var req services.IssueRequest
	if !bindJSON(c, &req) {
		return
	}
	issue, err := h.issueService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, issue)
}

// GET /issues/:id
func (h *IssueHandler) GetIssue(c *gin.Context) {
	id, ok := paramID(c, "id", "issue")
	if !ok {
		return
	}
	issue, err := h.issueService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, issue)
}

func (h *IssueHandler) list(c *gin.Context, landlordID uint) {
	status := models.IssueStatus(strings.ToUpper(c.Query("status")))
	if status != "" && !status.Valid() {
		utils.BadRequestResponse(c, "Invalid issue status: "+c.Query("status"), nil)
		return
	}
	params := utils.GetPaginationParams(c)
	issues, total, err := h.issueService.List(c.Request.Context(), landlordID, status, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, issues, total, params)
}

// GET /issues?landlordId=&status=
func (h *IssueHandler) GetIssues(c *gin.Context) {
	landlordID, ok := queryID(c, "landlordId")
	if !ok {
		return
	}
	h.list(c, landlordID)
}

// GET /issues/landlord/:id
func (h *IssueHandler) GetIssuesByLandlord(c *gin.Context) {
	id, ok := paramID(c, "id", "landlord")
	if !ok {
		return
	}
	h.list(c, id)
}

// PUT /issues/:id
func (h *IssueHandler) UpdateIssue(c *gin.Context) {
	id, ok := paramID(c, "id", "issue")
	if !ok {
		return
	}
	var req services.IssueRequest
	if !bindJSON(c, &req) {
		return
	}
	issue, err := h.issueService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, issue)
}

// PATCH /issues/:id/status
func (h *IssueHandler) UpdateIssueStatus(c *gin.Context) {
	id, ok := paramID(c, "id", "issue")
	if !ok {
		return
	}
	var req IssueStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	issue, err := h.issueService.UpdateStatus(c.Request.Context(), id, models.IssueStatus(strings.ToUpper(string(req.Status))))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, issue)
}

// DELETE /issues/:id
func (h *IssueHandler) DeleteIssue(c *gin.Context) {
	id, ok := paramID(c, "id", "issue")
	if !ok {
		return
	}
	if err := h.issueService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyIssueDeleted), nil)
}
