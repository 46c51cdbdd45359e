// internal/handlers/site.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/lease-backend/internal/i18n"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/utils"
)

type SiteHandler struct {
	siteService *services.SiteService
}

func NewSiteHandler(siteService *services.SiteService) *SiteHandler {
	return &SiteHandler{siteService: siteService}
}

// POST /sites
func (h *SiteHandler) CreateSite(c *gin.Context) {
	var req services.SiteRequest
	if !bindJSON(c, &req) {
		return
	}
	site, err := h.siteService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, site)
}

// GET /sites/:id
func (h *SiteHandler) GetSite(c *gin.Context) {
	id, ok := paramID(c, "id", "site")
	if !ok {
		return
	}
	site, err := h.siteService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, site)
}

// GET /sites?name=&province=&district=
func (h *SiteHandler) GetSites(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := services.SiteFilter{
		Name:     c.Query("name"),
		Province: c.Query("province"),
		District: c.Query("district"),
	}
	sites, total, err := h.siteService.List(c.Request.Context(), filter, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, sites, total, params)
}

// PUT /sites/:id
func (h *SiteHandler) UpdateSite(c *gin.Context) {
	id, ok := paramID(c, "id", "site")
	if !ok {
		return
	}
	var req services.SiteRequest
	if !bindJSON(c, &req) {
		return
	}
	site, err := h.siteService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, site)
}

// DELETE /sites/:id
func (h *SiteHandler) DeleteSite(c *gin.Context) {
	id, ok := paramID(c, "id", "site")
	if !ok {
		return
	}
	if err := h.siteService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeySiteDeleted), nil)
}
