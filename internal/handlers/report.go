// internal/handlers/report.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/lease-backend/internal/i18n"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// POST /reports/generate
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	var req services.ReportRequest
	if !bindJSON(c, &req) {
		return
	}
	generated, err := h.reportService.Generate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusCreated, generated.Message, generated)
}

// GET /reports?reportType=
func (h *ReportHandler) GetReports(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	reportType := models.ReportType(strings.ToUpper(c.Query("reportType")))
	reports, total, err := h.reportService.List(c.Request.Context(), reportType, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, reports, total, params)
}

// GET /reports/:id
func (h *ReportHandler) GetReport(c *gin.Context) {
	id, ok := paramID(c, "id", "report")
	if !ok {
		return
	}
	report, err := h.reportService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, report)
}

// DELETE /reports/:id
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	id, ok := paramID(c, "id", "report")
	if !ok {
		return
	}
	if err := h.reportService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyReportDeleted), nil)
}

// GET /reports/consolidated?category=
func (h *ReportHandler) GetConsolidated(c *gin.Context) {
	leases, err := h.reportService.ConsolidatedByCategory(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, leases)
}

// GET /reports/expired
func (h *ReportHandler) GetExpired(c *gin.Context) {
	leases, err := h.reportService.Expired(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, leases)
}

// GET /reports/upcoming?startDate=&endDate=
func (h *ReportHandler) GetUpcoming(c *gin.Context) {
	from, ok := queryDate(c, "startDate")
	if !ok {
		return
	}
	to, ok := queryDate(c, "endDate")
	if !ok {
		return
	}
	leases, err := h.reportService.Upcoming(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, leases)
}

// GET /reports/category-summary
func (h *ReportHandler) GetCategorySummary(c *gin.Context) {
	rows, err := h.reportService.CategorySummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, rows)
}

// GroupedBy serves GET /reports/by-status, /by-rental-type and /by-lease-type.
func (h *ReportHandler) GroupedBy(column string) gin.HandlerFunc {
	return func(c *gin.Context) {
		grouped, err := h.reportService.GroupedBy(c.Request.Context(), column)
		if err != nil {
			respondError(c, err)
			return
		}
		utils.SuccessResponse(c, grouped)
	}
}

// Summary serves GET /reports/status-summary, /rental-type-summary and /lease-type-summary.
func (h *ReportHandler) Summary(column string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := h.reportService.ColumnSummary(c.Request.Context(), column)
		if err != nil {
			respondError(c, err)
			return
		}
		utils.SuccessResponse(c, rows)
	}
}

// GET /reports/export?reportType=&category=&startDate=&endDate=
func (h *ReportHandler) ExportReport(c *gin.Context) {
	from, ok := queryDate(c, "startDate")
	if !ok {
		return
	}
	to, ok := queryDate(c, "endDate")
	if !ok {
		return
	}
	req := services.ReportRequest{
		ReportName: "export",
		ReportType: models.ReportType(c.DefaultQuery("reportType", string(models.ReportConsolidatedLeaseRegister))),
		StartDate:  from,
		EndDate:    to,
		Category:   c.Query("category"),
	}

	content, err := h.reportService.Export(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	fileName := strings.ToLower(string(req.ReportType)) + ".xlsx"
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Data(http.StatusOK, xlsxContentType, content)
}
