// internal/services/report_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/clock"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/utils"
)

// UncategorizedBucket groups leases without a category in category summaries.
const UncategorizedBucket = "Uncategorized"

// unspecifiedBucket groups leases whose enum column is empty.
const unspecifiedBucket = "UNSPECIFIED"

type ReportService struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewReportService(db *gorm.DB, clk clock.Clock) *ReportService {
	return &ReportService{db: db, clock: clk}
}

type ReportRequest struct {
	ReportName string            `json:"report_name" validate:"required,max=255"`
	ReportType models.ReportType `json:"report_type" validate:"required"`
	StartDate  *models.Date      `json:"start_date"`
	EndDate    *models.Date      `json:"end_date"`
	Category   string            `json:"category"`
}

type SummaryRow struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// ReportData is the computed content of one report. Lease reports fill Leases; summaries fill Summary.
type ReportData struct {
	Type    models.ReportType `json:"report_type"`
	From    *models.Date      `json:"from,omitempty"`
	To      *models.Date      `json:"to,omitempty"`
	Leases  []models.Lease    `json:"leases,omitempty"`
	Summary []SummaryRow      `json:"summary,omitempty"`
}

// RecordCount is the number of leases, or of summary buckets for summary reports.
func (d *ReportData) RecordCount() int {
	if d.Summary != nil {
		return len(d.Summary)
	}
	return len(d.Leases)
}

type GeneratedReport struct {
	Report  models.Report `json:"report"`
	Message string        `json:"message"`
	Data    *ReportData   `json:"data"`
}

func (s *ReportService) today() models.Date {
	return models.NewDate(s.clock.Today())
}

// Generate computes the report and stores its metadata.
func (s *ReportService) Generate(ctx context.Context, req *ReportRequest) (*GeneratedReport, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalid("%s", utils.ValidationSummary(err))
	}
	req.ReportType = models.ReportType(strings.ToUpper(string(req.ReportType)))

	data, err := s.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	report := models.Report{
		ReportName:     req.ReportName,
		ReportType:     req.ReportType,
		GenerationDate: s.clock.Now(),
		RecordCount:    data.RecordCount(),
	}
	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"report_id":   report.ID,
		"report_type": report.ReportType,
		"records":     report.RecordCount,
	}).Info("Report generated")

	return &GeneratedReport{Report: report, Message: reportMessage(data), Data: data}, nil
}

func reportMessage(d *ReportData) string {
	n := d.RecordCount()
	switch d.Type {
	case models.ReportConsolidatedLeaseRegister:
		return fmt.Sprintf("Consolidated lease register generated with %d records", n)
	case models.ReportExpiredLeases:
		return fmt.Sprintf("Expired leases report generated with %d records", n)
	case models.ReportUpcomingExpirations:
		return fmt.Sprintf("Upcoming expirations report generated with %d records for period %s to %s", n, d.From, d.To)
	case models.ReportCategorySummary:
		return fmt.Sprintf("Category summary report generated with %d categories", n)
	case models.ReportStatusSummary:
		return fmt.Sprintf("Status summary report generated with %d status types", n)
	case models.ReportRentalTypeSummary:
		return fmt.Sprintf("Rental type summary report generated with %d rental types", n)
	case models.ReportLeaseTypeSummary:
		return fmt.Sprintf("Lease type summary report generated with %d lease types", n)
	}
	return fmt.Sprintf("Report generated with %d records", n)
}

// Build computes report content without persisting anything.
func (s *ReportService) Build(ctx context.Context, req *ReportRequest) (*ReportData, error) {
	data := &ReportData{Type: req.ReportType}
	var err error

	switch req.ReportType {
	case models.ReportConsolidatedLeaseRegister:
		data.Leases, err = s.ConsolidatedByCategory(ctx, req.Category)
	case models.ReportExpiredLeases:
		data.Leases, err = s.Expired(ctx)
	case models.ReportUpcomingExpirations:
		var from, to models.Date
		from, to, err = s.upcomingRange(req.StartDate, req.EndDate)
		if err != nil {
			return nil, err
		}
		data.From, data.To = &from, &to
		data.Leases, err = s.expiringBetween(ctx, from, to)
	case models.ReportCategorySummary:
		data.Summary, err = s.CategorySummary(ctx)
	case models.ReportStatusSummary:
		data.Summary, err = s.ColumnSummary(ctx, "status")
	case models.ReportRentalTypeSummary:
		data.Summary, err = s.ColumnSummary(ctx, "rental_type")
	case models.ReportLeaseTypeSummary:
		data.Summary, err = s.ColumnSummary(ctx, "lease_type")
	default:
		return nil, invalid("Unknown report type: %s", req.ReportType)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ConsolidatedByCategory lists every lease, or those whose category contains category (case-insensitive).
func (s *ReportService) ConsolidatedByCategory(ctx context.Context, category string) ([]models.Lease, error) {
	q := s.leases(ctx)
	if category = strings.TrimSpace(category); category != "" {
		q = q.Where("LOWER(lease_category) LIKE ?", "%"+strings.ToLower(category)+"%")
	}
	return s.find(q)
}

// Expired lists leases whose expiry date is before today, whatever their status.
func (s *ReportService) Expired(ctx context.Context) ([]models.Lease, error) {
	return s.find(s.leases(ctx).Where("expiry_date < ?", s.today()))
}

// Upcoming lists leases expiring within [from, to]; the range defaults to today through three months out.
func (s *ReportService) Upcoming(ctx context.Context, from, to *models.Date) ([]models.Lease, error) {
	start, end, err := s.upcomingRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.expiringBetween(ctx, start, end)
}

func (s *ReportService) upcomingRange(from, to *models.Date) (models.Date, models.Date, error) {
	today := s.today()
	start, end := today, today.AddMonths(3)
	if from != nil && !from.IsZero() {
		start = *from
	}
	if to != nil && !to.IsZero() {
		end = *to
	}
	if start.After(end) {
		return models.Date{}, models.Date{}, invalid("Start date cannot be after end date")
	}
	return start, end, nil
}

func (s *ReportService) expiringBetween(ctx context.Context, from, to models.Date) ([]models.Lease, error) {
	return s.find(s.leases(ctx).Where("expiry_date BETWEEN ? AND ?", from, to).Order("expiry_date"))
}

// GroupedBy returns all leases bucketed by column. Category uses the Uncategorized bucket.
func (s *ReportService) GroupedBy(ctx context.Context, column string) (map[string][]models.Lease, error) {
	key, err := groupKeyFunc(column)
	if err != nil {
		return nil, err
	}
	all, err := s.find(s.leases(ctx))
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]models.Lease)
	for _, l := range all {
		k := key(&l)
		grouped[k] = append(grouped[k], l)
	}
	return grouped, nil
}

func groupKeyFunc(column string) (func(*models.Lease) string, error) {
	bucket := func(v, empty string) string {
		if strings.TrimSpace(v) == "" {
			return empty
		}
		return v
	}
	switch column {
	case "lease_category":
		return func(l *models.Lease) string { return bucket(l.LeaseCategory, UncategorizedBucket) }, nil
	case "status":
		return func(l *models.Lease) string { return string(l.Status) }, nil
	case "rental_type":
		return func(l *models.Lease) string { return bucket(string(l.RentalType), unspecifiedBucket) }, nil
	case "lease_type":
		return func(l *models.Lease) string { return bucket(string(l.LeaseType), unspecifiedBucket) }, nil
	}
	return nil, invalid("Unsupported grouping: %s", column)
}

// CategorySummary counts leases per category; leases without one count under Uncategorized.
func (s *ReportService) CategorySummary(ctx context.Context) ([]SummaryRow, error) {
	rows, err := s.groupCounts(ctx, "lease_category")
	if err != nil {
		return nil, err
	}
	return mergeEmpty(rows, UncategorizedBucket), nil
}

// ColumnSummary counts leases per value of an enum column.
func (s *ReportService) ColumnSummary(ctx context.Context, column string) ([]SummaryRow, error) {
	switch column {
	case "status", "rental_type", "lease_type", "operational_status":
	default:
		return nil, invalid("Unsupported grouping: %s", column)
	}
	rows, err := s.groupCounts(ctx, column)
	if err != nil {
		return nil, err
	}
	return mergeEmpty(rows, unspecifiedBucket), nil
}

func (s *ReportService) groupCounts(ctx context.Context, column string) ([]groupCount, error) {
	var rows []groupCount
	err := s.db.WithContext(ctx).Model(&models.Lease{}).
		Select("COALESCE(" + column + ", '') AS group_key, COUNT(*) AS count").
		Group("COALESCE(" + column + ", '')").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarise leases by %s: %w", column, err)
	}
	return rows, nil
}

// mergeEmpty folds blank keys into the named bucket and sorts rows by key.
func mergeEmpty(rows []groupCount, empty string) []SummaryRow {
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		key := strings.TrimSpace(r.GroupKey)
		if key == "" {
			key = empty
		}
		counts[key] += r.Count
	}
	out := make([]SummaryRow, 0, len(counts))
	for k, n := range counts {
		out = append(out, SummaryRow{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *ReportService) leases(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Lease{}).Preload("Landlord").Preload("Site")
}

func (s *ReportService) find(q *gorm.DB) ([]models.Lease, error) {
	var leases []models.Lease
	if err := q.Order("id").Find(&leases).Error; err != nil {
		return nil, fmt.Errorf("failed to load leases: %w", err)
	}
	models.AnnotateLeases(leases, s.today())
	return leases, nil
}

// Report metadata

func (s *ReportService) Get(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, lookupError(err, "Report", id)
	}
	return &report, nil
}

func (s *ReportService) List(ctx context.Context, reportType models.ReportType, params utils.PaginationParams) ([]models.Report, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Report{})
	if reportType != "" {
		q = q.Where("report_type = ?", reportType)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}
	var reports []models.Report
	q = utils.ApplySort(q, params, []string{"id", "report_name", "report_type", "generation_date"})
	if err := utils.ApplyPagination(q, params).Find(&reports).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, total, nil
}

func (s *ReportService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Report{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete report: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("Report not found with ID: %d", id)
	}
	return nil
}
