// internal/services/lease_query_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/cache"
	"github.com/javajoker/lease-backend/internal/clock"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/utils"
)

// LeaseQueryService serves the read-only lease views. Nothing here mutates state.
type LeaseQueryService struct {
	db       *gorm.DB
	clock    clock.Clock
	cache    cache.KV
	statsTTL time.Duration
}

func NewLeaseQueryService(db *gorm.DB, clk clock.Clock, kv cache.KV, statsTTL time.Duration) *LeaseQueryService {
	if kv == nil {
		kv = cache.Nop{}
	}
	return &LeaseQueryService{db: db, clock: clk, cache: kv, statsTTL: statsTTL}
}

// LeaseFilter combines optional predicates with AND. Zero values mean "any".
type LeaseFilter struct {
	AgreementNumber   string
	Status            models.LeaseStatus
	OperationalStatus models.OperationalStatus
	RentalType        models.RentalType
	LeaseType         models.LeaseType
	LandlordID        uint
	SiteID            uint
	Category          string
	AutoRenewal       *bool
	HasDocuments      *bool
	ActiveOnly        bool
	ExpiredOnly       bool
	ExpiringFrom      *models.Date
	ExpiringTo        *models.Date
}

var leaseSortFields = []string{"id", "agreement_number", "commencement_date", "expiry_date", "status", "created_at", "updated_at"}

func (s *LeaseQueryService) today() models.Date {
	return models.NewDate(s.clock.Today())
}

func (s *LeaseQueryService) scope(ctx context.Context, f LeaseFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Lease{})

	if f.AgreementNumber != "" {
		q = q.Where("agreement_number LIKE ?", "%"+f.AgreementNumber+"%")
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.OperationalStatus != "" {
		q = q.Where("operational_status = ?", f.OperationalStatus)
	}
	if f.RentalType != "" {
		q = q.Where("rental_type = ?", f.RentalType)
	}
	if f.LeaseType != "" {
		q = q.Where("lease_type = ?", f.LeaseType)
	}
	if f.LandlordID != 0 {
		q = q.Where("landlord_id = ?", f.LandlordID)
	}
	if f.SiteID != 0 {
		q = q.Where("site_id = ?", f.SiteID)
	}
	if f.Category != "" {
		q = q.Where("LOWER(lease_category) LIKE ?", "%"+strings.ToLower(f.Category)+"%")
	}
	if f.AutoRenewal != nil {
		q = q.Where("auto_renewal_option = ?", *f.AutoRenewal)
	}
	if f.HasDocuments != nil {
		docs := s.db.Model(&models.Document{}).Select("1").Where("documents.lease_id = leases.id")
		if *f.HasDocuments {
			q = q.Where("EXISTS (?)", docs)
		} else {
			q = q.Where("NOT EXISTS (?)", docs)
		}
	}
	if f.ActiveOnly {
		q = q.Where("status NOT IN ?", []models.LeaseStatus{models.LeaseStatusExpired, models.LeaseStatusRejected})
	}
	if f.ExpiredOnly {
		q = q.Where("expiry_date < ?", s.today())
	}
	if f.ExpiringFrom != nil && f.ExpiringTo != nil {
		q = q.Where("expiry_date BETWEEN ? AND ?", *f.ExpiringFrom, *f.ExpiringTo).
			Where("status NOT IN ?", []models.LeaseStatus{models.LeaseStatusExpired, models.LeaseStatusRejected})
	}
	return q
}

// List returns one page of leases matching f, with landlord and site loaded.
func (s *LeaseQueryService) List(ctx context.Context, f LeaseFilter, params utils.PaginationParams) ([]models.Lease, int64, error) {
	var total int64
	if err := s.scope(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count leases: %w", err)
	}

	var leases []models.Lease
	q := utils.ApplySort(s.scope(ctx, f), params, leaseSortFields)
	if err := utils.ApplyPagination(q, params).Preload("Landlord").Preload("Site").Find(&leases).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list leases: %w", err)
	}
	models.AnnotateLeases(leases, s.today())
	return leases, total, nil
}

func (s *LeaseQueryService) Count(ctx context.Context, f LeaseFilter) (int64, error) {
	var total int64
	if err := s.scope(ctx, f).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count leases: %w", err)
	}
	return total, nil
}

// ByLandlord lists a landlord's leases; an unknown landlord is NotFound rather than an empty list.
func (s *LeaseQueryService) ByLandlord(ctx context.Context, landlordID uint, params utils.PaginationParams) ([]models.Lease, int64, error) {
	if err := s.requireLandlord(ctx, landlordID); err != nil {
		return nil, 0, err
	}
	return s.List(ctx, LeaseFilter{LandlordID: landlordID}, params)
}

func (s *LeaseQueryService) BySite(ctx context.Context, siteID uint, params utils.PaginationParams) ([]models.Lease, int64, error) {
	var site models.Site
	if err := s.db.WithContext(ctx).Select("id").First(&site, siteID).Error; err != nil {
		return nil, 0, lookupError(err, "Site", siteID)
	}
	return s.List(ctx, LeaseFilter{SiteID: siteID}, params)
}

// Expiring lists non-terminal leases whose expiry falls in [from, to].
func (s *LeaseQueryService) Expiring(ctx context.Context, from, to models.Date, params utils.PaginationParams) ([]models.Lease, int64, error) {
	if from.After(to) {
		return nil, 0, invalid("Start date cannot be after end date")
	}
	return s.List(ctx, LeaseFilter{ExpiringFrom: &from, ExpiringTo: &to}, params)
}

// ExpiringSoon lists leases that have not expired yet but will within ExpiringSoonDays.
func (s *LeaseQueryService) ExpiringSoon(ctx context.Context) ([]models.Lease, error) {
	today := s.today()
	var leases []models.Lease
	err := s.db.WithContext(ctx).
		Where("expiry_date > ? AND expiry_date <= ?", today, today.AddDays(models.ExpiringSoonDays)).
		Order("expiry_date").
		Find(&leases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list leases expiring soon: %w", err)
	}
	models.AnnotateLeases(leases, today)
	return leases, nil
}

// DueForRenewal lists the leases the sweep would pick up on day.
func (s *LeaseQueryService) DueForRenewal(ctx context.Context, day models.Date) ([]models.Lease, error) {
	var leases []models.Lease
	err := s.db.WithContext(ctx).
		Where("expiry_date = ? AND auto_renewal_option = ?", day, true).
		Order("id").
		Find(&leases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list leases due for renewal: %w", err)
	}
	models.AnnotateLeases(leases, s.today())
	return leases, nil
}

type LeaseStatistics struct {
	AsOf                       models.Date                        `json:"as_of"`
	TotalLeases                int64                              `json:"total_leases"`
	ByStatus                   map[models.LeaseStatus]int64       `json:"by_status"`
	ByOperationalStatus        map[models.OperationalStatus]int64 `json:"by_operational_status"`
	ByRentalType               map[models.RentalType]int64        `json:"by_rental_type"`
	ByLeaseType                map[models.LeaseType]int64         `json:"by_lease_type"`
	ByCategory                 map[string]int64                   `json:"by_category"`
	ExpiredLeases              int64                              `json:"expired_leases"`
	LeasesExpiringSoon         int64                              `json:"leases_expiring_soon"`
	AutoRenewalLeases          int64                              `json:"auto_renewal_leases"`
	AverageRenewalPeriodMonths decimal.Decimal                    `json:"average_renewal_period_months"`
	TotalCommencementAmount    decimal.Decimal                    `json:"total_commencement_amount"`
}

type LandlordLeaseStatistics struct {
	LandlordID        uint                         `json:"landlord_id"`
	TotalLeases       int64                        `json:"total_leases"`
	ByStatus          map[models.LeaseStatus]int64 `json:"by_status"`
	AutoRenewalLeases int64                        `json:"auto_renewal_leases"`
	ExpiredLeases     int64                        `json:"expired_leases"`
}

type ExpiryStatistics struct {
	AsOf                models.Date `json:"as_of"`
	Expired             int64       `json:"expired"`
	ExpiringThisWeek    int64       `json:"expiring_this_week"`
	ExpiringThisMonth   int64       `json:"expiring_this_month"`
	ExpiringNext3Months int64       `json:"expiring_next_3_months"`
}

type groupCount struct {
	GroupKey string
	Count    int64
}

func (s *LeaseQueryService) Statistics(ctx context.Context) (*LeaseStatistics, error) {
	today := s.today()
	key := "lease:stats:summary:" + today.String()

	var stats LeaseStatistics
	if s.cached(ctx, key, &stats) {
		return &stats, nil
	}

	stats = LeaseStatistics{
		AsOf:                today,
		ByStatus:            make(map[models.LeaseStatus]int64),
		ByOperationalStatus: make(map[models.OperationalStatus]int64),
		ByRentalType:        make(map[models.RentalType]int64),
		ByLeaseType:         make(map[models.LeaseType]int64),
		ByCategory:          make(map[string]int64),
	}
	for _, v := range models.LeaseStatuses {
		stats.ByStatus[v] = 0
	}
	for _, v := range models.OperationalStatuses {
		stats.ByOperationalStatus[v] = 0
	}
	for _, v := range models.RentalTypes {
		stats.ByRentalType[v] = 0
	}
	for _, v := range models.LeaseTypes {
		stats.ByLeaseType[v] = 0
	}

	db := s.db.WithContext(ctx).Model(&models.Lease{})
	if err := db.Count(&stats.TotalLeases).Error; err != nil {
		return nil, fmt.Errorf("failed to count leases: %w", err)
	}

	groups := []struct {
		column string
		fill   func(string, int64)
	}{
		{"status", func(k string, n int64) { stats.ByStatus[models.LeaseStatus(k)] = n }},
		{"operational_status", func(k string, n int64) { stats.ByOperationalStatus[models.OperationalStatus(k)] = n }},
		{"rental_type", func(k string, n int64) { stats.ByRentalType[models.RentalType(k)] = n }},
		{"lease_type", func(k string, n int64) { stats.ByLeaseType[models.LeaseType(k)] = n }},
		{"lease_category", func(k string, n int64) { stats.ByCategory[k] = n }},
	}
	for _, g := range groups {
		rows, err := s.groupBy(ctx, g.column)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			g.fill(r.GroupKey, r.Count)
		}
	}

	counts := []struct {
		dst   *int64
		query string
		args  []interface{}
	}{
		{&stats.ExpiredLeases, "expiry_date < ?", []interface{}{today}},
		{&stats.LeasesExpiringSoon, "expiry_date > ? AND expiry_date <= ?", []interface{}{today, today.AddDays(models.ExpiringSoonDays)}},
		{&stats.AutoRenewalLeases, "auto_renewal_option = ?", []interface{}{true}},
	}
	for _, c := range counts {
		if err := s.db.WithContext(ctx).Model(&models.Lease{}).Where(c.query, c.args...).Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("failed to count leases: %w", err)
		}
	}

	avg, err := s.averageRenewalPeriod(ctx)
	if err != nil {
		return nil, err
	}
	stats.AverageRenewalPeriodMonths = avg

	var sum struct {
		Total decimal.NullDecimal
	}
	if err := s.db.WithContext(ctx).Model(&models.Lease{}).Select("SUM(commencement_amount) AS total").Scan(&sum).Error; err != nil {
		return nil, fmt.Errorf("failed to sum commencement amounts: %w", err)
	}
	if sum.Total.Valid {
		stats.TotalCommencementAmount = sum.Total.Decimal
	}

	s.store(ctx, key, &stats)
	return &stats, nil
}

func (s *LeaseQueryService) LandlordStatistics(ctx context.Context, landlordID uint) (*LandlordLeaseStatistics, error) {
	if err := s.requireLandlord(ctx, landlordID); err != nil {
		return nil, err
	}

	today := s.today()
	key := fmt.Sprintf("lease:stats:landlord:%d:%s", landlordID, today)
	var stats LandlordLeaseStatistics
	if s.cached(ctx, key, &stats) {
		return &stats, nil
	}

	stats = LandlordLeaseStatistics{LandlordID: landlordID, ByStatus: make(map[models.LeaseStatus]int64)}
	for _, v := range models.LeaseStatuses {
		stats.ByStatus[v] = 0
	}

	var rows []groupCount
	err := s.db.WithContext(ctx).Model(&models.Lease{}).
		Select("status AS group_key, COUNT(*) AS count").
		Where("landlord_id = ?", landlordID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group leases by status: %w", err)
	}
	for _, r := range rows {
		stats.ByStatus[models.LeaseStatus(r.GroupKey)] = r.Count
		stats.TotalLeases += r.Count
	}

	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Lease{}).Where("landlord_id = ?", landlordID)
	}
	if err := base().Where("auto_renewal_option = ?", true).Count(&stats.AutoRenewalLeases).Error; err != nil {
		return nil, fmt.Errorf("failed to count leases: %w", err)
	}
	if err := base().Where("expiry_date < ?", today).Count(&stats.ExpiredLeases).Error; err != nil {
		return nil, fmt.Errorf("failed to count leases: %w", err)
	}

	s.store(ctx, key, &stats)
	return &stats, nil
}

// ExpiryStatistics counts leases expiring within 7, 30 and 90 days of today, inclusive of both ends.
func (s *LeaseQueryService) ExpiryStatistics(ctx context.Context) (*ExpiryStatistics, error) {
	today := s.today()
	key := "lease:stats:expiry:" + today.String()

	var stats ExpiryStatistics
	if s.cached(ctx, key, &stats) {
		return &stats, nil
	}

	stats.AsOf = today
	if err := s.db.WithContext(ctx).Model(&models.Lease{}).Where("expiry_date < ?", today).Count(&stats.Expired).Error; err != nil {
		return nil, fmt.Errorf("failed to count expired leases: %w", err)
	}

	horizons := []struct {
		days int
		dst  *int64
	}{
		{7, &stats.ExpiringThisWeek},
		{30, &stats.ExpiringThisMonth},
		{90, &stats.ExpiringNext3Months},
	}
	for _, h := range horizons {
		err := s.db.WithContext(ctx).Model(&models.Lease{}).
			Where("expiry_date BETWEEN ? AND ?", today, today.AddDays(h.days)).
			Count(h.dst).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count expiring leases: %w", err)
		}
	}

	s.store(ctx, key, &stats)
	return &stats, nil
}

func (s *LeaseQueryService) groupBy(ctx context.Context, column string) ([]groupCount, error) {
	var rows []groupCount
	err := s.db.WithContext(ctx).Model(&models.Lease{}).
		Select(column + " AS group_key, COUNT(*) AS count").
		Where(column + " IS NOT NULL AND " + column + " <> ''").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group leases by %s: %w", column, err)
	}
	return rows, nil
}

// averageRenewalPeriod is AVG(renewal_period_months) over auto-renewal leases, rounded to two places.
func (s *LeaseQueryService) averageRenewalPeriod(ctx context.Context) (decimal.Decimal, error) {
	var agg struct {
		Total int64
		N     int64
	}
	err := s.db.WithContext(ctx).Model(&models.Lease{}).
		Select("COALESCE(SUM(renewal_period_months), 0) AS total, COUNT(renewal_period_months) AS n").
		Where("auto_renewal_option = ? AND renewal_period_months IS NOT NULL", true).
		Scan(&agg).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to average renewal periods: %w", err)
	}
	if agg.N == 0 {
		return decimal.Zero, nil
	}
	return decimal.NewFromInt(agg.Total).Div(decimal.NewFromInt(agg.N)).Round(2), nil
}

func (s *LeaseQueryService) requireLandlord(ctx context.Context, landlordID uint) error {
	var landlord models.Landlord
	if err := s.db.WithContext(ctx).Select("id").First(&landlord, landlordID).Error; err != nil {
		return lookupError(err, "Landlord", landlordID)
	}
	return nil
}

func (s *LeaseQueryService) cached(ctx context.Context, key string, dst interface{}) bool {
	err := cache.GetJSON(ctx, s.cache, key, dst)
	if err == nil {
		return true
	}
	if err != cache.ErrMiss {
		logrus.WithError(err).WithField("key", key).Warn("Lease statistics cache read failed")
	}
	return false
}

func (s *LeaseQueryService) store(ctx context.Context, key string, value interface{}) {
	if s.statsTTL <= 0 {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, key, value, s.statsTTL); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Lease statistics cache write failed")
	}
}
