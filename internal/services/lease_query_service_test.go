package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/lease-backend/internal/cache"
	"github.com/javajoker/lease-backend/internal/clock"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/utils"
)

func TestListLeasesWithFilters(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 6, 1))

	a := f.createLease(t, f.request("AGR-100", "2024-01-01", "2024-06-20"))
	_, err := f.leases.Approve(f.ctx, a.ID)
	require.NoError(t, err)
	_, err = f.documents.Upload(f.ctx, a.ID, pdf("a.pdf"), services.DocumentMetadata{})
	require.NoError(t, err)

	bReq := f.request("AGR-200", "2023-01-01", "2024-03-31")
	bReq.LeaseCategory = "Ground Lease"
	bReq.AutoRenewalOption = true
	bReq.RenewalPeriodMonths = months(12)
	f.createLease(t, bReq)

	page := utils.PaginationParams{Page: 1, Limit: 10, Sort: "agreement_number", Order: "asc"}

	leases, total, err := f.queries.List(f.ctx, services.LeaseFilter{Category: "ground"}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "AGR-200", leases[0].AgreementNumber)

	yes := true
	leases, _, err = f.queries.List(f.ctx, services.LeaseFilter{HasDocuments: &yes}, page)
	require.NoError(t, err)
	require.Len(t, leases, 1)
	assert.Equal(t, "AGR-100", leases[0].AgreementNumber)
	require.NotNil(t, leases[0].Site)

	leases, _, err = f.queries.List(f.ctx, services.LeaseFilter{ExpiredOnly: true}, page)
	require.NoError(t, err)
	require.Len(t, leases, 1)
	assert.Equal(t, "AGR-200", leases[0].AgreementNumber)

	n, err := f.queries.Count(f.ctx, services.LeaseFilter{AutoRenewal: &yes})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	soon, err := f.queries.ExpiringSoon(f.ctx)
	require.NoError(t, err)
	require.Len(t, soon, 1)
	assert.Equal(t, "AGR-100", soon[0].AgreementNumber)

	_, _, err = f.queries.Expiring(f.ctx, day("2024-07-01"), day("2024-06-01"), page)
	assertKind(t, err, services.ErrValidation, "Start date cannot be after end date")

	_, _, err = f.queries.ByLandlord(f.ctx, 999, page)
	assertKind(t, err, services.ErrNotFound, "Landlord not found with ID: 999")
}

func TestExpiringSoonBoundaries(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 6, 1))

	f.createLease(t, f.request("AGR-TODAY", "2024-01-01", "2024-06-01"))
	f.createLease(t, f.request("AGR-EDGE", "2024-01-01", "2024-07-01"))
	f.createLease(t, f.request("AGR-OUT", "2024-01-01", "2024-07-02"))

	soon, err := f.queries.ExpiringSoon(f.ctx)
	require.NoError(t, err)
	require.Len(t, soon, 1)
	assert.Equal(t, "AGR-EDGE", soon[0].AgreementNumber)
}

func TestStatisticsAreCachedAndInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	kv := cache.NewRedisKV(client)

	f := newFixture(t, clock.Date(2024, 6, 1))
	leases := services.NewLeaseService(f.db, f.clock, f.audit, nil, kv)
	queries := services.NewLeaseQueryService(f.db, f.clock, kv, time.Minute)

	req := f.request("AGR-1", "2024-01-01", "2024-06-15")
	req.AutoRenewalOption = true
	req.RenewalPeriodMonths = months(12)
	_, err := leases.Create(f.ctx, req)
	require.NoError(t, err)

	stats, err := queries.Statistics(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalLeases)
	assert.Equal(t, int64(1), stats.ByStatus[models.LeaseStatusPendingApproval])
	assert.Equal(t, int64(0), stats.ByStatus[models.LeaseStatusApproved])
	assert.Equal(t, int64(1), stats.LeasesExpiringSoon)
	assert.Equal(t, "12", stats.AverageRenewalPeriodMonths.String())
	assert.Equal(t, "1000", stats.TotalCommencementAmount.String())
	assert.True(t, mr.Exists("lease:stats:summary:2024-06-01"))

	// Rows written behind the service's back are invisible until the cache is invalidated.
	require.NoError(t, f.db.Create(&models.Lease{
		AgreementNumber:  "AGR-RAW",
		LandlordID:       f.landlord.ID,
		SiteID:           f.site.ID,
		CommencementDate: day("2024-01-01"),
		ExpiryDate:       day("2024-01-31"),
		Status:           models.LeaseStatusPendingApproval,
	}).Error)
	stats, err = queries.Statistics(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalLeases)

	_, err = leases.Create(f.ctx, f.request("AGR-2", "2024-01-01", "2025-01-01"))
	require.NoError(t, err)
	assert.False(t, mr.Exists("lease:stats:summary:2024-06-01"))

	stats, err = queries.Statistics(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalLeases)
	assert.Equal(t, int64(1), stats.ExpiredLeases)
}

func TestExpiryStatistics(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 6, 1))
	f.createLease(t, f.request("AGR-PAST", "2024-01-01", "2024-05-31"))
	f.createLease(t, f.request("AGR-WEEK", "2024-01-01", "2024-06-08"))
	f.createLease(t, f.request("AGR-MONTH", "2024-01-01", "2024-07-01"))
	f.createLease(t, f.request("AGR-QUARTER", "2024-01-01", "2024-08-30"))

	stats, err := f.queries.ExpiryStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Expired)
	assert.Equal(t, int64(1), stats.ExpiringThisWeek)
	assert.Equal(t, int64(2), stats.ExpiringThisMonth)
	assert.Equal(t, int64(3), stats.ExpiringNext3Months)

	landlord, err := f.queries.LandlordStatistics(f.ctx, f.landlord.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), landlord.TotalLeases)
	assert.Equal(t, int64(1), landlord.ExpiredLeases)
}
