package services_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/clock"
	"github.com/javajoker/lease-backend/internal/database"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/testutil"
)

type fixture struct {
	db        *gorm.DB
	ctx       context.Context
	clock     clock.Fixed
	audit     *services.AuditService
	leases    *services.LeaseService
	queries   *services.LeaseQueryService
	documents *services.DocumentService
	reports   *services.ReportService
	landlord  *models.Landlord
	site      *models.Site
}

func newFixture(t *testing.T, today time.Time) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	clk := clock.Fixed{Day: today}
	audit := services.NewAuditService(db)
	store := services.NewLocalStore(t.TempDir(), "/uploads")

	f := &fixture{
		db:        db,
		ctx:       database.WithActor(context.Background(), "alice"),
		clock:     clk,
		audit:     audit,
		leases:    services.NewLeaseService(db, clk, audit, nil, nil),
		queries:   services.NewLeaseQueryService(db, clk, nil, time.Minute),
		documents: services.NewDocumentService(db, store, clk, audit, 1<<20),
		reports:   services.NewReportService(db, clk),
		landlord:  &models.Landlord{FullName: "Jane Doe", Email: "jane@example.com"},
		site:      &models.Site{SiteName: "North Ridge", Province: "Western"},
	}
	require.NoError(t, db.Create(f.landlord).Error)
	require.NoError(t, db.Create(f.site).Error)
	return f
}

func day(s string) models.Date {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func months(n int) *int { return &n }

func (f *fixture) request(agreement, commencement, expiry string) *services.LeaseRequest {
	return &services.LeaseRequest{
		AgreementNumber:    agreement,
		LandlordID:         f.landlord.ID,
		SiteID:             f.site.ID,
		CommencementDate:   day(commencement),
		ExpiryDate:         day(expiry),
		RentalType:         models.RentalTypeMonthly,
		RentalValue:        "1500",
		CommencementAmount: decimal.NewFromInt(1000),
		LeaseType:          models.LeaseTypeLongTerm,
		OperationalStatus:  models.OperationalStatusOperational,
		LeaseCategory:      "Rooftop",
	}
}

func (f *fixture) createLease(t *testing.T, req *services.LeaseRequest) *models.Lease {
	t.Helper()
	lease, err := f.leases.Create(f.ctx, req)
	require.NoError(t, err)
	return lease
}

// forceStatus moves a lease without going through the lifecycle rules.
func (f *fixture) forceStatus(t *testing.T, id uint, status models.LeaseStatus) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.Lease{}).Where("id = ?", id).Update("status", status).Error)
}

func (f *fixture) reload(t *testing.T, id uint) *models.Lease {
	t.Helper()
	var lease models.Lease
	require.NoError(t, f.db.First(&lease, id).Error)
	return &lease
}

func pdf(name string) services.UploadFile {
	content := []byte("%PDF-1.4 test document")
	return services.UploadFile{
		FileName:    name,
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Content:     bytes.NewReader(content),
	}
}
