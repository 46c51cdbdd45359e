package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/lease-backend/internal/clock"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/utils"
)

func TestLandlordWithBankDetails(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 1, 15))
	landlords := services.NewLandlordService(f.db)

	view, err := landlords.Create(f.ctx, &services.LandlordRequest{
		FullName: "  Acme Holdings ",
		Email:    "ops@acme.example",
		BankDetails: []services.BankDetailsRequest{
			{AccountNumber: "12345678", SortCode: "10-20-30", Bank: "First Bank"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings", view.FullName)
	require.Len(t, view.BankDetails, 1)

	_, err = landlords.CreateBankDetails(f.ctx, &services.BankDetailsRequest{
		LandlordID: f.landlord.ID, AccountNumber: "12345678", SortCode: "10-20-30",
	})
	assertKind(t, err, services.ErrConflict, "Bank details with account number '12345678' and sort code '10-20-30' already exists.")

	// Same account number under another sort code is a different account.
	other, err := landlords.CreateBankDetails(f.ctx, &services.BankDetailsRequest{
		LandlordID: f.landlord.ID, AccountNumber: "12345678", SortCode: "99-99-99",
	})
	require.NoError(t, err)

	_, err = landlords.UpdateBankDetails(f.ctx, other.ID, &services.BankDetailsRequest{
		AccountNumber: "12345678", SortCode: "10-20-30",
	})
	assertKind(t, err, services.ErrConflict, "")

	updated, err := landlords.UpdateBankDetails(f.ctx, other.ID, &services.BankDetailsRequest{
		AccountNumber: "12345678", SortCode: "99-99-99", Branch: "Harbour",
	})
	require.NoError(t, err)
	assert.Equal(t, "Harbour", updated.Branch)

	_, err = landlords.CreateBankDetails(f.ctx, &services.BankDetailsRequest{
		LandlordID: 999, AccountNumber: "1", SortCode: "2",
	})
	assertKind(t, err, services.ErrNotFound, "Landlord not found with ID: 999")

	list, total, err := landlords.List(f.ctx, "acme", utils.Unpaged)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, view.ID, list[0].ID)

	require.NoError(t, landlords.Delete(f.ctx, view.ID))
	details, err := landlords.ListBankDetails(f.ctx, 0)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, other.ID, details[0].ID)
}

func TestLandlordAndSiteDeleteRefusedWithLeases(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 1, 15))
	f.createLease(t, f.request("AGR-001", "2024-01-01", "2024-12-31"))

	err := services.NewLandlordService(f.db).Delete(f.ctx, f.landlord.ID)
	assertKind(t, err, services.ErrPrecondition, "Cannot delete landlord with 1 lease(s). Please delete the leases first.")

	err = services.NewSiteService(f.db).Delete(f.ctx, f.site.ID)
	assertKind(t, err, services.ErrPrecondition, "Cannot delete site with 1 lease(s). Please delete the leases first.")
}

func TestSiteNamesAreUnique(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 1, 15))
	sites := services.NewSiteService(f.db)

	_, err := sites.Create(f.ctx, &services.SiteRequest{SiteName: "North Ridge"})
	assertKind(t, err, services.ErrConflict, "A site named 'North Ridge' already exists.")

	site, err := sites.Create(f.ctx, &services.SiteRequest{SiteName: "Harbour", Province: "Eastern"})
	require.NoError(t, err)

	got, total, err := sites.List(f.ctx, services.SiteFilter{Province: "Eastern"}, utils.Unpaged)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, site.ID, got[0].ID)
}

func TestIssueLifecycle(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 1, 15))
	issues := services.NewIssueService(f.db)

	issue, err := issues.Create(f.ctx, &services.IssueRequest{LandlordID: f.landlord.ID, Description: "Access road flooded"})
	require.NoError(t, err)
	assert.Equal(t, models.IssueStatusOpen, issue.Status)

	updated, err := issues.UpdateStatus(f.ctx, issue.ID, models.IssueStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, models.IssueStatusResolved, updated.Status)

	_, err = issues.UpdateStatus(f.ctx, issue.ID, "LOST")
	assertKind(t, err, services.ErrValidation, "Invalid issue status: LOST")

	_, err = issues.Create(f.ctx, &services.IssueRequest{LandlordID: 999, Description: "x"})
	assertKind(t, err, services.ErrNotFound, "Landlord not found with ID: 999")

	list, total, err := issues.List(f.ctx, f.landlord.ID, models.IssueStatusResolved, utils.Unpaged)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, issue.ID, list[0].ID)

	require.NoError(t, issues.Delete(f.ctx, issue.ID))
	assertKind(t, issues.Delete(f.ctx, issue.ID), services.ErrNotFound, "")
}
