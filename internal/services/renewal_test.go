package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/clock"
	"github.com/javajoker/lease-backend/internal/database"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/services"
)

func TestAutoRenewalSweep(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 6, 30))

	due := f.request("AGR-DUE", "2024-01-01", "2024-06-30")
	due.AutoRenewalOption = true
	due.RenewalPeriodMonths = months(6)
	renewable := f.createLease(t, due)
	_, err := f.leases.Approve(f.ctx, renewable.ID)
	require.NoError(t, err)

	manual := f.createLease(t, f.request("AGR-MANUAL", "2024-01-01", "2024-06-30"))
	_, err = f.leases.Approve(f.ctx, manual.ID)
	require.NoError(t, err)

	pendingReq := f.request("AGR-PENDING", "2024-01-01", "2024-06-30")
	pendingReq.AutoRenewalOption = true
	pendingReq.RenewalPeriodMonths = months(6)
	pending := f.createLease(t, pendingReq)

	ctx := database.WithActor(context.Background(), database.SystemActor)
	outcomes, err := f.leases.ProcessAutoRenewals(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	byID := map[uint]services.RenewalOutcome{}
	for _, o := range outcomes {
		byID[o.LeaseID] = o
	}

	renewedOutcome := byID[renewable.ID]
	assert.Equal(t, services.RenewalRenewed, renewedOutcome.Result)
	assert.Equal(t, "2024-06-30", renewedOutcome.PreviousExpiry.String())
	assert.Equal(t, "2024-07-01", renewedOutcome.CommencementDate.String())
	assert.Equal(t, "2025-01-01", renewedOutcome.ExpiryDate.String())

	assert.Equal(t, services.RenewalSkipped, byID[pending.ID].Result)

	renewed := f.reload(t, renewable.ID)
	assert.Equal(t, models.LeaseStatusAutoRenewed, renewed.Status)
	assert.Equal(t, "2024-07-01", renewed.CommencementDate.String())
	assert.Equal(t, "2025-01-01", renewed.ExpiryDate.String())
	assert.Equal(t, database.SystemActor, renewed.ModifiedBy)

	untouched := f.reload(t, manual.ID)
	assert.Equal(t, models.LeaseStatusApproved, untouched.Status)
	assert.Equal(t, "2024-06-30", untouched.ExpiryDate.String())

	assert.Equal(t, models.LeaseStatusPendingApproval, f.reload(t, pending.ID).Status)

	var logs []models.AuditLog
	require.NoError(t, f.db.Where("action = ?", services.AuditLeaseAutoRenewed).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, renewable.ID, *logs[0].EntityID)

	// A second run on the same day finds nothing left to renew.
	again, err := f.leases.RunAutoRenewalSweep(ctx, day("2024-06-30"))
	require.NoError(t, err)
	for _, o := range again {
		assert.NotEqual(t, services.RenewalRenewed, o.Result)
	}
	assert.Equal(t, "2025-01-01", f.reload(t, renewable.ID).ExpiryDate.String())
}

func TestAutoRenewalSweepClampsMonthEnd(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 1, 30))

	req := f.request("AGR-EOM", "2023-02-01", "2024-01-30")
	req.AutoRenewalOption = true
	req.RenewalPeriodMonths = months(1)
	lease := f.createLease(t, req)
	_, err := f.leases.Approve(f.ctx, lease.ID)
	require.NoError(t, err)

	_, err = f.leases.ProcessAutoRenewals(f.ctx)
	require.NoError(t, err)

	renewed := f.reload(t, lease.ID)
	assert.Equal(t, "2024-01-31", renewed.CommencementDate.String())
	assert.Equal(t, "2024-02-29", renewed.ExpiryDate.String())
}

func TestAutoRenewalSweepIgnoresOtherDays(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 6, 29))

	req := f.request("AGR-LATER", "2024-01-01", "2024-06-30")
	req.AutoRenewalOption = true
	req.RenewalPeriodMonths = months(6)
	lease := f.createLease(t, req)
	_, err := f.leases.Approve(f.ctx, lease.ID)
	require.NoError(t, err)

	outcomes, err := f.leases.ProcessAutoRenewals(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, outcomes)

	due, err := f.queries.DueForRenewal(f.ctx, day("2024-06-30"))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, lease.ID, due[0].ID)
}

func TestAutoRenewalSweepContinuesPastFailure(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 6, 30))

	var ids []uint
	for _, agreement := range []string{"AGR-1", "AGR-FAIL", "AGR-3"} {
		req := f.request(agreement, "2024-01-01", "2024-06-30")
		req.AutoRenewalOption = true
		req.RenewalPeriodMonths = months(12)
		lease := f.createLease(t, req)
		_, err := f.leases.Approve(f.ctx, lease.ID)
		require.NoError(t, err)
		ids = append(ids, lease.ID)
	}

	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:fail_lease", func(db *gorm.DB) {
		if l, ok := db.Statement.Model.(*models.Lease); ok && l.AgreementNumber == "AGR-FAIL" {
			db.AddError(errors.New("boom"))
		}
	}))

	outcomes, err := f.leases.ProcessAutoRenewals(f.ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, services.RenewalRenewed, outcomes[0].Result)
	assert.Equal(t, services.RenewalFailed, outcomes[1].Result)
	assert.Equal(t, "AGR-FAIL", outcomes[1].AgreementNumber)
	assert.Contains(t, outcomes[1].Reason, "boom")
	assert.Equal(t, services.RenewalRenewed, outcomes[2].Result)

	for _, id := range []uint{ids[0], ids[2]} {
		lease := f.reload(t, id)
		assert.Equal(t, models.LeaseStatusAutoRenewed, lease.Status)
		assert.Equal(t, "2024-07-01", lease.CommencementDate.String())
		assert.Equal(t, "2025-07-01", lease.ExpiryDate.String())
	}

	failed := f.reload(t, ids[1])
	assert.Equal(t, models.LeaseStatusApproved, failed.Status)
	assert.Equal(t, "2024-06-30", failed.ExpiryDate.String())

	var audited int64
	require.NoError(t, f.db.Model(&models.AuditLog{}).Where("action = ?", services.AuditLeaseAutoRenewed).Count(&audited).Error)
	assert.Equal(t, int64(2), audited)
}
