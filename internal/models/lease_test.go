package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/lease-backend/internal/clock"
)

func TestIsExpiringSoon(t *testing.T) {
	today := NewDate(clock.Date(2024, 1, 1))

	cases := []struct {
		name   string
		expiry string
		want   bool
	}{
		{"within window", "2024-01-20", true},
		{"exactly thirty days", "2024-01-31", true},
		{"beyond window", "2024-02-15", false},
		{"already past", "2023-12-31", false},
		{"expires today", "2024-01-01", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expiry, err := ParseDate(tc.expiry)
			require.NoError(t, err)
			l := &Lease{ExpiryDate: expiry}
			assert.Equal(t, tc.want, l.IsExpiringSoon(today))
		})
	}
}

func TestAnnotate(t *testing.T) {
	today := NewDate(clock.Date(2024, 1, 1))
	leases := []Lease{
		{Status: LeaseStatusApproved, ExpiryDate: NewDate(clock.Date(2024, 1, 10))},
		{Status: LeaseStatusPendingApproval, ExpiryDate: NewDate(clock.Date(2023, 12, 1))},
	}
	AnnotateLeases(leases, today)

	assert.True(t, leases[0].DocumentsAllowed)
	assert.True(t, leases[0].ExpiringSoon)
	assert.False(t, leases[0].Expired)

	assert.False(t, leases[1].DocumentsAllowed)
	assert.False(t, leases[1].ExpiringSoon)
	assert.True(t, leases[1].Expired)
}

func TestCanAttachDocumentsForEveryStatus(t *testing.T) {
	allowed := map[LeaseStatus]bool{
		LeaseStatusApproved:    true,
		LeaseStatusActive:      true,
		LeaseStatusAutoRenewed: true,
	}
	for _, s := range LeaseStatuses {
		l := &Lease{Status: s}
		assert.Equal(t, allowed[s], l.CanAttachDocuments(), string(s))
	}
}

func TestResolveRentalValue(t *testing.T) {
	v, err := ResolveRentalValue(RentalTypeNone, "1200")
	require.NoError(t, err)
	assert.Equal(t, "NONE", *v)

	v, err = ResolveRentalValue(RentalTypeSwap, "")
	require.NoError(t, err)
	assert.Equal(t, "SWAP", *v)

	v, err = ResolveRentalValue(RentalTypeMonthly, "  1500.00 ")
	require.NoError(t, err)
	assert.Equal(t, "1500.00", *v)

	_, err = ResolveRentalValue(RentalTypeMonthly, "   ")
	assert.EqualError(t, err, "Rental value cannot be empty for MONTHLY rental type.")

	_, err = ResolveRentalValue(RentalTypeAnnually, "")
	assert.EqualError(t, err, "Rental value cannot be empty for ANNUALLY rental type.")

	v, err = ResolveRentalValue("", "ignored")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestValidateTerm(t *testing.T) {
	d := func(y int, m time.Month, day int) Date { return NewDate(clock.Date(y, m, day)) }
	assert.NoError(t, ValidateTerm(d(2024, 1, 1), d(2024, 1, 1)))
	assert.NoError(t, ValidateTerm(d(2024, 1, 1), d(2025, 1, 1)))
	assert.ErrorIs(t, ValidateTerm(d(2025, 1, 2), d(2025, 1, 1)), ErrCommencementAfterExpiry)
}

func TestApplyAutoRenewal(t *testing.T) {
	months := 6
	l := &Lease{
		Status:              LeaseStatusActive,
		CommencementDate:    NewDate(clock.Date(2023, 7, 1)),
		ExpiryDate:          NewDate(clock.Date(2024, 6, 30)),
		AutoRenewalOption:   true,
		RenewalPeriodMonths: &months,
	}
	require.True(t, l.CanAutoRenew())

	l.ApplyAutoRenewal()
	assert.Equal(t, "2024-07-01", l.CommencementDate.String())
	assert.Equal(t, "2025-01-01", l.ExpiryDate.String())
	assert.Equal(t, LeaseStatusAutoRenewed, l.Status)
}

func TestCanAutoRenewGuards(t *testing.T) {
	months := 3
	zero := 0

	assert.False(t, (&Lease{Status: LeaseStatusActive, AutoRenewalOption: false, RenewalPeriodMonths: &months}).CanAutoRenew())
	assert.False(t, (&Lease{Status: LeaseStatusActive, AutoRenewalOption: true}).CanAutoRenew())
	assert.False(t, (&Lease{Status: LeaseStatusActive, AutoRenewalOption: true, RenewalPeriodMonths: &zero}).CanAutoRenew())
	assert.False(t, (&Lease{Status: LeaseStatusRejected, AutoRenewalOption: true, RenewalPeriodMonths: &months}).CanAutoRenew())
	assert.False(t, (&Lease{Status: LeaseStatusPendingApproval, AutoRenewalOption: true, RenewalPeriodMonths: &months}).CanAutoRenew())
	assert.True(t, (&Lease{Status: LeaseStatusAutoRenewed, AutoRenewalOption: true, RenewalPeriodMonths: &months}).CanAutoRenew())
}

func TestUserPassword(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("S3cure!pass"))
	assert.NotEqual(t, "S3cure!pass", u.PasswordHash)
	assert.NoError(t, u.CheckPassword("S3cure!pass"))
	assert.Error(t, u.CheckPassword("wrong"))
}

func TestDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-06-30")
	require.NoError(t, err)

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-06-30", v)

	raw, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-30"`, string(raw))

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)))
	assert.True(t, scanned.Equal(d))

	require.NoError(t, scanned.Scan("2024-06-30 00:00:00+00:00"))
	assert.True(t, scanned.Equal(d))

	var zero Date
	raw, err = zero.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}
