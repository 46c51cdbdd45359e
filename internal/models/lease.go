// internal/models/lease.go
package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ExpiringSoonDays is the horizon used by IsExpiringSoon.
const ExpiringSoonDays = 30

type Lease struct {
	BaseModel
	AgreementNumber     string            `json:"agreement_number" gorm:"uniqueIndex;size:100;not null"`
	LandlordID          uint              `json:"landlord_id" gorm:"not null;index"`
	SiteID              uint              `json:"site_id" gorm:"not null;index"`
	CommencementDate    Date              `json:"commencement_date" gorm:"type:date;not null"`
	ExpiryDate          Date              `json:"expiry_date" gorm:"type:date;not null;index"`
	Status              LeaseStatus       `json:"status" gorm:"type:varchar(30);not null;index"`
	RentalType          RentalType        `json:"rental_type" gorm:"type:varchar(20);index"`
	RentalValue         *string           `json:"rental_value" gorm:"size:100"`
	CommencementAmount  decimal.Decimal   `json:"commencement_amount" gorm:"type:decimal(15,2)"`
	LeaseType           LeaseType         `json:"lease_type" gorm:"type:varchar(30);index"`
	OperationalStatus   OperationalStatus `json:"operational_status" gorm:"type:varchar(30);index"`
	AutoRenewalOption   bool              `json:"auto_renewal_option" gorm:"not null;default:false;index"`
	RenewalPeriodMonths *int              `json:"renewal_period_months"`
	TerminationClause   string            `json:"termination_clause_details" gorm:"type:text"`
	LeaseCategory       string            `json:"lease_category" gorm:"size:100;index"`

	Landlord *Landlord `json:"landlord,omitempty" gorm:"foreignKey:LandlordID"`
	Site     *Site     `json:"site,omitempty" gorm:"foreignKey:SiteID"`

	// Filled by Annotate for responses; never stored.
	DocumentsAllowed bool `json:"can_attach_documents" gorm:"-"`
	ExpiringSoon     bool `json:"is_expiring_soon" gorm:"-"`
	Expired          bool `json:"is_expired" gorm:"-"`
}

var ErrCommencementAfterExpiry = errors.New("Commencement date cannot be after expiry date.")

// ValidateTerm checks commencement <= expiry.
func ValidateTerm(commencement, expiry Date) error {
	if commencement.After(expiry) {
		return ErrCommencementAfterExpiry
	}
	return nil
}

// ResolveRentalValue derives the stored rental value from the rental type.
// NONE and SWAP force their own literal, ANNUALLY and MONTHLY require caller input.
func ResolveRentalValue(rt RentalType, input string) (*string, error) {
	switch rt {
	case RentalTypeNone, RentalTypeSwap:
		v := string(rt)
		return &v, nil
	case RentalTypeAnnually, RentalTypeMonthly:
		v := strings.TrimSpace(input)
		if v == "" {
			return nil, fmt.Errorf("Rental value cannot be empty for %s rental type.", rt)
		}
		return &v, nil
	}
	return nil, nil
}

// IsExpiringSoon is true when the lease has not expired yet but will within 30 days.
func (l *Lease) IsExpiringSoon(today Date) bool {
	return today.Before(l.ExpiryDate) && !today.AddDays(ExpiringSoonDays).Before(l.ExpiryDate)
}

// IsExpired reports expiry strictly before today, regardless of status.
func (l *Lease) IsExpired(today Date) bool {
	return l.ExpiryDate.Before(today)
}

func (l *Lease) CanAttachDocuments() bool {
	return l.Status.AcceptsDocuments()
}

// Annotate computes the response-only flags as of today.
func (l *Lease) Annotate(today Date) {
	l.DocumentsAllowed = l.CanAttachDocuments()
	l.ExpiringSoon = l.IsExpiringSoon(today)
	l.Expired = l.IsExpired(today)
}

func AnnotateLeases(leases []Lease, today Date) {
	for i := range leases {
		leases[i].Annotate(today)
	}
}

func (l *Lease) IsEditable() bool {
	return !l.Status.Terminal()
}

// HasRenewalTerms reports whether auto-renewal is switched on with a usable period.
func (l *Lease) HasRenewalTerms() bool {
	return l.AutoRenewalOption && l.RenewalPeriodMonths != nil && *l.RenewalPeriodMonths > 0
}

// CanAutoRenew adds the lifecycle guard: only approved-or-later, non-terminal leases renew.
func (l *Lease) CanAutoRenew() bool {
	if !l.HasRenewalTerms() {
		return false
	}
	switch l.Status {
	case LeaseStatusApproved, LeaseStatusActive, LeaseStatusAutoRenewed:
		return true
	}
	return false
}

// ApplyAutoRenewal starts a new term the day after the current expiry and runs it for
// RenewalPeriodMonths months. Callers check CanAutoRenew first.
func (l *Lease) ApplyAutoRenewal() {
	commencement := l.ExpiryDate.AddDays(1)
	l.CommencementDate = commencement
	l.ExpiryDate = commencement.AddMonths(*l.RenewalPeriodMonths)
	l.Status = LeaseStatusAutoRenewed
}
