// internal/services/lease_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/lease-backend/internal/cache"
	"github.com/javajoker/lease-backend/internal/clock"
	"github.com/javajoker/lease-backend/internal/database"
	"github.com/javajoker/lease-backend/internal/metrics"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/utils"
)

const statsCachePattern = "lease:stats:*"

type LeaseService struct {
	db       *gorm.DB
	clock    clock.Clock
	audit    *AuditService
	notifier *NotificationService
	cache    cache.KV
}

func NewLeaseService(db *gorm.DB, clk clock.Clock, audit *AuditService, notifier *NotificationService, kv cache.KV) *LeaseService {
	if kv == nil {
		kv = cache.Nop{}
	}
	if audit == nil {
		audit = NewAuditService(db)
	}
	return &LeaseService{
		db:       db,
		clock:    clk,
		audit:    audit,
		notifier: notifier,
		cache:    kv,
	}
}

type LeaseRequest struct {
	AgreementNumber     string                   `json:"agreement_number" validate:"required,max=100"`
	LandlordID          uint                     `json:"landlord_id" validate:"required"`
	SiteID              uint                     `json:"site_id" validate:"required"`
	CommencementDate    models.Date              `json:"commencement_date"`
	ExpiryDate          models.Date              `json:"expiry_date"`
	RentalType          models.RentalType        `json:"rental_type" validate:"omitempty,rental_type"`
	RentalValue         string                   `json:"rental_value" validate:"max=100"`
	CommencementAmount  decimal.Decimal          `json:"commencement_amount"`
	LeaseType           models.LeaseType         `json:"lease_type" validate:"omitempty,lease_type"`
	OperationalStatus   models.OperationalStatus `json:"operational_status" validate:"omitempty,operational_status"`
	AutoRenewalOption   bool                     `json:"auto_renewal_option"`
	RenewalPeriodMonths *int                     `json:"renewal_period_months" validate:"omitempty,min=1,max=600"`
	TerminationClause   string                   `json:"termination_clause_details"`
	LeaseCategory       string                   `json:"lease_category" validate:"max=100"`

	// Version, when set on update, must match the stored version.
	Version *int64 `json:"version,omitempty"`
}

func (r *LeaseRequest) validate() error {
	if err := utils.ValidateStruct(r); err != nil {
		return invalid("%s", utils.ValidationSummary(err))
	}
	if r.CommencementDate.IsZero() {
		return invalid("Commencement date is required.")
	}
	if r.ExpiryDate.IsZero() {
		return invalid("Expiry date is required.")
	}
	return nil
}

// apply copies request fields onto lease after the term and rental rules pass. Status is never touched.
func (r *LeaseRequest) apply(lease *models.Lease) error {
	if err := models.ValidateTerm(r.CommencementDate, r.ExpiryDate); err != nil {
		return invalid("%s", err.Error())
	}
	rentalValue, err := models.ResolveRentalValue(r.RentalType, r.RentalValue)
	if err != nil {
		return invalid("%s", err.Error())
	}

	lease.AgreementNumber = strings.TrimSpace(r.AgreementNumber)
	lease.LandlordID = r.LandlordID
	lease.SiteID = r.SiteID
	lease.CommencementDate = r.CommencementDate
	lease.ExpiryDate = r.ExpiryDate
	lease.RentalType = r.RentalType
	lease.RentalValue = rentalValue
	lease.CommencementAmount = r.CommencementAmount
	lease.LeaseType = r.LeaseType
	lease.OperationalStatus = r.OperationalStatus
	lease.AutoRenewalOption = r.AutoRenewalOption
	lease.RenewalPeriodMonths = r.RenewalPeriodMonths
	lease.TerminationClause = r.TerminationClause
	lease.LeaseCategory = strings.TrimSpace(r.LeaseCategory)
	return nil
}

// Create registers a new lease in PENDING_APPROVAL.
func (s *LeaseService) Create(ctx context.Context, req *LeaseRequest) (*models.Lease, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	lease := &models.Lease{Status: models.LeaseStatusPendingApproval}
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Lease{}).Where("agreement_number = ?", strings.TrimSpace(req.AgreementNumber)).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check agreement number: %w", err)
		}
		if count > 0 {
			return conflict("A lease with this agreement number already exists.")
		}

		landlord, site, err := s.loadParties(tx, req.LandlordID, req.SiteID)
		if err != nil {
			return err
		}
		if err := req.apply(lease); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(lease).Error; err != nil {
			return writeError(err, "A lease with this agreement number already exists.")
		}
		lease.Landlord, lease.Site = landlord, site

		return s.audit.Record(ctx, tx, AuditLeaseCreated, "Lease", lease.ID,
			fmt.Sprintf("Lease %s created", lease.AgreementNumber))
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, lease.Status)
	s.notifier.LeaseCreated(ctx, lease)

	logrus.WithFields(logrus.Fields{
		"lease_id":         lease.ID,
		"agreement_number": lease.AgreementNumber,
	}).Info("Lease created")
	s.annotate(lease)
	return lease, nil
}

func (s *LeaseService) GetLease(ctx context.Context, id uint) (*models.Lease, error) {
	var lease models.Lease
	if err := s.db.WithContext(ctx).Preload("Landlord").Preload("Site").First(&lease, id).Error; err != nil {
		return nil, lookupError(err, "Lease", id)
	}
	s.annotate(&lease)
	return &lease, nil
}

// Update replaces the editable fields of a lease. REJECTED and EXPIRED leases are read-only.
func (s *LeaseService) Update(ctx context.Context, id uint, req *LeaseRequest) (*models.Lease, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		lease, err := s.loadLease(tx, id)
		if err != nil {
			return err
		}
		if req.Version != nil && *req.Version != lease.Version {
			return &ServiceError{Kind: ErrStaleVersion, Message: database.ErrStaleVersion.Error()}
		}
		if !lease.IsEditable() {
			return precondition("Cannot update a %s lease.", lease.Status)
		}

		if _, _, err := s.loadParties(tx, req.LandlordID, req.SiteID); err != nil {
			return err
		}
		if err := req.apply(lease); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Lease{}).Where("agreement_number = ? AND id <> ?", lease.AgreementNumber, id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check agreement number: %w", err)
		}
		if count > 0 {
			return conflict("A lease with this agreement number already exists.")
		}

		if err := database.UpdateVersioned(tx, lease); err != nil {
			return writeError(err, "A lease with this agreement number already exists.")
		}
		return s.audit.Record(ctx, tx, AuditLeaseUpdated, "Lease", lease.ID,
			fmt.Sprintf("Lease %s updated", lease.AgreementNumber))
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	return s.GetLease(ctx, id)
}

func (s *LeaseService) Approve(ctx context.Context, id uint) (*models.Lease, error) {
	lease, err := s.decide(ctx, id, models.LeaseStatusApproved, AuditLeaseApproved, "Lease approved")
	if err != nil {
		return nil, err
	}
	s.notifier.LeaseApproved(ctx, lease)
	return lease, nil
}

// Reject moves a pending lease to REJECTED. A rejection reason only ever appears in the
// response message, so it is not taken here.
func (s *LeaseService) Reject(ctx context.Context, id uint) (*models.Lease, error) {
	lease, err := s.decide(ctx, id, models.LeaseStatusRejected, AuditLeaseRejected, "Lease rejected")
	if err != nil {
		return nil, err
	}
	s.notifier.LeaseRejected(ctx, lease)
	return lease, nil
}

func (s *LeaseService) decide(ctx context.Context, id uint, target models.LeaseStatus, action, details string) (*models.Lease, error) {
	var lease *models.Lease
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		l, err := s.loadLease(tx, id)
		if err != nil {
			return err
		}
		if l.Status != models.LeaseStatusPendingApproval {
			return conflict("Lease is not in pending approval status.")
		}

		l.Status = target
		if err := database.UpdateVersioned(tx, l); err != nil {
			return writeError(err, "")
		}
		lease = l
		return s.audit.Record(ctx, tx, action, "Lease", l.ID, details)
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, target)
	logrus.WithFields(logrus.Fields{"lease_id": id, "status": target}).Info("Lease status changed")
	s.annotate(lease)
	return lease, nil
}

// Delete removes a lease with no attached documents.
func (s *LeaseService) Delete(ctx context.Context, id uint) error {
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		lease, err := s.loadLease(tx, id)
		if err != nil {
			return err
		}

		var documents int64
		if err := tx.Model(&models.Document{}).Where("lease_id = ?", id).Count(&documents).Error; err != nil {
			return fmt.Errorf("failed to count documents: %w", err)
		}
		if documents > 0 {
			return precondition("Cannot delete lease with attached documents. Please delete documents first.")
		}

		res := tx.Where("version = ?", lease.Version).Delete(&models.Lease{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete lease: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return writeError(database.ErrStaleVersion, "")
		}
		return s.audit.Record(ctx, tx, AuditLeaseDeleted, "Lease", id,
			fmt.Sprintf("Lease %s deleted", lease.AgreementNumber))
	})
	if err != nil {
		return err
	}

	s.invalidateStats(ctx)
	logrus.WithField("lease_id", id).Info("Lease deleted")
	return nil
}

// Renew applies the auto-renewal transition immediately, regardless of the expiry date.
func (s *LeaseService) Renew(ctx context.Context, id uint) (*models.Lease, error) {
	var lease *models.Lease
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		l, err := s.loadLease(tx, id)
		if err != nil {
			return err
		}
		if !l.CanAutoRenew() {
			return precondition("Lease %s is not eligible for renewal. Auto-renewal must be enabled with a renewal period and the lease must be approved.", l.AgreementNumber)
		}

		previous := l.ExpiryDate
		l.ApplyAutoRenewal()
		if err := database.UpdateVersioned(tx, l); err != nil {
			return writeError(err, "")
		}
		lease = l
		return s.audit.Record(ctx, tx, AuditLeaseAutoRenewed, "Lease", l.ID,
			fmt.Sprintf("Lease renewed manually: %s -> %s..%s", previous, l.CommencementDate, l.ExpiryDate))
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, lease.Status)
	s.notifier.LeaseAutoRenewed(ctx, lease)
	s.annotate(lease)
	return lease, nil
}

// Sweep outcome results.
const (
	RenewalRenewed = "renewed"
	RenewalSkipped = "skipped"
	RenewalFailed  = "failed"
)

// RenewalOutcome reports what the sweep did with one lease.
type RenewalOutcome struct {
	LeaseID          uint        `json:"lease_id"`
	AgreementNumber  string      `json:"agreement_number"`
	Result           string      `json:"result"`
	Reason           string      `json:"reason,omitempty"`
	PreviousExpiry   models.Date `json:"previous_expiry"`
	CommencementDate models.Date `json:"commencement_date"`
	ExpiryDate       models.Date `json:"expiry_date"`
}

// ProcessAutoRenewals runs the sweep for the clock's current date.
func (s *LeaseService) ProcessAutoRenewals(ctx context.Context) ([]RenewalOutcome, error) {
	return s.RunAutoRenewalSweep(ctx, models.NewDate(s.clock.Today()))
}

// RunAutoRenewalSweep renews every lease expiring on today with auto-renewal enabled.
// Each lease is renewed in its own transaction; a failure is recorded and the sweep continues.
func (s *LeaseService) RunAutoRenewalSweep(ctx context.Context, today models.Date) ([]RenewalOutcome, error) {
	started := time.Now()
	log := logrus.WithField("date", today.String())

	var due []models.Lease
	err := s.db.WithContext(ctx).
		Where("expiry_date = ? AND auto_renewal_option = ?", today, true).
		Order("id").
		Find(&due).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load leases due for renewal: %w", err)
	}

	outcomes := make([]RenewalOutcome, 0, len(due))
	var renewed, skipped, failed int
	for i := range due {
		outcome := s.renewDue(ctx, due[i].ID, today)
		switch outcome.Result {
		case RenewalRenewed:
			renewed++
		case RenewalSkipped:
			skipped++
		default:
			failed++
			log.WithFields(logrus.Fields{
				"lease_id": outcome.LeaseID,
				"reason":   outcome.Reason,
			}).Error("Auto-renewal failed")
		}
		outcomes = append(outcomes, outcome)
	}

	metrics.ObserveSweep(started, renewed, skipped, failed)
	log.WithFields(logrus.Fields{
		"candidates": len(due),
		"renewed":    renewed,
		"skipped":    skipped,
		"failed":     failed,
	}).Info("Auto-renewal sweep completed")
	return outcomes, nil
}

func (s *LeaseService) renewDue(ctx context.Context, id uint, today models.Date) RenewalOutcome {
	outcome := RenewalOutcome{LeaseID: id, Result: RenewalSkipped}

	var lease *models.Lease
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		l, err := s.loadLease(tx, id)
		if err != nil {
			return err
		}
		outcome.AgreementNumber = l.AgreementNumber
		outcome.PreviousExpiry = l.ExpiryDate

		// Re-checked inside the transaction: a concurrent edit may have moved the lease.
		if !l.ExpiryDate.Equal(today) || !l.AutoRenewalOption {
			outcome.Reason = "no longer due for renewal"
			return nil
		}
		if !l.HasRenewalTerms() {
			outcome.Reason = "renewal period not set"
			return nil
		}
		if !l.CanAutoRenew() {
			outcome.Reason = fmt.Sprintf("status %s is not renewable", l.Status)
			return nil
		}

		l.ApplyAutoRenewal()
		if err := database.UpdateVersioned(tx, l); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, AuditLeaseAutoRenewed, "Lease", l.ID,
			fmt.Sprintf("Lease auto-renewed: %s -> %s..%s", outcome.PreviousExpiry, l.CommencementDate, l.ExpiryDate)); err != nil {
			return err
		}

		outcome.Result = RenewalRenewed
		outcome.CommencementDate = l.CommencementDate
		outcome.ExpiryDate = l.ExpiryDate
		lease = l
		return nil
	})
	if err != nil {
		return RenewalOutcome{
			LeaseID:         id,
			AgreementNumber: outcome.AgreementNumber,
			Result:          RenewalFailed,
			Reason:          err.Error(),
			PreviousExpiry:  outcome.PreviousExpiry,
		}
	}

	if lease != nil {
		s.afterTransition(ctx, lease.Status)
		s.notifier.LeaseAutoRenewed(ctx, lease)
	}
	return outcome
}

func (s *LeaseService) annotate(lease *models.Lease) {
	lease.Annotate(models.NewDate(s.clock.Today()))
}

func (s *LeaseService) loadLease(tx *gorm.DB, id uint) (*models.Lease, error) {
	var lease models.Lease
	if err := tx.First(&lease, id).Error; err != nil {
		return nil, lookupError(err, "Lease", id)
	}
	return &lease, nil
}

func (s *LeaseService) loadParties(tx *gorm.DB, landlordID, siteID uint) (*models.Landlord, *models.Site, error) {
	var landlord models.Landlord
	if err := tx.First(&landlord, landlordID).Error; err != nil {
		return nil, nil, lookupError(err, "Landlord", landlordID)
	}
	var site models.Site
	if err := tx.First(&site, siteID).Error; err != nil {
		return nil, nil, lookupError(err, "Site", siteID)
	}
	return &landlord, &site, nil
}

func (s *LeaseService) afterTransition(ctx context.Context, status models.LeaseStatus) {
	metrics.LeaseTransitions.WithLabelValues(string(status)).Inc()
	s.invalidateStats(ctx)
}

func (s *LeaseService) invalidateStats(ctx context.Context) {
	if err := s.cache.Delete(ctx, statsCachePattern); err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Warn("Failed to invalidate lease statistics cache")
	}
}
