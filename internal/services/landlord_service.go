// internal/services/landlord_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/database"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/utils"
)

type LandlordService struct {
	db *gorm.DB
}

func NewLandlordService(db *gorm.DB) *LandlordService {
	return &LandlordService{db: db}
}

type BankDetailsRequest struct {
	LandlordID    uint   `json:"landlord_id"`
	AccountNumber string `json:"account_number" validate:"required,max=50"`
	SortCode      string `json:"sort_code" validate:"required,max=20"`
	Branch        string `json:"branch" validate:"max=255"`
	Bank          string `json:"bank" validate:"max=255"`
	AccountName   string `json:"account_name" validate:"max=255"`
	AccountType   string `json:"account_type" validate:"max=50"`
}

type LandlordRequest struct {
	FullName      string               `json:"full_name" validate:"required,max=255"`
	ContactPerson string               `json:"contact_person" validate:"max=255"`
	ContactNumber string               `json:"contact_number" validate:"max=50"`
	Email         string               `json:"email" validate:"omitempty,email,max=255"`
	BankDetails   []BankDetailsRequest `json:"bank_details" validate:"dive"`
}

// LandlordView is a landlord with its bank accounts.
type LandlordView struct {
	models.Landlord
	BankDetails []models.BankDetails `json:"bank_details"`
}

func duplicateBankDetails(accountNumber, sortCode string) error {
	return conflict("Bank details with account number '%s' and sort code '%s' already exists.", accountNumber, sortCode)
}

// Create stores a landlord and any bank details sent with it in one transaction.
func (s *LandlordService) Create(ctx context.Context, req *LandlordRequest) (*LandlordView, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalid("%s", utils.ValidationSummary(err))
	}

	view := &LandlordView{}
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		view.Landlord = models.Landlord{
			FullName:      strings.TrimSpace(req.FullName),
			ContactPerson: req.ContactPerson,
			ContactNumber: req.ContactNumber,
			Email:         req.Email,
		}
		if err := tx.Create(&view.Landlord).Error; err != nil {
			return fmt.Errorf("failed to create landlord: %w", err)
		}

		for i := range req.BankDetails {
			bd, err := createBankDetails(tx, view.Landlord.ID, &req.BankDetails[i])
			if err != nil {
				return err
			}
			view.BankDetails = append(view.BankDetails, *bd)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithField("landlord_id", view.ID).Info("Landlord created")
	return view, nil
}

func (s *LandlordService) Get(ctx context.Context, id uint) (*LandlordView, error) {
	view := &LandlordView{}
	if err := s.db.WithContext(ctx).First(&view.Landlord, id).Error; err != nil {
		return nil, lookupError(err, "Landlord", id)
	}
	if err := s.db.WithContext(ctx).Where("landlord_id = ?", id).Order("id").Find(&view.BankDetails).Error; err != nil {
		return nil, fmt.Errorf("failed to load bank details: %w", err)
	}
	return view, nil
}

func (s *LandlordService) List(ctx context.Context, search string, params utils.PaginationParams) ([]models.Landlord, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Landlord{})
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(full_name) LIKE ? OR LOWER(contact_person) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count landlords: %w", err)
	}
	var landlords []models.Landlord
	q = utils.ApplySort(q, params, []string{"id", "full_name", "created_at"})
	if err := utils.ApplyPagination(q, params).Find(&landlords).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list landlords: %w", err)
	}
	return landlords, total, nil
}

// Update replaces the landlord's contact fields. Bank details are managed separately.
func (s *LandlordService) Update(ctx context.Context, id uint, req *LandlordRequest) (*models.Landlord, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalid("%s", utils.ValidationSummary(err))
	}

	var landlord models.Landlord
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.First(&landlord, id).Error; err != nil {
			return lookupError(err, "Landlord", id)
		}
		landlord.FullName = strings.TrimSpace(req.FullName)
		landlord.ContactPerson = req.ContactPerson
		landlord.ContactNumber = req.ContactNumber
		landlord.Email = req.Email
		return writeError(database.UpdateVersioned(tx, &landlord), "")
	})
	if err != nil {
		return nil, err
	}
	return &landlord, nil
}

// Delete removes a landlord with no leases, together with its bank details and issues.
func (s *LandlordService) Delete(ctx context.Context, id uint) error {
	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var landlord models.Landlord
		if err := tx.First(&landlord, id).Error; err != nil {
			return lookupError(err, "Landlord", id)
		}

		var leases int64
		if err := tx.Model(&models.Lease{}).Where("landlord_id = ?", id).Count(&leases).Error; err != nil {
			return fmt.Errorf("failed to count leases: %w", err)
		}
		if leases > 0 {
			return precondition("Cannot delete landlord with %d lease(s). Please delete the leases first.", leases)
		}

		for _, model := range []interface{}{&models.BankDetails{}, &models.Issue{}} {
			if err := tx.Where("landlord_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete landlord dependents: %w", err)
			}
		}
		if err := tx.Delete(&landlord).Error; err != nil {
			return fmt.Errorf("failed to delete landlord: %w", err)
		}
		return nil
	})
}

// Bank details

func createBankDetails(tx *gorm.DB, landlordID uint, req *BankDetailsRequest) (*models.BankDetails, error) {
	if err := bankDetailsTaken(tx, req.AccountNumber, req.SortCode, 0); err != nil {
		return nil, err
	}
	bd := &models.BankDetails{LandlordID: landlordID}
	req.applyTo(bd)
	if err := tx.Create(bd).Error; err != nil {
		return nil, writeError(err, duplicateBankDetails(req.AccountNumber, req.SortCode).Error())
	}
	return bd, nil
}

// bankDetailsTaken enforces account number + sort code uniqueness, ignoring the row excludeID.
func bankDetailsTaken(tx *gorm.DB, accountNumber, sortCode string, excludeID uint) error {
	q := tx.Model(&models.BankDetails{}).Where("account_number = ? AND sort_code = ?", accountNumber, sortCode)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check bank details: %w", err)
	}
	if count > 0 {
		return duplicateBankDetails(accountNumber, sortCode)
	}
	return nil
}

func (r *BankDetailsRequest) applyTo(bd *models.BankDetails) {
	bd.AccountNumber = strings.TrimSpace(r.AccountNumber)
	bd.SortCode = strings.TrimSpace(r.SortCode)
	bd.Branch = r.Branch
	bd.Bank = r.Bank
	bd.AccountName = r.AccountName
	bd.AccountType = r.AccountType
}

func (s *LandlordService) CreateBankDetails(ctx context.Context, req *BankDetailsRequest) (*models.BankDetails, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalid("%s", utils.ValidationSummary(err))
	}

	var bd *models.BankDetails
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var landlord models.Landlord
		if err := tx.Select("id").First(&landlord, req.LandlordID).Error; err != nil {
			return lookupError(err, "Landlord", req.LandlordID)
		}
		var err error
		bd, err = createBankDetails(tx, req.LandlordID, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bd, nil
}

func (s *LandlordService) GetBankDetails(ctx context.Context, id uint) (*models.BankDetails, error) {
	var bd models.BankDetails
	if err := s.db.WithContext(ctx).First(&bd, id).Error; err != nil {
		return nil, lookupError(err, "Bank details", id)
	}
	return &bd, nil
}

func (s *LandlordService) ListBankDetails(ctx context.Context, landlordID uint) ([]models.BankDetails, error) {
	q := s.db.WithContext(ctx).Order("id")
	if landlordID != 0 {
		var landlord models.Landlord
		if err := s.db.WithContext(ctx).Select("id").First(&landlord, landlordID).Error; err != nil {
			return nil, lookupError(err, "Landlord", landlordID)
		}
		q = q.Where("landlord_id = ?", landlordID)
	}

	var details []models.BankDetails
	if err := q.Find(&details).Error; err != nil {
		return nil, fmt.Errorf("failed to list bank details: %w", err)
	}
	return details, nil
}

// UpdateBankDetails replaces the account fields; a non-zero LandlordID moves the account to that landlord.
func (s *LandlordService) UpdateBankDetails(ctx context.Context, id uint, req *BankDetailsRequest) (*models.BankDetails, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalid("%s", utils.ValidationSummary(err))
	}

	var bd models.BankDetails
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.First(&bd, id).Error; err != nil {
			return lookupError(err, "Bank details", id)
		}
		if req.LandlordID != 0 {
			var landlord models.Landlord
			if err := tx.Select("id").First(&landlord, req.LandlordID).Error; err != nil {
				return lookupError(err, "Landlord", req.LandlordID)
			}
			bd.LandlordID = req.LandlordID
		}
		if err := bankDetailsTaken(tx, strings.TrimSpace(req.AccountNumber), strings.TrimSpace(req.SortCode), id); err != nil {
			return err
		}

		req.applyTo(&bd)
		return writeError(database.UpdateVersioned(tx, &bd), duplicateBankDetails(req.AccountNumber, req.SortCode).Error())
	})
	if err != nil {
		return nil, err
	}
	return &bd, nil
}

func (s *LandlordService) DeleteBankDetails(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.BankDetails{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete bank details: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("Bank details not found with ID: %d", id)
	}
	return nil
}
