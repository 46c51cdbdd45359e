// internal/services/issue_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/database"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/utils"
)

type IssueService struct {
	db *gorm.DB
}

func NewIssueService(db *gorm.DB) *IssueService {
	return &IssueService{db: db}
}

type IssueRequest struct {
	LandlordID  uint               `json:"landlord_id" validate:"required"`
	Description string             `json:"description" validate:"required,max=5000"`
	Status      models.IssueStatus `json:"status" validate:"omitempty,issue_status"`
}

func (s *IssueService) Create(ctx context.Context, req *IssueRequest) (*models.Issue, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalid("%s", utils.ValidationSummary(err))
	}

	issue := &models.Issue{
		LandlordID:  req.LandlordID,
		Description: req.Description,
		Status:      req.Status,
		CreatedDate: time.Now().UTC(),
	}
	if issue.Status == "" {
		issue.Status = models.IssueStatusOpen
	}

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var landlord models.Landlord
		if err := tx.First(&landlord, req.LandlordID).Error; err != nil {
			return lookupError(err, "Landlord", req.LandlordID)
		}
		if err := tx.Omit("Landlord").Create(issue).Error; err != nil {
			return fmt.Errorf("failed to create issue: %w", err)
		}
		issue.Landlord = &landlord
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func (s *IssueService) Get(ctx context.Context, id uint) (*models.Issue, error) {
	var issue models.Issue
	if err := s.db.WithContext(ctx).Preload("Landlord").First(&issue, id).Error; err != nil {
		return nil, lookupError(err, "Issue", id)
	}
	return &issue, nil
}

func (s *IssueService) List(ctx context.Context, landlordID uint, status models.IssueStatus, params utils.PaginationParams) ([]models.Issue, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Issue{})
	if landlordID != 0 {
		var landlord models.Landlord
		if err := s.db.WithContext(ctx).Select("id").First(&landlord, landlordID).Error; err != nil {
			return nil, 0, lookupError(err, "Landlord", landlordID)
		}
		q = q.Where("landlord_id = ?", landlordID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count issues: %w", err)
	}
	var issues []models.Issue
	q = utils.ApplySort(q, params, []string{"id", "status", "created_date"})
	if err := utils.ApplyPagination(q, params).Preload("Landlord").Find(&issues).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list issues: %w", err)
	}
	return issues, total, nil
}

// Update replaces the description, landlord and (when given) status.
func (s *IssueService) Update(ctx context.Context, id uint, req *IssueRequest) (*models.Issue, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalid("%s", utils.ValidationSummary(err))
	}
	return s.modify(ctx, id, func(tx *gorm.DB, issue *models.Issue) error {
		var landlord models.Landlord
		if err := tx.Select("id").First(&landlord, req.LandlordID).Error; err != nil {
			return lookupError(err, "Landlord", req.LandlordID)
		}
		issue.LandlordID = req.LandlordID
		issue.Description = req.Description
		if req.Status != "" {
			issue.Status = req.Status
		}
		return nil
	})
}

func (s *IssueService) UpdateStatus(ctx context.Context, id uint, status models.IssueStatus) (*models.Issue, error) {
	if !status.Valid() {
		return nil, invalid("Invalid issue status: %s", status)
	}
	return s.modify(ctx, id, func(_ *gorm.DB, issue *models.Issue) error {
		issue.Status = status
		return nil
	})
}

func (s *IssueService) modify(ctx context.Context, id uint, change func(*gorm.DB, *models.Issue) error) (*models.Issue, error) {
	var issue models.Issue
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.First(&issue, id).Error; err != nil {
			return lookupError(err, "Issue", id)
		}
		if err := change(tx, &issue); err != nil {
			return err
		}
		return writeError(database.UpdateVersioned(tx, &issue), "")
	})
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (s *IssueService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Issue{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete issue: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("Issue not found with ID: %d", id)
	}
	return nil
}
