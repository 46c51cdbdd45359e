// internal/services/site_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/database"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/utils"
)

type SiteService struct {
	db *gorm.DB
}

func NewSiteService(db *gorm.DB) *SiteService {
	return &SiteService{db: db}
}

type SiteRequest struct {
	SiteName string `json:"site_name" validate:"required,max=255"`
	Province string `json:"province" validate:"max=100"`
	District string `json:"district" validate:"max=100"`
	Zone     string `json:"zone" validate:"max=100"`
}

func (r *SiteRequest) applyTo(site *models.Site) {
	site.SiteName = strings.TrimSpace(r.SiteName)
	site.Province = r.Province
	site.District = r.District
	site.Zone = r.Zone
}

func siteNameTaken(name string) error {
	return conflict("A site named '%s' already exists.", name)
}

func (s *SiteService) Create(ctx context.Context, req *SiteRequest) (*models.Site, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalid("%s", utils.ValidationSummary(err))
	}

	site := &models.Site{}
	req.applyTo(site)
	if err := s.db.WithContext(ctx).Create(site).Error; err != nil {
		return nil, writeError(err, siteNameTaken(site.SiteName).Error())
	}
	return site, nil
}

func (s *SiteService) Get(ctx context.Context, id uint) (*models.Site, error) {
	var site models.Site
	if err := s.db.WithContext(ctx).First(&site, id).Error; err != nil {
		return nil, lookupError(err, "Site", id)
	}
	return &site, nil
}

type SiteFilter struct {
	Name     string
	Province string
	District string
}

func (s *SiteService) List(ctx context.Context, f SiteFilter, params utils.PaginationParams) ([]models.Site, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Site{})
	if f.Name != "" {
		q = q.Where("LOWER(site_name) LIKE ?", "%"+strings.ToLower(f.Name)+"%")
	}
	if f.Province != "" {
		q = q.Where("province = ?", f.Province)
	}
	if f.District != "" {
		q = q.Where("district = ?", f.District)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sites: %w", err)
	}
	var sites []models.Site
	q = utils.ApplySort(q, params, []string{"id", "site_name", "province", "district", "created_at"})
	if err := utils.ApplyPagination(q, params).Find(&sites).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list sites: %w", err)
	}
	return sites, total, nil
}

func (s *SiteService) Update(ctx context.Context, id uint, req *SiteRequest) (*models.Site, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalid("%s", utils.ValidationSummary(err))
	}

	var site models.Site
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.First(&site, id).Error; err != nil {
			return lookupError(err, "Site", id)
		}
		req.applyTo(&site)
		return writeError(database.UpdateVersioned(tx, &site), siteNameTaken(site.SiteName).Error())
	})
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// Delete removes a site no lease refers to.
func (s *SiteService) Delete(ctx context.Context, id uint) error {
	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var site models.Site
		if err := tx.First(&site, id).Error; err != nil {
			return lookupError(err, "Site", id)
		}
		var leases int64
		if err := tx.Model(&models.Lease{}).Where("site_id = ?", id).Count(&leases).Error; err != nil {
			return fmt.Errorf("failed to count leases: %w", err)
		}
		if leases > 0 {
			return precondition("Cannot delete site with %d lease(s). Please delete the leases first.", leases)
		}
		return tx.Delete(&site).Error
	})
}
