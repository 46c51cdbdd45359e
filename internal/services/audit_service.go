// internal/services/audit_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/database"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/utils"
)

// Audit actions written by lifecycle operations.
const (
	AuditLeaseCreated     = "LEASE_CREATED"
	AuditLeaseUpdated     = "LEASE_UPDATED"
	AuditLeaseApproved    = "LEASE_APPROVED"
	AuditLeaseRejected    = "LEASE_REJECTED"
	AuditLeaseDeleted     = "LEASE_DELETED"
	AuditLeaseAutoRenewed = "LEASE_AUTO_RENEWED"
	AuditDocumentAdded    = "DOCUMENT_ADDED"
	AuditDocumentDeleted  = "DOCUMENT_DELETED"
)

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes an audit row on tx so it commits or rolls back with the change it describes.
func (s *AuditService) Record(ctx context.Context, tx *gorm.DB, action, entity string, entityID uint, details string) error {
	id := entityID
	entry := &models.AuditLog{
		Actor:      database.ActorFromContext(ctx),
		Action:     action,
		EntityName: entity,
		EntityID:   &id,
		Details:    details,
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// RequestEntry describes one HTTP request for the request audit trail.
type RequestEntry struct {
	Method     string
	Path       string
	Status     int
	Duration   time.Duration
	IPAddress  string
	UserAgent  string
	EntityName string
	EntityID   *uint
}

// LogRequest persists a request audit row outside any business transaction.
func (s *AuditService) LogRequest(ctx context.Context, e RequestEntry) {
	entry := &models.AuditLog{
		Actor:      database.ActorFromContext(ctx),
		Action:     e.Method + " " + e.Path,
		EntityName: e.EntityName,
		EntityID:   e.EntityID,
		Details:    fmt.Sprintf("status=%d", e.Status),
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
		Payload: models.JSONB{
			"status":      e.Status,
			"duration_ms": e.Duration.Milliseconds(),
		},
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logrus.WithError(err).WithField("action", entry.Action).Error("Failed to create audit log")
	}
}

type AuditFilter struct {
	EntityName string
	EntityID   *uint
	Actor      string
	Action     string
}

func (s *AuditService) List(ctx context.Context, filter AuditFilter, params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.EntityName != "" {
		query = query.Where("entity_name = ?", filter.EntityName)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Actor != "" {
		query = query.Where("actor = ?", filter.Actor)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var logs []models.AuditLog
	query = utils.ApplySort(query, params, []string{"id", "created_at", "action", "actor"})
	if err := utils.ApplyPagination(query, params).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}
