// internal/services/document_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/clock"
	"github.com/javajoker/lease-backend/internal/database"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/utils"
)

// DefaultMaxFileSize is the upload limit when none is configured (10 MiB).
const DefaultMaxFileSize int64 = 10 << 20

type DocumentService struct {
	db          *gorm.DB
	store       DocumentStore
	clock       clock.Clock
	audit       *AuditService
	maxFileSize int64
}

func NewDocumentService(db *gorm.DB, store DocumentStore, clk clock.Clock, audit *AuditService, maxFileSize int64) *DocumentService {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	if audit == nil {
		audit = NewAuditService(db)
	}
	return &DocumentService{db: db, store: store, clock: clk, audit: audit, maxFileSize: maxFileSize}
}

type DocumentMetadata struct {
	DocumentType string `json:"document_type" validate:"max=100"`
	Category     string `json:"category" validate:"max=100"`
	Description  string `json:"description" validate:"max=2000"`
}

// UploadFile is one incoming file. Size is the declared size; the content is measured again while reading.
type UploadFile struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// ValidateFile applies the upload rules in order: PDF extension, no traversal, size limit.
func (s *DocumentService) ValidateFile(f UploadFile) error {
	if !strings.EqualFold(filepath.Ext(f.FileName), ".pdf") {
		return invalid("Only PDF files are allowed.")
	}
	if strings.Contains(f.FileName, "..") {
		return invalid("Invalid file path sequence.")
	}
	if f.Size > s.maxFileSize {
		return invalid("File size must be less than %dMB.", s.maxFileSize>>20)
	}
	return nil
}

// ValidateUpload reports whether the lease currently accepts documents.
func (s *DocumentService) ValidateUpload(ctx context.Context, leaseID uint) error {
	_, err := s.attachableLease(s.db.WithContext(ctx), leaseID)
	return err
}

// Upload attaches a single PDF to a lease.
func (s *DocumentService) Upload(ctx context.Context, leaseID uint, file UploadFile, meta DocumentMetadata) (*models.Document, error) {
	docs, err := s.AddDocuments(ctx, leaseID, []UploadFile{file}, []DocumentMetadata{meta})
	if err != nil {
		return nil, err
	}
	return &docs[0], nil
}

// UploadMultiple attaches several PDFs sharing the same metadata.
func (s *DocumentService) UploadMultiple(ctx context.Context, leaseID uint, files []UploadFile, meta DocumentMetadata) ([]models.Document, error) {
	metas := make([]DocumentMetadata, len(files))
	for i := range metas {
		metas[i] = meta
	}
	return s.AddDocuments(ctx, leaseID, files, metas)
}

// AddDocuments attaches files[i] with metas[i] to the lease. Either every document is attached or none is.
func (s *DocumentService) AddDocuments(ctx context.Context, leaseID uint, files []UploadFile, metas []DocumentMetadata) ([]models.Document, error) {
	var (
		docs   []models.Document
		stored []string
	)
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		lease, err := s.attachableLease(tx, leaseID)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return invalid("No files provided for upload.")
		}
		if len(files) != len(metas) {
			return conflict("Number of files must match number of document requests.")
		}
		for i := range files {
			if err := s.ValidateFile(files[i]); err != nil {
				return err
			}
			if err := utils.ValidateStruct(&metas[i]); err != nil {
				return invalid("%s", utils.ValidationSummary(err))
			}
		}

		for i := range files {
			doc, err := s.storeFile(ctx, lease, files[i], metas[i])
			if err != nil {
				return err
			}
			stored = append(stored, doc.StorageKey)

			if err := tx.Create(doc).Error; err != nil {
				return fmt.Errorf("failed to save document: %w", err)
			}
			if err := s.audit.Record(ctx, tx, AuditDocumentAdded, "Lease", lease.ID,
				fmt.Sprintf("Document %s attached", doc.FileName)); err != nil {
				return err
			}
			docs = append(docs, *doc)
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, stored)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"lease_id": leaseID, "count": len(docs)}).Info("Documents attached to lease")
	return docs, nil
}

func (s *DocumentService) storeFile(ctx context.Context, lease *models.Lease, f UploadFile, meta DocumentMetadata) (*models.Document, error) {
	data, err := io.ReadAll(io.LimitReader(f.Content, s.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, invalid("File size must be less than %dMB.", s.maxFileSize>>20)
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}

	key := DocumentKey(f.FileName)
	url, err := s.store.Save(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store document file: %w", err)
	}

	return &models.Document{
		LeaseID:      lease.ID,
		LandlordID:   lease.LandlordID,
		SiteID:       lease.SiteID,
		DocumentType: meta.DocumentType,
		Category:     meta.Category,
		Description:  meta.Description,
		FileName:     filepath.Base(f.FileName),
		StorageKey:   key,
		FileURL:      url,
		FileSize:     int64(len(data)),
		ContentType:  contentType,
		Checksum:     utils.HashBytes(data),
		UploadTime:   s.clock.Now(),
	}, nil
}

// discard removes stored files whose rows are gone or were never written.
func (s *DocumentService) discard(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Failed to remove orphaned document file")
		}
	}
}

func (s *DocumentService) attachableLease(db *gorm.DB, leaseID uint) (*models.Lease, error) {
	var lease models.Lease
	if err := db.First(&lease, leaseID).Error; err != nil {
		return nil, lookupError(err, "Lease", leaseID)
	}
	if !lease.CanAttachDocuments() {
		return nil, precondition("Documents can only be attached to approved leases. Current status: %s", lease.Status)
	}
	return &lease, nil
}

func (s *DocumentService) Get(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	if err := s.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		return nil, lookupError(err, "Document", id)
	}
	return &doc, nil
}

// DocumentFilter combines optional predicates with AND. FileName matches a case-insensitive substring.
type DocumentFilter struct {
	LeaseID        uint
	LandlordID     uint
	SiteID         uint
	DocumentType   string
	Category       string
	FileName       string
	UploadedAfter  *time.Time
	UploadedBefore *time.Time
}

var documentSortFields = []string{"id", "file_name", "document_type", "category", "upload_time", "file_size"}

func (s *DocumentService) scope(ctx context.Context, f DocumentFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Document{})
	if f.LeaseID != 0 {
		q = q.Where("lease_id = ?", f.LeaseID)
	}
	if f.LandlordID != 0 {
		q = q.Where("landlord_id = ?", f.LandlordID)
	}
	if f.SiteID != 0 {
		q = q.Where("site_id = ?", f.SiteID)
	}
	if f.DocumentType != "" {
		q = q.Where("document_type = ?", f.DocumentType)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.FileName != "" {
		q = q.Where("LOWER(file_name) LIKE ?", "%"+strings.ToLower(f.FileName)+"%")
	}
	if f.UploadedAfter != nil {
		q = q.Where("upload_time > ?", *f.UploadedAfter)
	}
	if f.UploadedBefore != nil {
		q = q.Where("upload_time < ?", *f.UploadedBefore)
	}
	return q
}

func (s *DocumentService) List(ctx context.Context, f DocumentFilter, params utils.PaginationParams) ([]models.Document, int64, error) {
	var total int64
	if err := s.scope(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	var docs []models.Document
	q := utils.ApplySort(s.scope(ctx, f), params, documentSortFields)
	if err := utils.ApplyPagination(q, params).Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, total, nil
}

// ByLease lists a lease's documents, newest first. An unknown lease is NotFound.
func (s *DocumentService) ByLease(ctx context.Context, leaseID uint) ([]models.Document, error) {
	var lease models.Lease
	if err := s.db.WithContext(ctx).Select("id").First(&lease, leaseID).Error; err != nil {
		return nil, lookupError(err, "Lease", leaseID)
	}
	var docs []models.Document
	if err := s.scope(ctx, DocumentFilter{LeaseID: leaseID}).Order("upload_time DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

func (s *DocumentService) Latest(ctx context.Context, limit int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 10
	}
	var docs []models.Document
	if err := s.db.WithContext(ctx).Order("upload_time DESC, id DESC").Limit(limit).Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list latest documents: %w", err)
	}
	return docs, nil
}

func (s *DocumentService) Count(ctx context.Context, f DocumentFilter) (int64, error) {
	var total int64
	if err := s.scope(ctx, f).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return total, nil
}

func (s *DocumentService) UpdateMetadata(ctx context.Context, id uint, meta DocumentMetadata) (*models.Document, error) {
	if err := utils.ValidateStruct(&meta); err != nil {
		return nil, invalid("%s", utils.ValidationSummary(err))
	}

	var doc models.Document
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.First(&doc, id).Error; err != nil {
			return lookupError(err, "Document", id)
		}
		doc.DocumentType = meta.DocumentType
		doc.Category = meta.Category
		doc.Description = meta.Description
		return writeError(database.UpdateVersioned(tx, &doc), "")
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Delete removes the document row and its stored file together.
func (s *DocumentService) Delete(ctx context.Context, id uint) error {
	return s.DeleteMany(ctx, []uint{id})
}

// DeleteMany deletes every listed document row or none of them. Stored files are removed only
// once the rows are gone; a file that cannot be removed is logged and left behind.
func (s *DocumentService) DeleteMany(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return invalid("No document IDs provided.")
	}

	var docs []models.Document
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		for _, id := range ids {
			var doc models.Document
			if err := tx.First(&doc, id).Error; err != nil {
				return lookupError(err, "Document", id)
			}
			docs = append(docs, doc)
		}

		for _, doc := range docs {
			if err := tx.Delete(&models.Document{}, doc.ID).Error; err != nil {
				return fmt.Errorf("failed to delete document: %w", err)
			}
			if err := s.audit.Record(ctx, tx, AuditDocumentDeleted, "Lease", doc.LeaseID,
				fmt.Sprintf("Document %s deleted", doc.FileName)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	keys := make([]string, len(docs))
	for i, doc := range docs {
		keys[i] = doc.StorageKey
	}
	s.discard(ctx, keys)

	logrus.WithField("count", len(docs)).Info("Documents deleted")
	return nil
}

// OpenFile returns the stored bytes for a document. The caller closes the reader.
func (s *DocumentService) OpenFile(ctx context.Context, id uint) (io.ReadCloser, *models.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return nil, nil, notFound("File not found for document ID: %d", id)
		}
		return nil, nil, fmt.Errorf("failed to open document file: %w", err)
	}
	return rc, doc, nil
}

type DocumentStatistics struct {
	TotalDocuments int64            `json:"total_documents"`
	TotalSize      int64            `json:"total_size"`
	ByType         map[string]int64 `json:"by_type"`
	ByCategory     map[string]int64 `json:"by_category"`
	LatestUpload   *time.Time       `json:"latest_upload,omitempty"`
}

// Statistics aggregates over all documents, or a single lease's when leaseID is non-zero.
func (s *DocumentService) Statistics(ctx context.Context, leaseID uint) (*DocumentStatistics, error) {
	if leaseID != 0 {
		var lease models.Lease
		if err := s.db.WithContext(ctx).Select("id").First(&lease, leaseID).Error; err != nil {
			return nil, lookupError(err, "Lease", leaseID)
		}
	}
	filter := DocumentFilter{LeaseID: leaseID}

	stats := &DocumentStatistics{ByType: map[string]int64{}, ByCategory: map[string]int64{}}
	var agg struct {
		N     int64
		Total int64
	}
	if err := s.scope(ctx, filter).Select("COUNT(*) AS n, COALESCE(SUM(file_size), 0) AS total").Scan(&agg).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate documents: %w", err)
	}
	stats.TotalDocuments, stats.TotalSize = agg.N, agg.Total

	for column, dst := range map[string]map[string]int64{"document_type": stats.ByType, "category": stats.ByCategory} {
		var rows []groupCount
		err := s.scope(ctx, filter).
			Select(column + " AS group_key, COUNT(*) AS count").
			Group(column).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to group documents by %s: %w", column, err)
		}
		for _, r := range rows {
			dst[r.GroupKey] = r.Count
		}
	}

	var latest models.Document
	err := s.scope(ctx, filter).Order("upload_time DESC").Limit(1).Find(&latest).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load latest document: %w", err)
	}
	if latest.ID != 0 {
		t := latest.UploadTime
		stats.LatestUpload = &t
	}
	return stats, nil
}

func (s *DocumentService) DocumentTypes(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "document_type")
}

func (s *DocumentService) Categories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "category")
}

func (s *DocumentService) distinct(ctx context.Context, column string) ([]string, error) {
	var values []string
	err := s.db.WithContext(ctx).Model(&models.Document{}).
		Where(column+" IS NOT NULL AND "+column+" <> ''").
		Distinct().
		Order(column).
		Pluck(column, &values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s values: %w", column, err)
	}
	return values, nil
}
