package services_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/lease-backend/internal/clock"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/utils"
)

func TestDocumentGateByStatus(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 1, 15))

	accepts := map[models.LeaseStatus]bool{
		models.LeaseStatusPendingApproval: false,
		models.LeaseStatusApproved:        true,
		models.LeaseStatusRejected:        false,
		models.LeaseStatusActive:          true,
		models.LeaseStatusExpired:         false,
		models.LeaseStatusAutoRenewed:     true,
	}

	for status, ok := range accepts {
		t.Run(string(status), func(t *testing.T) {
			lease := f.createLease(t, f.request("AGR-"+string(status), "2024-01-01", "2024-12-31"))
			f.forceStatus(t, lease.ID, status)

			_, err := f.documents.Upload(f.ctx, lease.ID, pdf("lease.pdf"), services.DocumentMetadata{})
			if ok {
				require.NoError(t, err)
				assert.NoError(t, f.documents.ValidateUpload(f.ctx, lease.ID))
				return
			}
			assertKind(t, err, services.ErrPrecondition,
				"Documents can only be attached to approved leases. Current status: "+string(status))
		})
	}
}

func TestValidateFile(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 1, 15))

	tests := []struct {
		name    string
		file    services.UploadFile
		message string
	}{
		{"pdf", services.UploadFile{FileName: "Lease.PDF", Size: 10}, ""},
		{"not pdf", services.UploadFile{FileName: "lease.docx", Size: 10}, "Only PDF files are allowed."},
		{"traversal", services.UploadFile{FileName: "../etc/lease.pdf", Size: 10}, "Invalid file path sequence."},
		{"too large", services.UploadFile{FileName: "big.pdf", Size: 2 << 20}, "File size must be less than 1MB."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.documents.ValidateFile(tt.file)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			assertKind(t, err, services.ErrValidation, tt.message)
		})
	}
}

func TestAddDocumentsIsAllOrNothing(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 1, 15))
	lease := f.createLease(t, f.request("AGR-001", "2024-01-01", "2024-12-31"))
	_, err := f.leases.Approve(f.ctx, lease.ID)
	require.NoError(t, err)

	_, err = f.documents.AddDocuments(f.ctx, lease.ID, nil, nil)
	assertKind(t, err, services.ErrValidation, "No files provided for upload.")

	_, err = f.documents.AddDocuments(f.ctx, lease.ID,
		[]services.UploadFile{pdf("a.pdf"), pdf("b.pdf")},
		[]services.DocumentMetadata{{}})
	assertKind(t, err, services.ErrConflict, "Number of files must match number of document requests.")

	_, err = f.documents.UploadMultiple(f.ctx, lease.ID,
		[]services.UploadFile{pdf("a.pdf"), pdf("notes.txt")},
		services.DocumentMetadata{DocumentType: "CONTRACT"})
	assertKind(t, err, services.ErrValidation, "Only PDF files are allowed.")

	count, err := f.documents.Count(f.ctx, services.DocumentFilter{LeaseID: lease.ID})
	require.NoError(t, err)
	assert.Zero(t, count)

	docs, err := f.documents.AddDocuments(f.ctx, lease.ID,
		[]services.UploadFile{pdf("a.pdf"), pdf("b.pdf")},
		[]services.DocumentMetadata{
			{DocumentType: "CONTRACT", Category: "Legal"},
			{DocumentType: "SURVEY", Category: "Technical"},
		})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, lease.LandlordID, docs[0].LandlordID)
	assert.Equal(t, "SURVEY", docs[1].DocumentType)

	stats, err := f.documents.Statistics(f.ctx, lease.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalDocuments)
	assert.Equal(t, int64(1), stats.ByType["CONTRACT"])

	var added int64
	require.NoError(t, f.db.Model(&models.AuditLog{}).Where("action = ?", services.AuditDocumentAdded).Count(&added).Error)
	assert.Equal(t, int64(2), added)
}

func TestDocumentFileRoundTrip(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 1, 15))
	lease := f.createLease(t, f.request("AGR-001", "2024-01-01", "2024-12-31"))
	_, err := f.leases.Approve(f.ctx, lease.ID)
	require.NoError(t, err)

	content := []byte("%PDF-1.7 signed lease")
	doc, err := f.documents.Upload(f.ctx, lease.ID, services.UploadFile{
		FileName: "signed.pdf",
		Size:     int64(len(content)),
		Content:  bytes.NewReader(content),
	}, services.DocumentMetadata{Description: "Signed copy"})
	require.NoError(t, err)
	assert.Equal(t, utils.HashBytes(content), doc.Checksum)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, clock.Date(2024, 1, 15).Equal(doc.UploadTime), "upload time %s", doc.UploadTime)

	rc, got, err := f.documents.OpenFile(f.ctx, doc.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, content, data)
	assert.Equal(t, "signed.pdf", got.FileName)

	updated, err := f.documents.UpdateMetadata(f.ctx, doc.ID, services.DocumentMetadata{DocumentType: "CONTRACT"})
	require.NoError(t, err)
	assert.Equal(t, "CONTRACT", updated.DocumentType)
	assert.Equal(t, int64(1), updated.Version)

	require.NoError(t, f.documents.Delete(f.ctx, doc.ID))
	_, _, err = f.documents.OpenFile(f.ctx, doc.ID)
	assertKind(t, err, services.ErrNotFound, fmt.Sprintf("Document not found with ID: %d", doc.ID))
}


// flakyStore fails the nth Delete call and passes everything else through.
type flakyStore struct {
	services.DocumentStore
	failOn  int
	deletes int
}

func (s *flakyStore) Delete(ctx context.Context, key string) error {
	s.deletes++
	if s.deletes == s.failOn {
		return errors.New("storage unavailable")
	}
	return s.DocumentStore.Delete(ctx, key)
}

func (f *fixture) approvedWithDocuments(t *testing.T, svc *services.DocumentService, names ...string) []models.Document {
	t.Helper()
	lease := f.createLease(t, f.request("AGR-DEL", "2024-01-01", "2024-12-31"))
	_, err := f.leases.Approve(f.ctx, lease.ID)
	require.NoError(t, err)

	files := make([]services.UploadFile, len(names))
	metas := make([]services.DocumentMetadata, len(names))
	for i, n := range names {
		files[i] = pdf(n)
	}
	docs, err := svc.AddDocuments(f.ctx, lease.ID, files, metas)
	require.NoError(t, err)
	return docs
}

func TestDeleteManyRemovesFilesAfterCommit(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 1, 15))
	local := services.NewLocalStore(t.TempDir(), "/uploads")
	store := &flakyStore{DocumentStore: local, failOn: 2}
	svc := services.NewDocumentService(f.db, store, f.clock, f.audit, 1<<20)
	docs := f.approvedWithDocuments(t, svc, "a.pdf", "b.pdf")

	require.NoError(t, svc.DeleteMany(f.ctx, []uint{docs[0].ID, docs[1].ID}))
	assert.Equal(t, 2, store.deletes)

	var remaining int64
	require.NoError(t, f.db.Model(&models.Document{}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	_, err := local.Open(f.ctx, docs[0].StorageKey)
	assert.ErrorIs(t, err, services.ErrBlobNotFound)

	// The file whose delete failed is orphaned, never a row without its file.
	rc, err := local.Open(f.ctx, docs[1].StorageKey)
	require.NoError(t, err)
	rc.Close()
}

func TestDeleteManyRollbackKeepsFiles(t *testing.T) {
	f := newFixture(t, clock.Date(2024, 1, 15))
	store := &flakyStore{DocumentStore: services.NewLocalStore(t.TempDir(), "/uploads")}
	svc := services.NewDocumentService(f.db, store, f.clock, f.audit, 1<<20)
	docs := f.approvedWithDocuments(t, svc, "a.pdf", "b.pdf")

	err := svc.DeleteMany(f.ctx, []uint{docs[0].ID, 9999})
	assertKind(t, err, services.ErrNotFound, "Document not found with ID: 9999")
	assert.Zero(t, store.deletes)

	for _, doc := range docs {
		rc, _, err := svc.OpenFile(f.ctx, doc.ID)
		require.NoError(t, err, "document %d", doc.ID)
		rc.Close()
	}
}
