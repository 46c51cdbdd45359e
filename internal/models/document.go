// internal/models/document.go
package models

import "time"

// Document belongs to exactly one lease. LandlordID and SiteID are copied from the lease
// at upload time so per-landlord and per-site listings need no join.
type Document struct {
	BaseModel
	LeaseID      uint      `json:"lease_id" gorm:"not null;index"`
	LandlordID   uint      `json:"landlord_id" gorm:"index"`
	SiteID       uint      `json:"site_id" gorm:"index"`
	DocumentType string    `json:"document_type" gorm:"size:100;index"`
	Category     string    `json:"category" gorm:"size:100;index"`
	Description  string    `json:"description" gorm:"type:text"`
	FileName     string    `json:"file_name" gorm:"size:255;not null"`
	StorageKey   string    `json:"-" gorm:"size:512;not null"`
	FileURL      string    `json:"file_url" gorm:"size:1024"`
	FileSize     int64     `json:"file_size"`
	ContentType  string    `json:"content_type" gorm:"size:100"`
	Checksum     string    `json:"checksum" gorm:"size:64"`
	UploadTime   time.Time `json:"upload_time" gorm:"index"`
}
