// internal/models/report.go
package models

import "time"

// Report stores metadata for a generated report; the rows themselves are recomputed on demand.
type Report struct {
	BaseModel
	ReportName     string     `json:"report_name" gorm:"size:255;not null"`
	ReportType     ReportType `json:"report_type" gorm:"type:varchar(50);not null;index"`
	GenerationDate time.Time  `json:"generation_date" gorm:"index"`
	RecordCount    int        `json:"record_count"`
}
