// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// BaseModel carries identity, the optimistic-lock version and audit columns.
// CreatedBy/ModifiedBy are stamped by the database audit plugin, never by services.
type BaseModel struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Version      int64     `json:"version" gorm:"not null;default:0"`
	CreatedBy    string    `json:"created_by,omitempty" gorm:"size:100"`
	ModifiedBy   string    `json:"modified_by,omitempty" gorm:"size:100"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ActiveStatus bool      `json:"active_status" gorm:"not null;default:true"`
}

func (b *BaseModel) GetID() uint { return b.ID }
func (b *BaseModel) GetVersion() int64 { return b.Version }
func (b *BaseModel) SetVersion(v int64) {
	b.Version = v
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}
	return nil
}

// Enums

type LeaseStatus string

const (
	LeaseStatusPendingApproval LeaseStatus = "PENDING_APPROVAL"
	LeaseStatusApproved        LeaseStatus = "APPROVED"
	LeaseStatusRejected        LeaseStatus = "REJECTED"
	LeaseStatusActive          LeaseStatus = "ACTIVE"
	LeaseStatusExpired         LeaseStatus = "EXPIRED"
	LeaseStatusAutoRenewed     LeaseStatus = "AUTO_RENEWED"
)

var LeaseStatuses = []LeaseStatus{
	LeaseStatusPendingApproval,
	LeaseStatusApproved,
	LeaseStatusRejected,
	LeaseStatusActive,
	LeaseStatusExpired,
	LeaseStatusAutoRenewed,
}

func (s LeaseStatus) Valid() bool {
	switch s {
	case LeaseStatusPendingApproval, LeaseStatusApproved, LeaseStatusRejected,
		LeaseStatusActive, LeaseStatusExpired, LeaseStatusAutoRenewed:
		return true
	}
	return false
}

// Terminal statuses accept no further edits or transitions.
func (s LeaseStatus) Terminal() bool {
	return s == LeaseStatusRejected || s == LeaseStatusExpired
}

// AcceptsDocuments is the document gate.
func (s LeaseStatus) AcceptsDocuments() bool {
	switch s {
	case LeaseStatusApproved, LeaseStatusActive, LeaseStatusAutoRenewed:
		return true
	}
	return false
}

type OperationalStatus string

const (
	OperationalStatusOperational      OperationalStatus = "OPERATIONAL"
	OperationalStatusUnderDevelopment OperationalStatus = "UNDER_DEVELOPMENT"
)

var OperationalStatuses = []OperationalStatus{OperationalStatusOperational, OperationalStatusUnderDevelopment}

func (s OperationalStatus) Valid() bool {
	return s == OperationalStatusOperational || s == OperationalStatusUnderDevelopment
}

type RentalType string

const (
	RentalTypeNone     RentalType = "NONE"
	RentalTypeSwap     RentalType = "SWAP"
	RentalTypeAnnually RentalType = "ANNUALLY"
	RentalTypeMonthly  RentalType = "MONTHLY"
)

var RentalTypes = []RentalType{RentalTypeNone, RentalTypeSwap, RentalTypeAnnually, RentalTypeMonthly}

func (t RentalType) Valid() bool {
	switch t {
	case RentalTypeNone, RentalTypeSwap, RentalTypeAnnually, RentalTypeMonthly:
		return true
	}
	return false
}

type LeaseType string

const (
	LeaseTypeShortTerm   LeaseType = "SHORT_TERM"
	LeaseTypeLongTerm    LeaseType = "LONG_TERM"
	LeaseTypeGroundLease LeaseType = "GROUND_LEASE"
	LeaseTypeRooftop     LeaseType = "ROOFTOP"
	LeaseTypeColocation  LeaseType = "COLOCATION"
)

var LeaseTypes = []LeaseType{LeaseTypeShortTerm, LeaseTypeLongTerm, LeaseTypeGroundLease, LeaseTypeRooftop, LeaseTypeColocation}

func (t LeaseType) Valid() bool {
	for _, v := range LeaseTypes {
		if v == t {
			return true
		}
	}
	return false
}

type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "OPEN"
	IssueStatusInProgress IssueStatus = "IN_PROGRESS"
	IssueStatusResolved   IssueStatus = "RESOLVED"
	IssueStatusClosed     IssueStatus = "CLOSED"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed:
		return true
	}
	return false
}

type RoleName string

const (
	RoleAdmin           RoleName = "ADMIN"
	RoleUser            RoleName = "USER"
	RoleSiteAcquisition RoleName = "SITE_ACQUISITION"
)

var RoleNames = []RoleName{RoleAdmin, RoleUser, RoleSiteAcquisition}

type ReportType string

const (
	ReportConsolidatedLeaseRegister ReportType = "CONSOLIDATED_LEASE_REGISTER"
	ReportExpiredLeases             ReportType = "EXPIRED_LEASES"
	ReportUpcomingExpirations       ReportType = "UPCOMING_EXPIRATIONS"
	ReportCategorySummary           ReportType = "CATEGORY_SUMMARY"
	ReportStatusSummary             ReportType = "STATUS_SUMMARY"
	ReportRentalTypeSummary         ReportType = "RENTAL_TYPE_SUMMARY"
	ReportLeaseTypeSummary          ReportType = "LEASE_TYPE_SUMMARY"
)
