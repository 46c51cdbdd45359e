// internal/models/issue.go
package models

import "time"

type Issue struct {
	BaseModel
	LandlordID  uint        `json:"landlord_id" gorm:"not null;index"`
	Description string      `json:"description" gorm:"type:text;not null"`
	Status      IssueStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	CreatedDate time.Time   `json:"created_date"`

	Landlord *Landlord `json:"landlord,omitempty" gorm:"foreignKey:LandlordID"`
}
