// internal/models/audit.go
package models

type AuditLog struct {
	BaseModel
	Actor      string `json:"actor" gorm:"size:100;index"`
	Action     string `json:"action" gorm:"size:100;not null;index"`
	EntityName string `json:"entity_name" gorm:"size:50;index"`
	EntityID   *uint  `json:"entity_id" gorm:"index"`
	Details    string `json:"details" gorm:"type:text"`
	IPAddress  string `json:"ip_address,omitempty" gorm:"size:45"`
	UserAgent  string `json:"user_agent,omitempty" gorm:"type:text"`
	Payload    JSONB  `json:"payload,omitempty" gorm:"type:jsonb"`
}

type Notification struct {
	BaseModel
	UserID  uint   `json:"user_id" gorm:"not null;index"`
	Type    string `json:"type" gorm:"size:50;index"`
	Message string `json:"message" gorm:"type:text;not null"`
	IsRead  bool   `json:"is_read" gorm:"not null;default:false;index"`
	LeaseID *uint  `json:"lease_id,omitempty" gorm:"index"`
}
