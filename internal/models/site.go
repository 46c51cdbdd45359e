// internal/models/site.go
package models

type Site struct {
	BaseModel
	SiteName string `json:"site_name" gorm:"uniqueIndex;size:255;not null"`
	Province string `json:"province" gorm:"size:100;index"`
	District string `json:"district" gorm:"size:100;index"`
	Zone     string `json:"zone" gorm:"size:100"`
}
