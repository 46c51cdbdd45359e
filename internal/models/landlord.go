// internal/models/landlord.go
package models

type Landlord struct {
	BaseModel
	FullName      string `json:"full_name" gorm:"size:255;not null"`
	ContactPerson string `json:"contact_person" gorm:"size:255"`
	ContactNumber string `json:"contact_number" gorm:"size:50"`
	Email         string `json:"email" gorm:"size:255;index"`
}

type BankDetails struct {
	BaseModel
	LandlordID    uint   `json:"landlord_id" gorm:"not null;index"`
	AccountNumber string `json:"account_number" gorm:"size:50;not null;uniqueIndex:idx_bank_account_sort"`
	SortCode      string `json:"sort_code" gorm:"size:20;not null;uniqueIndex:idx_bank_account_sort"`
	Branch        string `json:"branch" gorm:"size:255"`
	Bank          string `json:"bank" gorm:"size:255"`
	AccountName   string `json:"account_name" gorm:"size:255"`
	AccountType   string `json:"account_type" gorm:"size:50"`
}

func (BankDetails) TableName() string { return "bank_details" }
