// internal/database/versioned.go
package database

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleVersion means another writer committed first; reload and retry.
var ErrStaleVersion = errors.New("record was modified by another request, reload and retry")

type Versioned interface {
	GetID() uint
	GetVersion() int64
	SetVersion(int64)
}

// UpdateVersioned writes every column of model guarded by its version and bumps the version.
func UpdateVersioned(tx *gorm.DB, model Versioned) error {
	current := model.GetVersion()
	model.SetVersion(current + 1)

	res := tx.Model(model).
		Where("version = ?", current).
		Select("*").
		Omit(clause.Associations, "id", "created_at", "created_by").
		Updates(model)
	if res.Error != nil {
		model.SetVersion(current)
		return res.Error
	}
	if res.RowsAffected == 0 {
		model.SetVersion(current)
		return ErrStaleVersion
	}
	return nil
}
