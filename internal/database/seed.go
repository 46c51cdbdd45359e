// internal/database/seed.go
package database

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/models"
)

var roleDescriptions = map[models.RoleName]string{
	models.RoleAdmin:           "Full access including approvals and user management",
	models.RoleUser:            "Lease, document and report access",
	models.RoleSiteAcquisition: "Site acquisition team",
}

// SeedInitialData creates the fixed roles and a default admin account when missing.
func SeedInitialData(db *gorm.DB, adminPassword string) error {
	logrus.Info("Seeding initial data...")

	for _, name := range models.RoleNames {
		var role models.Role
		err := db.Where("name = ?", name).First(&role).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up role %s: %w", name, err)
		}
		role = models.Role{Name: name, Description: roleDescriptions[name]}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to create role %s: %w", name, err)
		}
	}

	var adminRole models.Role
	if err := db.Where("name = ?", models.RoleAdmin).First(&adminRole).Error; err != nil {
		return fmt.Errorf("failed to load admin role: %w", err)
	}

	var adminCount int64
	db.Model(&models.User{}).Where("role_id = ?", adminRole.ID).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username:  "admin",
			Email:     "admin@lease.local",
			FirstName: "System",
			LastName:  "Administrator",
			RoleID:    adminRole.ID,
			Enabled:   true,
		}

		if err := admin.SetPassword(adminPassword); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logrus.Info("Default admin user created successfully")
	}

	logrus.Info("Initial data seeding completed")
	return nil
}
