// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/database"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/utils"
)

// UserService covers the administrator's user and role management.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type RoleRequest struct {
	Name        models.RoleName `json:"name" validate:"required,max=50"`
	Description string          `json:"description" validate:"max=255"`
}

type UserFilter struct {
	Search  string
	Role    models.RoleName
	Enabled *bool
}

func (s *UserService) List(ctx context.Context, f UserFilter, params utils.PaginationParams) ([]models.User, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if f.Role != "" {
		q = q.Where("role_id IN (?)", s.db.Model(&models.Role{}).Select("id").Where("name = ?", f.Role))
	}
	if f.Enabled != nil {
		q = q.Where("enabled = ?", *f.Enabled)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	var users []models.User
	q = utils.ApplySort(q, params, []string{"id", "username", "email", "created_at", "last_login_at"})
	if err := utils.ApplyPagination(q, params).Preload("Role").Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Role").First(&user, id).Error; err != nil {
		return nil, lookupError(err, "User", id)
	}
	return &user, nil
}

// SetEnabled enables or disables an account. Administrators cannot disable themselves.
func (s *UserService) SetEnabled(ctx context.Context, actorID, id uint, enabled bool) (*models.User, error) {
	if !enabled && actorID == id {
		return nil, precondition("You cannot disable your own account.")
	}
	return s.modify(ctx, id, func(_ *gorm.DB, u *models.User) error {
		u.Enabled = enabled
		return nil
	})
}

func (s *UserService) ChangeRole(ctx context.Context, id uint, roleName models.RoleName) (*models.User, error) {
	return s.modify(ctx, id, func(tx *gorm.DB, u *models.User) error {
		var role models.Role
		if err := tx.Where("name = ?", roleName).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Role not found: %s", roleName)
			}
			return fmt.Errorf("database error: %w", err)
		}
		u.RoleID = role.ID
		u.Role = &role
		return nil
	})
}

func (s *UserService) modify(ctx context.Context, id uint, change func(*gorm.DB, *models.User) error) (*models.User, error) {
	var user models.User
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return lookupError(err, "User", id)
		}
		if err := change(tx, &user); err != nil {
			return err
		}
		return writeError(database.UpdateVersioned(tx, &user), "")
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": id, "enabled": user.Enabled, "role_id": user.RoleID}).Info("User updated")
	return s.Get(ctx, id)
}

// Roles

func (s *UserService) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := s.db.WithContext(ctx).Order("id").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (s *UserService) GetRole(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, id).Error; err != nil {
		return nil, lookupError(err, "Role", id)
	}
	return &role, nil
}

func (s *UserService) CreateRole(ctx context.Context, req *RoleRequest) (*models.Role, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalid("%s", utils.ValidationSummary(err))
	}
	role := &models.Role{Name: models.RoleName(strings.ToUpper(string(req.Name))), Description: req.Description}
	if err := s.db.WithContext(ctx).Create(role).Error; err != nil {
		return nil, writeError(err, fmt.Sprintf("Role %s already exists.", role.Name))
	}
	return role, nil
}

func (s *UserService) UpdateRole(ctx context.Context, id uint, req *RoleRequest) (*models.Role, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalid("%s", utils.ValidationSummary(err))
	}
	var role models.Role
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.First(&role, id).Error; err != nil {
			return lookupError(err, "Role", id)
		}
		role.Name = models.RoleName(strings.ToUpper(string(req.Name)))
		role.Description = req.Description
		return writeError(database.UpdateVersioned(tx, &role), fmt.Sprintf("Role %s already exists.", role.Name))
	})
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// DeleteRole removes a role nobody holds.
func (s *UserService) DeleteRole(ctx context.Context, id uint) error {
	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, id).Error; err != nil {
			return lookupError(err, "Role", id)
		}
		var holders int64
		if err := tx.Model(&models.User{}).Where("role_id = ?", id).Count(&holders).Error; err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		if holders > 0 {
			return precondition("Cannot delete role %s assigned to %d user(s).", role.Name, holders)
		}
		return tx.Delete(&role).Error
	})
}
