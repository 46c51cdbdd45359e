// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/config"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/utils"
)

// Login and registration failures. Handlers match them with errors.Is to pick a localized message.
var (
	ErrInvalidCredentials = &ServiceError{Kind: ErrUnauthorized, Message: "Invalid username or password"}
	ErrUserDisabled       = &ServiceError{Kind: ErrUnauthorized, Message: "User account is disabled"}
	ErrUserExists         = &ServiceError{Kind: ErrConflict, Message: "Username or email is already taken"}
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

type LoginRequest struct {
	// Username accepts either the username or the email address.
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username  string          `json:"username" validate:"required,username"`
	Email     string          `json:"email" validate:"required,email"`
	Password  string          `json:"password" validate:"required,strong_password"`
	FirstName string          `json:"first_name" validate:"max=100"`
	LastName  string          `json:"last_name" validate:"max=100"`
	Role      models.RoleName `json:"role"`
}

type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

// Register creates an enabled account. Self-registration may pick USER or SITE_ACQUISITION; ADMIN
// accounts are promoted by an administrator.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalid("%s", utils.ValidationSummary(err))
	}

	roleName := req.Role
	if roleName == "" {
		roleName = models.RoleUser
	}
	if roleName != models.RoleUser && roleName != models.RoleSiteAcquisition {
		return nil, invalid("Role %s cannot be self-assigned.", roleName)
	}

	var existing int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, strings.ToLower(req.Email)).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if existing > 0 {
		return nil, ErrUserExists
	}

	var role models.Role
	if err := s.db.WithContext(ctx).Where("name = ?", roleName).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Role not found: %s", roleName)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	user := &models.User{
		Username:  req.Username,
		Email:     strings.ToLower(req.Email),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleID:    role.ID,
		Enabled:   true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, writeError(err, ErrUserExists.Message)
	}
	user.Role = &role

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": role.Name}).Info("User registered")
	return s.issueToken(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalid("%s", utils.ValidationSummary(err))
	}

	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").
		Where("username = ? OR email = ?", req.Username, strings.ToLower(req.Username)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Enabled {
		return nil, ErrUserDisabled
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}
	user.LastLoginAt = &now

	return s.issueToken(&user)
}

// Profile returns the user behind a token, refusing accounts disabled since the token was issued.
func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Role").First(&user, userID).Error; err != nil {
		return nil, lookupError(err, "User", userID)
	}
	if !user.Enabled {
		return nil, ErrUserDisabled
	}
	return &user, nil
}

func (s *AuthService) issueToken(user *models.User) (*AuthResponse, error) {
	ttl := s.cfg.JWT.AccessTokenTTL
	token, err := utils.GenerateJWT(user.ID, user.Username, string(user.RoleName()), ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &AuthResponse{
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   ttl * 3600,
	}, nil
}
