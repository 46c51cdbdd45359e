// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/config"
	"github.com/javajoker/lease-backend/internal/models"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// Lease notifications. Failures are logged and never fail the lease operation.

func (s *NotificationService) LeaseCreated(ctx context.Context, lease *models.Lease) {
	s.notifyAdmins(ctx, "lease_created", lease,
		fmt.Sprintf("New lease %s is pending approval (expires %s).", lease.AgreementNumber, lease.ExpiryDate.Format("2006-01-02")))
}

func (s *NotificationService) LeaseAutoRenewed(ctx context.Context, lease *models.Lease) {
	s.notifyAdmins(ctx, "lease_auto_renewed", lease,
		fmt.Sprintf("Lease %s was auto-renewed until %s.", lease.AgreementNumber, lease.ExpiryDate.Format("2006-01-02")))
}

func (s *NotificationService) LeaseApproved(ctx context.Context, lease *models.Lease) {
	s.notifyCreator(ctx, "lease_approved", lease,
		fmt.Sprintf("Lease %s was approved.", lease.AgreementNumber))
}

func (s *NotificationService) LeaseRejected(ctx context.Context, lease *models.Lease) {
	s.notifyCreator(ctx, "lease_rejected", lease,
		fmt.Sprintf("Lease %s was rejected.", lease.AgreementNumber))
}

// ListForUser returns the caller's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to update notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("Notification not found with ID: %d", id)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update notifications: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *NotificationService) notifyAdmins(ctx context.Context, kind string, lease *models.Lease, message string) {
	if s == nil {
		return
	}

	var admins []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ? AND users.enabled = ?", models.RoleAdmin, true).
		Find(&admins).Error
	if err != nil {
		logrus.WithError(err).WithField("type", kind).Error("Failed to load admins for notification")
		return
	}

	for i := range admins {
		s.deliver(ctx, &admins[i], kind, lease, message)
	}
}

func (s *NotificationService) notifyCreator(ctx context.Context, kind string, lease *models.Lease, message string) {
	if s == nil || lease.CreatedBy == "" {
		return
	}

	var creator models.User
	if err := s.db.WithContext(ctx).Where("username = ?", lease.CreatedBy).First(&creator).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithError(err).WithField("type", kind).Error("Failed to load lease creator for notification")
		}
		return
	}
	s.deliver(ctx, &creator, kind, lease, message)
}

func (s *NotificationService) deliver(ctx context.Context, user *models.User, kind string, lease *models.Lease, message string) {
	leaseID := lease.ID
	notification := &models.Notification{
		UserID:  user.ID,
		Type:    kind,
		Message: message,
		LeaseID: &leaseID,
	}
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"type": kind, "user_id": user.ID}).Error("Failed to create notification")
		return
	}

	if s.config == nil || s.config.Email.SMTPHost == "" || user.Email == "" {
		return
	}

	data := map[string]interface{}{
		"Name":            user.FirstName,
		"Message":         message,
		"AgreementNumber": lease.AgreementNumber,
	}
	tmpl := s.getEmailTemplate(kind)
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).Error("Failed to render email template")
		return
	}

	go func(to, subject string) {
		if err := s.sendEmail(to, subject, body); err != nil {
			logrus.WithError(err).WithField("to", to).Warn("Failed to send notification email")
		}
	}(user.Email, tmpl.Subject+" - "+lease.AgreementNumber)
}

// Helper methods
func (s *NotificationService) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"lease_created": {
			Subject: "New Lease Pending Approval",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<p>Hello {{.Name}},</p>
	<p>{{.Message}}</p>
	<p>Please review lease <strong>{{.AgreementNumber}}</strong> in the lease management console.</p>
</body>
</html>`,
		},
		"lease_auto_renewed": {
			Subject: "Lease Auto-Renewed",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<p>Hello {{.Name}},</p>
	<p>{{.Message}}</p>
</body>
</html>`,
		},
	}

	if template, exists := templates[templateType]; exists {
		return template
	}

	return EmailTemplate{
		Subject: "Lease Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
