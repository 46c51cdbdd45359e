// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthForbidden          = "auth.forbidden"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserDisabled       = "auth.user_disabled"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Validation
	KeyValidationInvalid = "validation.invalid"
	KeyValidationID      = "validation.id"
	KeyValidationDate    = "validation.date"

	// Leases
	KeyLeaseCreated        = "lease.created"
	KeyLeaseUpdated        = "lease.updated"
	KeyLeaseApproved       = "lease.approved"
	KeyLeaseRejected       = "lease.rejected"
	KeyLeaseDeleted        = "lease.deleted"
	KeyLeaseRenewed        = "lease.renewed"
	KeyLeaseDocumentsAdded = "lease.documents_added"

	// Documents
	KeyDocumentUploaded      = "document.uploaded"
	KeyDocumentsUploaded     = "document.uploaded_multiple"
	KeyDocumentUpdated       = "document.updated"
	KeyDocumentDeleted       = "document.deleted"
	KeyDocumentsDeleted      = "document.deleted_multiple"
	KeyDocumentUploadAllowed = "document.upload_allowed"

	// Reference data
	KeyLandlordDeleted    = "landlord.deleted"
	KeyBankDetailsDeleted = "bank_details.deleted"
	KeySiteDeleted        = "site.deleted"
	KeyIssueDeleted       = "issue.deleted"
	KeyReportDeleted      = "report.deleted"
	KeyRoleDeleted        = "role.deleted"

	// Notifications
	KeyNotificationsRead = "notification.read_all"

	// Errors
	KeyInternalError = "error.internal"
)
