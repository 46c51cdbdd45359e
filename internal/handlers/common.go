// internal/handlers/common.go
package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/lease-backend/internal/i18n"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/utils"
)

// respondError writes the envelope for a service error. Unexpected errors are logged and hidden.
func respondError(c *gin.Context, err error) {
	var se *services.ServiceError
	if !errors.As(err, &se) {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Request failed")
		utils.InternalErrorResponse(c, "")
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, se.Message)
	case errors.Is(err, services.ErrStaleVersion):
		utils.ErrorResponse(c, http.StatusConflict, "STALE_VERSION", se.Message, nil)
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, se.Message)
	case errors.Is(err, services.ErrValidation):
		utils.BadRequestResponse(c, se.Message, nil)
	case errors.Is(err, services.ErrPrecondition):
		utils.UnprocessableResponse(c, se.Message)
	case errors.Is(err, services.ErrUnauthorized):
		utils.UnauthorizedResponse(c, se.Message)
	default:
		utils.InternalErrorResponse(c, "")
	}
}

// bindJSON decodes and validates the body, writing the 400 itself on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

func paramID(c *gin.Context, name, entity string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationID, entity), nil)
		return 0, false
	}
	return uint(id), true
}

// queryID reads an optional numeric id; an absent value is 0.
func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
		return 0, false
	}
	return uint(id), true
}

// queryDate reads an optional yyyy-mm-dd query value.
func queryDate(c *gin.Context, name string) (*models.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationDate, raw), nil)
		return nil, false
	}
	return &d, true
}

func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
		return nil, false
	}
	return &v, true
}

func leaseStatusParam(c *gin.Context, raw string) (models.LeaseStatus, bool) {
	s := models.LeaseStatus(strings.ToUpper(raw))
	if !s.Valid() {
		utils.BadRequestResponse(c, "Invalid lease status: "+raw, nil)
		return "", false
	}
	return s, true
}

func operationalStatusParam(c *gin.Context, raw string) (models.OperationalStatus, bool) {
	s := models.OperationalStatus(strings.ToUpper(raw))
	if !s.Valid() {
		utils.BadRequestResponse(c, "Invalid operational status: "+raw, nil)
		return "", false
	}
	return s, true
}

func rentalTypeParam(c *gin.Context, raw string) (models.RentalType, bool) {
	t := models.RentalType(strings.ToUpper(raw))
	if !t.Valid() {
		utils.BadRequestResponse(c, "Invalid rental type: "+raw, nil)
		return "", false
	}
	return t, true
}

func leaseTypeParam(c *gin.Context, raw string) (models.LeaseType, bool) {
	t := models.LeaseType(strings.ToUpper(raw))
	if !t.Valid() {
		utils.BadRequestResponse(c, "Invalid lease type: "+raw, nil)
		return "", false
	}
	return t, true
}

func paginated(c *gin.Context, data interface{}, total int64, params utils.PaginationParams) {
	utils.PaginatedResponse(c, utils.CreatePaginationResult(data, total, params))
}

// openUploads opens every multipart file. The returned closer releases them all.
func openUploads(headers []*multipart.FileHeader) ([]services.UploadFile, func(), error) {
	files := make([]services.UploadFile, 0, len(headers))
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		files = append(files, services.UploadFile{
			FileName:    h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Size:        h.Size,
			Content:     f,
		})
	}
	return files, closeAll, nil
}

// metadataFromForm reads document metadata from form fields of a single-file upload.
func metadataFromForm(c *gin.Context) services.DocumentMetadata {
	return services.DocumentMetadata{
		DocumentType: c.PostForm("document_type"),
		Category:     c.PostForm("category"),
		Description:  c.PostForm("description"),
	}
}
