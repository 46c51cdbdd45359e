// internal/handlers/admin.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/lease-backend/internal/i18n"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/utils"
)

// AdminHandler serves user and role management.
type AdminHandler struct {
	userService  *services.UserService
	auditService *services.AuditService
}

func NewAdminHandler(userService *services.UserService, auditService *services.AuditService) *AdminHandler {
	return &AdminHandler{
		userService:  userService,
		auditService: auditService,
	}
}

// GET /users?search=&role=&enabled=
func (h *AdminHandler) GetUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.UserFilter{
		Search: c.Query("search"),
		Role:   models.RoleName(strings.ToUpper(c.Query("role"))),
	}
	enabled, ok := queryBool(c, "enabled")
	if !ok {
		return
	}
	filter.Enabled = enabled

	users, total, err := h.userService.List(c.Request.Context(), filter, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, users, total, params)
}

// GET /users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}

// PUT /users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}
	adminID, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req struct {
		Enabled *bool `json:"enabled" validate:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.SetEnabled(c.Request.Context(), adminID, id, *req.Enabled)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}

// PUT /users/:id/role
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role" validate:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.ChangeRole(c.Request.Context(), id, models.RoleName(strings.ToUpper(req.Role)))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}

// GET /roles
func (h *AdminHandler) GetRoles(c *gin.Context) {
	roles, err := h.userService.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, roles)
}

// GET /roles/:id
func (h *AdminHandler) GetRole(c *gin.Context) {
	id, ok := paramID(c, "id", "role")
	if !ok {
		return
	}
	role, err := h.userService.GetRole(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, role)
}

// POST /roles
func (h *AdminHandler) CreateRole(c *gin.Context) {
	var req services.RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.userService.CreateRole(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, role)
}

// PUT /roles/:id
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	id, ok := paramID(c, "id", "role")
	if !ok {
		return
	}
	var req services.RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.userService.UpdateRole(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, role)
}

// DELETE /roles/:id
func (h *AdminHandler) DeleteRole(c *gin.Context) {
	id, ok := paramID(c, "id", "role")
	if !ok {
		return
	}
	if err := h.userService.DeleteRole(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.MessageResponse(c, http.StatusOK, i18n.T(utils.GetLangFromContext(c), i18n.KeyRoleDeleted), nil)
}

// GET /audit-logs?entityName=&entityId=&actor=&action=
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	if c.Query("order") == "" {
		params.Sort, params.Order = "created_at", "desc"
	}

	filter := services.AuditFilter{
		EntityName: c.Query("entityName"),
		Actor:      c.Query("actor"),
		Action:     c.Query("action"),
	}
	if raw := c.Query("entityId"); raw != "" {
		id, ok := queryID(c, "entityId")
		if !ok {
			return
		}
		filter.EntityID = &id
	}

	logs, total, err := h.auditService.List(c.Request.Context(), filter, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, logs, total, params)
}
