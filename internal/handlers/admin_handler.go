package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/volunteerhub/backend/internal/models"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps methods for admin operations
type AdminService interface {
	// Method GetUser gets any user's public record by ID.
	//
	// If user not found, a NotFound error will be returned together with nil.
	GetUser(ctx context.Context, id string) (*models.PublicUser, error)
	// Method UpdateRole sets a user's role and returns the updated record.
	//
	// "role" parameter must be "user" or "admin" (case insensitive), otherwise an InvalidInput error is returned.
	// Tokens already issued to the user keep their previous role until they expire.
	UpdateRole(ctx context.Context, id string, role string) (*models.PublicUser, error)
}

// AdminHandler handles admin-related HTTP requests
type AdminHandler struct {
	BaseHandler
	adminService AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		adminService: adminService,
	}
}

// RegisterRoutes registers all admin handler routes.
// The router is expected to be guarded by the admin authorization gate.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Get("/{id}", h.GetUser)
		r.Patch("/{id}/role", h.UpdateRole)
	})
}

// GetUser handles GET /admin/users/{id}
// @Summary Get user
// @Description Get any user's public record. Requires the admin role.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.UserResponse
// @Failure 401 {object} map[string]string "Unauthenticated"
// @Failure 403 {object} map[string]string "Insufficient role"
// @Failure 404 {object} map[string]string "User not found"
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.adminService.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.UserResponse{User: user})
}

// UpdateRole handles PATCH /admin/users/{id}/role
// @Summary Update user role
// @Description Change a user's role. Requires the admin role.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body models.UpdateRoleRequest true "New role"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} map[string]string "Invalid role"
// @Failure 401 {object} map[string]string "Unauthenticated"
// @Failure 403 {object} map[string]string "Insufficient role"
// @Failure 404 {object} map[string]string "User not found"
// @Router /admin/users/{id}/role [patch]
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.adminService.UpdateRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.UserResponse{User: user})
}
