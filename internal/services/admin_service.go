package services

import (
	"context"
	"errors"
	"strings"

	"github.com/volunteerhub/backend/internal/apperrors"
	"github.com/volunteerhub/backend/internal/models"
	"go.uber.org/zap"
)

// MsgInvalidRole is returned for unknown role values
const MsgInvalidRole = "role must be one of: user, admin"

// adminService implements AdminService
type adminService struct {
	userRepo UserRepository
	logger   *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(userRepo UserRepository, logger *zap.Logger) *adminService {
	return &adminService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// GetUser retrieves any user's public record
func (s *adminService) GetUser(ctx context.Context, id string) (user *models.PublicUser, err error) {
	defer func() { observe("admin_get_user", err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	record, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, apperrors.NotFound(MsgUserNotFound)
		}
		return nil, apperrors.Infrastructure(err)
	}

	return record.Public(), nil
}

// UpdateRole changes a user's role. Sessions keep their old role until the user logs in again.
func (s *adminService) UpdateRole(ctx context.Context, id string, rawRole string) (user *models.PublicUser, err error) {
	defer func() { observe("admin_update_role", err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	role, ok := models.ParseRole(rawRole)
	if !ok {
		return nil, apperrors.InvalidInput(MsgInvalidRole)
	}

	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, apperrors.NotFound(MsgUserNotFound)
		}
		return nil, apperrors.Infrastructure(err)
	}

	s.logger.Info("user role updated", zap.String("userId", id), zap.String("role", string(role)))

	return s.GetUser(ctx, id)
}
