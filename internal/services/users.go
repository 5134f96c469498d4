package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acaduss/acaduss-backend/internal/data/repos"
	types "github.com/acaduss/acaduss-backend/internal/domain"
	pkgerrors "github.com/acaduss/acaduss-backend/internal/pkg/errors"
	"github.com/acaduss/acaduss-backend/internal/platform/apierr"
	"github.com/acaduss/acaduss-backend/internal/platform/ctxutil"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

// ProfileUpdate holds the editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
}

type UserService interface {
	GetMe(ctx context.Context) (*types.Profile, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Profile, error)
	List(ctx context.Context) ([]*types.Profile, error)
	// Update is allowed for the profile owner or an admin; only admins may change roles.
	Update(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*types.Profile, error)
}

type userService struct {
	db          *gorm.DB
	log         *logger.Logger
	profileRepo repos.ProfileRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, profileRepo repos.ProfileRepo) UserService {
	return &userService{db: db, log: log.With("service", "UserService"), profileRepo: profileRepo}
}

func (us *userService) GetMe(ctx context.Context) (*types.Profile, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		us.log.WithContext(ctx).Warn("request data not set in context")
		return nil, fmt.Errorf("%w: request data not set in context", pkgerrors.ErrUnauthorized)
	}
	return us.Get(ctx, rd.UserID)
}

func (us *userService) Get(ctx context.Context, id uuid.UUID) (*types.Profile, error) {
	profile, err := us.profileRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("profile %s: %w", id, pkgerrors.ErrNotFound)
	}
	return profile, nil
}

func (us *userService) List(ctx context.Context) ([]*types.Profile, error) {
	profiles, err := us.profileRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

func (us *userService) Update(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*types.Profile, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: request data not set in context", pkgerrors.ErrUnauthorized)
	}
	isAdmin := rd.Role == types.RoleAdmin
	if rd.UserID != id && !isAdmin {
		return nil, fmt.Errorf("update profile %s: %w", id, pkgerrors.ErrForbidden)
	}

	updates := map[string]interface{}{}
	if in.Username != nil {
		updates["username"] = strings.TrimSpace(*in.Username)
	}
	if in.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*in.Role))
		if !types.ValidProfileRole(role) {
			return nil, apierr.BadRequest("invalid_role", "Rol inválido")
		}
		if !isAdmin {
			return nil, fmt.Errorf("change role: %w", pkgerrors.ErrForbidden)
		}
		updates["role"] = role
	}

	if _, err := us.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := us.profileRepo.UpdateFields(ctx, nil, id, updates); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return us.Get(ctx, id)
}
