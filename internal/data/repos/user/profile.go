package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/acaduss/acaduss-backend/internal/domain"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

type ProfileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, profile *types.Profile) (*types.Profile, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Profile, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Profile, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Profile, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	repoLog := baseLog.With("repo", "ProfileRepo")
	return &profileRepo{db: db, log: repoLog}
}

func (pr *profileRepo) Create(ctx context.Context, tx *gorm.DB, profile *types.Profile) (*types.Profile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	if err := transaction.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, err
	}

	return profile, nil
}

func (pr *profileRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Profile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var profile types.Profile
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (pr *profileRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Profile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var profile types.Profile
	if err := transaction.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (pr *profileRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Profile{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (pr *profileRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Profile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Profile
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *profileRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(updates) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.Profile{}).
		Where("id = ?", id).
		Updates(updates).Error
}
