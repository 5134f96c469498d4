package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/acaduss/acaduss-backend/internal/domain"
)

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.Profile {
	tb.Helper()
	p := &types.Profile{
		ID:           uuid.New(),
		Email:        email,
		Role:         types.RoleStudent,
		PasswordHash: "hash",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

// SeedDocument inserts a published document; createdAt drives recency order.
func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, title, subject string, createdAt time.Time) *types.Document {
	tb.Helper()
	d := &types.Document{
		ID:        uuid.New(),
		Title:     title,
		Subject:   subject,
		FileURL:   "/uploads/" + uuid.NewString() + ".pdf",
		FileType:  "application/pdf",
		Status:    types.DocumentStatusPublished,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedConversation(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, title string) *types.Conversation {
	tb.Helper()
	c := &types.Conversation{
		ID:     uuid.New(),
		UserID: userID,
		Title:  title,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed conversation: %v", err)
	}
	return c
}
