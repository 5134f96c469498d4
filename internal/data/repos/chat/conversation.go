package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/acaduss/acaduss-backend/internal/domain"
	"github.com/acaduss/acaduss-backend/internal/pkg/dbctx"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

type ConversationRepo interface {
	Create(dbc dbctx.Context, conv *types.Conversation) (*types.Conversation, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Conversation, error)
	Touch(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	SetActiveDocument(dbc dbctx.Context, id uuid.UUID, documentID uuid.UUID, title string) error
	// Delete removes the conversation and its messages. It reports false when
	// the conversation did not exist.
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, log *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: log.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Create(dbc dbctx.Context, conv *types.Conversation) (*types.Conversation, error) {
	if conv == nil {
		return nil, fmt.Errorf("missing conversation")
	}
	if conv.UserID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(conv).Error; err != nil {
		return nil, err
	}
	return conv, nil
}

func (r *conversationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var conv types.Conversation
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", id).First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Conversation, error) {
	var out []*types.Conversation
	if userID == uuid.Nil {
		return out, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conversationRepo) Touch(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing conversation id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", at).Error
}

func (r *conversationRepo) SetActiveDocument(dbc dbctx.Context, id uuid.UUID, documentID uuid.UUID, title string) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing conversation id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	docID := documentID
	return txx.WithContext(dbc.Ctx).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"active_document_id":    &docID,
			"active_document_title": title,
		}).Error
}

func (r *conversationRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	deleted := false
	err := txx.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&types.Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&types.Conversation{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
