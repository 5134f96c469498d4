package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/acaduss/acaduss-backend/internal/domain"
	"github.com/acaduss/acaduss-backend/internal/pkg/dbctx"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, rows []*types.Message) ([]*types.Message, error)
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.Message, error)
	// ListRecent returns the newest limit messages in chronological order.
	ListRecent(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]*types.Message, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, rows []*types.Message) ([]*types.Message, error) {
	if len(rows) == 0 {
		return []*types.Message{}, nil
	}
	// rows of one batch keep their slice order when read back
	now := time.Now().UTC()
	for i, m := range rows {
		if m == nil || m.ConversationID == uuid.Nil {
			return nil, fmt.Errorf("missing conversation_id")
		}
		if !types.ValidMessageRole(m.Role) {
			return nil, fmt.Errorf("invalid role %q", m.Role)
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		}
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *messageRepo) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.Message, error) {
	var out []*types.Message
	if conversationID == uuid.Nil {
		return out, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) ListRecent(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]*types.Message, error) {
	if conversationID == uuid.Nil {
		return nil, fmt.Errorf("missing conversation_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 10
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Message
	if err := txx.WithContext(dbc.Ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
