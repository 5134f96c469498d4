package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/acaduss/acaduss-backend/internal/data/repos"
	types "github.com/acaduss/acaduss-backend/internal/domain"
	"github.com/acaduss/acaduss-backend/internal/pkg/dbctx"
	pkgerrors "github.com/acaduss/acaduss-backend/internal/pkg/errors"
	"github.com/acaduss/acaduss-backend/internal/platform/apierr"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

// Turn is one question/answer exchange to append to a conversation.
type Turn struct {
	UserContent      string
	AssistantContent string
	// Metadata is stored on the assistant message.
	Metadata datatypes.JSON
}

type ConversationService interface {
	Create(ctx context.Context, userID uuid.UUID, title string) (*types.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Conversation, error)
	// Get returns ErrNotFound for unknown ids and ErrForbidden for conversations of other users.
	Get(ctx context.Context, userID, id uuid.UUID) (*types.Conversation, error)
	AddMessage(ctx context.Context, userID, conversationID uuid.UUID, role, content string) (*types.Message, error)
	AppendTurn(ctx context.Context, conversationID uuid.UUID, turn Turn) error
	Messages(ctx context.Context, userID, conversationID uuid.UUID) ([]*types.Message, error)
	RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*types.Message, error)
	SetActiveDocument(ctx context.Context, conversationID, documentID uuid.UUID, title string) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type conversationService struct {
	db       *gorm.DB
	log      *logger.Logger
	convRepo repos.ConversationRepo
	msgRepo  repos.MessageRepo
}

func NewConversationService(db *gorm.DB, log *logger.Logger, convRepo repos.ConversationRepo, msgRepo repos.MessageRepo) ConversationService {
	return &conversationService{
		db:       db,
		log:      log.With("service", "ConversationService"),
		convRepo: convRepo,
		msgRepo:  msgRepo,
	}
}

func (s *conversationService) inTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if s.db == nil {
		return fn(dbctx.Background(ctx))
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

func (s *conversationService) Create(ctx context.Context, userID uuid.UUID, title string) (*types.Conversation, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user", pkgerrors.ErrUnauthorized)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Nueva conversación"
	}
	conv, err := s.convRepo.Create(dbctx.Background(ctx), &types.Conversation{UserID: userID, Title: title})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (s *conversationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Conversation, error) {
	convs, err := s.convRepo.ListByUser(dbctx.Background(ctx), userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if convs == nil {
		convs = []*types.Conversation{}
	}
	return convs, nil
}

func (s *conversationService) Get(ctx context.Context, userID, id uuid.UUID) (*types.Conversation, error) {
	conv, err := s.convRepo.GetByID(dbctx.Background(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation %s: %w", id, pkgerrors.ErrNotFound)
	}
	if conv.UserID != userID {
		return nil, fmt.Errorf("conversation %s: %w", id, pkgerrors.ErrForbidden)
	}
	return conv, nil
}

func (s *conversationService) AddMessage(ctx context.Context, userID, conversationID uuid.UUID, role, content string) (*types.Message, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !types.ValidMessageRole(role) {
		return nil, apierr.BadRequest("invalid_role", "El rol debe ser user o assistant")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apierr.BadRequest("missing_content", "El contenido es obligatorio")
	}
	if _, err := s.Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	var created *types.Message
	err := s.inTx(ctx, func(dbc dbctx.Context) error {
		rows, err := s.msgRepo.Create(dbc, []*types.Message{{
			ConversationID: conversationID,
			Role:           role,
			Content:        content,
		}})
		if err != nil {
			return err
		}
		created = rows[0]
		return s.convRepo.Touch(dbc, conversationID, touchTime(rows))
	})
	if err != nil {
		return nil, fmt.Errorf("add message: %w", err)
	}
	return created, nil
}

func (s *conversationService) AppendTurn(ctx context.Context, conversationID uuid.UUID, turn Turn) error {
	return s.inTx(ctx, func(dbc dbctx.Context) error {
		rows, err := s.msgRepo.Create(dbc, []*types.Message{
			{ConversationID: conversationID, Role: types.MessageRoleUser, Content: turn.UserContent},
			{ConversationID: conversationID, Role: types.MessageRoleAssistant, Content: turn.AssistantContent, Metadata: turn.Metadata},
		})
		if err != nil {
			return fmt.Errorf("append turn: %w", err)
		}
		return s.convRepo.Touch(dbc, conversationID, touchTime(rows))
	})
}

// touchTime is never earlier than the newest message of the batch.
func touchTime(rows []*types.Message) time.Time {
	at := time.Now().UTC()
	for _, m := range rows {
		if m != nil && m.CreatedAt.After(at) {
			at = m.CreatedAt
		}
	}
	return at
}

func (s *conversationService) Messages(ctx context.Context, userID, conversationID uuid.UUID) ([]*types.Message, error) {
	if _, err := s.Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.msgRepo.ListByConversation(dbctx.Background(ctx), conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []*types.Message{}
	}
	return msgs, nil
}

func (s *conversationService) RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*types.Message, error) {
	msgs, err := s.msgRepo.ListRecent(dbctx.Background(ctx), conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	return msgs, nil
}

func (s *conversationService) SetActiveDocument(ctx context.Context, conversationID, documentID uuid.UUID, title string) error {
	if err := s.convRepo.SetActiveDocument(dbctx.Background(ctx), conversationID, documentID, title); err != nil {
		return fmt.Errorf("set active document: %w", err)
	}
	return nil
}

func (s *conversationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	ok, err := s.convRepo.Delete(dbctx.Background(ctx), id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if !ok {
		return fmt.Errorf("conversation %s: %w", id, pkgerrors.ErrNotFound)
	}
	return nil
}
