package chatbot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/acaduss/acaduss-backend/internal/domain"
	"github.com/acaduss/acaduss-backend/internal/normalization"
	pkgerrors "github.com/acaduss/acaduss-backend/internal/pkg/errors"
	"github.com/acaduss/acaduss-backend/internal/platform/openai"
	"github.com/acaduss/acaduss-backend/internal/services"
)

type fakeAI struct {
	mu    sync.Mutex
	reqs  []openai.Request
	reply func(req openai.Request) (string, error)
}

func (f *fakeAI) Complete(_ context.Context, req openai.Request) (openai.Completion, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	text := "respuesta de prueba"
	if f.reply != nil {
		var err error
		if text, err = f.reply(req); err != nil {
			return openai.Completion{}, err
		}
	}
	return openai.Completion{Text: text, Model: "test-model", Usage: openai.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}, nil
}

func (f *fakeAI) Model() string { return "test-model" }

func (f *fakeAI) requests() []openai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]openai.Request(nil), f.reqs...)
}

type fakeDocs struct {
	items   []*types.Document
	listErr error
}

func (f *fakeDocs) List(_ context.Context, page, pageSize int) (*types.DocumentPage, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	start := (page - 1) * pageSize
	if start > len(f.items) {
		start = len(f.items)
	}
	end := min(start+pageSize, len(f.items))
	return &types.DocumentPage{Items: f.items[start:end], Total: int64(len(f.items)), Page: page, PageSize: pageSize, TotalPages: 1}, nil
}

func (f *fakeDocs) Search(_ context.Context, q string) ([]*types.Document, error) {
	if strings.TrimSpace(q) == "" {
		return f.items, nil
	}
	var out []*types.Document
	for _, d := range f.items {
		if normalization.Contains(d.Title+" "+d.Subject+" "+d.Content, q) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocs) Get(_ context.Context, id uuid.UUID) (*types.Document, error) {
	for _, d := range f.items {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, fmt.Errorf("document %s: %w", id, pkgerrors.ErrNotFound)
}

type fakeStore struct {
	mu    sync.Mutex
	convs map[uuid.UUID]*types.Conversation
	msgs  map[uuid.UUID][]*types.Message
}

func newFakeStore() *fakeStore {
	return &fakeStore{convs: map[uuid.UUID]*types.Conversation{}, msgs: map[uuid.UUID][]*types.Message{}}
}

func (f *fakeStore) Create(_ context.Context, userID uuid.UUID, title string) (*types.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &types.Conversation{ID: uuid.New(), UserID: userID, Title: title, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.convs[c.ID] = c
	return c, nil
}

func (f *fakeStore) Get(_ context.Context, userID, id uuid.UUID) (*types.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[id]
	if !ok {
		return nil, fmt.Errorf("conversation: %w", pkgerrors.ErrNotFound)
	}
	if c.UserID != userID {
		return nil, fmt.Errorf("conversation: %w", pkgerrors.ErrForbidden)
	}
	return c, nil
}

func (f *fakeStore) AppendTurn(_ context.Context, conversationID uuid.UUID, turn services.Turn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.msgs[conversationID] = append(f.msgs[conversationID],
		&types.Message{ID: uuid.New(), ConversationID: conversationID, Role: types.MessageRoleUser, Content: turn.UserContent, CreatedAt: now},
		&types.Message{ID: uuid.New(), ConversationID: conversationID, Role: types.MessageRoleAssistant, Content: turn.AssistantContent, Metadata: turn.Metadata, CreatedAt: now},
	)
	return nil
}

func (f *fakeStore) RecentMessages(_ context.Context, conversationID uuid.UUID, limit int) ([]*types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.msgs[conversationID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]*types.Message(nil), msgs...), nil
}

func (f *fakeStore) SetActiveDocument(_ context.Context, conversationID, documentID uuid.UUID, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[conversationID]
	if !ok {
		return fmt.Errorf("conversation: %w", pkgerrors.ErrNotFound)
	}
	id := documentID
	c.ActiveDocumentID = &id
	c.ActiveDocumentTitle = title
	return nil
}

func (f *fakeStore) messages(conversationID uuid.UUID) []*types.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*types.Message(nil), f.msgs[conversationID]...)
}

type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, ref string) (string, error) {
	if err := f.errs[ref]; err != nil {
		return "", err
	}
	return f.texts[ref], nil
}

func pdfDoc(title, subject, file string) *types.Document {
	return &types.Document{
		ID:       uuid.New(),
		Title:    title,
		Subject:  subject,
		FileURL:  file,
		FileType: "application/pdf",
		Status:   types.DocumentStatusPublished,
	}
}
