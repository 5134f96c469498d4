package chatbot

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/acaduss/acaduss-backend/internal/domain"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
	"github.com/acaduss/acaduss-backend/internal/platform/openai"
	"github.com/acaduss/acaduss-backend/internal/platform/pdftext"
	"github.com/acaduss/acaduss-backend/internal/services"
)

const (
	DefaultModel = "gpt-4o-mini"

	offlineListPageSize = 20
	offlineMaxDocuments = 5

	failedQueryError  = "Error al conectar con el asistente académico. Intenta nuevamente más tarde."
	failedQueryAnswer = "Lo siento, no pude procesar tu consulta en este momento. Por favor, intenta nuevamente."
	emptyAnswer       = "No se pudo generar una respuesta."
)

// DocumentSource is the read side of the document service the chatbot needs.
type DocumentSource interface {
	List(ctx context.Context, page, pageSize int) (*types.DocumentPage, error)
	Search(ctx context.Context, q string) ([]*types.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Document, error)
}

// ConversationStore persists chat turns. services.ConversationService
// satisfies it.
type ConversationStore interface {
	Create(ctx context.Context, userID uuid.UUID, title string) (*types.Conversation, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*types.Conversation, error)
	AppendTurn(ctx context.Context, conversationID uuid.UUID, turn services.Turn) error
	RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*types.Message, error)
	SetActiveDocument(ctx context.Context, conversationID, documentID uuid.UUID, title string) error
}

type Deps struct {
	Log *logger.Logger

	// AI is optional. Without it every query gets the offline answer.
	AI    openai.Client
	Model string

	Documents     DocumentSource
	Conversations ConversationStore
	Extractor     pdftext.Extractor

	// Optional overrides; defaults are the AI classifier with rule fallback
	// and DefaultTitleExtractors.
	Classifier      IntentClassifier
	TitleExtractors []TitleExtractor
}

type Service struct {
	log        *logger.Logger
	ai         openai.Client
	model      string
	docs       DocumentSource
	convs      ConversationStore
	extractor  pdftext.Extractor
	classifier IntentClassifier
	titles     []TitleExtractor
	ranker     *Ranker
}

func New(deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("service", "ChatbotService")

	model := strings.TrimSpace(deps.Model)
	if model == "" && deps.AI != nil {
		model = deps.AI.Model()
	}
	if model == "" {
		model = DefaultModel
	}

	classifier := deps.Classifier
	if classifier == nil {
		if deps.AI != nil {
			classifier = NewFallbackClassifier(log, AIClassifier{Client: deps.AI}, RuleClassifier{})
		} else {
			classifier = NewFallbackClassifier(log, nil, RuleClassifier{})
		}
	}
	titles := deps.TitleExtractors
	if len(titles) == 0 {
		titles = DefaultTitleExtractors()
	}

	return &Service{
		log:        log,
		ai:         deps.AI,
		model:      model,
		docs:       deps.Documents,
		convs:      deps.Conversations,
		extractor:  deps.Extractor,
		classifier: classifier,
		titles:     titles,
		ranker:     NewRanker(log, deps.Documents, deps.Extractor),
	}
}

func (s *Service) Diagnostics() Diagnostics {
	return Diagnostics{OpenAIConfigured: s.ai != nil, Model: s.model}
}

// turnState is the per-query view of QueryOptions. conversationID is
// cleared when the caller passed one it does not own.
type turnState struct {
	userID         *uuid.UUID
	conversationID *uuid.UUID
	title          string
	intent         Intent
}

// Query answers one user message. It never returns an error: upstream
// failures become an apologetic answer with Error set.
func (s *Service) Query(ctx context.Context, text string, opts QueryOptions) QueryResult {
	if s.ai == nil {
		return s.offlineAnswer(ctx, text)
	}

	intent, err := s.classifier.Classify(ctx, text)
	if err != nil {
		s.log.WithContext(ctx).Warn("intent classification failed", "error", err)
		intent = classifyByRules(text)
	}
	st := &turnState{userID: opts.UserID, conversationID: opts.ConversationID, title: strings.TrimSpace(opts.Title), intent: intent}
	convCtx := s.loadContext(ctx, st)
	s.log.WithContext(ctx).Debug("query classified", "intent", intent.Type, "subject", intent.Subject, "confidence", intent.Confidence)

	res, err := s.dispatch(ctx, text, intent, convCtx, st)
	if err != nil {
		s.log.WithContext(ctx).Error("chatbot query failed", "status", openai.StatusCode(err), "error", err)
		return QueryResult{Error: failedQueryError, Answer: failedQueryAnswer}
	}
	return res
}

func (s *Service) dispatch(ctx context.Context, text string, intent Intent, convCtx ConversationContext, st *turnState) (QueryResult, error) {
	if title, ok := ExtractRequestedTitle(s.titles, text); ok {
		if res, handled := s.handleSpecificDocument(ctx, text, title, st); handled {
			return res, nil
		}
	}
	if intent.Type == IntentGreetingWithHelp && intent.Subject != "" {
		return s.handleGreetingWithHelp(ctx, intent, st), nil
	}
	if intent.Type == IntentQuizRequest {
		return s.handleQuizRequest(ctx, text, intent, convCtx, st), nil
	}
	if IsQueryAboutNotes(text) {
		return s.handleNotesInventory(ctx, intent, convCtx, st), nil
	}
	return s.answer(ctx, text, intent, convCtx, st)
}

// loadContext reads the recent history of an owned conversation. Unknown or
// foreign conversations are dropped so the turn starts a new one.
func (s *Service) loadContext(ctx context.Context, st *turnState) ConversationContext {
	empty := ConversationContext{RecentTopics: []string{}}
	if st.conversationID == nil || s.convs == nil {
		return empty
	}
	if st.userID == nil {
		st.conversationID = nil
		return empty
	}
	conv, err := s.convs.Get(ctx, *st.userID, *st.conversationID)
	if err != nil {
		s.log.WithContext(ctx).Warn("ignoring conversation id", "conversation_id", *st.conversationID, "error", err)
		st.conversationID = nil
		return empty
	}
	msgs, err := s.convs.RecentMessages(ctx, conv.ID, contextMessageWindow)
	if err != nil {
		s.log.WithContext(ctx).Warn("load conversation history failed", "conversation_id", conv.ID, "error", err)
		msgs = nil
	}
	return BuildConversationContext(conv, msgs)
}

// persist stores a user/assistant pair, creating the conversation on first
// use. Failures are logged and the known conversation id is returned.
func (s *Service) persist(ctx context.Context, st *turnState, title, userContent, answer string) *uuid.UUID {
	if st.userID == nil || s.convs == nil {
		return st.conversationID
	}
	if st.conversationID == nil {
		if strings.TrimSpace(title) == "" {
			title = DefaultConversationTitle
		}
		conv, err := s.convs.Create(ctx, *st.userID, title)
		if err != nil {
			s.log.WithContext(ctx).Warn("create conversation failed", "error", err)
			return nil
		}
		id := conv.ID
		st.conversationID = &id
	}
	if strings.TrimSpace(answer) == "" {
		answer = " "
	}
	turn := services.Turn{UserContent: userContent, AssistantContent: answer, Metadata: s.turnMetadata(st.intent)}
	if err := s.convs.AppendTurn(ctx, *st.conversationID, turn); err != nil {
		s.log.WithContext(ctx).Warn("persist chat turn failed", "conversation_id", *st.conversationID, "error", err)
	}
	return st.conversationID
}

func (s *Service) turnMetadata(intent Intent) datatypes.JSON {
	if intent.Type == "" {
		return nil
	}
	raw, err := json.Marshal(map[string]any{"intent": intent.Type, "subject": intent.Subject})
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func (s *Service) recordActiveDocument(ctx context.Context, st *turnState, doc *types.Document) {
	if st.conversationID == nil || doc == nil || s.convs == nil {
		return
	}
	if err := s.convs.SetActiveDocument(ctx, *st.conversationID, doc.ID, doc.DisplayTitle()); err != nil {
		s.log.WithContext(ctx).Warn("record active document failed", "conversation_id", *st.conversationID, "document_id", doc.ID, "error", err)
	}
}

// offlineAnswer lists documents whose title or subject contains the query.
func (s *Service) offlineAnswer(ctx context.Context, text string) QueryResult {
	page, err := s.docs.List(ctx, 1, offlineListPageSize)
	if err != nil {
		s.log.WithContext(ctx).Warn("offline answer: list documents failed", "error", err)
		return QueryResult{Answer: "No pude acceder a los apuntes en este momento. ¿Podrías intentar de nuevo?", RelatedDocuments: []*types.Document{}}
	}
	q := strings.ToLower(text)
	related := []*types.Document{}
	if page != nil {
		for _, d := range page.Items {
			if strings.Contains(strings.ToLower(d.Subject), q) || strings.Contains(strings.ToLower(d.Title), q) {
				related = append(related, d)
			}
		}
	}
	if len(related) > offlineMaxDocuments {
		related = related[:offlineMaxDocuments]
	}
	if len(related) == 0 {
		return QueryResult{Answer: "No tengo apuntes específicos disponibles, pero puedo ayudarte con conceptos. ¿Qué necesitas saber?", RelatedDocuments: related}
	}
	answer := "Tengo estos apuntes disponibles:\n\n" + documentList(related) + "\n¿Quieres que use alguno para ayudarte?"
	return QueryResult{Answer: answer, RelatedDocuments: related}
}
