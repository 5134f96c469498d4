package chatbot

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	types "github.com/acaduss/acaduss-backend/internal/domain"
	"github.com/acaduss/acaduss-backend/internal/normalization"
	"github.com/acaduss/acaduss-backend/internal/platform/openai"
)

const (
	greetingMaxDocuments  = 5
	inventoryMaxRelated   = 10
	inventoryMaxExamples  = 5
	relatedMaxDocuments   = 5
	documentContextRunes  = 8000
	quizTemperature       = 0.3
	quizMaxTokens         = 3000
	answerTopP            = 0.9
	inventoryListPageSize = 20
)

// handleSpecificDocument answers from the document the user named. handled
// is false when the title resolves to nothing, so the caller keeps going.
func (s *Service) handleSpecificDocument(ctx context.Context, text, title string, st *turnState) (QueryResult, bool) {
	matches, err := s.docs.Search(ctx, title)
	if err != nil {
		s.log.WithContext(ctx).Warn("resolve requested document failed", "title", title, "error", err)
		return QueryResult{}, false
	}
	doc := pickRequestedDocument(matches, title)
	if doc == nil {
		return QueryResult{}, false
	}

	res := s.QueryWithDocument(ctx, text, doc.ID)
	if res.Error != "" {
		return res, true
	}
	convTitle := st.title
	if convTitle == "" {
		convTitle = GenerateTitle(text)
	}
	res.ConversationID = s.persist(ctx, st, convTitle, text, res.Answer)
	s.recordActiveDocument(ctx, st, doc)
	return res, true
}

// pickRequestedDocument prefers an exact title, then a title containing the
// request, then a subject containing it, then the first search hit.
func pickRequestedDocument(docs []*types.Document, requested string) *types.Document {
	if len(docs) == 0 {
		return nil
	}
	target := strings.TrimSpace(normalization.Text(requested))
	for _, d := range docs {
		if strings.TrimSpace(normalization.Text(d.Title)) == target {
			return d
		}
	}
	for _, d := range docs {
		if strings.Contains(normalization.Text(d.Title), target) {
			return d
		}
	}
	for _, d := range docs {
		if strings.Contains(normalization.Text(d.Subject), target) {
			return d
		}
	}
	return docs[0]
}

func (s *Service) handleGreetingWithHelp(ctx context.Context, intent Intent, st *turnState) QueryResult {
	name := capitalize(intent.Subject)
	found, err := s.docs.Search(ctx, intent.Subject)
	if err != nil {
		s.log.WithContext(ctx).Warn("greeting: search documents failed", "subject", intent.Subject, "error", err)
		return QueryResult{
			Answer:           fmt.Sprintf("¡Hola! Puedo ayudarte con %s. ¿Qué necesitas saber?", name),
			ConversationID:   st.conversationID,
			SubjectQuery:     intent.Subject,
			RelatedDocuments: []*types.Document{},
			IsGreeting:       true,
		}
	}
	related := limitDocs(found, greetingMaxDocuments)

	answer := fmt.Sprintf("¡Hola! Puedo ayudarte con %s. ", name)
	if len(related) > 0 {
		answer += "Tengo estos apuntes disponibles:\n\n" + documentList(related) + "\n¿Quieres que use alguno para ayudarte?"
	} else {
		answer += fmt.Sprintf("No tengo apuntes de %s disponibles, pero puedo ayudarte con conceptos. ¿Qué necesitas saber?", name)
	}

	convID := s.persist(ctx, st, "Ayuda con "+name, "Hola, necesito ayuda con "+intent.Subject, answer)
	return QueryResult{
		Answer:           answer,
		ConversationID:   convID,
		ShowRelated:      len(related) > 0,
		SubjectQuery:     intent.Subject,
		RelatedDocuments: related,
		IsGreeting:       true,
	}
}

func (s *Service) handleQuizRequest(ctx context.Context, text string, intent Intent, convCtx ConversationContext, st *turnState) QueryResult {
	target, err := s.quizTarget(ctx, intent, convCtx)
	if err != nil {
		s.log.WithContext(ctx).Warn("quiz: resolve document failed", "error", err)
		return QueryResult{
			Answer:           "Lo siento, no pude generar el quiz en este momento. ¿Podrías intentar de nuevo o especificar qué apunte quieres que use?",
			ConversationID:   st.conversationID,
			SubjectQuery:     intent.Subject,
			RelatedDocuments: []*types.Document{},
		}
	}
	if target == nil {
		subject := intent.Subject
		if subject == "" {
			subject = "la materia"
		}
		return QueryResult{
			Answer:           fmt.Sprintf("No tengo un apunte específico de %s para crear el quiz. ¿Podrías especificar qué apunte quieres que use, o subir uno primero?", subject),
			ConversationID:   st.conversationID,
			SubjectQuery:     intent.Subject,
			RelatedDocuments: []*types.Document{},
		}
	}

	count := intent.QuestionCount
	if count <= 0 {
		count = DefaultQuizQuestions
	}
	quizType := intent.QuizType
	if quizType == "" {
		quizType = QuizMultipleChoice
	}
	answer, completion, generated := s.generateQuiz(ctx, target, count, quizType, text)

	label := intent.Subject
	if label == "" {
		label = "evaluación"
	}
	convID := s.persist(ctx, st, "Quiz de "+label, text, answer)
	s.recordActiveDocument(ctx, st, target)

	res := QueryResult{
		Answer:           answer,
		ConversationID:   convID,
		SubjectQuery:     intent.Subject,
		RelatedDocuments: []*types.Document{target},
		QuizGenerated:    generated,
	}
	if completion != nil {
		res.Model = s.completionModel(*completion)
		res.Usage = &completion.Usage
	}
	return res
}

// quizTarget resolves the active document first, by id and then by title,
// and otherwise the first document matching the subject.
func (s *Service) quizTarget(ctx context.Context, intent Intent, convCtx ConversationContext) (*types.Document, error) {
	if cur := convCtx.CurrentDocument; cur != nil {
		if cur.ID != nil {
			if doc, err := s.docs.Get(ctx, *cur.ID); err == nil && doc != nil {
				return doc, nil
			}
		}
		if strings.TrimSpace(cur.Title) != "" {
			found, err := s.docs.Search(ctx, cur.Title)
			if err != nil {
				return nil, err
			}
			if len(found) > 0 {
				return found[0], nil
			}
		}
	}
	if intent.Subject != "" {
		found, err := s.docs.Search(ctx, intent.Subject)
		if err != nil {
			return nil, err
		}
		if len(found) > 0 {
			return found[0], nil
		}
	}
	return nil, nil
}

// generateQuiz returns the answer text; generated is false when the answer
// explains why no quiz could be made.
func (s *Service) generateQuiz(ctx context.Context, doc *types.Document, count int, quizType QuizType, request string) (string, *openai.Completion, bool) {
	title := doc.DisplayTitle()
	content := ""
	if doc.IsPDF() && s.extractor != nil {
		text, err := s.extractor.Extract(ctx, doc.FileURL)
		if err != nil {
			s.log.WithContext(ctx).Warn("quiz: pdf extraction failed", "document_id", doc.ID, "error", err)
			return "Error generando el quiz: no se pudo leer el archivo PDF. ¿Podrías intentar de nuevo?", nil, false
		}
		content = truncateRunes(text, documentContextRunes)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Sprintf("No pude acceder al contenido del documento \"%s\". ¿Podrías verificar que el archivo esté disponible?", title), nil, false
	}

	out, err := s.ai.Complete(ctx, openai.Request{
		System:      quizSystemPrompt(count, quizType),
		User:        quizUserPrompt(count, quizType, title, doc.Subject, content, request),
		Temperature: quizTemperature,
		MaxTokens:   quizMaxTokens,
	})
	if err != nil {
		s.log.WithContext(ctx).Error("quiz completion failed", "status", openai.StatusCode(err), "error", err)
		return fmt.Sprintf("Error generando el quiz: %s. ¿Podrías intentar de nuevo?", err.Error()), nil, false
	}
	quiz := strings.TrimSpace(out.Text)
	if quiz == "" {
		quiz = "No se pudo generar el quiz."
	}
	return quizAnswer(title, quiz), &out, true
}

func (s *Service) handleNotesInventory(ctx context.Context, intent Intent, convCtx ConversationContext, st *turnState) QueryResult {
	query := intent.Subject
	if query == "" {
		query = convCtx.Subject
	}

	var related []*types.Document
	var total int64
	if query != "" {
		found, err := s.docs.Search(ctx, query)
		if err != nil {
			s.log.WithContext(ctx).Warn("inventory: search documents failed", "query", query, "error", err)
		} else {
			related = limitDocs(found, inventoryMaxRelated)
			total = int64(len(found))
		}
	} else {
		page, err := s.docs.List(ctx, 1, inventoryListPageSize)
		if err != nil {
			s.log.WithContext(ctx).Warn("inventory: list documents failed", "error", err)
		} else if page != nil {
			related = page.Items
			total = page.Total
			if total == 0 {
				total = int64(len(related))
			}
		}
	}
	if related == nil {
		related = []*types.Document{}
	}

	subjectPart := ""
	if intent.Subject != "" {
		subjectPart = " de " + intent.Subject
	}
	answer := fmt.Sprintf("No encuentro apuntes%s.", subjectPart)
	if total > 0 {
		answer = fmt.Sprintf("Tengo %d apuntes%s.", total, subjectPart)
	}
	if len(related) > 0 {
		answer += "\n\nEjemplos:\n" + documentList(limitDocs(related, inventoryMaxExamples))
	}
	answer += "\n\n¿Quieres que use alguno?"

	convTitle := st.title
	if convTitle == "" {
		base := intent.Subject
		if base == "" {
			base = "Consulta sobre apuntes"
		}
		convTitle = GenerateTitle(base)
	}
	convID := s.persist(ctx, st, convTitle, "Consulta sobre apuntes disponibles", answer)
	return QueryResult{
		Answer:           answer,
		ConversationID:   convID,
		ShowRelated:      len(related) > 0,
		SubjectQuery:     intent.Subject,
		RelatedDocuments: related,
	}
}

// answer is the general path: optional document context, then a tutor
// completion shaped by the conversation context.
func (s *Service) answer(ctx context.Context, text string, intent Intent, convCtx ConversationContext, st *turnState) (QueryResult, error) {
	docContext := ""
	if intent.NeedsDocuments || NeedsDocumentContext(text) || intent.Type == IntentSubjectSpecific {
		found := s.ranker.FindRelevantDocuments(ctx, intent, convCtx, text)
		docContext = found.Context
		s.log.WithContext(ctx).Debug("document context built", "processed", found.Processed, "context_runes", utf8.RuneCountInString(docContext))
	}

	out, err := s.ai.Complete(ctx, openai.Request{
		System:      tutorSystemPrompt,
		User:        contextualPrompt(text, intent, convCtx, docContext),
		Temperature: answerTemperature(intent, convCtx),
		MaxTokens:   answerMaxTokens(convCtx),
		TopP:        answerTopP,
	})
	if err != nil {
		return QueryResult{}, err
	}
	answer := strings.TrimSpace(out.Text)
	if answer == "" {
		answer = emptyAnswer
	}

	convTitle := st.title
	if convTitle == "" {
		convTitle = GenerateTitle(text)
	}
	convID := s.persist(ctx, st, convTitle, text, answer)

	related := []*types.Document{}
	if intent.Type == IntentSubjectSpecific && docContext == "" {
		q := intent.Subject
		if q == "" && len(intent.Keywords) > 0 {
			q = intent.Keywords[0]
		}
		if q != "" {
			found, err := s.docs.Search(ctx, q)
			if err != nil {
				s.log.WithContext(ctx).Warn("related documents search failed", "query", q, "error", err)
			} else {
				related = limitDocs(found, relatedMaxDocuments)
			}
		}
	}

	return QueryResult{
		Answer:           answer,
		ConversationID:   convID,
		ShowRelated:      len(related) > 0,
		SubjectQuery:     intent.Subject,
		RelatedDocuments: related,
		Model:            s.completionModel(out),
		Usage:            &out.Usage,
	}, nil
}

func (s *Service) completionModel(c openai.Completion) string {
	if c.Model != "" {
		return c.Model
	}
	return s.model
}

func limitDocs(docs []*types.Document, n int) []*types.Document {
	if len(docs) > n {
		return docs[:n]
	}
	if docs == nil {
		return []*types.Document{}
	}
	return docs
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
