package chatbot

import (
	"github.com/google/uuid"

	types "github.com/acaduss/acaduss-backend/internal/domain"
	"github.com/acaduss/acaduss-backend/internal/platform/openai"
)

type IntentType string

const (
	IntentGreetingWithHelp IntentType = "greeting_with_help"
	IntentAcademicHelp     IntentType = "academic_help"
	IntentDocumentSearch   IntentType = "document_search"
	IntentGeneralQuestion  IntentType = "general_question"
	IntentSubjectSpecific  IntentType = "subject_specific"
	IntentQuizRequest      IntentType = "quiz_request"
	IntentExerciseRequest  IntentType = "exercise_request"
)

func (t IntentType) Valid() bool {
	switch t {
	case IntentGreetingWithHelp, IntentAcademicHelp, IntentDocumentSearch, IntentGeneralQuestion,
		IntentSubjectSpecific, IntentQuizRequest, IntentExerciseRequest:
		return true
	default:
		return false
	}
}

type QuizType string

const (
	QuizMultipleChoice QuizType = "multiple_choice"
	QuizTrueFalse      QuizType = "true_false"
	QuizOpenEnded      QuizType = "open_ended"
)

const DefaultQuizQuestions = 15

// Intent is the classification of a single user message.
type Intent struct {
	Type           IntentType `json:"type"`
	Subject        string     `json:"subject,omitempty"`
	Confidence     float64    `json:"confidence"`
	Keywords       []string   `json:"keywords"`
	NeedsDocuments bool       `json:"needsDocuments"`
	IsGreeting     bool       `json:"isGreeting"`
	QuizType       QuizType   `json:"quizType,omitempty"`
	QuestionCount  int        `json:"questionCount,omitempty"`
}

type UserLevel string

const (
	LevelBeginner     UserLevel = "beginner"
	LevelIntermediate UserLevel = "intermediate"
	LevelAdvanced     UserLevel = "advanced"
)

type Style string

const (
	StyleDetailed   Style = "detailed"
	StyleConcise    Style = "concise"
	StyleStepByStep Style = "step_by_step"
)

// ActiveDocument is the document a conversation is working with. ID is nil
// when the document was only recognized by title in an earlier answer.
type ActiveDocument struct {
	ID      *uuid.UUID `json:"id,omitempty"`
	Title   string     `json:"title"`
	Subject string     `json:"subject"`
}

// ConversationContext is derived from the recent history of a conversation.
type ConversationContext struct {
	RecentTopics    []string        `json:"recentTopics"`
	Subject         string          `json:"subject,omitempty"`
	UserLevel       UserLevel       `json:"userLevel"`
	PreferredStyle  Style           `json:"preferredStyle"`
	CurrentDocument *ActiveDocument `json:"currentDocument,omitempty"`
	History         []string        `json:"history,omitempty"`
}

type QueryOptions struct {
	UserID         *uuid.UUID
	ConversationID *uuid.UUID
	Title          string
}

// QueryResult is the answer payload returned to chat clients. Error is set
// together with an apologetic Answer when an upstream call failed.
type QueryResult struct {
	Answer             string            `json:"answer"`
	Error              string            `json:"error,omitempty"`
	ConversationID     *uuid.UUID        `json:"conversationId,omitempty"`
	ShowRelated        bool              `json:"showRelated"`
	SubjectQuery       string            `json:"subjectQuery,omitempty"`
	RelatedDocuments   []*types.Document `json:"relatedDocuments,omitempty"`
	Model              string            `json:"model,omitempty"`
	Usage              *openai.Usage     `json:"usage,omitempty"`
	IsGreeting         bool              `json:"isGreeting,omitempty"`
	QuizGenerated      bool              `json:"quizGenerated,omitempty"`
	DocumentsProcessed *int              `json:"documentsProcessed,omitempty"`
	PDFContextLength   *int              `json:"pdfContextLength,omitempty"`
}

type Diagnostics struct {
	OpenAIConfigured bool   `json:"openaiConfigured"`
	Model            string `json:"model"`
}
