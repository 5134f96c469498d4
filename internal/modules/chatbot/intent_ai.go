package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/acaduss/acaduss-backend/internal/platform/openai"
)

const intentSystemPrompt = `Analiza la intención del usuario en esta consulta académica. Responde SOLO con un JSON válido:

{
  "type": "greeting_with_help" | "academic_help" | "document_search" | "general_question" | "subject_specific" | "quiz_request" | "exercise_request",
  "subject": "nombre de la materia si es específica",
  "confidence": 0.0-1.0,
  "keywords": ["palabra1", "palabra2"],
  "needsDocuments": true/false,
  "isGreeting": true/false,
  "quizType": "multiple_choice" | "true_false" | "open_ended",
  "questionCount": número de preguntas solicitadas
}

Tipos:
- greeting_with_help: Saludo + solicitud de ayuda con materia específica
- academic_help: Pide ayuda con conceptos, ejercicios, explicaciones
- document_search: Busca específicamente documentos o apuntes
- general_question: Pregunta general no académica
- subject_specific: Pregunta sobre una materia específica
- quiz_request: Solicita un quiz, examen o evaluación (ej: "hazme un quiz", "crea un examen")
- exercise_request: Solicita ejercicios o problemas para practicar

Si detectas una materia (matemáticas, física, química, programación, etc.), inclúyela en "subject".
Si la consulta sugiere que necesita documentos específicos, marca "needsDocuments": true.
Si es un saludo con solicitud de ayuda, marca "isGreeting": true.
Si solicita un quiz/examen, detecta el tipo y número de preguntas.`

// AIClassifier asks the completion API for a JSON intent.
type AIClassifier struct {
	Client openai.Client
}

type aiIntent struct {
	Type           string   `json:"type"`
	Subject        string   `json:"subject"`
	Confidence     float64  `json:"confidence"`
	Keywords       []string `json:"keywords"`
	NeedsDocuments bool     `json:"needsDocuments"`
	IsGreeting     bool     `json:"isGreeting"`
	QuizType       string   `json:"quizType"`
	QuestionCount  int      `json:"questionCount"`
}

func (c AIClassifier) Classify(ctx context.Context, text string) (Intent, error) {
	if c.Client == nil {
		return Intent{}, fmt.Errorf("no completion client configured")
	}
	out, err := c.Client.Complete(ctx, openai.Request{
		System:      intentSystemPrompt,
		User:        text,
		Temperature: 0.1,
		MaxTokens:   200,
	})
	if err != nil {
		return Intent{}, fmt.Errorf("intent completion: %w", err)
	}
	return parseIntentJSON(out.Text)
}

func parseIntentJSON(raw string) (Intent, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return Intent{}, fmt.Errorf("empty intent response")
	}
	var parsed aiIntent
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return Intent{}, fmt.Errorf("parse intent json: %w", err)
	}

	intent := Intent{
		Type:           IntentType(strings.TrimSpace(parsed.Type)),
		Subject:        strings.TrimSpace(parsed.Subject),
		Confidence:     parsed.Confidence,
		Keywords:       parsed.Keywords,
		NeedsDocuments: parsed.NeedsDocuments,
		IsGreeting:     parsed.IsGreeting,
		QuizType:       QuizType(strings.TrimSpace(parsed.QuizType)),
		QuestionCount:  parsed.QuestionCount,
	}
	if intent.Type == "" {
		intent.Type = IntentGeneralQuestion
	}
	if !intent.Type.Valid() {
		return Intent{}, fmt.Errorf("unknown intent type %q", parsed.Type)
	}
	if intent.Confidence <= 0 {
		intent.Confidence = 0.5
	}
	if intent.Keywords == nil {
		intent.Keywords = []string{}
	}
	switch intent.QuizType {
	case "", QuizMultipleChoice, QuizTrueFalse, QuizOpenEnded:
	default:
		intent.QuizType = QuizMultipleChoice
	}
	if intent.QuestionCount < 0 {
		intent.QuestionCount = 0
	}
	return intent, nil
}

// stripCodeFence removes a surrounding ```json fence that models sometimes
// add despite being told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
