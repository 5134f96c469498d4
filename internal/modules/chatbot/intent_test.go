package chatbot

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/acaduss/acaduss-backend/internal/platform/logger"
	"github.com/acaduss/acaduss-backend/internal/platform/openai"
)

func TestExtractKeywords(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{text: "", want: []string{}},
		{text: "Necesito ayuda con Cálculo y Álgebra", want: []string{"calculo", "algebra"}},
		{text: "derivada derivada integral de la función", want: []string{"derivada", "integral", "funcion"}},
		{text: "uno dos tres cuatro cinco seis siete", want: []string{"uno", "dos", "tres", "cuatro", "cinco"}},
	}
	for _, tc := range cases {
		if got := ExtractKeywords(tc.text); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("ExtractKeywords(%q)=%v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestDocumentAndInventoryPhrases(t *testing.T) {
	if !NeedsDocumentContext("Analiza el PDF de estructuras") {
		t.Fatalf("expected document context")
	}
	if NeedsDocumentContext("¿qué es una derivada?") {
		t.Fatalf("unexpected document context")
	}
	if !IsQueryAboutNotes("¿Tienes apuntes de física?") {
		t.Fatalf("expected inventory query")
	}
	if IsQueryAboutNotes("explícame los apuntes") {
		t.Fatalf("unexpected inventory query")
	}
	if got := SubjectFromTitle("Matemáticas Discretas II"); got != "matemáticas" {
		t.Fatalf("SubjectFromTitle=%q", got)
	}
	if got := SubjectFromTitle("Historia del arte"); got != "general" {
		t.Fatalf("SubjectFromTitle=%q", got)
	}
}

func TestRuleClassifier(t *testing.T) {
	cases := []struct {
		name       string
		text       string
		typ        IntentType
		subject    string
		confidence float64
		needsDocs  bool
		greeting   bool
		quizType   QuizType
		count      int
	}{
		{name: "greeting", text: "Hola, necesito ayuda con cálculo", typ: IntentGreetingWithHelp, subject: "matemáticas", confidence: 0.8, needsDocs: true, greeting: true},
		{name: "quiz_count", text: "hazme un quiz de 10 preguntas de química", typ: IntentQuizRequest, subject: "química", confidence: 0.8, quizType: QuizMultipleChoice, count: 10},
		{name: "quiz_true_false", text: "examen verdadero o falso de historia", typ: IntentQuizRequest, subject: "historia", confidence: 0.8, quizType: QuizTrueFalse},
		{name: "subject", text: "¿Qué es la termodinámica?", typ: IntentSubjectSpecific, subject: "física", confidence: 0.8},
		{name: "document_search", text: "busco el apunte del profe", typ: IntentDocumentSearch, confidence: 0.6, needsDocs: true},
		{name: "academic_help", text: "explícame esto por favor", typ: IntentAcademicHelp, confidence: 0.6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RuleClassifier{}.Classify(context.Background(), tc.text)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got.Type != tc.typ || got.Subject != tc.subject || got.Confidence != tc.confidence {
				t.Fatalf("got type=%s subject=%q confidence=%v", got.Type, got.Subject, got.Confidence)
			}
			if got.NeedsDocuments != tc.needsDocs || got.IsGreeting != tc.greeting {
				t.Fatalf("got needsDocuments=%v isGreeting=%v", got.NeedsDocuments, got.IsGreeting)
			}
			if got.QuizType != tc.quizType || got.QuestionCount != tc.count {
				t.Fatalf("got quizType=%q count=%d", got.QuizType, got.QuestionCount)
			}
		})
	}
}

func TestParseIntentJSON(t *testing.T) {
	fenced := "```json\n{\"type\":\"subject_specific\",\"subject\":\"física\",\"confidence\":0.9,\"keywords\":[\"energia\"],\"needsDocuments\":true}\n```"
	got, err := parseIntentJSON(fenced)
	if err != nil {
		t.Fatalf("parse fenced: %v", err)
	}
	if got.Type != IntentSubjectSpecific || got.Subject != "física" || got.Confidence != 0.9 || !got.NeedsDocuments {
		t.Fatalf("unexpected intent: %+v", got)
	}

	defaults, err := parseIntentJSON(`{}`)
	if err != nil {
		t.Fatalf("parse empty object: %v", err)
	}
	if defaults.Type != IntentGeneralQuestion || defaults.Confidence != 0.5 || defaults.Keywords == nil {
		t.Fatalf("unexpected defaults: %+v", defaults)
	}

	for _, bad := range []string{"", "no es json", `{"type":"weather"}`} {
		if _, err := parseIntentJSON(bad); err == nil {
			t.Fatalf("parseIntentJSON(%q) should fail", bad)
		}
	}
}

func TestFallbackClassifier(t *testing.T) {
	ctx := context.Background()

	failing := &fakeAI{reply: func(openai.Request) (string, error) { return "", errors.New("upstream 500") }}
	c := NewFallbackClassifier(logger.Nop(), AIClassifier{Client: failing}, RuleClassifier{})
	got, err := c.Classify(ctx, "¿Qué es la termodinámica?")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Type != IntentSubjectSpecific || got.Subject != "física" {
		t.Fatalf("expected rule result, got %+v", got)
	}

	garbage := &fakeAI{reply: func(openai.Request) (string, error) { return "claro, aquí va", nil }}
	c = NewFallbackClassifier(logger.Nop(), AIClassifier{Client: garbage}, nil)
	if got, err = c.Classify(ctx, "busco el apunte del profe"); err != nil || got.Type != IntentDocumentSearch {
		t.Fatalf("unparsable output should fall back: %+v %v", got, err)
	}

	ok := &fakeAI{reply: func(openai.Request) (string, error) {
		return `{"type":"exercise_request","subject":"programación","confidence":0.7,"keywords":["python"]}`, nil
	}}
	c = NewFallbackClassifier(logger.Nop(), AIClassifier{Client: ok}, RuleClassifier{})
	if got, err = c.Classify(ctx, "dame ejercicios de python"); err != nil || got.Type != IntentExerciseRequest {
		t.Fatalf("expected ai intent: %+v %v", got, err)
	}
	reqs := ok.requests()
	if len(reqs) != 1 || reqs[0].Temperature != 0.1 || reqs[0].MaxTokens != 200 || reqs[0].User != "dame ejercicios de python" {
		t.Fatalf("unexpected classifier request: %+v", reqs)
	}
}
