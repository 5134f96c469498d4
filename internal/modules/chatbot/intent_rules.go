package chatbot

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/acaduss/acaduss-backend/internal/normalization"
)

var (
	greetingWithHelpREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)hola.*ayuda.*con`),
		regexp.MustCompile(`(?i)hi.*help.*with`),
		regexp.MustCompile(`(?i)buenos.*días.*ayuda`),
		regexp.MustCompile(`(?i)buenas.*tardes.*ayuda`),
		regexp.MustCompile(`(?i)buenas.*noches.*ayuda`),
		regexp.MustCompile(`(?i)saludos.*ayuda`),
	}
	quizREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)quiz|examen|evaluaci[oó]n|test|preguntas|alternativas`),
		regexp.MustCompile(`(?i)hazme.*quiz|crea.*examen|genera.*preguntas`),
		regexp.MustCompile(`(?i)\d+\s*preguntas|\d+\s*alternativas`),
	}
	questionCountREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\s*preguntas`),
		regexp.MustCompile(`(?i)(\d+)\s*alternativas`),
		regexp.MustCompile(`(?i)quiz\s*de\s*(\d+)`),
		regexp.MustCompile(`(?i)examen\s*de\s*(\d+)`),
	}
)

// RuleClassifier classifies with fixed patterns. It never fails and is used
// whenever no completion API is available.
type RuleClassifier struct{}

func (RuleClassifier) Classify(_ context.Context, text string) (Intent, error) {
	return classifyByRules(text), nil
}

func classifyByRules(text string) Intent {
	norm := normalization.Text(text)

	greeting := matchesAny(text, greetingWithHelpREs)
	subject := DetectSubject(text)
	mentionsDocs := strings.Contains(norm, "documento") || strings.Contains(norm, "apunte")
	needsDocs := mentionsDocs || strings.Contains(norm, "pdf") || strings.Contains(norm, "archivo") || greeting
	quiz := matchesAny(text, quizREs)

	intent := Intent{
		Type:           IntentAcademicHelp,
		Subject:        subject,
		Confidence:     0.6,
		Keywords:       ExtractKeywords(text),
		NeedsDocuments: needsDocs,
		IsGreeting:     greeting,
	}
	if subject != "" {
		intent.Confidence = 0.8
	}
	switch {
	case quiz:
		intent.Type = IntentQuizRequest
	case greeting && subject != "":
		intent.Type = IntentGreetingWithHelp
	case subject != "":
		intent.Type = IntentSubjectSpecific
	case mentionsDocs:
		intent.Type = IntentDocumentSearch
	}
	if quiz {
		intent.QuizType = detectQuizType(text)
		intent.QuestionCount = extractQuestionCount(text)
	}
	return intent
}

func extractQuestionCount(text string) int {
	for _, re := range questionCountREs {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return 0
}

func detectQuizType(text string) QuizType {
	lower := strings.ToLower(text)
	if containsAny(lower, []string{"alternativas", "opciones", "a)", "b)"}) {
		return QuizMultipleChoice
	}
	if containsAny(lower, []string{"verdadero", "falso", "true", "false"}) {
		return QuizTrueFalse
	}
	return QuizMultipleChoice
}

func matchesAny(text string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
