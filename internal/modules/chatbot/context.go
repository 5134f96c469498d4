package chatbot

import (
	"fmt"
	"regexp"
	"strings"

	types "github.com/acaduss/acaduss-backend/internal/domain"
)

const (
	contextMessageWindow = 10
	contextHistoryWindow = 5
	maxRecentTopics      = 5
)

var (
	beginnerMarkers = []string{"básico", "principiante", "empezar", "introducción", "qué es"}
	advancedMarkers = []string{"avanzado", "complejo", "optimización", "implementación", "análisis"}

	quotedDocumentREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)documento.*"([^"]+)"`),
		regexp.MustCompile(`(?i)apunte.*"([^"]+)"`),
		regexp.MustCompile(`(?i)basándome.*"([^"]+)"`),
		regexp.MustCompile(`(?i)según.*"([^"]+)"`),
		regexp.MustCompile(`(?i)en el.*"([^"]+)"`),
	}
)

// BuildConversationContext derives topics, level, style and the active
// document from the latest messages of conv. msgs must be oldest first.
func BuildConversationContext(conv *types.Conversation, msgs []*types.Message) ConversationContext {
	if len(msgs) > contextMessageWindow {
		msgs = msgs[len(msgs)-contextMessageWindow:]
	}

	var userText []string
	var topics []string
	for _, m := range msgs {
		if m == nil || m.Role != types.MessageRoleUser {
			continue
		}
		userText = append(userText, m.Content)
		topics = append(topics, ExtractKeywords(m.Content)...)
	}
	if len(topics) > maxRecentTopics {
		topics = topics[:maxRecentTopics]
	}
	joined := strings.ToLower(strings.Join(userText, " "))

	out := ConversationContext{
		RecentTopics:    dedupe(topics),
		UserLevel:       detectUserLevel(joined),
		PreferredStyle:  detectPreferredStyle(joined),
		CurrentDocument: activeDocument(conv, msgs),
	}
	if d := out.CurrentDocument; d != nil && d.Subject != "general" {
		out.Subject = d.Subject
	}

	history := msgs
	if len(history) > contextHistoryWindow {
		history = history[len(history)-contextHistoryWindow:]
	}
	for _, m := range history {
		if m != nil {
			out.History = append(out.History, fmt.Sprintf("%s: %s", m.Role, m.Content))
		}
	}
	return out
}

func detectUserLevel(lower string) UserLevel {
	beginner, advanced := 0, 0
	for _, k := range beginnerMarkers {
		if strings.Contains(lower, k) {
			beginner++
		}
	}
	for _, k := range advancedMarkers {
		if strings.Contains(lower, k) {
			advanced++
		}
	}
	switch {
	case advanced > beginner:
		return LevelAdvanced
	case beginner > 0:
		return LevelBeginner
	default:
		return LevelIntermediate
	}
}

func detectPreferredStyle(lower string) Style {
	if containsAny(lower, []string{"paso a paso", "ejemplo", "cómo"}) {
		return StyleStepByStep
	}
	if containsAny(lower, []string{"resumen", "breve", "rápido"}) {
		return StyleConcise
	}
	return StyleDetailed
}

// activeDocument prefers the document stored on the conversation and falls
// back to the newest quoted title in an assistant reply.
func activeDocument(conv *types.Conversation, msgs []*types.Message) *ActiveDocument {
	if conv != nil && strings.TrimSpace(conv.ActiveDocumentTitle) != "" {
		id := conv.ActiveDocumentID
		return &ActiveDocument{ID: id, Title: conv.ActiveDocumentTitle, Subject: SubjectFromTitle(conv.ActiveDocumentTitle)}
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil || m.Role != types.MessageRoleAssistant {
			continue
		}
		for _, re := range quotedDocumentREs {
			if match := re.FindStringSubmatch(m.Content); match != nil {
				return &ActiveDocument{Title: match[1], Subject: SubjectFromTitle(match[1])}
			}
		}
	}
	return nil
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
