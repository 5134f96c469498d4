package chatbot

import (
	"reflect"
	"testing"

	"github.com/google/uuid"

	types "github.com/acaduss/acaduss-backend/internal/domain"
)

func msg(role, content string) *types.Message {
	return &types.Message{ID: uuid.New(), Role: role, Content: content}
}

func TestBuildConversationContextFromHistory(t *testing.T) {
	msgs := []*types.Message{
		msg(types.MessageRoleUser, "explícame lo básico: qué es una derivada"),
		msg(types.MessageRoleAssistant, `Según el documento "Cálculo diferencial", la derivada mide el cambio.`),
		msg(types.MessageRoleUser, "dame un ejemplo con polinomios"),
		msg(types.MessageRoleAssistant, "Claro, con x^2 la derivada es 2x."),
	}
	got := BuildConversationContext(&types.Conversation{ID: uuid.New()}, msgs)

	if got.UserLevel != LevelBeginner {
		t.Fatalf("UserLevel=%q", got.UserLevel)
	}
	if got.PreferredStyle != StyleStepByStep {
		t.Fatalf("PreferredStyle=%q", got.PreferredStyle)
	}
	wantTopics := []string{"explicame", "basico", "derivada", "dame", "ejemplo"}
	if !reflect.DeepEqual(got.RecentTopics, wantTopics) {
		t.Fatalf("RecentTopics=%v, want %v", got.RecentTopics, wantTopics)
	}
	if got.CurrentDocument == nil || got.CurrentDocument.Title != "Cálculo diferencial" || got.CurrentDocument.ID != nil {
		t.Fatalf("CurrentDocument=%+v", got.CurrentDocument)
	}
	if got.CurrentDocument.Subject != "matemáticas" || got.Subject != "matemáticas" {
		t.Fatalf("subject=%q/%q", got.CurrentDocument.Subject, got.Subject)
	}
	if len(got.History) != 4 || got.History[3] != "assistant: Claro, con x^2 la derivada es 2x." {
		t.Fatalf("History=%v", got.History)
	}
}

func TestBuildConversationContextPrefersStoredDocument(t *testing.T) {
	docID := uuid.New()
	conv := &types.Conversation{ID: uuid.New(), ActiveDocumentID: &docID, ActiveDocumentTitle: "Química orgánica"}
	msgs := []*types.Message{
		msg(types.MessageRoleAssistant, `Basándome en el apunte "Otro título" te respondo.`),
		msg(types.MessageRoleUser, "hazme un análisis avanzado"),
	}
	got := BuildConversationContext(conv, msgs)
	if got.CurrentDocument == nil || got.CurrentDocument.ID == nil || *got.CurrentDocument.ID != docID {
		t.Fatalf("CurrentDocument=%+v", got.CurrentDocument)
	}
	if got.CurrentDocument.Title != "Química orgánica" || got.CurrentDocument.Subject != "química" {
		t.Fatalf("CurrentDocument=%+v", got.CurrentDocument)
	}
	if got.UserLevel != LevelAdvanced || got.PreferredStyle != StyleDetailed {
		t.Fatalf("level=%q style=%q", got.UserLevel, got.PreferredStyle)
	}
}

func TestBuildConversationContextWindow(t *testing.T) {
	var msgs []*types.Message
	for i := 0; i < 12; i++ {
		msgs = append(msgs, msg(types.MessageRoleUser, "resumen breve"))
	}
	msgs[0] = msg(types.MessageRoleUser, "paso a paso")
	got := BuildConversationContext(nil, msgs)
	if got.PreferredStyle != StyleConcise {
		t.Fatalf("messages outside the window must not count, got %q", got.PreferredStyle)
	}
	if got.CurrentDocument != nil || len(got.History) != 5 {
		t.Fatalf("unexpected context: %+v", got)
	}
	if !reflect.DeepEqual(got.RecentTopics, []string{"resumen", "breve"}) {
		t.Fatalf("RecentTopics=%v", got.RecentTopics)
	}
}
