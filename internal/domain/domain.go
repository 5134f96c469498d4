package domain

import (
	"github.com/acaduss/acaduss-backend/internal/domain/chat"
	"github.com/acaduss/acaduss-backend/internal/domain/documents"
	"github.com/acaduss/acaduss-backend/internal/domain/user"
)

const (
	DocumentStatusPublished = documents.StatusPublished
	DocumentStatusDraft     = documents.StatusDraft
	DocumentStatusArchived  = documents.StatusArchived

	MessageRoleUser      = chat.RoleUser
	MessageRoleAssistant = chat.RoleAssistant

	RoleStudent = user.RoleStudent
	RoleTeacher = user.RoleTeacher
	RoleAdmin   = user.RoleAdmin
)

type Document = documents.Document
type DocumentPage = documents.Page
type DocumentStats = documents.Stats

type Conversation = chat.Conversation
type Message = chat.Message

type Profile = user.Profile

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{
		&Profile{},
		&Document{},
		&Conversation{},
		&Message{},
	}
}

func ValidMessageRole(role string) bool { return chat.ValidRole(role) }

func ValidProfileRole(role string) bool { return user.ValidRole(role) }
