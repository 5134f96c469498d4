package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Conversation struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Title  string    `gorm:"column:title;not null;default:''" json:"title"`

	// The document the conversation is currently working with, set when the
	// assistant answers from a specific document or builds a quiz from it.
	ActiveDocumentID    *uuid.UUID `gorm:"type:uuid;column:active_document_id" json:"active_document_id,omitempty"`
	ActiveDocumentTitle string     `gorm:"column:active_document_title;not null;default:''" json:"active_document_title,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversations" }

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
