package repos

import (
	"gorm.io/gorm"

	"github.com/acaduss/acaduss-backend/internal/data/repos/chat"
	"github.com/acaduss/acaduss-backend/internal/data/repos/documents"
	"github.com/acaduss/acaduss-backend/internal/data/repos/user"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

type ProfileRepo = user.ProfileRepo

type DocumentRepo = documents.DocumentRepo

type ConversationRepo = chat.ConversationRepo
type MessageRepo = chat.MessageRepo

const (
	CounterViews     = documents.CounterViews
	CounterDownloads = documents.CounterDownloads
)

func NewProfileRepo(db *gorm.DB, log *logger.Logger) ProfileRepo {
	return user.NewProfileRepo(db, log)
}

func NewDocumentRepo(db *gorm.DB, log *logger.Logger) DocumentRepo {
	return documents.NewDocumentRepo(db, log)
}

func NewConversationRepo(db *gorm.DB, log *logger.Logger) ConversationRepo {
	return chat.NewConversationRepo(db, log)
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return chat.NewMessageRepo(db, log)
}
