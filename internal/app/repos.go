package app

import (
	"gorm.io/gorm"

	"github.com/acaduss/acaduss-backend/internal/data/repos"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

type Repos struct {
	Profile      repos.ProfileRepo
	Document     repos.DocumentRepo
	Conversation repos.ConversationRepo
	Message      repos.MessageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Profile:      repos.NewProfileRepo(db, log),
		Document:     repos.NewDocumentRepo(db, log),
		Conversation: repos.NewConversationRepo(db, log),
		Message:      repos.NewMessageRepo(db, log),
	}
}
