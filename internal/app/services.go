package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/acaduss/acaduss-backend/internal/modules/chatbot"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
	"github.com/acaduss/acaduss-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	User         services.UserService
	Document     services.DocumentService
	Upload       services.UploadService
	Conversation services.ConversationService

	Chatbot *chatbot.Service
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	auth := services.NewAuthService(db, log, repos.Profile, services.AuthConfig{
		JWTSecret:           cfg.JWTSecret,
		AccessTTL:           cfg.AccessTokenTTL,
		InstitutionalDomain: cfg.InstitutionalDomain,
	})
	user := services.NewUserService(db, log, repos.Profile)
	document := services.NewDocumentService(db, log, repos.Document)
	conversation := services.NewConversationService(db, log, repos.Conversation, repos.Message)

	upload, err := services.NewUploadService(log, cfg.UploadsDir, cfg.MaxUploadBytes)
	if err != nil {
		return Services{}, fmt.Errorf("init upload service: %w", err)
	}

	bot := chatbot.New(chatbot.Deps{
		Log:           log,
		AI:            clients.OpenAI,
		Model:         cfg.OpenAIModel,
		Documents:     document,
		Conversations: conversation,
		Extractor:     clients.PDF,
	})

	return Services{
		Auth:         auth,
		User:         user,
		Document:     document,
		Upload:       upload,
		Conversation: conversation,
		Chatbot:      bot,
	}, nil
}
