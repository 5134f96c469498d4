package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acaduss/acaduss-backend/internal/http/response"
	"github.com/acaduss/acaduss-backend/internal/modules/chatbot"
	"github.com/acaduss/acaduss-backend/internal/services"
)

// Chatbot is implemented by *chatbot.Service.
type Chatbot interface {
	Query(ctx context.Context, text string, opts chatbot.QueryOptions) chatbot.QueryResult
	QueryWithDocument(ctx context.Context, text string, documentID uuid.UUID) chatbot.QueryResult
	AnalyzeAllDocuments(ctx context.Context, question string) chatbot.QueryResult
	Diagnostics() chatbot.Diagnostics
}

type ChatHandler struct {
	bot   Chatbot
	convs services.ConversationService
}

func NewChatHandler(bot Chatbot, convs services.ConversationService) *ChatHandler {
	return &ChatHandler{bot: bot, convs: convs}
}

type queryReq struct {
	Text           string `json:"text"`
	ConversationID string `json:"conversationId"`
	Title          string `json:"title"`
}

// POST /api/chat/query
func (h *ChatHandler) Query(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	var req queryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_text", errors.New("El texto de la consulta es obligatorio"))
		return
	}
	opts := chatbot.QueryOptions{UserID: &userID, Title: req.Title}
	if raw := strings.TrimSpace(req.ConversationID); raw != "" {
		convID, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", errors.New("ID de conversación inválido"))
			return
		}
		opts.ConversationID = &convID
	}
	response.RespondOK(c, h.bot.Query(c.Request.Context(), text, opts))
}

// POST /api/chat/query-with-document/:documentId
func (h *ChatHandler) QueryWithDocument(c *gin.Context) {
	docID, ok := parseIDParam(c, "documentId", "invalid_document_id", invalidDocumentID)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_text", errors.New("El texto de la consulta es obligatorio"))
		return
	}
	response.RespondOK(c, h.bot.QueryWithDocument(c.Request.Context(), strings.TrimSpace(req.Text), docID))
}

// POST /api/chat/analyze-documents
func (h *ChatHandler) AnalyzeDocuments(c *gin.Context) {
	var req struct {
		Question string `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_question", errors.New("La pregunta es obligatoria"))
		return
	}
	response.RespondOK(c, h.bot.AnalyzeAllDocuments(c.Request.Context(), strings.TrimSpace(req.Question)))
}

// GET /api/chat/diag
func (h *ChatHandler) Diagnostics(c *gin.Context) {
	response.RespondOK(c, h.bot.Diagnostics())
}

// POST /api/chat/conversations
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = chatbot.DefaultConversationTitle
	}
	conv, err := h.convs.Create(c.Request.Context(), userID, title)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, conv)
}

// GET /api/chat/conversations
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	convs, err := h.convs.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, convs)
}

// GET /api/chat/conversations/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	convID, ok := parseIDParam(c, "id", "invalid_conversation_id", "ID de conversación inválido")
	if !ok {
		return
	}
	msgs, err := h.convs.Messages(c.Request.Context(), userID, convID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, msgs)
}

// POST /api/chat/conversations/:id/messages
// body: { "role": "user" | "assistant", "content": "..." }
func (h *ChatHandler) AddMessage(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	convID, ok := parseIDParam(c, "id", "invalid_conversation_id", "ID de conversación inválido")
	if !ok {
		return
	}
	var req struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	msg, err := h.convs.AddMessage(c.Request.Context(), userID, convID, req.Role, req.Content)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, msg)
}

// DELETE /api/chat/conversations/:id
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	convID, ok := parseIDParam(c, "id", "invalid_conversation_id", "ID de conversación inválido")
	if !ok {
		return
	}
	if err := h.convs.Delete(c.Request.Context(), userID, convID); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
