package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/acaduss/acaduss-backend/internal/http/response"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
	"github.com/acaduss/acaduss-backend/internal/services"
)

const invalidDocumentID = "ID de documento inválido"

type DocumentHandlerDeps struct {
	Log       *logger.Logger
	Documents services.DocumentService
	Uploads   services.UploadService
}

type DocumentHandler struct {
	log     *logger.Logger
	docs    services.DocumentService
	uploads services.UploadService
}

func NewDocumentHandler(deps DocumentHandlerDeps) *DocumentHandler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &DocumentHandler{log: log.With("handler", "DocumentHandler"), docs: deps.Documents, uploads: deps.Uploads}
}

// GET /api/documents?page=1&pageSize=12
func (h *DocumentHandler) List(c *gin.Context) {
	page, err := h.docs.List(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "pageSize", services.DefaultDocumentPageSize))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/documents/search?q=
func (h *DocumentHandler) Search(c *gin.Context) {
	docs, err := h.docs.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, docs)
}

// GET /api/documents/popular?limit=10
func (h *DocumentHandler) Popular(c *gin.Context) {
	docs, err := h.docs.Popular(c.Request.Context(), queryInt(c, "limit", services.DefaultShowcaseLimit))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, docs)
}

// GET /api/documents/recent?limit=10
func (h *DocumentHandler) Recent(c *gin.Context) {
	docs, err := h.docs.Recent(c.Request.Context(), queryInt(c, "limit", services.DefaultShowcaseLimit))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, docs)
}

// GET /api/documents/stats
func (h *DocumentHandler) Stats(c *gin.Context) {
	stats, err := h.docs.Stats(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, stats)
}

// GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "invalid_document_id", invalidDocumentID)
	if !ok {
		return
	}
	doc, err := h.docs.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, doc)
}

// GET /api/documents/author/:authorId
func (h *DocumentHandler) ListByAuthor(c *gin.Context) {
	authorID, ok := parseIDParam(c, "authorId", "invalid_author_id", "ID de autor inválido")
	if !ok {
		return
	}
	docs, err := h.docs.ListByAuthor(c.Request.Context(), authorID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, docs)
}

// POST /api/documents (multipart/form-data)
// fields: file, title, subject, description
func (h *DocumentHandler) Create(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", errors.New("Falta el archivo"))
		return
	}
	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename))
	}
	description := c.PostForm("description")
	if description == "" {
		description = c.PostForm("content")
	}

	stored, err := h.uploads.Save(c.Request.Context(), fh)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	doc, err := h.docs.Create(c.Request.Context(), services.CreateDocumentInput{
		Title:       title,
		Subject:     c.PostForm("subject"),
		Description: description,
		FileURL:     stored.URL,
		FileType:    stored.MIME,
		FileSize:    stored.Size,
		AuthorID:    &userID,
	})
	if err != nil {
		h.log.WithContext(c.Request.Context()).Warn("document create failed after upload", "file", stored.Path, "error", err)
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, doc)
}

// PUT /api/documents/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "invalid_document_id", invalidDocumentID)
	if !ok {
		return
	}
	var req services.DocumentUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	doc, err := h.docs.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, doc)
}

// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "invalid_document_id", invalidDocumentID)
	if !ok {
		return
	}
	if err := h.docs.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/documents/:id/rate
// body: { "rating": 0..5 } ("score" is accepted too)
func (h *DocumentHandler) Rate(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "invalid_document_id", invalidDocumentID)
	if !ok {
		return
	}
	var req struct {
		Rating *float64 `json:"rating"`
		Score  *float64 `json:"score"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rating := req.Rating
	if rating == nil {
		rating = req.Score
	}
	if rating == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_rating", errors.New("La calificación debe estar entre 0 y 5"))
		return
	}
	doc, err := h.docs.Rate(c.Request.Context(), id, *rating)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, doc)
}

// POST /api/documents/:id/visit
func (h *DocumentHandler) Visit(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "invalid_document_id", invalidDocumentID)
	if !ok {
		return
	}
	if err := h.docs.IncrementViews(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/documents/:id/download
func (h *DocumentHandler) Download(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "invalid_document_id", invalidDocumentID)
	if !ok {
		return
	}
	if err := h.docs.IncrementDownloads(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
