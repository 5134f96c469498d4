package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/acaduss/acaduss-backend/internal/domain"
	pkgerrors "github.com/acaduss/acaduss-backend/internal/pkg/errors"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
	"github.com/acaduss/acaduss-backend/internal/platform/openai"
	"github.com/acaduss/acaduss-backend/internal/platform/pdftext"
)

const (
	analysisListPageSize = 200
	analysisContextRunes = 15000
)

// QueryWithDocument answers text using the extracted content of one
// document.
func (s *Service) QueryWithDocument(ctx context.Context, text string, documentID uuid.UUID) QueryResult {
	if s.ai == nil {
		return s.offlineAnswer(ctx, text)
	}

	doc, err := s.docs.Get(ctx, documentID)
	if err != nil || doc == nil {
		if err == nil || errors.Is(err, pkgerrors.ErrNotFound) {
			return QueryResult{Error: "Documento no encontrado", Answer: "No se pudo encontrar el documento especificado."}
		}
		s.log.WithContext(ctx).Error("load document failed", "document_id", documentID, "error", err)
		return QueryResult{Error: failedQueryError, Answer: failedQueryAnswer}
	}

	docContext := ""
	if doc.IsPDF() && s.extractor != nil {
		content, err := s.extractor.Extract(ctx, doc.FileURL)
		if err != nil {
			s.log.WithContext(ctx).Warn("pdf extraction for document answer failed", "document_id", doc.ID, "error", err)
		} else if strings.TrimSpace(content) != "" {
			docContext = fmt.Sprintf("\n\nCONTEXTO DEL DOCUMENTO \"%s\":\n%s", doc.DisplayTitle(), truncateRunes(content, documentContextRunes))
		}
	}

	out, err := s.ai.Complete(ctx, openai.Request{
		System:      tutorSystemPrompt,
		User:        "Pregunta del estudiante: " + text + docContext,
		Temperature: 0.7,
		MaxTokens:   1500,
		TopP:        answerTopP,
	})
	if err != nil {
		s.log.WithContext(ctx).Error("document answer completion failed", "document_id", doc.ID, "status", openai.StatusCode(err), "error", err)
		return QueryResult{Error: failedQueryError, Answer: failedQueryAnswer}
	}
	answer := strings.TrimSpace(out.Text)
	if answer == "" {
		answer = emptyAnswer
	}
	return QueryResult{
		Answer:           answer,
		RelatedDocuments: []*types.Document{doc},
		Model:            s.completionModel(out),
		Usage:            &out.Usage,
	}
}

// AnalyzeAllDocuments answers question against the text of every published
// PDF, bounded to a fixed context size.
func (s *Service) AnalyzeAllDocuments(ctx context.Context, question string) QueryResult {
	if s.ai == nil {
		return s.offlineAnswer(ctx, question)
	}
	failed := QueryResult{
		Error:  "Error al analizar los documentos. Intenta nuevamente más tarde.",
		Answer: "Lo siento, no pude procesar el análisis de documentos en este momento.",
	}

	page, err := s.docs.List(ctx, 1, analysisListPageSize)
	if err != nil {
		s.log.WithContext(ctx).Error("analysis: list documents failed", "error", err)
		return failed
	}
	var all []*types.Document
	if page != nil {
		all = page.Items
	}
	if len(all) == 0 {
		zero := 0
		return QueryResult{
			Answer:             "No hay documentos subidos para analizar. Por favor, sube algunos PDFs primero.",
			DocumentsProcessed: &zero,
			Model:              s.model,
		}
	}

	var pdfs []*types.Document
	for _, d := range all {
		if d.IsPDF() {
			pdfs = append(pdfs, d)
		}
	}
	texts := extractTexts(ctx, s.log, s.extractor, pdfs)
	var blocks []string
	for i, d := range pdfs {
		if strings.TrimSpace(texts[i]) == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("--- %s ---\n%s", d.DisplayTitle(), texts[i]))
	}
	combined := truncateRunes(strings.Join(blocks, "\n\n"), analysisContextRunes)
	docContext := ""
	if strings.TrimSpace(combined) != "" {
		docContext = "\n\nCONTENIDO DE TODOS LOS DOCUMENTOS:\n" + combined
	}

	out, err := s.ai.Complete(ctx, openai.Request{
		System:      analysisSystemPrompt,
		User:        "Pregunta: " + question + docContext,
		Temperature: 0.3,
		MaxTokens:   2000,
		TopP:        answerTopP,
	})
	if err != nil {
		s.log.WithContext(ctx).Error("analysis completion failed", "status", openai.StatusCode(err), "error", err)
		return failed
	}
	answer := strings.TrimSpace(out.Text)
	if answer == "" {
		answer = emptyAnswer
	}
	processed := len(all)
	contextLen := utf8.RuneCountInString(docContext)
	return QueryResult{
		Answer:             answer,
		DocumentsProcessed: &processed,
		PDFContextLength:   &contextLen,
		Model:              s.completionModel(out),
		Usage:              &out.Usage,
	}
}

// extractTexts extracts every document concurrently. texts[i] belongs to
// docs[i] and stays empty when extraction fails.
func extractTexts(ctx context.Context, log *logger.Logger, extractor pdftext.Extractor, docs []*types.Document) []string {
	texts := make([]string, len(docs))
	if extractor == nil || len(docs) == 0 {
		return texts
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractConcurrency)
	for i, d := range docs {
		g.Go(func() error {
			text, err := extractor.Extract(gctx, d.FileURL)
			if err != nil {
				log.WithContext(ctx).Warn("pdf extraction failed", "document_id", d.ID, "error", err)
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	_ = g.Wait()
	return texts
}
