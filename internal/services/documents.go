package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acaduss/acaduss-backend/internal/data/repos"
	types "github.com/acaduss/acaduss-backend/internal/domain"
	"github.com/acaduss/acaduss-backend/internal/normalization"
	"github.com/acaduss/acaduss-backend/internal/pkg/dbctx"
	pkgerrors "github.com/acaduss/acaduss-backend/internal/pkg/errors"
	"github.com/acaduss/acaduss-backend/internal/platform/apierr"
	"github.com/acaduss/acaduss-backend/internal/platform/ctxutil"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

const (
	DefaultDocumentPageSize = 12
	MaxDocumentPageSize     = 200
	DefaultShowcaseLimit    = 10
	MaxRating               = 5
)

type CreateDocumentInput struct {
	Title       string
	Subject     string
	Description string
	FileURL     string
	FileType    string
	FileSize    int64
	AuthorID    *uuid.UUID
}

// DocumentUpdate holds the editable fields. Nil means unchanged.
type DocumentUpdate struct {
	Title   *string `json:"title"`
	Subject *string `json:"subject"`
	Content *string `json:"content"`
	Status  *string `json:"status"`
}

type DocumentService interface {
	Create(ctx context.Context, in CreateDocumentInput) (*types.Document, error)
	List(ctx context.Context, page, pageSize int) (*types.DocumentPage, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Document, error)
	Search(ctx context.Context, q string) ([]*types.Document, error)
	Rate(ctx context.Context, id uuid.UUID, rating float64) (*types.Document, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	IncrementDownloads(ctx context.Context, id uuid.UUID) error
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*types.Document, error)
	Update(ctx context.Context, id uuid.UUID, in DocumentUpdate) (*types.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Popular(ctx context.Context, limit int) ([]*types.Document, error)
	Recent(ctx context.Context, limit int) ([]*types.Document, error)
	Stats(ctx context.Context) (*types.DocumentStats, error)
}

type documentService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.DocumentRepo
}

func NewDocumentService(db *gorm.DB, log *logger.Logger, repo repos.DocumentRepo) DocumentService {
	return &documentService{db: db, log: log.With("service", "DocumentService"), repo: repo}
}

func (s *documentService) Create(ctx context.Context, in CreateDocumentInput) (*types.Document, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apierr.BadRequest("missing_title", "El título es obligatorio")
	}
	doc := &types.Document{
		Title:    title,
		Subject:  strings.TrimSpace(in.Subject),
		Content:  in.Description,
		FileURL:  strings.TrimSpace(in.FileURL),
		FileType: in.FileType,
		FileSize: in.FileSize,
		Status:   types.DocumentStatusPublished,
		AuthorID: in.AuthorID,
	}
	if strings.Contains(strings.ToLower(in.FileType), "pdf") {
		doc.Rating = 3
	}
	created, err := s.repo.Create(dbctx.Background(ctx), doc)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.log.Info("document created", "document_id", created.ID.String(), "file_type", created.FileType)
	return created, nil
}

func (s *documentService) List(ctx context.Context, page, pageSize int) (*types.DocumentPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultDocumentPageSize
	}
	if pageSize > MaxDocumentPageSize {
		pageSize = MaxDocumentPageSize
	}
	items, total, err := s.repo.ListPublished(dbctx.Background(ctx), (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if items == nil {
		items = []*types.Document{}
	}
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	if totalPages < 1 {
		totalPages = 1
	}
	return &types.DocumentPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *documentService) Get(ctx context.Context, id uuid.UUID) (*types.Document, error) {
	doc, err := s.repo.GetByID(dbctx.Background(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document %s: %w", id, pkgerrors.ErrNotFound)
	}
	return doc, nil
}

func (s *documentService) Search(ctx context.Context, q string) ([]*types.Document, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		page, err := s.List(ctx, 1, 50)
		if err != nil {
			return nil, err
		}
		return page.Items, nil
	}
	docs, err := s.repo.SearchPublished(dbctx.Background(ctx), normalization.Text(q))
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	if docs == nil {
		docs = []*types.Document{}
	}
	return docs, nil
}

// Rate replaces the stored rating with the submitted score.
func (s *documentService) Rate(ctx context.Context, id uuid.UUID, rating float64) (*types.Document, error) {
	if math.IsNaN(rating) || rating < 0 || rating > MaxRating {
		return nil, apierr.BadRequest("invalid_rating", "La calificación debe estar entre 0 y 5")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateFields(dbctx.Background(ctx), id, map[string]interface{}{"rating": rating}); err != nil {
		return nil, fmt.Errorf("rate document: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *documentService) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return s.increment(ctx, id, repos.CounterViews)
}

func (s *documentService) IncrementDownloads(ctx context.Context, id uuid.UUID) error {
	return s.increment(ctx, id, repos.CounterDownloads)
}

func (s *documentService) increment(ctx context.Context, id uuid.UUID, column string) error {
	ok, err := s.repo.IncrementCounter(dbctx.Background(ctx), id, column)
	if err != nil {
		return fmt.Errorf("increment %s: %w", column, err)
	}
	if !ok {
		return fmt.Errorf("document %s: %w", id, pkgerrors.ErrNotFound)
	}
	return nil
}

func (s *documentService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*types.Document, error) {
	docs, err := s.repo.ListByAuthor(dbctx.Background(ctx), authorID)
	if err != nil {
		return nil, fmt.Errorf("list documents by author: %w", err)
	}
	if docs == nil {
		docs = []*types.Document{}
	}
	return docs, nil
}

// canModify allows the author and admins. Documents without an author are admin-only.
func canModify(ctx context.Context, doc *types.Document) bool {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return false
	}
	if rd.Role == types.RoleAdmin {
		return true
	}
	return doc.AuthorID != nil && *doc.AuthorID == rd.UserID
}

func (s *documentService) Update(ctx context.Context, id uuid.UUID, in DocumentUpdate) (*types.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(ctx, doc) {
		return nil, fmt.Errorf("update document %s: %w", id, pkgerrors.ErrForbidden)
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apierr.BadRequest("missing_title", "El título es obligatorio")
		}
		doc.Title = title
	}
	if in.Subject != nil {
		doc.Subject = strings.TrimSpace(*in.Subject)
	}
	if in.Content != nil {
		doc.Content = *in.Content
	}
	if in.Status != nil {
		switch st := strings.ToLower(strings.TrimSpace(*in.Status)); st {
		case types.DocumentStatusPublished, types.DocumentStatusDraft, types.DocumentStatusArchived:
			doc.Status = st
		default:
			return nil, apierr.BadRequest("invalid_status", "Estado inválido")
		}
	}
	if err := s.repo.Save(dbctx.Background(ctx), doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(ctx, doc) {
		return fmt.Errorf("delete document %s: %w", id, pkgerrors.ErrForbidden)
	}
	ok, err := s.repo.Delete(dbctx.Background(ctx), id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if !ok {
		return fmt.Errorf("document %s: %w", id, pkgerrors.ErrNotFound)
	}
	s.log.Info("document deleted", "document_id", id.String())
	return nil
}

func (s *documentService) Popular(ctx context.Context, limit int) ([]*types.Document, error) {
	if limit <= 0 {
		limit = DefaultShowcaseLimit
	}
	docs, err := s.repo.ListPopular(dbctx.Background(ctx), limit)
	if err != nil {
		return nil, fmt.Errorf("list popular documents: %w", err)
	}
	if docs == nil {
		docs = []*types.Document{}
	}
	return docs, nil
}

func (s *documentService) Recent(ctx context.Context, limit int) ([]*types.Document, error) {
	if limit <= 0 {
		limit = DefaultShowcaseLimit
	}
	docs, err := s.repo.ListRecent(dbctx.Background(ctx), limit)
	if err != nil {
		return nil, fmt.Errorf("list recent documents: %w", err)
	}
	if docs == nil {
		docs = []*types.Document{}
	}
	return docs, nil
}

func (s *documentService) Stats(ctx context.Context) (*types.DocumentStats, error) {
	dbc := dbctx.Background(ctx)
	counts, err := s.repo.CountByStatus(dbc)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	stats := &types.DocumentStats{
		Published: counts[types.DocumentStatusPublished],
		Drafts:    counts[types.DocumentStatusDraft],
		Archived:  counts[types.DocumentStatusArchived],
	}
	for _, n := range counts {
		stats.Total += n
	}
	avg, err := s.repo.AverageRating(dbc)
	if err != nil {
		s.log.WithContext(ctx).Warn("average rating failed", "error", err)
		return stats, nil
	}
	stats.AvgRating = math.Round(avg*10) / 10
	return stats, nil
}
