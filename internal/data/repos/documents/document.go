package documents

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/acaduss/acaduss-backend/internal/domain"
	"github.com/acaduss/acaduss-backend/internal/pkg/dbctx"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

const (
	CounterViews     = "views"
	CounterDownloads = "downloads"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// columns folded into search_text
var searchTextColumns = []string{"title", "subject", "content"}

type DocumentRepo interface {
	Create(dbc dbctx.Context, doc *types.Document) (*types.Document, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error)
	ListPublished(dbc dbctx.Context, offset, limit int) ([]*types.Document, int64, error)
	// SearchPublished matches an already-normalized query against search_text.
	SearchPublished(dbc dbctx.Context, normalizedQuery string) ([]*types.Document, error)
	ListByAuthor(dbc dbctx.Context, authorID uuid.UUID) ([]*types.Document, error)
	ListPopular(dbc dbctx.Context, limit int) ([]*types.Document, error)
	ListRecent(dbc dbctx.Context, limit int) ([]*types.Document, error)
	Save(dbc dbctx.Context, doc *types.Document) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	IncrementCounter(dbc dbctx.Context, id uuid.UUID, column string) (bool, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
	CountByStatus(dbc dbctx.Context) (map[string]int64, error)
	AverageRating(dbc dbctx.Context) (float64, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, log *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: log.With("repo", "DocumentRepo")}
}

func (r *documentRepo) tx(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx)
}

func (r *documentRepo) Create(dbc dbctx.Context, doc *types.Document) (*types.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("missing document")
	}
	if err := r.tx(dbc).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var doc types.Document
	if err := r.tx(dbc).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) ListPublished(dbc dbctx.Context, offset, limit int) ([]*types.Document, int64, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 12
	}
	base := r.tx(dbc).Model(&types.Document{}).Where("status = ?", types.DocumentStatusPublished)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*types.Document
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *documentRepo) SearchPublished(dbc dbctx.Context, normalizedQuery string) ([]*types.Document, error) {
	q := strings.TrimSpace(normalizedQuery)
	var out []*types.Document
	query := r.tx(dbc).Where("status = ?", types.DocumentStatusPublished)
	if q != "" {
		query = query.Where(`search_text LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(q)+"%")
	}
	if err := query.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) ListByAuthor(dbc dbctx.Context, authorID uuid.UUID) ([]*types.Document, error) {
	var out []*types.Document
	if authorID == uuid.Nil {
		return out, nil
	}
	if err := r.tx(dbc).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) ListPopular(dbc dbctx.Context, limit int) ([]*types.Document, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []*types.Document
	if err := r.tx(dbc).
		Where("status = ?", types.DocumentStatusPublished).
		Order("views DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.Document, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []*types.Document
	if err := r.tx(dbc).
		Where("status = ?", types.DocumentStatusPublished).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Save writes every column of doc, refreshing search_text first.
func (r *documentRepo) Save(dbc dbctx.Context, doc *types.Document) error {
	if doc == nil || doc.ID == uuid.Nil {
		return fmt.Errorf("missing document id")
	}
	doc.RefreshSearchText()
	return r.tx(dbc).Save(doc).Error
}

func (r *documentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing document id")
	}
	if len(updates) == 0 {
		return nil
	}
	if !touchesSearchText(updates) {
		return r.tx(dbc).Model(&types.Document{}).Where("id = ?", id).Updates(updates).Error
	}

	return r.tx(dbc).Transaction(func(txx *gorm.DB) error {
		var doc types.Document
		if err := txx.Where("id = ?", id).First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		for _, col := range searchTextColumns {
			v, ok := updates[col]
			if !ok {
				continue
			}
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("%s must be a string, got %T", col, v)
			}
			switch col {
			case "title":
				doc.Title = s
			case "subject":
				doc.Subject = s
			case "content":
				doc.Content = s
			}
		}
		doc.RefreshSearchText()

		merged := make(map[string]interface{}, len(updates)+1)
		for k, v := range updates {
			merged[k] = v
		}
		merged["search_text"] = doc.SearchText
		return txx.Model(&types.Document{}).Where("id = ?", id).Updates(merged).Error
	})
}

func touchesSearchText(updates map[string]interface{}) bool {
	for _, col := range searchTextColumns {
		if _, ok := updates[col]; ok {
			return true
		}
	}
	return false
}

// IncrementCounter bumps views or downloads by one without touching
// updated_at. It reports false when no row matched.
func (r *documentRepo) IncrementCounter(dbc dbctx.Context, id uuid.UUID, column string) (bool, error) {
	if column != CounterViews && column != CounterDownloads {
		return false, fmt.Errorf("unknown counter %q", column)
	}
	res := r.tx(dbc).
		Model(&types.Document{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *documentRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := r.tx(dbc).Where("id = ?", id).Delete(&types.Document{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *documentRepo) CountByStatus(dbc dbctx.Context) (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	if err := r.tx(dbc).
		Model(&types.Document{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, rw := range rows {
		out[rw.Status] = rw.N
	}
	return out, nil
}

// AverageRating is the mean over published documents that have a rating.
func (r *documentRepo) AverageRating(dbc dbctx.Context) (float64, error) {
	var avg sql.NullFloat64
	row := r.tx(dbc).
		Model(&types.Document{}).
		Select("AVG(rating)").
		Where("status = ? AND rating > 0", types.DocumentStatusPublished).
		Row()
	if err := row.Scan(&avg); err != nil {
		return 0, err
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}
