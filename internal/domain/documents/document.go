package documents

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acaduss/acaduss-backend/internal/normalization"
)

const (
	StatusPublished = "published"
	StatusDraft     = "draft"
	StatusArchived  = "archived"
)

type Document struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title    string    `gorm:"column:title;not null" json:"title"`
	Subject  string    `gorm:"column:subject;not null;default:''" json:"subject"`
	Content  string    `gorm:"column:content;type:text;not null;default:''" json:"content"`
	FileURL  string    `gorm:"column:file_url;not null;default:''" json:"file_url"`
	FileType string    `gorm:"column:file_type;not null;default:''" json:"file_type"`
	FileSize int64     `gorm:"column:file_size;not null;default:0" json:"file_size"`

	// Rating is overwritten by every rate call, it is not an average.
	Rating    float64 `gorm:"column:rating;not null;default:0" json:"rating"`
	Views     int     `gorm:"column:views;not null;default:0" json:"views"`
	Downloads int     `gorm:"column:downloads;not null;default:0" json:"downloads"`

	Status   string     `gorm:"column:status;not null;default:'published';index" json:"status"`
	AuthorID *uuid.UUID `gorm:"type:uuid;column:author_id;index" json:"author_id,omitempty"`

	SearchText string `gorm:"column:search_text;type:text;not null;default:''" json:"-"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Document) TableName() string { return "documents" }

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.RefreshSearchText()
	return nil
}

// RefreshSearchText recomputes the accent-folded column used by search.
// Callers that change title, subject or content must call it before saving.
func (d *Document) RefreshSearchText() {
	d.SearchText = normalization.Text(strings.Join([]string{d.Title, d.Subject, d.Content}, " \n "))
}

// IsPDF reports whether the stored file reference points at a PDF.
func (d *Document) IsPDF() bool {
	return d != nil && strings.Contains(strings.ToLower(d.FileURL), ".pdf")
}

// DisplayTitle falls back to the subject when a document has no title.
func (d *Document) DisplayTitle() string {
	if d == nil {
		return "Documento"
	}
	if t := strings.TrimSpace(d.Title); t != "" {
		return t
	}
	if s := strings.TrimSpace(d.Subject); s != "" {
		return s
	}
	return "Documento"
}

// Page is one page of a published-documents listing.
type Page struct {
	Items      []*Document `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

type Stats struct {
	Total     int64   `json:"total"`
	Published int64   `json:"published"`
	Drafts    int64   `json:"drafts"`
	Archived  int64   `json:"archived"`
	AvgRating float64 `json:"avgRating"`
}
