package chatbot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	types "github.com/acaduss/acaduss-backend/internal/domain"
	"github.com/acaduss/acaduss-backend/internal/normalization"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
	"github.com/acaduss/acaduss-backend/internal/platform/pdftext"
)

const (
	rankerListPageSize  = 100
	rankerTopDocuments  = 3
	rankerListedDocs    = 5
	contextChunkSize    = 1200
	contextMaxChunks    = 8
	extractConcurrency  = 3
	relevantContextHead = "\n\nCONTEXTO DE DOCUMENTOS RELEVANTES:\n"
)

// RelevantDocuments is the outcome of a ranking pass. Context is empty when
// no PDF yielded a relevant chunk.
type RelevantDocuments struct {
	Context   string
	Documents []*types.Document
	Processed int
}

// Ranker picks the published PDFs that best match an intent and turns their
// text into a prompt context.
type Ranker struct {
	docs      DocumentSource
	extractor pdftext.Extractor
	log       *logger.Logger
}

func NewRanker(log *logger.Logger, docs DocumentSource, extractor pdftext.Extractor) *Ranker {
	return &Ranker{docs: docs, extractor: extractor, log: log.With("component", "ChatbotRanker")}
}

func (r *Ranker) FindRelevantDocuments(ctx context.Context, intent Intent, convCtx ConversationContext, text string) RelevantDocuments {
	page, err := r.docs.List(ctx, 1, rankerListPageSize)
	if err != nil {
		r.log.WithContext(ctx).Warn("list documents for ranking failed", "error", err)
		return RelevantDocuments{}
	}
	if page == nil || len(page.Items) == 0 {
		return RelevantDocuments{}
	}
	listed := page.Items
	if len(listed) > rankerListedDocs {
		listed = listed[:rankerListedDocs]
	}

	var pdfs []*types.Document
	for _, d := range page.Items {
		if d.IsPDF() {
			pdfs = append(pdfs, d)
		}
	}
	subject := intent.Subject
	if subject == "" {
		subject = convCtx.Subject
	}
	keywords := make([]string, 0, len(intent.Keywords)+len(convCtx.RecentTopics))
	for _, k := range append(append([]string{}, intent.Keywords...), convCtx.RecentTopics...) {
		if n := normalization.Text(strings.TrimSpace(k)); n != "" {
			keywords = append(keywords, n)
		}
	}
	top := RankDocuments(pdfs, subject, keywords)
	if len(top) > rankerTopDocuments {
		top = top[:rankerTopDocuments]
	}
	if len(top) == 0 {
		return RelevantDocuments{Documents: listed}
	}

	texts := extractTexts(ctx, r.log, r.extractor, top)
	chunks := SelectChunks(top, texts, intent, text)
	return RelevantDocuments{
		Context:   FormatChunks(chunks),
		Documents: listed,
		Processed: len(top),
	}
}

// ScoreDocument rates how well d matches subject and keywords. keywords must
// already be normalized.
func ScoreDocument(d *types.Document, subject string, keywords []string) float64 {
	title := normalization.Text(d.Title)
	docSubject := normalization.Text(d.Subject)
	content := normalization.Text(d.Content)

	score := 0.0
	if s := normalization.Text(subject); s != "" {
		if strings.Contains(title, s) || strings.Contains(docSubject, s) {
			score += 10
		}
		if strings.Contains(content, s) {
			score += 5
		}
	}
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(title, k) {
			score += 3
		}
		if strings.Contains(docSubject, k) {
			score += 2
		}
		if strings.Contains(content, k) {
			score++
		}
	}
	score += float64(min(5, d.Downloads/10))
	score += float64(min(3, d.Views/20))
	score += 2 * d.Rating
	return score
}

// RankDocuments returns docs ordered by ScoreDocument, highest first. Ties
// keep their listing order.
func RankDocuments(docs []*types.Document, subject string, keywords []string) []*types.Document {
	type scored struct {
		doc   *types.Document
		score float64
	}
	rows := make([]scored, len(docs))
	for i, d := range docs {
		rows[i] = scored{doc: d, score: ScoreDocument(d, subject, keywords)}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].score > rows[j].score })
	out := make([]*types.Document, len(rows))
	for i, r := range rows {
		out[i] = r.doc
	}
	return out
}

type Chunk struct {
	Title   string
	Content string
	Score   int
}

// SelectChunks splits every text into sentence chunks and keeps the best
// scoring ones across all documents. texts[i] belongs to docs[i].
func SelectChunks(docs []*types.Document, texts []string, intent Intent, query string) []Chunk {
	var all []Chunk
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		title := fmt.Sprintf("Documento %d", i+1)
		if i < len(docs) && docs[i] != nil {
			if t := strings.TrimSpace(docs[i].Title); t != "" {
				title = t
			} else if s := strings.TrimSpace(docs[i].Subject); s != "" {
				title = s
			}
		}
		for _, part := range pdftext.SplitChunks(text, contextChunkSize) {
			if score := ScoreChunk(part, intent, query); score > 0 {
				all = append(all, Chunk{Title: title, Content: part, Score: score})
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	if len(all) > contextMaxChunks {
		all = all[:contextMaxChunks]
	}
	return all
}

func ScoreChunk(content string, intent Intent, query string) int {
	norm := normalization.Text(content)
	score := 0
	for _, k := range intent.Keywords {
		if k = normalization.Text(k); k != "" && strings.Contains(norm, k) {
			score += 2
		}
	}
	if s := normalization.Text(intent.Subject); s != "" && strings.Contains(norm, s) {
		score += 3
	}
	for _, w := range strings.Fields(normalization.Text(query)) {
		if utf8.RuneCountInString(w) > 3 && strings.Contains(norm, w) {
			score++
		}
	}
	return score
}

func FormatChunks(chunks []Chunk) string {
	if len(chunks) == 0 {
		return ""
	}
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("--- %s ---\n%s", c.Title, c.Content)
	}
	return relevantContextHead + strings.Join(blocks, "\n\n")
}
