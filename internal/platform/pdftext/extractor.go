package pdftext

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"go.opentelemetry.io/otel/attribute"

	"github.com/acaduss/acaduss-backend/internal/observability"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

const cacheKeyPrefix = "pdftext:"

// Extractor turns a stored file reference into plain text.
type Extractor interface {
	Extract(ctx context.Context, ref string) (string, error)
}

// Cache holds extracted text. A miss is ("", false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type NopCache struct{}

func (NopCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (NopCache) Set(context.Context, string, string) error         { return nil }
func (NopCache) Delete(context.Context, string) error              { return nil }

type Config struct {
	// UploadsDir backs the public /uploads/ prefix.
	UploadsDir string
	// BaseDir resolves other relative paths. Defaults to the working directory.
	BaseDir     string
	HTTPTimeout time.Duration
	MaxBytes    int64
	Cache       Cache
}

type service struct {
	log        *logger.Logger
	uploadsDir string
	baseDir    string
	maxBytes   int64
	httpClient *http.Client
	cache      Cache
}

func New(log *logger.Logger, cfg Config) Extractor {
	uploads := strings.TrimSpace(cfg.UploadsDir)
	if uploads == "" {
		uploads = "uploads"
	}
	base := strings.TrimSpace(cfg.BaseDir)
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			base = wd
		}
	}
	if !filepath.IsAbs(uploads) {
		uploads = filepath.Join(base, uploads)
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 50 << 20
	}
	cache := cfg.Cache
	if cache == nil {
		cache = NopCache{}
	}
	return &service{
		log:        log.With("service", "PDFTextExtractor"),
		uploadsDir: uploads,
		baseDir:    base,
		maxBytes:   maxBytes,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
	}
}

var remoteRef = regexp.MustCompile(`(?i)^https?://`)

// Resolve maps a stored reference to a URL or an absolute local path.
// "/uploads/x" and "uploads/x" live under the uploads dir; other relative
// paths resolve against the base dir.
func Resolve(ref, uploadsDir, baseDir string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || remoteRef.MatchString(ref) {
		return ref
	}
	switch {
	case strings.HasPrefix(ref, "/uploads/"):
		return filepath.Join(uploadsDir, filepath.FromSlash(strings.TrimPrefix(ref, "/uploads/")))
	case strings.HasPrefix(ref, "uploads/"):
		return filepath.Join(uploadsDir, filepath.FromSlash(strings.TrimPrefix(ref, "uploads/")))
	case filepath.IsAbs(ref):
		return filepath.Clean(ref)
	default:
		return filepath.Join(baseDir, filepath.FromSlash(ref))
	}
}

// CacheKey is the cache key of a resolved reference.
func CacheKey(resolved string) string {
	sum := sha256.Sum256([]byte(resolved))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (s *service) Extract(ctx context.Context, ref string) (string, error) {
	resolved := Resolve(ref, s.uploadsDir, s.baseDir)
	if resolved == "" {
		return "", fmt.Errorf("empty document reference")
	}
	ctx, span := observability.StartSpan(ctx, "pdftext.extract", attribute.String("pdf.ref", ref))
	defer span.End()

	metrics := observability.Current()
	key := CacheKey(resolved)
	if text, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn("pdf text cache read failed", "ref", ref, "error", err)
	} else if ok {
		metrics.IncPDFExtraction("cache_hit")
		return text, nil
	}

	data, err := s.load(ctx, resolved)
	if err != nil {
		metrics.IncPDFExtraction("error")
		span.RecordError(err)
		return "", err
	}
	text, err := ExtractBytes(data)
	if err != nil {
		metrics.IncPDFExtraction("error")
		span.RecordError(err)
		return "", fmt.Errorf("extract %s: %w", ref, err)
	}
	metrics.IncPDFExtraction("extracted")

	if err := s.cache.Set(ctx, key, text); err != nil {
		s.log.Warn("pdf text cache write failed", "ref", ref, "error", err)
	}
	return text, nil
}

func (s *service) load(ctx context.Context, resolved string) ([]byte, error) {
	if !remoteRef.MatchString(resolved) {
		f, err := os.Open(resolved)
		if err != nil {
			return nil, fmt.Errorf("open pdf: %w", err)
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, s.maxBytes))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download pdf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d al descargar PDF: %s", resp.StatusCode, resolved)
	}
	return io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
}

// ExtractBytes returns the plain text of every readable page. Pages that fail
// to decode are skipped.
func ExtractBytes(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("pdf parse panic: %v", rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		page, perr := p.GetPlainText(nil)
		if perr != nil {
			continue
		}
		b.WriteString(page)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String()), nil
}
