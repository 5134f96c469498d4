package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	pkgerrors "github.com/acaduss/acaduss-backend/internal/pkg/errors"
	"github.com/acaduss/acaduss-backend/internal/platform/apierr"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

const (
	DefaultMaxUploadBytes = 10 << 20
	PublicUploadsPrefix   = "/uploads/"
)

var allowedUploadTypes = []string{
	"application/pdf",
	"text/plain",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/epub+zip",
}

type StoredFile struct {
	Name string
	Path string
	// URL is the public path served by the static handler.
	URL  string
	MIME string
	Size int64
}

type UploadService interface {
	Save(ctx context.Context, fh *multipart.FileHeader) (*StoredFile, error)
	Dir() string
}

type uploadService struct {
	log      *logger.Logger
	dir      string
	maxBytes int64
	now      func() time.Time
}

func NewUploadService(log *logger.Logger, dir string, maxBytes int64) (UploadService, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "uploads"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &uploadService{
		log:      log.With("service", "UploadService"),
		dir:      abs,
		maxBytes: maxBytes,
		now:      time.Now,
	}, nil
}

func (s *uploadService) Dir() string { return s.dir }

// DetectUploadType sniffs the content and reports the matching allowed MIME type.
func DetectUploadType(r io.Reader) (string, bool, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", false, err
	}
	for m := mt; m != nil; m = m.Parent() {
		for _, allowed := range allowedUploadTypes {
			if m.Is(allowed) {
				return allowed, true, nil
			}
		}
	}
	return mt.String(), false, nil
}

func (s *uploadService) Save(ctx context.Context, fh *multipart.FileHeader) (*StoredFile, error) {
	if fh == nil {
		return nil, apierr.BadRequest("missing_file", "Falta el archivo")
	}
	if fh.Size > s.maxBytes {
		return nil, apierr.WithMessage(http.StatusRequestEntityTooLarge, "file_too_large", "El archivo supera el tamaño máximo permitido", pkgerrors.ErrInvalidArgument)
	}
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mime, ok, err := DetectUploadType(src)
	if err != nil {
		return nil, fmt.Errorf("detect upload type: %w", err)
	}
	if !ok {
		s.log.WithContext(ctx).Warn("rejected upload", "mime", mime, "filename", fh.Filename)
		return nil, apierr.BadRequest("invalid_file_type", "Invalid file type")
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		if m := mimetype.Lookup(mime); m != nil {
			ext = m.Extension()
		}
	}
	name := strconv.FormatInt(s.now().UnixMilli(), 10) + ext
	path := filepath.Join(s.dir, name)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	n, copyErr := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	closeErr := dst.Close()
	if copyErr != nil || closeErr != nil || n > s.maxBytes {
		_ = os.Remove(path)
		if n > s.maxBytes {
			return nil, apierr.WithMessage(http.StatusRequestEntityTooLarge, "file_too_large", "El archivo supera el tamaño máximo permitido", pkgerrors.ErrInvalidArgument)
		}
		if copyErr != nil {
			return nil, fmt.Errorf("write upload: %w", copyErr)
		}
		return nil, fmt.Errorf("close upload: %w", closeErr)
	}

	s.log.Info("stored upload", "name", name, "mime", mime, "bytes", n)
	return &StoredFile{
		Name: name,
		Path: path,
		URL:  PublicUploadsPrefix + name,
		MIME: mime,
		Size: n,
	}, nil
}
