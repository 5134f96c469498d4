package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/acaduss/acaduss-backend/internal/pkg/errors"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestUploadServiceSave(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewUploadService(logger.Nop(), dir, 1024)
	if err != nil {
		t.Fatalf("NewUploadService: %v", err)
	}
	svc.(*uploadService).now = func() time.Time { return time.UnixMilli(1700000000000) }

	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
	stored, err := svc.Save(context.Background(), fileHeader(t, "Apunte.PDF", pdf))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if stored.Name != "1700000000000.pdf" || stored.URL != "/uploads/1700000000000.pdf" {
		t.Fatalf("unexpected name/url: %+v", stored)
	}
	if stored.MIME != "application/pdf" || stored.Size != int64(len(pdf)) {
		t.Fatalf("unexpected mime/size: %+v", stored)
	}
	onDisk, err := os.ReadFile(filepath.Join(dir, stored.Name))
	if err != nil || !bytes.Equal(onDisk, pdf) {
		t.Fatalf("stored content mismatch: %v", err)
	}
}

func TestUploadServiceRejects(t *testing.T) {
	svc, err := NewUploadService(logger.Nop(), t.TempDir(), 64)
	if err != nil {
		t.Fatalf("NewUploadService: %v", err)
	}
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	cases := []struct {
		name     string
		filename string
		content  []byte
	}{
		{name: "image", filename: "foto.png", content: png},
		{name: "too_large", filename: "largo.txt", content: []byte(strings.Repeat("a", 65))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Save(context.Background(), fileHeader(t, tc.filename, tc.content))
			if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
	if _, err := svc.Save(context.Background(), nil); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("nil header: %v", err)
	}
}

func TestDetectUploadType(t *testing.T) {
	cases := []struct {
		content string
		want    string
		ok      bool
	}{
		{content: "%PDF-1.7\n", want: "application/pdf", ok: true},
		{content: "Apuntes de cálculo diferencial", want: "text/plain", ok: true},
		{content: "nombre,nota\nana,7\n", want: "text/plain", ok: true},
	}
	for _, tc := range cases {
		got, ok, err := DetectUploadType(strings.NewReader(tc.content))
		if err != nil {
			t.Fatalf("DetectUploadType(%q): %v", tc.content, err)
		}
		if got != tc.want || ok != tc.ok {
			t.Fatalf("DetectUploadType(%q)=(%q,%v), want (%q,%v)", tc.content, got, ok, tc.want, tc.ok)
		}
	}
}
