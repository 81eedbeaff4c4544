package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xteam-pro/audit-platform/internal/config"
)

// newTestStorage creates a LocalStorage backed by a temporary directory.
func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	dir := t.TempDir()

	s, err := New(&config.LocalStorageConfig{BasePath: dir})
	if err != nil {
		t.Fatal("New:", err)
	}
	return s
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_CreatesDirectory(t *testing.T) {
	subDir := filepath.Join(t.TempDir(), "reports", "pdf")
	_, err := New(&config.LocalStorageConfig{BasePath: subDir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := os.Stat(subDir); os.IsNotExist(err) {
		t.Error("New() did not create base directory")
	}
}

// ---------------------------------------------------------------------------
// Upload / Download
// ---------------------------------------------------------------------------

func TestUploadDownload(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	content := "%PDF-1.7 fake report bytes"
	result, err := s.Upload(ctx, "audit-1/report.pdf", strings.NewReader(content), int64(len(content)))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if result.Path != "audit-1/report.pdf" {
		t.Errorf("Path = %q, want audit-1/report.pdf", result.Path)
	}
	if result.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", result.Size, len(content))
	}
	if len(result.Checksum) != 64 {
		t.Errorf("Checksum len = %d, want 64 (SHA256 hex)", len(result.Checksum))
	}

	reader, err := s.Download(ctx, "audit-1/report.pdf")
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != content {
		t.Errorf("downloaded content = %q, want %q", data, content)
	}
}

func TestDownload_NotFound(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.Download(context.Background(), "missing.pdf"); err == nil {
		t.Error("expected error for missing file")
	}
}

// ---------------------------------------------------------------------------
// Delete / Exists / GetMetadata
// ---------------------------------------------------------------------------

func TestDeleteAndExists(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	content := "payload"
	if _, err := s.Upload(ctx, "a/b/report.pdf", strings.NewReader(content), int64(len(content))); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	exists, err := s.Exists(ctx, "a/b/report.pdf")
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v; want true, nil", exists, err)
	}

	if err := s.Delete(ctx, "a/b/report.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	exists, err = s.Exists(ctx, "a/b/report.pdf")
	if err != nil || exists {
		t.Errorf("Exists after delete = %v, %v; want false, nil", exists, err)
	}

	// Deleting a missing file is not an error
	if err := s.Delete(ctx, "a/b/report.pdf"); err != nil {
		t.Errorf("Delete of missing file: %v", err)
	}
}

func TestGetMetadata(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	content := "metadata test"
	uploaded, err := s.Upload(ctx, "meta.pdf", strings.NewReader(content), int64(len(content)))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	meta, err := s.GetMetadata(ctx, "meta.pdf")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if meta.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", meta.Size, len(content))
	}
	if meta.Checksum != uploaded.Checksum {
		t.Errorf("Checksum = %q, want %q", meta.Checksum, uploaded.Checksum)
	}
	if meta.LastModified.IsZero() {
		t.Error("LastModified is zero")
	}
}
