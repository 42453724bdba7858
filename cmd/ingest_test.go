package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lectern-dev/lectern/internal/chunker"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestBuildRequestFromExtension(t *testing.T) {
	path := writeTempFile(t, "syllabus.pdf", "course overview")

	req, err := buildRequest(path, 4)
	if err != nil {
		t.Fatalf("buildRequest() failed: %v", err)
	}

	if req.FileType != chunker.FileTypePDF {
		t.Errorf("FileType = %q, want pdf", req.FileType)
	}
	if req.Text != "course overview" {
		t.Errorf("Text = %q", req.Text)
	}
	// With no --file-id, ids follow argument order.
	if req.FileID != 5 {
		t.Errorf("FileID = %d, want 5", req.FileID)
	}
}

func TestBuildRequestTypeOverride(t *testing.T) {
	path := writeTempFile(t, "slides.extracted", "slide text")

	flagIngestType = "pptx"
	defer func() { flagIngestType = "" }()

	req, err := buildRequest(path, 0)
	if err != nil {
		t.Fatalf("buildRequest() failed: %v", err)
	}
	if req.FileType != chunker.FileTypeSlide {
		t.Errorf("FileType = %q, want slide", req.FileType)
	}
}

func TestBuildRequestUnknownExtension(t *testing.T) {
	path := writeTempFile(t, "archive.zip", "binary")

	if _, err := buildRequest(path, 0); err == nil {
		t.Fatal("expected error for unknown extension")
	}
}

func TestBuildRequestMissingFile(t *testing.T) {
	if _, err := buildRequest(filepath.Join(t.TempDir(), "absent.pdf"), 0); err == nil {
		t.Fatal("expected error for missing file")
	}
}
