package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/farxc/nfe_consolidator/internal/logger"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.LevelError + 1)
}

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

func TestUnzipCreatesNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "upload.zip")
	data := buildZip(t, map[string]string{
		"root.xml":               "<a/>",
		"lote/janeiro/nota.xml":  "<b/>",
		"lote/fevereiro/doc.xml": "<c/>",
	})
	if err := os.WriteFile(zipPath, data, 0o644); err != nil {
		t.Fatalf("failed to write zip: %v", err)
	}

	destDir := filepath.Join(dir, "out")
	if err := Unzip(zipPath, destDir, quietLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"root.xml", "lote/janeiro/nota.xml", "lote/fevereiro/doc.xml"} {
		if _, err := os.Stat(filepath.Join(destDir, name)); err != nil {
			t.Errorf("expected %s to be extracted: %v", name, err)
		}
	}
}

func TestUnzipRejectsCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "broken.zip")
	if err := os.WriteFile(zipPath, []byte("this is not a zip file"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	err := Unzip(zipPath, filepath.Join(dir, "out"), quietLogger())
	if !errors.Is(err, ErrInvalidArchive) {
		t.Fatalf("expected ErrInvalidArchive, got %v", err)
	}
}

func TestUnzipRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	data := buildZip(t, map[string]string{"../escape.xml": "<x/>"})
	if err := os.WriteFile(zipPath, data, 0o644); err != nil {
		t.Fatalf("failed to write zip: %v", err)
	}

	err := Unzip(zipPath, filepath.Join(dir, "out"), quietLogger())
	if !errors.Is(err, ErrInvalidArchive) {
		t.Fatalf("expected ErrInvalidArchive for traversal entry, got %v", err)
	}
}
