package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/farxc/nfe_consolidator/internal/logger"
)

// ErrInvalidArchive marks uploads that are not readable ZIP archives. Entries
// that try to escape the destination directory are rejected with it as well.
var ErrInvalidArchive = errors.New("invalid or corrupted archive")

// Unzip extracts every entry of the archive at zipPath into destDir, creating
// nested directories as named in the archive.
func Unzip(zipPath string, destDir string, appLogger *logger.Logger) error {
	const component = "Unzipper"

	appLogger.Debug(component, "Starting extraction: zipPath=%s destDir=%s", zipPath, destDir)

	if err := os.MkdirAll(destDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create destination directory %s: %w", destDir, err)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer r.Close()

	extractedCount := 0
	for _, f := range r.File {
		filePath := filepath.Join(destDir, f.Name)

		if !strings.HasPrefix(filePath, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("%w: unsafe entry path %q", ErrInvalidArchive, f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(filePath, os.ModePerm); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", filePath, err)
			}
			continue
		}

		if err := extractEntry(f, filePath); err != nil {
			return err
		}
		extractedCount++
	}

	appLogger.Info(component, "Extraction completed: destDir=%s extractedFiles=%d", destDir, extractedCount)
	return nil
}

func extractEntry(f *zip.File, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", filePath, err)
	}

	destFile, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", filePath, err)
	}
	defer destFile.Close()

	zippedFile, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: cannot open entry %q", ErrInvalidArchive, f.Name)
	}
	defer zippedFile.Close()

	if _, err := io.Copy(destFile, zippedFile); err != nil {
		return fmt.Errorf("%w: cannot extract entry %q", ErrInvalidArchive, f.Name)
	}
	return nil
}
