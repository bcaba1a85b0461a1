package main

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/farxc/nfe_consolidator/internal/archive"
	"github.com/farxc/nfe_consolidator/internal/fiscal"
	"github.com/farxc/nfe_consolidator/internal/fiscal/assemble"
	"github.com/farxc/nfe_consolidator/internal/report"
	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"
)

const (
	archivesFormField = "archives"
	multipartMemory   = 32 << 20
)

// handleProcessArchives accepts one or more ZIP uploads, extracts the fiscal
// fields of every XML they contain and answers with the consolidated XLSX.
func (app *application) handleProcessArchives(w http.ResponseWriter, r *http.Request) {
	const component = "ProcessHandler"

	r.Body = http.MaxBytesReader(w, r.Body, app.config.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	uploads, err := validateUploads(r.MultipartForm.File[archivesFormField])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	workDir := filepath.Join(app.config.uploadDir, uuid.NewString())
	if err := os.MkdirAll(workDir, os.ModePerm); err != nil {
		app.appLogger.Error(component, "Failed to create work directory: path=%s error=%v", workDir, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to allocate temporary storage")
		return
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			app.appLogger.Warn(component, "Failed to remove work directory: path=%s error=%v", workDir, err)
		}
	}()

	var frames []dataframe.DataFrame
	for i, upload := range uploads {
		app.appLogger.Info(component, "Processing archive %d/%d: name=%q", i+1, len(uploads), upload.Filename)

		zipPath := filepath.Join(workDir, fmt.Sprintf("upload_%d.zip", i))
		if err := saveUpload(upload, zipPath); err != nil {
			app.appLogger.Error(component, "Failed to store upload: name=%q error=%v", upload.Filename, err)
			writeJSONError(w, http.StatusInternalServerError, "failed to store uploaded archive")
			return
		}

		extractDir := filepath.Join(workDir, fmt.Sprintf("extracted_%d", i))
		if err := archive.Unzip(zipPath, extractDir, app.appLogger); err != nil {
			if errors.Is(err, archive.ErrInvalidArchive) {
				writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("file %q is not a valid ZIP archive", upload.Filename))
				return
			}
			app.appLogger.Error(component, "Failed to unpack archive: name=%q error=%v", upload.Filename, err)
			writeJSONError(w, http.StatusInternalServerError, "failed to unpack uploaded archive")
			return
		}

		docs := fiscal.ExtractDirectory(extractDir, app.appLogger)
		if len(docs) == 0 {
			app.appLogger.Warn(component, "No data extracted from archive %q", upload.Filename)
			continue
		}

		df, err := fiscal.ToDataFrame(docs)
		if err != nil {
			app.appLogger.Error(component, "Failed to tabulate records: name=%q error=%v", upload.Filename, err)
			writeJSONError(w, http.StatusInternalServerError, "failed to tabulate extracted records")
			return
		}
		frames = append(frames, df)
	}

	consolidated, err := assemble.ConsolidateReport(frames, app.appLogger)
	if err != nil {
		if errors.Is(err, assemble.ErrNoData) {
			writeJSONError(w, http.StatusNotFound, "processing finished but no data could be extracted from the uploaded archives")
			return
		}
		app.appLogger.Error(component, "Failed to consolidate report: error=%v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to consolidate report")
		return
	}

	filename := report.AttachmentName(time.Now())
	w.Header().Set("Content-Type", report.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := report.WriteXLSX(consolidated, w); err != nil {
		// Headers are already on the wire, all we can do is log.
		app.appLogger.Error(component, "Failed to stream spreadsheet: name=%q error=%v", filename, err)
		return
	}
	app.appLogger.Info(component, "Report delivered: name=%q rows=%d", filename, consolidated.Nrow())
}

// validateUploads enforces the upload rules and returns the archives actually
// selected (browsers submit an empty part when no file was picked).
func validateUploads(uploads []*multipart.FileHeader) ([]*multipart.FileHeader, error) {
	if len(uploads) == 0 {
		return nil, errors.New("no archive uploaded")
	}

	selected := make([]*multipart.FileHeader, 0, len(uploads))
	for _, upload := range uploads {
		if upload.Filename == "" {
			continue
		}
		if !strings.EqualFold(filepath.Ext(upload.Filename), ".zip") {
			return nil, fmt.Errorf("file type not allowed for %q, only .zip archives are accepted", upload.Filename)
		}
		selected = append(selected, upload)
	}
	if len(selected) == 0 {
		return nil, errors.New("no archive selected")
	}
	return selected, nil
}

func saveUpload(upload *multipart.FileHeader, destPath string) error {
	src, err := upload.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", destPath, err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return fmt.Errorf("failed to write file %s: %w", destPath, err)
	}
	return nil
}
