package main

import (
	"archive/zip"
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/farxc/nfe_consolidator/internal/logger"
	"github.com/farxc/nfe_consolidator/internal/report"
	"github.com/xuri/excelize/v2"
)

const sampleInvoice = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe">
  <NFe>
    <infNFe Id="NFe12345678901234567890123456789012345678901234">
      <ide>
        <nNF>123</nNF>
        <dhEmi>2024-03-05T14:30:00-03:00</dhEmi>
      </ide>
      <total><ICMSTot><vNF>1234.5</vNF></ICMSTot></total>
    </infNFe>
  </NFe>
</nfeProc>`

func newTestApp(t *testing.T) *application {
	t.Helper()
	return &application{
		config: config{
			addr:           ":0",
			uploadDir:      t.TempDir(),
			maxUploadBytes: 50 << 20,
			logLevel:       "error",
		},
		appLogger: logger.New(logger.LevelError + 1),
	}
}

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry: %v", err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := w.CreateFormFile("archives", name)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return &body, w.FormDataContentType()
}

func postArchives(t *testing.T, app *application, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, files)
	req := httptest.NewRequest(http.MethodPost, "/v1/process", body)
	req.Header.Set("Content-Type", contentType)

	rr := httptest.NewRecorder()
	app.mount().ServeHTTP(rr, req)
	return rr
}

func TestProcessArchivesDeliversSpreadsheet(t *testing.T) {
	app := newTestApp(t)
	archiveData := buildZip(t, map[string]string{"lote/nota.xml": sampleInvoice})

	rr := postArchives(t, app, map[string][]byte{"notas.zip": archiveData})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); got != report.MimeType {
		t.Errorf("unexpected content type: %q", got)
	}
	disposition := rr.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "resultado_consolidado_xmls_") {
		t.Errorf("unexpected content disposition: %q", disposition)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("response body is not a readable spreadsheet: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(report.SheetName)
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[1][1] != "05/03/2024" {
		t.Errorf("unexpected date cell: %v", rows[1])
	}
	if rows[1][5] != "$ 1.234,50" {
		t.Errorf("unexpected total cell: %v", rows[1])
	}
}

func TestProcessArchivesRejectsMissingUpload(t *testing.T) {
	app := newTestApp(t)
	rr := postArchives(t, app, map[string][]byte{})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestProcessArchivesRejectsWrongExtension(t *testing.T) {
	app := newTestApp(t)
	rr := postArchives(t, app, map[string][]byte{"notas.rar": []byte("whatever")})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "notas.rar") {
		t.Errorf("error should name the offending file: %s", rr.Body.String())
	}
}

func TestProcessArchivesRejectsCorruptZip(t *testing.T) {
	app := newTestApp(t)
	rr := postArchives(t, app, map[string][]byte{"broken.zip": []byte("not a zip at all")})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "broken.zip") {
		t.Errorf("error should name the offending archive: %s", rr.Body.String())
	}
}

func TestProcessArchivesReportsEmptyBatch(t *testing.T) {
	app := newTestApp(t)
	archiveData := buildZip(t, map[string]string{
		"bad.xml": "<nfe><unclosed></nfe>",
	})

	rr := postArchives(t, app, map[string][]byte{"notas.zip": archiveData})

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an empty batch, got %d: %s", rr.Code, rr.Body.String())
	}
}
