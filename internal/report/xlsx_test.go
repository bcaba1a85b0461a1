package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/farxc/nfe_consolidator/internal/fiscal"
	"github.com/xuri/excelize/v2"
)

func TestAttachmentName(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 30, 45, 0, time.UTC)
	got := AttachmentName(ts)
	want := "resultado_consolidado_xmls_20240305_143045.xlsx"
	if got != want {
		t.Errorf("AttachmentName = %q, want %q", got, want)
	}
}

func TestWriteXLSX(t *testing.T) {
	df, err := fiscal.ToDataFrame([]fiscal.Document{
		{Month: "01/2024", Date: "01/01/2024", Number: "1", Total: "$ 10,00"},
		{Month: "02/2024", Date: "01/02/2024", Number: "2", Total: "$ 20,00"},
	})
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteXLSX(df, &buf); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("generated file is not a readable spreadsheet: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("failed to read sheet %q: %v", SheetName, err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != fiscal.ColMonth {
		t.Errorf("unexpected first header cell: %q", rows[0][0])
	}
	if rows[1][1] != "01/01/2024" || rows[2][1] != "01/02/2024" {
		t.Errorf("unexpected date cells: %v / %v", rows[1], rows[2])
	}
}
