package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of the delivered spreadsheet.
const SheetName = "Documentos"

// MimeType is the content type of the generated attachment.
const MimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AttachmentName builds the timestamp-qualified download name of the report.
func AttachmentName(now time.Time) string {
	return fmt.Sprintf("resultado_consolidado_xmls_%s.xlsx", now.Format("20060102_150405"))
}

// WriteXLSX serializes the consolidated report to w, header row first,
// preserving the DataFrame column order.
func WriteXLSX(df dataframe.DataFrame, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	// Records returns the header row followed by one slice per record.
	for i, record := range df.Records() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}

		row := make([]interface{}, len(record))
		for j, value := range record {
			row[j] = value
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to serialize spreadsheet: %w", err)
	}
	return nil
}
