package assemble

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/farxc/nfe_consolidator/internal/fiscal"
	"github.com/farxc/nfe_consolidator/internal/fiscal/utils"
	"github.com/farxc/nfe_consolidator/internal/logger"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ErrNoData signals that the whole batch yielded zero report rows. Callers
// should report "nothing to export" instead of a processing failure.
var ErrNoData = errors.New("no data extracted from any archive")

// Canonical column order of the delivered spreadsheet. Columns not listed
// here are appended after these, preserving their original relative order.
var canonicalColumns = []string{
	fiscal.ColMonth,
	fiscal.ColDate,
	fiscal.ColTime,
	fiscal.ColNumber,
	fiscal.ColKey,
	fiscal.ColTotal,
}

type reportRow struct {
	cells     map[string]string
	ts        time.Time
	hasTS     bool
	numberVal *float64
	totalVal  *float64
	paidVal   *float64
}

// ConsolidateReport concatenates the per-archive record sets, coerces and
// sorts them by emission timestamp, document number and total value, formats
// the display columns and fixes the final column order.
//
// Rows whose date fails coercion are dropped. Monetary and document-number
// values that fail coercion are kept as their original text. An absent column
// skips the corresponding step with a warning, never an error.
func ConsolidateReport(dfs []dataframe.DataFrame, appLogger *logger.Logger) (dataframe.DataFrame, error) {
	const component = "Assembler"

	combined := dataframe.DataFrame{}
	for _, df := range dfs {
		if df.Nrow() == 0 {
			continue
		}
		if combined.Nrow() == 0 {
			combined = df
		} else {
			combined = combined.Concat(df)
		}
	}

	if combined.Nrow() == 0 {
		return dataframe.DataFrame{}, ErrNoData
	}
	if combined.Error() != nil {
		return dataframe.DataFrame{}, combined.Error()
	}

	names := combined.Names()

	rows := make([]reportRow, 0, combined.Nrow())
	for i := 0; i < combined.Nrow(); i++ {
		cells := make(map[string]string, len(names))
		for _, col := range names {
			cells[col] = utils.GetStr(col, i, &combined)
		}
		rows = append(rows, reportRow{cells: cells})
	}

	rows = coerceDates(rows, names, appLogger)
	if len(rows) == 0 {
		appLogger.Warn(component, "All rows dropped during date coercion, nothing left to export")
		return dataframe.DataFrame{}, ErrNoData
	}
	coerceNumerics(rows, names, appLogger)
	sortRows(rows)
	formatColumns(rows, names)

	return buildDataFrame(rows, names)
}

func coerceDates(rows []reportRow, names []string, appLogger *logger.Logger) []reportRow {
	const component = "Assembler"

	if !utils.ContainsString(names, fiscal.ColDate) {
		appLogger.Warn(component, "Column %q absent, skipping date coercion and chronological sort", fiscal.ColDate)
		return rows
	}

	kept := rows[:0]
	for _, row := range rows {
		ts, err := parseTimestamp(row.cells[fiscal.ColDate], row.cells[fiscal.ColTime])
		if err != nil {
			appLogger.Warn(component, "Row dropped, unusable date: value=%q error=%v", row.cells[fiscal.ColDate], err)
			continue
		}
		row.ts = ts
		row.hasTS = true
		kept = append(kept, row)
	}
	return kept
}

func parseTimestamp(date, clock string) (time.Time, error) {
	if clock != "" {
		if ts, err := time.Parse("02/01/2006 15:04:05", date+" "+clock); err == nil {
			return ts, nil
		}
	}
	return time.Parse("02/01/2006", date)
}

func coerceNumerics(rows []reportRow, names []string, appLogger *logger.Logger) {
	const component = "Assembler"

	numericColumns := []string{fiscal.ColNumber, fiscal.ColTotal, fiscal.ColPaid}
	for _, col := range numericColumns {
		if !utils.ContainsString(names, col) {
			appLogger.Warn(component, "Column %q absent, skipping numeric coercion for it", col)
		}
	}

	for i := range rows {
		rows[i].numberVal = parseDecimal(rows[i].cells[fiscal.ColNumber])
		rows[i].totalVal = parseDecimal(rows[i].cells[fiscal.ColTotal])
		rows[i].paidVal = parseDecimal(rows[i].cells[fiscal.ColPaid])
	}
}

// parseDecimal returns nil when the text is empty or not numeric, in which
// case the original text is kept in the report untouched.
func parseDecimal(raw string) *float64 {
	if raw == "" {
		return nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &val
}

// sortRows orders ascending by emission timestamp, then document number, then
// total value. Rows missing a leading component fall through to the remaining
// ones.
func sortRows(rows []reportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]

		if a.hasTS && b.hasTS && !a.ts.Equal(b.ts) {
			return a.ts.Before(b.ts)
		}
		if c := compareNumeric(a.numberVal, b.numberVal, a.cells[fiscal.ColNumber], b.cells[fiscal.ColNumber]); c != 0 {
			return c < 0
		}
		if c := compareNumeric(a.totalVal, b.totalVal, a.cells[fiscal.ColTotal], b.cells[fiscal.ColTotal]); c != 0 {
			return c < 0
		}
		return false
	})
}

func compareNumeric(a, b *float64, rawA, rawB string) int {
	if a != nil && b != nil {
		switch {
		case *a < *b:
			return -1
		case *a > *b:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(rawA, rawB)
}

func formatColumns(rows []reportRow, names []string) {
	for i := range rows {
		row := &rows[i]
		if row.hasTS {
			row.cells[fiscal.ColDate] = row.ts.Format("02/01/2006")
			if row.cells[fiscal.ColTime] != "" {
				row.cells[fiscal.ColTime] = row.ts.Format("15:04:05")
			}
		}
		if row.totalVal != nil {
			row.cells[fiscal.ColTotal] = FormatCurrency(*row.totalVal)
		}
		if row.paidVal != nil {
			row.cells[fiscal.ColPaid] = FormatCurrency(*row.paidVal)
		}
	}
}

// columnOrder returns the canonical columns present in the input followed by
// any extra columns in their original relative order.
func columnOrder(names []string) []string {
	ordered := make([]string, 0, len(names))
	for _, col := range canonicalColumns {
		if utils.ContainsString(names, col) {
			ordered = append(ordered, col)
		}
	}
	for _, col := range names {
		if !utils.ContainsString(canonicalColumns, col) {
			ordered = append(ordered, col)
		}
	}
	return ordered
}

func buildDataFrame(rows []reportRow, names []string) (dataframe.DataFrame, error) {
	ordered := columnOrder(names)

	columns := make([]series.Series, 0, len(ordered))
	for _, col := range ordered {
		values := make([]string, len(rows))
		for i, row := range rows {
			values[i] = row.cells[col]
		}
		columns = append(columns, series.New(values, series.String, col))
	}

	df := dataframe.New(columns...)
	return df, df.Error()
}
