package fiscal

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/farxc/nfe_consolidator/internal/logger"
)

var namespaces = map[string]string{
	"nfe": NfeNamespace,
	"cte": CteNamespace,
}

// lookupRule is one attempt at resolving a field: an XPath query plus an
// optional attribute read and an optional literal prefix to strip from the
// resolved value.
type lookupRule struct {
	query       *xpath.Expr
	attr        string
	stripPrefix string
}

func mustCompile(expr string) *xpath.Expr {
	compiled, err := xpath.CompileWithNS(expr, namespaces)
	if err != nil {
		panic("fiscal: invalid lookup expression " + expr + ": " + err.Error())
	}
	return compiled
}

// Fallback chains, evaluated in order; the first rule yielding a non-empty
// value wins. Adding a third schema is a new entry here, not new control flow.
var (
	keyChain = []lookupRule{
		{query: mustCompile("//nfe:infNFe"), attr: "Id", stripPrefix: "NFe"},
		{query: mustCompile("//nfe:chNFe")},
		{query: mustCompile("//cte:chCTe")},
	}
	numberChain = []lookupRule{
		{query: mustCompile("//nfe:ide/nfe:nNF")},
		{query: mustCompile("//cte:infCte/cte:ide/cte:nCT")},
	}
	totalChain = []lookupRule{
		{query: mustCompile("//nfe:total/nfe:ICMSTot/nfe:vNF")},
		{query: mustCompile("//cte:vPrest/cte:vTPrest")},
	}
	paidChain = []lookupRule{
		{query: mustCompile("//nfe:pag/nfe:detPag/nfe:vPag")},
	}
	emissionChain = []lookupRule{
		{query: mustCompile("//nfe:ide/nfe:dhEmi")},
		{query: mustCompile("//nfe:ide/nfe:dEmi")},
		{query: mustCompile("//cte:ide/cte:dhEmi")},
	}
)

func resolveChain(doc *xmlquery.Node, chain []lookupRule) string {
	for _, rule := range chain {
		node := xmlquery.QuerySelector(doc, rule.query)
		if node == nil {
			continue
		}

		value := node.InnerText()
		if rule.attr != "" {
			value = node.SelectAttr(rule.attr)
		}
		value = strings.TrimSpace(value)

		if rule.stripPrefix != "" {
			value = strings.TrimPrefix(value, rule.stripPrefix)
		}

		if value != "" {
			return value
		}
	}
	return ""
}

// parseEmission interprets a raw emission timestamp. Values carrying a
// timezone offset are parsed as naive wall-clock time (the offset is dropped).
// The second return reports whether the source carried time granularity.
func parseEmission(raw string) (time.Time, bool, error) {
	if strings.Contains(raw, "T") {
		// 2006-01-02T15:04:05 with an optional -03:00 / Z suffix
		trimmed := raw
		if len(trimmed) > 19 {
			trimmed = trimmed[:19]
		}
		ts, err := time.Parse("2006-01-02T15:04:05", trimmed)
		return ts, true, err
	}

	ts, err := time.Parse("2006-01-02", raw)
	return ts, false, err
}

// ExtractDirectory walks dir recursively and extracts one Document per
// well-formed XML file, in discovery order. Malformed files and unreadable
// entries are logged and skipped; extraction never fails as a whole.
func ExtractDirectory(dir string, appLogger *logger.Logger) []Document {
	const component = "Extractor"

	var docs []Document

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			appLogger.Warn(component, "Skipping unreadable entry: path=%s error=%v", path, err)
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".xml") {
			return nil
		}

		doc, ok := extractFile(path, appLogger)
		if ok {
			docs = append(docs, doc)
		}
		return nil
	})
	if walkErr != nil {
		appLogger.Warn(component, "Directory walk ended early: dir=%s error=%v", dir, walkErr)
	}

	appLogger.Info(component, "Extraction finished: dir=%s documents=%d", dir, len(docs))
	return docs
}

func extractFile(path string, appLogger *logger.Logger) (Document, bool) {
	const component = "Extractor"

	file, err := os.Open(path)
	if err != nil {
		appLogger.Warn(component, "Failed to open XML file: path=%s error=%v", path, err)
		return Document{}, false
	}
	defer file.Close()

	root, err := xmlquery.Parse(file)
	if err != nil {
		appLogger.Warn(component, "Malformed XML, file skipped: path=%s error=%v", path, err)
		return Document{}, false
	}

	doc := Document{
		Key:    resolveChain(root, keyChain),
		Number: resolveChain(root, numberChain),
		Total:  checkNumeric(resolveChain(root, totalChain), path, appLogger),
		Paid:   checkNumeric(resolveChain(root, paidChain), path, appLogger),
	}

	if rawEmission := resolveChain(root, emissionChain); rawEmission != "" {
		ts, hasTime, err := parseEmission(rawEmission)
		if err != nil {
			appLogger.Warn(component, "Unparsable emission timestamp, treated as absent: path=%s value=%q error=%v", path, rawEmission, err)
		} else {
			doc.Month = ts.Format("01/2006")
			doc.Date = ts.Format("02/01/2006")
			if hasTime {
				doc.Time = ts.Format("15:04:05")
			}
		}
	}

	return doc, true
}

// checkNumeric warns when a monetary value is not numeric. The raw text is
// kept either way; the field is never dropped.
func checkNumeric(value, path string, appLogger *logger.Logger) string {
	if value == "" {
		return value
	}
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		appLogger.Warn("Extractor", "Non-numeric monetary value kept as raw text: path=%s value=%q", path, value)
	}
	return value
}
