// Package pdftext extracts plain text from PDF bytes, progressively:
// a first pass over a handful of pages decides whether the document is
// worth reading in full, so a large, irrelevant PDF never pays for a
// complete extraction.
package pdftext

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/witto13/bess-crawler/internal/clerrors"
)

var triggerTerms = []string{"batteriespeicher", "energiespeicher", "bebauungsplan", "aufstellungsbeschluss"}

// Extract reads text from up to maxPages pages of a PDF's raw bytes;
// maxPages <= 0 reads every page. Pages that fail to decode are
// skipped rather than aborting the whole extraction, since a single
// malformed page is common in scanned municipal PDFs.
func Extract(data []byte, maxPages int) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", clerrors.ParseError("pdf", "PDF", err)
	}

	total := reader.NumPage()
	limit := total
	if maxPages > 0 && maxPages < limit {
		limit = maxPages
	}

	var sb strings.Builder
	for i := 1; i <= limit; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

func hasTrigger(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range triggerTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// ExtractProgressive reads initialPages first and only extracts the
// full document when that excerpt already carries a BESS or procedure
// trigger term.
func ExtractProgressive(data []byte, initialPages int) (text string, hasTriggers bool, err error) {
	initial, err := Extract(data, initialPages)
	if err != nil || initial == "" {
		return "", false, err
	}

	if !hasTrigger(initial) {
		return initial, false, nil
	}

	full, ferr := Extract(data, 0)
	if ferr != nil {
		return initial, true, nil
	}
	return full, true, nil
}
