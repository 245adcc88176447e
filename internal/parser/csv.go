package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"segviz-srv/internal/models"
)

const utf8BOM = "\ufeff"

// ReadTable reads a CSV export with a header row. Any syntax error is
// returned as a *LoadError; no partial table is returned.
func ReadTable(r io.Reader) (*models.Table, error) {
	br := bufio.NewReader(r)

	reader := csv.NewReader(br)
	reader.Comma = detectDelimiter(br)
	reader.FieldsPerRecord = -1

	// ---- Read header row ----
	rawHeaders, err := reader.Read()
	if err == io.EOF {
		return nil, &LoadError{Err: ErrEmptyInput}
	}
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	if len(rawHeaders) > 0 {
		rawHeaders[0] = strings.TrimPrefix(rawHeaders[0], utf8BOM)
	}

	table := &models.Table{Headers: rawHeaders}

	// ---- Read rows ----
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Err: err}
		}
		// Skip totally empty rows
		if isBlank(record) {
			continue
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

// detectDelimiter peeks at the header line. Spreadsheet exports in comma
// decimal locales use ';' instead of ','.
func detectDelimiter(br *bufio.Reader) rune {
	line, err := br.Peek(br.Size())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return ','
	}
	if i := strings.IndexByte(string(line), '\n'); i >= 0 {
		line = line[:i]
	}
	header := string(line)
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// TrimHeaders strips surrounding whitespace from every column name.
func TrimHeaders(t *models.Table) *models.Table {
	for i, h := range t.Headers {
		t.Headers[i] = strings.TrimSpace(h)
	}
	return t
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ResolveColumn returns the first header, in column order, that contains
// any of the candidate substrings. Matching ignores case.
func ResolveColumn(t *models.Table, candidates []string) (string, bool) {
	i := columnIndex(t.Headers, candidates, nil)
	if i < 0 {
		return "", false
	}
	return t.Headers[i], true
}

// columnIndex skips positions already in claimed.
func columnIndex(headers []string, candidates []string, claimed map[int]bool) int {
	for i, h := range headers {
		if claimed[i] {
			continue
		}
		name := normalize(h)
		if name == "" {
			continue
		}
		for _, c := range candidates {
			c = normalize(c)
			if c != "" && strings.Contains(name, c) {
				return i
			}
		}
	}
	return -1
}

// Cell returns the trimmed value of column col in row, or "" for ragged rows.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
