package parsers

import (
	"io"
	"mime"
	"path/filepath"
	"strings"
)

type Format int

const (
	FormatCSV Format = iota
	FormatTSV
	FormatHTML
)

func (f Format) String() string {
	switch f {
	case FormatTSV:
		return "tsv"
	case FormatHTML:
		return "html"
	default:
		return "csv"
	}
}

// Table is one sheet: a header and the data rows below it.
type Table struct {
	Header  []string
	Records []Record
}

// Record is one data row. Fields are keyed by normalized header name; Line is
// the 1-based data row number (the header is not counted).
type Record struct {
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value of a column, matching the name the way headers
// are normalized ("Tricks Won" finds "Tricks_Won"). Missing columns read as "".
func (r Record) Get(name string) string {
	return strings.TrimSpace(r.Fields[NormalizeHeader(name)])
}

// Has reports whether the column was present in the sheet.
func (r Record) Has(name string) bool {
	_, ok := r.Fields[NormalizeHeader(name)]
	return ok
}

// HasColumn reports whether the table header includes name.
func (t *Table) HasColumn(name string) bool {
	want := NormalizeHeader(name)
	for _, h := range t.Header {
		if NormalizeHeader(h) == want {
			return true
		}
	}
	return false
}

// NormalizeHeader lower-cases a column name and joins words with underscores.
func NormalizeHeader(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(cleanHeader(name)), "_"))
}

// cleanHeader strips whitespace, a UTF-8 byte order mark, and wrapping quotes.
func cleanHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.TrimSpace(name)
	name = strings.Trim(name, `"'`)
	return strings.TrimSpace(name)
}

// newTable builds a Table from raw rows where the first row is the header.
// Extra cells past the header are dropped and missing cells read as "".
func newTable(rows [][]string) *Table {
	if len(rows) == 0 {
		return &Table{}
	}
	header := make([]string, len(rows[0]))
	keys := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = cleanHeader(name)
		keys[i] = NormalizeHeader(name)
	}

	table := &Table{Header: header}
	for i, row := range rows[1:] {
		rec := Record{Line: i + 1, Fields: make(map[string]string, len(keys))}
		for col, key := range keys {
			if key == "" {
				continue
			}
			value := ""
			if col < len(row) {
				value = row[col]
			}
			if _, dup := rec.Fields[key]; !dup {
				rec.Fields[key] = value
			}
		}
		table.Records = append(table.Records, rec)
	}
	return table
}

// DetectFormat picks a parser from a file name or an HTTP content type.
func DetectFormat(name, contentType string) Format {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			switch mediaType {
			case "text/html", "application/xhtml+xml":
				return FormatHTML
			case "text/tab-separated-values":
				return FormatTSV
			case "text/csv":
				return FormatCSV
			}
		}
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return FormatHTML
	case ".tsv", ".tab":
		return FormatTSV
	}
	return FormatCSV
}

// ParseTable reads a sheet in the given format.
func ParseTable(r io.Reader, format Format) (*Table, error) {
	switch format {
	case FormatHTML:
		return ParseHTML(r)
	case FormatTSV:
		return ParseDelimitedReader(r, '\t')
	default:
		return ParseCSV(r)
	}
}
