package parsers

import (
	"io"
	"strings"
)

const quote = '"'

// ParseCSV reads comma separated sheet text. Only read errors are returned;
// malformed quoting never fails and at worst misaligns fields.
func ParseCSV(r io.Reader) (*Table, error) {
	return ParseDelimitedReader(r, ',')
}

// ParseDelimitedReader reads all of r and splits it with ParseDelimited.
func ParseDelimitedReader(r io.Reader, delim rune) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return newTable(ParseDelimited(string(raw), delim)), nil
}

// ParseDelimited splits text into rows of fields.
//
// Quoted fields may hold the delimiter and newlines, and a doubled quote inside
// a quoted field is one literal quote. Carriage returns are dropped everywhere.
// A trailing row whose fields are all empty is discarded.
func ParseDelimited(text string, delim rune) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)
	endField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	endRow := func() {
		endField()
		rows = append(rows, row)
		row = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\r' {
			continue
		}
		if inQuotes {
			switch {
			case c == quote && i+1 < len(runes) && runes[i+1] == quote:
				field.WriteRune(quote)
				i++
			case c == quote:
				inQuotes = false
			default:
				field.WriteRune(c)
			}
			continue
		}
		switch c {
		case quote:
			inQuotes = true
		case delim:
			endField()
		case '\n':
			endRow()
		default:
			field.WriteRune(c)
		}
	}
	if field.Len() > 0 || len(row) > 0 {
		endRow()
	}

	if n := len(rows); n > 0 && allEmpty(rows[n-1]) {
		rows = rows[:n-1]
	}
	return rows
}

func allEmpty(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
