package parsers

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ParseHTML reads the first <table> of a published sheet page. The first row
// with cells is the header; rows whose cells are all empty are skipped, which
// also drops the row-number gutter rows some exports emit.
func ParseHTML(r io.Reader) (*Table, error) {
	z := html.NewTokenizer(r)
	rows := [][]string{}

	isTable := false
	tableDone := false
	isTableRow := false
	isTableCell := false
	var bufferRow []string
	var bufferCell strings.Builder
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != nil && err != io.EOF {
				return nil, err
			}
			return newTable(rows), nil
		case html.StartTagToken, html.SelfClosingTagToken:
			if tableDone {
				continue
			}
			t := z.Token()
			switch t.Data {
			case "table":
				isTable = true
			case "tr":
				if isTable {
					isTableRow = true
					bufferRow = nil
				}
			case "th", "td":
				if isTableRow {
					isTableCell = true
					bufferCell.Reset()
				}
			case "br":
				if isTableCell {
					bufferCell.WriteByte('\n')
				}
			}
		case html.TextToken:
			if isTableCell {
				bufferCell.WriteString(z.Token().Data)
			}
		case html.EndTagToken:
			if tableDone {
				continue
			}
			t := z.Token()
			switch t.Data {
			case "th", "td":
				if isTableCell {
					bufferRow = append(bufferRow, strings.TrimSpace(bufferCell.String()))
					isTableCell = false
				}
			case "tr":
				if isTableRow && !allEmpty(bufferRow) {
					rows = append(rows, bufferRow)
				}
				isTableRow = false
				bufferRow = nil
			case "table":
				isTable = false
				tableDone = true
			}
		}
	}
}
