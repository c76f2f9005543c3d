package parsers

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDelimited(t *testing.T) {
	tests := []struct {
		name string
		text string
		want [][]string
	}{
		{
			name: "plain rows",
			text: "a,b\n1,2\n",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "no trailing newline",
			text: "a,b\n1,2",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "quoted delimiter and newline",
			text: "name,note\n\"Blake, Steve\",\"line one\nline two\"\n",
			want: [][]string{{"name", "note"}, {"Blake, Steve", "line one\nline two"}},
		},
		{
			name: "doubled quote",
			text: "a\n\"say \"\"hi\"\"\"\n",
			want: [][]string{{"a"}, {`say "hi"`}},
		},
		{
			name: "carriage returns dropped",
			text: "a,b\r\n1,2\r\n",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "trailing empty row discarded",
			text: "a,b\n1,2\n,\n",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "empty fields kept",
			text: "a,b,c\n1,,3\n",
			want: [][]string{{"a", "b", "c"}, {"1", "", "3"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDelimited(tt.text, ',')
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseDelimited() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCSVBuildsRecords(t *testing.T) {
	text := "\ufeffPlayer ID,\"Tricks Won\",Extra\nSteveBlake,8\nDan,5,x,overflow\n"

	table, err := ParseCSV(strings.NewReader(text))
	require.NoError(t, err)

	assert.Equal(t, []string{"Player ID", "Tricks Won", "Extra"}, table.Header)
	require.Len(t, table.Records, 2)

	first := table.Records[0]
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, "SteveBlake", first.Get("player id"))
	assert.Equal(t, "8", first.Get("Tricks_Won"))
	assert.True(t, first.Has("extra"))
	assert.Equal(t, "", first.Get("extra"))
	assert.False(t, first.Has("missing"))

	second := table.Records[1]
	assert.Equal(t, 2, second.Line)
	assert.Equal(t, "x", second.Get("Extra"))
	assert.True(t, table.HasColumn("tricks won"))
}

func TestParseTSV(t *testing.T) {
	table, err := ParseTable(strings.NewReader("a\tb\n1,5\t2\n"), FormatTSV)
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	assert.Equal(t, "1,5", table.Records[0].Get("a"))
	assert.Equal(t, "2", table.Records[0].Get("b"))
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatHTML, DetectFormat("sheet", "text/html; charset=utf-8"))
	assert.Equal(t, FormatCSV, DetectFormat("pubhtml", "text/csv"))
	assert.Equal(t, FormatTSV, DetectFormat("rounds.TSV", ""))
	assert.Equal(t, FormatHTML, DetectFormat("rounds.htm", ""))
	assert.Equal(t, FormatCSV, DetectFormat("rounds", "application/octet-stream"))
}
