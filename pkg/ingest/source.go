package ingest

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/h2non/filetype"
	"github.com/jfyne/csvd"
	"github.com/tealeg/xlsx"
)

// Table is one source file held in memory: a header and its records.
// Records may be ragged; a short record reads as empty in the missing cells.
type Table struct {
	Name    string
	Header  []string
	Records [][]string
	index   map[string]int
}

func NewTable(name string, header []string, records [][]string) *Table {
	t := &Table{
		Name:    name,
		Header:  header,
		Records: records,
		index:   make(map[string]int, len(header)),
	}
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		// first occurrence wins on duplicate headers
		if _, ok := t.index[col]; !ok {
			t.index[col] = i
		}
	}
	return t
}

// Len is the number of records, excluding the header.
func (t *Table) Len() int {
	return len(t.Records)
}

// Column returns the position of col, or an error naming the source when the
// header lacks it.
func (t *Table) Column(col string) (int, error) {
	i, ok := t.index[col]
	if !ok {
		return -1, fmt.Errorf("%s: missing required column %q", t.Name, col)
	}
	return i, nil
}

// OptionalColumn returns the position of col, or -1 when the header lacks it.
func (t *Table) OptionalColumn(col string) int {
	if i, ok := t.index[col]; ok {
		return i
	}
	return -1
}

// Cell returns the trimmed value at (row, col). An out of range column reads
// as empty, which is how a missing value is represented.
func (t *Table) Cell(row, col int) string {
	record := t.Records[row]
	if col < 0 || col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}

// missingTokens are cell values read as missing, on top of the empty cell.
var missingTokens = map[string]bool{
	"NA": true, "N/A": true, "n/a": true, "#N/A": true, "<NA>": true,
	"NULL": true, "null": true, "None": true,
	"NaN": true, "nan": true, "-NaN": true, "-nan": true,
}

// Value returns the cell at (row, col) and whether it is present.
func (t *Table) Value(row, col int) (string, bool) {
	v := t.Cell(row, col)
	if v == "" || missingTokens[v] {
		return "", false
	}
	return v, true
}

// ReadFile loads a source from disk.
func ReadFile(name, path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return Read(name, data)
}

// Read parses data as an xlsx workbook when it sniffs as one and as delimited
// text otherwise. The first row is the header.
func Read(name string, data []byte) (*Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s: source is empty", name)
	}

	var rows [][]string
	kind, _ := filetype.Match(data)
	if kind != filetype.Unknown && (kind.Extension == "xlsx" || kind.Extension == "zip") {
		workbook, err := xlsx.OpenBinary(data)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to parse xlsx: %w", name, err)
		}
		sheets, err := workbook.ToSlice()
		if err != nil {
			return nil, fmt.Errorf("%s: unable to read xlsx data: %w", name, err)
		}
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", name)
		}
		rows = sheets[0]
	} else {
		all, err := readDelimited(data)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to read csv: %w", name, err)
		}
		rows = all
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: source has no header row", name)
	}
	return NewTable(name, rows[0], skipBlank(rows[1:])), nil
}

// readDelimited sniffs the delimiter and reads every record. The sniffer
// panics when it cannot read a single sample record, so that is recovered
// into an error.
func readDelimited(data []byte) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("unable to detect delimiter: %v", r)
		}
	}()

	reader := csvd.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

func skipBlank(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
