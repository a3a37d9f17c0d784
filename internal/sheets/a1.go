package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is a parsed A1 range. Columns are 0-based, rows 1-based. EndRow 0 means "to the last row".
type Range struct {
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ParseRange understands "A1:N1", "A2:N", "G5:H5" and single cells like "I5".
// A leading "Sheet1!" prefix is ignored.
func ParseRange(s string) (Range, error) {
	if i := strings.LastIndex(s, "!"); i >= 0 {
		s = s[i+1:]
	}
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(s)), ":")
	if len(parts) == 0 || len(parts) > 2 || parts[0] == "" {
		return Range{}, fmt.Errorf("invalid range %q", s)
	}

	startCol, startRow, err := parseCell(parts[0])
	if err != nil {
		return Range{}, err
	}
	if startRow == 0 {
		startRow = 1
	}
	r := Range{StartCol: startCol, StartRow: startRow, EndCol: startCol, EndRow: startRow}

	if len(parts) == 2 {
		endCol, endRow, err := parseCell(parts[1])
		if err != nil {
			return Range{}, err
		}
		r.EndCol = endCol
		r.EndRow = endRow
		if r.EndCol < r.StartCol || (r.EndRow != 0 && r.EndRow < r.StartRow) {
			return Range{}, fmt.Errorf("invalid range %q: end before start", s)
		}
	}
	return r, nil
}

func parseCell(cell string) (col, row int, err error) {
	i := 0
	for i < len(cell) && cell[i] >= 'A' && cell[i] <= 'Z' {
		col = col*26 + int(cell[i]-'A'+1)
		i++
	}
	if i == 0 {
		return 0, 0, fmt.Errorf("invalid cell %q", cell)
	}
	if i < len(cell) {
		row, err = strconv.Atoi(cell[i:])
		if err != nil || row < 1 {
			return 0, 0, fmt.Errorf("invalid cell %q", cell)
		}
	}
	return col - 1, row, nil
}

// ColumnLetter converts a 0-based column index to its letter name.
func ColumnLetter(col int) string {
	name := ""
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return name
}

// CellRange names a single cell, e.g. CellRange(8, 5) == "I5".
func CellRange(col, row int) string {
	return fmt.Sprintf("%s%d", ColumnLetter(col), row)
}

// SpanRange names cells on one row, e.g. SpanRange(6, 7, 5) == "G5:H5".
func SpanRange(fromCol, toCol, row int) string {
	return fmt.Sprintf("%s%d:%s%d", ColumnLetter(fromCol), row, ColumnLetter(toCol), row)
}
