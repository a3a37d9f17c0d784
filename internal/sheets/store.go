// Package sheets stores business rows in a spreadsheet-shaped value store.
package sheets

import "context"

// RangeValues is one block of a batch update.
type RangeValues struct {
	Range  string
	Values [][]string
}

// ValueStore is the spreadsheet service contract. Ranges use A1 notation.
// GetRange drops trailing empty cells and trailing empty rows, so an untouched range reads as nil.
type ValueStore interface {
	GetRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
	UpdateRange(ctx context.Context, spreadsheetID, rng string, values [][]string) error
	AppendRange(ctx context.Context, spreadsheetID, rng string, values [][]string) error
	BatchUpdate(ctx context.Context, spreadsheetID string, data []RangeValues) error
}

// collectRows reads rng through cell, trimming the way the spreadsheet API does.
func collectRows(r Range, lastRow int, cell func(row, col int) string) [][]string {
	end := r.EndRow
	if end == 0 || end > lastRow {
		end = lastRow
	}

	var out [][]string
	for row := r.StartRow; row <= end; row++ {
		var cells []string
		for col := r.StartCol; col <= r.EndCol; col++ {
			cells = append(cells, cell(row, col))
		}
		out = append(out, trimTrailing(cells))
	}

	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

func trimTrailing(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	if n == 0 {
		return []string{}
	}
	return cells[:n]
}
