package sheets

import (
	"context"
	"sync"
)

// MemoryStore keeps spreadsheets in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	sheets map[string][][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sheets: make(map[string][][]string)}
}

func (m *MemoryStore) GetRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	grid := m.sheets[spreadsheetID]

	return collectRows(r, len(grid), func(row, col int) string {
		cells := grid[row-1]
		if col < len(cells) {
			return cells[col]
		}
		return ""
	}), nil
}

func (m *MemoryStore) UpdateRange(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(spreadsheetID, r.StartRow, r.StartCol, values)
	return nil
}

func (m *MemoryStore) AppendRange(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	grid := m.sheets[spreadsheetID]
	last := 0
	for i, cells := range grid {
		for col := r.StartCol; col <= r.EndCol && col < len(cells); col++ {
			if cells[col] != "" {
				last = i + 1
				break
			}
		}
	}
	next := last + 1
	if next < r.StartRow {
		next = r.StartRow
	}
	m.write(spreadsheetID, next, r.StartCol, values)
	return nil
}

func (m *MemoryStore) BatchUpdate(ctx context.Context, spreadsheetID string, data []RangeValues) error {
	parsed := make([]Range, len(data))
	for i, d := range data {
		r, err := ParseRange(d.Range)
		if err != nil {
			return err
		}
		parsed[i] = r
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range data {
		m.write(spreadsheetID, parsed[i].StartRow, parsed[i].StartCol, d.Values)
	}
	return nil
}

// Rows returns a copy of every stored row of a spreadsheet, header included.
func (m *MemoryStore) Rows(spreadsheetID string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	grid := m.sheets[spreadsheetID]
	out := make([][]string, len(grid))
	for i, cells := range grid {
		out[i] = append([]string(nil), cells...)
	}
	return out
}

func (m *MemoryStore) write(spreadsheetID string, startRow, startCol int, values [][]string) {
	grid := m.sheets[spreadsheetID]
	for i, rowValues := range values {
		idx := startRow - 1 + i
		for len(grid) <= idx {
			grid = append(grid, []string{})
		}
		cells := grid[idx]
		for j, v := range rowValues {
			col := startCol + j
			for len(cells) <= col {
				cells = append(cells, "")
			}
			cells[col] = v
		}
		grid[idx] = cells
	}
	m.sheets[spreadsheetID] = grid
}

var _ ValueStore = (*MemoryStore)(nil)
