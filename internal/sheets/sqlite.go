package sheets

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps spreadsheets as cells in a local SQLite file, for offline runs.
type SQLiteStore struct {
	DB *sql.DB
}

// OpenSQLiteStore opens (and creates) the cell database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS cells (
		spreadsheet_id TEXT NOT NULL,
		row_num INTEGER NOT NULL,
		col_num INTEGER NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (spreadsheet_id, row_num, col_num)
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cells table: %w", err)
	}
	return &SQLiteStore{DB: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}

func (s *SQLiteStore) GetRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT row_num, col_num, value FROM cells
		WHERE spreadsheet_id = ? AND row_num >= ? AND (? = 0 OR row_num <= ?)
		  AND col_num BETWEEN ? AND ?`
	rows, err := s.DB.QueryContext(ctx, query, spreadsheetID, r.StartRow, r.EndRow, r.EndRow, r.StartCol, r.EndCol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cells := map[[2]int]string{}
	lastRow := 0
	for rows.Next() {
		var row, col int
		var value string
		if err := rows.Scan(&row, &col, &value); err != nil {
			return nil, err
		}
		cells[[2]int{row, col}] = value
		if row > lastRow {
			lastRow = row
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return collectRows(r, lastRow, func(row, col int) string {
		return cells[[2]int{row, col}]
	}), nil
}

func (s *SQLiteStore) UpdateRange(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	return s.BatchUpdate(ctx, spreadsheetID, []RangeValues{{Range: rng, Values: values}})
}

func (s *SQLiteStore) AppendRange(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var last int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row_num), 0) FROM cells WHERE spreadsheet_id = ? AND col_num BETWEEN ? AND ?`,
		spreadsheetID, r.StartCol, r.EndCol,
	).Scan(&last)
	if err != nil {
		return err
	}

	next := last + 1
	if next < r.StartRow {
		next = r.StartRow
	}
	if err := writeCells(ctx, tx, spreadsheetID, next, r.StartCol, values); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) BatchUpdate(ctx context.Context, spreadsheetID string, data []RangeValues) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range data {
		r, err := ParseRange(d.Range)
		if err != nil {
			return err
		}
		if err := writeCells(ctx, tx, spreadsheetID, r.StartRow, r.StartCol, d.Values); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Empty values delete the cell so reads treat it as blank.
func writeCells(ctx context.Context, tx *sql.Tx, spreadsheetID string, startRow, startCol int, values [][]string) error {
	for i, rowValues := range values {
		for j, v := range rowValues {
			row, col := startRow+i, startCol+j
			var err error
			if v == "" {
				_, err = tx.ExecContext(ctx,
					`DELETE FROM cells WHERE spreadsheet_id = ? AND row_num = ? AND col_num = ?`,
					spreadsheetID, row, col)
			} else {
				_, err = tx.ExecContext(ctx, `
					INSERT INTO cells (spreadsheet_id, row_num, col_num, value) VALUES (?, ?, ?, ?)
					ON CONFLICT (spreadsheet_id, row_num, col_num) DO UPDATE SET value = excluded.value`,
					spreadsheetID, row, col, v)
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", CellRange(col, row), err)
			}
		}
	}
	return nil
}

var _ ValueStore = (*SQLiteStore)(nil)
