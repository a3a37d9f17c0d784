package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/unclebandit/outreach-backend/internal/model"
)

const (
	headerRange = "A1:N1"
	dataRange   = "A2:N"
	firstRow    = 2

	// SendFailedNote is written to the notes column when a send fails.
	SendFailedNote = "❌ Send failed - check email address"
)

// BusinessSheet reads and writes the 14-column business layout of one spreadsheet.
type BusinessSheet struct {
	Store         ValueStore
	SpreadsheetID string
	Now           func() time.Time
}

func NewBusinessSheet(store ValueStore, spreadsheetID string) *BusinessSheet {
	return &BusinessSheet{Store: store, SpreadsheetID: spreadsheetID, Now: time.Now}
}

// URL is the browser link of a Google spreadsheet.
func URL(spreadsheetID string) string {
	return "https://docs.google.com/spreadsheets/d/" + spreadsheetID
}

func (s *BusinessSheet) URL() string {
	return URL(s.SpreadsheetID)
}

func (s *BusinessSheet) timestamp() string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().Format(model.TimestampLayout)
}

// EnsureHeader writes the header row unless row 1 already has content.
func (s *BusinessSheet) EnsureHeader(ctx context.Context) (bool, error) {
	values, err := s.Store.GetRange(ctx, s.SpreadsheetID, headerRange)
	if err != nil {
		return false, fmt.Errorf("probe header: %w", err)
	}
	if len(values) > 0 && !blank(values[0]) {
		return false, nil
	}
	if err := s.Store.UpdateRange(ctx, s.SpreadsheetID, headerRange, [][]string{model.SheetHeaders}); err != nil {
		return false, fmt.Errorf("write header: %w", err)
	}
	return true, nil
}

// AppendLeads adds one Draft row per lead below the existing data.
func (s *BusinessSheet) AppendLeads(ctx context.Context, leads []model.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}
	values := make([][]string, 0, len(leads))
	for _, l := range leads {
		values = append(values, model.LeadCells(l, sourceNote(l)))
	}
	if err := s.Store.AppendRange(ctx, s.SpreadsheetID, dataRange, values); err != nil {
		return 0, fmt.Errorf("append leads: %w", err)
	}
	return len(values), nil
}

func sourceNote(l model.Lead) string {
	if l.Platform == "" || l.ProfileURL == "" {
		return ""
	}
	return fmt.Sprintf("%s: %s", l.Platform, l.ProfileURL)
}

// Rows returns every non-blank data row.
func (s *BusinessSheet) Rows(ctx context.Context) ([]model.BusinessRow, error) {
	values, err := s.Store.GetRange(ctx, s.SpreadsheetID, dataRange)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	rows := make([]model.BusinessRow, 0, len(values))
	for i, cells := range values {
		if blank(cells) {
			continue
		}
		rows = append(rows, model.RowFromCells(cells, firstRow+i))
	}
	return rows, nil
}

func (s *BusinessSheet) RowsByStatus(ctx context.Context, status model.Status) ([]model.BusinessRow, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.BusinessRow
	for _, r := range rows {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

// StatusCounts tallies rows per status; rows with an unknown status count under "unknown".
func (s *BusinessSheet) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}
	stats := map[string]int{"total": 0}
	for _, st := range model.AllStatuses {
		stats[strings.ToLower(string(st))] = 0
	}
	for _, r := range rows {
		key := "unknown"
		if r.Status != "" {
			key = strings.ToLower(string(r.Status))
		}
		stats[key]++
		stats["total"]++
	}
	return stats, nil
}

// WriteDraft stores a generated subject and body.
func (s *BusinessSheet) WriteDraft(ctx context.Context, row int, subject, body string) error {
	rng := SpanRange(model.ColGeneratedSubject, model.ColGeneratedBody, row)
	return s.Store.UpdateRange(ctx, s.SpreadsheetID, rng, [][]string{{subject, body}})
}

// MarkSent sets the status to Sent and stamps the send date. Date Approved is left alone.
func (s *BusinessSheet) MarkSent(ctx context.Context, row int) error {
	return s.Store.BatchUpdate(ctx, s.SpreadsheetID, []RangeValues{
		{Range: CellRange(model.ColStatus, row), Values: [][]string{{string(model.StatusSent)}}},
		{Range: CellRange(model.ColDateSent, row), Values: [][]string{{s.timestamp()}}},
	})
}

// MarkSendFailed leaves the status untouched and records the failure note.
func (s *BusinessSheet) MarkSendFailed(ctx context.Context, row int) error {
	return s.Store.UpdateRange(ctx, s.SpreadsheetID, CellRange(model.ColNotes, row), [][]string{{SendFailedNote}})
}

// MarkReplied sets Replied with the reply time and text.
func (s *BusinessSheet) MarkReplied(ctx context.Context, row int, details string) error {
	return s.Store.BatchUpdate(ctx, s.SpreadsheetID, []RangeValues{
		{Range: CellRange(model.ColStatus, row), Values: [][]string{{string(model.StatusReplied)}}},
		{
			Range:  SpanRange(model.ColLastResponse, model.ColResponseDetails, row),
			Values: [][]string{{s.timestamp(), details}},
		},
	})
}

// UpdateContacts fills the email and phone cells; empty arguments are skipped.
func (s *BusinessSheet) UpdateContacts(ctx context.Context, row int, email, phone string) error {
	var data []RangeValues
	if email != "" {
		data = append(data, RangeValues{Range: CellRange(model.ColEmail, row), Values: [][]string{{email}}})
	}
	if phone != "" {
		data = append(data, RangeValues{Range: CellRange(model.ColPhone, row), Values: [][]string{{phone}}})
	}
	if len(data) == 0 {
		return nil
	}
	return s.Store.BatchUpdate(ctx, s.SpreadsheetID, data)
}

// AnnotateNotes sets a "label: text" segment in the notes cell, replacing an older segment with the same label.
func (s *BusinessSheet) AnnotateNotes(ctx context.Context, row model.BusinessRow, label, text string) error {
	notes := MergeNote(row.Notes, label, text)
	return s.Store.UpdateRange(ctx, s.SpreadsheetID, CellRange(model.ColNotes, row.RowNumber), [][]string{{notes}})
}

// MergeNote keeps user notes and swaps in the labelled segment.
func MergeNote(notes, label, text string) string {
	prefix := label + ": "
	var kept []string
	for _, part := range strings.Split(notes, " | ") {
		part = strings.TrimSpace(part)
		if part == "" || strings.HasPrefix(part, prefix) {
			continue
		}
		kept = append(kept, part)
	}
	kept = append(kept, prefix+text)
	return strings.Join(kept, " | ")
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
