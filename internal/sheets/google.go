package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const valueInputRaw = "RAW"

// GoogleStore talks to the Google Sheets values API.
type GoogleStore struct {
	srv *gsheets.Service
}

// NewGoogleStore authenticates with a service-account or authorized-user credentials file.
func NewGoogleStore(ctx context.Context, credentialsFile string) (*GoogleStore, error) {
	srv, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleStore{srv: srv}, nil
}

func (g *GoogleStore) GetRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	resp, err := g.srv.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rng, err)
	}

	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		out[i] = cells
	}
	return out, nil
}

func (g *GoogleStore) UpdateRange(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	body := &gsheets.ValueRange{Values: toInterfaces(values)}
	_, err := g.srv.Spreadsheets.Values.Update(spreadsheetID, rng, body).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (g *GoogleStore) AppendRange(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	body := &gsheets.ValueRange{Values: toInterfaces(values)}
	_, err := g.srv.Spreadsheets.Values.Append(spreadsheetID, rng, body).
		ValueInputOption(valueInputRaw).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", rng, err)
	}
	return nil
}

func (g *GoogleStore) BatchUpdate(ctx context.Context, spreadsheetID string, data []RangeValues) error {
	req := &gsheets.BatchUpdateValuesRequest{ValueInputOption: valueInputRaw}
	for _, d := range data {
		req.Data = append(req.Data, &gsheets.ValueRange{Range: d.Range, Values: toInterfaces(d.Values)})
	}
	if _, err := g.srv.Spreadsheets.Values.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("batch update: %w", err)
	}
	return nil
}

func toInterfaces(values [][]string) [][]interface{} {
	out := make([][]interface{}, len(values))
	for i, row := range values {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

var _ ValueStore = (*GoogleStore)(nil)
