package leads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/unclebandit/outreach-backend/internal/model"
)

// LoadJSONFile reads leads from a JSON list, or from an object holding the list under "businesses".
func LoadJSONFile(path string) ([]model.Lead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeJSON(data)
}

func DecodeJSON(data []byte) ([]model.Lead, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON document")
	}

	var leads []model.Lead
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &leads); err != nil {
			return nil, fmt.Errorf("invalid JSON format: %w", err)
		}
	case '{':
		var doc struct {
			Businesses []model.Lead `json:"businesses"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON format: %w", err)
		}
		leads = doc.Businesses
	default:
		return nil, fmt.Errorf("JSON file must contain a list of businesses")
	}
	return leads, nil
}
