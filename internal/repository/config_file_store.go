// internal/repository/config_file_store.go
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
)

const ConfigFileName = "campaign_config.json"

// ConfigStore persists the active campaign configuration.
type ConfigStore interface {
	Save(cfg *model.CampaignConfig) error
	Load() (*model.CampaignConfig, error)
	Update(updates map[string]any) (*model.CampaignConfig, error)
	Exists() bool
	Delete() error
}

var updatableKeys = map[string]bool{
	"business_type":    true,
	"outreach_type":    true,
	"automation_focus": true,
	"data_source":      true,
	"sheet_id":         true,
	"total_businesses": true,
}

// FileConfigStore keeps the configuration as JSON in Dir/campaign_config.json.
type FileConfigStore struct {
	Dir string
	Now func() time.Time
}

func NewFileConfigStore(dir string) *FileConfigStore {
	return &FileConfigStore{Dir: dir, Now: time.Now}
}

func (s *FileConfigStore) Path() string {
	return filepath.Join(s.Dir, ConfigFileName)
}

func (s *FileConfigStore) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Save validates cfg, stamps created_at and updated_at on it, and replaces the stored file.
func (s *FileConfigStore) Save(cfg *model.CampaignConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	now := s.now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return s.write(data)
}

func (s *FileConfigStore) Load() (*model.CampaignConfig, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.NewConfigNotFound(s.Path())
		}
		return nil, err
	}

	var cfg model.CampaignConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("corrupt campaign config %s: %w", s.Path(), err)
	}
	return &cfg, nil
}

// Update changes only the given keys plus updated_at. Other stored values keep their exact bytes.
func (s *FileConfigStore) Update(updates map[string]any) (*model.CampaignConfig, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.NewConfigNotFound(s.Path())
		}
		return nil, err
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("corrupt campaign config %s: %w", s.Path(), err)
	}

	for key, value := range updates {
		if !updatableKeys[key] {
			return nil, appErrors.NewValidation(key, "unknown or read-only configuration key")
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		raw[key] = encoded
	}
	stamp, err := json.Marshal(s.now())
	if err != nil {
		return nil, err
	}
	raw["updated_at"] = stamp

	merged, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, err
	}

	var cfg model.CampaignConfig
	if err := json.Unmarshal(merged, &cfg); err != nil {
		return nil, appErrors.NewValidation("", fmt.Sprintf("invalid configuration update: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := s.write(merged); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *FileConfigStore) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

func (s *FileConfigStore) Delete() error {
	err := os.Remove(s.Path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// write replaces the file through a rename so readers never see half a file.
func (s *FileConfigStore) write(data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, ConfigFileName+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.Path())
}

var _ ConfigStore = (*FileConfigStore)(nil)
