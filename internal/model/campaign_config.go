// internal/model/campaign_config.go
package model

import (
	"strings"
	"time"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/validator"
)

type OutreachType string

const (
	OutreachGeneralHelp        OutreachType = "general_help"
	OutreachSpecificAutomation OutreachType = "specific_automation"
)

type DataSource string

const (
	DataSourceMaps     DataSource = "maps"
	DataSourceJSONFile DataSource = "json_file"
	DataSourceManual   DataSource = "manual"
)

// ParseOutreachType accepts the stored identifiers.
func ParseOutreachType(s string) (OutreachType, error) {
	switch OutreachType(strings.TrimSpace(s)) {
	case OutreachGeneralHelp:
		return OutreachGeneralHelp, nil
	case OutreachSpecificAutomation:
		return OutreachSpecificAutomation, nil
	}
	return "", appErrors.NewValidation("outreach_type", "must be general_help or specific_automation")
}

// ParseDataSource also accepts the older "google_maps" spelling.
func ParseDataSource(s string) (DataSource, error) {
	switch strings.TrimSpace(s) {
	case "maps", "google_maps":
		return DataSourceMaps, nil
	case "json_file":
		return DataSourceJSONFile, nil
	case "manual":
		return DataSourceManual, nil
	}
	return "", appErrors.NewValidation("data_source", "must be maps, json_file or manual")
}

// CampaignConfig is the strategy of the active campaign.
type CampaignConfig struct {
	BusinessType    string       `db:"business_type" json:"business_type"`
	OutreachType    OutreachType `db:"outreach_type" json:"outreach_type"`
	AutomationFocus *string      `db:"automation_focus" json:"automation_focus"`
	DataSource      DataSource   `db:"data_source" json:"data_source"`
	SheetID         string       `db:"sheet_id" json:"sheet_id"`
	TotalBusinesses int          `db:"total_businesses" json:"total_businesses"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// NewCampaignConfig validates everything up front. An empty focus means none was given.
func NewCampaignConfig(businessType string, outreach OutreachType, focus string, source DataSource, sheetID string) (*CampaignConfig, error) {
	cfg := &CampaignConfig{
		BusinessType: strings.TrimSpace(businessType),
		OutreachType: outreach,
		DataSource:   source,
		SheetID:      strings.TrimSpace(sheetID),
	}
	if f := strings.TrimSpace(focus); f != "" {
		cfg.AutomationFocus = &f
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *CampaignConfig) Validate() error {
	if err := validator.BusinessType(c.BusinessType); err != nil {
		return appErrors.NewValidation("business_type", err.Error())
	}
	if _, err := ParseOutreachType(string(c.OutreachType)); err != nil {
		return err
	}
	if _, err := ParseDataSource(string(c.DataSource)); err != nil {
		return err
	}

	hasFocus := c.AutomationFocus != nil && strings.TrimSpace(*c.AutomationFocus) != ""
	switch {
	case c.OutreachType == OutreachSpecificAutomation && !hasFocus:
		return appErrors.NewValidation("automation_focus", "required for specific_automation outreach")
	case c.OutreachType == OutreachGeneralHelp && c.AutomationFocus != nil:
		return appErrors.NewValidation("automation_focus", "only allowed for specific_automation outreach")
	}

	if c.TotalBusinesses < 0 {
		return appErrors.NewValidation("total_businesses", "cannot be negative")
	}
	return nil
}

// Focus returns the automation focus or "" for general outreach.
func (c *CampaignConfig) Focus() string {
	if c.AutomationFocus == nil {
		return ""
	}
	return *c.AutomationFocus
}
