// internal/model/campaign.go
package model

import (
	"strings"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
)

const (
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
)

// Campaign is a stored campaign of the HTTP backend.
type Campaign struct {
	ID     int    `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Status string `db:"status" json:"status"`
	CampaignConfig
}

func ValidCampaignStatus(s string) bool {
	switch s {
	case CampaignStatusActive, CampaignStatusPaused, CampaignStatusCompleted:
		return true
	}
	return false
}

func (c *Campaign) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return appErrors.NewValidation("name", "campaign name cannot be empty")
	}
	if c.Status != "" && !ValidCampaignStatus(c.Status) {
		return appErrors.NewValidation("status", "must be active, paused or completed")
	}
	if strings.TrimSpace(c.SheetID) == "" {
		return appErrors.NewValidation("sheet_id", "a spreadsheet id is required")
	}
	return c.CampaignConfig.Validate()
}
