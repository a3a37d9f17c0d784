// internal/model/lead.go
package model

import (
	"strings"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
)

// Lead is a business collected before it is published to the sheet.
type Lead struct {
	Name          string `json:"name"`
	Location      string `json:"location"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Website       string `json:"website"`
	ContactPerson string `json:"contact_person"`
	Platform      string `json:"platform,omitempty"`
	ProfileURL    string `json:"profile_url,omitempty"`
}

func (l Lead) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return appErrors.NewValidation("name", "lead name cannot be empty")
	}
	return nil
}
