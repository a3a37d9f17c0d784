// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is returned when a campaign id has no row
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

type ErrJobNotFound struct {
	JobID string
}

func (e *ErrJobNotFound) Error() string {
	return fmt.Sprintf("job %s not found", e.JobID)
}

func NewJobNotFound(id string) error {
	return &ErrJobNotFound{JobID: id}
}

// ErrConfigNotFound means no campaign configuration has been saved yet
type ErrConfigNotFound struct {
	Path string
}

func (e *ErrConfigNotFound) Error() string {
	return fmt.Sprintf("no campaign configuration found at %s, start a campaign first", e.Path)
}

func NewConfigNotFound(path string) error {
	return &ErrConfigNotFound{Path: path}
}

// NoLeadsError aborts a campaign start when a source produced nothing
type NoLeadsError struct {
	Source string
}

func (e *NoLeadsError) Error() string {
	return fmt.Sprintf("no leads collected from %s", e.Source)
}

func NewNoLeads(source string) error {
	return &NoLeadsError{Source: source}
}

// NoRowsError aborts an operation when the sheet has no rows in the wanted status
type NoRowsError struct {
	Status string
}

func (e *NoRowsError) Error() string {
	return fmt.Sprintf("no %s rows found", e.Status)
}

func NewNoRows(status string) error {
	return &NoRowsError{Status: status}
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InvalidTransitionError rejects a status write the workflow does not allow
type InvalidTransitionError struct {
	Row  int
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("row %d: cannot move status from %q to %q", e.Row, e.From, e.To)
}

func NewInvalidTransition(row int, from, to string) error {
	return &InvalidTransitionError{Row: row, From: from, To: to}
}

// ConfigError reports a missing credential or setting
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing configuration: %s is not set", e.Key)
}

func NewConfigError(key string) error {
	return &ConfigError{Key: key}
}
