// internal/model/job.go
package model

import (
	"encoding/json"
	"time"
)

type JobKind string

const (
	JobCollect  JobKind = "collect"
	JobGenerate JobKind = "generate"
	JobSend     JobKind = "send"
	JobTrack    JobKind = "track"
	JobEnrich   JobKind = "enrich"
	JobVerify   JobKind = "verify"
)

func ValidJobKind(k JobKind) bool {
	switch k {
	case JobCollect, JobGenerate, JobSend, JobTrack, JobEnrich, JobVerify:
		return true
	}
	return false
}

const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// JobParams carries the per-kind inputs of a queued operation.
type JobParams struct {
	Location   string `json:"location,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
	CheckDNS   bool   `json:"check_dns,omitempty"`
	Confirmed  bool   `json:"confirmed,omitempty"`
}

// Job is one queued campaign operation.
type Job struct {
	ID         string          `db:"id" json:"id"`
	CampaignID int             `db:"campaign_id" json:"campaign_id"`
	Kind       JobKind         `db:"kind" json:"kind"`
	Status     string          `db:"status" json:"status"` // pending, running, done, failed
	Params     JobParams       `db:"params" json:"params"`
	Result     json.RawMessage `db:"result" json:"result,omitempty"`
	LastError  string          `db:"last_error" json:"last_error,omitempty"`
	RetryCount int             `db:"retry_count" json:"retry_count"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}
