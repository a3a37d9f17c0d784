package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
)

type JobRepositoryInterface interface {
	Create(job *model.Job) error
	GetByID(id string) (*model.Job, error)
	Update(job *model.Job) error
}

// JobRepository stores queued campaign operations.
type JobRepository struct {
	DB *sql.DB
}

// Create inserts a job; the caller assigns the id.
func (r *JobRepository) Create(job *model.Job) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}

	params, err := json.Marshal(job.Params)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO campaign_jobs
        (id, campaign_id, kind, status, params, last_error, retry_count, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err = r.DB.Exec(query,
		job.ID, job.CampaignID, job.Kind, job.Status, params,
		job.LastError, job.RetryCount, job.CreatedAt, job.UpdatedAt,
	)
	return err
}

func (r *JobRepository) GetByID(id string) (*model.Job, error) {
	query := `
        SELECT id, campaign_id, kind, status, params, result, last_error, retry_count, created_at, updated_at
        FROM campaign_jobs
        WHERE id=$1
    `
	var job model.Job
	var params, result []byte
	err := r.DB.QueryRow(query, id).Scan(
		&job.ID, &job.CampaignID, &job.Kind, &job.Status, &params, &result,
		&job.LastError, &job.RetryCount, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewJobNotFound(id)
		}
		return nil, err
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &job.Params); err != nil {
			return nil, err
		}
	}
	if len(result) > 0 {
		job.Result = json.RawMessage(result)
	}
	return &job, nil
}

// Update stores status, result, last_error and retry_count.
func (r *JobRepository) Update(job *model.Job) error {
	job.UpdatedAt = time.Now().UTC()

	var result interface{}
	if len(job.Result) > 0 {
		result = []byte(job.Result)
	}

	query := `
        UPDATE campaign_jobs
        SET status=$1, result=$2, last_error=$3, retry_count=$4, updated_at=$5
        WHERE id=$6
    `
	res, err := r.DB.Exec(query, job.Status, result, job.LastError, job.RetryCount, job.UpdatedAt, job.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewJobNotFound(job.ID)
	}
	return nil
}

var _ JobRepositoryInterface = (*JobRepository)(nil)
