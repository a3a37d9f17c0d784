// internal/service/campaign_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	JobRepo      repository.JobRepositoryInterface
	Queue        queue.Queue
	Orchestrator *Orchestrator
	Logger       *zap.Logger
}

type CampaignDetails struct {
	ID              int                `json:"id"`
	Name            string             `json:"name"`
	Status          string             `json:"status"`
	BusinessType    string             `json:"business_type"`
	OutreachType    model.OutreachType `json:"outreach_type"`
	AutomationFocus *string            `json:"automation_focus,omitempty"`
	DataSource      model.DataSource   `json:"data_source"`
	SheetID         string             `json:"sheet_id"`
	SheetURL        string             `json:"sheet_url"`
	TotalBusinesses int                `json:"total_businesses"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Stats           map[string]int     `json:"stats"`
}

func (s *CampaignService) log() *zap.Logger {
	return logger.OrNop(s.Logger)
}

func (s *CampaignService) CreateCampaign(name string, cfg model.CampaignConfig) (*model.Campaign, error) {
	c := &model.Campaign{
		Name:           name,
		Status:         model.CampaignStatusActive,
		CampaignConfig: cfg,
	}
	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	s.log().Info("campaign created", zap.Int("campaign_id", c.ID), zap.String("business_type", c.BusinessType))
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetailsWithStats returns the campaign with the row count per sheet status.
func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	details := &CampaignDetails{
		ID:              campaign.ID,
		Name:            campaign.Name,
		Status:          campaign.Status,
		BusinessType:    campaign.BusinessType,
		OutreachType:    campaign.OutreachType,
		AutomationFocus: campaign.AutomationFocus,
		DataSource:      campaign.DataSource,
		SheetID:         campaign.SheetID,
		TotalBusinesses: campaign.TotalBusinesses,
		CreatedAt:       campaign.CreatedAt,
		UpdatedAt:       campaign.UpdatedAt,
		Stats:           map[string]int{},
	}
	if s.Orchestrator == nil {
		return details, nil
	}

	summary, err := s.Orchestrator.SheetSummary(ctx, campaign.SheetID)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", campaign.SheetID, err)
	}
	details.SheetURL = summary.URL
	details.Stats = summary.Counts
	return details, nil
}

func (s *CampaignService) UpdateStatus(campaignID int, status string) error {
	if !model.ValidCampaignStatus(status) {
		return appErrors.NewValidation("status", "must be active, paused or completed")
	}
	return s.CampaignRepo.UpdateStatus(campaignID, status)
}

// AddLeads publishes leads to the campaign sheet right away and bumps its business total.
func (s *CampaignService) AddLeads(ctx context.Context, campaignID int, newLeads []model.Lead) (*PublishReport, error) {
	campaign, err := s.activeCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	valid, err := s.Orchestrator.Collect(ctx, model.DataSourceManual, campaign.BusinessType, CollectParams{Leads: newLeads})
	if err != nil {
		return nil, err
	}
	return s.publish(ctx, campaign, valid)
}

func (s *CampaignService) publish(ctx context.Context, campaign *model.Campaign, found []model.Lead) (*PublishReport, error) {
	report, err := s.Orchestrator.Publish(ctx, campaign.SheetID, found)
	if err != nil {
		return nil, err
	}
	// Rows are already appended here, so a totals failure is reported in the result and never retried.
	if err := s.CampaignRepo.UpdateTotals(campaign.ID, report.Appended); err != nil {
		s.log().Error("failed to update campaign totals", zap.Int("campaign_id", campaign.ID), zap.Int("appended", report.Appended), zap.Error(err))
		report.TotalsError = err.Error()
	}
	return report, nil
}

func (s *CampaignService) activeCampaign(campaignID int) (*model.Campaign, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignStatusActive {
		return nil, appErrors.NewValidation("status", fmt.Sprintf("campaign is %s", campaign.Status))
	}
	return campaign, nil
}

// Enqueue stores a pending job and hands its id to the queue.
func (s *CampaignService) Enqueue(campaignID int, kind model.JobKind, params model.JobParams) (*model.Job, error) {
	if !model.ValidJobKind(kind) {
		return nil, appErrors.NewValidation("kind", fmt.Sprintf("unknown job kind %q", kind))
	}
	if kind == model.JobSend && !params.Confirmed {
		return nil, appErrors.NewValidation("confirm", "sending emails must be confirmed")
	}
	campaign, err := s.activeCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	if kind == model.JobCollect && campaign.DataSource != model.DataSourceMaps {
		return nil, appErrors.NewValidation("data_source", "only maps campaigns collect in the background; post leads instead")
	}

	job := &model.Job{
		ID:         uuid.New().String(),
		CampaignID: campaignID,
		Kind:       kind,
		Status:     model.JobStatusPending,
		Params:     params,
	}
	if err := s.JobRepo.Create(job); err != nil {
		return nil, err
	}
	if err := s.Queue.Publish(queue.TopicCampaignJobs, job.ID); err != nil {
		return nil, fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}
	s.log().Info("job queued", zap.String("job_id", job.ID), zap.String("kind", string(kind)), zap.Int("campaign_id", campaignID))
	return job, nil
}

func (s *CampaignService) GetJob(id string) (*model.Job, error) {
	return s.JobRepo.GetByID(id)
}

// Run executes one job against its campaign and returns the operation's report.
func (s *CampaignService) Run(ctx context.Context, job *model.Job) (any, error) {
	campaign, err := s.activeCampaign(job.CampaignID)
	if err != nil {
		return nil, err
	}
	o := s.Orchestrator
	sheetID := campaign.SheetID

	switch job.Kind {
	case model.JobCollect:
		found, err := o.Collect(ctx, campaign.DataSource, campaign.BusinessType, CollectParams{
			Location:   job.Params.Location,
			MaxResults: job.Params.MaxResults,
		})
		if err != nil {
			return nil, err
		}
		return s.publish(ctx, campaign, found)
	case model.JobGenerate:
		return o.GenerateDrafts(ctx, campaign.CampaignConfig)
	case model.JobSend:
		confirmed := job.Params.Confirmed
		return o.SendApproved(ctx, campaign.CampaignConfig, func([]model.BusinessRow) bool { return confirmed })
	case model.JobTrack:
		return o.TrackResponses(ctx, sheetID)
	case model.JobEnrich:
		return o.EnrichDrafts(ctx, sheetID)
	case model.JobVerify:
		return o.VerifyDrafts(ctx, sheetID, job.Params.CheckDNS)
	}
	return nil, appErrors.NewValidation("kind", fmt.Sprintf("unknown job kind %q", job.Kind))
}
