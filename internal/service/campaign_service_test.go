package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/service"
	"github.com/unclebandit/outreach-backend/internal/sheets"
)

// MockCampaignRepo keeps campaigns in memory, newest first.
type MockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[int]*model.Campaign
	nextID    int
}

func NewMockCampaignRepo(cs ...*model.Campaign) *MockCampaignRepo {
	m := &MockCampaignRepo{campaigns: map[int]*model.Campaign{}}
	for _, c := range cs {
		m.campaigns[c.ID] = c
		if c.ID >= m.nextID {
			m.nextID = c.ID
		}
	}
	return m
}

func (m *MockCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*model.Campaign
	for id := m.nextID; id > 0; id-- {
		if c, ok := m.campaigns[id]; ok && (status == "" || c.Status == status) {
			all = append(all, c)
		}
	}
	if offset >= len(all) {
		return []*model.Campaign{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *MockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) UpdateStatus(id int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.Status = status
	return nil
}

func (m *MockCampaignRepo) UpdateTotals(id, added int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.TotalBusinesses += added
	return nil
}

func (m *MockCampaignRepo) Update(c *model.Campaign) error { return nil }

func (m *MockCampaignRepo) Create(c *model.Campaign) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	m.campaigns[c.ID] = c
	return nil
}

type MockJobRepo struct {
	mu      sync.Mutex
	jobs    map[string]*model.Job
	updates []string
}

func NewMockJobRepo() *MockJobRepo {
	return &MockJobRepo{jobs: map[string]*model.Job{}}
}

func (m *MockJobRepo) Create(job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *MockJobRepo) GetByID(id string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, appErrors.NewJobNotFound(id)
	}
	cp := *job
	return &cp, nil
}

func (m *MockJobRepo) Update(job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	m.updates = append(m.updates, job.Status)
	return nil
}

type MockQueue struct {
	published []any
	err       error
}

func (m *MockQueue) Publish(topic string, payload any) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, payload)
	return nil
}

func (m *MockQueue) Subscribe(topic string, handler func(payload any) error) error { return nil }

func campaignFixture(id int, status string) *model.Campaign {
	return &model.Campaign{ID: id, Name: "Campaign", Status: status, CampaignConfig: specificConfig()}
}

func TestPagination(t *testing.T) {
	repo := NewMockCampaignRepo(
		campaignFixture(1, model.CampaignStatusActive),
		campaignFixture(2, model.CampaignStatusActive),
		campaignFixture(3, model.CampaignStatusPaused),
		campaignFixture(4, model.CampaignStatusActive),
		campaignFixture(5, model.CampaignStatusActive),
	)
	svc := &service.CampaignService{CampaignRepo: repo}

	page1, pagination1, err := svc.ListCampaigns(1, 2, "")
	require.NoError(t, err)
	page2, _, err := svc.ListCampaigns(2, 2, "")
	require.NoError(t, err)
	page3, pagination3, err := svc.ListCampaigns(3, 2, "")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"page": 1, "page_size": 2, "total_count": 5, "total_pages": 3}, pagination1)
	assert.Equal(t, []int{5, 4}, []int{page1[0].ID, page1[1].ID})
	assert.Equal(t, []int{3, 2}, []int{page2[0].ID, page2[1].ID})
	require.Len(t, page3, 1)
	assert.Equal(t, 5, pagination3["total_count"])

	active, pagination, err := svc.ListCampaigns(0, 500, model.CampaignStatusActive)
	require.NoError(t, err)
	assert.Len(t, active, 4)
	assert.Equal(t, 100, pagination["page_size"])
	assert.Equal(t, 1, pagination["page"])
}

func TestCreateCampaignValidates(t *testing.T) {
	svc := &service.CampaignService{CampaignRepo: NewMockCampaignRepo()}

	c, err := svc.CreateCampaign("Austin dentists", specificConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, c.ID)
	assert.Equal(t, model.CampaignStatusActive, c.Status)

	_, err = svc.CreateCampaign("  ", specificConfig())
	var validation *appErrors.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "name", validation.Field)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := NewMockCampaignRepo(campaignFixture(1, model.CampaignStatusActive))
	svc := &service.CampaignService{CampaignRepo: repo}

	require.NoError(t, svc.UpdateStatus(1, model.CampaignStatusPaused))
	c, _ := repo.GetByID(1)
	assert.Equal(t, model.CampaignStatusPaused, c.Status)

	var validation *appErrors.ValidationError
	assert.ErrorAs(t, svc.UpdateStatus(1, "archived"), &validation)
}

func TestEnqueueStoresAndPublishesJob(t *testing.T) {
	jobs := NewMockJobRepo()
	q := &MockQueue{}
	svc := &service.CampaignService{
		CampaignRepo: NewMockCampaignRepo(campaignFixture(7, model.CampaignStatusActive)),
		JobRepo:      jobs,
		Queue:        q,
	}

	job, err := svc.Enqueue(7, model.JobVerify, model.JobParams{CheckDNS: true})
	require.NoError(t, err)
	assert.Len(t, job.ID, 36)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Equal(t, []any{job.ID}, q.published)

	stored, err := svc.GetJob(job.ID)
	require.NoError(t, err)
	assert.True(t, stored.Params.CheckDNS)
	assert.Equal(t, 7, stored.CampaignID)
}

func TestEnqueueRejects(t *testing.T) {
	repo := NewMockCampaignRepo(
		campaignFixture(1, model.CampaignStatusActive),
		campaignFixture(2, model.CampaignStatusPaused),
	)
	svc := &service.CampaignService{CampaignRepo: repo, JobRepo: NewMockJobRepo(), Queue: &MockQueue{}}

	tests := []struct {
		name       string
		campaignID int
		kind       model.JobKind
		params     model.JobParams
		field      string
	}{
		{"unknown kind", 1, "publish", model.JobParams{}, "kind"},
		{"unconfirmed send", 1, model.JobSend, model.JobParams{}, "confirm"},
		{"paused campaign", 2, model.JobGenerate, model.JobParams{}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Enqueue(tt.campaignID, tt.kind, tt.params)
			var validation *appErrors.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.field, validation.Field)
		})
	}

	_, err := svc.Enqueue(99, model.JobTrack, model.JobParams{})
	var notFound *appErrors.ErrCampaignNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestEnqueueSurfacesQueueFailure(t *testing.T) {
	svc := &service.CampaignService{
		CampaignRepo: NewMockCampaignRepo(campaignFixture(1, model.CampaignStatusActive)),
		JobRepo:      NewMockJobRepo(),
		Queue:        &MockQueue{err: errors.New("broker down")},
	}
	_, err := svc.Enqueue(1, model.JobTrack, model.JobParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestAddLeadsPublishesAndCountsTotals(t *testing.T) {
	store := sheets.NewMemoryStore()
	repo := NewMockCampaignRepo(campaignFixture(1, model.CampaignStatusActive))
	svc := &service.CampaignService{CampaignRepo: repo, Orchestrator: newOrchestrator(store)}

	report, err := svc.AddLeads(context.Background(), 1, []model.Lead{{Name: "Smile Dental Care"}, {Name: ""}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Appended)
	assert.Equal(t, "Smile Dental Care", cell(store, 2, model.ColName))

	c, _ := repo.GetByID(1)
	assert.Equal(t, 1, c.TotalBusinesses)

	_, err = svc.AddLeads(context.Background(), 1, nil)
	assert.True(t, service.IsZeroInput(err))
}

func TestCampaignDetailsIncludeSheetCounts(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store,
		rowSpec{name: "A", status: model.StatusDraft},
		rowSpec{name: "B", status: model.StatusReplied},
	)
	svc := &service.CampaignService{
		CampaignRepo: NewMockCampaignRepo(campaignFixture(3, model.CampaignStatusActive)),
		Orchestrator: newOrchestrator(store),
	}

	details, err := svc.GetCampaignDetailsWithStats(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, details.ID)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/sheet-1", details.SheetURL)
	assert.Equal(t, 2, details.Stats["total"])
	assert.Equal(t, 1, details.Stats["replied"])
}

func TestRunDispatchesSendWithConfirmation(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store, rowSpec{name: "A", email: "a@a.com", subject: "S", body: "B", status: model.StatusApproved})
	session := &MockSession{}
	o := newOrchestrator(store)
	o.Dialer = &MockDialer{session: session}
	svc := &service.CampaignService{
		CampaignRepo: NewMockCampaignRepo(campaignFixture(1, model.CampaignStatusActive)),
		Orchestrator: o,
	}

	result, err := svc.Run(context.Background(), &model.Job{CampaignID: 1, Kind: model.JobSend, Params: model.JobParams{Confirmed: true}})
	require.NoError(t, err)
	report := result.(*service.SendReport)
	assert.Equal(t, 1, report.Sent)
	assert.Len(t, session.sent, 1)
}

func TestWorkerThroughInMemoryQueue(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store, rowSpec{name: "A", email: "owner@acme.com", status: model.StatusDraft})
	jobs := NewMockJobRepo()
	q := queue.NewInMemoryQueue(nil)
	svc := &service.CampaignService{
		CampaignRepo: NewMockCampaignRepo(campaignFixture(1, model.CampaignStatusActive)),
		JobRepo:      jobs,
		Queue:        q,
		Orchestrator: newOrchestrator(store),
	}
	worker := service.NewWorker(jobs, svc, nil, nil)
	require.NoError(t, worker.Subscribe(context.Background(), q))

	job, err := svc.Enqueue(1, model.JobVerify, model.JobParams{})
	require.NoError(t, err)
	q.Wait()

	done, err := jobs.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusDone, done.Status)
	assert.Contains(t, string(done.Result), `"valid":["owner@acme.com"]`)
	assert.Equal(t, "Email check: ✅ valid", cell(store, 2, model.ColNotes))
}

// FlakyTotalsRepo fails the first totals update after the rows were appended.
type FlakyTotalsRepo struct {
	*MockCampaignRepo
	failures int
}

func (m *FlakyTotalsRepo) UpdateTotals(id, added int) error {
	if m.failures > 0 {
		m.failures--
		return errors.New("connection reset by peer")
	}
	return m.MockCampaignRepo.UpdateTotals(id, added)
}

func TestCollectJobAppendsOnceWhenTotalsUpdateFails(t *testing.T) {
	store := sheets.NewMemoryStore()
	campaign := campaignFixture(1, model.CampaignStatusActive)
	repo := &FlakyTotalsRepo{MockCampaignRepo: NewMockCampaignRepo(campaign), failures: 1}
	jobs := NewMockJobRepo()
	q := queue.NewInMemoryQueue(nil)
	q.Backoff = time.Millisecond

	o := newOrchestrator(store)
	maps := &MockMaps{leads: []model.Lead{{Name: "Acme Dental"}, {Name: "Beta Dental"}}}
	o.Maps = maps
	svc := &service.CampaignService{CampaignRepo: repo, JobRepo: jobs, Queue: q, Orchestrator: o}
	require.NoError(t, service.NewWorker(jobs, svc, nil, nil).Subscribe(context.Background(), q))

	job, err := svc.Enqueue(1, model.JobCollect, model.JobParams{Location: "Austin, TX", MaxResults: 2})
	require.NoError(t, err)
	q.Wait()

	assert.Equal(t, 1, maps.calls)
	assert.Len(t, store.Rows(sheetID), 3, "header plus one row per lead")
	assert.Equal(t, "Acme Dental", cell(store, 2, model.ColName))
	assert.Equal(t, "Beta Dental", cell(store, 3, model.ColName))

	done, err := jobs.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusDone, done.Status)
	assert.Contains(t, string(done.Result), `"appended":2`)
	assert.Contains(t, string(done.Result), "connection reset by peer")
}
