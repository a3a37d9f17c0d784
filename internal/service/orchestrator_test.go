package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/enrich"
	"github.com/unclebandit/outreach-backend/internal/generator"
	"github.com/unclebandit/outreach-backend/internal/mailer"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/repository"
	"github.com/unclebandit/outreach-backend/internal/retry"
	"github.com/unclebandit/outreach-backend/internal/service"
	"github.com/unclebandit/outreach-backend/internal/sheets"
	"github.com/unclebandit/outreach-backend/internal/verify"
)

func approve(_ []model.BusinessRow) bool { return true }

func TestSendApprovedUsesOneSessionAndPaces(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store,
		rowSpec{name: "A Dental", email: "a@adental.com", subject: "Hi A", body: "Body A", status: model.StatusApproved},
		rowSpec{name: "B Dental", email: "b@bdental.com", subject: "Hi B", body: "Body B", status: model.StatusDraft},
		rowSpec{name: "C Dental", email: "c@cdental.com", subject: "Hi C", body: "Body C", status: model.StatusApproved},
		rowSpec{name: "D Dental", email: "d@ddental.com", subject: "Hi D", status: model.StatusApproved},
		rowSpec{name: "E Dental", email: "e@edental.com", subject: "Hi E", body: "Body E", status: model.StatusApproved},
	)

	session := &MockSession{}
	dialer := &MockDialer{session: session}
	notifier := &MockNotifier{}
	o := newOrchestrator(store)
	o.Dialer = dialer
	o.Notifier = notifier
	o.SendDelay = 20 * time.Millisecond

	var confirmed []string
	report, err := o.SendApproved(context.Background(), specificConfig(), func(rows []model.BusinessRow) bool {
		for _, r := range rows {
			confirmed = append(confirmed, r.Name)
		}
		return true
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A Dental", "C Dental", "E Dental"}, confirmed)
	assert.Equal(t, 3, report.Sent)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, dialer.dials)
	assert.Equal(t, 1, session.closed)
	require.Len(t, session.sent, 3)
	assert.Equal(t, mailer.OutgoingEmail{To: "a@adental.com", Subject: "Hi A", Body: "Body A"}, session.sent[0])

	require.Len(t, session.times, 3)
	assert.GreaterOrEqual(t, session.times[2].Sub(session.times[0]), 35*time.Millisecond)

	for _, row := range []int{2, 4, 6} {
		assert.Equal(t, "Sent", cell(store, row, model.ColStatus), "row %d", row)
		assert.Equal(t, "2025-03-14 09:30:00", cell(store, row, model.ColDateSent), "row %d", row)
	}
	assert.Equal(t, "Draft", cell(store, 3, model.ColStatus))
	assert.Equal(t, "Approved", cell(store, 5, model.ColStatus))

	require.Len(t, notifier.msgs, 1)
	assert.Contains(t, notifier.msgs[0].Subject, "3 emails sent")
}

func TestSendApprovedRecordsFailuresAndContinues(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store,
		rowSpec{name: "Bad", email: "bad@nowhere.test", subject: "S", body: "B", status: model.StatusApproved},
		rowSpec{name: "Good", email: "good@somewhere.com", subject: "S", body: "B", status: model.StatusApproved},
	)
	session := &MockSession{fail: map[string]error{
		"bad@nowhere.test": fmt.Errorf("build message: %w", mailer.ErrInvalidRecipient),
	}}
	o := newOrchestrator(store)
	o.Dialer = &MockDialer{session: session}

	report, err := o.SendApproved(context.Background(), specificConfig(), approve)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 2, report.Failures[0].Row)
	assert.Equal(t, mailer.FailureRecipientRejected, report.Failures[0].Kind)

	assert.Equal(t, "Approved", cell(store, 2, model.ColStatus))
	assert.Equal(t, sheets.SendFailedNote, cell(store, 2, model.ColNotes))
	assert.Equal(t, "Sent", cell(store, 3, model.ColStatus))
	assert.Equal(t, 1, session.closed)
}

func TestSendApprovedCancelledSendsNothing(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store, rowSpec{name: "A", email: "a@a.com", subject: "S", body: "B", status: model.StatusApproved})
	dialer := &MockDialer{session: &MockSession{}}
	o := newOrchestrator(store)
	o.Dialer = dialer

	report, err := o.SendApproved(context.Background(), specificConfig(), func([]model.BusinessRow) bool { return false })
	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Equal(t, 0, dialer.dials)
	assert.Equal(t, "Approved", cell(store, 2, model.ColStatus))
}

func TestSendApprovedWithoutReadyRows(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store, rowSpec{name: "A", email: "a@a.com", status: model.StatusApproved})
	o := newOrchestrator(store)
	o.Dialer = &MockDialer{session: &MockSession{}}

	_, err := o.SendApproved(context.Background(), specificConfig(), approve)
	var noRows *appErrors.NoRowsError
	require.ErrorAs(t, err, &noRows)
	assert.True(t, service.IsZeroInput(err))
}

func TestSendApprovedDialFailure(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store, rowSpec{name: "A", email: "a@a.com", subject: "S", body: "B", status: model.StatusApproved})
	o := newOrchestrator(store)
	o.Dialer = &MockDialer{err: errors.New("535 authentication failed")}

	_, err := o.SendApproved(context.Background(), specificConfig(), approve)
	require.Error(t, err)
	assert.Equal(t, "Approved", cell(store, 2, model.ColStatus))
}

func TestGenerateDraftsWritesEveryDraftRow(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store,
		rowSpec{name: "Bright Smiles", website: "brightsmiles.com", status: model.StatusDraft},
		rowSpec{name: "Old One", status: model.StatusSent},
		rowSpec{name: "Lake Dental", website: "down.example", status: model.StatusDraft},
	)
	writer := &MockWriter{}
	o := newOrchestrator(store)
	o.Writer = writer
	o.Website = &MockFetcher{pages: map[string]string{"brightsmiles.com": "Family dentistry since 1990"}}

	report, err := o.GenerateDrafts(context.Background(), specificConfig())
	require.NoError(t, err)

	want := []generator.Request{
		{Strategy: model.OutreachSpecificAutomation, BusinessName: "Bright Smiles", BusinessType: "dentist", WebsiteContext: "Family dentistry since 1990", AutomationFocus: "Appointment Reminder System"},
		{Strategy: model.OutreachSpecificAutomation, BusinessName: "Lake Dental", BusinessType: "dentist", AutomationFocus: "Appointment Reminder System"},
	}
	if diff := cmp.Diff(want, writer.requests); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, report.Drafts, 2)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, "Hello Bright Smiles", cell(store, 2, model.ColGeneratedSubject))
	assert.Equal(t, "Dear Lake Dental team, we help dentists.", cell(store, 4, model.ColGeneratedBody))
	assert.Equal(t, "Draft", cell(store, 2, model.ColStatus))
	assert.Empty(t, cell(store, 3, model.ColGeneratedSubject))
}

// DownLLM fails every call, like a model endpoint that is unreachable.
type DownLLM struct {
	calls int
}

func (m *DownLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return "", errors.New("503 model overloaded")
}

func TestGenerateDraftsFallsBackAndContinues(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store,
		rowSpec{name: "Bright Smiles", status: model.StatusDraft},
		rowSpec{name: "Lake Dental", status: model.StatusDraft},
	)
	llm := &DownLLM{}
	writer := generator.New(llm, nil)
	writer.Retry = retry.Policy{Attempts: 3, Base: time.Millisecond, Max: time.Millisecond}
	o := newOrchestrator(store)
	o.Writer = writer

	cfg := specificConfig()
	cfg.OutreachType = model.OutreachGeneralHelp
	cfg.AutomationFocus = nil

	report, err := o.GenerateDrafts(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 6, llm.calls)
	require.Len(t, report.Drafts, 2)
	assert.Equal(t, 0, report.Failed)

	for i, name := range []string{"Bright Smiles", "Lake Dental"} {
		assert.True(t, report.Drafts[i].Fallback)
		assert.Equal(t, "Quick question about "+name, cell(store, i+2, model.ColGeneratedSubject))
		assert.Contains(t, cell(store, i+2, model.ColGeneratedBody), "Hi "+name+" team,")
	}
}

func TestGenerateDraftsWithoutDraftRows(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store, rowSpec{name: "A", status: model.StatusApproved})
	o := newOrchestrator(store)
	o.Writer = &MockWriter{}

	_, err := o.GenerateDrafts(context.Background(), specificConfig())
	assert.True(t, service.IsZeroInput(err))
}

func TestTrackResponsesMarksRepliesOnce(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store,
		rowSpec{name: "Replier", email: "owner@replier.com", status: model.StatusSent},
		rowSpec{name: "Quiet", email: "quiet@quiet.com", status: model.StatusSent},
		rowSpec{name: "Broken", email: "broken@broken.com", status: model.StatusSent},
		rowSpec{name: "Done", email: "done@done.com", status: model.StatusReplied},
	)
	long := strings.Repeat("y", 600)
	mailbox := &MockMailbox{
		replies: map[string]*mailer.InboundMessage{"owner@replier.com": {ID: "m1", From: "owner@replier.com", Body: long}},
		errs:    map[string]error{"broken@broken.com": errors.New("gmail 503")},
	}
	notifier := &MockNotifier{}
	o := newOrchestrator(store)
	o.Mailbox = mailbox
	o.Notifier = notifier

	report, err := o.TrackResponses(context.Background(), sheetID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 1, report.NewReplies)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"owner@replier.com", "quiet@quiet.com", "broken@broken.com"}, mailbox.asked)

	assert.Equal(t, "Replied", cell(store, 2, model.ColStatus))
	assert.Equal(t, "2025-03-14 09:30:00", cell(store, 2, model.ColLastResponse))
	assert.Equal(t, strings.Repeat("y", 500), cell(store, 2, model.ColResponseDetails))
	require.Len(t, notifier.msgs, 1)
	assert.Contains(t, notifier.msgs[0].HTML, "Replier")

	// The replied row is no longer scanned, so a second poll stays quiet.
	mailbox.asked = nil
	report, err = o.TrackResponses(context.Background(), sheetID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.NewReplies)
	assert.NotContains(t, mailbox.asked, "owner@replier.com")
	assert.Len(t, notifier.msgs, 1)
}

func TestTrackResponsesWithoutSentRows(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store, rowSpec{name: "A", email: "a@a.com", status: model.StatusDraft})
	o := newOrchestrator(store)
	o.Mailbox = &MockMailbox{}

	_, err := o.TrackResponses(context.Background(), sheetID)
	assert.True(t, service.IsZeroInput(err))
}

func TestStartCampaignPublishesAndSavesConfig(t *testing.T) {
	store := sheets.NewMemoryStore()
	configs := repository.NewFileConfigStore(t.TempDir())
	maps := &MockMaps{leads: []model.Lead{
		{Name: "Bright Smiles", Email: "hi@brightsmiles.com"},
		{Name: "  "},
		{Name: "Lake Dental", Website: "lakedental.com"},
	}}
	o := newOrchestrator(store)
	o.Configs = configs
	o.Maps = maps

	report, err := o.StartCampaign(context.Background(), service.StartRequest{
		BusinessType:    "dentist",
		OutreachType:    model.OutreachSpecificAutomation,
		AutomationFocus: "Appointment Reminder System",
		DataSource:      model.DataSourceMaps,
		SheetID:         sheetID,
		Collect:         service.CollectParams{Location: "Austin, TX", MaxResults: 20},
	})
	require.NoError(t, err)

	assert.True(t, report.Publish.HeaderCreated)
	assert.Equal(t, 2, report.Publish.Appended)
	assert.Equal(t, 2, report.Config.TotalBusinesses)
	assert.Equal(t, "Business Name", cell(store, 1, model.ColName))
	assert.Equal(t, "Lake Dental", cell(store, 3, model.ColName))
	assert.Equal(t, "Draft", cell(store, 3, model.ColStatus))

	saved, err := configs.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, saved.TotalBusinesses)
	assert.Equal(t, "Appointment Reminder System", saved.Focus())
}

func TestStartCampaignWithNoLeadsKeepsEverythingUntouched(t *testing.T) {
	store := sheets.NewMemoryStore()
	configs := repository.NewFileConfigStore(t.TempDir())
	o := newOrchestrator(store)
	o.Configs = configs
	o.Maps = &MockMaps{}

	_, err := o.StartCampaign(context.Background(), service.StartRequest{
		BusinessType: "dentist",
		OutreachType: model.OutreachGeneralHelp,
		DataSource:   model.DataSourceMaps,
		SheetID:      sheetID,
	})
	var noLeads *appErrors.NoLeadsError
	require.ErrorAs(t, err, &noLeads)
	assert.False(t, configs.Exists())
	assert.Empty(t, store.Rows(sheetID))
}

func TestStartCampaignValidatesBeforeCollecting(t *testing.T) {
	maps := &MockMaps{leads: []model.Lead{{Name: "A"}}}
	o := newOrchestrator(sheets.NewMemoryStore())
	o.Maps = maps

	_, err := o.StartCampaign(context.Background(), service.StartRequest{
		BusinessType: "dentist",
		OutreachType: model.OutreachSpecificAutomation,
		DataSource:   model.DataSourceMaps,
		SheetID:      sheetID,
	})
	var validation *appErrors.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "automation_focus", validation.Field)
	assert.Equal(t, 0, maps.calls)
}

func TestPublishTwiceAppendsTwice(t *testing.T) {
	store := sheets.NewMemoryStore()
	o := newOrchestrator(store)
	leads := []model.Lead{{Name: "Same Biz"}}

	first, err := o.Publish(context.Background(), sheetID, leads)
	require.NoError(t, err)
	second, err := o.Publish(context.Background(), sheetID, leads)
	require.NoError(t, err)

	assert.True(t, first.HeaderCreated)
	assert.False(t, second.HeaderCreated)
	assert.Equal(t, "Same Biz", cell(store, 2, model.ColName))
	assert.Equal(t, "Same Biz", cell(store, 3, model.ColName))
}

func TestEnrichDraftsFillsOnlyMissingContacts(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store,
		rowSpec{name: "No Email", website: "https://noemail.com", status: model.StatusDraft},
		rowSpec{name: "Has Email", email: "keep@has.com", website: "https://has.com", status: model.StatusDraft},
		rowSpec{name: "Dead Site", website: "https://dead.com", status: model.StatusDraft},
	)
	o := newOrchestrator(store)
	o.Enricher = &enrich.Enricher{Crawler: &MockCrawler{sites: map[string]enrich.Contacts{
		"https://noemail.com": {Emails: []string{"info@noemail.com"}, Phones: []string{"(512) 555-0101"}},
	}}}

	report, err := o.EnrichDrafts(context.Background(), sheetID)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 1, report.Enriched)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []int{2}, report.Updated)
	assert.Equal(t, "info@noemail.com", cell(store, 2, model.ColEmail))
	assert.Equal(t, "(512) 555-0101", cell(store, 2, model.ColPhone))
	assert.Equal(t, "keep@has.com", cell(store, 3, model.ColEmail))
	assert.Empty(t, cell(store, 4, model.ColEmail))
}

func TestVerifyDraftsAnnotatesNotes(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store,
		rowSpec{name: "Good", email: "owner@acme.com", notes: "call after 5pm", status: model.StatusDraft},
		rowSpec{name: "Throwaway", email: "x@mailinator.com", status: model.StatusApproved},
		rowSpec{name: "Sent", email: "nope", status: model.StatusSent},
		rowSpec{name: "Broken", email: "not-an-email", notes: "Email check: ✅ valid", status: model.StatusDraft},
	)
	o := newOrchestrator(store)
	o.Verifier = &verify.Verifier{}

	report, err := o.VerifyDrafts(context.Background(), sheetID, false)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, []string{"owner@acme.com"}, report.Valid)
	assert.Len(t, report.Invalid, 2)
	assert.Equal(t, "call after 5pm | Email check: ✅ valid", cell(store, 2, model.ColNotes))
	assert.Equal(t, "Email check: ❌ "+verify.ReasonDisposable, cell(store, 3, model.ColNotes))
	assert.Empty(t, cell(store, 4, model.ColNotes))
	assert.Equal(t, "Email check: ❌ "+verify.ReasonSyntax, cell(store, 5, model.ColNotes))
}

func TestSheetSummaryCountsStatuses(t *testing.T) {
	store := sheets.NewMemoryStore()
	seedSheet(t, store,
		rowSpec{name: "A", status: model.StatusDraft},
		rowSpec{name: "B", status: model.StatusDraft},
		rowSpec{name: "C", status: model.StatusSent},
	)
	summary, err := newOrchestrator(store).SheetSummary(context.Background(), sheetID)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/sheet-1", summary.URL)
	assert.Equal(t, 3, summary.Counts["total"])
	assert.Equal(t, 2, summary.Counts["draft"])
	assert.Equal(t, 1, summary.Counts["sent"])
}

func TestSheetLocksSerializeSameSheet(t *testing.T) {
	locks := service.NewSheetLocks()
	var mu sync.Mutex
	active, peak := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(sheetID)
			defer unlock()
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, peak)

	// Different sheets do not block each other.
	unlockA := locks.Lock("a")
	unlockB := locks.Lock("b")
	unlockB()
	unlockA()
}
