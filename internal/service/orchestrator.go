package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/enrich"
	"github.com/unclebandit/outreach-backend/internal/generator"
	"github.com/unclebandit/outreach-backend/internal/leads"
	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/mailer"
	"github.com/unclebandit/outreach-backend/internal/metrics"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/notify"
	"github.com/unclebandit/outreach-backend/internal/repository"
	"github.com/unclebandit/outreach-backend/internal/sheets"
	"github.com/unclebandit/outreach-backend/internal/verify"
	"github.com/unclebandit/outreach-backend/internal/website"
)

const (
	DefaultSendDelay = 5 * time.Second
	replyChars       = 500
	verifyNoteLabel  = "Email check"
)

// DraftWriter produces the subject and body of one email. It never fails.
type DraftWriter interface {
	Generate(ctx context.Context, req generator.Request) generator.Email
}

// SocialSearcher collects leads across social platforms, skipping platforms that fail.
type SocialSearcher interface {
	SearchAll(ctx context.Context, platforms []leads.Platform, businessType, location string, maxPerPlatform int) []model.Lead
}

// Orchestrator drives a campaign through collection, drafting, sending and reply tracking.
// Every sheet-level operation holds the sheet's lock for its whole run.
type Orchestrator struct {
	Store     sheets.ValueStore
	Configs   repository.ConfigStore
	Maps      leads.MapsSearcher
	Social    SocialSearcher
	Writer    DraftWriter
	Website   website.ContextFetcher
	Enricher  *enrich.Enricher
	Verifier  *verify.Verifier
	Dialer    mailer.Dialer
	Mailbox   mailer.Mailbox
	Notifier  notify.Notifier
	Locks     *SheetLocks
	SendDelay time.Duration
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

func (o *Orchestrator) log() *zap.Logger {
	return logger.OrNop(o.Logger)
}

func (o *Orchestrator) sheet(id string) *sheets.BusinessSheet {
	s := sheets.NewBusinessSheet(o.Store, id)
	if o.Now != nil {
		s.Now = o.Now
	}
	return s
}

func (o *Orchestrator) lock(sheetID string) func() {
	if o.Locks == nil {
		return func() {}
	}
	return o.Locks.Lock(sheetID)
}

func (o *Orchestrator) notify(ctx context.Context, msg notify.Message) {
	if o.Notifier == nil {
		return
	}
	if err := o.Notifier.Notify(ctx, msg); err != nil {
		o.log().Warn("notification failed", zap.String("subject", msg.Subject), zap.Error(err))
	}
}

// ====================== Collection ======================

type CollectParams struct {
	Location   string
	MaxResults int
	JSONPath   string
	Leads      []model.Lead
}

// Collect gathers leads from one source. Fewer results than requested are fine; none at all is a NoLeadsError.
func (o *Orchestrator) Collect(ctx context.Context, source model.DataSource, businessType string, p CollectParams) ([]model.Lead, error) {
	var (
		found []model.Lead
		err   error
	)
	switch source {
	case model.DataSourceMaps:
		if o.Maps == nil {
			return nil, appErrors.NewConfigError("APIFY_API_TOKEN")
		}
		found, err = o.Maps.Search(ctx, businessType, p.Location, p.MaxResults)
	case model.DataSourceJSONFile:
		found, err = leads.LoadJSONFile(p.JSONPath)
	case model.DataSourceManual:
		found = p.Leads
	default:
		return nil, appErrors.NewValidation("data_source", fmt.Sprintf("unknown source %q", source))
	}
	if err != nil {
		return nil, fmt.Errorf("collect from %s: %w", source, err)
	}

	valid := o.keepNamed(found)
	if len(valid) == 0 {
		return nil, appErrors.NewNoLeads(string(source))
	}
	o.Metrics.LeadsCollected(string(source), len(valid))
	return valid, nil
}

// CollectSocial searches the given platforms for "<type> <location>".
func (o *Orchestrator) CollectSocial(ctx context.Context, platforms []leads.Platform, businessType, location string, maxPerPlatform int) ([]model.Lead, error) {
	if o.Social == nil {
		return nil, appErrors.NewConfigError("APIFY_API_TOKEN")
	}
	valid := o.keepNamed(o.Social.SearchAll(ctx, platforms, businessType, location, maxPerPlatform))
	if len(valid) == 0 {
		return nil, appErrors.NewNoLeads("social media")
	}
	o.Metrics.LeadsCollected("social", len(valid))
	return valid, nil
}

func (o *Orchestrator) keepNamed(in []model.Lead) []model.Lead {
	out := make([]model.Lead, 0, len(in))
	for _, l := range in {
		if err := l.Validate(); err != nil {
			o.log().Warn("skipping lead", zap.String("website", l.Website), zap.Error(err))
			continue
		}
		out = append(out, l)
	}
	return out
}

type PublishReport struct {
	HeaderCreated bool   `json:"header_created"`
	Appended      int    `json:"appended"`
	TotalsError   string `json:"totals_error,omitempty"`
}

// Publish appends leads as Draft rows, writing the header first on an empty sheet.
// Publishing the same leads twice appends them twice.
func (o *Orchestrator) Publish(ctx context.Context, sheetID string, newLeads []model.Lead) (*PublishReport, error) {
	defer o.lock(sheetID)()

	sheet := o.sheet(sheetID)
	created, err := sheet.EnsureHeader(ctx)
	if err != nil {
		return nil, err
	}
	n, err := sheet.AppendLeads(ctx, newLeads)
	if err != nil {
		return nil, err
	}
	o.log().Info("leads published", zap.String("sheet", sheetID), zap.Int("rows", n), zap.Bool("header_created", created))
	return &PublishReport{HeaderCreated: created, Appended: n}, nil
}

// StartRequest is everything a new campaign needs.
type StartRequest struct {
	BusinessType    string
	OutreachType    model.OutreachType
	AutomationFocus string
	DataSource      model.DataSource
	SheetID         string
	Collect         CollectParams
}

type CollectReport struct {
	Config  *model.CampaignConfig `json:"config"`
	Leads   []model.Lead          `json:"leads"`
	Publish *PublishReport        `json:"publish"`
}

// StartCampaign validates the configuration, collects and publishes leads, then saves the configuration.
func (o *Orchestrator) StartCampaign(ctx context.Context, req StartRequest) (*CollectReport, error) {
	cfg, err := model.NewCampaignConfig(req.BusinessType, req.OutreachType, req.AutomationFocus, req.DataSource, req.SheetID)
	if err != nil {
		return nil, err
	}
	if cfg.SheetID == "" {
		return nil, appErrors.NewConfigError("GOOGLE_SPREADSHEET_ID")
	}

	found, err := o.Collect(ctx, cfg.DataSource, cfg.BusinessType, req.Collect)
	if err != nil {
		return nil, err
	}
	published, err := o.Publish(ctx, cfg.SheetID, found)
	if err != nil {
		return nil, err
	}

	cfg.TotalBusinesses = published.Appended
	if o.Configs != nil {
		if err := o.Configs.Save(cfg); err != nil {
			return nil, fmt.Errorf("save campaign config: %w", err)
		}
	}
	return &CollectReport{Config: cfg, Leads: found, Publish: published}, nil
}

// ====================== Drafts ======================

type Draft struct {
	Row      int    `json:"row"`
	Business string `json:"business"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Fallback bool   `json:"fallback"`
}

type GenerateReport struct {
	Drafts []Draft `json:"drafts"`
	Failed int     `json:"failed"`
}

// GenerateDrafts writes a subject and body into every Draft row. A row whose write fails is skipped.
func (o *Orchestrator) GenerateDrafts(ctx context.Context, cfg model.CampaignConfig) (*GenerateReport, error) {
	defer o.lock(cfg.SheetID)()

	if o.Writer == nil {
		return nil, appErrors.NewConfigError("GEMINI_API_KEY")
	}
	sheet := o.sheet(cfg.SheetID)
	rows, err := sheet.RowsByStatus(ctx, model.StatusDraft)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, appErrors.NewNoRows(string(model.StatusDraft))
	}

	report := &GenerateReport{}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		email := o.Writer.Generate(ctx, generator.Request{
			Strategy:        cfg.OutreachType,
			BusinessName:    row.Name,
			BusinessType:    cfg.BusinessType,
			WebsiteContext:  o.websiteContext(ctx, row),
			AutomationFocus: cfg.Focus(),
		})

		if err := sheet.WriteDraft(ctx, row.RowNumber, email.Subject, email.Body); err != nil {
			o.log().Warn("could not write draft", zap.Int("row", row.RowNumber), zap.String("business", row.Name), zap.Error(err))
			report.Failed++
			continue
		}
		o.Metrics.DraftGenerated(email.Fallback)
		report.Drafts = append(report.Drafts, Draft{
			Row:      row.RowNumber,
			Business: row.Name,
			Subject:  email.Subject,
			Body:     email.Body,
			Fallback: email.Fallback,
		})
	}
	return report, nil
}

func (o *Orchestrator) websiteContext(ctx context.Context, row model.BusinessRow) string {
	if o.Website == nil || row.Website == "" {
		return ""
	}
	text, err := o.Website.Fetch(ctx, row.Website)
	if err != nil {
		o.log().Warn("could not scrape website", zap.Int("row", row.RowNumber), zap.String("website", row.Website), zap.Error(err))
		return ""
	}
	return text
}

// ====================== Sending ======================

type SendFailure struct {
	Row   int                `json:"row"`
	Email string             `json:"email"`
	Kind  mailer.FailureKind `json:"kind"`
	Error string             `json:"error"`
}

type SendReport struct {
	Sent      int           `json:"sent"`
	Failed    int           `json:"failed"`
	Cancelled bool          `json:"cancelled"`
	Failures  []SendFailure `json:"failures,omitempty"`
}

// ConfirmFunc is asked once before anything is sent. Returning false cancels the run.
type ConfirmFunc func(rows []model.BusinessRow) bool

// ReadyRows lists the Approved rows that have an email, subject and body.
func (o *Orchestrator) ReadyRows(ctx context.Context, sheetID string) ([]model.BusinessRow, error) {
	rows, err := o.sheet(sheetID).RowsByStatus(ctx, model.StatusApproved)
	if err != nil {
		return nil, err
	}
	var ready []model.BusinessRow
	for _, r := range rows {
		if r.ReadyToSend() {
			ready = append(ready, r)
		}
	}
	return ready, nil
}

// SendApproved mails every ready Approved row over one session, spacing sends by SendDelay.
// A failed send leaves the row Approved with a failure note so the next run retries it.
func (o *Orchestrator) SendApproved(ctx context.Context, cfg model.CampaignConfig, confirm ConfirmFunc) (*SendReport, error) {
	defer o.lock(cfg.SheetID)()

	if o.Dialer == nil {
		return nil, appErrors.NewConfigError("GMAIL_ADDRESS")
	}
	ready, err := o.ReadyRows(ctx, cfg.SheetID)
	if err != nil {
		return nil, err
	}
	if len(ready) == 0 {
		return nil, appErrors.NewNoRows(string(model.StatusApproved))
	}

	report := &SendReport{}
	if confirm == nil || !confirm(ready) {
		report.Cancelled = true
		return report, nil
	}

	session, err := o.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			o.log().Warn("closing smtp session", zap.Error(err))
		}
	}()

	sheet := o.sheet(cfg.SheetID)
	limiter := o.sendLimiter()
	for _, row := range ready {
		if err := limiter.Wait(ctx); err != nil {
			return report, err
		}
		o.sendRow(ctx, sheet, session, row, report)
	}

	o.log().Info("send run finished", zap.Int("sent", report.Sent), zap.Int("failed", report.Failed))
	if report.Sent > 0 {
		o.notify(ctx, notify.CampaignCompleteMessage(report.Sent, cfg.OutreachType))
	}
	return report, nil
}

// sendLimiter holds one token, so the first send goes out at once and each later one waits SendDelay.
func (o *Orchestrator) sendLimiter() *rate.Limiter {
	delay := o.SendDelay
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func (o *Orchestrator) sendRow(ctx context.Context, sheet *sheets.BusinessSheet, session mailer.Session, row model.BusinessRow, report *SendReport) {
	log := o.log().With(zap.Int("row", row.RowNumber), zap.String("email", row.Email))

	if !model.CanTransition(row.Status, model.StatusSent) {
		err := appErrors.NewInvalidTransition(row.RowNumber, string(row.Status), string(model.StatusSent))
		log.Warn("refusing send", zap.Error(err))
		report.Failed++
		report.Failures = append(report.Failures, SendFailure{Row: row.RowNumber, Email: row.Email, Kind: mailer.FailureTransport, Error: err.Error()})
		return
	}

	err := session.Send(ctx, mailer.OutgoingEmail{To: row.Email, Subject: row.GeneratedSubject, Body: row.GeneratedBody})
	if err != nil {
		kind := mailer.Classify(err)
		log.Warn("send failed", zap.String("kind", string(kind)), zap.Error(err))
		report.Failed++
		report.Failures = append(report.Failures, SendFailure{Row: row.RowNumber, Email: row.Email, Kind: kind, Error: err.Error()})
		o.Metrics.EmailFailed(string(kind))
		if err := sheet.MarkSendFailed(ctx, row.RowNumber); err != nil {
			log.Warn("could not record send failure", zap.Error(err))
		}
		return
	}

	report.Sent++
	o.Metrics.EmailSent()
	if err := sheet.MarkSent(ctx, row.RowNumber); err != nil {
		log.Error("email sent but status not updated", zap.Error(err))
	}
}

// ====================== Reply tracking ======================

type Reply struct {
	Row      int    `json:"row"`
	Business string `json:"business"`
	From     string `json:"from"`
	Preview  string `json:"preview"`
}

type TrackReport struct {
	Checked    int     `json:"checked"`
	NewReplies int     `json:"new_replies"`
	Failed     int     `json:"failed"`
	Replies    []Reply `json:"replies,omitempty"`
}

// TrackResponses looks for the newest message from each Sent row's address. A found reply is stored,
// the row moves to Replied and one notification fires. Replied rows are never scanned again.
func (o *Orchestrator) TrackResponses(ctx context.Context, sheetID string) (*TrackReport, error) {
	defer o.lock(sheetID)()

	if o.Mailbox == nil {
		return nil, appErrors.NewConfigError("GMAIL_CREDENTIALS_FILE")
	}
	sheet := o.sheet(sheetID)
	rows, err := sheet.RowsByStatus(ctx, model.StatusSent)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, appErrors.NewNoRows(string(model.StatusSent))
	}

	report := &TrackReport{}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if row.Email == "" {
			continue
		}
		report.Checked++
		log := o.log().With(zap.Int("row", row.RowNumber), zap.String("email", row.Email))

		msg, err := o.Mailbox.LatestFrom(ctx, row.Email)
		if err != nil {
			log.Warn("could not check reply", zap.Error(err))
			report.Failed++
			continue
		}
		if msg == nil {
			continue
		}

		if !model.CanTransition(row.Status, model.StatusReplied) {
			log.Warn("refusing reply update", zap.Error(appErrors.NewInvalidTransition(row.RowNumber, string(row.Status), string(model.StatusReplied))))
			report.Failed++
			continue
		}

		details := truncate(msg.Body, replyChars)
		if err := sheet.MarkReplied(ctx, row.RowNumber, details); err != nil {
			log.Warn("could not update reply status", zap.Error(err))
			report.Failed++
			continue
		}

		report.NewReplies++
		report.Replies = append(report.Replies, Reply{Row: row.RowNumber, Business: row.Name, From: row.Email, Preview: details})
		o.Metrics.ReplyDetected()
		o.notify(ctx, notify.ReplyMessage(row.Name, row.Email, details))
	}
	return report, nil
}

// ====================== Enrichment & verification ======================

type EnrichReport struct {
	enrich.Report
	Updated []int `json:"updated_rows,omitempty"`
}

// EnrichDrafts crawls the websites of Draft rows without an email and writes found contacts back.
func (o *Orchestrator) EnrichDrafts(ctx context.Context, sheetID string) (*EnrichReport, error) {
	defer o.lock(sheetID)()

	if o.Enricher == nil {
		return nil, appErrors.NewConfigError("APIFY_API_TOKEN")
	}
	sheet := o.sheet(sheetID)
	rows, err := sheet.RowsByStatus(ctx, model.StatusDraft)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, appErrors.NewNoRows(string(model.StatusDraft))
	}

	in := make([]model.Lead, len(rows))
	for i, r := range rows {
		in[i] = r.Lead()
	}
	out, summary := o.Enricher.Enrich(ctx, in)

	report := &EnrichReport{Report: summary}
	for i, row := range rows {
		email, phone := "", ""
		if row.Email == "" {
			email = out[i].Email
		}
		if row.Phone == "" {
			phone = out[i].Phone
		}
		if email == "" && phone == "" {
			continue
		}
		if err := sheet.UpdateContacts(ctx, row.RowNumber, email, phone); err != nil {
			o.log().Warn("could not write contacts", zap.Int("row", row.RowNumber), zap.Error(err))
			continue
		}
		report.Updated = append(report.Updated, row.RowNumber)
	}
	return report, nil
}

type VerifyReport struct {
	verify.Summary
	NoteFailures int `json:"note_failures"`
}

// VerifyDrafts checks the email of every Draft or Approved row and records the outcome in its notes.
func (o *Orchestrator) VerifyDrafts(ctx context.Context, sheetID string, checkDNS bool) (*VerifyReport, error) {
	defer o.lock(sheetID)()

	verifier := o.Verifier
	if verifier == nil {
		verifier = verify.NewVerifier()
	}
	sheet := o.sheet(sheetID)
	all, err := sheet.Rows(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.BusinessRow
	var emails []string
	for _, r := range all {
		if (r.Status == model.StatusDraft || r.Status == model.StatusApproved) && r.Email != "" {
			rows = append(rows, r)
			emails = append(emails, r.Email)
		}
	}
	if len(rows) == 0 {
		return nil, appErrors.NewNoRows("draft or approved with email")
	}

	report := &VerifyReport{Summary: verifier.VerifyAll(ctx, emails, checkDNS)}
	for i, res := range report.Results {
		note := "✅ valid"
		if !res.Valid {
			note = "❌ " + res.Reason
		}
		if err := sheet.AnnotateNotes(ctx, rows[i], verifyNoteLabel, note); err != nil {
			o.log().Warn("could not write verification note", zap.Int("row", rows[i].RowNumber), zap.Error(err))
			report.NoteFailures++
		}
	}
	return report, nil
}

// ====================== Sheet overview ======================

type SheetSummary struct {
	URL    string         `json:"url"`
	Counts map[string]int `json:"counts"`
}

func (o *Orchestrator) SheetSummary(ctx context.Context, sheetID string) (*SheetSummary, error) {
	sheet := o.sheet(sheetID)
	counts, err := sheet.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	return &SheetSummary{URL: sheet.URL(), Counts: counts}, nil
}

// IsZeroInput reports errors that mean "nothing to do" rather than a failure.
func IsZeroInput(err error) bool {
	var noLeads *appErrors.NoLeadsError
	var noRows *appErrors.NoRowsError
	return errors.As(err, &noLeads) || errors.As(err, &noRows)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
