// Package cli is the interactive menu and the one-shot commands of the outreach tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/generator"
	"github.com/unclebandit/outreach-backend/internal/leads"
	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/notify"
	"github.com/unclebandit/outreach-backend/internal/repository"
	"github.com/unclebandit/outreach-backend/internal/service"
	"github.com/unclebandit/outreach-backend/internal/validator"
)

const (
	defaultMaxResults = 20
	defaultSocialMax  = 10
	shownInvalid      = 5
)

var menuItems = []string{
	"📋 Start New Campaign",
	"✉️  Generate Emails",
	"📊 Manage Sheet",
	"📤 Send Approved Emails",
	"📥 Track Responses",
	"📱 Scrape Social Media",
	"🔍 Enrich Contact Info",
	"✅ Verify Email Addresses",
	"🚪 Exit",
}

// App runs campaign operations against one sheet and reports them on Out.
type App struct {
	Pipeline *service.Orchestrator
	Configs  repository.ConfigStore
	SheetID  string
	Prompt   *Prompter
	Out      io.Writer
	Logger   *zap.Logger

	// AssumeYes skips the send and enrich confirmations.
	AssumeYes bool
	// Interrupts scopes one operation; the returned context ends on Ctrl-C.
	Interrupts func(ctx context.Context) (context.Context, context.CancelFunc)
}

func NewApp(o *service.Orchestrator, sheetID string, in io.Reader, out io.Writer, log *zap.Logger) *App {
	return &App{
		Pipeline: o,
		Configs:  o.Configs,
		SheetID:  sheetID,
		Prompt:   NewPrompter(in, out),
		Out:      out,
		Logger:   log,
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.Out, args...)
}

func (a *App) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.Interrupts != nil {
		return a.Interrupts(ctx)
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}

// Run shows the menu until the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	log := logger.OrNop(a.Logger)
	log.Info("outreach menu started")

	choices := make([]string, len(menuItems))
	for i := range menuItems {
		choices[i] = fmt.Sprint(i + 1)
	}

	for {
		a.println()
		a.println(banner("🚀 BUSINESS OUTREACH AUTOMATION SYSTEM"))
		for i, item := range menuItems {
			a.printf("%d. %s\n", i+1, item)
		}

		choice, err := a.Prompt.AskValidated("\nEnter your choice (1-9): ", func(s string) error {
			return validator.Choice(s, choices)
		})
		if err != nil {
			return a.quit(err)
		}
		if choice == "9" {
			a.println("\nGoodbye!")
			return nil
		}

		opCtx, cancel := a.scope(ctx)
		err = a.Dispatch(opCtx, choice)
		interrupted := opCtx.Err() != nil && ctx.Err() == nil
		cancel()

		if interrupted {
			log.Info("operation interrupted")
			a.println("\n\n⚠️  Operation interrupted by user")
			exit, cerr := a.Prompt.Confirm("Do you want to exit?")
			if cerr != nil || exit {
				a.println("\nGoodbye!")
				return nil
			}
		} else if errors.Is(err, io.EOF) {
			return a.quit(err)
		}

		if _, err := a.Prompt.Ask("\nPress Enter to continue..."); err != nil {
			return a.quit(err)
		}
	}
}

func (a *App) quit(err error) error {
	if errors.Is(err, io.EOF) {
		a.println("\nGoodbye!")
		return nil
	}
	return err
}

// Dispatch runs one menu option and reports its failure on Out. Only io.EOF is returned.
func (a *App) Dispatch(ctx context.Context, choice string) error {
	ops := map[string]func(context.Context) error{
		"1": a.StartCampaign,
		"2": a.GenerateEmails,
		"3": a.ManageSheet,
		"4": a.SendEmails,
		"5": a.TrackResponses,
		"6": a.ScrapeSocial,
		"7": a.EnrichContacts,
		"8": a.VerifyEmails,
	}
	op, ok := ops[choice]
	if !ok {
		return nil
	}
	err := op(ctx)
	if err == nil || errors.Is(err, io.EOF) {
		return err
	}
	a.report(err)
	return nil
}

func (a *App) report(err error) {
	var (
		cfgErr     *appErrors.ConfigError
		notFound   *appErrors.ErrConfigNotFound
		validation *appErrors.ValidationError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case errors.As(err, &notFound):
		a.println("\n❌ No campaign configuration found.")
		a.println("   Please start a new campaign first (Option 1)")
	case errors.As(err, &cfgErr):
		a.printf("\n❌ %s not set in .env\n", cfgErr.Key)
	case errors.As(err, &validation), service.IsZeroInput(err):
		a.printf("\n❌ %v\n", err)
	default:
		logger.OrNop(a.Logger).Error("operation failed", zap.Error(err))
		a.printf("\n❌ An error occurred: %v\n", err)
		a.println("   Please try again or contact support if the issue persists")
	}
}

func (a *App) loadConfig() (*model.CampaignConfig, error) {
	if a.Configs == nil {
		return nil, appErrors.NewConfigNotFound("campaign configuration")
	}
	return a.Configs.Load()
}

// activeSheet is the sheet every operation works on: the saved campaign's sheet,
// or the configured spreadsheet before any campaign was started.
func (a *App) activeSheet() (string, error) {
	cfg, err := a.loadConfig()
	var notFound *appErrors.ErrConfigNotFound
	switch {
	case err == nil && cfg.SheetID != "":
		return cfg.SheetID, nil
	case err != nil && !errors.As(err, &notFound):
		return "", err
	}
	if a.SheetID == "" {
		return "", appErrors.NewConfigError("GOOGLE_SPREADSHEET_ID")
	}
	return a.SheetID, nil
}

// ====================== 1. Start campaign ======================

func (a *App) StartCampaign(ctx context.Context) error {
	a.println(heading("📋 STARTING NEW CAMPAIGN"))

	businessType, err := a.askBusinessType()
	if err != nil {
		return err
	}
	outreach, err := a.askOutreachType()
	if err != nil {
		return err
	}
	var focus string
	if outreach == model.OutreachSpecificAutomation {
		if focus, err = a.askAutomationFocus(); err != nil {
			return err
		}
	}
	source, err := a.askDataSource()
	if err != nil {
		return err
	}
	params, err := a.askCollectParams(source, businessType)
	if err != nil {
		return err
	}

	report, err := a.Pipeline.StartCampaign(ctx, service.StartRequest{
		BusinessType:    businessType,
		OutreachType:    outreach,
		AutomationFocus: focus,
		DataSource:      source,
		SheetID:         a.SheetID,
		Collect:         params,
	})
	var noLeads *appErrors.NoLeadsError
	if errors.As(err, &noLeads) {
		a.println("\n❌ No businesses collected. Campaign aborted.")
		return nil
	}
	if err != nil {
		return err
	}

	a.println("\n✅ Campaign started successfully!")
	a.printf("   Business Type: %s\n", report.Config.BusinessType)
	a.printf("   Outreach Strategy: %s\n", notify.StrategyName(report.Config.OutreachType))
	if f := report.Config.Focus(); f != "" {
		a.printf("   Automation Focus: %s\n", f)
	}
	a.printf("   Total Businesses: %d\n", report.Publish.Appended)
	return nil
}

func (a *App) askBusinessType() (string, error) {
	a.println("\n🎯 What type of businesses do you want to target?")
	a.println(dimStyle.Render("   e.g. dentists, restaurants, plumbers, hair salons, gyms, law firms"))
	return a.Prompt.AskValidated("\nBusiness type: ", validator.BusinessType)
}

func (a *App) askOutreachType() (model.OutreachType, error) {
	a.println(heading("🔥 Choose Your Outreach Strategy"))
	a.println("\n1️⃣  GENERAL HELP (Discovery Approach)")
	a.println("   📧 Email asks: 'What problems do you face?'")
	a.println("\n2️⃣  SPECIFIC AUTOMATION (Focused Approach)")
	a.println("   📧 Email leads with one concrete benefit")

	choice, err := a.Prompt.AskValidated("\nChoose strategy (1 or 2): ", func(s string) error {
		return validator.Choice(s, []string{"1", "2"})
	})
	if err != nil {
		return "", err
	}
	if choice == "1" {
		a.println("\n✅ Selected: GENERAL HELP approach")
		return model.OutreachGeneralHelp, nil
	}
	a.println("\n✅ Selected: SPECIFIC AUTOMATION approach")
	return model.OutreachSpecificAutomation, nil
}

func (a *App) askAutomationFocus() (string, error) {
	names := generator.AutomationNames()
	a.println("\n🎯 Which automation do you want to focus on?")
	valid := make([]string, 0, len(names)+1)
	for i, name := range names {
		a.printf("  %d. %s\n", i+1, name)
		valid = append(valid, fmt.Sprint(i+1))
	}
	custom := fmt.Sprint(len(names) + 1)
	a.printf("  %s. Custom (enter your own)\n", custom)
	valid = append(valid, custom)

	choice, err := a.Prompt.AskValidated(fmt.Sprintf("\nChoose automation (1-%s): ", custom), func(s string) error {
		return validator.Choice(s, valid)
	})
	if err != nil {
		return "", err
	}
	if choice != custom {
		var i int
		fmt.Sscan(choice, &i)
		return names[i-1], nil
	}
	return a.Prompt.AskValidated("Enter your custom automation: ", func(s string) error {
		if s == "" {
			return errors.New("automation cannot be empty")
		}
		return nil
	})
}

func (a *App) askDataSource() (model.DataSource, error) {
	a.println("\n📊 How do you want to collect businesses?")
	a.println("\n1. Google Maps (search by location and type)")
	a.println("2. Upload JSON file (manual list)")
	a.println("3. Enter manually (for small lists)")

	choice, err := a.Prompt.AskValidated("\nChoose option (1-3): ", func(s string) error {
		return validator.Choice(s, []string{"1", "2", "3"})
	})
	if err != nil {
		return "", err
	}
	return map[string]model.DataSource{
		"1": model.DataSourceMaps,
		"2": model.DataSourceJSONFile,
		"3": model.DataSourceManual,
	}[choice], nil
}

func (a *App) askCollectParams(source model.DataSource, businessType string) (service.CollectParams, error) {
	var p service.CollectParams
	var err error
	switch source {
	case model.DataSourceMaps:
		a.println("\n🗺️  Google Maps search")
		if p.Location, err = a.Prompt.AskValidated("Location (e.g. 'Austin, TX'): ", validator.Location); err != nil {
			return p, err
		}
		p.MaxResults, err = a.Prompt.AskInt("How many businesses to collect?", defaultMaxResults, func(s string) (int, error) {
			return validator.IntRange(s, 1, 100)
		})
		if err != nil {
			return p, err
		}
		a.printf("\n🔍 Searching %s in %s...\n", businessType, p.Location)
	case model.DataSourceJSONFile:
		a.println("\n📄 Load from JSON")
		p.JSONPath, err = a.Prompt.AskValidated("Path to JSON file: ", func(s string) error {
			return validator.FilePath(s, true)
		})
	case model.DataSourceManual:
		p.Leads, err = a.enterManually()
	}
	return p, err
}

func (a *App) enterManually() ([]model.Lead, error) {
	a.println("\n✏️  Enter businesses manually")
	a.println("(Enter blank name to finish)")

	var out []model.Lead
	for {
		a.printf("\n--- Business #%d ---\n", len(out)+1)
		name, err := a.Prompt.Ask("Business name: ")
		if err != nil {
			return nil, err
		}
		if name == "" {
			return out, nil
		}
		email, err := a.Prompt.AskValidated("Email (optional, press Enter to skip): ", func(s string) error {
			if s == "" {
				return nil
			}
			return validator.Email(s)
		})
		if err != nil {
			return nil, err
		}
		lead := model.Lead{Name: name, Email: email}
		if lead.Phone, err = a.Prompt.Ask("Phone (optional): "); err != nil {
			return nil, err
		}
		if lead.Website, err = a.Prompt.Ask("Website (optional): "); err != nil {
			return nil, err
		}
		if lead.Location, err = a.Prompt.Ask("Location (optional): "); err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
}

// ====================== 2. Generate ======================

func (a *App) GenerateEmails(ctx context.Context) error {
	a.println(heading("✉️  GENERATING EMAILS"))
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.printf("\n📋 Campaign Strategy: %s\n", notify.StrategyName(cfg.OutreachType))
	if f := cfg.Focus(); f != "" {
		a.printf("   Focus: %s\n", f)
	}

	report, err := a.Pipeline.GenerateDrafts(ctx, *cfg)
	var noRows *appErrors.NoRowsError
	if errors.As(err, &noRows) {
		a.println("\n❌ No draft businesses found in the sheet")
		return nil
	}
	if err != nil {
		return err
	}

	for i, d := range report.Drafts {
		marker := "✅"
		if d.Fallback {
			marker = "⚠️ "
		}
		a.printf("[%d/%d] %s %s: %s\n", i+1, len(report.Drafts), marker, d.Business, d.Subject)
	}
	if report.Failed > 0 {
		a.printf("\n⚠️  %d drafts could not be written to the sheet\n", report.Failed)
	}
	a.printf("\n✅ %d emails generated!\n", len(report.Drafts))
	a.println("   Check your sheet to review them")
	return nil
}

// ====================== 3. Sheet ======================

func (a *App) ManageSheet(ctx context.Context) error {
	a.println(heading("📊 Sheet Management"))
	sheetID, err := a.activeSheet()
	if err != nil {
		return err
	}
	summary, err := a.Pipeline.SheetSummary(ctx, sheetID)
	if err != nil {
		return err
	}
	a.printf("\n🔗 %s\n\n", summary.URL)
	for _, st := range model.AllStatuses {
		a.printf("   %-11s %d\n", st, summary.Counts[strings.ToLower(string(st))])
	}
	if n := summary.Counts["unknown"]; n > 0 {
		a.printf("   %-11s %d\n", "Unknown", n)
	}
	a.printf("   %-11s %d\n", "Total", summary.Counts["total"])
	return nil
}

// ====================== 4. Send ======================

func (a *App) SendEmails(ctx context.Context) error {
	a.println(heading("📤 SENDING APPROVED EMAILS"))
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	var promptErr error
	confirm := func(rows []model.BusinessRow) bool {
		a.printf("\n📧 %d approved emails ready to send:\n", len(rows))
		for _, r := range rows {
			a.printf("   • %s <%s>: %s\n", r.Name, r.Email, r.GeneratedSubject)
		}
		if a.AssumeYes {
			return true
		}
		ok, err := a.Prompt.Confirm(fmt.Sprintf("\nSend %d emails?", len(rows)))
		promptErr = err
		return ok
	}

	report, err := a.Pipeline.SendApproved(ctx, *cfg, confirm)
	if promptErr != nil {
		return promptErr
	}
	var noRows *appErrors.NoRowsError
	if errors.As(err, &noRows) {
		a.println("\n❌ No approved emails with a subject and body found")
		return nil
	}
	if err != nil {
		return err
	}
	if report.Cancelled {
		a.println("❌ Sending cancelled")
		return nil
	}

	for _, f := range report.Failures {
		a.printf("   ❌ Row %d %s: %s\n", f.Row, f.Email, f.Kind)
	}
	a.printf("\n✅ Sent %d emails successfully!\n", report.Sent)
	if report.Failed > 0 {
		a.printf("   ❌ %d failed\n", report.Failed)
	}
	return nil
}

// ====================== 5. Track ======================

func (a *App) TrackResponses(ctx context.Context) error {
	a.println(heading("📥 TRACKING RESPONSES"))
	sheetID, err := a.activeSheet()
	if err != nil {
		return err
	}
	report, err := a.Pipeline.TrackResponses(ctx, sheetID)
	var noRows *appErrors.NoRowsError
	if errors.As(err, &noRows) {
		a.println("\n❌ No sent emails to track")
		return nil
	}
	if err != nil {
		return err
	}

	for _, r := range report.Replies {
		a.printf("\n🎉 New reply from %s (%s)\n", r.Business, r.From)
		a.println(dimStyle.Render("   " + r.Preview))
	}
	a.printf("\n📊 Checked %d sent emails: %d new replies", report.Checked, report.NewReplies)
	if report.Failed > 0 {
		a.printf(", %d lookups failed", report.Failed)
	}
	a.println()
	return nil
}

// ====================== 6. Social ======================

func (a *App) ScrapeSocial(ctx context.Context) error {
	a.println(heading("📱 SOCIAL MEDIA SCRAPING"))
	a.println("\nChoose platform:")
	a.println("1. Instagram")
	a.println("2. Facebook")
	a.println("3. TikTok")
	a.println("4. All platforms")

	choice, err := a.Prompt.AskValidated("\nEnter choice (1-4): ", func(s string) error {
		return validator.Choice(s, []string{"1", "2", "3", "4"})
	})
	if err != nil {
		return err
	}
	platforms := map[string][]leads.Platform{
		"1": {leads.Instagram},
		"2": {leads.Facebook},
		"3": {leads.TikTok},
		"4": {leads.Instagram, leads.Facebook, leads.TikTok},
	}[choice]

	businessType, err := a.askBusinessType()
	if err != nil {
		return err
	}
	location, err := a.Prompt.AskValidated("Location (e.g. 'san francisco'): ", validator.Location)
	if err != nil {
		return err
	}
	perPlatform, err := a.Prompt.AskInt("How many results?", defaultSocialMax, func(s string) (int, error) {
		return validator.IntRange(s, 1, 50)
	})
	if err != nil {
		return err
	}
	return a.collectSocial(ctx, platforms, businessType, location, perPlatform)
}

func (a *App) collectSocial(ctx context.Context, platforms []leads.Platform, businessType, location string, perPlatform int) error {
	a.printf("\n🔍 Searching for '%s %s'...\n", businessType, location)
	found, err := a.Pipeline.CollectSocial(ctx, platforms, businessType, location, perPlatform)
	var noLeads *appErrors.NoLeadsError
	if errors.As(err, &noLeads) {
		a.println("❌ No businesses found. Try a different search term.")
		return nil
	}
	if err != nil {
		return err
	}
	a.printf("\n✅ Found %d businesses\n", len(found))

	sheetID, err := a.activeSheet()
	if err != nil {
		return err
	}
	a.println("\n📤 Uploading to the sheet...")
	published, err := a.Pipeline.Publish(ctx, sheetID, found)
	if err != nil {
		return err
	}
	a.printf("✅ %d businesses uploaded successfully!\n", published.Appended)
	return nil
}

// ====================== 7. Enrich ======================

func (a *App) EnrichContacts(ctx context.Context) error {
	a.println(heading("🔍 CONTACT ENRICHMENT"))
	ok := a.AssumeYes
	if !ok {
		var err error
		if ok, err = a.Prompt.Confirm("\nCrawl websites of draft businesses without an email?"); err != nil {
			return err
		}
	}
	if !ok {
		a.println("❌ Enrichment cancelled")
		return nil
	}

	sheetID, err := a.activeSheet()
	if err != nil {
		return err
	}
	a.println("\n🔍 Enriching contact information...")
	report, err := a.Pipeline.EnrichDrafts(ctx, sheetID)
	var noRows *appErrors.NoRowsError
	if errors.As(err, &noRows) {
		a.println("\n❌ No draft businesses found in the sheet")
		return nil
	}
	if err != nil {
		return err
	}
	if report.Attempted == 0 {
		a.println("\n✅ All draft businesses already have contact info!")
		return nil
	}
	a.println("\n✅ Enrichment complete!")
	a.printf("   📧 Found contact info for %d businesses\n", report.Enriched)
	a.printf("   ❌ Could not find info for %d businesses\n", report.Attempted-report.Enriched)
	if len(report.Updated) > 0 {
		a.printf("   📤 Updated rows: %s\n", joinInts(report.Updated))
	}
	return nil
}

// ====================== 8. Verify ======================

func (a *App) VerifyEmails(ctx context.Context) error {
	a.println(heading("✅ EMAIL VERIFICATION"))
	a.println("\n🔍 Verification options:")
	a.println("1. Quick (syntax only) - Fast, basic validation")
	a.println("2. Full (syntax + DNS) - Slower, checks if domain accepts email")

	choice, err := a.Prompt.AskValidated("\nChoose verification level (1-2): ", func(s string) error {
		return validator.Choice(s, []string{"1", "2"})
	})
	if err != nil {
		return err
	}
	return a.verify(ctx, choice == "2")
}

func (a *App) verify(ctx context.Context, checkDNS bool) error {
	sheetID, err := a.activeSheet()
	if err != nil {
		return err
	}
	if checkDNS {
		a.println("   This may take 1-2 minutes with DNS checking...")
	}
	report, err := a.Pipeline.VerifyDrafts(ctx, sheetID, checkDNS)
	var noRows *appErrors.NoRowsError
	if errors.As(err, &noRows) {
		a.println("\n❌ No businesses have email addresses to verify")
		a.println("   Run 'Enrich Contact Info' first to find missing emails")
		return nil
	}
	if err != nil {
		return err
	}

	rate := report.SuccessRate()
	a.println("\n✅ Verification complete!")
	a.printf("   ✅ Valid emails: %d (%.1f%%)\n", len(report.Valid), rate)
	a.printf("   ❌ Invalid emails: %d (%.1f%%)\n", len(report.Invalid), 100-rate)

	if len(report.Invalid) > 0 {
		a.println("\n❌ Invalid emails found:")
		for i, r := range report.Invalid {
			if i == shownInvalid {
				a.printf("   ... and %d more\n", len(report.Invalid)-shownInvalid)
				break
			}
			email := r.Email
			if email == "" {
				email = "(empty)"
			}
			a.printf("   • %s (%s)\n", email, r.Reason)
		}
	}
	if report.NoteFailures > 0 {
		a.printf("\n⚠️  %d results could not be written to the sheet\n", report.NoteFailures)
	} else {
		a.println("\n✅ Verification results saved to the sheet")
	}
	return nil
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
