// cmd/seeder/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-backend/internal/app"
	"github.com/unclebandit/outreach-backend/internal/config"
	"github.com/unclebandit/outreach-backend/internal/db"
	"github.com/unclebandit/outreach-backend/internal/leads"
	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/repository"
	"github.com/unclebandit/outreach-backend/internal/service"
)

// seedCampaign is the "campaign" object of a seed file; its "businesses" list holds the leads.
type seedCampaign struct {
	Name            string `json:"name"`
	BusinessType    string `json:"business_type"`
	OutreachType    string `json:"outreach_type"`
	AutomationFocus string `json:"automation_focus"`
	SheetID         string `json:"sheet_id"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	seedFiles := os.Args[1:]
	if len(seedFiles) == 0 {
		seedFiles = []string{"seed/leads.json"}
	}

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	logg, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logg.Sync()

	if err := cfg.RequireDatabase(); err != nil {
		logg.Fatal("database not configured", zap.Error(err))
	}
	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logg.Fatal("failed to connect to DB", zap.Error(err))
	}
	defer conn.Close()
	if _, err := db.Migrate(conn); err != nil {
		logg.Fatal("migrations failed", zap.Error(err))
	}

	ctx := context.Background()
	deps, err := app.Build(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("failed to wire collaborators", zap.Error(err))
	}
	defer deps.Close()

	svc := &service.CampaignService{
		CampaignRepo: &repository.CampaignRepository{DB: conn},
		Orchestrator: deps.Orchestrator,
		Logger:       logg,
	}

	for _, file := range seedFiles {
		if err := seed(ctx, svc, file); err != nil {
			logg.Fatal("seeding failed", zap.String("file", file), zap.Error(err))
		}
		fmt.Printf("Seeded: %s\n", file)
	}

	fmt.Println("Database seeding completed successfully!")
}

func seed(ctx context.Context, svc *service.CampaignService, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	var doc struct {
		Campaign seedCampaign `json:"campaign"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid seed file: %w", err)
	}
	found, err := leads.DecodeJSON(data)
	if err != nil {
		return err
	}

	c := doc.Campaign
	cc, err := model.NewCampaignConfig(c.BusinessType, model.OutreachType(c.OutreachType), c.AutomationFocus, model.DataSourceJSONFile, c.SheetID)
	if err != nil {
		return err
	}
	campaign, err := svc.CreateCampaign(c.Name, *cc)
	if err != nil {
		return err
	}
	report, err := svc.AddLeads(ctx, campaign.ID, found)
	if err != nil {
		return err
	}
	fmt.Printf("Campaign %d: %d rows added to %s\n", campaign.ID, report.Appended, c.SheetID)
	return nil
}
