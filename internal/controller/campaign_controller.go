// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type createCampaignRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	BusinessType    string `json:"business_type" validate:"required,max=100"`
	OutreachType    string `json:"outreach_type" validate:"required,oneof=general_help specific_automation"`
	AutomationFocus string `json:"automation_focus" validate:"max=200"`
	DataSource      string `json:"data_source" validate:"required,oneof=maps google_maps json_file manual"`
	SheetID         string `json:"sheet_id" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused completed"`
}

type addLeadsRequest struct {
	Leads []model.Lead `json:"leads" validate:"required,min=1,max=500"`
}

type jobRequest struct {
	Location   string `json:"location" validate:"max=200"`
	MaxResults int    `json:"max_results" validate:"omitempty,min=1,max=100"`
	CheckDNS   bool   `json:"check_dns"`
	Confirm    bool   `json:"confirm"`
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst any, allowEmpty bool) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return appErrors.NewValidation("", "invalid body")
		}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return appErrors.NewValidation(fe.Field(), describe(fe))
		}
		return appErrors.NewValidation("", err.Error())
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	}
	return "failed " + fe.Tag() + " check"
}

func campaignID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, appErrors.NewValidation("id", "invalid campaign id")
	}
	return id, nil
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body createCampaignRequest
	if err := decode(r, &body, false); err != nil {
		WriteError(w, err)
		return
	}

	source, err := model.ParseDataSource(body.DataSource)
	if err != nil {
		WriteError(w, err)
		return
	}
	cfg, err := model.NewCampaignConfig(body.BusinessType, model.OutreachType(body.OutreachType), body.AutomationFocus, source, body.SheetID)
	if err != nil {
		WriteError(w, err)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(body.Name, *cfg)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	if status != "" && !model.ValidCampaignStatus(status) {
		WriteError(w, appErrors.NewValidation("status", "must be active, paused or completed"))
		return
	}

	campaigns, pagination, err := c.CampaignService.ListCampaigns(page, pageSize, status)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body updateStatusRequest
	if err := decode(r, &body, false); err != nil {
		WriteError(w, err)
		return
	}
	if err := c.CampaignService.UpdateStatus(id, body.Status); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"id": id, "status": body.Status})
}

// AddLeads publishes posted leads straight to the campaign sheet.
func (c *CampaignController) AddLeads(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body addLeadsRequest
	if err := decode(r, &body, false); err != nil {
		WriteError(w, err)
		return
	}
	report, err := c.CampaignService.AddLeads(r.Context(), id, body.Leads)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// EnqueueJob queues one campaign operation and answers 202 with the job.
func (c *CampaignController) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	kind := model.JobKind(chi.URLParam(r, "kind"))
	if !model.ValidJobKind(kind) {
		http.NotFound(w, r)
		return
	}

	var body jobRequest
	if err := decode(r, &body, true); err != nil {
		WriteError(w, err)
		return
	}

	job, err := c.CampaignService.Enqueue(id, kind, model.JobParams{
		Location:   body.Location,
		MaxResults: body.MaxResults,
		CheckDNS:   body.CheckDNS,
		Confirmed:  body.Confirm,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	w.Header().Set("Location", "/jobs/"+job.ID)
	WriteJSON(w, http.StatusAccepted, job)
}

func (c *CampaignController) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := c.CampaignService.GetJob(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}
