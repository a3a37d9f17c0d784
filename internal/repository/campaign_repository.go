package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error)
	GetByID(id int) (*model.Campaign, error)
	UpdateStatus(campaignID int, status string) error
	UpdateTotals(campaignID, added int) error
	Update(c *model.Campaign) error
	Create(c *model.Campaign) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, status, business_type, outreach_type, automation_focus, data_source, sheet_id, total_businesses, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(s rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	err := s.Scan(
		&c.ID, &c.Name, &c.Status, &c.BusinessType, &c.OutreachType, &c.AutomationFocus,
		&c.DataSource, &c.SheetID, &c.TotalBusinesses, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(c *model.Campaign) error {
	if err := c.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = model.CampaignStatusActive
	}
	query := `
        INSERT INTO campaigns (name, status, business_type, outreach_type, automation_focus, data_source, sheet_id, total_businesses, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.Name, c.Status, c.BusinessType, c.OutreachType, c.AutomationFocus,
		c.DataSource, c.SheetID, c.TotalBusinesses, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()
	query := `
        UPDATE campaigns
        SET name=$1, status=$2, business_type=$3, outreach_type=$4, automation_focus=$5,
            data_source=$6, sheet_id=$7, total_businesses=$8, updated_at=$9
        WHERE id=$10
    `
	res, err := r.DB.Exec(query,
		c.Name, c.Status, c.BusinessType, c.OutreachType, c.AutomationFocus,
		c.DataSource, c.SheetID, c.TotalBusinesses, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res, c.ID)
}

func (r *CampaignRepository) UpdateStatus(campaignID int, status string) error {
	if !model.ValidCampaignStatus(status) {
		return appErrors.NewValidation("status", "must be active, paused or completed")
	}
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	res, err := r.DB.Exec(query, status, time.Now().UTC(), campaignID)
	if err != nil {
		return err
	}
	return requireAffected(res, campaignID)
}

// UpdateTotals adds newly published leads to the campaign's business count.
func (r *CampaignRepository) UpdateTotals(campaignID, added int) error {
	query := `UPDATE campaigns SET total_businesses=total_businesses+$1, updated_at=$2 WHERE id=$3`
	res, err := r.DB.Exec(query, added, time.Now().UTC(), campaignID)
	if err != nil {
		return err
	}
	return requireAffected(res, campaignID)
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// Count total
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func requireAffected(res sql.Result, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
