// Package leads collects raw business leads from maps search, social platforms and files.
package leads

import (
	"context"
	"fmt"
	"strings"

	"github.com/unclebandit/outreach-backend/internal/model"
)

const MapsActor = "compass/crawler-google-places"

// ActorRunner is the lead-search service contract.
type ActorRunner interface {
	RunActor(ctx context.Context, actorID string, input any, out any) error
}

// MapsSearcher finds businesses of a type around a location.
type MapsSearcher interface {
	Search(ctx context.Context, businessType, location string, max int) ([]model.Lead, error)
}

// MapsSource searches Google Maps through the Apify places crawler.
type MapsSource struct {
	Runner ActorRunner
}

type placeItem struct {
	Title       string `json:"title"`
	Address     string `json:"address"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
}

func (m *MapsSource) Search(ctx context.Context, businessType, location string, max int) ([]model.Lead, error) {
	input := map[string]any{
		"searchStringsArray":        []string{fmt.Sprintf("%s in %s", businessType, location)},
		"maxCrawledPlacesPerSearch": max,
	}

	var items []placeItem
	if err := m.Runner.RunActor(ctx, MapsActor, input, &items); err != nil {
		return nil, err
	}

	leads := make([]model.Lead, 0, len(items))
	for _, it := range items {
		phone := it.PhoneNumber
		if phone == "" {
			phone = it.Phone
		}
		leads = append(leads, model.Lead{
			Name:     strings.TrimSpace(it.Title),
			Location: it.Address,
			Email:    it.Email,
			Phone:    phone,
			Website:  it.Website,
		})
	}
	if max > 0 && len(leads) > max {
		leads = leads[:max]
	}
	return leads, nil
}

// SampleSource produces placeholder businesses for dry runs without an Apify token.
type SampleSource struct{}

func (SampleSource) Search(ctx context.Context, businessType, location string, max int) ([]model.Lead, error) {
	n := max
	if n > 5 {
		n = 5
	}
	slug := strings.ToLower(strings.Join(strings.Fields(businessType), ""))

	leads := make([]model.Lead, 0, n)
	for i := 1; i <= n; i++ {
		leads = append(leads, model.Lead{
			Name:     fmt.Sprintf("Sample %s #%d", businessType, i),
			Location: location,
			Email:    fmt.Sprintf("contact%d@sample%s.com", i, slug),
			Phone:    fmt.Sprintf("(555) %03d-%04d", 100+i, 1000+i),
			Website:  fmt.Sprintf("https://sample%s%d.com", slug, i),
		})
	}
	return leads, nil
}

var (
	_ MapsSearcher = (*MapsSource)(nil)
	_ MapsSearcher = SampleSource{}
)
