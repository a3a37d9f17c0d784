package leads

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/model"
)

type Platform string

const (
	Instagram Platform = "instagram"
	Facebook  Platform = "facebook"
	TikTok    Platform = "tiktok"
)

const (
	InstagramActor = "apify/instagram-hashtag-scraper"
	FacebookActor  = "apify/facebook-pages-scraper"
	TikTokActor    = "clockworks/tiktok-user-search-scraper"
)

func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case Instagram, Facebook, TikTok:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// SocialSource searches social platforms through Apify actors.
type SocialSource struct {
	Runner ActorRunner
	Logger *zap.Logger
}

// Search runs one platform's actor for query.
func (s *SocialSource) Search(ctx context.Context, platform Platform, query string, max int) ([]model.Lead, error) {
	switch platform {
	case Instagram:
		return s.instagram(ctx, query, max)
	case Facebook:
		return s.facebook(ctx, query, max)
	case TikTok:
		return s.tiktok(ctx, query, max)
	}
	return nil, fmt.Errorf("unknown platform %q", platform)
}

// SearchAll queries every platform for "<type> <location>". A failing platform is logged and skipped.
func (s *SocialSource) SearchAll(ctx context.Context, platforms []Platform, businessType, location string, maxPerPlatform int) []model.Lead {
	log := logger.OrNop(s.Logger)
	query := strings.TrimSpace(businessType + " " + location)

	var all []model.Lead
	for _, p := range platforms {
		found, err := s.Search(ctx, p, query, maxPerPlatform)
		if err != nil {
			log.Warn("social search failed", zap.String("platform", string(p)), zap.Error(err))
			continue
		}
		log.Info("social search done", zap.String("platform", string(p)), zap.Int("leads", len(found)))
		all = append(all, found...)
	}
	return all
}

type instagramPost struct {
	OwnerUsername string `json:"ownerUsername"`
	OwnerFullName string `json:"ownerFullName"`
}

func (s *SocialSource) instagram(ctx context.Context, query string, max int) ([]model.Lead, error) {
	hashtag := strings.ToLower(strings.ReplaceAll(query, " ", ""))
	input := map[string]any{
		"hashtags":     []string{hashtag},
		"resultsLimit": max,
	}

	var posts []instagramPost
	if err := s.Runner.RunActor(ctx, InstagramActor, input, &posts); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var leads []model.Lead
	for _, p := range posts {
		if p.OwnerUsername == "" || seen[p.OwnerUsername] {
			continue
		}
		seen[p.OwnerUsername] = true

		name := p.OwnerFullName
		if name == "" {
			name = p.OwnerUsername
		}
		leads = append(leads, model.Lead{
			Name:       name,
			Platform:   string(Instagram),
			ProfileURL: "https://instagram.com/" + p.OwnerUsername,
		})
	}
	return limit(leads, max), nil
}

type facebookPage struct {
	Name    string `json:"name"`
	Website string `json:"website"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	URL     string `json:"url"`
}

func (s *SocialSource) facebook(ctx context.Context, query string, max int) ([]model.Lead, error) {
	input := map[string]any{
		"startUrls": []map[string]string{{"url": "https://www.facebook.com/search/pages/?q=" + url.QueryEscape(query)}},
		"maxPosts":  0,
	}

	var pages []facebookPage
	if err := s.Runner.RunActor(ctx, FacebookActor, input, &pages); err != nil {
		return nil, err
	}

	leads := make([]model.Lead, 0, len(pages))
	for _, p := range pages {
		leads = append(leads, model.Lead{
			Name:       p.Name,
			Location:   p.Address,
			Email:      p.Email,
			Phone:      p.Phone,
			Website:    p.Website,
			Platform:   string(Facebook),
			ProfileURL: p.URL,
		})
	}
	return limit(leads, max), nil
}

type tiktokUser struct {
	Nickname string `json:"nickname"`
	UniqueID string `json:"uniqueId"`
}

func (s *SocialSource) tiktok(ctx context.Context, query string, max int) ([]model.Lead, error) {
	input := map[string]any{
		"searchQueries":  []string{query},
		"resultsPerPage": max,
		"searchSection":  "users",
	}

	var users []tiktokUser
	if err := s.Runner.RunActor(ctx, TikTokActor, input, &users); err != nil {
		return nil, err
	}

	leads := make([]model.Lead, 0, len(users))
	for _, u := range users {
		name := u.Nickname
		if name == "" {
			name = u.UniqueID
		}
		leads = append(leads, model.Lead{
			Name:       name,
			Platform:   string(TikTok),
			ProfileURL: "https://tiktok.com/@" + u.UniqueID,
		})
	}
	return limit(leads, max), nil
}

func limit(leads []model.Lead, max int) []model.Lead {
	if max > 0 && len(leads) > max {
		return leads[:max]
	}
	return leads
}
