package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/erickmeikoki/job-trends-data/internal/config"
)

// Fetcher pulls job listings from a remote board API. It builds its HTTP
// client once and reuses it across calls, and rate-limits outgoing requests
// so scheduled refreshes stay polite.
type Fetcher struct {
	cfg     config.FetchConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewFetcher constructs a Fetcher from the fetch configuration.
func NewFetcher(cfg config.FetchConfig) *Fetcher {
	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Transport: &bearerRoundTripper{base: http.DefaultTransport, token: cfg.APIKey()},
			Timeout:   cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
	}
}

// bearerRoundTripper injects the API key as a bearer token into every
// outgoing request. A zero token leaves requests untouched.
type bearerRoundTripper struct {
	base  http.RoundTripper
	token string
}

func (t *bearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.base.RoundTrip(req)
}

// listing mirrors one job object in the API response. Boards disagree on
// field names, so common spellings are accepted side by side and coalesced
// when converting to a RawRow.
type listing struct {
	ID              json.Number `json:"id"`
	Date            string      `json:"date"`
	PublicationDate string      `json:"publication_date"`
	Title           string      `json:"title"`
	JobTitle        string      `json:"job_title"`
	JobType         string      `json:"job_type"`
	Category        string      `json:"category"`
	Company         string      `json:"company"`
	CompanyName     string      `json:"company_name"`
	Location        string      `json:"location"`
	CandidateLoc    string      `json:"candidate_required_location"`
	Salary          string      `json:"salary"`
	Skills          string      `json:"skills"`
	Tags            []string    `json:"tags"`
	Experience      string      `json:"experience_level"`
	Remote          string      `json:"remote_option"`
}

type listingResponse struct {
	Jobs []listing `json:"jobs"`
}

// Fetch requests one page of listings and converts it to raw rows. The
// caller passes the result to Process like any other source.
func (f *Fetcher) Fetch(ctx context.Context) ([]RawRow, error) {
	if f.cfg.URL == "" {
		return nil, fmt.Errorf("ingest: fetch: no url configured")
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ingest: fetch: wait for rate limiter: %w", err)
	}

	u, err := url.Parse(f.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ingest: fetch: parse url: %w", err)
	}
	q := u.Query()
	if f.cfg.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.cfg.Limit))
	}
	if f.cfg.Search != "" {
		q.Set("search", f.cfg.Search)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("ingest: fetch: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ingest: fetch: http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ingest: fetch: unexpected status %d", resp.StatusCode)
	}

	var body listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ingest: fetch: decode response: %w", err)
	}

	rows := make([]RawRow, 0, len(body.Jobs))
	for i, job := range body.Jobs {
		rows = append(rows, job.toRow(i+1))
	}
	return rows, nil
}

// toRow coalesces the listing's field spellings into one raw row.
func (l listing) toRow(n int) RawRow {
	skills := l.Skills
	if skills == "" && len(l.Tags) > 0 {
		skills = strings.Join(l.Tags, ";")
	}
	return RawRow{
		Row:        n,
		ID:         l.ID.String(),
		Date:       coalesce(l.Date, l.PublicationDate),
		Title:      coalesce(l.Title, l.JobTitle),
		JobType:    coalesce(l.JobType, l.Category),
		Company:    coalesce(l.Company, l.CompanyName),
		Location:   coalesce(l.Location, l.CandidateLoc),
		Salary:     l.Salary,
		Skills:     skills,
		Experience: l.Experience,
		Remote:     l.Remote,
	}
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
