package api

import (
	"time"

	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// Summary is the payload for GET /api/v1/summary and the body of the "run"
// WebSocket event.
type Summary struct {
	RunID       int64                         `json:"run_id"`
	StartedAt   string                        `json:"started_at"` // RFC3339
	DurationMS  float64                       `json:"duration_ms"`
	Records     int                           `json:"records"`
	Quarantined int                           `json:"quarantined"`
	Start       types.Period                  `json:"start"`
	End         types.Period                  `json:"end"`
	Statuses    map[string]types.EngineStatus `json:"statuses"`
	Health      *types.HealthIndexScore       `json:"health,omitempty"`
	Events      int                           `json:"events"`
	Clusters    int                           `json:"clusters"`
}

// BuildSummary condenses one run result into its wire summary. The health
// entry is the latest scored period, nil when every period was insufficient.
func BuildSummary(res *types.AnalysisResult) Summary {
	s := Summary{
		RunID:       res.RunID,
		StartedAt:   res.StartedAt.UTC().Format(time.RFC3339),
		DurationMS:  float64(res.Duration) / float64(time.Millisecond),
		Records:     res.Records,
		Quarantined: res.Quarantined,
		Start:       res.Start,
		End:         res.End,
		Statuses:    res.Statuses,
		Events:      len(res.Events),
		Clusters:    len(res.Clusters),
	}
	for i := len(res.Health) - 1; i >= 0; i-- {
		if !res.Health[i].Insufficient {
			h := res.Health[i]
			s.Health = &h
			break
		}
	}
	return s
}

// HealthResponse is the payload for GET /api/v1/health-index.
type HealthResponse struct {
	Status types.EngineStatus       `json:"status"`
	Scores []types.HealthIndexScore `json:"scores"`
}

// TrendsResponse is the payload for GET /api/v1/trends.
type TrendsResponse struct {
	Status types.EngineStatus              `json:"status"`
	Series map[string][]types.TrendSegment `json:"series"`
}

// ClustersResponse is the payload for GET /api/v1/clusters.
type ClustersResponse struct {
	Status   types.EngineStatus    `json:"status"`
	Clusters []types.SkillCluster  `json:"clusters"`
	Emerging []types.EmergingSkill `json:"emerging"`
}

// ForecastResponse is the payload for GET /api/v1/forecast.
type ForecastResponse struct {
	Status types.EngineStatus                `json:"status"`
	Series map[string][]types.ForecastPoint `json:"series"`
}

// PatternsResponse is the payload for GET /api/v1/patterns.
type PatternsResponse struct {
	Status      types.EngineStatus         `json:"status"`
	Events      []types.HiringPatternEvent `json:"events"`
	Growth      []types.CompanyGrowth      `json:"growth"`
	Seasonality []types.SeasonalityPoint   `json:"seasonality"`
}

// QuarantineResponse is the payload for GET /api/v1/quarantine.
type QuarantineResponse struct {
	Count int                    `json:"count"`
	Rows  []types.RejectedRecord `json:"rows"`
}

// IngestRow is one posting row in the POST /api/v1/ingest body. All fields
// are raw text; validation and normalisation happen in the ingest package.
type IngestRow struct {
	ID         string `json:"id,omitempty"`
	Date       string `json:"date"`
	Title      string `json:"title"`
	JobType    string `json:"job_type,omitempty"`
	Company    string `json:"company,omitempty"`
	Location   string `json:"location,omitempty"`
	Salary     string `json:"salary,omitempty"`
	Skills     string `json:"skills,omitempty"`
	Experience string `json:"experience_level,omitempty"`
	Education  string `json:"education,omitempty"`
	Remote     string `json:"remote_options,omitempty"`
}

// IngestRequest is the body of POST /api/v1/ingest.
type IngestRequest struct {
	Rows []IngestRow `json:"rows"`
}

// IngestResponse reports the outcome of an ingest, including the run the
// new snapshot triggered.
type IngestResponse struct {
	Accepted    int     `json:"accepted"`
	Quarantined int     `json:"quarantined"`
	Run         Summary `json:"run"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
