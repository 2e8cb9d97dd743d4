package types

import (
	"strings"
	"time"
)

// JobType is the closed category set postings are classified into.
// Input that matches no category maps to JobTypeOther; classification
// never rejects a row.
type JobType string

const (
	JobTypeFrontend        JobType = "Frontend"
	JobTypeBackend         JobType = "Backend"
	JobTypeFullStack       JobType = "Full-Stack"
	JobTypeDevOps          JobType = "DevOps"
	JobTypeDataEngineering JobType = "Data Engineering"
	JobTypeMachineLearning JobType = "Machine Learning"
	JobTypeMobile          JobType = "Mobile"
	JobTypeQATesting       JobType = "QA/Testing"
	JobTypeCybersecurity   JobType = "Cybersecurity"
	JobTypeGameDev         JobType = "Game Development"
	JobTypeEmbedded        JobType = "Embedded"
	JobTypeARVR            JobType = "AR/VR"
	JobTypeOther           JobType = "Other"
)

// JobTypes is the ordered set of known categories. Engines iterate this
// slice instead of ranging over maps so output order is stable.
var JobTypes = []JobType{
	JobTypeFrontend,
	JobTypeBackend,
	JobTypeFullStack,
	JobTypeDevOps,
	JobTypeDataEngineering,
	JobTypeMachineLearning,
	JobTypeMobile,
	JobTypeQATesting,
	JobTypeCybersecurity,
	JobTypeGameDev,
	JobTypeEmbedded,
	JobTypeARVR,
	JobTypeOther,
}

// ParseJobType matches s against the known category labels, ignoring case.
// It reports false when s matches no category; callers decide whether to
// fall back to keyword inference or to JobTypeOther.
func ParseJobType(s string) (JobType, bool) {
	s = strings.TrimSpace(s)
	for _, jt := range JobTypes {
		if strings.EqualFold(s, string(jt)) {
			return jt, true
		}
	}
	return JobTypeOther, false
}

// Experience is the ordinal seniority scale. The zero value means the
// posting did not state one.
type Experience int

const (
	ExperienceUnspecified Experience = iota
	ExperienceIntern
	ExperienceJunior
	ExperienceMid
	ExperienceSenior
	ExperienceLead
)

var experienceLabels = map[Experience]string{
	ExperienceIntern: "intern",
	ExperienceJunior: "junior",
	ExperienceMid:    "mid",
	ExperienceSenior: "senior",
	ExperienceLead:   "lead",
}

// String returns the lowercase label, or "" for ExperienceUnspecified.
func (e Experience) String() string {
	return experienceLabels[e]
}

// MarshalText implements encoding.TextMarshaler.
func (e Experience) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown labels map to
// ExperienceUnspecified rather than erroring; seniority is advisory data.
func (e *Experience) UnmarshalText(text []byte) error {
	*e = ParseExperience(string(text))
	return nil
}

// ParseExperience maps a free-form label onto the ordinal scale.
func ParseExperience(s string) Experience {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intern", "internship":
		return ExperienceIntern
	case "junior", "entry", "entry-level", "entry level", "jr":
		return ExperienceJunior
	case "mid", "mid-level", "mid level", "intermediate":
		return ExperienceMid
	case "senior", "sr":
		return ExperienceSenior
	case "lead", "staff", "principal":
		return ExperienceLead
	default:
		return ExperienceUnspecified
	}
}

// RemoteOption is the work-arrangement category. Empty means unstated.
type RemoteOption string

const (
	RemoteUnspecified RemoteOption = ""
	RemoteOnSite      RemoteOption = "on-site"
	RemoteHybrid      RemoteOption = "hybrid"
	RemoteRemote      RemoteOption = "remote"
)

// ParseRemoteOption maps a free-form label onto the category set.
func ParseRemoteOption(s string) RemoteOption {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "remote", "fully remote", "100% remote":
		return RemoteRemote
	case "hybrid":
		return RemoteHybrid
	case "on-site", "onsite", "on site", "office", "in-office":
		return RemoteOnSite
	default:
		return RemoteUnspecified
	}
}

// JobRecord is one validated, normalised job posting. Optional fields stay
// at their empty value when the source row did not provide them; absence is
// never encoded as a zero sentinel that engines could mistake for data.
type JobRecord struct {
	// ID is a stable identifier, either carried from the source or
	// assigned during ingestion.
	ID string `json:"id"`

	// Date is the posting date at day precision, always present.
	Date time.Time `json:"date"`

	// Title is the raw posting title, trimmed, always present.
	Title string `json:"title"`

	// JobType is the classified category, JobTypeOther when nothing matched.
	JobType JobType `json:"job_type"`

	// Company is the normalised company name, "Unknown" when the source
	// row left it blank.
	Company string `json:"company"`

	Location string `json:"location,omitempty"`

	// Salary is the annualised salary midpoint, nil when unstated.
	Salary *float64 `json:"salary,omitempty"`

	// Skills is the normalised token set: lowercase canonical names,
	// deduplicated and sorted.
	Skills []string `json:"skills,omitempty"`

	ExperienceLevel Experience   `json:"experience_level,omitempty"`
	Education       string       `json:"education,omitempty"`
	RemoteOption    RemoteOption `json:"remote_option,omitempty"`
}

// Period returns the calendar month the record falls into.
func (r JobRecord) Period() Period {
	return PeriodOf(r.Date)
}

// RejectReason says why a row was quarantined during ingestion.
type RejectReason string

const (
	RejectMissingDate  RejectReason = "missing_date"
	RejectInvalidDate  RejectReason = "invalid_date"
	RejectMissingTitle RejectReason = "missing_title"
)

// RejectedRecord is one quarantined input row. Rejected rows never reach
// aggregation; they are reported alongside the canonical record set.
type RejectedRecord struct {
	// Row is the 1-based position in the source input.
	Row    int          `json:"row"`
	Reason RejectReason `json:"reason"`
	// Detail carries the offending raw value for diagnostics.
	Detail string `json:"detail,omitempty"`
}

// BucketKey identifies one time bucket. JobType, Company and Skill are
// optional partition dimensions; their empty values mean "not partitioned
// on this dimension".
type BucketKey struct {
	Period  Period  `json:"period"`
	JobType JobType `json:"job_type,omitempty"`
	Company string  `json:"company,omitempty"`
	Skill   string  `json:"skill,omitempty"`
}

// TimeBucket is the aggregate for one BucketKey. A zero-filled bucket has
// the key set and every value at zero.
type TimeBucket struct {
	Key   BucketKey `json:"key"`
	Count int       `json:"count"`

	// SalarySum and SalaryCount cover only records that stated a salary,
	// so SalarySum/SalaryCount is a true average over known values.
	SalarySum   float64 `json:"salary_sum"`
	SalaryCount int     `json:"salary_count"`

	// Companies is the distinct company count within the bucket.
	Companies int `json:"companies"`
}

// AvgSalary returns the mean of known salaries in the bucket, and false
// when no record contributed one.
func (b TimeBucket) AvgSalary() (float64, bool) {
	if b.SalaryCount == 0 {
		return 0, false
	}
	return b.SalarySum / float64(b.SalaryCount), true
}

// Health index sub-indicator names, used as keys in HealthIndexScore
// Indicators and Weights maps.
const (
	IndicatorVolume    = "volume"
	IndicatorDiversity = "diversity"
	IndicatorBreadth   = "breadth"
)

// Sentiment labels derived from the composite health score.
const (
	SentimentVeryStrong = "very strong"
	SentimentStrong     = "strong"
	SentimentStable     = "stable"
	SentimentWeak       = "weak"
	SentimentVeryWeak   = "very weak"
)

// HealthIndexScore is the composite market health for one period.
type HealthIndexScore struct {
	Period Period `json:"period"`

	// Score is the weighted composite in [0, 100].
	Score float64 `json:"score"`

	// Sentiment is the label band Score falls into.
	Sentiment string `json:"sentiment"`

	// Indicators holds the sub-indicator values (each 0–100) that could be
	// computed for this period. A sub-indicator that could not be computed
	// is absent from the map, and its weight is redistributed.
	Indicators map[string]float64 `json:"indicators"`

	// Weights are the weights actually applied, renormalised to sum 1
	// over the present indicators.
	Weights map[string]float64 `json:"weights"`

	// Insufficient is set when no sub-indicator could be computed; Score
	// is meaningless for such periods.
	Insufficient bool `json:"insufficient,omitempty"`
}

// TrendState classifies a stretch of a count series.
type TrendState string

const (
	TrendGrowth  TrendState = "growth"
	TrendDecline TrendState = "decline"
	TrendStable  TrendState = "stable"
)

// TrendSegment is one maximal run of periods sharing a trend state.
// Adjacent segments in a segmentation always differ in State.
type TrendSegment struct {
	// Series names the count series the segment belongs to (SeriesAll or
	// a SeriesForType key).
	Series string `json:"series"`

	Start Period     `json:"start"`
	End   Period     `json:"end"`
	State TrendState `json:"state"`

	// Slope is the mean rolling slope over the segment, relative to the
	// window mean (0.05 = +5% per period).
	Slope float64 `json:"slope"`

	// Volatility is the mean coefficient of variation over the segment.
	Volatility float64 `json:"volatility"`
}

// SkillCluster is one connected component of the skill co-occurrence graph.
type SkillCluster struct {
	// ID is the cluster's position in canonical output order.
	ID int `json:"id"`

	// Skills lists the member skills in sorted order.
	Skills []string `json:"skills"`

	// Representative is the member with the highest total co-occurrence
	// weight, ties broken lexicographically.
	Representative string `json:"representative"`

	// Cohesion is the average edge weight divided by component size.
	// Singleton clusters have cohesion 0.
	Cohesion float64 `json:"cohesion"`

	Size int `json:"size"`
}

// EmergingSkill is a skill whose recent usage grew sharply versus the
// preceding stretch of the same length.
type EmergingSkill struct {
	Skill       string  `json:"skill"`
	RecentCount int     `json:"recent_count"`
	PriorCount  int     `json:"prior_count"`
	GrowthPct   float64 `json:"growth_pct"`
}

// ForecastPoint is one projected period of a count series.
type ForecastPoint struct {
	// Series names the count series the projection belongs to.
	Series string `json:"series"`

	Period   Period  `json:"period"`
	Forecast float64 `json:"forecast"`

	// Lower and Upper bound the forecast; the band widens with each
	// horizon step. Lower is clipped at 0 for count series.
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`

	// LowConfidence marks forecasts produced by the naive fallback used
	// when the history is too short for smoothing.
	LowConfidence bool `json:"low_confidence,omitempty"`
}

// EventKind classifies a hiring pattern event.
type EventKind string

const (
	EventSurge    EventKind = "surge"
	EventSlowdown EventKind = "slowdown"
)

// HiringPatternEvent is a sustained deviation of one company's posting
// volume from its rolling baseline.
type HiringPatternEvent struct {
	Company string    `json:"company"`
	Kind    EventKind `json:"kind"`
	Start   Period    `json:"start"`
	End     Period    `json:"end"`

	// Magnitude is the peak deviation in baseline standard deviation
	// units, always positive.
	Magnitude float64 `json:"magnitude"`

	// Peak is the raw posting count at the peak period.
	Peak float64 `json:"peak"`

	// Baseline is the rolling mean the deviation was measured against
	// when the event opened.
	Baseline float64 `json:"baseline"`
}

// CompanyGrowth compares a company's recent posting volume against the
// preceding stretch of the lookback window.
type CompanyGrowth struct {
	Company   string  `json:"company"`
	RecentAvg float64 `json:"recent_avg"`
	PriorAvg  float64 `json:"prior_avg"`
	GrowthPct float64 `json:"growth_pct"`
}

// SeasonalityPoint is the mean posting count for one calendar month across
// the whole snapshot.
type SeasonalityPoint struct {
	Month     time.Month `json:"month"`
	MeanCount float64    `json:"mean_count"`
}

// Engine names used as keys in AnalysisResult.Statuses.
const (
	EngineHealth   = "health"
	EngineTrend    = "trend"
	EngineCluster  = "cluster"
	EngineForecast = "forecast"
	EnginePattern  = "pattern"
)

// Engine status states. InsufficientData is an expected outcome for thin
// series, not an error.
const (
	StatusOK           = "ok"
	StatusInsufficient = "insufficient_data"
	StatusFailed       = "failed"
)

// EngineStatus is the per-engine outcome of one analysis run.
type EngineStatus struct {
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// OKStatus, InsufficientStatus and FailedStatus build the three status
// values. Reasons are free text for operators, not machine contracts.
func OKStatus() EngineStatus { return EngineStatus{State: StatusOK} }

func InsufficientStatus(reason string) EngineStatus {
	return EngineStatus{State: StatusInsufficient, Reason: reason}
}

func FailedStatus(reason string) EngineStatus {
	return EngineStatus{State: StatusFailed, Reason: reason}
}

// SeriesAll keys the overall (unpartitioned) count series in per-series
// result maps; per-type series use SeriesForType.
const SeriesAll = "all"

// SeriesForType returns the result-map key for a job type's count series.
func SeriesForType(jt JobType) string {
	return "type:" + string(jt)
}

// AnalysisResult is the aggregated output of one orchestrator run. Engines
// run independently; a failed engine leaves its payload empty and records
// the failure in Statuses while every other payload stays valid.
type AnalysisResult struct {
	RunID     int64         `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`

	// Snapshot metadata.
	Records     int    `json:"records"`
	Quarantined int    `json:"quarantined"`
	Start       Period `json:"start"`
	End         Period `json:"end"`

	// Statuses maps engine name to outcome.
	Statuses map[string]EngineStatus `json:"statuses"`

	Health      []HealthIndexScore         `json:"health,omitempty"`
	Trends      map[string][]TrendSegment  `json:"trends,omitempty"`
	Clusters    []SkillCluster             `json:"clusters,omitempty"`
	Emerging    []EmergingSkill            `json:"emerging,omitempty"`
	Forecasts   map[string][]ForecastPoint `json:"forecasts,omitempty"`
	Events      []HiringPatternEvent       `json:"events,omitempty"`
	Growth      []CompanyGrowth            `json:"growth,omitempty"`
	Seasonality []SeasonalityPoint         `json:"seasonality,omitempty"`
}
