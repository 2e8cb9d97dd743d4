package metrics

import (
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// Collector accumulates run-level counters and gauges and serves them as a
// Prometheus text exposition. It is fed by the run hook in cmd/server and
// read by scrapes; both sides are safe to call concurrently.
type Collector struct {
	mu sync.Mutex

	runsTotal     float64
	lastDuration  float64 // seconds
	postings      float64
	quarantined   float64
	healthIndex   float64
	healthKnown   bool
	engineOK      map[string]float64 // 1 ok, 0 insufficient/failed
	alertsFiring  float64
	clientCountFn func() int
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{engineOK: make(map[string]float64)}
}

// SetClientCount registers fn as the live WebSocket client counter, sampled
// on every scrape.
func (c *Collector) SetClientCount(fn func() int) {
	c.mu.Lock()
	c.clientCountFn = fn
	c.mu.Unlock()
}

// ObserveRun records one completed analysis run.
func (c *Collector) ObserveRun(res *types.AnalysisResult) {
	if res == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.runsTotal++
	c.lastDuration = res.Duration.Seconds()
	c.postings = float64(res.Records)
	c.quarantined = float64(res.Quarantined)

	for name, st := range res.Statuses {
		if st.State == types.StatusOK {
			c.engineOK[name] = 1
		} else {
			c.engineOK[name] = 0
		}
	}

	// Latest scored period wins; insufficient periods carry no index.
	c.healthKnown = false
	for i := len(res.Health) - 1; i >= 0; i-- {
		if !res.Health[i].Insufficient {
			c.healthIndex = res.Health[i].Score
			c.healthKnown = true
			break
		}
	}
}

// SetAlertsFiring records the number of currently firing alerts.
func (c *Collector) SetAlertsFiring(n int) {
	c.mu.Lock()
	c.alertsFiring = float64(n)
	c.mu.Unlock()
}

// ServeHTTP writes the current metric families in text exposition format.
func (c *Collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	families := c.families()

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return
		}
	}
}

// families snapshots the collector state into sorted MetricFamily values.
func (c *Collector) families() []*dto.MetricFamily {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []*dto.MetricFamily{
		counter("jobtrends_runs_total",
			"Completed analysis runs since process start.", c.runsTotal),
		gauge("jobtrends_run_duration_seconds",
			"Wall duration of the most recent analysis run.", c.lastDuration),
		gauge("jobtrends_postings",
			"Canonical postings in the current snapshot.", c.postings),
		gauge("jobtrends_quarantined_rows",
			"Rows quarantined while ingesting the current snapshot.", c.quarantined),
		gauge("jobtrends_alerts_firing",
			"Alerts currently in the firing state.", c.alertsFiring),
	}

	if c.healthKnown {
		out = append(out, gauge("jobtrends_health_index",
			"Composite market health index for the latest scored period.", c.healthIndex))
	}
	if c.clientCountFn != nil {
		out = append(out, gauge("jobtrends_ws_clients",
			"Connected WebSocket feed clients.", float64(c.clientCountFn())))
	}

	if len(c.engineOK) > 0 {
		mf := &dto.MetricFamily{
			Name: strp("jobtrends_engine_ok"),
			Help: strp("Per-engine outcome of the latest run: 1 ok, 0 insufficient or failed."),
			Type: dto.MetricType_GAUGE.Enum(),
		}
		names := make([]string, 0, len(c.engineOK))
		for name := range c.engineOK {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			mf.Metric = append(mf.Metric, &dto.Metric{
				Label: []*dto.LabelPair{{Name: strp("engine"), Value: strp(name)}},
				Gauge: &dto.Gauge{Value: f64p(c.engineOK[name])},
			})
		}
		out = append(out, mf)
	}

	sort.Slice(out, func(i, j int) bool { return *out[i].Name < *out[j].Name })
	return out
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   strp(name),
		Help:   strp(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: f64p(v)}}},
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   strp(name),
		Help:   strp(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: f64p(v)}}},
	}
}

func strp(s string) *string { return &s }

func f64p(f float64) *float64 { return &f }
