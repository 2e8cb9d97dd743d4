package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/erickmeikoki/job-trends-data/internal/config"
	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

const (
	defaultCooldown = 15 * time.Minute
	defaultHistory  = 256
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	Subject    string     `json:"subject"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"` // "firing" | "resolved"
}

// Engine evaluates alert rules against completed analysis runs and
// delivers webhook notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules      []config.AlertRule
	webhooks   []config.WebhookConfig
	historyCap int

	mu       sync.Mutex
	active   map[string]*Alert    // key: "ruleName:subject"
	lastFire map[string]time.Time // last fire time per key (for cooldown)
	history  []*Alert             // ring of fired alerts, oldest first
	hooks    []func(Alert)

	client   *http.Client
	limiters []*rate.Limiter // parallel to webhooks
	now      func() time.Time
}

// New creates an Engine from the alert configuration. Built-in health
// index crossings become ordinary rules ahead of the configured list. An
// Engine with no rules is valid; Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) *Engine {
	var rules []config.AlertRule
	if cfg.HealthFloor > 0 {
		rules = append(rules, config.AlertRule{
			Name:      "health_floor",
			Condition: fmt.Sprintf("health_index < %g", cfg.HealthFloor),
			Severity:  "warning",
		})
	}
	if cfg.HealthCeil > 0 {
		rules = append(rules, config.AlertRule{
			Name:      "health_ceiling",
			Condition: fmt.Sprintf("health_index > %g", cfg.HealthCeil),
			Severity:  "info",
		})
	}
	rules = append(rules, cfg.Rules...)

	historyCap := cfg.History
	if historyCap <= 0 {
		historyCap = defaultHistory
	}

	limiters := make([]*rate.Limiter, len(cfg.Webhooks))
	for i, wh := range cfg.Webhooks {
		limit := rate.Inf
		if wh.RatePerMinute > 0 {
			limit = rate.Limit(wh.RatePerMinute / 60)
		}
		limiters[i] = rate.NewLimiter(limit, 1)
	}

	return &Engine{
		rules:      rules,
		webhooks:   cfg.Webhooks,
		historyCap: historyCap,
		active:     make(map[string]*Alert),
		lastFire:   make(map[string]time.Time),
		client:     &http.Client{Timeout: 10 * time.Second},
		limiters:   limiters,
		now:        time.Now,
	}
}

// OnAlert registers fn to be called synchronously with a copy of every
// alert that fires or resolves. Register subscribers before Evaluate runs.
func (e *Engine) OnAlert(fn func(Alert)) {
	e.mu.Lock()
	e.hooks = append(e.hooks, fn)
	e.mu.Unlock()
}

// Evaluate tests all rules against res. Alerts that fire are stored and
// webhook delivery is triggered asynchronously. Alerts whose condition no
// longer holds are resolved.
func (e *Engine) Evaluate(res *types.AnalysisResult) {
	if len(e.rules) == 0 || res == nil {
		return
	}

	now := e.now()
	for _, rule := range e.rules {
		field, op, threshold, ok := parseCondition(rule.Condition)
		if !ok {
			slog.Warn("alerts: unparseable condition, skipping rule",
				"rule", rule.Name, "condition", rule.Condition)
			continue
		}

		firing := make(map[string]subjectValue)
		for _, c := range candidatesOf(field, res) {
			if compareFloat(c.value, op, threshold) {
				firing[c.subject] = c
			}
		}
		e.apply(rule, firing, now)
	}
}

// apply fires and resolves alerts for one rule given the set of subjects
// whose condition currently holds.
func (e *Engine) apply(rule config.AlertRule, firing map[string]subjectValue, now time.Time) {
	cooldown := rule.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	sev := rule.Severity
	if sev == "" {
		sev = "warning"
	}

	var deliveries []*Alert

	e.mu.Lock()
	for subject, c := range firing {
		key := rule.Name + ":" + subject
		if now.Sub(e.lastFire[key]) <= cooldown {
			continue
		}

		msg := fmt.Sprintf("[%s] %s fired on %s: %s (value %.2f)",
			sev, rule.Name, subject, rule.Condition, c.value)
		if c.period != "" {
			msg += " in " + c.period
		}
		a := &Alert{
			ID:       fmt.Sprintf("%s:%s:%d", rule.Name, subject, now.UnixNano()),
			RuleName: rule.Name,
			Subject:  subject,
			Severity: sev,
			Message:  msg,
			Value:    c.value,
			FiredAt:  now,
			State:    "firing",
		}
		if old, ok := e.active[key]; ok && old.State == "firing" {
			// Superseded by the re-fire; close it out in the history ring.
			resolved := now
			old.State = "resolved"
			old.ResolvedAt = &resolved
		}
		e.active[key] = a
		e.lastFire[key] = now
		e.history = append(e.history, a)
		if len(e.history) > e.historyCap {
			e.history = e.history[len(e.history)-e.historyCap:]
		}

		cp := *a
		deliveries = append(deliveries, &cp)

		slog.Warn("alerts: fired",
			"rule", rule.Name, "subject", subject, "value", c.value, "severity", sev)
	}

	// Resolve active alerts for this rule whose subject stopped firing.
	for key, a := range e.active {
		if !strings.HasPrefix(key, rule.Name+":") {
			continue
		}
		if _, still := firing[a.Subject]; still {
			continue
		}
		resolved := now
		a.State = "resolved"
		a.ResolvedAt = &resolved
		delete(e.active, key)

		cp := *a
		deliveries = append(deliveries, &cp)

		slog.Info("alerts: resolved", "rule", rule.Name, "subject", a.Subject)
	}
	hooks := make([]func(Alert), len(e.hooks))
	copy(hooks, e.hooks)
	e.mu.Unlock()

	for _, a := range deliveries {
		for _, fn := range hooks {
			fn(*a)
		}
		go e.deliver(a)
	}
}

// Active returns copies of all currently firing alerts.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*Alert, 0, len(e.active))
	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	return out
}

// History returns copies of the fired-alert ring, newest first.
func (e *Engine) History() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*Alert, 0, len(e.history))
	for i := len(e.history) - 1; i >= 0; i-- {
		cp := *e.history[i]
		out = append(out, &cp)
	}
	return out
}
