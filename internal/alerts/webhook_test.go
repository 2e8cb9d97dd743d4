package alerts

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erickmeikoki/job-trends-data/internal/config"
)

func testAlert() *Alert {
	return &Alert{
		ID:       "surge:Google:1",
		RuleName: "surge",
		Subject:  "Google",
		Severity: "warning",
		Message:  "surge fired on Google",
		Value:    3.5,
		FiredAt:  time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC),
		State:    "firing",
	}
}

func TestDeliver_HTTPWebhook(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()
	t.Setenv("TEST_ALERT_WEBHOOK", srv.URL)

	e := New(config.AlertsConfig{
		Webhooks: []config.WebhookConfig{{Type: "http", URLEnv: "TEST_ALERT_WEBHOOK"}},
	})
	e.deliver(testAlert())

	var payload struct {
		Alert Alert `json:"alert"`
	}
	if err := json.Unmarshal(got, &payload); err != nil {
		t.Fatalf("decode webhook body: %v", err)
	}
	if payload.Alert.RuleName != "surge" || payload.Alert.Value != 3.5 {
		t.Errorf("delivered alert = %+v", payload.Alert)
	}
}

func TestDeliver_SlackPayload(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()
	t.Setenv("TEST_SLACK_WEBHOOK", srv.URL)

	e := New(config.AlertsConfig{
		Webhooks: []config.WebhookConfig{{Type: "slack", URLEnv: "TEST_SLACK_WEBHOOK"}},
	})
	e.deliver(testAlert())

	var payload map[string]string
	if err := json.Unmarshal(got, &payload); err != nil {
		t.Fatalf("decode slack body: %v", err)
	}
	if payload["text"] != "*[WARNING]* surge fired on Google" {
		t.Errorf("slack text = %q", payload["text"])
	}
}

func TestDeliver_RateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	t.Setenv("TEST_LIMITED_WEBHOOK", srv.URL)

	e := New(config.AlertsConfig{
		Webhooks: []config.WebhookConfig{{
			Type:          "http",
			URLEnv:        "TEST_LIMITED_WEBHOOK",
			RatePerMinute: 1,
		}},
	})

	// Burst of one: the second delivery inside the same minute is dropped.
	e.deliver(testAlert())
	e.deliver(testAlert())

	if got := hits.Load(); got != 1 {
		t.Errorf("webhook hit %d times, want 1", got)
	}
}

func TestDeliver_MissingURLSkipped(t *testing.T) {
	e := New(config.AlertsConfig{
		Webhooks: []config.WebhookConfig{{Type: "http", URLEnv: "TEST_UNSET_WEBHOOK_URL"}},
	})
	// No URL resolved: deliver must be a silent no-op.
	e.deliver(testAlert())
}

func TestPost_RetriesThenSucceeds(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
	}))
	defer srv.Close()

	e := New(config.AlertsConfig{})
	if err := e.post(srv.URL, []byte(`{}`)); err != nil {
		t.Fatalf("post after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("attempts = %d, want 3", calls.Load())
	}
}

func TestPost_GivesUpAfterMaxAttempts(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := New(config.AlertsConfig{})
	if err := e.post(srv.URL, []byte(`{}`)); err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if calls.Load() != int32(maxAttempts) {
		t.Errorf("attempts = %d, want %d", calls.Load(), maxAttempts)
	}
}
