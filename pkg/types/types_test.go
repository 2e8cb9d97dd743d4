package types

import (
	"encoding/json"
	"testing"
	"time"
)

// --- enum parsing ---

func TestParseJobType(t *testing.T) {
	tests := []struct {
		in     string
		want   JobType
		wantOK bool
	}{
		{"Backend", JobTypeBackend, true},
		{"backend", JobTypeBackend, true},
		{"  Full-Stack  ", JobTypeFullStack, true},
		{"machine learning", JobTypeMachineLearning, true},
		{"QA/Testing", JobTypeQATesting, true},
		{"Astronaut", JobTypeOther, false},
		{"", JobTypeOther, false},
	}
	for _, tc := range tests {
		got, ok := ParseJobType(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ParseJobType(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestParseExperienceOrdinal(t *testing.T) {
	if !(ExperienceIntern < ExperienceJunior &&
		ExperienceJunior < ExperienceMid &&
		ExperienceMid < ExperienceSenior &&
		ExperienceSenior < ExperienceLead) {
		t.Fatal("experience levels must be ordered intern < junior < mid < senior < lead")
	}

	tests := []struct {
		in   string
		want Experience
	}{
		{"Senior", ExperienceSenior},
		{"entry-level", ExperienceJunior},
		{"Staff", ExperienceLead},
		{"intermediate", ExperienceMid},
		{"Internship", ExperienceIntern},
		{"wizard", ExperienceUnspecified},
		{"", ExperienceUnspecified},
	}
	for _, tc := range tests {
		if got := ParseExperience(tc.in); got != tc.want {
			t.Errorf("ParseExperience(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseRemoteOption(t *testing.T) {
	tests := []struct {
		in   string
		want RemoteOption
	}{
		{"Remote", RemoteRemote},
		{"hybrid", RemoteHybrid},
		{"On-Site", RemoteOnSite},
		{"onsite", RemoteOnSite},
		{"moonbase", RemoteUnspecified},
		{"", RemoteUnspecified},
	}
	for _, tc := range tests {
		if got := ParseRemoteOption(tc.in); got != tc.want {
			t.Errorf("ParseRemoteOption(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// --- record helpers ---

func TestJobRecordOptionalSalaryJSON(t *testing.T) {
	// A record without salary must serialise with the field absent, not 0.
	rec := JobRecord{
		ID:      "r1",
		Date:    time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC),
		Title:   "Backend Engineer",
		JobType: JobTypeBackend,
		Company: "Acme",
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, present := m["salary"]; present {
		t.Error("nil salary must be omitted from JSON")
	}

	sal := 125000.0
	rec.Salary = &sal
	data, _ = json.Marshal(rec)
	m = nil
	_ = json.Unmarshal(data, &m)
	if got, present := m["salary"]; !present || got.(float64) != 125000 {
		t.Errorf("salary = %v, want 125000", got)
	}
}

func TestBucketAvgSalary(t *testing.T) {
	b := TimeBucket{Count: 5}
	if _, ok := b.AvgSalary(); ok {
		t.Error("bucket with no salary contributions must report no average")
	}
	b.SalarySum = 300000
	b.SalaryCount = 3
	avg, ok := b.AvgSalary()
	if !ok || avg != 100000 {
		t.Errorf("AvgSalary = (%v, %v), want (100000, true)", avg, ok)
	}
}

func TestEngineStatusBuilders(t *testing.T) {
	if s := OKStatus(); s.State != StatusOK || s.Reason != "" {
		t.Errorf("OKStatus = %+v", s)
	}
	if s := InsufficientStatus("only 2 periods"); s.State != StatusInsufficient || s.Reason == "" {
		t.Errorf("InsufficientStatus = %+v", s)
	}
	if s := FailedStatus("boom"); s.State != StatusFailed || s.Reason != "boom" {
		t.Errorf("FailedStatus = %+v", s)
	}
}

func TestSeriesForType(t *testing.T) {
	if got := SeriesForType(JobTypeBackend); got != "type:Backend" {
		t.Errorf("SeriesForType = %q", got)
	}
}
