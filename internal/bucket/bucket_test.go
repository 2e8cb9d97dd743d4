package bucket

import (
	"testing"
	"time"

	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

func rec(date string, jt types.JobType, company string, salary float64, skills ...string) types.JobRecord {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	r := types.JobRecord{
		Date:    d.UTC(),
		Title:   "Engineer",
		JobType: jt,
		Company: company,
		Skills:  skills,
	}
	if salary > 0 {
		r.Salary = &salary
	}
	return r
}

func TestBuild_ContinuityWithSparseInput(t *testing.T) {
	records := []types.JobRecord{
		rec("2025-01-10", types.JobTypeBackend, "Google", 0),
		rec("2025-04-20", types.JobTypeBackend, "Stripe", 0),
	}
	set := Build(records, Options{})

	periods := set.Periods()
	if len(periods) != 4 {
		t.Fatalf("got %d periods, want 4", len(periods))
	}
	want := []string{"2025-01", "2025-02", "2025-03", "2025-04"}
	for i, p := range periods {
		if p.String() != want[i] {
			t.Errorf("period[%d] = %s, want %s", i, p, want[i])
		}
	}

	totals := set.Totals()
	wantCounts := []int{1, 0, 0, 1}
	for i, b := range totals {
		if b.Count != wantCounts[i] {
			t.Errorf("totals[%d].Count = %d, want %d", i, b.Count, wantCounts[i])
		}
	}
	// Gap buckets are explicit zeros, not absent.
	if totals[1].Key.Period.String() != "2025-02" {
		t.Errorf("gap bucket period = %s", totals[1].Key.Period)
	}
}

func TestBuild_Aggregates(t *testing.T) {
	records := []types.JobRecord{
		rec("2025-03-01", types.JobTypeBackend, "Google", 120000, "go", "postgres"),
		rec("2025-03-05", types.JobTypeBackend, "Stripe", 0, "go"),
		rec("2025-03-09", types.JobTypeFrontend, "Google", 100000, "react"),
	}
	set := Build(records, Options{})

	totals := set.Totals()
	if len(totals) != 1 {
		t.Fatalf("got %d periods", len(totals))
	}
	b := totals[0]
	if b.Count != 3 {
		t.Errorf("Count = %d, want 3", b.Count)
	}
	if b.SalarySum != 220000 {
		t.Errorf("SalarySum = %v, want 220000", b.SalarySum)
	}
	if b.SalaryCount != 2 {
		t.Errorf("SalaryCount = %d, want 2", b.SalaryCount)
	}
	if b.Companies != 2 {
		t.Errorf("Companies = %d, want 2", b.Companies)
	}
	if avg, ok := b.AvgSalary(); !ok || avg != 110000 {
		t.Errorf("AvgSalary = %v, %v", avg, ok)
	}

	backend := set.TypeSeries(types.JobTypeBackend)
	if backend[0].Count != 2 || backend[0].Companies != 2 {
		t.Errorf("backend bucket = %+v", backend[0])
	}
	goSeries := set.SkillSeries("go")
	if goSeries[0].Count != 2 {
		t.Errorf("go skill count = %d, want 2", goSeries[0].Count)
	}
	google := set.CompanySeries("Google")
	if google[0].Count != 2 {
		t.Errorf("google count = %d, want 2", google[0].Count)
	}

	if jts := set.Types(); len(jts) != 2 || jts[0] != "Frontend" || jts[1] != "Backend" {
		t.Errorf("Types = %v", jts)
	}
	if got := set.Companies(); len(got) != 2 || got[0] != "Google" || got[1] != "Stripe" {
		t.Errorf("Companies = %v", got)
	}
	if got := set.Skills(); len(got) != 3 || got[0] != "go" {
		t.Errorf("Skills = %v", got)
	}
}

func TestBuild_ExplicitRange(t *testing.T) {
	records := []types.JobRecord{
		rec("2024-11-01", types.JobTypeBackend, "Google", 0),
		rec("2025-02-01", types.JobTypeBackend, "Google", 0),
	}
	start := types.Period{Year: 2025, Month: time.January}
	end := types.Period{Year: 2025, Month: time.March}
	set := Build(records, Options{Start: &start, End: &end})

	if len(set.Periods()) != 3 {
		t.Fatalf("got %d periods, want 3", len(set.Periods()))
	}
	totals := set.Totals()
	if totals[0].Count != 0 || totals[1].Count != 1 || totals[2].Count != 0 {
		t.Errorf("counts = %d,%d,%d", totals[0].Count, totals[1].Count, totals[2].Count)
	}
}

func TestBuild_Empty(t *testing.T) {
	set := Build(nil, Options{})
	if len(set.Periods()) != 0 {
		t.Errorf("Periods = %v, want empty", set.Periods())
	}
	if set.TypeSeries(types.JobTypeBackend) != nil {
		t.Error("expected nil series for unseen type")
	}
}

func TestCounts(t *testing.T) {
	set := Build([]types.JobRecord{
		rec("2025-01-01", types.JobTypeBackend, "Google", 0),
		rec("2025-01-02", types.JobTypeBackend, "Google", 0),
		rec("2025-02-01", types.JobTypeBackend, "Google", 0),
	}, Options{})
	got := Counts(set.Totals())
	if len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Errorf("Counts = %v", got)
	}
}
