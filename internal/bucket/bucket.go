package bucket

import (
	"sort"

	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// Options bounds the bucketed period range. A nil endpoint falls back to
// the earliest or latest observed record period.
type Options struct {
	Start *types.Period
	End   *types.Period
}

// Set holds the bucketed series for one snapshot. All series are aligned to
// Periods: index i of any series is the bucket for Periods()[i], zero-filled
// when no record landed there.
type Set struct {
	start   types.Period
	end     types.Period
	periods []types.Period

	totals    []types.TimeBucket
	byType    map[types.JobType][]types.TimeBucket
	byCompany map[string][]types.TimeBucket
	bySkill   map[string][]types.TimeBucket
}

// accBucket is the single-pass accumulator behind one bucket.
type accBucket struct {
	count       int
	salarySum   float64
	salaryCount int
	companies   map[string]struct{}
}

// Build aggregates records into a bucket set over the requested range.
// Records outside an explicit range are left out; with no explicit range the
// observed min and max record periods bound the series. An empty snapshot
// yields an empty set, not an error.
func Build(records []types.JobRecord, opts Options) *Set {
	start, end, ok := resolveRange(records, opts)
	if !ok {
		return &Set{
			byType:    map[types.JobType][]types.TimeBucket{},
			byCompany: map[string][]types.TimeBucket{},
			bySkill:   map[string][]types.TimeBucket{},
		}
	}

	acc := make(map[types.BucketKey]*accBucket)
	bump := func(key types.BucketKey, rec types.JobRecord) {
		b := acc[key]
		if b == nil {
			b = &accBucket{companies: make(map[string]struct{})}
			acc[key] = b
		}
		b.count++
		if rec.Salary != nil {
			b.salarySum += *rec.Salary
			b.salaryCount++
		}
		if rec.Company != "" {
			b.companies[rec.Company] = struct{}{}
		}
	}

	for _, rec := range records {
		p := rec.Period()
		if p.Before(start) || end.Before(p) {
			continue
		}
		bump(types.BucketKey{Period: p}, rec)
		bump(types.BucketKey{Period: p, JobType: rec.JobType}, rec)
		if rec.Company != "" {
			bump(types.BucketKey{Period: p, Company: rec.Company}, rec)
		}
		for _, skill := range rec.Skills {
			bump(types.BucketKey{Period: p, Skill: skill}, rec)
		}
	}

	s := &Set{
		start:     start,
		end:       end,
		periods:   periodRange(start, end),
		byType:    make(map[types.JobType][]types.TimeBucket),
		byCompany: make(map[string][]types.TimeBucket),
		bySkill:   make(map[string][]types.TimeBucket),
	}

	s.totals = s.expand(acc, types.BucketKey{})
	for _, jt := range observedTypes(acc) {
		s.byType[jt] = s.expand(acc, types.BucketKey{JobType: jt})
	}
	for _, company := range observedStrings(acc, func(k types.BucketKey) string { return k.Company }) {
		s.byCompany[company] = s.expand(acc, types.BucketKey{Company: company})
	}
	for _, skill := range observedStrings(acc, func(k types.BucketKey) string { return k.Skill }) {
		s.bySkill[skill] = s.expand(acc, types.BucketKey{Skill: skill})
	}
	return s
}

// expand materialises one series over the full period range, inserting
// explicit zero buckets where the accumulator has no entry.
func (s *Set) expand(acc map[types.BucketKey]*accBucket, proto types.BucketKey) []types.TimeBucket {
	series := make([]types.TimeBucket, 0, len(s.periods))
	for _, p := range s.periods {
		key := proto
		key.Period = p
		out := types.TimeBucket{Key: key}
		if b, ok := acc[key]; ok {
			out.Count = b.count
			out.SalarySum = b.salarySum
			out.SalaryCount = b.salaryCount
			out.Companies = len(b.companies)
		}
		series = append(series, out)
	}
	return series
}

func resolveRange(records []types.JobRecord, opts Options) (types.Period, types.Period, bool) {
	var start, end types.Period
	if opts.Start != nil {
		start = *opts.Start
	}
	if opts.End != nil {
		end = *opts.End
	}
	if opts.Start != nil && opts.End != nil {
		return start, end, !end.Before(start)
	}
	if len(records) == 0 {
		return start, end, false
	}

	minP, maxP := records[0].Period(), records[0].Period()
	for _, rec := range records[1:] {
		p := rec.Period()
		if p.Before(minP) {
			minP = p
		}
		if maxP.Before(p) {
			maxP = p
		}
	}
	if opts.Start == nil {
		start = minP
	}
	if opts.End == nil {
		end = maxP
	}
	return start, end, !end.Before(start)
}

func periodRange(start, end types.Period) []types.Period {
	out := make([]types.Period, 0, end.Index()-start.Index()+1)
	for p := start; !end.Before(p); p = p.Next() {
		out = append(out, p)
	}
	return out
}

func observedTypes(acc map[types.BucketKey]*accBucket) []types.JobType {
	seen := make(map[types.JobType]struct{})
	for key := range acc {
		if key.JobType != "" {
			seen[key.JobType] = struct{}{}
		}
	}
	out := make([]types.JobType, 0, len(seen))
	for _, jt := range types.JobTypes {
		if _, ok := seen[jt]; ok {
			out = append(out, jt)
		}
	}
	return out
}

func observedStrings(acc map[types.BucketKey]*accBucket, field func(types.BucketKey) string) []string {
	seen := make(map[string]struct{})
	for key := range acc {
		if v := field(key); v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Range returns the bucketed period bounds. Valid only when Periods is
// non-empty.
func (s *Set) Range() (types.Period, types.Period) { return s.start, s.end }

// Periods returns the continuous ascending period axis shared by every
// series in the set.
func (s *Set) Periods() []types.Period { return s.periods }

// Totals returns the overall monthly series.
func (s *Set) Totals() []types.TimeBucket { return s.totals }

// Types returns the observed job types in canonical order.
func (s *Set) Types() []types.JobType {
	out := make([]types.JobType, 0, len(s.byType))
	for _, jt := range types.JobTypes {
		if _, ok := s.byType[jt]; ok {
			out = append(out, jt)
		}
	}
	return out
}

// TypeSeries returns the monthly series for one job type, or nil when the
// type never occurs in the snapshot.
func (s *Set) TypeSeries(jt types.JobType) []types.TimeBucket { return s.byType[jt] }

// Companies returns the observed company names, sorted.
func (s *Set) Companies() []string {
	out := make([]string, 0, len(s.byCompany))
	for name := range s.byCompany {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CompanySeries returns the monthly series for one company, or nil when the
// company never occurs in the snapshot.
func (s *Set) CompanySeries(name string) []types.TimeBucket { return s.byCompany[name] }

// Skills returns the observed skill tokens, sorted.
func (s *Set) Skills() []string {
	out := make([]string, 0, len(s.bySkill))
	for name := range s.bySkill {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SkillSeries returns the monthly series for one skill, or nil when the
// skill never occurs in the snapshot.
func (s *Set) SkillSeries(name string) []types.TimeBucket { return s.bySkill[name] }

// Counts projects a series to its count column as floats, the shape the
// trend, forecast and pattern engines consume.
func Counts(series []types.TimeBucket) []float64 {
	out := make([]float64, len(series))
	for i, b := range series {
		out[i] = float64(b.Count)
	}
	return out
}
