package analytics

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// Snapshot is one immutable set of normalised postings together with the
// rows quarantined while producing it. Callers hand over ownership of both
// slices and must not mutate them afterwards.
type Snapshot struct {
	Records  []types.JobRecord
	Rejected []types.RejectedRecord

	fingerprint uint64
}

// NewSnapshot wraps records and their quarantine, computing the record-set
// fingerprint once.
func NewSnapshot(records []types.JobRecord, rejected []types.RejectedRecord) *Snapshot {
	return &Snapshot{
		Records:     records,
		Rejected:    rejected,
		fingerprint: fingerprintOf(records),
	}
}

// Fingerprint identifies the record set. Two snapshots holding the same
// records in any order share a fingerprint; memoized engine results carry
// it in their cache key.
func (s *Snapshot) Fingerprint() uint64 { return s.fingerprint }

// fingerprintOf sums per-record FNV-64 hashes. Summing (rather than
// hashing a concatenation) keeps the value independent of record order.
func fingerprintOf(records []types.JobRecord) uint64 {
	var sum uint64
	for _, r := range records {
		h := fnv.New64a()
		fmt.Fprintf(h, "%s|%s|%s|%s|%s",
			r.ID, r.Date.Format("2006-01-02"), r.JobType, r.Company,
			strings.Join(r.Skills, ";"))
		if r.Salary != nil {
			fmt.Fprintf(h, "|%g", *r.Salary)
		}
		sum += h.Sum64()
	}
	return sum
}
