package ingest

import (
	"fmt"
	"time"

	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

// RawRow is one unvalidated posting row as it arrives from a source. All
// fields are raw text; Process owns every parsing and normalisation step so
// sources stay dumb.
type RawRow struct {
	// Row is the 1-based position in the source input, carried into the
	// quarantine list. Zero means "use the slice position".
	Row int

	ID         string
	Date       string
	Title      string
	JobType    string
	Company    string
	Location   string
	Salary     string
	Skills     string
	Experience string
	Education  string
	Remote     string
}

// Options tunes Process.
type Options struct {
	// IDPrefix namespaces generated record IDs for rows that arrive
	// without one. Defaults to "row".
	IDPrefix string
}

// dateLayouts are the accepted date forms, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Process validates and normalises raw rows into canonical records. Rows
// that fail validation land in the quarantine list with a reason code and
// never reach the record set; the batch itself always succeeds.
func Process(rows []RawRow, opts Options) ([]types.JobRecord, []types.RejectedRecord) {
	prefix := opts.IDPrefix
	if prefix == "" {
		prefix = "row"
	}

	records := make([]types.JobRecord, 0, len(rows))
	var rejected []types.RejectedRecord

	for i, row := range rows {
		rowNum := row.Row
		if rowNum == 0 {
			rowNum = i + 1
		}

		rawDate := CleanText(row.Date)
		if rawDate == "" {
			rejected = append(rejected, types.RejectedRecord{
				Row:    rowNum,
				Reason: types.RejectMissingDate,
			})
			continue
		}
		date, ok := parseDate(rawDate)
		if !ok {
			rejected = append(rejected, types.RejectedRecord{
				Row:    rowNum,
				Reason: types.RejectInvalidDate,
				Detail: rawDate,
			})
			continue
		}

		title := CleanText(row.Title)
		if title == "" {
			rejected = append(rejected, types.RejectedRecord{
				Row:    rowNum,
				Reason: types.RejectMissingTitle,
			})
			continue
		}

		company := CleanText(row.Company)
		if company == "" {
			company = "Unknown"
		}

		id := CleanText(row.ID)
		if id == "" {
			id = fmt.Sprintf("%s-%d", prefix, rowNum)
		}

		records = append(records, types.JobRecord{
			ID:              id,
			Date:            date,
			Title:           title,
			JobType:         InferJobType(row.JobType, title),
			Company:         company,
			Location:        CleanText(row.Location),
			Salary:          ParseSalary(row.Salary),
			Skills:          NormalizeSkills(SplitSkills(row.Skills)),
			ExperienceLevel: types.ParseExperience(row.Experience),
			Education:       CleanText(row.Education),
			RemoteOption:    types.ParseRemoteOption(row.Remote),
		})
	}

	return records, rejected
}

// parseDate tries each accepted layout and truncates the result to day
// precision in UTC.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}
