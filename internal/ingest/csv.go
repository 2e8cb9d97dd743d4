package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// columnAliases maps header spellings seen in exported datasets onto the
// canonical column names DecodeCSV understands.
var columnAliases = map[string]string{
	"date":             "date",
	"posting_date":     "date",
	"id":               "id",
	"job_id":           "id",
	"title":            "title",
	"job_title":        "title",
	"job_type":         "job_type",
	"type":             "job_type",
	"category":         "job_type",
	"company":          "company",
	"company_name":     "company",
	"location":         "location",
	"salary":           "salary",
	"skills":           "skills",
	"technologies":     "skills",
	"tags":             "skills",
	"experience":       "experience",
	"experience_level": "experience",
	"seniority":        "experience",
	"education":        "education",
	"remote":           "remote",
	"remote_option":    "remote",
	"remote_options":   "remote",
	"work_mode":        "remote",
}

// DecodeCSV reads a headered CSV stream into raw rows. Column order is
// free, unknown columns are ignored, and ragged rows are tolerated with
// missing cells read as empty. Row numbers count data rows from 1, header
// excluded.
func DecodeCSV(r io.Reader) ([]RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("ingest: decode csv: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("ingest: decode csv: read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := canonicalColumn(name)
		if key == "" {
			continue
		}
		if _, dup := cols[key]; dup {
			continue
		}
		cols[key] = i
	}
	if _, ok := cols["date"]; !ok {
		return nil, fmt.Errorf("ingest: decode csv: no date column in header %v", header)
	}

	var rows []RawRow
	for n := 1; ; n++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: decode csv: row %d: %w", n, err)
		}
		cell := func(key string) string {
			i, ok := cols[key]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}
		rows = append(rows, RawRow{
			Row:        n,
			ID:         cell("id"),
			Date:       cell("date"),
			Title:      cell("title"),
			JobType:    cell("job_type"),
			Company:    cell("company"),
			Location:   cell("location"),
			Salary:     cell("salary"),
			Skills:     cell("skills"),
			Experience: cell("experience"),
			Education:  cell("education"),
			Remote:     cell("remote"),
		})
	}
	return rows, nil
}

// canonicalColumn folds a header cell to its canonical column name, or ""
// when the column is not one we read.
func canonicalColumn(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimPrefix(key, "\uFEFF")
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return columnAliases[key]
}
