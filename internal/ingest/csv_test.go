package ingest

import (
	"strings"
	"testing"
)

func TestDecodeCSV(t *testing.T) {
	data := `date,job_title,job_type,company,location,salary
2025-01-15,Frontend Developer,Frontend,Google,"San Francisco, CA","$120,000"
2025-02-20,Backend Engineer,Backend,Stripe,Remote,
`
	rows, err := DecodeCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	first := rows[0]
	if first.Row != 1 {
		t.Errorf("Row = %d, want 1", first.Row)
	}
	if first.Date != "2025-01-15" {
		t.Errorf("Date = %q", first.Date)
	}
	if first.Title != "Frontend Developer" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Location != "San Francisco, CA" {
		t.Errorf("Location = %q", first.Location)
	}
	if first.Salary != "$120,000" {
		t.Errorf("Salary = %q", first.Salary)
	}
	if rows[1].Salary != "" {
		t.Errorf("second Salary = %q, want empty", rows[1].Salary)
	}
}

func TestDecodeCSV_HeaderAliases(t *testing.T) {
	data := `Date,Title,Category,Company Name,Remote Options,Experience Level
2025-03-01,ML Engineer,Machine Learning,OpenAI,remote,senior
`
	rows, err := DecodeCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows", len(rows))
	}
	row := rows[0]
	if row.Title != "ML Engineer" {
		t.Errorf("Title = %q", row.Title)
	}
	if row.JobType != "Machine Learning" {
		t.Errorf("JobType = %q", row.JobType)
	}
	if row.Company != "OpenAI" {
		t.Errorf("Company = %q", row.Company)
	}
	if row.Remote != "remote" {
		t.Errorf("Remote = %q", row.Remote)
	}
	if row.Experience != "senior" {
		t.Errorf("Experience = %q", row.Experience)
	}
}

func TestDecodeCSV_UnknownColumnsAndRaggedRows(t *testing.T) {
	data := `date,title,benefits
2025-01-01,Engineer,unlimited pto
2025-01-02,Developer
`
	rows, err := DecodeCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[1].Title != "Developer" {
		t.Errorf("Title = %q", rows[1].Title)
	}
	if rows[1].Row != 2 {
		t.Errorf("Row = %d, want 2", rows[1].Row)
	}
}

func TestDecodeCSV_NoDateColumn(t *testing.T) {
	data := `title,company
Engineer,Google
`
	if _, err := DecodeCSV(strings.NewReader(data)); err == nil {
		t.Fatal("expected error for missing date column")
	}
}

func TestDecodeCSV_Empty(t *testing.T) {
	if _, err := DecodeCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}
