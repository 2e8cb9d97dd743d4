// Package ingest turns raw posting rows into canonical JobRecords.
//
// Sources produce RawRow values: DecodeCSV reads a header-driven CSV file,
// Fetcher pulls listings from a job-board HTTP API, and Sample generates a
// deterministic synthetic dataset. All three feed Process, which validates
// each row (quarantining rejects with a reason code) and normalises the
// fields: job type classification with an Other fallback, skill token
// canonicalisation, salary parsing, seniority and work-mode mapping.
//
// Rejection never aborts a batch. Process returns the canonical records and
// the quarantine list side by side; a malformed salary or skill cell
// degrades to an absent field, only a missing/invalid date or a missing
// title rejects the row.
package ingest
