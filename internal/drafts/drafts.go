// Package drafts loads draft email records from the CSV file produced by the
// outreach pipeline.
package drafts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoDrafts is returned by callers when a sync is requested but no draft
// records are available from any source.
var ErrNoDrafts = errors.New("no drafts to sync")

// Draft is one outbound email draft to be created in the mailbox.
// To may be empty; drafts without a recipient are still created so the
// address can be filled in by hand before sending.
type Draft struct {
	Company string
	To      string
	Subject string
	Body    string
}

// Recipient column names checked in order. The pipeline stages disagree on
// what the recipient column is called, so all known variants are accepted.
var recipientColumns = []string{"to_email", "contact_email", "email"}

// ReadFile loads drafts from a CSV file with a header row.
// An empty or header-only file yields an empty slice. Ragged rows are
// tolerated; missing cells read as empty strings.
func ReadFile(path string) ([]Draft, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open drafts file: %w", err)
	}
	defer file.Close()

	return Read(file)
}

// Read loads drafts from CSV data with a header row.
func Read(r io.Reader) ([]Draft, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []Draft{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	// Map column name to index; the first cell may carry a UTF-8 BOM
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cell := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var result []Draft
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read CSV row %d: %w", line, err)
		}

		company := cell(record, "company")
		if company == "" {
			company = cell(record, "company_name")
		}

		to := ""
		for _, col := range recipientColumns {
			if v := cell(record, col); v != "" {
				to = v
				break
			}
		}
		if to == "" {
			// The scraper stage emits a bracketed list of addresses
			if addrs := ExtractEmails(cell(record, "contact_emails")); len(addrs) > 0 {
				to = addrs[0]
			}
		}

		result = append(result, Draft{
			Company: company,
			To:      to,
			Subject: cell(record, "subject"),
			Body:    cell(record, "body"),
		})
	}

	if result == nil {
		result = []Draft{}
	}
	return result, nil
}
