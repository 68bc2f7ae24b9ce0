// Package importer turns tabular GTM experiment exports into persisted
// activities.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"example.com/gtm/internal/domain"
	"example.com/gtm/internal/observability"
)

// Column aliases per logical field. Exports come from different tools with
// different header spellings; the first non-empty match wins.
var (
	hypothesisAliases  = []string{"Hypothesis", "hypothesis"}
	audienceAliases    = []string{"Audience", "audience"}
	channelsAliases    = []string{"Channels", "channels"}
	descriptionAliases = []string{"Description/Activities", "Description", "description"}
	listSizeAliases    = []string{"List size", "List Size", "list_size"}
	meetingsAliases    = []string{"Meetings booked", "Meetings Booked", "meetings_booked"}
	startDateAliases   = []string{"T1 Date or Start", "Start Date", "start_date"}
	endDateAliases     = []string{"End Date", "end_date"}
	weeklyHrsAliases   = []string{"Est weekly hrs", "Est Weekly Hrs", "est_weekly_hrs"}
)

// dateLayouts are tried in priority order; the first successful parse wins.
// Dates that match none of them are dropped to null rather than kept as raw
// strings.
var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
}

// companionPattern matches companion document filenames of the form
// "<hypothesis> <32-hex-id>.md".
var companionPattern = regexp.MustCompile(`^(.+?)\s+([0-9a-f]{32})\.md$`)

// Importer reads a delimited export and creates one activity per usable row.
type Importer struct {
	service *domain.Service
	dataDir string
}

// New constructs an Importer. dataDir holds optional companion documents; it
// may be empty.
func New(service *domain.Service, dataDir string) *Importer {
	return &Importer{service: service, dataDir: dataDir}
}

// ImportCSV reads the file and persists every importable row, returning the
// number imported. Row-level problems (missing hypothesis, malformed fields,
// store failures) skip the row and continue; only an unreadable file aborts.
func (imp *Importer) ImportCSV(ctx context.Context, csvPath string) (int, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		// Exports saved from spreadsheets often carry a UTF-8 BOM.
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	imported := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("importer: skipping malformed row: %v", err)
			observability.RecordSkippedRow()
			continue
		}

		row := rowReader{columns: columns, record: record}
		hypothesis := row.first(hypothesisAliases)
		if hypothesis == "" {
			observability.RecordSkippedRow()
			continue
		}

		input := domain.CreateInput{
			Hypothesis:     hypothesis,
			Audience:       optionalString(row.first(audienceAliases)),
			Channels:       optionalString(row.first(channelsAliases)),
			Description:    imp.buildDescription(hypothesis, row.first(descriptionAliases)),
			ListSize:       parseInt(row.first(listSizeAliases)),
			MeetingsBooked: parseInt(row.first(meetingsAliases)),
			StartDate:      parseDate(row.first(startDateAliases)),
			EndDate:        parseDate(row.first(endDateAliases)),
			EstWeeklyHrs:   parseFloat(row.first(weeklyHrsAliases)),
		}

		activity, err := imp.service.Create(ctx, input)
		if err != nil {
			log.Printf("importer: skipping row %q: %v", hypothesis, err)
			observability.RecordSkippedRow()
			continue
		}

		imported++
		observability.RecordImportedRow()
		log.Printf("importer: imported #%d - %s", activity.ID, firstN(hypothesis, 50))
	}

	return imported, nil
}

// buildDescription joins the row's own description with the companion
// document content, when either exists.
func (imp *Importer) buildDescription(hypothesis, csvDescription string) *string {
	parts := make([]string, 0, 2)
	if csvDescription != "" {
		parts = append(parts, csvDescription)
	}
	if extra := imp.companionContent(hypothesis); extra != "" {
		parts = append(parts, extra)
	}
	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, "\n\n")
	return &joined
}

// companionContent locates the markdown document whose filename encodes this
// hypothesis and extracts its free-text body. A missing document is not an
// error.
func (imp *Importer) companionContent(hypothesis string) string {
	if imp.dataDir == "" {
		return ""
	}

	matches, err := filepath.Glob(filepath.Join(imp.dataDir, "*.md"))
	if err != nil {
		return ""
	}

	wanted := strings.TrimSpace(hypothesis)
	for _, path := range matches {
		m := companionPattern.FindStringSubmatch(filepath.Base(path))
		if m == nil || strings.TrimSpace(m[1]) != wanted {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("importer: reading %s: %v", path, err)
			return ""
		}
		return extractBody(string(content))
	}
	return ""
}

// extractBody skips the heading and the leading metadata lines (colon-keyed
// within their first 30 characters), then keeps everything that follows.
func extractBody(content string) string {
	lines := strings.Split(content, "\n")
	body := make([]string, 0, len(lines))
	inBody := false

	for _, line := range lines {
		if !inBody {
			if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
				continue
			}
			head := line
			if len(head) > 30 {
				head = head[:30]
			}
			if strings.Contains(head, ":") {
				continue
			}
			inBody = true
		}
		body = append(body, line)
	}

	return strings.TrimSpace(strings.Join(body, "\n"))
}

type rowReader struct {
	columns map[string]int
	record  []string
}

// first returns the trimmed value of the first alias with a non-empty cell.
func (r rowReader) first(aliases []string) string {
	for _, alias := range aliases {
		idx, ok := r.columns[alias]
		if !ok || idx >= len(r.record) {
			continue
		}
		if value := strings.TrimSpace(r.record[idx]); value != "" {
			return value
		}
	}
	return ""
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func parseInt(value string) *int {
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return nil
	}
	return &parsed
}

func parseFloat(value string) *float64 {
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 {
		return nil
	}
	return &parsed
}

func parseDate(value string) *domain.Date {
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			d := domain.Date{Time: t}
			return &d
		}
	}
	return nil
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
