package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// GoogleSheets fetches a sheet as CSV through the public export endpoint.
// The sheet must be link-shared ("anyone with the link can view"); no
// OAuth flow is involved.
type GoogleSheets struct {
	client   *http.Client
	maxBytes int64
	maxRows  int
}

// GoogleSheetsOptions bound a fetch. Zero values fall back to defaults
// suited to interactive imports.
type GoogleSheetsOptions struct {
	Timeout  time.Duration
	MaxBytes int64
	MaxRows  int
}

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxBytes     = 20 << 20 // 20 MiB of CSV
	defaultMaxRows      = 50000
)

// NewGoogleSheets builds a connector with the given bounds.
func NewGoogleSheets(opts GoogleSheetsOptions) *GoogleSheets {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultFetchTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = defaultMaxRows
	}
	return &GoogleSheets{
		client:   &http.Client{Timeout: opts.Timeout},
		maxBytes: opts.MaxBytes,
		maxRows:  opts.MaxRows,
	}
}

var (
	sheetURLPattern = regexp.MustCompile(`/spreadsheets/d/([A-Za-z0-9_-]+)`)
	sheetIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{20,}$`)
	gidPattern      = regexp.MustCompile(`[#&?]gid=(\d+)`)
)

// ExportURL converts a share URL or bare spreadsheet ID into the CSV
// export endpoint, preserving the tab selector (gid) when present.
func ExportURL(sourceRef string) (string, error) {
	ref := strings.TrimSpace(sourceRef)

	var id string
	switch {
	case sheetURLPattern.MatchString(ref):
		id = sheetURLPattern.FindStringSubmatch(ref)[1]
	case sheetIDPattern.MatchString(ref):
		id = ref
	default:
		return "", fmt.Errorf("unrecognized sheet reference %q", sourceRef)
	}

	export := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", url.PathEscape(id))
	if m := gidPattern.FindStringSubmatch(ref); m != nil {
		export += "&gid=" + m[1]
	}
	return export, nil
}

// Fetch downloads and parses the sheet. Permission failures and transport
// errors surface as ErrSourceUnreachable; a headerless or row-less sheet
// as ErrSourceEmpty; exceeding the row cap as ErrSourceTooLarge.
func (g *GoogleSheets) Fetch(ctx context.Context, sourceRef string) (*Sheet, error) {
	exportURL, err := ExportURL(sourceRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// The export endpoint answers 302→login (seen as 403/401 here)
		// for sheets that are not link-shared.
		return nil, fmt.Errorf("%w: export returned status %d (is the sheet link-shared?)", ErrSourceUnreachable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}
	if int64(len(data)) > g.maxBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrSourceTooLarge, g.maxBytes)
	}

	return ParseCSV(data, g.maxRows)
}

// ParseCSV parses raw CSV bytes into a Sheet, tolerating ragged rows and
// loose quoting. maxRows caps the data row count; zero means no cap.
func ParseCSV(data []byte, maxRows int) (*Sheet, error) {
	data = sanitize(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed csv: %v", ErrSourceUnreachable, err)
	}

	records = dropBlankRows(records)
	if len(records) == 0 {
		return nil, ErrSourceEmpty
	}

	sheet := &Sheet{Header: records[0], Rows: records[1:]}
	if len(sheet.Rows) == 0 {
		return nil, fmt.Errorf("%w: header row only", ErrSourceEmpty)
	}
	if maxRows > 0 && len(sheet.Rows) > maxRows {
		return nil, fmt.Errorf("%w: %d rows exceeds limit of %d", ErrSourceTooLarge, len(sheet.Rows), maxRows)
	}
	return sheet, nil
}

// dropBlankRows removes rows whose every cell is empty, which spreadsheet
// exports routinely append at the end.
func dropBlankRows(records [][]string) [][]string {
	out := records[:0]
	for _, row := range records {
		blank := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out
}
