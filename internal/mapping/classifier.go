package mapping

import (
	"fmt"
	"sort"
	"strings"
)

// Scoring weights. Headers are the more reliable signal when present, but
// a strong content match alone must still clear the acceptance threshold
// so that mislabeled or headerless sheets remain importable.
const (
	headerWeight        = 0.6
	contentWeight       = 0.4
	contentOnlyWeight   = 0.7
	headerOnlyWeight    = 0.95
	AcceptanceThreshold = 0.55
)

// Column is one raw sheet column: its position, header text, and the
// sample values used for content probing. Immutable once read.
type Column struct {
	Index   int      `json:"index"`
	Header  string   `json:"header"`
	Samples []string `json:"-"`
}

// Detection is the classification outcome for one column. A nil Field
// means no tag cleared the acceptance threshold and the column is ignored.
type Detection struct {
	ColumnIndex int      `json:"column_index"`
	Field       FieldTag `json:"field,omitempty"`
	Confidence  float64  `json:"confidence"`
}

// Detected reports whether the column mapped to a field.
func (d Detection) Detected() bool { return d.Field != "" }

// ColumnDetection pairs a column with its detection for reporting.
type ColumnDetection struct {
	Column    Column    `json:"column"`
	Detection Detection `json:"detection"`
}

// MappingResult is the full, side-effect-free preview of a sheet: every
// column with its detected role, plus row/column counts and warnings.
// It is deterministic for a given header and sample window.
type MappingResult struct {
	RowCount    int               `json:"row_count"`
	ColumnCount int               `json:"column_count"`
	Columns     []ColumnDetection `json:"columns"`
	Warnings    []string          `json:"warnings"`
}

// FieldIndex returns the column index detected for a tag, or -1.
func (m *MappingResult) FieldIndex(tag FieldTag) int {
	for _, cd := range m.Columns {
		if cd.Detection.Field == tag {
			return cd.Column.Index
		}
	}
	return -1
}

// Detections returns the tag→column-index map for detected columns.
func (m *MappingResult) Detections() map[FieldTag]int {
	out := make(map[FieldTag]int)
	for _, cd := range m.Columns {
		if cd.Detection.Detected() {
			out[cd.Detection.Field] = cd.Column.Index
		}
	}
	return out
}

// Classify scores every column against the field vocabulary and resolves
// conflicts so that at most one column maps to each tag. rowCount is the
// full data row count being reported, which may exceed the sample window.
func Classify(header []string, samples [][]string, rowCount int) *MappingResult {
	columns := buildColumns(header, samples)

	result := &MappingResult{
		RowCount:    rowCount,
		ColumnCount: len(columns),
	}

	best := make([]Detection, len(columns))
	for i, col := range columns {
		best[i] = classifyColumn(col)
	}

	resolveConflicts(columns, best, result)

	for i, col := range columns {
		result.Columns = append(result.Columns, ColumnDetection{Column: col, Detection: best[i]})
	}

	detected := 0
	for _, d := range best {
		if d.Detected() {
			detected++
		}
	}
	if detected == 0 {
		result.Warnings = append(result.Warnings, "no recognizable fields detected")
	} else {
		for _, key := range []FieldTag{FieldOrderDate, FieldAmount} {
			if result.FieldIndex(key) < 0 {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("no column detected for %s; imported orders may be incomplete", key))
			}
		}
	}

	return result
}

// buildColumns assembles Column values from the header row and the
// column-major sample window.
func buildColumns(header []string, samples [][]string) []Column {
	columns := make([]Column, len(header))
	for i, h := range header {
		col := Column{Index: i, Header: h}
		for _, row := range samples {
			if i < len(row) {
				col.Samples = append(col.Samples, row[i])
			}
		}
		columns[i] = col
	}
	return columns
}

// classifyColumn scores one column against every tag and keeps the best.
// Ties between tags go to the earlier tag in AllFields order.
func classifyColumn(col Column) Detection {
	d := Detection{ColumnIndex: col.Index}
	for _, tag := range AllFields {
		score := scoreColumn(col, tag)
		if score > d.Confidence {
			d.Confidence = score
			d.Field = tag
		}
	}
	if d.Confidence < AcceptanceThreshold {
		return Detection{ColumnIndex: col.Index}
	}
	return d
}

// scoreColumn combines the header-alias signal with the content match
// rate. Tags without a content probe are scored on the header alone, so
// a containment match like "Customer Full Name" still clears the
// threshold. Columns with no header signal can still qualify on content
// alone for content-driven tags.
func scoreColumn(col Column, tag FieldTag) float64 {
	header := headerScore(col.Header, tag)
	content := contentScore(col.Samples, tag)

	if _, probed := contentProbes[tag]; !probed {
		return header * headerOnlyWeight
	}
	if header == 0 && contentDriven[tag] {
		return content * contentOnlyWeight
	}
	return header*headerWeight + content*contentWeight
}

// headerScore rates the header text against the tag's aliases:
// exact normalized match 1.0, containment either way 0.8, shared
// token 0.5.
func headerScore(header string, tag FieldTag) float64 {
	h := normalizeHeader(header)
	if h == "" {
		return 0
	}

	best := 0.0
	for _, alias := range fieldAliases[tag] {
		switch {
		case h == alias:
			return 1.0
		case strings.Contains(h, alias) || (len(h) >= 3 && strings.Contains(alias, h)):
			if best < 0.8 {
				best = 0.8
			}
		case sharesToken(h, alias):
			if best < 0.5 {
				best = 0.5
			}
		}
	}
	return best
}

// contentScore is the share of non-blank sample values that match the
// tag's probe. Tags without a probe score zero on content.
func contentScore(samples []string, tag FieldTag) float64 {
	probe, ok := contentProbes[tag]
	if !ok {
		return 0
	}

	total, hits := 0, 0
	for _, v := range samples {
		if strings.TrimSpace(v) == "" {
			continue
		}
		total++
		if probe(v) {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// normalizeHeader lowercases and folds punctuation to single spaces so
// "E-Mail_Address" and "email address" compare equal.
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func sharesToken(a, b string) bool {
	at := strings.Fields(a)
	bt := strings.Fields(b)
	for _, x := range at {
		if len(x) < 3 {
			continue
		}
		for _, y := range bt {
			if x == y {
				return true
			}
		}
	}
	return false
}

// resolveConflicts enforces at most one column per tag: the
// highest-confidence column keeps the tag, the rest are demoted to
// ignored with a warning. Equal confidence keeps the leftmost column.
func resolveConflicts(columns []Column, best []Detection, result *MappingResult) {
	byTag := make(map[FieldTag][]int)
	for i, d := range best {
		if d.Detected() {
			byTag[d.Field] = append(byTag[d.Field], i)
		}
	}

	// Walk tags in fixed order for deterministic warning output.
	for _, tag := range AllFields {
		idxs := byTag[tag]
		if len(idxs) < 2 {
			continue
		}

		sort.SliceStable(idxs, func(a, b int) bool {
			return best[idxs[a]].Confidence > best[idxs[b]].Confidence
		})

		winner := idxs[0]
		for _, i := range idxs[1:] {
			best[i] = Detection{ColumnIndex: best[i].ColumnIndex}
		}
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("multiple columns matched %s; used column %q", tag, columns[winner].Header))
	}
}
