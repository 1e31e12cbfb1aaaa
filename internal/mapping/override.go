package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOverride marks a caller-supplied mapping override that names
// an unknown column or field.
var ErrInvalidOverride = errors.New("invalid mapping override")

// ApplyOverrides rewrites detections from a caller-supplied header→field
// map, taking precedence over the classifier. An overridden column gets
// confidence 1.0; any other column holding the same tag is demoted to
// ignored. Header names match case-insensitively after trimming.
func ApplyOverrides(result *MappingResult, overrides map[string]FieldTag) error {
	for header, tag := range overrides {
		if tag != "" && !IsValid(string(tag)) {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidOverride, tag)
		}

		idx := -1
		for i, cd := range result.Columns {
			if strings.EqualFold(strings.TrimSpace(cd.Column.Header), strings.TrimSpace(header)) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: no column named %q", ErrInvalidOverride, header)
		}

		// Release the tag from whichever column currently holds it.
		if tag != "" {
			for i := range result.Columns {
				if i != idx && result.Columns[i].Detection.Field == tag {
					result.Columns[i].Detection = Detection{ColumnIndex: result.Columns[i].Column.Index}
				}
			}
		}

		result.Columns[idx].Detection = Detection{
			ColumnIndex: result.Columns[idx].Column.Index,
			Field:       tag,
			Confidence:  1.0,
		}
		if tag == "" {
			result.Columns[idx].Detection.Confidence = 0
		}
	}
	return nil
}
