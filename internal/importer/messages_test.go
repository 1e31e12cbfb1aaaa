package importer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/growmetrics/sheetimport/internal/source"
)

func TestMapError_Codes(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{source.ErrSourceUnreachable, "SRC001"},
		{fmt.Errorf("%w: export returned status 403", source.ErrSourceUnreachable), "SRC001"},
		{source.ErrSourceEmpty, "SRC002"},
		{fmt.Errorf("%w: 60000 rows exceeds limit of 50000", source.ErrSourceTooLarge), "SRC003"},
		{ErrImportInProgress, "IMP001"},
		{errors.New("apply import: connection lost"), "IMP002"},
		{errors.New("dial tcp: connection refused"), "DB001"},
		{errors.New("context canceled"), "REQ001"},
		{errors.New("context deadline exceeded"), "REQ002"},
		{errors.New("something nobody anticipated"), "ERR000"},
	}

	for _, tt := range tests {
		got := MapError(tt.err)
		if got.Code != tt.code {
			t.Errorf("MapError(%v).Code = %s, want %s", tt.err, got.Code, tt.code)
		}
		if got.Message == "" || got.Action == "" {
			t.Errorf("MapError(%v) missing message or action: %+v", tt.err, got)
		}
	}
}

func TestMapError_Nil(t *testing.T) {
	if got := MapError(nil); got != (UserMessage{}) {
		t.Errorf("MapError(nil) = %+v, want zero value", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	if !IsUserFacing(ErrImportInProgress) {
		t.Error("ErrImportInProgress should be user-facing")
	}
	if IsUserFacing(errors.New("internal invariant broken")) {
		t.Error("unmatched errors are not user-facing")
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(source.ErrSourceEmpty)
	want := "The sheet has no data rows (Code: SRC002). Add data below the header row and try again"
	if got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
}
