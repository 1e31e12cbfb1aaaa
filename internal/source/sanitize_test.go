package source

import (
	"bytes"
	"testing"
	"unicode/utf8"
)

func TestSanitize_ValidPassthrough(t *testing.T) {
	in := []byte("Email,Name\nañn@x.com,Ann\n")
	if got := sanitize(in); !bytes.Equal(got, in) {
		t.Errorf("sanitize changed valid UTF-8: %q", got)
	}
}

func TestSanitize_ReplacesInvalidBytes(t *testing.T) {
	in := []byte{'a', 0xFF, 'b'}
	got := sanitize(in)
	if !utf8.Valid(got) {
		t.Fatalf("sanitize output is not valid UTF-8: %q", got)
	}
	if !bytes.Contains(got, []byte("�")) {
		t.Errorf("invalid byte should become the replacement character: %q", got)
	}
}

func TestSanitize_StripsBOM(t *testing.T) {
	in := append([]byte{0xEF, 0xBB, 0xBF}, []byte("abc")...)
	if got := sanitize(in); !bytes.Equal(got, []byte("abc")) {
		t.Errorf("sanitize = %q, want %q", got, "abc")
	}
}
