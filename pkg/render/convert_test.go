package render

import (
	"testing"

	"github.com/matzehuels/reana/pkg/errors"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"dot", FormatDOT, true},
		{"SVG", FormatSVG, true},
		{"pdf", FormatPDF, true},
		{"Png", FormatPNG, true},
		{"jpeg", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.ok {
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
			continue
		}
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ParseFormat(%q) error = %v, want INVALID_INPUT", tt.in, err)
		}
	}
}
