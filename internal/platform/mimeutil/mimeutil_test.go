package mimeutil

import "testing"

func TestDispositionFilename(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"attachment", ""},
		{`attachment; filename="report.pdf"`, "report.pdf"},
		{`attachment; filename="report 1.pdf"`, "report 1.pdf"},
		{"attachment; filename*=UTF-8''b%C3%A9ret.pdf", "béret.pdf"},
		// The RFC 5987 form wins when both are present.
		{`attachment; filename="fallback.pdf"; filename*=UTF-8''b%C3%A9ret.pdf`, "béret.pdf"},
		{"garbage;;;", ""},
	}
	for _, tt := range tests {
		if got := DispositionFilename(tt.header); got != tt.want {
			t.Errorf("DispositionFilename(%q): expected %q, got %q", tt.header, tt.want, got)
		}
	}
}

func TestEncodeDispositionFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"", "attachment"},
		{"report.pdf", `attachment; filename="report.pdf"`},
		{"report 1.pdf", `attachment; filename="report 1.pdf"`},
		{"béret.pdf", "attachment; filename*=UTF-8''b%C3%A9ret.pdf"},
		{`with"quote.txt`, "attachment; filename*=UTF-8''with%22quote.txt"},
	}
	for _, tt := range tests {
		if got := EncodeDispositionFilename(tt.filename); got != tt.want {
			t.Errorf("EncodeDispositionFilename(%q): expected %q, got %q", tt.filename, tt.want, got)
		}
	}
}

func TestDispositionRoundTrip(t *testing.T) {
	for _, name := range []string{"report.pdf", "report 1.pdf", "béret.pdf"} {
		if got := DispositionFilename(EncodeDispositionFilename(name)); got != name {
			t.Errorf("%q did not survive the round trip: %q", name, got)
		}
	}
}
