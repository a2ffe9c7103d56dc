package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetupWithWriterLevel(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
	}{
		{"debug", true},
		{"DEBUG", true},
		{"info", false},
		{"", false},
		{"bogus", false},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := SetupWithWriter(tt.level, &buf)
		logger.Debug().Msg("debug line")
		logger.Info().Int("bridges", 2).Msg("info line")

		out := buf.String()
		if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
			t.Errorf("level %q: debug written = %v, want %v", tt.level, got, tt.wantDebug)
		}
		if !strings.Contains(out, `"bridges":2`) {
			t.Errorf("level %q: info line missing from %q", tt.level, out)
		}
	}
}
