package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/macdylan/smbridgefan/internal/config"
)

const sample = "G90\nG1 X0 F6000\nG1 X100\n;BRIDGE\n"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SLIC3R_BRIDGE_FAN_SPEED", "SLIC3R_OVERHANG_FAN_SPEED",
		"SMBRIDGEFAN_LEAD_TIME", "SMBRIDGEFAN_FAN_SPEED", "SMBRIDGEFAN_MARKERS",
		"SMBRIDGEFAN_DEFAULT_FEEDRATE", "SMBRIDGEFAN_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func testConfig(lead float64, speed int) *config.Config {
	cfg := config.Default()
	cfg.LeadTime = lead
	cfg.FanSpeed = speed
	cfg.FanSpeedExplicit = true
	return cfg
}

func TestReadWriteGcode(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		lines int
		eol   string
	}{
		{"lf", "G90\nG1 X1\n", 2, "\n"},
		{"crlf", "G90\r\nG1 X1\r\n", 2, "\r\n"},
		{"no trailing newline", "G90\nG1 X1", 2, "\n"},
		{"blank lines", "G90\n\n\nG1 X1\n", 4, "\n"},
		{"empty", "", 0, "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := readGcode(strings.NewReader(tt.in))
			if err != nil {
				t.Fatal(err)
			}
			if len(g.lines) != tt.lines {
				t.Errorf("len(lines) = %d, want %d", len(g.lines), tt.lines)
			}
			if g.eol != tt.eol {
				t.Errorf("eol = %q, want %q", g.eol, tt.eol)
			}

			var out bytes.Buffer
			if err := writeGcode(&out, g); err != nil {
				t.Fatal(err)
			}
			if out.String() != tt.in {
				t.Errorf("round trip = %q, want %q", out.String(), tt.in)
			}
		})
	}
}

func TestReadGcodeMixedLineEndings(t *testing.T) {
	g, err := readGcode(strings.NewReader("G90\r\nG1 X0 F6000\nG1 X100\r\n;BRIDGE\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"G90", "G1 X0 F6000", "G1 X100", ";BRIDGE"}
	if !slices.Equal(g.lines, want) {
		t.Errorf("lines = %q, want %q", g.lines, want)
	}
	if g.eol != "\r\n" || !g.trailing {
		t.Errorf("eol = %q, trailing = %v, want CRLF with trailing", g.eol, g.trailing)
	}
}

func TestProcessMixedLineEndings(t *testing.T) {
	clearEnv(t)

	in := "G90\r\nG1 X0 F6000\nG1 X100\r\n;BRIDGE\r\n"
	var out bytes.Buffer
	if err := process(strings.NewReader(in), &out, testConfig(0.5, 100), zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	want := "G90\r\nG1 X0 F6000\r\nM106 S255 ; spin up before bridge (lead 0.5s)\r\nG1 X100\r\n;BRIDGE\r\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestProcess(t *testing.T) {
	clearEnv(t)

	var out bytes.Buffer
	if err := process(strings.NewReader(sample), &out, testConfig(0.5, 100), zerolog.Nop()); err != nil {
		t.Fatal(err)
	}

	want := "G90\nG1 X0 F6000\nM106 S255 ; spin up before bridge (lead 0.5s)\nG1 X100\n;BRIDGE\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestProcessCRLF(t *testing.T) {
	clearEnv(t)

	in := strings.ReplaceAll(sample, "\n", "\r\n")
	var out bytes.Buffer
	if err := process(strings.NewReader(in), &out, testConfig(0.5, 100), zerolog.Nop()); err != nil {
		t.Fatal(err)
	}

	want := "G90\r\nG1 X0 F6000\r\nM106 S255 ; spin up before bridge (lead 0.5s)\r\nG1 X100\r\n;BRIDGE\r\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestProcessFanSpeedFromSlicer(t *testing.T) {
	clearEnv(t)

	in := sample + "; bridge_fan_speed = 80\n"

	cfg := testConfig(0.5, 100)
	cfg.FanSpeedExplicit = false
	var out bytes.Buffer
	if err := process(strings.NewReader(in), &out, cfg, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "M106 S204 ;") {
		t.Errorf("output should use the slicer bridge fan speed:\n%s", out.String())
	}

	// an explicit setting wins
	out.Reset()
	if err := process(strings.NewReader(in), &out, testConfig(0.5, 100), zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "M106 S255 ;") {
		t.Errorf("output should use the configured fan speed:\n%s", out.String())
	}
}

func TestProcessInvalidOptions(t *testing.T) {
	clearEnv(t)

	var out bytes.Buffer
	if err := process(strings.NewReader(sample), &out, testConfig(-1, 100), zerolog.Nop()); err == nil {
		t.Fatal("expected an error for a negative lead time")
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be written, got %q", out.String())
	}
}

func TestFixFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "part.gcode")
	if err := os.WriteFile(path, []byte(sample), 0o640); err != nil {
		t.Fatal(err)
	}

	if err := fixFile(path, testConfig(0.5, 100), zerolog.Nop()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 5 {
		t.Errorf("file has %d lines, want 5:\n%s", got, data)
	}

	// running again leaves the file alone
	if err := fixFile(path, testConfig(0.5, 100), zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	again, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Errorf("second run changed the file:\n%s", again)
	}
}

func TestRootCommand(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "part.gcode")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"--lead-time", "0.5", "--fan-speed", "80", "--log-level", "error", path})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "M106 S204 ; spin up before bridge (lead 0.5s)") {
		t.Errorf("fan command missing:\n%s", data)
	}
}

func TestNoInput(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	if err := noInput(rootCmd); !errors.Is(err, errNoInput) {
		t.Errorf("noInput() error = %v, want %v", err, errNoInput)
	}
	if !strings.Contains(out.String(), "Start the part cooling fan") {
		t.Errorf("help text missing:\n%s", out.String())
	}
}
