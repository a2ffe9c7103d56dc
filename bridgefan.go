package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/macdylan/smbridgefan/fix"
	"github.com/macdylan/smbridgefan/internal/config"
	"github.com/macdylan/smbridgefan/internal/logging"
)

var errNoInput = errors.New("no G-code file given and stdin is not a pipe")

var rootCmd = &cobra.Command{
	Use:           "smbridgefan [file.gcode]",
	Short:         "Spin up the part cooling fan before bridges",
	Long:          usage(),
	Version:       Version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFix,
}

func init() {
	config.RegisterFlags(rootCmd.Flags())
}

func main() {
	stop, err := startProfile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	err = rootCmd.Execute()
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runFix(cmd *cobra.Command, args []string) error {
	v, err := config.New(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := config.Load(v, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup(cfg.LogLevel)

	switch {
	case len(args) == 1:
		return fixFile(args[0], cfg, logger)
	case stdinIsPipe():
		return process(os.Stdin, os.Stdout, cfg, logger)
	default:
		return noInput(cmd)
	}
}

func noInput(cmd *cobra.Command) error {
	if err := cmd.Help(); err != nil {
		return err
	}
	return errNoInput
}

// fixFile rewrites path in place. Nothing is written unless the whole file was processed.
func fixFile(path string, cfg *config.Config, logger zerolog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read gcode: %w", err)
	}

	var out bytes.Buffer
	if err := process(bytes.NewReader(data), &out, cfg, logger.With().Str("file", path).Logger()); err != nil {
		return err
	}

	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat gcode: %w", err)
	}
	if err := os.WriteFile(path, out.Bytes(), st.Mode().Perm()); err != nil {
		return fmt.Errorf("write gcode: %w", err)
	}
	return nil
}

func process(in io.Reader, out io.Writer, cfg *config.Config, logger zerolog.Logger) error {
	src, err := readGcode(in)
	if err != nil {
		return fmt.Errorf("read gcode: %w", err)
	}

	opts := cfg.BridgeFanOptions()
	if !cfg.FanSpeedExplicit {
		if speed, ok := fix.FanSpeedFromSettings(src.lines); ok {
			logger.Debug().Int("fan_speed", speed).Msg("bridge fan speed taken from slicer settings")
			opts.FanSpeed = speed
		}
	}

	lines, report, err := fix.GcodeSpinUpBridgeFan(src.lines, opts)
	if err != nil {
		return err
	}

	for _, b := range report.Bridges {
		ev := logger.Debug().
			Int("line", b.Index+1).
			Str("action", string(b.Action)).
			Float64("lead", b.Lead)
		if b.Action == fix.BridgeInserted {
			ev = ev.Int("insert_at", b.InsertAt+1).Bool("partial", b.Partial)
		}
		if b.Err != nil {
			ev = ev.Err(b.Err)
		}
		ev.Msg("bridge")
	}
	logger.Info().
		Int("bridges", len(report.Bridges)).
		Int("inserted", report.Count(fix.BridgeInserted)).
		Int("covered", report.Count(fix.BridgeCovered)).
		Int("skipped", report.Count(fix.BridgeSkipped)).
		Float64("lead_time", opts.LeadTime).
		Int("fan_speed", opts.FanSpeed).
		Msg("bridge fan lead applied")

	src.lines = lines
	if err := writeGcode(out, src); err != nil {
		return fmt.Errorf("write gcode: %w", err)
	}
	return nil
}
