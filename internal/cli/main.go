package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "hlshorts <source>",
		Short:        "Pick vertical shorts from a long video and caption them",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	f := root.Flags()
	f.String("captions", "", "WebVTT caption track for the source")
	f.Float64("duration", 0, "Source duration in seconds (probed when 0)")
	f.String("out", "out", "Output directory")
	f.String("config", getenvDefault("HLSHORTS_CONFIG", ""), "YAML config file")

	// clip selection
	f.Int("clips", 5, "Maximum number of shorts")
	f.Int("min", 30, "Min short duration seconds")
	f.Int("max", 60, "Max short duration seconds")

	// caption style
	f.Int("max-words", 4, "Words per caption chunk (2-10)")
	f.String("font", "Arial", "Caption font family")
	f.Int("font-size", 24, "Caption font size (12-48)")
	f.String("font-weight", "bold", "Caption font weight (normal|bold)")
	f.String("color", "#FFFFFF", "Caption text colour (#RRGGBB)")
	f.String("background", "transparent", "Caption background colour (#RRGGBB or transparent)")
	f.String("position", "bottom", "Caption position (top|middle|bottom)")

	// collaborators
	f.Bool("render", false, "Cut 9:16 clips with ffmpeg and burn in captions")
	f.Bool("transcribe", false, "Transcribe with whisper.cpp when no captions are given")
	f.String("cache-dir", ".hlshorts-cache", "Clip cache and scratch directory")

	f.String("log-level", getenvDefault("HLSHORTS_LOG_LEVEL", "info"), "Log level (error|warn|info|debug|trace)")
	f.String("log-format", getenvDefault("HLSHORTS_LOG_FORMAT", "text"), "Log format (default|text|json)")

	return root
}
