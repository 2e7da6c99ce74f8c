package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/mudler/xlog"
	"github.com/spf13/cobra"

	"github.com/forPelevin/hlshorts/internal/config"
	"github.com/forPelevin/hlshorts/internal/pipeline"
)

func run(cmd *cobra.Command, source string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	xlog.SetLogger(xlog.NewLogger(xlog.LogLevel(settings.Log.Level), settings.Log.Format))

	captions, _ := cmd.Flags().GetString("captions")
	duration, _ := cmd.Flags().GetFloat64("duration")
	outDir, _ := cmd.Flags().GetString("out")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 3*time.Hour)
	defer cancel()

	cfg := pipeline.Config{
		Input:    source,
		Captions: captions,
		Duration: duration,
		OutDir:   outDir,
		Settings: settings,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.RunDir)
	return nil
}

// loadSettings reads the config file, if any, then applies flags the user
// set explicitly and the whisper.cpp environment.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	settings := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}
	applyFlags(cmd, settings)

	if v := os.Getenv("WHISPER_BIN"); v != "" {
		settings.Transcribe.WhisperBin = v
	}
	if v := os.Getenv("WHISPER_MODEL"); v != "" {
		settings.Transcribe.Model = v
	}
	if settings.Transcribe.Enabled && settings.Transcribe.Model == "" {
		settings.Transcribe.Model = ".cache/models/ggml-base.bin"
	}

	if err := config.Validate(settings); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return settings, nil
}

func applyFlags(cmd *cobra.Command, s *config.Config) {
	f := cmd.Flags()
	if f.Changed("clips") {
		s.Clips.Count, _ = f.GetInt("clips")
	}
	if f.Changed("min") {
		v, _ := f.GetInt("min")
		s.Clips.Min = time.Duration(v) * time.Second
	}
	if f.Changed("max") {
		v, _ := f.GetInt("max")
		s.Clips.Max = time.Duration(v) * time.Second
	}

	if f.Changed("max-words") {
		s.Style.MaxWords, _ = f.GetInt("max-words")
	}
	if f.Changed("font") {
		s.Style.FontFamily, _ = f.GetString("font")
	}
	if f.Changed("font-size") {
		s.Style.FontSize, _ = f.GetInt("font-size")
	}
	if f.Changed("font-weight") {
		s.Style.FontWeight, _ = f.GetString("font-weight")
	}
	if f.Changed("color") {
		s.Style.Color, _ = f.GetString("color")
	}
	if f.Changed("background") {
		s.Style.BackgroundColor, _ = f.GetString("background")
	}
	if f.Changed("position") {
		s.Style.Position, _ = f.GetString("position")
	}

	if f.Changed("render") {
		s.Render.Enabled, _ = f.GetBool("render")
	}
	if f.Changed("transcribe") {
		s.Transcribe.Enabled, _ = f.GetBool("transcribe")
	}
	if f.Changed("cache-dir") {
		s.Render.CacheDir, _ = f.GetString("cache-dir")
	}

	// Log flags default to the environment, so a non-empty env counts as set.
	if f.Changed("log-level") || os.Getenv("HLSHORTS_LOG_LEVEL") != "" {
		s.Log.Level, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") || os.Getenv("HLSHORTS_LOG_FORMAT") != "" {
		s.Log.Format, _ = f.GetString("log-format")
	}
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
