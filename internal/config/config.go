// Package config loads the hlshorts YAML configuration.
//
// A file only needs the keys it wants to change: decoding starts from
// [Default], so omitted values keep their defaults. Unknown keys are
// rejected.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/forPelevin/hlshorts/internal/domain/highlights"
	"github.com/forPelevin/hlshorts/internal/domain/subtitles"
	"github.com/forPelevin/hlshorts/internal/types"
)

var (
	validLogLevels  = []string{"error", "warn", "info", "debug", "trace"}
	validLogFormats = []string{"default", "text", "json"}
)

type Config struct {
	Clips      Clips                 `yaml:"clips"`
	Scoring    highlights.ScoreTable `yaml:"scoring"`
	Style      types.CaptionStyle    `yaml:"style"`
	Render     Render                `yaml:"render"`
	Transcribe Transcribe            `yaml:"transcribe"`
	Log        Log                   `yaml:"log"`
}

type Clips struct {
	Count       int           `yaml:"count"`
	Min         time.Duration `yaml:"min"`
	Max         time.Duration `yaml:"max"`
	MaxSegments int           `yaml:"max_segments"`
}

type Render struct {
	Enabled  bool          `yaml:"enabled"`
	Workers  int           `yaml:"workers"`
	FFmpeg   string        `yaml:"ffmpeg"`
	FFprobe  string        `yaml:"ffprobe"`
	CacheDir string        `yaml:"cache_dir"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Transcribe struct {
	Enabled    bool   `yaml:"enabled"`
	WhisperBin string `yaml:"whisper_bin"`
	Model      string `yaml:"model"`
	Language   string `yaml:"language"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Clips: Clips{
			Count:       highlights.DefaultCount,
			Min:         highlights.DefaultMinClip,
			Max:         highlights.DefaultMaxClip,
			MaxSegments: highlights.DefaultMaxSegments,
		},
		Scoring: highlights.DefaultScoreTable(),
		Style:   subtitles.DefaultStyle(),
		Render: Render{
			Workers:  2,
			FFmpeg:   "ffmpeg",
			FFprobe:  "ffprobe",
			CacheDir: ".hlshorts-cache",
		},
		Transcribe: Transcribe{
			WhisperBin: "whisper-cli",
			Language:   "auto",
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path and returns a validated Config.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the
// result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns a joined error listing every invalid value. Caption style
// problems are not errors here; they are clamped with notes at render time.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Clips.Count <= 0 {
		errs = append(errs, fmt.Errorf("clips.count must be positive, got %d", cfg.Clips.Count))
	}
	if cfg.Clips.Min <= 0 {
		errs = append(errs, fmt.Errorf("clips.min must be positive, got %s", cfg.Clips.Min))
	}
	if cfg.Clips.Max < cfg.Clips.Min {
		errs = append(errs, fmt.Errorf("clips.max %s is shorter than clips.min %s", cfg.Clips.Max, cfg.Clips.Min))
	}

	if cfg.Scoring.IdealDuration <= 0 {
		errs = append(errs, fmt.Errorf("scoring.ideal_duration must be positive, got %v", cfg.Scoring.IdealDuration))
	}
	if cfg.Scoring.DurationTolerance < 0 {
		errs = append(errs, fmt.Errorf("scoring.duration_tolerance must not be negative, got %v", cfg.Scoring.DurationTolerance))
	}
	if cfg.Scoring.MaxWords < cfg.Scoring.MinWords {
		errs = append(errs, fmt.Errorf("scoring.max_words %d is below scoring.min_words %d", cfg.Scoring.MaxWords, cfg.Scoring.MinWords))
	}
	for i, kw := range cfg.Scoring.Keywords {
		if kw == "" {
			errs = append(errs, fmt.Errorf("scoring.keywords[%d] is empty", i))
		}
	}

	if cfg.Render.Workers < 1 {
		errs = append(errs, fmt.Errorf("render.workers must be at least 1, got %d", cfg.Render.Workers))
	}
	if cfg.Render.Enabled && cfg.Render.CacheDir == "" {
		errs = append(errs, errors.New("render.cache_dir is required when render.enabled is set"))
	}
	if cfg.Render.Timeout < 0 {
		errs = append(errs, fmt.Errorf("render.timeout must not be negative, got %s", cfg.Render.Timeout))
	}

	if cfg.Transcribe.Enabled && cfg.Transcribe.Model == "" {
		errs = append(errs, errors.New("transcribe.model is required when transcribe.enabled is set"))
	}

	if !slices.Contains(validLogLevels, cfg.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: %v", cfg.Log.Level, validLogLevels))
	}
	if !slices.Contains(validLogFormats, cfg.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format %q is invalid; valid values: %v", cfg.Log.Format, validLogFormats))
	}

	return errors.Join(errs...)
}

// HighlightOptions maps the clip and scoring sections to window search options.
func (c *Config) HighlightOptions() highlights.Options {
	table := c.Scoring
	return highlights.Options{
		MinClip:     c.Clips.Min,
		MaxClip:     c.Clips.Max,
		Count:       c.Clips.Count,
		MaxSegments: c.Clips.MaxSegments,
		Table:       &table,
	}
}
