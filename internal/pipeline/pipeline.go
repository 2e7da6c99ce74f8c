package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/mudler/xlog"

	"github.com/forPelevin/hlshorts/internal/cache"
	"github.com/forPelevin/hlshorts/internal/config"
	"github.com/forPelevin/hlshorts/internal/ports"
	"github.com/forPelevin/hlshorts/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/hlshorts/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/hlshorts/internal/types"
	"github.com/forPelevin/hlshorts/internal/usecase"
)

type Config struct {
	// Input is the source video. With a caption track and a duration it may
	// be a bare identifier that does not exist on disk.
	Input    string
	Captions string
	// Duration in seconds; zero means probe Input.
	Duration float64
	OutDir   string
	Settings *config.Config
}

func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input is empty")
	}
	if c.Settings == nil {
		return errors.New("settings are nil")
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must be >= 0, got %v", c.Duration)
	}
	if c.Captions != "" {
		if _, err := os.Stat(c.Captions); err != nil {
			return fmt.Errorf("stat captions: %w", err)
		}
	}
	needsFile := c.Settings.Render.Enabled || (c.Captions == "" && c.Settings.Transcribe.Enabled)
	if needsFile {
		if _, err := os.Stat(c.Input); err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
	}
	return config.Validate(c.Settings)
}

type Result struct {
	RunDir   string
	Manifest types.Manifest
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	s := cfg.Settings
	runID := uuid.NewString()

	// adapters
	v := ffmpeg.New(s.Render.FFmpeg, s.Render.FFprobe)
	deps := usecase.Deps{Video: v}
	if s.Transcribe.Enabled {
		deps.ASR = whispercpp.New(s.Transcribe.WhisperBin, s.Transcribe.Model, s.Transcribe.Language)
	}

	source := sourceID(cfg.Input)
	workDir := filepath.Join(s.Render.CacheDir, "runs", hash(source))
	xlog.Debug("preparing workspace", "run_id", runID, "work_dir", workDir)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Result{}, err
	}

	if s.Render.Enabled {
		clips, err := cache.New(filepath.Join(s.Render.CacheDir, "clips"), v, cache.WithRenderTimeout(s.Render.Timeout))
		if err != nil {
			return Result{}, err
		}
		deps.Cache = clips
	}

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.Input, time.Now().UTC())
	if err := os.MkdirAll(filepath.Join(runOutDir, "subtitles"), 0o755); err != nil {
		return Result{}, err
	}
	xlog.Info("run started", "run_id", runID, "input", cfg.Input, "out", runOutDir)

	res, err := usecase.New(deps).Run(ctx, usecase.Input{
		Source:     source,
		Captions:   cfg.Captions,
		Duration:   cfg.Duration,
		Highlights: s.HighlightOptions(),
		Style:      s.Style,
		Render:     s.Render.Enabled,
		Workers:    s.Render.Workers,
		WorkDir:    workDir,
		OutDir:     runOutDir,
	})
	if err != nil {
		return Result{}, fmt.Errorf("run %s: %w", runID, err)
	}
	res.Manifest.RunID = runID

	b, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return Result{}, err
	}
	xlog.Info("manifest written", "run_id", runID, "shorts", len(res.Manifest.Shorts), "path", manifestPath)
	return Result{RunDir: runOutDir, Manifest: res.Manifest}, nil
}

// sourceID makes existing files independent of the working directory so
// the clip cache key is stable across invocations.
func sourceID(input string) string {
	if _, err := os.Stat(input); err != nil {
		return input
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		return input
	}
	return abs
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var (
	_ ports.VideoTool = (*ffmpeg.Adapter)(nil)
	_ ports.ASR       = (*whispercpp.Adapter)(nil)
	_ cache.Renderer  = (*ffmpeg.Adapter)(nil)
	_ ports.ClipCache = (*cache.Cache)(nil)
)
