//go:build integration

package itest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/hlshorts/internal/config"
	"github.com/forPelevin/hlshorts/internal/pipeline"
	"github.com/forPelevin/hlshorts/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/hlshorts/internal/types"
)

func TestE2E(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	tmp := t.TempDir()
	in := filepath.Join(tmp, "input.mp4")
	makeFixtureVideo(t, in, 75)
	vtt := filepath.Join(tmp, "input.vtt")
	writeFixtureVTT(t, vtt, 75)

	settings := config.Default()
	settings.Render.Enabled = true
	settings.Render.CacheDir = filepath.Join(tmp, "cache")
	settings.Clips.Count = 2

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	res, err := pipeline.Run(ctx, pipeline.Config{
		Input:    in,
		Captions: vtt,
		OutDir:   filepath.Join(tmp, "out"),
		Settings: settings,
	})
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	m := readManifest(t, res.RunDir)
	if len(m.Shorts) == 0 {
		t.Fatal("expected at least one short")
	}
	probe := ffmpeg.New("", "")
	for _, s := range m.Shorts {
		clip := filepath.Join(res.RunDir, s.File)
		d, err := probe.ProbeDuration(ctx, clip)
		if err != nil {
			t.Fatalf("probe %s: %v", s.File, err)
		}
		got, want := d.Seconds(), float64(s.End-s.Start)
		if math.Abs(got-want) > 1.0 {
			t.Fatalf("%s: duration %.2fs, want about %.0fs", s.ID, got, want)
		}
		if len(s.CacheKey) != 64 {
			t.Fatalf("%s: unexpected cache key %q", s.ID, s.CacheKey)
		}
	}

	// A second run over the same source reuses the cached crops.
	cached := filepath.Join(settings.Render.CacheDir, "clips", m.Shorts[0].CacheKey+".mp4")
	before, err := os.Stat(cached)
	if err != nil {
		t.Fatalf("cached clip: %v", err)
	}
	if _, err := pipeline.Run(ctx, pipeline.Config{
		Input:    in,
		Captions: vtt,
		OutDir:   filepath.Join(tmp, "out"),
		Settings: settings,
	}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	after, err := os.Stat(cached)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Fatal("cached clip was re-rendered")
	}
}

func TestE2E_FallbackWithoutCaptions(t *testing.T) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	tmp := t.TempDir()
	in := filepath.Join(tmp, "silent.mp4")
	makeFixtureVideo(t, in, 45)

	settings := config.Default()
	settings.Render.CacheDir = filepath.Join(tmp, "cache")

	res, err := pipeline.Run(context.Background(), pipeline.Config{
		Input:    in,
		OutDir:   filepath.Join(tmp, "out"),
		Settings: settings,
	})
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	m := readManifest(t, res.RunDir)
	if !m.Fallback {
		t.Fatal("expected fallback transcript for a video without captions")
	}
}

func makeFixtureVideo(t *testing.T, path string, seconds int) {
	t.Helper()
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc=s=1280x720:d=%d", seconds),
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=440:duration=%d", seconds),
		"-shortest",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		path,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
}

func writeFixtureVTT(t *testing.T, path string, seconds int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i := 0; i*5+4 <= seconds; i++ {
		start, end := i*5, i*5+4
		fmt.Fprintf(&b, "00:%02d:%02d.000 --> 00:%02d:%02d.000\nHere is the secret step %d you must learn.\n\n",
			start/60, start%60, end/60, end%60, i+1)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readManifest(t *testing.T, runDir string) types.Manifest {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(runDir, "manifest.json"))
	if err != nil {
		t.Fatalf("missing manifest: %v", err)
	}
	var m types.Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	return m
}
