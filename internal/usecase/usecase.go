package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mudler/xlog"
	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/hlshorts/internal/cache"
	"github.com/forPelevin/hlshorts/internal/domain/captions"
	"github.com/forPelevin/hlshorts/internal/domain/highlights"
	"github.com/forPelevin/hlshorts/internal/domain/subtitles"
	"github.com/forPelevin/hlshorts/internal/domain/transcript"
	"github.com/forPelevin/hlshorts/internal/observe"
	"github.com/forPelevin/hlshorts/internal/ports"
	"github.com/forPelevin/hlshorts/internal/types"
)

// ErrNoRenderer is returned when rendering is requested without a video tool
// and clip cache.
var ErrNoRenderer = errors.New("render requested without video tool and clip cache")

type Deps struct {
	// Video is needed to transcribe, probe, or render. It may be nil when a
	// caption track and duration are supplied and rendering is off.
	Video   ports.VideoTool
	ASR     ports.ASR
	Cache   ports.ClipCache
	Metrics *observe.Metrics
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Metrics == nil {
		d.Metrics = observe.DefaultMetrics()
	}
	return Usecase{d: d}
}

type Input struct {
	// Source identifies the video. It is the clip cache key source and the
	// file handed to ffmpeg.
	Source string
	// Captions is an optional WebVTT file. Without it the ASR is used, and
	// without an ASR the transcript is synthesized.
	Captions string
	// Duration in seconds. Zero means probe it from Source.
	Duration   float64
	Highlights highlights.Options
	Style      types.CaptionStyle
	Render     bool
	Workers    int
	WorkDir    string
	OutDir     string
}

type Result struct {
	Manifest types.Manifest
	Report   transcript.Report
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	if in.Render && (u.d.Video == nil || u.d.Cache == nil) {
		return Result{}, ErrNoRenderer
	}

	cues, err := u.loadCues(ctx, in)
	if err != nil {
		return Result{}, err
	}

	duration := in.Duration
	if duration <= 0 && u.d.Video != nil {
		d, err := u.d.Video.ProbeDuration(ctx, in.Source)
		if err != nil {
			xlog.Warn("could not probe duration", "source", in.Source, "error", err)
		} else {
			duration = d.Seconds()
		}
	}

	tr, rep, err := transcript.Normalize(cues, duration)
	if err != nil {
		return Result{}, err
	}
	xlog.Info("transcript normalized",
		"cues", rep.Cues, "malformed", rep.Malformed, "dropped", rep.Dropped,
		"segments", rep.Segments, "fallback", rep.Fallback)
	if rep.Fallback {
		u.d.Metrics.FallbackTranscripts.Add(ctx, 1)
		xlog.Warn("no usable transcript, using placeholder segments", "source", in.Source, "duration", duration)
	}

	shorts, err := highlights.Generate(tr, in.Highlights)
	if err != nil {
		return Result{}, err
	}
	u.d.Metrics.Shorts.Add(ctx, int64(len(shorts)))
	xlog.Info("shorts selected", "count", len(shorts))

	style, notes := subtitles.NormalizeStyle(in.Style)
	for _, n := range notes {
		xlog.Warn("caption style adjusted", "note", n)
	}
	dirs, _ := subtitles.BuildDirectives(style)

	m := types.Manifest{Input: in.Source, Fallback: rep.Fallback}
	for _, s := range shorts {
		ms, err := writeSubtitles(in.OutDir, s, style.MaxWords, dirs)
		if err != nil {
			return Result{}, err
		}
		ms.Notes = notes
		m.Shorts = append(m.Shorts, ms)
	}

	if in.Render && len(m.Shorts) > 0 {
		if err := u.renderAll(ctx, in, m.Shorts); err != nil {
			return Result{}, err
		}
	}
	return Result{Manifest: m, Report: rep}, nil
}

func (u Usecase) loadCues(ctx context.Context, in Input) ([]types.Cue, error) {
	if in.Captions != "" {
		f, err := os.Open(in.Captions)
		if err != nil {
			return nil, fmt.Errorf("open captions: %w", err)
		}
		defer f.Close()
		cues, err := transcript.ParseVTT(f)
		if err != nil {
			return nil, fmt.Errorf("parse captions %s: %w", in.Captions, err)
		}
		return cues, nil
	}
	if u.d.ASR == nil || u.d.Video == nil {
		return nil, nil
	}

	wav := filepath.Join(in.WorkDir, "audio.wav")
	if err := u.d.Video.ExtractAudioMono16k(ctx, in.Source, wav); err != nil {
		return nil, err
	}
	cues, err := u.d.ASR.Transcribe(ctx, wav, in.WorkDir)
	if err != nil {
		return nil, err
	}
	xlog.Debug("transcribed audio", "cues", len(cues))
	return cues, nil
}

// writeSubtitles writes the SRT and ASS tracks for a short. Times are shifted
// by the short's lead so they line up with a clip cut from its floored start.
func writeSubtitles(outDir string, s types.Short, maxWords int, dirs subtitles.Directives) (types.ManifestShort, error) {
	segs := make([]types.Segment, len(s.Segments))
	for i, seg := range s.Segments {
		segs[i] = types.Segment{Start: seg.Start + s.Lead, End: seg.End + s.Lead, Text: seg.Text}
	}
	caps := captions.ChunkAll(segs, maxWords)
	clipDur := float64(s.End - s.Start)

	srtRel := filepath.Join("subtitles", s.ID+".srt")
	assRel := filepath.Join("subtitles", s.ID+".ass")
	if err := writeFile(filepath.Join(outDir, srtRel), []byte(subtitles.RenderSRT(caps, 0, clipDur))); err != nil {
		return types.ManifestShort{}, err
	}
	if err := writeFile(filepath.Join(outDir, assRel), []byte(subtitles.RenderASS(caps, clipDur, dirs))); err != nil {
		return types.ManifestShort{}, err
	}
	return types.ManifestShort{
		Short:     s,
		Subtitles: filepath.ToSlash(srtRel),
		ASS:       filepath.ToSlash(assRel),
	}, nil
}

// renderAll cuts each short through the clip cache and burns its captions.
// Results are written into shorts in place.
func (u Usecase) renderAll(ctx context.Context, in Input, shorts []types.ManifestShort) error {
	workers := in.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range shorts {
		ms := &shorts[i]
		g.Go(func() error {
			art, err := u.d.Cache.GetOrRender(gctx, cache.Request{
				Source: in.Source,
				Start:  float64(ms.Start),
				End:    float64(ms.End),
			})
			if err != nil {
				return fmt.Errorf("render %s: %w", ms.ID, err)
			}
			rel := filepath.Join("clips", ms.ID+".mp4")
			if err := u.d.Video.BurnSubtitles(gctx, art.Path, filepath.Join(in.OutDir, ms.ASS), filepath.Join(in.OutDir, rel)); err != nil {
				return fmt.Errorf("burn %s: %w", ms.ID, err)
			}
			ms.File = filepath.ToSlash(rel)
			ms.CacheKey = art.Key
			xlog.Info("short rendered", "id", ms.ID, "file", ms.File, "cache_key", art.Key)
			return nil
		})
	}
	return g.Wait()
}

func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
