package ports

import (
	"context"
	"time"

	"github.com/forPelevin/hlshorts/internal/cache"
	"github.com/forPelevin/hlshorts/internal/types"
)

type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error
	// CropVertical cuts [start,end] seconds and reframes it to a 1080x1920 centre crop.
	CropVertical(ctx context.Context, inVideo string, start, end float64, outMP4 string) error
	BurnSubtitles(ctx context.Context, inMP4, assPath, outMP4 string) error
	ProbeDuration(ctx context.Context, inVideo string) (time.Duration, error)
}

type ASR interface {
	Transcribe(ctx context.Context, wavPath, workDir string) ([]types.Cue, error)
}

type ClipCache interface {
	GetOrRender(ctx context.Context, req cache.Request) (cache.Artifact, error)
}
