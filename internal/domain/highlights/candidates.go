package highlights

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/hlshorts/internal/types"
)

const (
	DefaultMinClip     = 30 * time.Second
	DefaultMaxClip     = 60 * time.Second
	DefaultCount       = 5
	DefaultMaxSegments = 20000
)

// ErrBudgetExceeded is returned when a transcript has more segments than the
// window search is allowed to scan.
var ErrBudgetExceeded = errors.New("transcript exceeds processing budget")

type Options struct {
	MinClip time.Duration
	MaxClip time.Duration
	// Count is the maximum number of shorts to select.
	Count int
	// MaxSegments bounds the quadratic window search. Negative disables it.
	MaxSegments int
	Table       *ScoreTable
}

func (o Options) withDefaults() Options {
	if o.MinClip <= 0 {
		o.MinClip = DefaultMinClip
	}
	if o.MaxClip <= 0 {
		o.MaxClip = DefaultMaxClip
	}
	if o.Count <= 0 {
		o.Count = DefaultCount
	}
	if o.MaxSegments == 0 {
		o.MaxSegments = DefaultMaxSegments
	}
	if o.Table == nil {
		t := DefaultScoreTable()
		o.Table = &t
	}
	return o
}

// BuildCandidates enumerates every window of consecutive segments whose
// duration lies within [MinClip, MaxClip] and scores it.
func BuildCandidates(tr types.Transcript, opts Options) ([]types.Candidate, error) {
	opts = opts.withDefaults()
	segs := tr.Segments
	if opts.MaxSegments > 0 && len(segs) > opts.MaxSegments {
		return nil, fmt.Errorf("build candidates: %d segments > limit %d: %w", len(segs), opts.MaxSegments, ErrBudgetExceeded)
	}
	if opts.MaxClip < opts.MinClip {
		return nil, nil
	}
	minSec := opts.MinClip.Seconds()
	maxSec := opts.MaxClip.Seconds()

	var out []types.Candidate
	for i := range segs {
		start := segs[i].Start
		var b strings.Builder
		for j := i; j < len(segs); j++ {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(segs[j].Text)

			end := segs[j].End
			win := end - start
			// Segment ends are non-decreasing, so no later j can fit.
			if win > maxSec {
				break
			}
			if win < minSec {
				continue
			}
			text := b.String()
			out = append(out, types.Candidate{
				Start:    start,
				End:      end,
				Text:     text,
				Score:    opts.Table.Score(text, win),
				StartIdx: i,
				EndIdx:   j,
			})
		}
	}
	return out, nil
}
