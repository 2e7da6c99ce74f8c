// Package transcript turns raw caption cues into clean, ordered,
// non-overlapping segments.
package transcript

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/forPelevin/hlshorts/internal/types"
)

const (
	mergeGap      = 0.5
	mergeMaxWords = 8
)

// ErrNoDuration is returned when there are no usable cues and no known
// duration to synthesize a transcript from.
var ErrNoDuration = errors.New("no transcript and no known duration")

// Report describes what normalization did with its input.
type Report struct {
	Cues      int
	Malformed int
	Dropped   int
	Segments  int
	Fallback  bool
}

// Normalize cleans cues, removes progressive-caption repeats and merges
// short neighbouring segments. When nothing usable remains it falls back to
// a synthetic transcript spanning totalDuration.
func Normalize(cues []types.Cue, totalDuration float64) (types.Transcript, Report, error) {
	rep := Report{Cues: len(cues)}
	segs, malformed, dropped := dedupe(cues)
	rep.Malformed = malformed
	rep.Dropped = dropped

	segs = Merge(segs)
	if len(segs) == 0 {
		if !(totalDuration > 0) || math.IsInf(totalDuration, 1) {
			return types.Transcript{}, rep, fmt.Errorf("normalize transcript (%d cues): %w", len(cues), ErrNoDuration)
		}
		segs = Synthesize(totalDuration)
		rep.Fallback = true
	}
	rep.Segments = len(segs)
	return types.Transcript{Segments: segs}, rep, nil
}

// Deduplicate cleans every cue and keeps only the text each cue adds over
// the previous one. Malformed and empty cues are skipped.
func Deduplicate(cues []types.Cue) []types.Segment {
	segs, _, _ := dedupe(cues)
	return segs
}

func dedupe(cues []types.Cue) (segs []types.Segment, malformed, dropped int) {
	lastText := ""
	for _, c := range cues {
		if !validCue(c) {
			malformed++
			continue
		}
		text := CleanText(c.Text)
		if utf8.RuneCountInString(text) <= 1 {
			dropped++
			continue
		}
		added := ExtractNewText(lastText, text)
		lastText = text
		if utf8.RuneCountInString(added) <= 1 {
			dropped++
			continue
		}
		segs = append(segs, types.Segment{Start: c.Start, End: c.End, Text: added})
	}
	return segs, malformed, dropped
}

func validCue(c types.Cue) bool {
	for _, v := range []float64{c.Start, c.End} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return c.End >= c.Start
}

// Merge joins a segment into its predecessor when the gap is under half a
// second and the predecessor is still short. Remaining overlaps are removed
// by moving the later start to the previous end.
func Merge(segs []types.Segment) []types.Segment {
	if len(segs) == 0 {
		return nil
	}
	out := make([]types.Segment, 0, len(segs))
	cur := segs[0]
	curWords := len(strings.Fields(cur.Text))
	for _, next := range segs[1:] {
		if next.Start-cur.End < mergeGap && curWords < mergeMaxWords {
			cur.End = math.Max(cur.End, next.End)
			cur.Text = cur.Text + " " + next.Text
			curWords += len(strings.Fields(next.Text))
			continue
		}
		out = append(out, cur)
		if next.Start < cur.End {
			next.Start = cur.End
			if next.End < next.Start {
				next.End = next.Start
			}
		}
		cur = next
		curWords = len(strings.Fields(cur.Text))
	}
	return append(out, cur)
}
