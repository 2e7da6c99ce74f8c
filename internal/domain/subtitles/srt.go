package subtitles

import (
	"fmt"
	"math"
	"strings"

	"github.com/forPelevin/hlshorts/internal/types"
)

// MinCueLength is the shortest cue, in seconds, that is written out.
const MinCueLength = 0.1

// RenderSRT writes captions as a SubRip track relative to clipStart. When
// clipDuration > 0 every timestamp is clamped to [0, clipDuration].
func RenderSRT(caps []types.Caption, clipStart, clipDuration float64) string {
	var b strings.Builder
	n := 0
	for _, c := range clipRelative(caps, clipStart, clipDuration) {
		n++
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", n, srtTime(c.Start), srtTime(c.End), c.Text)
	}
	return b.String()
}

// clipRelative re-bases captions onto the clip and drops entries that are
// empty or too short to read.
func clipRelative(caps []types.Caption, clipStart, clipDuration float64) []types.Caption {
	out := make([]types.Caption, 0, len(caps))
	for _, c := range caps {
		text := strings.Join(strings.Fields(c.Text), " ")
		if text == "" {
			continue
		}
		s := math.Max(0, c.Start-clipStart)
		e := math.Max(0, c.End-clipStart)
		if clipDuration > 0 {
			s = math.Min(s, clipDuration)
			e = math.Min(e, clipDuration)
		}
		if e-s < MinCueLength {
			continue
		}
		out = append(out, types.Caption{Start: s, End: e, Text: text})
	}
	return out
}

func srtTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	ms := int64(math.Round(sec * 1000))
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
