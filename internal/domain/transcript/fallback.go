package transcript

import (
	"math"

	"github.com/forPelevin/hlshorts/internal/types"
)

// FallbackSegmentLength is the length in seconds of each synthetic segment.
const FallbackSegmentLength = 15.0

var placeholderPool = []string{
	"Welcome back. Today we are walking through the main idea of this video step by step.",
	"Here is the part most people miss, and why it matters more than you think.",
	"Let me show you how to apply this in practice with a simple example.",
	"This is the most important lesson, so remember it for later.",
	"So what does this actually mean for you? Let's break it down.",
	"To wrap this section up, here is the one tip you should take away.",
}

// Synthesize builds uniform placeholder segments covering [0, total). The
// last segment is cut at total. Output depends only on total.
func Synthesize(total float64) []types.Segment {
	if !(total > 0) || math.IsInf(total, 1) {
		return nil
	}
	n := int(math.Ceil(total / FallbackSegmentLength))
	out := make([]types.Segment, 0, n)
	for i := 0; i < n; i++ {
		start := float64(i) * FallbackSegmentLength
		end := math.Min(start+FallbackSegmentLength, total)
		if end <= start {
			break
		}
		idx := int(math.Floor(start/FallbackSegmentLength)) % len(placeholderPool)
		out = append(out, types.Segment{Start: start, End: end, Text: placeholderPool[idx]})
	}
	return out
}
