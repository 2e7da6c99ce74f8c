// Package captions splits segment text into short word groups with timing
// proportional to word position. Export and live preview both go through
// this package so their timing cannot drift apart.
package captions

import (
	"math"
	"strings"

	"github.com/forPelevin/hlshorts/internal/types"
)

// Chunk splits seg into groups of at most maxWords words. Each group gets an
// equal share of the segment duration per word.
func Chunk(seg types.Segment, maxWords int) []types.Caption {
	words := strings.Fields(seg.Text)
	if len(words) == 0 {
		return nil
	}
	if maxWords <= 0 || len(words) <= maxWords {
		return []types.Caption{{Start: seg.Start, End: seg.End, Text: strings.Join(words, " ")}}
	}

	tpw := timePerWord(seg, len(words))
	out := make([]types.Caption, 0, (len(words)+maxWords-1)/maxWords)
	for g := 0; g*maxWords < len(words); g++ {
		from := g * maxWords
		to := min(from+maxWords, len(words))
		out = append(out, types.Caption{
			Start: seg.Start + float64(from)*tpw,
			End:   math.Min(seg.End, seg.Start+float64(to)*tpw),
			Text:  strings.Join(words[from:to], " "),
		})
	}
	return out
}

// ChunkAll chunks every segment in order.
func ChunkAll(segs []types.Segment, maxWords int) []types.Caption {
	var out []types.Caption
	for _, s := range segs {
		out = append(out, Chunk(s, maxWords)...)
	}
	return out
}

// ActiveIndex returns the index of the chunk of seg that is showing at t, or
// -1 when t is outside the segment. t uses the same time base as seg.
func ActiveIndex(seg types.Segment, maxWords int, t float64) int {
	words := len(strings.Fields(seg.Text))
	if words == 0 || t < seg.Start || t > seg.End {
		return -1
	}
	if maxWords <= 0 || words <= maxWords {
		return 0
	}
	tpw := timePerWord(seg, words)
	if tpw <= 0 {
		return 0
	}
	wordIdx := int(math.Floor((t - seg.Start) / tpw))
	wordIdx = min(wordIdx, words-1)
	return wordIdx / maxWords
}

// Active returns the caption showing at t, if any.
func Active(seg types.Segment, maxWords int, t float64) (types.Caption, bool) {
	idx := ActiveIndex(seg, maxWords, t)
	if idx < 0 {
		return types.Caption{}, false
	}
	chunks := Chunk(seg, maxWords)
	if idx >= len(chunks) {
		return types.Caption{}, false
	}
	return chunks[idx], true
}

func timePerWord(seg types.Segment, words int) float64 {
	return (seg.End - seg.Start) / float64(words)
}
