package highlights

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/forPelevin/hlshorts/internal/types"
)

const (
	excerptLimit = 300
	titleLimit   = 60
	ellipsis     = "..."
)

// Select greedily picks up to k non-overlapping candidates by descending
// score (earlier start wins ties) and returns them as shorts in timeline
// order. This is not globally score-optimal.
func Select(tr types.Transcript, cands []types.Candidate, k int) []types.Short {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	ranked := make([]types.Candidate, len(cands))
	copy(ranked, cands)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Start < ranked[j].Start
	})

	accepted := make([]types.Candidate, 0, k)
	for _, c := range ranked {
		if overlapsAny(c, accepted) {
			continue
		}
		accepted = append(accepted, c)
		if len(accepted) == k {
			break
		}
	}
	sort.SliceStable(accepted, func(i, j int) bool { return accepted[i].Start < accepted[j].Start })

	out := make([]types.Short, 0, len(accepted))
	for i, c := range accepted {
		out = append(out, toShort(tr, c, i+1))
	}
	return out
}

// Generate runs the window search and selection over a normalized transcript.
func Generate(tr types.Transcript, opts Options) ([]types.Short, error) {
	opts = opts.withDefaults()
	cands, err := BuildCandidates(tr, opts)
	if err != nil {
		return nil, err
	}
	return Select(tr, cands, opts.Count), nil
}

func overlapsAny(c types.Candidate, accepted []types.Candidate) bool {
	for _, a := range accepted {
		if c.Start < a.End && a.Start < c.End {
			return true
		}
	}
	return false
}

func toShort(tr types.Transcript, c types.Candidate, n int) types.Short {
	var segs []types.Segment
	if c.StartIdx >= 0 && c.EndIdx < len(tr.Segments) && c.StartIdx <= c.EndIdx {
		src := tr.Segments[c.StartIdx : c.EndIdx+1]
		segs = make([]types.Segment, len(src))
		for i, s := range src {
			segs[i] = types.Segment{Start: s.Start - c.Start, End: s.End - c.Start, Text: s.Text}
		}
	}
	return types.Short{
		ID:                fmt.Sprintf("short-%d", n),
		Start:             int(math.Floor(c.Start)),
		End:               int(math.Floor(c.End)),
		Title:             buildTitle(c.Text, n),
		TranscriptExcerpt: truncateRunes(c.Text, excerptLimit),
		Segments:          segs,
		Score:             c.Score,
		Lead:              c.Start - math.Floor(c.Start),
	}
}

// buildTitle uses the window's first sentence, cut on a word boundary.
func buildTitle(text string, n int) string {
	first := strings.TrimSpace(reClause.Split(text, 2)[0])
	words := strings.Fields(first)
	var b strings.Builder
	for _, w := range words {
		if b.Len() > 0 && len([]rune(b.String()))+1+len([]rune(w)) > titleLimit {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	title := b.String()
	if len([]rune(title)) > titleLimit {
		title = string([]rune(title)[:titleLimit])
	}
	if title == "" {
		return fmt.Sprintf("Highlight %d", n)
	}
	return title
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit])) + ellipsis
}
