package highlights

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/forPelevin/hlshorts/internal/types"
)

// uniformTranscript builds n segments of step seconds each.
func uniformTranscript(n int, step float64) types.Transcript {
	segs := make([]types.Segment, n)
	for i := range segs {
		segs[i] = types.Segment{
			Start: float64(i) * step,
			End:   float64(i+1) * step,
			Text:  fmt.Sprintf("sentence number %d is here.", i),
		}
	}
	return types.Transcript{Segments: segs}
}

func TestBuildCandidates_RespectsBounds(t *testing.T) {
	tr := uniformTranscript(40, 7)
	cands, err := BuildCandidates(tr, Options{MinClip: 30 * time.Second, MaxClip: 60 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) == 0 {
		t.Fatalf("expected candidates")
	}
	for _, c := range cands {
		if d := c.Duration(); d < 30 || d > 60 {
			t.Fatalf("candidate duration %v out of [30,60]: %+v", d, c)
		}
		if c.Start != tr.Segments[c.StartIdx].Start || c.End != tr.Segments[c.EndIdx].End {
			t.Fatalf("candidate bounds do not match indices: %+v", c)
		}
	}
}

func TestBuildCandidates_ConcatenatesWindowText(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 20, Text: "A"},
		{Start: 20, End: 40, Text: "B"},
		{Start: 40, End: 110, Text: "C"},
	}}
	cands, err := BuildCandidates(tr, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected exactly one window, got %+v", cands)
	}
	if cands[0].Text != "A B" || cands[0].StartIdx != 0 || cands[0].EndIdx != 1 {
		t.Fatalf("unexpected candidate: %+v", cands[0])
	}
}

func TestBuildCandidates_NoQualifyingWindow(t *testing.T) {
	tr := uniformTranscript(3, 5)
	cands, err := BuildCandidates(tr, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 0 {
		t.Fatalf("expected no candidates, got %d", len(cands))
	}
}

func TestBuildCandidates_Budget(t *testing.T) {
	tr := uniformTranscript(11, 1)
	_, err := BuildCandidates(tr, Options{MaxSegments: 10})
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}
	if _, err := BuildCandidates(tr, Options{MaxSegments: -1}); err != nil {
		t.Fatalf("negative budget should disable the check: %v", err)
	}
}
