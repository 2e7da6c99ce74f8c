package highlights

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/forPelevin/hlshorts/internal/types"
)

func TestSelect_GreedyNonOverlapping(t *testing.T) {
	cands := []types.Candidate{
		{Start: 0, End: 40, Score: 10, Text: "a"},
		{Start: 30, End: 70, Score: 50, Text: "b"},
		{Start: 70, End: 110, Score: 40, Text: "c"},
		{Start: 100, End: 140, Score: 45, Text: "d"},
		{Start: 140, End: 180, Score: 5, Text: "e"},
	}
	got := Select(types.Transcript{}, cands, 5)

	var starts []int
	for _, s := range got {
		starts = append(starts, s.Start)
	}
	// b(50) then d(45) are taken; c overlaps d, a overlaps b, e fits.
	if diff := cmp.Diff([]int{30, 100, 140}, starts); diff != "" {
		t.Fatalf("unexpected selection (-want +got):\n%s", diff)
	}
	if got[0].ID != "short-1" || got[2].ID != "short-3" {
		t.Fatalf("ids should follow timeline order: %s, %s", got[0].ID, got[2].ID)
	}
}

func TestSelect_TieBreaksOnEarlierStart(t *testing.T) {
	cands := []types.Candidate{
		{Start: 20, End: 60, Score: 7},
		{Start: 10, End: 50, Score: 7},
	}
	got := Select(types.Transcript{}, cands, 1)
	if len(got) != 1 || got[0].Start != 10 {
		t.Fatalf("expected earlier start to win the tie, got %+v", got)
	}
}

func TestSelect_Properties(t *testing.T) {
	tr := uniformTranscript(120, 6)
	cands, err := BuildCandidates(tr, Options{})
	if err != nil {
		t.Fatal(err)
	}
	got := Select(tr, cands, 5)
	if len(got) == 0 || len(got) > 5 {
		t.Fatalf("expected 1..5 shorts, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start < got[i-1].Start {
			t.Fatalf("shorts not sorted by start: %+v", got)
		}
		if got[i].Start < got[i-1].End {
			t.Fatalf("shorts overlap: %+v / %+v", got[i-1], got[i])
		}
	}
}

func TestSelect_RebasesSegments(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 10, Text: "intro"},
		{Start: 12.5, End: 30, Text: "first part. of the idea"},
		{Start: 30, End: 50, Text: "second part"},
	}}
	cands := []types.Candidate{{Start: 12.5, End: 50, Text: "first part. of the idea second part", Score: 1, StartIdx: 1, EndIdx: 2}}
	got := Select(tr, cands, 5)
	want := []types.Segment{
		{Start: 0, End: 17.5, Text: "first part. of the idea"},
		{Start: 17.5, End: 37.5, Text: "second part"},
	}
	if diff := cmp.Diff(want, got[0].Segments); diff != "" {
		t.Fatalf("segments mismatch (-want +got):\n%s", diff)
	}
	if got[0].Start != 12 || got[0].End != 50 {
		t.Fatalf("expected floored bounds 12..50, got %d..%d", got[0].Start, got[0].End)
	}
	if got[0].Lead != 0.5 {
		t.Fatalf("expected lead 0.5, got %v", got[0].Lead)
	}
	if got[0].Title != "first part" {
		t.Fatalf("unexpected title %q", got[0].Title)
	}
}

func TestSelect_TruncatesExcerpt(t *testing.T) {
	long := strings.Repeat("abcdefghij", 40)
	got := Select(types.Transcript{}, []types.Candidate{{Start: 0, End: 40, Text: long, StartIdx: -1}}, 1)
	ex := got[0].TranscriptExcerpt
	if !strings.HasSuffix(ex, "...") || len([]rune(ex)) != 303 {
		t.Fatalf("unexpected excerpt length %d: %q", len([]rune(ex)), ex)
	}
	if got[0].Title == "" || len([]rune(got[0].Title)) > 60 {
		t.Fatalf("unexpected title %q", got[0].Title)
	}
}

func TestGenerate_EmptyWhenNothingQualifies(t *testing.T) {
	got, err := Generate(uniformTranscript(2, 5), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no shorts, got %+v", got)
	}
}
