package types

// Cue is one raw caption unit as delivered by a caption track or ASR.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type Transcript struct {
	Segments []Segment `json:"segments"`
}

// Duration returns the end of the last segment in seconds.
func (t Transcript) Duration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Candidate is a clip window over normalized segments. StartIdx and EndIdx
// are inclusive indices into the transcript it was built from.
type Candidate struct {
	Start float64
	End   float64
	Text  string
	Score float64

	StartIdx int
	EndIdx   int
}

func (c Candidate) Duration() float64 { return c.End - c.Start }

// Short is a selected clip. Segments are clip-relative.
type Short struct {
	ID                string    `json:"id"`
	Start             int       `json:"start"`
	End               int       `json:"end"`
	Title             string    `json:"title"`
	TranscriptExcerpt string    `json:"transcriptExcerpt"`
	Segments          []Segment `json:"segments"`
	Score             float64   `json:"score"`

	// Lead is how far the window starts after the floored Start. A clip cut
	// from Start needs its segment times shifted by Lead.
	Lead float64 `json:"-"`
}

type Caption struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type CaptionStyle struct {
	FontFamily      string `json:"fontFamily" yaml:"font_family"`
	FontSize        int    `json:"fontSize" yaml:"font_size"`
	FontWeight      string `json:"fontWeight" yaml:"font_weight"`
	Color           string `json:"color" yaml:"color"`
	BackgroundColor string `json:"backgroundColor" yaml:"background_color"`
	Position        string `json:"position" yaml:"position"`
	MaxWords        int    `json:"maxWords" yaml:"max_words"`
}

type Manifest struct {
	RunID    string          `json:"run_id"`
	Input    string          `json:"input"`
	Fallback bool            `json:"fallback_transcript"`
	Shorts   []ManifestShort `json:"shorts"`
}

type ManifestShort struct {
	Short
	Subtitles string   `json:"subtitles"`
	ASS       string   `json:"ass,omitempty"`
	File      string   `json:"file,omitempty"`
	CacheKey  string   `json:"cache_key,omitempty"`
	Notes     []string `json:"notes,omitempty"`
}
