package highlights

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

var reClause = regexp.MustCompile(`[.!?]+`)

// ScoreTable holds the engagement heuristic. The constants are tuning values,
// not derived from data; they can be overridden from the config file.
type ScoreTable struct {
	Keywords      []string `yaml:"keywords"`
	KeywordPoints float64  `yaml:"keyword_points"`
	QuestionBonus float64  `yaml:"question_bonus"`

	ClausePoints    float64 `yaml:"clause_points"`
	ClauseMinLength int     `yaml:"clause_min_length"`

	IdealDuration     float64 `yaml:"ideal_duration"`
	DurationTolerance float64 `yaml:"duration_tolerance"`

	MinWords       int     `yaml:"min_words"`
	MaxWords       int     `yaml:"max_words"`
	WordRangeBonus float64 `yaml:"word_range_bonus"`
}

// DefaultScoreTable returns the built-in heuristic.
func DefaultScoreTable() ScoreTable {
	return ScoreTable{
		Keywords: []string{
			"amazing", "secret", "tip", "how to", "why", "best", "must", "learn",
			"reveal", "truth", "shocking", "game changer", "important", "mistake",
			"never", "always", "incredible", "hack",
		},
		KeywordPoints:     10,
		QuestionBonus:     15,
		ClausePoints:      5,
		ClauseMinLength:   10,
		IdealDuration:     45,
		DurationTolerance: 20,
		MinWords:          50,
		MaxWords:          150,
		WordRangeBonus:    15,
	}
}

// Score rates text with the default table.
func Score(text string, duration float64) float64 {
	return defaultTable.Score(text, duration)
}

var defaultTable = DefaultScoreTable()

// Score returns the engagement score of a window. It depends only on text
// and duration.
func (t ScoreTable) Score(text string, duration float64) float64 {
	lower := strings.ToLower(text)
	score := 0.0

	for _, kw := range t.Keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		score += float64(strings.Count(lower, kw)) * t.KeywordPoints
	}

	if strings.Contains(text, "?") {
		score += t.QuestionBonus
	}

	for _, clause := range reClause.Split(text, -1) {
		if utf8.RuneCountInString(strings.TrimSpace(clause)) > t.ClauseMinLength {
			score += t.ClausePoints
		}
	}

	score += math.Max(0, t.DurationTolerance-math.Abs(duration-t.IdealDuration))

	if n := len(strings.Fields(text)); n >= t.MinWords && n <= t.MaxWords {
		score += t.WordRangeBonus
	}
	return score
}
