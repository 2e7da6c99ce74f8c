package transcript

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/forPelevin/hlshorts/internal/types"
)

// Matches cue timing lines like "00:00:00.160 --> 00:00:02.350 align:start".
// Hours are optional and SRT-style commas are accepted.
var reCueTiming = regexp.MustCompile(`^((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})\s+-->\s+((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})`)

// ParseVTT reads a WebVTT (or SRT) caption track into raw cues. Blocks with
// unparseable timing are skipped; only read errors are returned.
func ParseVTT(r io.Reader) ([]types.Cue, error) {
	var cues []types.Cue
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		cur      *types.Cue
		lines    []string
		skipping bool
	)
	flush := func() {
		if cur != nil && len(lines) > 0 {
			cur.Text = strings.Join(lines, "\n")
			cues = append(cues, *cur)
		}
		cur = nil
		lines = nil
		skipping = false
	}

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if cur == nil && !skipping {
			if !strings.Contains(trimmed, "-->") {
				// header, NOTE/STYLE blocks and cue identifiers
				continue
			}
			m := reCueTiming.FindStringSubmatch(trimmed)
			if m == nil {
				skipping = true
				continue
			}
			start, err1 := ParseTimestamp(m[1])
			end, err2 := ParseTimestamp(m[2])
			if err1 != nil || err2 != nil {
				skipping = true
				continue
			}
			cur = &types.Cue{Start: start, End: end}
			continue
		}
		if skipping {
			continue
		}
		lines = append(lines, trimmed)
	}
	flush()
	if err := sc.Err(); err != nil {
		return cues, fmt.Errorf("read captions: %w", err)
	}
	return cues, nil
}

// ParseTimestamp parses "HH:MM:SS.mmm", "MM:SS.mmm" or the comma variants
// into seconds.
func ParseTimestamp(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	var hours, minutes int
	var err error
	if len(parts) == 3 {
		if hours, err = strconv.Atoi(parts[0]); err != nil {
			return 0, fmt.Errorf("invalid hours in %q: %w", s, err)
		}
		parts = parts[1:]
	}
	if minutes, err = strconv.Atoi(parts[0]); err != nil {
		return 0, fmt.Errorf("invalid minutes in %q: %w", s, err)
	}
	sec, err := strconv.ParseFloat(strings.Replace(parts[1], ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q: %w", s, err)
	}
	if hours < 0 || minutes < 0 || minutes >= 60 || sec < 0 || sec >= 60 {
		return 0, fmt.Errorf("timestamp out of range %q", s)
	}
	return float64(hours*3600+minutes*60) + sec, nil
}
