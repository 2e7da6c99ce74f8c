package subtitles

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/hlshorts/internal/types"
)

const (
	MinFontSize = 12
	MaxFontSize = 48
	MinMaxWords = 2
	MaxMaxWords = 10

	Transparent = "transparent"
)

// Canvas used for burned-in captions. Font sizes are given in the same
// pixel space as the preview player, so the canvas is a scaled-down 9:16.
const (
	canvasWidth  = 360
	canvasHeight = 640

	// ASS alignment 2 is bottom-centre; MarginV is measured from the bottom.
	alignBottomCenter = 2

	marginBottom = 64
	marginMiddle = 300
	marginTop    = 540
)

// DefaultStyle is used for every field the caller leaves empty.
func DefaultStyle() types.CaptionStyle {
	return types.CaptionStyle{
		FontFamily:      "Arial",
		FontSize:        24,
		FontWeight:      "bold",
		Color:           "#FFFFFF",
		BackgroundColor: Transparent,
		Position:        "bottom",
		MaxWords:        4,
	}
}

// NormalizeStyle fills defaults and clamps out-of-range values. It never
// fails; every adjustment is reported as a note.
func NormalizeStyle(in types.CaptionStyle) (types.CaptionStyle, []string) {
	def := DefaultStyle()
	out := in
	var notes []string

	out.FontFamily = strings.TrimSpace(out.FontFamily)
	if out.FontFamily == "" {
		out.FontFamily = def.FontFamily
	}

	switch {
	case out.FontSize == 0:
		out.FontSize = def.FontSize
	case out.FontSize < MinFontSize:
		notes = append(notes, fmt.Sprintf("fontSize %d clamped to %d", out.FontSize, MinFontSize))
		out.FontSize = MinFontSize
	case out.FontSize > MaxFontSize:
		notes = append(notes, fmt.Sprintf("fontSize %d clamped to %d", out.FontSize, MaxFontSize))
		out.FontSize = MaxFontSize
	}

	switch {
	case out.MaxWords == 0:
		out.MaxWords = def.MaxWords
	case out.MaxWords < MinMaxWords:
		notes = append(notes, fmt.Sprintf("maxWords %d clamped to %d", out.MaxWords, MinMaxWords))
		out.MaxWords = MinMaxWords
	case out.MaxWords > MaxMaxWords:
		notes = append(notes, fmt.Sprintf("maxWords %d clamped to %d", out.MaxWords, MaxMaxWords))
		out.MaxWords = MaxMaxWords
	}

	out.FontWeight = strings.ToLower(strings.TrimSpace(out.FontWeight))
	switch out.FontWeight {
	case "normal", "bold":
	case "":
		out.FontWeight = def.FontWeight
	default:
		notes = append(notes, fmt.Sprintf("fontWeight %q replaced with %q", in.FontWeight, def.FontWeight))
		out.FontWeight = def.FontWeight
	}

	out.Position = strings.ToLower(strings.TrimSpace(out.Position))
	switch out.Position {
	case "top", "middle", "bottom":
	case "":
		out.Position = def.Position
	default:
		notes = append(notes, fmt.Sprintf("position %q replaced with %q", in.Position, def.Position))
		out.Position = def.Position
	}

	out.Color = strings.TrimSpace(out.Color)
	if out.Color == "" {
		out.Color = def.Color
	} else if _, err := HexToASS(out.Color); err != nil || strings.EqualFold(out.Color, Transparent) {
		notes = append(notes, fmt.Sprintf("color %q replaced with %q", in.Color, def.Color))
		out.Color = def.Color
	}

	out.BackgroundColor = strings.TrimSpace(out.BackgroundColor)
	if out.BackgroundColor == "" {
		out.BackgroundColor = def.BackgroundColor
	} else if _, err := HexToASS(out.BackgroundColor); err != nil {
		notes = append(notes, fmt.Sprintf("backgroundColor %q replaced with %q", in.BackgroundColor, def.BackgroundColor))
		out.BackgroundColor = def.BackgroundColor
	}

	return out, notes
}

// HexToASS converts "#RRGGBB" (or "#RGB") to the ASS colour form
// "&HAABBGGRR". ASS stores channels in reverse byte order, so only the R and
// B positions swap. "transparent" maps to a fully transparent black.
func HexToASS(hex string) (string, error) {
	h := strings.TrimSpace(hex)
	if strings.EqualFold(h, Transparent) {
		return "&HFF000000", nil
	}
	h = strings.TrimPrefix(h, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return "", fmt.Errorf("invalid hex colour %q", hex)
	}
	if _, err := strconv.ParseUint(h, 16, 32); err != nil {
		return "", fmt.Errorf("invalid hex colour %q: %w", hex, err)
	}
	h = strings.ToUpper(h)
	return "&H00" + h[4:6] + h[2:4] + h[0:2], nil
}

// Directives is a caption style translated for libass.
type Directives struct {
	FontName      string
	FontSize      int
	Bold          bool
	PrimaryColour string
	OutlineColour string
	BackColour    string
	// BorderStyle 1 draws an outline, 3 an opaque box behind the text.
	BorderStyle int
	Alignment   int
	MarginV     int
	MaxWords    int
}

// BuildDirectives normalizes style and translates it. Notes come from
// NormalizeStyle.
func BuildDirectives(style types.CaptionStyle) (Directives, []string) {
	s, notes := NormalizeStyle(style)
	primary, _ := HexToASS(s.Color)
	back, _ := HexToASS(s.BackgroundColor)

	d := Directives{
		FontName:      s.FontFamily,
		FontSize:      s.FontSize,
		Bold:          s.FontWeight == "bold",
		PrimaryColour: primary,
		OutlineColour: "&H00000000",
		BackColour:    back,
		BorderStyle:   1,
		Alignment:     alignBottomCenter,
		MarginV:       positionMargin(s.Position),
		MaxWords:      s.MaxWords,
	}
	if !strings.EqualFold(s.BackgroundColor, Transparent) {
		d.BorderStyle = 3
		d.OutlineColour = back
	}
	return d, notes
}

func positionMargin(pos string) int {
	switch pos {
	case "top":
		return marginTop
	case "middle":
		return marginMiddle
	default:
		return marginBottom
	}
}

func (d Directives) boldFlag() int {
	if d.Bold {
		return -1
	}
	return 0
}

// ForceStyle renders the directives for ffmpeg's subtitles filter
// (force_style=...).
func (d Directives) ForceStyle() string {
	return fmt.Sprintf(
		"FontName=%s,FontSize=%d,Bold=%d,PrimaryColour=%s,OutlineColour=%s,BackColour=%s,BorderStyle=%d,Outline=2,Shadow=0,Alignment=%d,MarginV=%d",
		d.FontName, d.FontSize, d.boldFlag(), d.PrimaryColour, d.OutlineColour, d.BackColour, d.BorderStyle, d.Alignment, d.MarginV,
	)
}

// StyleLine renders an ASS [V4+ Styles] entry.
func (d Directives) StyleLine(name string) string {
	return fmt.Sprintf(
		"Style: %s,%s,%d,%s,&H00FFD200,%s,%s,%d,0,0,0,100,100,0,0,%d,2,0,%d,24,24,%d,1",
		name, d.FontName, d.FontSize, d.PrimaryColour, d.OutlineColour, d.BackColour,
		d.boldFlag(), d.BorderStyle, d.Alignment, d.MarginV,
	)
}
