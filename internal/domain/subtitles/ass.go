package subtitles

import (
	"fmt"
	"strings"

	"github.com/forPelevin/hlshorts/internal/types"
)

const styleName = "Shorts"

// RenderASS builds a karaoke ASS document for burning captions into a clip.
// Captions must already be clip-relative; each chunk's words are highlighted
// in equal time slices.
func RenderASS(caps []types.Caption, clipDuration float64, d Directives) string {
	var b strings.Builder
	b.WriteString(assHeader(d))
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, c := range clipRelative(caps, 0, clipDuration) {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(c.Start))
		b.WriteString(",")
		b.WriteString(assTime(c.End))
		b.WriteString(",")
		b.WriteString(styleName)
		b.WriteString(",,0,0,0,,")
		b.WriteString(karaoke(c))
		b.WriteString("\n")
	}
	return b.String()
}

func karaoke(c types.Caption) string {
	words := strings.Fields(c.Text)
	perWordCS := int((c.End - c.Start) * 100 / float64(len(words)))
	if perWordCS < 1 {
		perWordCS = 1
	}
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf("{\\k%d}%s", perWordCS, sanitizeASS(w))
	}
	return strings.Join(parts, " ")
}

func assHeader(d Directives) string {
	return strings.Join([]string{
		"[Script Info]",
		"ScriptType: v4.00+",
		fmt.Sprintf("PlayResX: %d", canvasWidth),
		fmt.Sprintf("PlayResY: %d", canvasHeight),
		"WrapStyle: 0",
		"ScaledBorderAndShadow: yes",
		"",
		"[V4+ Styles]",
		"Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding",
		d.StyleLine(styleName),
	}, "\n")
}

// assTime formats seconds as H:MM:SS.cc.
func assTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	cs := int64(sec*100 + 0.5)
	h := cs / 360000
	cs -= h * 360000
	m := cs / 6000
	cs -= m * 6000
	s := cs / 100
	cs -= s * 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}
