package readtime

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// DefaultWPM is the reading speed assumed for dense technical writeups.
const DefaultWPM = 45

// Unknown is the label shown when a file cannot be read.
const Unknown = "-- M"

var (
	reFencedCode  = regexp.MustCompile("(?s)```.*?```")
	reInlineCode  = regexp.MustCompile("`[^`]+`")
	reDisplayMath = regexp.MustCompile(`(?s)\$\$.*?\$\$`)
	reInlineMath  = regexp.MustCompile(`\$[^$]+\$`)
	reSyntax      = regexp.MustCompile(`[#*_~\[\]()]`)
)

// Estimate is the reading time of one document.
type Estimate struct {
	Words   int    `json:"words"`
	Minutes int    `json:"minutes"`
	Label   string `json:"label"`
}

// CountWords counts the prose words in markdown. Code and math do not count.
func CountWords(markdown string) int {
	cleaned := reFencedCode.ReplaceAllString(markdown, "")
	cleaned = reInlineCode.ReplaceAllString(cleaned, "")
	cleaned = reDisplayMath.ReplaceAllString(cleaned, "")
	cleaned = reInlineMath.ReplaceAllString(cleaned, "")
	cleaned = reSyntax.ReplaceAllString(cleaned, "")
	return len(strings.Fields(cleaned))
}

// Minutes rounds words/wpm up to whole minutes.
func Minutes(words, wpm int) int {
	if wpm <= 0 {
		wpm = DefaultWPM
	}
	if words <= 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / float64(wpm)))
}

// Format renders minutes as "12 M", "2 H" or "1 H 5 M".
func Format(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d M", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d H", hours)
	}
	return fmt.Sprintf("%d H %d M", hours, mins)
}

// FromMarkdown estimates the reading time of markdown text.
func FromMarkdown(markdown string, wpm int) Estimate {
	words := CountWords(markdown)
	minutes := Minutes(words, wpm)
	return Estimate{Words: words, Minutes: minutes, Label: Format(minutes)}
}
