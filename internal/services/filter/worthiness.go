// Package filter decides whether scraped forum text is plausibly an activity write-up.
package filter

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinLength       = 100 // characters
	MinLines        = 5
	MinPositiveHits = 2
	MinStructured   = 2
)

// Phrases that mark a question or discussion thread rather than a write-up
var negativePhrases = []string{"מישהו מכיר", "שאלה:", "מחפש/ת", "רעיון ל", "מה דעתכם", "דיון:"}

// Activity vocabulary and list markers; each counts once when present
var positiveKeywords = []string{
	"משחק", "פעילות", "מטרה", "חניכים", "מדריך", "דקות", "שלב",
	"צ'ופר", "מהלך", "לוז", `לו"ז`, "הסבר", "הוראות", "ציוד",
	"1.", "2.", "א.", "ב.",
}

var (
	structuredPrefixes = []string{"1.", "2.", "3.", "4.", "5.", "- ", "* "}
	minutesLineRegex   = regexp.MustCompile(`^\d+\s?דק`)
	clockLineRegex     = regexp.MustCompile(`^\d{1,2}:\d{2}`)
)

// Reason explains a verdict
type Reason string

const (
	ReasonTooShort     Reason = "too_short"
	ReasonTooFewLines  Reason = "too_few_lines"
	ReasonNegative     Reason = "negative_phrase"
	ReasonKeywords     Reason = "keywords"
	ReasonStructure    Reason = "structure"
	ReasonInsufficient Reason = "insufficient_signal"
)

// Verdict is the filter decision with the signals that produced it
type Verdict struct {
	Worthy          bool
	Reason          Reason
	Length          int
	Lines           int
	PositiveHits    int
	StructuredLines int
	NegativePhrase  string
}

// IsWorthy reports whether text looks like a structured activity write-up
func IsWorthy(text string) bool {
	return Evaluate(text).Worthy
}

// Evaluate applies the checks in fixed order: length, line count, negative
// phrases, positive keywords, then structure. A negative phrase rejects even
// when positive signals are present.
func Evaluate(text string) Verdict {
	lines := splitLines(text)
	v := Verdict{
		Length: utf8.RuneCountInString(text),
		Lines:  len(lines),
	}

	if v.Length < MinLength {
		v.Reason = ReasonTooShort
		return v
	}
	if v.Lines < MinLines {
		v.Reason = ReasonTooFewLines
		return v
	}

	for _, phrase := range negativePhrases {
		if strings.Contains(text, phrase) {
			v.Reason = ReasonNegative
			v.NegativePhrase = phrase
			return v
		}
	}

	v.PositiveHits = countPositiveHits(text)
	if v.PositiveHits >= MinPositiveHits {
		v.Worthy = true
		v.Reason = ReasonKeywords
		return v
	}

	v.StructuredLines = countStructuredLines(lines)
	if v.StructuredLines >= MinStructured && v.PositiveHits >= 1 {
		v.Worthy = true
		v.Reason = ReasonStructure
		return v
	}

	v.Reason = ReasonInsufficient
	return v
}

func countPositiveHits(text string) int {
	hits := 0
	for _, keyword := range positiveKeywords {
		if strings.Contains(text, keyword) {
			hits++
		}
	}
	return hits
}

// countStructuredLines counts enumerated or timed lines ("1. ...", "- ...", "10 דקות", "16:30")
func countStructuredLines(lines []string) int {
	count := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if hasAnyPrefix(line, structuredPrefixes) || minutesLineRegex.MatchString(line) || clockLineRegex.MatchString(line) {
			count++
		}
	}
	return count
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// splitLines splits on line boundaries without producing a trailing empty line.
// "\r\n", "\r", "\n" and the Unicode line/paragraph separators all end a line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	var lines []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch r {
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				size = 2
			}
			start = i + size
		case '\n', '\v', '\f', '\u0085', '\u2028', '\u2029':
			lines = append(lines, text[start:i])
			start = i + size
		}
		i += size
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
