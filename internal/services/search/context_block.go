package search

import (
	"fmt"
	"strings"

	"github.com/ternarybob/peulot/internal/models"
)

const (
	contextHeader  = "להלן מספר פעולות מהמאגר שיכולות לשמש כהשראה:"
	contextEmpty   = "לא נמצאו דוגמאות רלוונטיות במאגר."
	excerptRunes   = 200
	unknownDisplay = "unknown"
)

// FormatContext renders results as inspiration blocks for a planning prompt.
// Sentinel values are shown as "unknown".
func FormatContext(results []Result) string {
	if len(results) == 0 {
		return contextEmpty
	}

	var b strings.Builder
	b.WriteString(contextHeader)
	b.WriteString("\n\n")

	for i, result := range results {
		activity := result.Activity
		fmt.Fprintf(&b, "--- דוגמה %d ---\n", i+1)
		fmt.Fprintf(&b, "נושא: %s\n", display(activity.Topic))
		fmt.Fprintf(&b, "תיאור: %s\n", display(activity.Description))
		fmt.Fprintf(&b, "גיל: %s | משך: %s\n", display(activity.AgeGroup), display(activity.Duration))
		fmt.Fprintf(&b, "תקציר משחקים:\n%s\n", excerpt(activity.GamesAndMethods, excerptRunes))
		b.WriteString("---------------------------------\n\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func display(value string) string {
	if strings.TrimSpace(value) == "" || models.IsSentinel(value) {
		return unknownDisplay
	}
	return value
}

func excerpt(text string, max int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "..."
}
