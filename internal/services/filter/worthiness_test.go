package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Six lines, 125 characters, "משחק" and "דקות" twice each
var activityText = strings.Join([]string{
	"פתיחה: משחק היכרות במעגל",
	"כל חניך אומר את שמו ותחביב",
	"עשר דקות לכל סבב",
	"אחר כך משחק תופסת",
	"עוד עשר דקות של תופסת",
	"סיכום ושיחה בסוף",
}, "\n")

func TestIsWorthy_KeywordScenario(t *testing.T) {
	verdict := Evaluate(activityText)

	assert.True(t, verdict.Worthy)
	assert.Equal(t, ReasonKeywords, verdict.Reason)
	assert.Equal(t, 6, verdict.Lines)
	assert.Equal(t, 2, verdict.PositiveHits)
	assert.GreaterOrEqual(t, verdict.Length, MinLength)
}

func TestIsWorthy_ShortTextAlwaysRejected(t *testing.T) {
	short := "משחק\nפעילות\nמטרה\nחניכים\nמדריך\nדקות\n1. שלב\n2. ציוד"
	require.Less(t, len([]rune(short)), MinLength)

	verdict := Evaluate(short)
	assert.False(t, verdict.Worthy)
	assert.Equal(t, ReasonTooShort, verdict.Reason)
}

func TestIsWorthy_TooFewLines(t *testing.T) {
	text := strings.Repeat("משחק ארוך עם הרבה דקות של פעילות ", 5)
	verdict := Evaluate(text)

	assert.False(t, verdict.Worthy)
	assert.Equal(t, ReasonTooFewLines, verdict.Reason)
}

func TestIsWorthy_NegativePhraseWins(t *testing.T) {
	text := "מישהו מכיר משחק טוב לחניכים?\n" + activityText + "\nפעילות עם מטרה ברורה"
	verdict := Evaluate(text)

	assert.False(t, verdict.Worthy)
	assert.Equal(t, ReasonNegative, verdict.Reason)
	assert.Equal(t, "מישהו מכיר", verdict.NegativePhrase)
	// Positive signals were never counted
	assert.Zero(t, verdict.PositiveHits)
}

func TestIsWorthy_EachNegativePhrase(t *testing.T) {
	for _, phrase := range negativePhrases {
		t.Run(phrase, func(t *testing.T) {
			assert.False(t, IsWorthy(activityText+"\n"+phrase+" משהו"))
		})
	}
}

func TestIsWorthy_StructureWithOneKeyword(t *testing.T) {
	text := strings.Join([]string{
		"10:00 התכנסות ברחבה של השבט",
		"10:30 יציאה לשטח הפתוח ליד הנחל",
		"- להביא ציוד אישי ובקבוק מים",
		"נחזור לקראת הצהריים",
		"נסיים בארוחה משותפת עם כולם",
	}, "\n")

	verdict := Evaluate(text)
	assert.True(t, verdict.Worthy)
	assert.Equal(t, ReasonStructure, verdict.Reason)
	assert.Equal(t, 1, verdict.PositiveHits)
	assert.Equal(t, 3, verdict.StructuredLines)
}

func TestIsWorthy_StructureWithoutKeywordRejected(t *testing.T) {
	text := strings.Join([]string{
		"10:00 התכנסות ברחבה של השבט",
		"10:30 יציאה לשטח הפתוח ליד הנחל",
		"- להביא בקבוק מים וכובע",
		"נחזור לקראת הצהריים",
		"נסיים בארוחה משותפת עם כולם",
	}, "\n")

	verdict := Evaluate(text)
	assert.False(t, verdict.Worthy)
	assert.Equal(t, ReasonInsufficient, verdict.Reason)
}

func TestIsWorthy_Empty(t *testing.T) {
	assert.False(t, IsWorthy(""))
}

func TestCountStructuredLines(t *testing.T) {
	lines := []string{"  1. first", "- dash", "* star", "15 דקות משחק", "15דק", "09:30 start", "plain", "6. sixth"}
	assert.Equal(t, 6, countStructuredLines(lines))
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitLines("a\nb\r\nc\n"))
	assert.Equal(t, []string{"a", "", "b"}, splitLines("a\n\nb"))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\u2028b"))
	assert.Nil(t, splitLines(""))
}
