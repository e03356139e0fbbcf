package generator

import (
	"fmt"
	"strings"
)

const plannerInstruction = `אתה מדריך ותיק ומתכנן פעולות לתנועת נוער, יצירתי ובקיא במשחקים ובמתודות.
כתוב תמיד בעברית בלבד, בפורמט Markdown.`

// buildPrompt renders the planning request with the inspiration context
func buildPrompt(request, duration, ageGroup, inspirations string) string {
	var b strings.Builder

	b.WriteString("צור תוכנית פעולה חדשה ומפורטת על פי הבקשה והדוגמאות שלהלן.\n\n")
	fmt.Fprintf(&b, "**הבקשה:** \"%s\"\n", strings.TrimSpace(request))
	fmt.Fprintf(&b, "**משך הפעולה:** %s\n", duration)
	fmt.Fprintf(&b, "**קבוצת הגיל:** %s\n\n", ageGroup)

	b.WriteString("לפני הכתיבה חשוב (בלי להציג את התשובות): מה הנושא המרכזי, מה מתאים לגיל, ")
	b.WriteString("מה האווירה הרצויה, איך לשמור על אנרגיה ועניין, איך לחלק את הזמן בין המתודות ואיזה ציוד נדרש.\n\n")

	b.WriteString("**דוגמאות מהמאגר (להשראה בלבד, צור תוכן מקורי):**\n")
	b.WriteString("--- דוגמאות ---\n")
	b.WriteString(inspirations)
	b.WriteString("--- סוף דוגמאות ---\n\n")

	b.WriteString("**דרישות:**\n")
	b.WriteString("- התחל בכותרת קצרה וקליטה.\n")
	b.WriteString("- חלק את הפעולה לשלבים עם הערכת זמן לכל שלב; סכום הזמנים תואם למשך המבוקש.\n")
	b.WriteString("- תאר כל משחק או מתודה בבירור, והעדף משחקים מגוונים וייחודיים.\n")
	b.WriteString("- סיים ברשימת ציוד.\n\n")
	b.WriteString("**תוכנית הפעולה:**\n")

	return b.String()
}

// durationText accepts "90" as minutes and passes anything else through
func durationText(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return value
		}
	}
	return value + " דקות"
}
