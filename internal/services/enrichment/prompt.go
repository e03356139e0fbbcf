package enrichment

import (
	"fmt"
	"strings"
)

const systemInstruction = "You are an expert youth movement activity planner. You read Hebrew activity plans and return structured metadata as strict JSON."

// buildPrompt renders the extraction instruction for one activity write-up
func buildPrompt(rawText, sourceHint string) string {
	var b strings.Builder

	b.WriteString("Analyze the following complete youth activity plan, written in Hebrew, and extract its metadata.\n")
	b.WriteString("The plan itself (steps, games and methods) is stored separately; return metadata only.\n\n")

	b.WriteString("Return ONLY a single valid JSON object with exactly these keys:\n")
	b.WriteString(`- "topic": (string) a concise Hebrew title for the activity.` + "\n")
	b.WriteString(`- "description": (string) a Hebrew summary of the activity's goals and flow.` + "\n")
	b.WriteString(`- "age_group": (string) the most suitable age group, e.g. "גילאי 9-11 (כיתות ד-ו)", "גילאי 12-13 (כיתות ז-ח)", "גילאי 14-15 (כיתות ט-י)", "גילאי 16-18 (שכבה בוגרת)". Infer it if not stated.` + "\n")
	b.WriteString(`- "duration": (string) estimated total duration in minutes, e.g. "45 דקות". If segment timings are listed, sum them.` + "\n")
	b.WriteString(`- "materials": (array of strings) materials needed, including ones strongly implied by the games. Use [] if none.` + "\n")
	b.WriteString(`- "tags": (array of strings) 3-5 descriptive English keywords, e.g. ["teamwork", "outdoors", "icebreaker"].` + "\n\n")

	b.WriteString("JSON formatting rules:\n")
	b.WriteString("1. The whole output must be one valid JSON object and nothing else.\n")
	b.WriteString("2. Every string value is enclosed in double quotes.\n")
	b.WriteString(`3. A double quote inside a string value MUST be escaped with a backslash, e.g. "a string with an \"inner quote\" in it". Hebrew abbreviations such as צה"ל need this.` + "\n")
	b.WriteString("4. Hebrew content (topic, description, age_group, duration) stays in Hebrew.\n\n")

	if hint := strings.TrimSpace(sourceHint); hint != "" {
		fmt.Fprintf(&b, "Source: %s\n\n", hint)
	}

	b.WriteString("Activity plan:\n---\n")
	b.WriteString(rawText)
	b.WriteString("\n---\n\nJSON output (metadata only):")

	return b.String()
}

// outputSchema is the JSON schema handed to providers that support structured output
func outputSchema() map[string]interface{} {
	str := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "string", "description": desc}
	}
	list := func(desc string) map[string]interface{} {
		return map[string]interface{}{
			"type":        "array",
			"description": desc,
			"items":       map[string]interface{}{"type": "string"},
		}
	}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"topic":       str("Hebrew title"),
			"description": str("Hebrew summary"),
			"age_group":   str("Target age group"),
			"duration":    str("Total duration in minutes"),
			"materials":   list("Materials needed"),
			"tags":        list("English keywords"),
		},
		"required": []string{"topic", "description", "age_group", "duration", "materials", "tags"},
	}
}
