package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Sentinel values used when a field cannot be derived.
// Consumers must treat them as "unknown", not as data.
const (
	UnknownTopic       = "נושא לא צוין (שגיאת ניתוח)"
	UnknownDescription = "תיאור לא נותח"
	UnknownValue       = "לא ידוע"
	UntaggedTag        = "untagged"

	// ManualSourceURL marks records entered by hand rather than scraped.
	// Uniqueness is not enforced between manual records.
	ManualSourceURL = "no URL source"
)

// Field caps for model output. Normalize truncates to them; the validate tags
// below must stay in sync.
const (
	maxShortField  = 300
	maxDescription = 4000
	maxMaterials   = 200
	maxMaterialLen = 500
	maxTags        = 100
	maxTagLen      = 200
)

// Metadata is the structured summary extracted from an activity write-up by the language model.
type Metadata struct {
	Topic       string   `json:"topic" validate:"max=300"`
	Description string   `json:"description" validate:"max=4000"`
	AgeGroup    string   `json:"age_group" validate:"max=300"`
	Duration    string   `json:"duration" validate:"max=300"`
	Materials   []string `json:"materials" validate:"max=200,dive,max=500"`
	Tags        []string `json:"tags" validate:"max=100,dive,max=200"`
}

// Normalize trims every field, drops empty list entries and truncates
// over-long values to the field caps, so a verbose model answer is kept
// rather than rejected by Validate.
func (m *Metadata) Normalize() {
	m.Topic = truncateRunes(strings.TrimSpace(m.Topic), maxShortField)
	m.Description = truncateRunes(strings.TrimSpace(m.Description), maxDescription)
	m.AgeGroup = truncateRunes(strings.TrimSpace(m.AgeGroup), maxShortField)
	m.Duration = truncateRunes(strings.TrimSpace(m.Duration), maxShortField)
	m.Materials = capList(compactList(m.Materials), maxMaterials, maxMaterialLen)
	m.Tags = capList(compactList(m.Tags), maxTags, maxTagLen)
}

// Validate validates the metadata using go-playground/validator.
func (m *Metadata) Validate() error {
	return validator.New().Struct(m)
}

// Activity is the persisted unit: one accepted activity write-up.
type Activity struct {
	ID              int64     `json:"id"`
	Topic           string    `json:"topic" validate:"required"`
	Description     string    `json:"description"`
	GamesAndMethods string    `json:"games_and_methods" validate:"required"` // Verbatim ingested text
	AgeGroup        string    `json:"age_group"`
	Duration        string    `json:"duration"`
	Materials       []string  `json:"materials" validate:"required"`
	Tags            []string  `json:"tags" validate:"required,min=1"`
	SourceURL       string    `json:"source_url" validate:"required"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewActivity assembles a record from raw text and optional metadata.
// A nil metadata (enrichment failed) produces the sentinel values.
func NewActivity(rawText, sourceURL string, meta *Metadata) *Activity {
	if meta == nil {
		meta = &Metadata{}
	}

	activity := &Activity{
		Topic:           orDefault(meta.Topic, UnknownTopic),
		Description:     orDefault(meta.Description, UnknownDescription),
		GamesAndMethods: rawText,
		AgeGroup:        orDefault(meta.AgeGroup, UnknownValue),
		Duration:        orDefault(meta.Duration, UnknownValue),
		Materials:       compactList(meta.Materials),
		Tags:            compactList(meta.Tags),
		SourceURL:       orDefault(strings.TrimSpace(sourceURL), ManualSourceURL),
		CreatedAt:       time.Now().UTC(),
	}

	if len(activity.Tags) == 0 {
		activity.Tags = []string{UntaggedTag}
	}

	return activity
}

// Validate checks the record invariants before it reaches a store.
func (a *Activity) Validate() error {
	if strings.TrimSpace(a.GamesAndMethods) == "" {
		return fmt.Errorf("games_and_methods must not be empty")
	}
	return validator.New().Struct(a)
}

// IsManual reports whether the record was entered by hand
func (a *Activity) IsManual() bool {
	return a.SourceURL == "" || a.SourceURL == ManualSourceURL
}

// IsSentinel reports whether a scalar field value is one of the "unknown" placeholders
func IsSentinel(value string) bool {
	switch value {
	case UnknownTopic, UnknownDescription, UnknownValue, ManualSourceURL:
		return true
	}
	return false
}

// EncodeList serializes a string list as a JSON array, keeping non-ASCII text readable.
// A nil list is encoded as [].
func EncodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(list); err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// DecodeList parses a JSON array column. Empty input decodes to an empty list.
func DecodeList(encoded string) ([]string, error) {
	list := []string{}
	if strings.TrimSpace(encoded) == "" {
		return list, nil
	}
	if err := json.Unmarshal([]byte(encoded), &list); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}
	return value
}

func capList(list []string, maxItems, maxLen int) []string {
	if len(list) > maxItems {
		list = list[:maxItems]
	}
	for i, item := range list {
		list[i] = truncateRunes(item, maxLen)
	}
	return list
}

// truncateRunes cuts s to at most n runes, never splitting a character
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

func compactList(list []string) []string {
	result := make([]string, 0, len(list))
	for _, item := range list {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
