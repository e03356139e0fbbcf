package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewActivity_SentinelsWhenMetadataMissing(t *testing.T) {
	activity := NewActivity("raw text of the activity", "https://forum.example/topic/1", nil)

	assert.Equal(t, UnknownTopic, activity.Topic)
	assert.Equal(t, UnknownDescription, activity.Description)
	assert.Equal(t, UnknownValue, activity.AgeGroup)
	assert.Equal(t, UnknownValue, activity.Duration)
	assert.Equal(t, []string{}, activity.Materials)
	assert.Equal(t, []string{UntaggedTag}, activity.Tags)
	assert.Equal(t, "raw text of the activity", activity.GamesAndMethods)
	assert.Equal(t, "https://forum.example/topic/1", activity.SourceURL)
	require.NoError(t, activity.Validate())
}

func TestNewActivity_UsesMetadata(t *testing.T) {
	meta := &Metadata{
		Topic:     " משחק דגלים ",
		AgeGroup:  "ד-ו",
		Materials: []string{"כדור", " ", "דגל"},
		Tags:      []string{"שטח"},
	}

	activity := NewActivity("text", "", meta)

	assert.Equal(t, "משחק דגלים", activity.Topic)
	assert.Equal(t, UnknownDescription, activity.Description)
	assert.Equal(t, "ד-ו", activity.AgeGroup)
	assert.Equal(t, []string{"כדור", "דגל"}, activity.Materials)
	assert.Equal(t, []string{"שטח"}, activity.Tags)
	assert.True(t, activity.IsManual())
	assert.Equal(t, ManualSourceURL, activity.SourceURL)
}

func TestActivityValidate_RejectsEmptyText(t *testing.T) {
	activity := NewActivity("   ", "https://forum.example/topic/1", nil)
	assert.Error(t, activity.Validate())
}

func TestEncodeDecodeList(t *testing.T) {
	encoded, err := EncodeList([]string{"כדור", "דגל"})
	require.NoError(t, err)
	assert.Equal(t, `["כדור","דגל"]`, encoded)

	decoded, err := DecodeList(encoded)
	require.NoError(t, err)
	assert.Equal(t, []string{"כדור", "דגל"}, decoded)

	encoded, err = EncodeList(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", encoded)

	decoded, err = DecodeList("")
	require.NoError(t, err)
	assert.NotNil(t, decoded)
	assert.Empty(t, decoded)

	_, err = DecodeList("not json")
	assert.Error(t, err)
}

func TestMetadataValidate(t *testing.T) {
	meta := &Metadata{Topic: "ok", Tags: []string{"a"}}
	assert.NoError(t, meta.Validate())

	long := make([]byte, 301)
	for i := range long {
		long[i] = 'x'
	}
	meta.Topic = string(long)
	assert.Error(t, meta.Validate())
}

func TestMetadataNormalize_TruncatesToCaps(t *testing.T) {
	tags := make([]string, 150)
	for i := range tags {
		tags[i] = strings.Repeat("ת", 250)
	}
	meta := &Metadata{
		Topic:       strings.Repeat("א", 301),
		Description: strings.Repeat("ב", 5000),
		Materials:   []string{strings.Repeat("כ", 600)},
		Tags:        tags,
	}

	meta.Normalize()
	require.NoError(t, meta.Validate())

	assert.Equal(t, 300, utf8.RuneCountInString(meta.Topic))
	assert.True(t, utf8.ValidString(meta.Topic))
	assert.Equal(t, 4000, utf8.RuneCountInString(meta.Description))
	assert.Equal(t, 500, utf8.RuneCountInString(meta.Materials[0]))
	require.Len(t, meta.Tags, 100)
	assert.Equal(t, 200, utf8.RuneCountInString(meta.Tags[0]))
}

func TestIsSentinel(t *testing.T) {
	assert.True(t, IsSentinel(UnknownTopic))
	assert.True(t, IsSentinel(UnknownValue))
	assert.False(t, IsSentinel("משחק"))
}
