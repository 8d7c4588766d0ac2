package source

import (
	"strings"
	"testing"

	"igsource/pkg/nodes"
	"igsource/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeclaresType(t *testing.T) {
	registry := schema.NewRegistry(nil)
	require.NoError(t, NewPublisher(registry, "Instagram", "en").Publish())

	expected := `type Instagram implements Node {
  id: String!
  timestamp: Date @dateformat
  url: String!
  permalink: String!
  caption: String
  username: String!
  thumbnailUrl: String
  mediaType: String!
  localFile: File @link(from: "fields.localFile")
  formattedDate: String
}
`
	assert.Equal(t, expected, registry.SDL())
	assert.True(t, registry.HasResolver("Instagram", FormattedDateField))
}

func TestPublishIsIdempotent(t *testing.T) {
	registry := schema.NewRegistry(nil)
	p := NewPublisher(registry, "Instagram", "en")
	require.NoError(t, p.Publish())
	require.NoError(t, p.Publish())

	assert.Equal(t, 1, strings.Count(registry.SDL(), "type Instagram"))
	assert.Equal(t, 1, strings.Count(registry.SDL(), "formattedDate"))
}

func TestFormattedDateResolver(t *testing.T) {
	tests := []struct {
		locale    string
		timestamp string
		expected  string
	}{
		{"en", "2023-01-05T00:00:00Z", "1/5/2023"},
		{"de", "2023-01-05T00:00:00+0000", "5.1.2023"},
		{"en", "not a date", ""},
	}

	for _, tt := range tests {
		registry := schema.NewRegistry(nil)
		require.NoError(t, NewPublisher(registry, "Instagram", tt.locale).Publish())

		v, err := registry.Resolve("Instagram", FormattedDateField, &nodes.ContentNode{Timestamp: tt.timestamp})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, v)
	}
}

func TestPublishCustomTypeName(t *testing.T) {
	registry := schema.NewRegistry(nil)
	require.NoError(t, NewPublisher(registry, "InstaPost", "en").Publish())

	_, ok := registry.Type("InstaPost")
	assert.True(t, ok)
	assert.True(t, registry.HasResolver("InstaPost", FormattedDateField))
}
