package dateformat

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormattedDate(t *testing.T) {
	tests := []struct {
		name      string
		timestamp string
		locale    string
		expected  string
	}{
		{"english", "2023-01-05T00:00:00Z", "en", "1/5/2023"},
		{"graph api offset", "2023-01-05T00:00:00+0000", "en", "1/5/2023"},
		{"german", "2023-01-05T00:00:00Z", "de", "5.1.2023"},
		{"french padded", "2023-01-05T00:00:00Z", "fr", "05/01/2023"},
		{"japanese", "2023-01-05T00:00:00Z", "ja", "2023/1/5"},
		{"british", "2023-01-05T00:00:00Z", "en-GB", "5/1/2023"},
		{"regional fallback", "2023-01-05T00:00:00Z", "de-AT", "5.1.2023"},
		{"american", "2023-12-25T10:00:00Z", "en-US", "12/25/2023"},
		{"unknown locale", "2023-01-05T00:00:00Z", "xx-invalid-tag!!", "1/5/2023"},
		{"empty locale", "2023-01-05T00:00:00Z", "", "1/5/2023"},
		{"bare date", "2023-01-05", "en", "1/5/2023"},
		{"utc date", "2023-01-05T23:30:00-0200", "en", "1/6/2023"},
		{"empty timestamp", "", "en", ""},
		{"garbage timestamp", "yesterday", "en", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormattedDate(tt.timestamp, tt.locale))
		})
	}
}

func TestPattern(t *testing.T) {
	assert.Equal(t, "M/D/YYYY", Pattern("en"))
	assert.Equal(t, "M/D/YYYY", Pattern("zz"))
	assert.Equal(t, "DD/MM/YYYY", Pattern("fr-BE"))
	assert.Equal(t, "YYYY-MM-DD", Pattern("fr-CA"))
}

func TestParse(t *testing.T) {
	ts, ok := Parse("2023-01-05T10:20:30+0100")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2023, 1, 5, 9, 20, 30, 0, time.UTC), ts.UTC())

	_, ok = Parse("   ")
	assert.False(t, ok)
}

func TestMatcherCandidateOrder(t *testing.T) {
	assert.Equal(t, len(patterns), len(tagKeys))
	assert.Equal(t, DefaultLocale, tagKeys[0])
	assert.True(t, sort.StringsAreSorted(tagKeys[1:]))

	first := Pattern("en-NZ")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Pattern("en-NZ"))
	}
}
