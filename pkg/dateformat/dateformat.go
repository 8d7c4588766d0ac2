// Package dateformat renders timestamps as short numeric dates in the style
// of a locale (moment's "l" format).
package dateformat

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// DefaultLocale is used when a locale tag cannot be matched
const DefaultLocale = "en"

// layouts accepted for input timestamps, tried in order
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// patterns maps a locale to its short date pattern. Tokens: D, DD, M, MM,
// YYYY. Everything else is copied literally.
var patterns = map[string]string{
	"en":    "M/D/YYYY",
	"en-GB": "D/M/YYYY",
	"en-AU": "D/M/YYYY",
	"en-CA": "YYYY-M-D",
	"en-IN": "D/M/YYYY",
	"de":    "D.M.YYYY",
	"fr":    "DD/MM/YYYY",
	"fr-CA": "YYYY-MM-DD",
	"es":    "D/M/YYYY",
	"it":    "D/M/YYYY",
	"pt":    "D/M/YYYY",
	"nl":    "D-M-YYYY",
	"sv":    "YYYY-MM-DD",
	"da":    "D.M.YYYY",
	"nb":    "D.M.YYYY",
	"fi":    "D.M.YYYY",
	"pl":    "D.MM.YYYY",
	"cs":    "D. M. YYYY",
	"ru":    "DD.MM.YYYY",
	"tr":    "DD.MM.YYYY",
	"ja":    "YYYY/M/D",
	"zh":    "YYYY/M/D",
	"ko":    "YYYY. M. D.",
}

var (
	supported []language.Tag
	tagKeys   []string
	matcher   language.Matcher
)

func init() {
	// DefaultLocale first so it wins when nothing matches
	var rest []string
	for k := range patterns {
		if k != DefaultLocale {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range append([]string{DefaultLocale}, rest...) {
		supported = append(supported, language.MustParse(k))
		tagKeys = append(tagKeys, k)
	}
	matcher = language.NewMatcher(supported)
}

// Pattern returns the short date pattern used for locale
func Pattern(locale string) string {
	return patterns[resolve(locale)]
}

func resolve(locale string) string {
	if locale == "" {
		return DefaultLocale
	}
	if _, ok := patterns[locale]; ok {
		return locale
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return DefaultLocale
	}

	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return DefaultLocale
	}
	return tagKeys[idx]
}

// Parse reads a timestamp in any accepted layout
func Parse(timestamp string) (time.Time, bool) {
	timestamp = strings.TrimSpace(timestamp)
	if timestamp == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, timestamp); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormattedDate returns the calendar date of timestamp (in UTC) formatted
// for locale. An empty or unparseable timestamp yields "".
func FormattedDate(timestamp, locale string) string {
	t, ok := Parse(timestamp)
	if !ok {
		return ""
	}
	return Format(t, locale)
}

// Format renders t's UTC calendar date with the locale's pattern
func Format(t time.Time, locale string) string {
	t = t.UTC()
	pattern := Pattern(locale)

	var b strings.Builder
	for i := 0; i < len(pattern); {
		switch {
		case strings.HasPrefix(pattern[i:], "YYYY"):
			b.WriteString(strconv.Itoa(t.Year()))
			i += 4
		case strings.HasPrefix(pattern[i:], "MM"):
			b.WriteString(twoDigits(int(t.Month())))
			i += 2
		case strings.HasPrefix(pattern[i:], "DD"):
			b.WriteString(twoDigits(t.Day()))
			i += 2
		case pattern[i] == 'M':
			b.WriteString(strconv.Itoa(int(t.Month())))
			i++
		case pattern[i] == 'D':
			b.WriteString(strconv.Itoa(t.Day()))
			i++
		default:
			b.WriteByte(pattern[i])
			i++
		}
	}
	return b.String()
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
