package advisory

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxSummaryLen      = 300
	truncatedLen       = 297
	shortSentenceLimit = 50
)

var (
	markupPattern   = regexp.MustCompile(`<[^>]*>`)
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]`)
)

type levelInfo struct {
	short string
	full  string
}

var levels = map[int]levelInfo{
	4: {short: "Do Not Travel", full: "Avoid all travel to this destination due to serious safety risks."},
	3: {short: "Reconsider Travel", full: "Serious risks are present. Reconsider your travel plans."},
	2: {short: "Exercise Increased Caution", full: "Be aware of heightened risks and take extra precautions."},
	1: {short: "Exercise Normal Precautions", full: "Standard safety awareness recommended."},
}

// Order matters: a title may mention several levels and the highest wins.
var levelMarkers = []struct {
	marker string
	level  int
}{
	{"Level 4", 4},
	{"Level 3", 3},
	{"Level 2", 2},
}

// matchBulletin returns the first bulletin whose title names the country.
// List order is authoritative; no ranking is applied.
func matchBulletin(bulletins []Bulletin, countryName string) (Bulletin, bool) {
	country := strings.ToLower(strings.TrimSpace(countryName))
	if country == "" {
		return Bulletin{}, false
	}
	padded := " " + country + " "
	for _, b := range bulletins {
		title := strings.ToLower(b.Title)
		if hasWordPrefix(title, country) || strings.Contains(title, padded) {
			return b, true
		}
	}
	return Bulletin{}, false
}

// hasWordPrefix reports whether title starts with word and the word is not
// the head of a longer one ("chad" vs "chadwick").
func hasWordPrefix(title, word string) bool {
	if !strings.HasPrefix(title, word) {
		return false
	}
	if len(title) == len(word) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(title[len(word):])
	return !unicode.IsLetter(next) && !unicode.IsDigit(next)
}

// extractLevel sniffs the severity marker from the raw title. Titles with no
// marker default to level 1.
func extractLevel(title string) int {
	for _, m := range levelMarkers {
		if strings.Contains(title, m.marker) {
			return m.level
		}
	}
	return 1
}

// stripMarkup removes tags and collapses whitespace, including the Unicode
// spaces (NBSP, em space, BOM) that show up in the feed's HTML.
func stripMarkup(raw string) string {
	text := markupPattern.ReplaceAllString(raw, "")
	return strings.Join(strings.FieldsFunc(text, isSpace), " ")
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// normalizeSummary returns markup-free text of at most maxSummaryLen runes.
// Long summaries are cut back to their first sentence (two when the first is
// very short) before falling back to a hard truncation. Only a missing
// summary takes the fallback; markup that strips to nothing yields "".
func normalizeSummary(raw string, fallback string) string {
	if raw == "" {
		return fallback
	}
	summary := stripMarkup(raw)
	if runeLen(summary) <= maxSummaryLen {
		return summary
	}

	if sentences := sentencePattern.FindAllString(summary, -1); len(sentences) > 0 {
		summary = strings.TrimSpace(sentences[0])
		if runeLen(summary) < shortSentenceLimit && len(sentences) > 1 {
			summary += " " + strings.TrimSpace(sentences[1])
		}
	}

	if runeLen(summary) > maxSummaryLen {
		summary = string([]rune(summary)[:truncatedLen]) + "..."
	}
	return summary
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
