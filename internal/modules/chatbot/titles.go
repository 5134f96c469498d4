package chatbot

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	DefaultConversationTitle = "Nueva conversación"
	titleMaxWords            = 8
	titleMaxRunes            = 60
	titleMinCutRunes         = 30
)

var (
	titleCleanups = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile("(?s)```.*?```"), " "},
		{regexp.MustCompile("`([^`]*)`"), " $1 "},
		{regexp.MustCompile(`(?s)\$\$.*?\$\$`), " "},
		{regexp.MustCompile(`(?s)\\\[.*?\\\]`), " "},
		{regexp.MustCompile(`(?s)\\\(.*?\\\)`), " "},
		{regexp.MustCompile(`\$[^$\n]+\$`), " "},
		{regexp.MustCompile(`https?://\S+`), " "},
	}
	studentPrefixRE = regexp.MustCompile(`(?i)pregunta del estudiante\s*:\s*`)
	whitespaceRE    = regexp.MustCompile(`\s+`)

	titleStopwords = toSet(
		"de", "la", "el", "y", "en", "que", "para", "con", "del", "los", "las", "un", "una", "por",
		"como", "sobre", "al", "a", "se", "su", "sus", "lo", "les", "le",
	)
)

// GenerateTitle derives a short conversation title from the first user
// message.
func GenerateTitle(text string) string {
	t := text
	for _, c := range titleCleanups {
		t = c.re.ReplaceAllString(t, c.repl)
	}
	if loc := studentPrefixRE.FindStringIndex(t); loc != nil {
		t = t[:loc[0]] + " " + t[loc[1]:]
	}
	t = strings.TrimSpace(whitespaceRE.ReplaceAllString(t, " "))
	if t == "" {
		return DefaultConversationTitle
	}

	all := strings.Split(t, " ")
	words := make([]string, 0, titleMaxWords)
	for i, w := range all {
		if i > 0 && titleStopwords[strings.ToLower(w)] {
			continue
		}
		words = append(words, w)
		if len(words) == titleMaxWords {
			break
		}
	}
	candidate := capitalize(strings.Join(words, " "))

	if runes := []rune(candidate); len(runes) > titleMaxRunes {
		// the ellipsis counts toward the limit
		cut := runes[:titleMaxRunes-1]
		if i := lastSpace(cut); i > titleMinCutRunes {
			cut = cut[:i]
		}
		candidate = strings.TrimSpace(string(cut)) + "…"
	}
	if candidate == "" {
		return DefaultConversationTitle
	}
	return candidate
}

func lastSpace(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == ' ' {
			return i
		}
	}
	return -1
}

// TitleExtractor pulls the title of a document the user explicitly asks to
// work from. ok is false when the text names no document.
type TitleExtractor interface {
	ExtractTitle(text string) (title string, ok bool)
}

// PatternTitleExtractor returns capture group Group of the first match.
type PatternTitleExtractor struct {
	Pattern *regexp.Regexp
	Group   int
}

func (p PatternTitleExtractor) ExtractTitle(text string) (string, bool) {
	m := p.Pattern.FindStringSubmatch(text)
	if m == nil || p.Group >= len(m) {
		return "", false
	}
	return cleanRequestedTitle(m[p.Group])
}

// ColonTailExtractor returns whatever follows the first colon.
type ColonTailExtractor struct{}

func (ColonTailExtractor) ExtractTitle(text string) (string, bool) {
	i := strings.Index(text, ":")
	if i < 0 {
		return "", false
	}
	return cleanRequestedTitle(text[i+1:])
}

var trailingTitlePunct = regexp.MustCompile(`[\s.:,;]+$`)

func cleanRequestedTitle(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < 2 {
		return "", false
	}
	s = trailingTitlePunct.ReplaceAllString(s, "")
	return s, s != ""
}

const useDocumentPhrase = `\s*(en|el|la|este|esta)?\s*(apunte|documento|pdf)\s*(para\s*responder|para)?\s*[:\-]?\s*`

// DefaultTitleExtractors is the order used when none is configured:
// double-quoted title, single-quoted title, the rest of the line after the
// "use document" phrase, then the text after a colon.
func DefaultTitleExtractors() []TitleExtractor {
	return []TitleExtractor{
		PatternTitleExtractor{Pattern: regexp.MustCompile(`(?i)(usa|usar|utiliza|utilizar|apoyate|apoyarse|basate|basarse)` + useDocumentPhrase + `"([^"]+)"`), Group: 5},
		PatternTitleExtractor{Pattern: regexp.MustCompile(`(?i)(usa|usar|utiliza|utilizar|apoyate|basate)` + useDocumentPhrase + `'([^']+)'`), Group: 5},
		PatternTitleExtractor{Pattern: regexp.MustCompile(`(?i)(usa|usar|utiliza|utilizar|apoyate|basate)` + useDocumentPhrase + `([^\n\r]+)`), Group: 5},
		ColonTailExtractor{},
	}
}

// ExtractRequestedTitle runs the extractors in order; the first hit wins.
func ExtractRequestedTitle(extractors []TitleExtractor, text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	for _, e := range extractors {
		if title, ok := e.ExtractTitle(text); ok {
			return title, true
		}
	}
	return "", false
}
