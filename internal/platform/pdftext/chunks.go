package pdftext

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const sentenceJoin = ". "

var sentenceBreak = regexp.MustCompile(`[.!?]+`)

// SplitChunks splits text on sentence punctuation and packs the sentences,
// rejoined with ". ", into chunks of at most max runes. A sentence longer
// than max is cut on its own, at the last space of each window when one
// falls in the second half, otherwise mid-word.
func SplitChunks(text string, max int) []string {
	if max <= 0 {
		max = 4000
	}
	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	emit := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			chunks = append(chunks, s)
		}
	}
	flush := func() {
		emit(cur.String())
		cur.Reset()
		curLen = 0
	}

	for _, sentence := range sentenceBreak.Split(text, -1) {
		if utf8.RuneCountInString(sentence) > max {
			flush()
			pieces := splitLong(sentence, max)
			for _, p := range pieces[:len(pieces)-1] {
				emit(p)
			}
			sentence = pieces[len(pieces)-1]
		}
		n := utf8.RuneCountInString(sentence)
		if curLen > 0 && curLen+len(sentenceJoin)+n > max {
			flush()
		}
		if curLen > 0 {
			cur.WriteString(sentenceJoin)
			curLen += len(sentenceJoin)
		}
		cur.WriteString(sentence)
		curLen += n
	}
	flush()
	return chunks
}

// splitLong cuts s into pieces of at most max runes. It always returns at
// least one piece.
func splitLong(s string, max int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > max {
		cut := max
		for i := max; i > max/2; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		out = append(out, string(runes[:cut]))
		runes = runes[cut:]
	}
	return append(out, string(runes))
}
