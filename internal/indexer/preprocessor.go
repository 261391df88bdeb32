package indexer

import (
	"strings"
	"unicode"
)

// Preprocess normalizes text for embedding (trim, collapse whitespace).
func Preprocess(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

// embeddingInput is the text embedded for an entry: the title, a blank line,
// then the body, each whitespace-normalized. Markdown heading markers are dropped.
func embeddingInput(title, body string) string {
	title = Preprocess(title)
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		lines = append(lines, strings.TrimLeft(line, "# "))
	}
	body = Preprocess(strings.Join(lines, "\n"))
	switch {
	case title == "":
		return body
	case body == "":
		return title
	default:
		return title + "\n\n" + body
	}
}
