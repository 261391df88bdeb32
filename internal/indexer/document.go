package indexer

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// supportedExts are the help file formats IndexFile reads.
var supportedExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// frontMatter is the optional YAML header of a help file.
type frontMatter struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// helpDocument is a parsed help file.
type helpDocument struct {
	ID    string
	Title string
	Body  string
}

var fmDelim = []byte("---")

// parseHelpFile splits optional front matter from content and resolves the title:
// front matter title, then the first "# " heading, then the file name.
func parseHelpFile(path string, content []byte) (*helpDocument, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	var fm frontMatter
	body := content
	if bytes.HasPrefix(content, []byte("---\n")) {
		rest := content[len(fmDelim)+1:]
		// Offsets in the newline-prefixed copy are one past those in rest.
		end := bytes.Index(append([]byte("\n"), rest...), append([]byte("\n"), fmDelim...))
		if end < 0 {
			return nil, fmt.Errorf("%s: unterminated front matter", path)
		}
		if err := yaml.Unmarshal(rest[:max(end-1, 0)], &fm); err != nil {
			return nil, fmt.Errorf("%s: invalid front matter: %w", path, err)
		}
		body = bytes.TrimPrefix(rest[end+len(fmDelim):], []byte("\n"))
	}

	doc := &helpDocument{
		ID:    strings.TrimSpace(fm.ID),
		Title: strings.TrimSpace(fm.Title),
		Body:  strings.TrimSpace(string(body)),
	}
	if doc.Title == "" {
		doc.Title = firstHeading(doc.Body)
	}
	if doc.Title == "" {
		base := filepath.Base(path)
		doc.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return doc, nil
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}
