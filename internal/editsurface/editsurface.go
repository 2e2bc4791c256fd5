// Package editsurface renders and parses the text template that modify
// hands to an editor.
//
// The template has three sections, each introduced by a marker on its own
// line:
//
//	[title]
//	<title>
//	[description]
//	<description, may span lines>
//	[tags]
//	<comma-separated tags>
package editsurface

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Section markers. Each is recognized on a line of its own.
const (
	MarkerTitle       = "[title]"
	MarkerDescription = "[description]"
	MarkerTags        = "[tags]"
)

// IsMarker reports whether line reads as a section marker.
func IsMarker(line string) bool {
	switch strings.TrimSpace(line) {
	case MarkerTitle, MarkerDescription, MarkerTags:
		return true
	}
	return false
}

// ErrUnreadable is returned when edited text does not follow the template.
var ErrUnreadable = errors.New("unable to read changes")

// Surface is the editable subset of an issue.
type Surface struct {
	Title       string
	Description string
	Tags        []string
}

// Render produces the template text for s. Tags are written sorted and
// comma-joined.
func Render(s Surface) string {
	tags := append([]string(nil), s.Tags...)
	sort.Strings(tags)
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n%s\n",
		MarkerTitle, s.Title,
		MarkerDescription, s.Description,
		MarkerTags, strings.Join(tags, ","))
}

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenTitle
	tokenDescription
	tokenTags
)

type token struct {
	kind tokenKind
	text string
}

// lex splits text into one token per line, classifying marker lines.
func lex(text string) []token {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	tokens := make([]token, 0, len(lines))
	for _, line := range lines {
		kind := tokenText
		switch strings.TrimSpace(line) {
		case MarkerTitle:
			kind = tokenTitle
		case MarkerDescription:
			kind = tokenDescription
		case MarkerTags:
			kind = tokenTags
		}
		tokens = append(tokens, token{kind: kind, text: line})
	}
	return tokens
}

// anchor keeps the section markers and turns every other marker line back
// into text. The title marker is the first [title], the description marker
// the first [description] after it, and the tags marker the last [tags]
// after that. A description may then contain marker lines of its own.
func anchor(tokens []token) error {
	title := indexOf(tokens, tokenTitle, 0)
	if title < 0 {
		return fmt.Errorf("%w: missing %s marker", ErrUnreadable, MarkerTitle)
	}
	desc := indexOf(tokens, tokenDescription, title+1)
	if desc < 0 {
		return fmt.Errorf("%w: missing %s marker after %s", ErrUnreadable, MarkerDescription, MarkerTitle)
	}
	tags := -1
	for i := len(tokens) - 1; i > desc; i-- {
		if tokens[i].kind == tokenTags {
			tags = i
			break
		}
	}
	if tags < 0 {
		return fmt.Errorf("%w: missing %s marker after %s", ErrUnreadable, MarkerTags, MarkerDescription)
	}
	for i := range tokens {
		if i != title && i != desc && i != tags {
			tokens[i].kind = tokenText
		}
	}
	return nil
}

func indexOf(tokens []token, kind tokenKind, from int) int {
	for i := from; i < len(tokens); i++ {
		if tokens[i].kind == kind {
			return i
		}
	}
	return -1
}

// Parse reads edited template text back into a Surface.
//
// Blank lines before [title] are ignored; any other text there, a missing
// marker, or an empty or multi-line title make the text unreadable. Marker
// lines other than the three chosen by anchor are kept as text. Title and
// description are trimmed of surrounding whitespace. Tag lines are split on
// commas; entries are trimmed, empty entries dropped, and the result is
// de-duplicated and sorted.
func Parse(text string) (*Surface, error) {
	tokens := lex(text)
	if err := anchor(tokens); err != nil {
		return nil, err
	}

	sections := map[tokenKind][]string{}
	current := tokenText
	for _, tok := range tokens {
		if tok.kind != tokenText {
			current = tok.kind
			continue
		}
		if current == tokenText {
			if strings.TrimSpace(tok.text) != "" {
				return nil, fmt.Errorf("%w: text before %s", ErrUnreadable, MarkerTitle)
			}
			continue
		}
		sections[current] = append(sections[current], tok.text)
	}

	s := &Surface{
		Title:       strings.TrimSpace(strings.Join(sections[tokenTitle], "\n")),
		Description: strings.TrimSpace(strings.Join(sections[tokenDescription], "\n")),
		Tags:        SplitTags(strings.Join(sections[tokenTags], ",")),
	}
	if s.Title == "" {
		return nil, fmt.Errorf("%w: title is empty", ErrUnreadable)
	}
	if strings.Contains(s.Title, "\n") {
		return nil, fmt.Errorf("%w: title must be a single line", ErrUnreadable)
	}
	return s, nil
}

// SplitTags parses a comma-separated tag list.
func SplitTags(s string) []string {
	seen := map[string]bool{}
	tags := []string{}
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
