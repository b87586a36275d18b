package extract

import (
	"strings"

	"github.com/jward/joanna/internal/syntax"
)

// statusTags are the API-status prefixes documentation may start with.
var statusTags = []string{"Public:", "Private:", "Essential:", "Extended:", "Section:"}

const defaultTag = "Private: "

// commentGroup is a run of comments with no blank line between them.
type commentGroup struct {
	text  string
	start syntax.Position
	end   syntax.Position
}

// groupComments merges comments whose lines touch. Text is normalized per
// comment before merging.
func groupComments(comments []syntax.Comment) []commentGroup {
	var groups []commentGroup
	for _, c := range comments {
		text := normalizeComment(c.Text)
		if n := len(groups); n > 0 && groups[n-1].end.Line == c.Loc.Start.Line-1 {
			g := &groups[n-1]
			g.text += "\n" + text
			g.end = c.Loc.End
			continue
		}
		groups = append(groups, commentGroup{text: text, start: c.Loc.Start, end: c.Loc.End})
	}
	for i := range groups {
		groups[i].text = strings.Trim(groups[i].text, "\n")
	}
	return groups
}

// normalizeComment trims every line and removes JSDoc star gutters. Blank
// lines at either edge are dropped.
func normalizeComment(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "**") {
			line = strings.TrimSpace(line[1:])
		}
		lines[i] = line
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// tagDoc prefixes text with the default status tag unless it already carries
// one. explicit reports whether the tag came from the source.
func tagDoc(text string) (doc string, explicit bool) {
	for _, tag := range statusTags {
		if strings.HasPrefix(text, tag) {
			return text, true
		}
	}
	return defaultTag + text, false
}

// leadingComments finds the comment run leading a node that starts at pos.
// Ancestors are searched innermost first; the search ends at the first
// ancestor that starts before pos.
func leadingComments(anc *ancestry, pos syntax.Position) []syntax.Comment {
	for a := anc; a != nil; a = a.parent {
		if a.node.Loc.Start.Before(pos) {
			return nil
		}
		if len(a.node.LeadingComments) > 0 {
			return a.node.LeadingComments
		}
	}
	return nil
}

// docAt resolves documentation for a node starting at pos. The nearest
// comment group becomes the documentation if it ends on the line before pos;
// every other group is registered as a detached comment.
func (w *walker) docAt(anc *ancestry, pos syntax.Position) (doc string, explicit, ok bool) {
	groups := groupComments(leadingComments(anc, pos))
	if len(groups) == 0 {
		return "", false, false
	}

	last := groups[len(groups)-1]
	attached := last.end.Line == pos.Line-1 && last.text != ""
	if attached {
		groups = groups[:len(groups)-1]
	}
	for _, g := range groups {
		if g.text == "" {
			continue
		}
		w.reg.AddComment(g.text, rangeOf(syntax.Span{Start: g.start, End: g.end}))
	}
	if !attached {
		return "", false, false
	}
	doc, explicit = tagDoc(last.text)
	return doc, explicit, true
}
