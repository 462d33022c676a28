package chunker

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// maxSplitLevel is the deepest ATX heading level that starts a new chunk.
const maxSplitLevel = 3

// HeaderChunker splits markdown at #/##/### headings, one chunk per
// header-delimited region. Headings stay in the chunk text. Title and section
// metadata propagate forward to later chunks until a heading of equal or
// higher level replaces them; subsection is never inherited.
type HeaderChunker struct {
	parser goldmark.Markdown
}

// NewHeaderChunker creates a new header-hierarchy chunker.
func NewHeaderChunker() *HeaderChunker {
	return &HeaderChunker{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// headingMark records an ATX heading found in the source: its level, text,
// and the byte offset of the start of its line.
type headingMark struct {
	level     int
	text      string
	lineStart int
}

// region is one header-delimited slice of the document before inheritance is
// applied. text includes the heading line; body is the text after it.
type region struct {
	text    string
	body    string
	headers map[string]string
}

// Chunk splits text at heading boundaries and applies metadata inheritance.
// Regions with no content under their heading emit no chunk, but their heading
// still advances the inherited title/section state.
func (c *HeaderChunker) Chunk(docText string) ([]Piece, error) {
	src := []byte(docText)
	marks := c.findHeadings(src)
	regions := cutRegions(docText, marks)
	return inheritHeaders(regions), nil
}

// findHeadings walks the goldmark AST and collects ATX headings of level 1-3.
// Setext headings and headings nested in other blocks (quotes, lists) are not
// split points; the heading line must literally start with the hash marks.
func (c *HeaderChunker) findHeadings(src []byte) []headingMark {
	reader := text.NewReader(src)
	doc := c.parser.Parser().Parse(reader)

	var marks []headingMark
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if heading.Level > maxSplitLevel {
			return ast.WalkContinue, nil
		}
		if heading.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}

		seg := heading.Lines().At(0)
		lineStart := lineStartBefore(src, seg.Start)
		if !hasHashPrefix(src[lineStart:], heading.Level) {
			return ast.WalkContinue, nil
		}

		marks = append(marks, headingMark{
			level:     heading.Level,
			text:      headingText(heading, src),
			lineStart: lineStart,
		})
		return ast.WalkContinue, nil
	})
	return marks
}

// cutRegions slices the document at each heading line start. The slice before
// the first heading (if any) becomes a headerless preamble region.
func cutRegions(docText string, marks []headingMark) []region {
	var regions []region

	if len(marks) == 0 {
		return []region{{text: docText, body: docText, headers: map[string]string{}}}
	}

	if pre := docText[:marks[0].lineStart]; strings.TrimSpace(pre) != "" {
		regions = append(regions, region{text: pre, body: pre, headers: map[string]string{}})
	}

	for i, mark := range marks {
		end := len(docText)
		if i+1 < len(marks) {
			end = marks[i+1].lineStart
		}
		regionText := docText[mark.lineStart:end]

		// Body is everything after the heading's own line.
		body := ""
		if nl := strings.IndexByte(regionText, '\n'); nl != -1 {
			body = regionText[nl+1:]
		}

		headers := map[string]string{}
		switch mark.level {
		case 1:
			headers[KeyTitle] = mark.text
		case 2:
			headers[KeySection] = mark.text
		case 3:
			headers[KeySubsection] = mark.text
		}

		regions = append(regions, region{text: regionText, body: body, headers: headers})
	}

	return regions
}

// inheritHeaders folds over regions in document order carrying the last seen
// title and section. A region lacking a title or section key receives the
// carried value; a new title ends section propagation (equal-or-higher level
// headings reset lower ones). Subsection is never carried forward. Regions
// whose body is whitespace-only are dropped from the output; their headings
// still update the carried state.
func inheritHeaders(regions []region) []Piece {
	var pieces []Piece
	lastTitle, lastSection := "", ""

	for _, reg := range regions {
		if title, ok := reg.headers[KeyTitle]; ok {
			lastTitle = title
			lastSection = ""
		}
		if section, ok := reg.headers[KeySection]; ok {
			lastSection = section
		}

		if strings.TrimSpace(reg.body) == "" {
			continue
		}

		headers := map[string]string{}
		for k, v := range reg.headers {
			headers[k] = v
		}
		if _, ok := headers[KeyTitle]; !ok && lastTitle != "" {
			headers[KeyTitle] = lastTitle
		}
		if _, ok := headers[KeySection]; !ok && lastSection != "" {
			headers[KeySection] = lastSection
		}

		pieces = append(pieces, Piece{
			Text:    strings.TrimSpace(reg.text),
			Headers: headers,
		})
	}

	return pieces
}

// lineStartBefore returns the offset of the first byte of the line containing
// offset. Heading segments start after the hash marks, so we back up to the
// preceding newline.
func lineStartBefore(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	for i := offset - 1; i >= 0; i-- {
		if src[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

// hasHashPrefix reports whether line starts with exactly level hash marks
// followed by a space or tab.
func hasHashPrefix(line []byte, level int) bool {
	if len(line) < level+1 {
		return false
	}
	for i := 0; i < level; i++ {
		if line[i] != '#' {
			return false
		}
	}
	return line[level] == ' ' || line[level] == '\t'
}

// headingText extracts the plain text of a heading node.
func headingText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
