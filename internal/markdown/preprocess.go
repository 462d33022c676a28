// Package markdown cleans raw markdown before it is chunked and embedded.
package markdown

import "regexp"

var (
	// imageLink matches markdown image syntax: ![alt](url)
	imageLink = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	// htmlTag matches inline HTML tags: <div>, </div>, <br/>, ...
	htmlTag = regexp.MustCompile(`<[^>]*>`)
)

// Preprocess removes non-semantic markup (image links and HTML tags) from raw
// markdown text. Removal is best-effort: malformed markdown is left as-is, and
// prose, headings, and paragraph breaks are never altered. Whitespace is
// deliberately not normalized so paragraph boundaries survive into the chunkers.
func Preprocess(text string) string {
	text = imageLink.ReplaceAllString(text, "")
	text = htmlTag.ReplaceAllString(text, "")
	return text
}
