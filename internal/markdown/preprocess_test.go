package markdown

import (
	"strings"
	"testing"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		notWant []string
		want    []string
	}{
		{
			name:    "removes image links",
			input:   "# Document\n\nHere's an image: ![Alt text](image.jpg)\n\nMore text.",
			notWant: []string{"![Alt text](image.jpg)"},
			want:    []string{"# Document", "Here's an image:", "More text."},
		},
		{
			name:    "removes html tags but keeps inner text",
			input:   "# Document\n\n<div>HTML content</div>\n\nMore text.",
			notWant: []string{"<div>", "</div>"},
			want:    []string{"HTML content", "More text."},
		},
		{
			name:  "leaves plain prose untouched",
			input: "Paragraph one.\n\nParagraph two stays exactly as written.",
			want:  []string{"Paragraph one.", "Paragraph two stays exactly as written."},
		},
		{
			name:  "preserves paragraph breaks",
			input: "First.\n\nSecond.",
			want:  []string{"First.\n\nSecond."},
		},
		{
			name:    "malformed image link left intact",
			input:   "Broken ![alt(no closing paren",
			notWant: nil,
			want:    []string{"Broken ![alt(no closing paren"},
		},
		{
			name:    "multiple images on one line",
			input:   "![a](x.png) text ![b](y.png)",
			notWant: []string{"![a](x.png)", "![b](y.png)"},
			want:    []string{" text "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Preprocess(tt.input)
			for _, s := range tt.notWant {
				if strings.Contains(got, s) {
					t.Errorf("Preprocess() output still contains %q:\n%s", s, got)
				}
			}
			for _, s := range tt.want {
				if !strings.Contains(got, s) {
					t.Errorf("Preprocess() output missing %q:\n%s", s, got)
				}
			}
		})
	}
}

func TestPreprocess_DoesNotNormalizeWhitespace(t *testing.T) {
	input := "# Title\n\n## Section\n\nBody text.\n"
	if got := Preprocess(input); got != input {
		t.Errorf("Preprocess() altered clean markdown:\ngot  %q\nwant %q", got, input)
	}
}
