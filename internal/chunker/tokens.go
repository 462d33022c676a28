package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Defaults for the token-bounded strategy, measured in cl100k_base tokens.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

var (
	titleHeading   = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	sectionHeading = regexp.MustCompile(`(?m)^(#{2,4})\s+(.+)$`)
	// sentenceEnd marks sentence boundaries: ./!/? followed by whitespace.
	sentenceEnd = regexp.MustCompile(`[.!?]\s+`)
)

// encoding is the tokenizer surface TokenChunker needs. Production code uses
// tiktoken; tests substitute a trivial encoder.
type encoding interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// tiktokenEncoding adapts a tiktoken codec to the encoding interface.
type tiktokenEncoding struct {
	codec *tiktoken.Tiktoken
}

func (e tiktokenEncoding) Encode(text string) []int   { return e.codec.Encode(text, nil, nil) }
func (e tiktokenEncoding) Decode(tokens []int) string { return e.codec.Decode(tokens) }

// TokenChunker splits text into chunks of at most chunkSize tokens, preferring
// paragraph boundaries, then sentence boundaries, then a raw token cut with
// chunkOverlap tokens of overlap.
type TokenChunker struct {
	enc     encoding
	size    int
	overlap int
}

// NewTokenChunker creates a token-bounded chunker backed by the cl100k_base
// encoding (the GPT-4 tokenizer, matching the embedding model's tokenization).
func NewTokenChunker(chunkSize, chunkOverlap int) (*TokenChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, chunk size), got %d", chunkOverlap)
	}
	codec, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load cl100k_base encoding: %w", err)
	}
	return &TokenChunker{enc: tiktokenEncoding{codec: codec}, size: chunkSize, overlap: chunkOverlap}, nil
}

// Chunk splits text into token-bounded pieces. A document that fits in one
// chunk is returned whole and unmodified. Every piece carries the document's
// title heading plus the sections it covers: the first section heading inside
// a piece becomes its section, further ones go to additional_sections, and
// pieces with no heading of their own inherit the last section seen.
func (c *TokenChunker) Chunk(text string) ([]Piece, error) {
	docTitle, firstSection := scanDocumentHeadings(text)

	tokens := c.enc.Encode(text)
	if len(tokens) <= c.size {
		return []Piece{{Text: text, Headers: pieceHeaders(docTitle, firstSection, sectionsIn(text))}}, nil
	}

	var chunks []string
	i := 0
	for i < len(tokens) {
		end := i + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := c.enc.Decode(tokens[i:end])

		if end < len(tokens) {
			snapped := false

			// Prefer paragraph boundaries: drop the trailing partial paragraph.
			if paragraphs := strings.Split(chunk, "\n\n"); len(paragraphs) > 1 {
				if kept := strings.Join(paragraphs[:len(paragraphs)-1], "\n\n"); strings.TrimSpace(kept) != "" {
					chunk = kept
					i += c.advance(chunk)
					snapped = true
				}
			}

			// Then sentence boundaries: drop the trailing partial sentence,
			// keeping the final boundary punctuation.
			if !snapped {
				if bounds := sentenceEnd.FindAllStringIndex(chunk, -1); len(bounds) > 0 {
					if kept := chunk[:bounds[len(bounds)-1][0]+1]; strings.TrimSpace(kept) != "" {
						chunk = kept
						i += c.advance(chunk)
						snapped = true
					}
				}
			}

			// No usable boundary: raw cut with overlap.
			if !snapped {
				i += c.size - c.overlap
			}
		} else {
			i = len(tokens)
		}

		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	pieces := make([]Piece, 0, len(chunks))
	currentSection := firstSection
	for _, chunk := range chunks {
		sections := sectionsIn(chunk)
		if len(sections) > 0 {
			currentSection = sections[0]
		}
		pieces = append(pieces, Piece{
			Text:    chunk,
			Headers: pieceHeaders(docTitle, currentSection, sections),
		})
	}

	return pieces, nil
}

// advance returns the number of tokens consumed by chunk, never zero, so the
// window always makes progress even when boundary snapping leaves an empty
// chunk.
func (c *TokenChunker) advance(chunk string) int {
	if n := len(c.enc.Encode(chunk)); n > 0 {
		return n
	}
	return c.size - c.overlap
}

// scanDocumentHeadings finds the document title (first # heading) and the
// first section heading (##-####) anywhere in the document.
func scanDocumentHeadings(text string) (title, section string) {
	if m := titleHeading.FindStringSubmatch(text); m != nil {
		title = strings.TrimSpace(m[1])
	}
	if m := sectionHeading.FindStringSubmatch(text); m != nil {
		section = strings.TrimSpace(m[2])
	}
	return title, section
}

// sectionsIn lists the section headings (##-####) inside one chunk, in order.
func sectionsIn(chunk string) []string {
	var sections []string
	for _, m := range sectionHeading.FindAllStringSubmatch(chunk, -1) {
		sections = append(sections, strings.TrimSpace(m[2]))
	}
	return sections
}

// pieceHeaders assembles the header metadata for a token-bounded piece.
// sections holds the headings found inside the piece itself; any beyond the
// first are recorded as additional sections the piece also covers.
func pieceHeaders(title, section string, sections []string) map[string]string {
	headers := map[string]string{}
	if title != "" {
		headers[KeyTitle] = title
	}
	if section != "" {
		headers[KeySection] = section
	}
	if len(sections) > 1 {
		headers[KeyAdditional] = strings.Join(sections[1:], ", ")
	}
	return headers
}
