// Package chunker splits preprocessed markdown into bounded chunks carrying
// header-derived metadata. Two interchangeable strategies are provided: a
// header-hierarchy splitter (HeaderChunker) and a token-budget splitter
// (TokenChunker).
package chunker

// Header metadata keys attached to pieces by the chunking strategies.
const (
	KeyTitle      = "title"
	KeySection    = "section"
	KeySubsection = "subsection"
	// KeyAdditional lists further sections a single piece spans, comma-joined.
	KeyAdditional = "additional_sections"
)

// Piece is one chunk of text plus the partial header metadata discovered for
// it. Ordinals and provenance are attached later by the ingestion pipeline.
type Piece struct {
	Text    string
	Headers map[string]string
}

// Chunker splits a document's text into ordered pieces.
type Chunker interface {
	Chunk(text string) ([]Piece, error)
}
