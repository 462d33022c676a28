package chunker

import "path/filepath"

// Metadata is the canonical provenance record attached to every stored chunk.
// Title falls back to the source filename and Section to the empty string, so
// both keys are always present downstream.
type Metadata struct {
	Source     string `json:"source"`
	Title      string `json:"title"`
	Section    string `json:"section"`
	Subsection string `json:"subsection,omitempty"`
	Additional string `json:"additional_sections,omitempty"`
	Path       string `json:"path"`
	ChunkID    int    `json:"chunk_id"`
	ChunkTotal int    `json:"chunk_total"`
}

// ExtractMetadata builds the canonical metadata for a chunk from its source
// file path and the header metadata its chunking strategy discovered.
// ChunkID and ChunkTotal are filled in by the ingestion pipeline.
func ExtractMetadata(path string, headers map[string]string) Metadata {
	filename := filepath.Base(path)

	title := headers[KeyTitle]
	if title == "" {
		title = filename
	}

	return Metadata{
		Source:     filename,
		Title:      title,
		Section:    headers[KeySection],
		Subsection: headers[KeySubsection],
		Additional: headers[KeyAdditional],
		Path:       path,
	}
}

// Payload converts the metadata to the map stored alongside the chunk in the
// vector store. Section is always present, even when empty; optional keys are
// written only when set.
func (m Metadata) Payload() map[string]any {
	payload := map[string]any{
		"source":      m.Source,
		"title":       m.Title,
		"section":     m.Section,
		"path":        m.Path,
		"chunk_id":    m.ChunkID,
		"chunk_total": m.ChunkTotal,
	}
	if m.Subsection != "" {
		payload["subsection"] = m.Subsection
	}
	if m.Additional != "" {
		payload["additional_sections"] = m.Additional
	}
	return payload
}

// MetadataFromPayload rebuilds a Metadata from a vector store payload map.
// Missing or mistyped keys fall back to zero values.
func MetadataFromPayload(payload map[string]any) Metadata {
	return Metadata{
		Source:     payloadString(payload, "source"),
		Title:      payloadString(payload, "title"),
		Section:    payloadString(payload, "section"),
		Subsection: payloadString(payload, "subsection"),
		Additional: payloadString(payload, "additional_sections"),
		Path:       payloadString(payload, "path"),
		ChunkID:    payloadInt(payload, "chunk_id"),
		ChunkTotal: payloadInt(payload, "chunk_total"),
	}
}

func payloadString(payload map[string]any, key string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return ""
}

func payloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
