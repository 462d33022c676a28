package rag

import (
	"fmt"
	"strings"

	"kbqa/internal/chunker"
)

// FallbackAnswer is the sentence the model is instructed to return when the
// retrieved context cannot answer the question.
const FallbackAnswer = "I don't have enough information to answer this question."

// systemPrompt is the system message sent with every chat completion.
const systemPrompt = "You are a helpful assistant that answers questions based only on the provided context."

// promptTemplate grounds the model in the retrieved context. The first line
// intentionally ends with a trailing space.
const promptTemplate = `You are a helpful assistant for a company. Answer the question based ONLY on the provided context. 
If you don't know the answer or the information is not in the context, say "I don't have enough information to answer this question."
Do not make up or infer information that is not explicitly stated in the context.

CONTEXT:
%s

QUESTION:
%s

ANSWER:
`

// FormatContext renders retrieved chunks into the context block of the
// prompt, one delimited section per chunk.
func FormatContext(chunks []RetrievedChunk) string {
	var b strings.Builder

	for _, chunk := range chunks {
		meta := chunker.MetadataFromPayload(chunk.Metadata)

		sectionInfo := meta.Section
		if meta.Additional != "" {
			sectionInfo += fmt.Sprintf(" (Also covers: %s)", meta.Additional)
		}

		b.WriteString(fmt.Sprintf("\n--- Document: %s | Section: %s ---\n", meta.Source, sectionInfo))
		b.WriteString(chunk.Text)
		b.WriteString("\n")
	}

	return b.String()
}

// BuildPrompt creates the user message from the query and formatted context.
func BuildPrompt(query, context string) string {
	return fmt.Sprintf(promptTemplate, context, query)
}
