package rag

// Request represents a knowledge base query request.
type Request struct {
	// Query is the user's question to answer.
	Query string `json:"query"`
	// Model optionally overrides the default chat model.
	Model string `json:"model,omitempty"`
	// TopK optionally specifies how many context chunks to retrieve.
	TopK int `json:"top_k,omitempty"`
}

// RetrievedChunk is one context chunk retrieved for a query, with its
// provenance metadata and distance (lower is more relevant).
type RetrievedChunk struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Distance float64        `json:"distance"`
}

// Result represents a full query result including the context used.
type Result struct {
	Query         string           `json:"query"`
	Answer        string           `json:"answer"`
	ContextChunks []RetrievedChunk `json:"context_chunks"`
	ModelUsed     string           `json:"model_used"`
}
