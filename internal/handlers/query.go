package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"kbqa/internal/contextutil"
	"kbqa/internal/rag"
	"kbqa/internal/vectorstore"
)

// QueryHandler handles HTTP requests for knowledge base queries.
type QueryHandler struct {
	engine rag.Engine
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(engine rag.Engine) *QueryHandler {
	return &QueryHandler{engine: engine}
}

// QueryRequest represents the HTTP request payload for knowledge base queries.
//
// swagger:model QueryRequest
type QueryRequest struct {
	Query string `json:"query"`
	Model string `json:"model,omitempty"`
	TopK  int    `json:"top_k,omitempty"`
}

// QueryResponse represents the HTTP response payload. The context chunks are
// not exposed over HTTP, only the answer and the model that produced it.
//
// swagger:model QueryResponse
type QueryResponse struct {
	Query     string `json:"query"`
	Answer    string `json:"answer"`
	ModelUsed string `json:"model_used"`
}

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles HTTP requests for knowledge base queries.
//
// swagger:route POST /api/query query
//
// # Query the knowledge base
//
// Retrieves relevant document chunks and generates a grounded answer.
//
// responses:
//
//	'200':
//	  description: Successful response with the generated answer
//	  schema:
//	    "$ref": "#/definitions/QueryResponse"
//	'400':
//	  description: Bad request (missing query)
//	'500':
//	  description: Missing API key or internal error
//	'503':
//	  description: Knowledge base has not been ingested yet
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Query == "" {
		logger.WarnContext(ctx, "empty query in request")
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	result, err := h.engine.Query(ctx, rag.Request{
		Query: req.Query,
		Model: req.Model,
		TopK:  req.TopK,
	})
	if err != nil {
		h.handleEngineError(w, r, err)
		return
	}

	response := QueryResponse{
		Query:     result.Query,
		Answer:    result.Answer,
		ModelUsed: result.ModelUsed,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// handleEngineError maps engine errors to HTTP status codes.
func (h *QueryHandler) handleEngineError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	switch {
	case errors.Is(err, rag.ErrMissingAPIKey):
		logger.ErrorContext(ctx, "query rejected", "error", err)
		writeError(w, http.StatusInternalServerError, "OpenAI API key not found")
	case errors.Is(err, vectorstore.ErrCollectionNotFound):
		logger.WarnContext(ctx, "knowledge base not ingested", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Knowledge base is empty, run ingestion first")
	default:
		logger.ErrorContext(ctx, "query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process query")
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
