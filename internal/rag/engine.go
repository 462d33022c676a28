package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_client.go -package=mocks kbqa/internal/rag ChatClient

import (
	"context"
	"errors"
	"fmt"

	"kbqa/internal/contextutil"
	"kbqa/internal/llm"
)

const (
	// DefaultTopK is the number of context chunks retrieved when the
	// request does not specify one.
	DefaultTopK = 5

	answerTemperature = 0.3
	answerMaxTokens   = 1000
)

// ErrMissingAPIKey is returned when no OpenAI API key is configured.
// The check runs before any retrieval so a misconfigured deployment fails
// fast instead of after embedding the query.
var ErrMissingAPIKey = errors.New("OpenAI API key not found")

// ChatClient defines the chat completion contract the engine depends on.
// The llm.Client satisfies this.
type ChatClient interface {
	Chat(ctx context.Context, system, user string, params llm.ChatParams) (string, error)
}

// Engine answers questions over the knowledge base using retrieval-augmented
// generation.
type Engine interface {
	// Query retrieves relevant chunks and generates a grounded answer.
	Query(ctx context.Context, req Request) (Result, error)
}

// engine implements the Engine interface.
type engine struct {
	retriever    *Retriever
	chat         ChatClient
	defaultModel string
	apiKey       string
}

// NewEngine creates a new engine.
func NewEngine(retriever *Retriever, chat ChatClient, defaultModel, apiKey string) Engine {
	return &engine{
		retriever:    retriever,
		chat:         chat,
		defaultModel: defaultModel,
		apiKey:       apiKey,
	}
}

// Query answers a question using the knowledge base.
func (e *engine) Query(ctx context.Context, req Request) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if e.apiKey == "" {
		return Result{}, ErrMissingAPIKey
	}

	model := req.Model
	if model == "" {
		model = e.defaultModel
	}
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	logger.InfoContext(ctx, "query started", "query", req.Query, "model", model, "top_k", topK)

	chunks, err := e.retriever.Retrieve(ctx, req.Query, topK)
	if err != nil {
		return Result{}, err
	}

	// An empty retrieval still goes to the model: the prompt instructs it
	// to answer with the fallback sentence when the context is insufficient.
	prompt := BuildPrompt(req.Query, FormatContext(chunks))

	answer, err := e.chat.Chat(ctx, systemPrompt, prompt, llm.ChatParams{
		Model:       model,
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
	})
	if err != nil {
		logger.ErrorContext(ctx, "chat completion failed", "model", model, "error", err)
		return Result{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	logger.InfoContext(ctx, "query completed", "model", model, "chunks_used", len(chunks))

	return Result{
		Query:         req.Query,
		Answer:        answer,
		ContextChunks: chunks,
		ModelUsed:     model,
	}, nil
}
