package main

import (
	"os"

	"kbqa/internal/cli"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions over a markdown knowledge base using
// retrieval-augmented generation.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Knowledge Base Q&A API
//   description: |
//     API for querying a markdown knowledge base. Documents are chunked,
//     embedded, and stored in a vector store; answers are generated from
//     the retrieved context only.
//   version: 1.0.0
// schemes:
//   - http
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
