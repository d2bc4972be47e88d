package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kadena-rag/internal/domain"
	"kadena-rag/internal/llm"
	"kadena-rag/internal/vectorstore"
)

// DefaultTopK is the number of chunks retrieved when the caller does not ask
// for a specific count.
const DefaultTopK = 5

// ErrEmptyQuestion is returned before any external call when the question is
// blank.
var ErrEmptyQuestion = errors.New("question must not be empty")

const systemPrompt = `You are an expert assistant for the Kadena blockchain documentation.
Answer questions about Kadena technology, Pact smart contracts, and the Kadena ecosystem.
Use only the information in the provided context. If the context does not contain
enough information to answer, say so plainly instead of guessing.
Respond in plain text without markdown formatting.`

// Engine answers questions by retrieving relevant chunks from a collection
// and feeding them as context to a chat completion.
type Engine struct {
	collection vectorstore.Collection
	completer  llm.Completer
}

func NewEngine(collection vectorstore.Collection, completer llm.Completer) *Engine {
	return &Engine{collection: collection, completer: completer}
}

// Answer retrieves up to k relevant chunks, invokes the completion with the
// assembled context, and shapes the response. Sources keep the retrieval
// rank order, duplicates included. Retrieval and completion failures
// propagate to the caller; nothing is retried or cached.
func (e *Engine) Answer(ctx context.Context, question string, k int) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if k <= 0 {
		k = DefaultTopK
	}

	res, err := e.collection.Query(ctx, question, k)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	// Chunk texts in rank order, separated by a blank line. With zero hits
	// the context is empty and the model answers from its own knowledge.
	contextText := strings.Join(res.Documents, "\n\n")
	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question)

	text, err := e.completer.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	sources := make([]domain.Metadata, len(res.Metadatas))
	copy(sources, res.Metadatas)
	return &domain.Answer{Answer: text, Sources: sources}, nil
}
