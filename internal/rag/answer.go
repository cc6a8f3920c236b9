package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/docuchat/backend/internal/chatroom"
)

// At most this many retrieved chunks are sent to the model. Retrieval may
// return more; the rest are discarded to bound prompt size.
const maxContextChunks = 2

// Turn is one entry of caller-supplied conversation history. Not persisted;
// the caller owns history storage.
type Turn struct {
	Role    string   `json:"role"` // "user" or "assistant"
	Content string   `json:"content"`
	Context []string `json:"context,omitempty"`
}

// Answer is the answer-pipeline result: the model's text plus the context
// chunks that were actually sent to it.
type Answer struct {
	Response string   `json:"response"`
	Context  []string `json:"context"`
}

const answerTemplate = `You are a helpful assistant that answers questions about a set of uploaded documents.
Use only the context below. If the answer is not in the context, say you don't know; do not make one up.
If the question is unrelated to the context, politely say you can only answer questions about the provided documents.

Context:
%s

%sQuestion: %s
Helpful answer in markdown:`

// AnswerQuestion runs the answer pipeline: normalize -> retrieve -> assemble
// context -> render prompt -> complete. Provider failures propagate; no
// fallback answer is ever fabricated.
func (s *Service) AnswerQuestion(ctx context.Context, chatRoomID, question string, history []Turn) (*Answer, error) {
	room, apiKey, err := s.roomContext(ctx, chatRoomID)
	if err != nil {
		return nil, err
	}
	collection := chatroom.CollectionName(room.ID)

	normalized := normalizeQuestion(question)
	if normalized == "" {
		return nil, fmt.Errorf("answer room=%s: empty question", room.ID)
	}

	queryVecs, err := s.embedder.Embed(ctx, apiKey, []string{normalized})
	if err != nil {
		return nil, fmt.Errorf("answer room=%s: embed question: %w", room.ID, err)
	}

	retrieved, err := s.vectors.Query(ctx, collection, queryVecs[0], s.opts.RetrievalK)
	if err != nil {
		return nil, fmt.Errorf("answer room=%s: retrieve: %w", room.ID, err)
	}

	contextChunks := make([]string, 0, maxContextChunks)
	for _, r := range retrieved {
		if len(contextChunks) == maxContextChunks {
			break
		}
		contextChunks = append(contextChunks, r.Text)
	}

	prompt := renderAnswerPrompt(contextChunks, history, normalized)

	response, err := s.completer.Complete(ctx, apiKey, prompt)
	if err != nil {
		return nil, fmt.Errorf("answer room=%s: complete: %w", room.ID, err)
	}

	return &Answer{Response: response, Context: contextChunks}, nil
}

func normalizeQuestion(q string) string {
	return strings.TrimSpace(strings.ReplaceAll(q, "\n", " "))
}

// SerializeHistory flattens turns into "role: content" lines, chronological
// order preserved. Empty history yields an empty string.
func SerializeHistory(history []Turn) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range history {
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

func renderAnswerPrompt(contextChunks []string, history []Turn, question string) string {
	historyBlock := ""
	if h := SerializeHistory(history); h != "" {
		historyBlock = "Conversation so far:\n" + h
	}
	return fmt.Sprintf(answerTemplate, strings.Join(contextChunks, "\n\n"), historyBlock, question)
}
