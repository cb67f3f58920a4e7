// Package thread implements the follow-up dialog manager (C12): thread
// creation seeded from a MemoryEntry, and turn appends with optional
// per-turn retrieval enhancement.
package thread

import (
	"context"
	"fmt"
	"strings"

	"github.com/siherrmann/ragcore/core/embedder"
	"github.com/siherrmann/ragcore/core/llm"
	"github.com/siherrmann/ragcore/core/qa"
	"github.com/siherrmann/ragcore/core/retrieval"
	"github.com/siherrmann/ragcore/database"
	"github.com/siherrmann/ragcore/model"
)

// Manager implements the thread state machine: Empty -> Active on
// Create, staying Active for every subsequent Append.
type Manager struct {
	feedback  *database.FeedbackDBHandler
	threads   *database.ThreadsDBHandler
	memory    *database.MemoryDBHandler
	documents *database.DocumentsDBHandler
	engine    *retrieval.Engine
	embedder  embedder.Client
	llm       llm.Client
}

func NewManager(feedback *database.FeedbackDBHandler, threads *database.ThreadsDBHandler, memory *database.MemoryDBHandler, documents *database.DocumentsDBHandler, engine *retrieval.Engine, embedClient embedder.Client, llmClient llm.Client) *Manager {
	return &Manager{
		feedback:  feedback,
		threads:   threads,
		memory:    memory,
		documents: documents,
		engine:    engine,
		embedder:  embedClient,
		llm:       llmClient,
	}
}

// Create opens a thread on a MemoryEntry, seeding it with the entry's
// original question and answer as the first two messages.
func (m *Manager) Create(memoryID int, title string) (*model.Feedback, error) {
	feedback, err := m.feedback.CreateThread(memoryID, title)
	if err != nil {
		return nil, err
	}

	entry, err := m.memory.SelectMemory(memoryID)
	if err != nil {
		return feedback, nil
	}

	if _, err := m.threads.AppendMessage(feedback.ID, entry.Question, true, nil, nil); err != nil {
		return feedback, nil
	}
	if _, err := m.threads.AppendMessage(feedback.ID, entry.Answer, false, entry.References, entry.ChunkIDs); err != nil {
		return feedback, nil
	}

	return feedback, nil
}

// Append persists the user's turn, produces and persists the assistant's
// reply, and returns the assistant message.
func (m *Manager) Append(ctx context.Context, threadID int, userText string, enhanceWithRetrieval bool, kPrime int) (*model.ThreadMessage, error) {
	if _, err := m.threads.AppendMessage(threadID, userText, true, nil, nil); err != nil {
		return nil, err
	}

	priorMessages, err := m.threads.SelectMessages(threadID)
	if err != nil {
		return nil, err
	}
	// The just-appended user turn is the last message; exclude it from
	// the history used to condition the reply.
	if len(priorMessages) > 0 {
		priorMessages = priorMessages[:len(priorMessages)-1]
	}

	var (
		answer     string
		references []string
		chunkIDs   []int
	)

	if enhanceWithRetrieval {
		embedding, err := m.embedder.Embed(ctx, userText)
		if err != nil {
			return nil, err
		}

		results, err := m.engine.VectorRetrieve(ctx, embedding, &model.QueryConfig{TopK: kPrime})
		if err != nil {
			return nil, err
		}

		chunks := m.toQAChunks(results)
		history := historyBlock(lastAssistantTurns(priorMessages, 2))

		result, err := qa.SynthesizeWithHistory(ctx, m.llm, userText, history, chunks)
		if err != nil {
			return nil, err
		}
		answer = result.Answer
		references = result.References
		chunkIDs = chunkIDsOf(results)
	} else {
		answer, err = qa.Converse(ctx, m.llm, historyBlock(priorMessages), userText)
		if err != nil {
			return nil, err
		}
	}

	return m.threads.AppendMessage(threadID, answer, false, references, chunkIDs)
}

// List returns every message of a thread in creation order.
func (m *Manager) List(threadID int) ([]*model.ThreadMessage, error) {
	return m.threads.SelectMessages(threadID)
}

func (m *Manager) toQAChunks(results []*model.RetrievalResult) []qa.Chunk {
	chunks := make([]qa.Chunk, len(results))
	for i, result := range results {
		chunks[i] = qa.Chunk{
			Index:     i + 1,
			Text:      result.Chunk.Content,
			Reference: m.reference(result.Chunk),
		}
	}
	return chunks
}

func (m *Manager) reference(chunk *model.Chunk) string {
	doc, err := m.documents.SelectDocument(chunk.DocumentRID)
	if err != nil || doc.Title == "" {
		return fmt.Sprintf("chunk %d", chunk.ID)
	}
	return doc.Title
}

func chunkIDsOf(results []*model.RetrievalResult) []int {
	ids := make([]int, len(results))
	for i, result := range results {
		ids[i] = result.Chunk.ID
	}
	return ids
}

// lastAssistantTurns returns up to n of the most recent assistant
// messages, in original order.
func lastAssistantTurns(messages []*model.ThreadMessage, n int) []*model.ThreadMessage {
	var assistant []*model.ThreadMessage
	for _, message := range messages {
		if !message.IsUser {
			assistant = append(assistant, message)
		}
	}
	if len(assistant) > n {
		assistant = assistant[len(assistant)-n:]
	}
	return assistant
}

func historyBlock(messages []*model.ThreadMessage) string {
	if len(messages) == 0 {
		return ""
	}
	lines := make([]string, len(messages))
	for i, message := range messages {
		role := "assistant"
		if message.IsUser {
			role = "user"
		}
		lines[i] = fmt.Sprintf("%s: %s", role, message.Text)
	}
	return strings.Join(lines, "\n")
}
