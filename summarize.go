package memoir

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// SummaryMaxSentences bounds how long a history summary may get.
const SummaryMaxSentences = 5

// Summarize folds the session's stored history into a short summary. The
// history itself is left untouched.
func (c *Conversation) Summarize(ctx context.Context, sessionID string) (string, error) {
	turns, err := c.store.Turns(ctx, sessionID, 0)
	if err != nil {
		return "", fmt.Errorf("failed to load history: %w", err)
	}
	if len(turns) == 0 {
		return "", ErrNoHistory
	}

	instruction, err := SummaryPrompt(SummaryPromptData{MaxSentences: SummaryMaxSentences})
	if err != nil {
		return "", fmt.Errorf("failed to render summary prompt: %w", err)
	}

	messages := NewMessageList()
	for _, t := range turns {
		messages.Add(t.Param())
	}
	messages.Add(openai.DeveloperMessage(instruction))

	completion, err := c.llm.New(WithSessionID(ctx, sessionID), c.params(messages))
	if err != nil {
		return "", classifyModelError(c.model, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	c.recordUsage(completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
	return completion.Choices[0].Message.Content, nil
}

// Compact replaces the session's stored history with a single summary turn.
// This is the escape hatch when a history no longer fits the context window:
// the session keeps the gist of what was said and sheds the bulk.
func (c *Conversation) Compact(ctx context.Context, sessionID string) (string, error) {
	summary, err := c.Summarize(ctx, sessionID)
	if err != nil {
		return "", err
	}

	if err := c.store.Clear(ctx, sessionID); err != nil {
		return "", fmt.Errorf("failed to clear history: %w", err)
	}

	turn := NewTurn(sessionID, RoleSystem, "Summary of the conversation so far: "+summary)
	if err := c.store.Append(ctx, sessionID, turn); err != nil {
		return "", fmt.Errorf("failed to persist summary: %w", err)
	}

	c.logger.Info("session compacted", "sessionID", sessionID)
	return summary, nil
}
