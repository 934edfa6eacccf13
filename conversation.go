package memoir

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
)

// DefaultModel is used when no model option is given.
const DefaultModel = "gpt-4o-mini"

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithModel selects the chat model.
func WithModel(model string) ConversationOption {
	return func(c *Conversation) { c.model = model }
}

// WithSystemPrompt replaces the default instruction prompt.
func WithSystemPrompt(prompt string) ConversationOption {
	return func(c *Conversation) { c.systemPrompt = prompt }
}

// WithWindow caps how many stored turns are replayed into each prompt. Zero
// means the full history.
func WithWindow(turns int) ConversationOption {
	return func(c *Conversation) { c.window = turns }
}

// WithRelevanceFilter narrows the replayed history to the conversations the
// latest message actually refers to, at the price of one extra model call
// per question.
func WithRelevanceFilter() ConversationOption {
	return func(c *Conversation) { c.relevanceFilter = true }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(tokens int64) ConversationOption {
	return func(c *Conversation) { c.maxTokens = tokens }
}

// WithLogger replaces the default slog logger.
func WithLogger(logger *slog.Logger) ConversationOption {
	return func(c *Conversation) { c.logger = logger }
}

// Conversation answers questions with the session's stored history replayed
// into every request. The model itself holds no state between calls: whatever
// the Store returns is the entire memory the model sees, and a session asked
// about through a different Conversation pointed at the same store remembers
// exactly the same things.
type Conversation struct {
	llm   LLM
	store Store

	model           string
	systemPrompt    string
	window          int
	relevanceFilter bool
	maxTokens       int64
	logger          *slog.Logger

	mu    sync.Mutex
	usage Usage
}

func NewConversation(llm LLM, store Store, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		llm:          llm,
		store:        store,
		model:        DefaultModel,
		systemPrompt: DefaultSystemPrompt,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model reports which chat model the conversation is configured for.
func (c *Conversation) Model() string {
	return c.model
}

// history loads the replayable turns for a session, applying the window cap
// and, when enabled, the relevance filter.
func (c *Conversation) history(ctx context.Context, sessionID string, question string) ([]Turn, error) {
	turns, err := c.store.Turns(ctx, sessionID, c.window)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	if c.relevanceFilter && len(turns) > 0 {
		filtered, usage, err := RelevantTurns(ctx, c.llm, c.model, turns, question)
		// The filter call consumed tokens whether or not its answer parsed.
		c.recordUsage(usage.InputTokens, usage.OutputTokens)
		if err != nil {
			// The filter is an optimization; fall back to the full window.
			c.logger.Warn("relevance filter failed, replaying full window", "sessionID", sessionID, "error", err)
			return turns, nil
		}
		return filtered, nil
	}

	return turns, nil
}

func (c *Conversation) params(messages *MessageList) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages: messages.All(),
		Model:    shared.ChatModel(c.model),
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(c.maxTokens)
	}
	return params
}

func (c *Conversation) recordUsage(inputTokens int64, outputTokens int64) {
	c.mu.Lock()
	c.usage.InputTokens += inputTokens
	c.usage.OutputTokens += outputTokens
	c.mu.Unlock()
}

// Usage returns the tokens accumulated across all requests so far.
func (c *Conversation) Usage() Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// Ask answers the question within the session: stored history is replayed
// into the prompt, and on success both the question and the answer are
// persisted, so the next Ask sees them. The sessionID is the entire identity
// of the conversation; two callers using the same ID against the same store
// share one memory.
func (c *Conversation) Ask(ctx context.Context, sessionID string, question string) (string, error) {
	return c.complete(ctx, sessionID, c.systemPrompt, question)
}

// AskGrounded answers the question with retrieved documents injected into
// the instruction prompt alongside the replayed history.
func (c *Conversation) AskGrounded(ctx context.Context, sessionID string, question string, retriever Retriever, top int) (string, error) {
	docs, err := retriever.Search(ctx, question, top)
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}

	systemPrompt, err := GroundedPrompt(GroundedPromptData{
		Instructions: c.systemPrompt,
		Documents:    docs,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render grounded prompt: %w", err)
	}

	return c.complete(ctx, sessionID, systemPrompt, question)
}

func (c *Conversation) complete(ctx context.Context, sessionID string, systemPrompt string, question string) (string, error) {
	history, err := c.history(ctx, sessionID, question)
	if err != nil {
		return "", err
	}

	messages := BuildMessages(systemPrompt, history, question)

	completion, err := c.llm.New(WithSessionID(ctx, sessionID), c.params(messages))
	if err != nil {
		return "", classifyModelError(c.model, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	answer := completion.Choices[0].Message.Content
	c.recordUsage(completion.Usage.PromptTokens, completion.Usage.CompletionTokens)

	if err := c.persistExchange(ctx, sessionID, question, answer); err != nil {
		return "", err
	}

	c.logger.Info("turn completed", "sessionID", sessionID, "replayedTurns", len(history), "promptTokens", completion.Usage.PromptTokens)
	return answer, nil
}

func (c *Conversation) persistExchange(ctx context.Context, sessionID string, question string, answer string) error {
	err := c.store.Append(ctx, sessionID,
		NewTurn(sessionID, RoleUser, question),
		NewTurn(sessionID, RoleAssistant, answer),
	)
	if err != nil {
		return fmt.Errorf("failed to persist turns: %w", err)
	}
	return nil
}

// AskStream answers the question as a stream. The returned channel yields
// partial-text responses while the model generates and terminates with a
// single end or error response. The exchange is persisted once the stream
// completes, so a consumer that abandons the channel mid-answer still gets a
// consistent history. Cancelling the context aborts the answer instead:
// nothing is persisted and the channel closes.
func (c *Conversation) AskStream(ctx context.Context, sessionID string, question string) (<-chan Response, error) {
	history, err := c.history(ctx, sessionID, question)
	if err != nil {
		return nil, err
	}

	messages := BuildMessages(c.systemPrompt, history, question)
	params := c.params(messages)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	out := make(chan Response)
	go func() {
		defer close(out)

		// A consumer aborts by cancelling the context, possibly without
		// draining the channel, so every send also watches ctx.
		send := func(r Response) bool {
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		stream := c.llm.NewStreaming(WithSessionID(ctx, sessionID), params)
		defer stream.Close()

		acc := openai.ChatCompletionAccumulator{}
		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				if !send(Response{
					Content: chunk.Choices[0].Delta.Content,
					Type:    ResponseTypePartialText,
				}) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			err = classifyModelError(c.model, err)
			c.logger.Error("stream failed", "sessionID", sessionID, "error", err)
			send(Response{Content: err.Error(), Type: ResponseTypeError})
			return
		}

		answer := ""
		if len(acc.Choices) > 0 {
			answer = acc.Choices[0].Message.Content
		}
		c.recordUsage(acc.Usage.PromptTokens, acc.Usage.CompletionTokens)

		if err := c.persistExchange(ctx, sessionID, question, answer); err != nil {
			send(Response{Content: err.Error(), Type: ResponseTypeError})
			return
		}

		send(Response{Type: ResponseTypeEnd})
	}()

	return out, nil
}

// History returns the session's full stored history.
func (c *Conversation) History(ctx context.Context, sessionID string) ([]Turn, error) {
	return c.store.Turns(ctx, sessionID, 0)
}

// Forget erases the session's stored history. The next Ask starts from
// nothing, exactly like a session that never existed.
func (c *Conversation) Forget(ctx context.Context, sessionID string) error {
	return c.store.Clear(ctx, sessionID)
}
