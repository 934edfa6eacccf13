package memoir

import (
	"context"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// ContextKey is the type for request-scoped metadata keys.
type ContextKey string

// WithSessionID attaches a session ID to the context so outgoing model
// requests can be tagged with it.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextKey("sessionID"), sessionID)
}

// WithUserID attaches a user ID to the context for request tagging.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextKey("userID"), userID)
}

// LLM defines the minimal contract required to interact with a language-model
// provider. Implementations may add additional helper methods but only the
// operations below are relied upon by the rest of the codebase.
type LLM interface {
	// New issues a non-streaming chat completion request.
	New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)

	// NewStreaming issues a streaming chat completion request, returning
	// an ssestream.Stream to consume the chunks.
	NewStreaming(ctx context.Context, params openai.ChatCompletionNewParams) *ssestream.Stream[openai.ChatCompletionChunk]
}

// OpenAILLM talks to a hosted chat-completion endpoint through the OpenAI
// SDK. A non-empty BaseURL points the client at Azure-style or gateway
// deployments that speak the same protocol.
type OpenAILLM struct {
	APIKey  string
	BaseURL string
	client  openai.Client
}

var _ LLM = (*OpenAILLM)(nil)

func NewOpenAILLM(apiKey string, baseURL string) *OpenAILLM {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAILLM{
		APIKey:  apiKey,
		BaseURL: baseURL,
		client:  openai.NewClient(opts...),
	}
}

func optsWithIds(ctx context.Context, opts []option.RequestOption) []option.RequestOption {
	if sessionID, ok := ctx.Value(ContextKey("sessionID")).(string); ok {
		opts = append(opts, option.WithJSONSet("custom_identifier", sessionID))
	}

	if userID, ok := ctx.Value(ContextKey("userID")).(string); ok {
		opts = append(opts, option.WithJSONSet("user", userID))
	}

	return opts
}

func (c *OpenAILLM) New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	opts := []option.RequestOption{}
	opts = optsWithIds(ctx, opts)
	return c.client.Chat.Completions.New(ctx, params, opts...)
}

func (c *OpenAILLM) NewStreaming(ctx context.Context, params openai.ChatCompletionNewParams) *ssestream.Stream[openai.ChatCompletionChunk] {
	opts := []option.RequestOption{}
	opts = optsWithIds(ctx, opts)
	return c.client.Chat.Completions.NewStreaming(ctx, params, opts...)
}

// GenerateSchema builds a strict JSON schema for T, used with structured
// output response formats.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}
