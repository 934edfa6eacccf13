package memoir

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
)

const PromptFindRelevantTurns = `Identify the IDs of conversations from the history that provide context for the user's latest message. Strictly adhere to identifying only directly or indirectly referred conversations in the latest interaction. If the latest message does not directly reference any prior conversation, return an empty array.

- **Input Data**:
  - <ConversationHistory>: A series of conversations, each wrapped in <Conversation ID=X></Conversation> tags, where X is the conversation ID.
  - <LatestMessage>: The current message from the user.
- **Goal**: List the IDs of past conversations relevant for understanding the latest message without assuming relevance based on similarity.

# Output Format
- **Format**: JSON object
  - conversationIDs: A list of relevant conversation IDs, e.g., ["2"] or [] if no relevant conversations are found.

# Examples

**Example 1**

- **Input**:
  <ConversationHistory>
  <Conversation ID=1>
  Human: Hi, how are you?
  Assistant: I'm doing well, thank you. How can I help you today?
  </Conversation>

  <Conversation ID=2>
  Human: What's the delivery time for the order?
  Assistant: Delivery typically takes 3-5 business days. Do you have a specific order you're inquiring about?
  </Conversation>

  <Conversation ID=3>
  Human: Did you receive my payment?
  Assistant: Yes, we've received your payment. Thank you for confirming.
  </Conversation>
  </ConversationHistory>

  <LatestMessage>
  Human: When will my order arrive?
  </LatestMessage>

- **Output**:
  - conversationIDs: ["2"]

**Example 2**

- **Input**:
  <ConversationHistory>
  <Conversation ID=1>
  Human: Do you ship to Norway?
  Assistant: Yes, we ship to all Nordic countries.
  </Conversation>

  <Conversation ID=2>
  Human: What's your return policy?
  Assistant: Items can be returned within 30 days of delivery.
  </Conversation>
  </ConversationHistory>

  <LatestMessage>
  Human: Let's talk about something else entirely.
  </LatestMessage>

- **Output**:
  - conversationIDs: []

# Notes
- Focus on relevance strictly based on explicit references in the latest message.
- Avoid assumptions based on conversational similarity without explicit links.
`

type RelevantConversationIDs struct {
	ConversationIDs []string `json:"conversationIDs"`
}

// FormatHistory renders stored turns into the tagged structure the relevance
// prompt expects: each user message and the assistant messages that follow it
// are wrapped in <Conversation ID=X> tags, the whole history in
// <ConversationHistory> tags, and the latest message in <LatestMessage> tags.
func FormatHistory(turns []Turn, latestMessage string) string {
	formatted, _ := formatHistory(turns, latestMessage)
	return formatted
}

// formatHistory also returns, per conversation ID, the index into turns where
// that conversation starts, so a relevant ID can be mapped back to a slice of
// the history.
func formatHistory(turns []Turn, latestMessage string) (string, []int) {
	var result strings.Builder
	var starts []int

	fmt.Fprintf(&result, "<ConversationHistory>\n")

	inConversation := false
	for i, t := range turns {
		speaker := "Human"
		if t.Role == RoleAssistant {
			speaker = "Assistant"
		}

		// A user turn after an assistant turn opens the next conversation.
		if t.Role != RoleAssistant && !inConversation {
			starts = append(starts, i)
			fmt.Fprintf(&result, "<Conversation ID=%d>\n", len(starts))
			inConversation = true
		}

		fmt.Fprintf(&result, "%s: %s\n", speaker, t.Content)

		if t.Role == RoleAssistant && inConversation {
			nextIsUser := i+1 < len(turns) && turns[i+1].Role != RoleAssistant
			if nextIsUser || i+1 == len(turns) {
				fmt.Fprintf(&result, "</Conversation>\n\n")
				inConversation = false
			}
		}
	}

	if inConversation {
		fmt.Fprintf(&result, "</Conversation>\n\n")
	}

	fmt.Fprintf(&result, "</ConversationHistory>\n")

	fmt.Fprintf(&result, "\n<LatestMessage>\nHuman: %s\n</LatestMessage>\n", latestMessage)

	return result.String(), starts
}

// RelevantTurns uses the model to identify the portion of the history that
// the latest message actually refers to.
//
// The function works by:
//  1. Formatting the stored turns into the tagged conversation structure
//  2. Asking the model for the relevant conversation IDs via structured output
//  3. Finding the oldest (smallest ID) conversation among those identified
//  4. Returning all turns from the start of that conversation onwards
//
// Keeping everything from the oldest relevant conversation preserves
// coherence while dropping the dead weight in front of it, which is what
// keeps replayed prompts from growing without bound.
//
// The returned usage is the filter call's own token consumption, reported
// even when the response fails to parse.
func RelevantTurns(ctx context.Context, llm LLM, model string, turns []Turn, latestMessage string) ([]Turn, Usage, error) {
	if len(turns) == 0 {
		return nil, Usage{}, nil
	}

	historyString, starts := formatHistory(turns, latestMessage)

	schemaParam := shared.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "relevantConversationIDs",
		Description: openai.String("List of conversation IDs that provide context for the latest message"),
		Schema:      GenerateSchema[RelevantConversationIDs](),
		Strict:      openai.Bool(true),
	}

	completion, err := llm.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.DeveloperMessage(PromptFindRelevantTurns),
			openai.UserMessage(historyString),
		},
		Model: shared.ChatModel(model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	})
	if err != nil {
		return nil, Usage{}, err
	}
	usage := Usage{
		InputTokens:  completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.CompletionTokens,
	}
	if len(completion.Choices) == 0 {
		return nil, usage, fmt.Errorf("relevance request returned no choices")
	}

	relevant := RelevantConversationIDs{}
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &relevant); err != nil {
		return nil, usage, fmt.Errorf("failed to parse relevance response: %w", err)
	}

	if len(relevant.ConversationIDs) == 0 {
		return nil, usage, nil
	}

	smallest := 0
	for _, idStr := range relevant.ConversationIDs {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, usage, fmt.Errorf("failed to parse conversation ID %q: %w", idStr, err)
		}
		if smallest == 0 || id < smallest {
			smallest = id
		}
	}

	if smallest < 1 || smallest > len(starts) {
		return nil, usage, fmt.Errorf("conversation ID %d out of range", smallest)
	}

	return turns[starts[smallest-1]:], usage, nil
}
