package memoir

import (
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
)

// MessageList holds an ordered collection of chat messages to preserve the history.
type MessageList struct {
	Messages []openai.ChatCompletionMessageParamUnion
}

func NewMessageList(msgs ...openai.ChatCompletionMessageParamUnion) *MessageList {
	return &MessageList{
		Messages: append([]openai.ChatCompletionMessageParamUnion{}, msgs...),
	}
}

func (ml *MessageList) Len() int {
	return len(ml.Messages)
}

// Add appends one or more new messages to the MessageList in a FIFO order.
func (ml *MessageList) Add(msgs ...openai.ChatCompletionMessageParamUnion) {
	ml.Messages = append(ml.Messages, msgs...)
}

// AddFirst prepends an instruction message to the message list. It panics if
// the provided message is not a system or developer message, because anything
// else would reorder the conversation itself.
func (ml *MessageList) AddFirst(msg openai.ChatCompletionMessageParamUnion) {
	if msg.OfSystem == nil && msg.OfDeveloper == nil {
		panic("AddFirst expects a system or developer message")
	}
	ml.Messages = append([]openai.ChatCompletionMessageParamUnion{msg}, ml.Messages...)
}

func (ml *MessageList) All() []openai.ChatCompletionMessageParamUnion {
	return ml.Messages
}

// Clone returns a shallow copy with its own backing slice, so appends on the
// copy don't show up in the original.
func (ml *MessageList) Clone() *MessageList {
	return NewMessageList(ml.Messages...)
}

// CloneWithoutInstructions returns a copy of the MessageList that excludes any
// system or developer messages, preserving the original order of the remaining
// messages. This is what gets replayed back to the model as history, where the
// instruction prompt should not be repeated.
func (ml *MessageList) CloneWithoutInstructions() *MessageList {
	filtered := make([]openai.ChatCompletionMessageParamUnion, 0, len(ml.Messages))
	for _, msg := range ml.Messages {
		if msg.OfSystem == nil && msg.OfDeveloper == nil {
			filtered = append(filtered, msg)
		}
	}
	return &MessageList{Messages: filtered}
}

func (ml *MessageList) Clear() {
	ml.Messages = []openai.ChatCompletionMessageParamUnion{}
}

// MessageRole reports which side of the conversation a message param belongs to.
func MessageRole(msg openai.ChatCompletionMessageParamUnion) Role {
	switch {
	case msg.OfUser != nil:
		return RoleUser
	case msg.OfAssistant != nil:
		return RoleAssistant
	case msg.OfSystem != nil, msg.OfDeveloper != nil:
		return RoleSystem
	default:
		return Role("unknown")
	}
}

// MessageText extracts the plain text content from a chat message param of
// any role. Multi-part content is not supported.
func MessageText(msg openai.ChatCompletionMessageParamUnion) (string, error) {
	switch {
	case msg.OfUser != nil:
		if param.IsOmitted(msg.OfUser.Content.OfString) {
			return "", fmt.Errorf("user message content is not plain text")
		}
		return msg.OfUser.Content.OfString.Value, nil
	case msg.OfAssistant != nil:
		if param.IsOmitted(msg.OfAssistant.Content.OfString) {
			return "", fmt.Errorf("assistant message content is not plain text")
		}
		return msg.OfAssistant.Content.OfString.Value, nil
	case msg.OfSystem != nil:
		if param.IsOmitted(msg.OfSystem.Content.OfString) {
			return "", fmt.Errorf("system message content is not plain text")
		}
		return msg.OfSystem.Content.OfString.Value, nil
	case msg.OfDeveloper != nil:
		if param.IsOmitted(msg.OfDeveloper.Content.OfString) {
			return "", fmt.Errorf("developer message content is not plain text")
		}
		return msg.OfDeveloper.Content.OfString.Value, nil
	case msg.OfTool != nil:
		if param.IsOmitted(msg.OfTool.Content.OfString) {
			return "", fmt.Errorf("tool message content is not plain text")
		}
		return msg.OfTool.Content.OfString.Value, nil
	default:
		return "", fmt.Errorf("unsupported message type")
	}
}

// String renders the list one "role: content" line at a time, for debugging.
func (ml *MessageList) String() string {
	var b strings.Builder
	for _, msg := range ml.Messages {
		content, err := MessageText(msg)
		if err != nil {
			content = "<" + err.Error() + ">"
		}
		fmt.Fprintf(&b, "%s: %s\n", MessageRole(msg), content)
	}
	return b.String()
}
