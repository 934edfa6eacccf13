package memoir

import (
	"strings"
	"testing"
)

func TestChatPrompt(t *testing.T) {
	prompt, err := ChatPrompt(ChatPromptData{Instructions: "You are a terse assistant."})
	if err != nil {
		t.Fatalf("Failed to render chat prompt: %v", err)
	}
	if !strings.HasPrefix(prompt, "You are a terse assistant.") {
		t.Fatalf("Expected the prompt to start with the instructions, but got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "replayed") {
		t.Fatalf("Expected the prompt to explain the replay, but got:\n%s", prompt)
	}
}

func TestGroundedPrompt(t *testing.T) {
	docs := []Document{
		{ID: "1", Title: "Returns policy", Content: "Items can be returned within 30 days."},
		{ID: "2", Title: "Shipping", Content: "Orders ship within 2 business days."},
	}

	prompt, err := GroundedPrompt(GroundedPromptData{
		Instructions: "Answer customer questions.",
		Documents:    docs,
	})
	if err != nil {
		t.Fatalf("Failed to render grounded prompt: %v", err)
	}

	if !strings.Contains(prompt, "<Sources>") || !strings.Contains(prompt, "</Sources>") {
		t.Fatalf("Expected the prompt to wrap documents in Sources tags, but got:\n%s", prompt)
	}
	if !strings.Contains(prompt, `<Source title="Returns policy">`) {
		t.Fatalf("Expected a titled Source block, but got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Items can be returned within 30 days.") {
		t.Fatalf("Expected the document content to be included, but got:\n%s", prompt)
	}
}

func TestFormatDocumentsEmpty(t *testing.T) {
	if got := formatDocuments(nil); got != "" {
		t.Fatalf("Expected an empty string for no documents, but got '%s'", got)
	}
}

func TestSummaryPrompt(t *testing.T) {
	prompt, err := SummaryPrompt(SummaryPromptData{})
	if err != nil {
		t.Fatalf("Failed to render summary prompt: %v", err)
	}
	if !strings.Contains(prompt, "5 sentences") {
		t.Fatalf("Expected the default sentence cap of 5, but got:\n%s", prompt)
	}
}

func TestBuildMessages(t *testing.T) {
	history := []Turn{
		{Role: RoleUser, Content: "my name is Ada"},
		{Role: RoleAssistant, Content: "nice to meet you, Ada"},
	}

	messages := BuildMessages("be helpful", history, "what is my name?")

	if messages.Len() != 4 {
		t.Fatalf("Expected 4 messages, but got %d", messages.Len())
	}
	if messages.Messages[0].OfSystem == nil {
		t.Fatalf("Expected the system prompt first")
	}
	if messages.Messages[1].OfUser == nil || messages.Messages[2].OfAssistant == nil {
		t.Fatalf("Expected the history between the system prompt and the question")
	}

	last, err := MessageText(messages.Messages[3])
	if err != nil {
		t.Fatalf("Failed to extract the last message: %v", err)
	}
	if last != "what is my name?" {
		t.Fatalf("Expected the question last, but got '%s'", last)
	}
}

func TestBuildMessagesWithoutSystemPrompt(t *testing.T) {
	messages := BuildMessages("", nil, "hello")
	if messages.Len() != 1 {
		t.Fatalf("Expected just the question, but got %d messages", messages.Len())
	}
	if messages.Messages[0].OfUser == nil {
		t.Fatalf("Expected the question to be a user message")
	}
}
