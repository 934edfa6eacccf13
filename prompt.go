package memoir

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/openai/openai-go"
)

// DefaultSystemPrompt is what the model gets when the caller doesn't care.
const DefaultSystemPrompt = "You are a helpful assistant. Answer based on the conversation so far."

// ChatPromptTemplate is the instruction prompt for plain conversation.
const ChatPromptTemplate = `{{ .Instructions }}

The conversation so far is replayed to you in full with every request.
Nothing outside of it survives between requests, so treat the replayed
turns as the only shared memory between you and the user.`

// GroundedPromptTemplate layers retrieved sources under the instructions for
// retrieval-augmented answers.
const GroundedPromptTemplate = `{{ .Instructions }}

Answer using only the sources below and name the source title you used.
If the sources do not contain the answer, say you do not know.

{{ formatDocuments .Documents }}`

// SummaryPromptTemplate asks the model to fold a whole history into a
// handful of sentences that can stand in for it.
const SummaryPromptTemplate = `Summarize the conversation between the user and the assistant in at
most {{ .MaxSentences }} sentences. Keep every fact the user stated about
themselves and every commitment the assistant made. The summary replaces the
full history in future prompts, so anything you drop is forgotten.`

type ChatPromptData struct {
	Instructions string
}

type GroundedPromptData struct {
	Instructions string
	Documents    []Document
}

type SummaryPromptData struct {
	MaxSentences int
}

func ChatPrompt(data ChatPromptData) (string, error) {
	return renderTemplate(ChatPromptTemplate, data)
}

func GroundedPrompt(data GroundedPromptData) (string, error) {
	return renderTemplate(GroundedPromptTemplate, data)
}

func SummaryPrompt(data SummaryPromptData) (string, error) {
	if data.MaxSentences <= 0 {
		data.MaxSentences = 5
	}
	return renderTemplate(SummaryPromptTemplate, data)
}

// renderTemplate is a generic function that renders a prompt from any
// template and data.
func renderTemplate[T any](templateString string, data T) (string, error) {
	funcMap := template.FuncMap{
		"formatDocuments": formatDocuments,
	}

	tmpl, err := template.New("prompt").Funcs(funcMap).Parse(templateString)
	if err != nil {
		return "", err
	}
	var prompt bytes.Buffer
	if err := tmpl.Execute(&prompt, data); err != nil {
		return "", err
	}
	return prompt.String(), nil
}

// formatDocuments renders retrieved documents inside Sources tags, one
// Source block per document.
func formatDocuments(docs []Document) string {
	if len(docs) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString("<Sources>\n")

	for _, doc := range docs {
		fmt.Fprintf(&builder, "<Source title=%q>\n%s\n</Source>\n", doc.Title, doc.Content)
	}

	builder.WriteString("</Sources>")
	return builder.String()
}

// BuildMessages assembles the request in the fixed shape the whole package
// depends on: instruction prompt first, replayed history next, the current
// question last. The injection point never moves; a stateless model appears
// to remember precisely because the history lands in the same place every
// time.
func BuildMessages(systemPrompt string, history []Turn, question string) *MessageList {
	messages := NewMessageList()
	if systemPrompt != "" {
		messages.Add(openai.SystemMessage(systemPrompt))
	}
	for _, t := range history {
		messages.Add(t.Param())
	}
	messages.Add(openai.UserMessage(question))
	return messages
}
