package openai

import (
	"fmt"
	"log"
	"strings"

	"lexguard-backend/internal/llm"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const (
	systemPromptStrict  = "You are a legal compliance review engine. Respond with JSON only. Output must match the schema exactly."
	systemPromptFixJSON = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."
)

// BuildPrompt creates the chat messages for a section review request.
func BuildPrompt(promptVersion string, input llm.ReviewInput, model string) []Message {
	developer := resolvePromptTemplate(promptVersion, model)
	return []Message{
		{Role: "system", Content: systemPromptStrict},
		{Role: "developer", Content: developer},
		{Role: "user", Content: buildUserPrompt(input)},
	}
}

func buildFixPrompt(promptVersion string, model string, raw []byte) []Message {
	developer := resolvePromptTemplate(promptVersion, model)
	return []Message{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "developer", Content: developer},
		{Role: "user", Content: fixUserPrompt(raw)},
	}
}

func resolvePromptTemplate(promptVersion string, model string) string {
	version := strings.TrimSpace(promptVersion)
	template, ok := llm.PromptTemplate(version)
	if !ok {
		log.Printf("unknown prompt version %q, defaulting to v1", version)
		version = "v1"
		template, _ = llm.PromptTemplate(version)
	}

	replacer := strings.NewReplacer(
		"{{PROMPT_VERSION}}", version,
		"{{MODEL}}", model,
	)
	return replacer.Replace(template)
}

func buildUserPrompt(input llm.ReviewInput) string {
	doc := strings.TrimSpace(input.DocumentName)
	if doc == "" {
		doc = "N/A"
	}
	return fmt.Sprintf("Document: %s\nSection (level %d): %s\n\nSection Text:\n%s",
		doc, input.SectionLevel, input.SectionTitle, input.SectionContent)
}

func fixUserPrompt(raw []byte) string {
	return fmt.Sprintf("Fix this JSON to match the schema exactly. Output JSON only:\n%s", string(raw))
}
