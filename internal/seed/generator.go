// ABOUTME: Sample content generator for registered content types.
// ABOUTME: Uses OpenAI when OPENAI_API_KEY is set and falls back to static items otherwise.

package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sashabaranov/go-openai"
)

// Generator creates sample items using OpenAI or static fallback data.
type Generator struct {
	client *openai.Client
	useAI  bool
	model  string
}

// NewGenerator creates a generator, loading the API key from .env if available.
func NewGenerator() *Generator {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		godotenv.Load(filepath.Join(home, ".env"))
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-5-mini"
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Println("No OPENAI_API_KEY found, using static fallback data")
		return &Generator{model: model}
	}
	log.Printf("OpenAI API key found, using AI-generated data with model: %s", model)
	return NewGeneratorWithClient(openai.NewClient(apiKey), model)
}

// NewGeneratorWithClient returns a generator that always asks client.
func NewGeneratorWithClient(client *openai.Client, model string) *Generator {
	return &Generator{client: client, useAI: client != nil, model: model}
}

// AI reports whether the generator calls OpenAI.
func (g *Generator) AI() bool {
	return g.useAI
}

// Request describes the items to generate for one content type.
type Request struct {
	Singular    string
	Plural      string
	Description string
	// MetaKeys are the custom fields each item should carry, with a hint
	// about the expected value ("YYYY-MM-DD date", "1 or 0", ...).
	MetaKeys map[string]string
	// Terms lists the allowed term names per taxonomy.
	Terms map[string][]string
	// Fallback replaces the generic static items when AI is off or fails.
	Fallback []Item
}

// Item is one generated item.
type Item struct {
	Title   string              `json:"title"`
	Excerpt string              `json:"excerpt"`
	Content string              `json:"content"`
	Meta    map[string]string   `json:"meta"`
	Terms   map[string][]string `json:"terms"`
}

// Items generates count items for req.
func (g *Generator) Items(ctx context.Context, req Request, count int) []Item {
	if !g.useAI {
		return staticItems(req, count)
	}

	log.Printf("  ⏳ Generating %d %s...", count, strings.ToLower(req.Plural))
	items, err := callOpenAI[[]Item](ctx, g.client, g.model, prompt(req, count))
	if err != nil || len(items) == 0 {
		log.Printf("  ✗ Failed to generate %s: %v, falling back to static data", strings.ToLower(req.Plural), err)
		return staticItems(req, count)
	}
	log.Printf("  ✓ Generated %d %s", len(items), strings.ToLower(req.Plural))
	return items
}

func prompt(req Request, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d realistic %s for a website CMS.", count, strings.ToLower(req.Plural))
	if req.Description != "" {
		fmt.Fprintf(&sb, " Each %s is %s.", strings.ToLower(req.Singular), req.Description)
	}
	sb.WriteString("\n\nReturn a JSON array of objects with: title, excerpt (one sentence), content (2-3 sentences)")
	if len(req.MetaKeys) > 0 {
		sb.WriteString(", meta (object with string values for these keys:")
		for _, k := range sortedKeys(req.MetaKeys) {
			fmt.Fprintf(&sb, " %s = %s;", k, req.MetaKeys[k])
		}
		sb.WriteString(")")
	}
	if len(req.Terms) > 0 {
		sb.WriteString(", terms (object mapping taxonomy to an array of term names chosen only from:")
		for _, tax := range sortedKeys(req.Terms) {
			fmt.Fprintf(&sb, " %s = [%s];", tax, strings.Join(req.Terms[tax], ", "))
		}
		sb.WriteString(")")
	}
	sb.WriteString(".\nMake titles distinct and the content varied.")
	return sb.String()
}

func callOpenAI[T any](ctx context.Context, client *openai.Client, model, prompt string) (T, error) {
	var result T

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a data generator. Always respond with valid JSON only, no markdown or explanation.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return result, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return result, fmt.Errorf("no response from OpenAI")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(strings.TrimPrefix(content, "```"), "```")
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return result, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return result, nil
}
