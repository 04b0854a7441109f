// ABOUTME: Tests for sample item generation with a fake OpenAI endpoint and the static fallback.

package seed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventRequest = Request{
	Singular: "Event",
	Plural:   "Events",
	MetaKeys: map[string]string{"start": "YYYY-MM-DD date", "featured": "1 or 0"},
	Terms:    map[string][]string{"venue": {"Main Hall", "Annex"}},
}

func fakeOpenAI(t *testing.T, content string, status int) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "venue = [Main Hall, Annex]")

		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
			return
		}
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID: "chatcmpl-1",
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func TestItems_AI(t *testing.T) {
	content := "```json\n" + `[{"title":"Jazz Night","excerpt":"Live jazz.","content":"Bring friends.","meta":{"start":"2025-05-01","featured":"1"},"terms":{"venue":["Annex"]}}]` + "\n```"
	g := NewGeneratorWithClient(fakeOpenAI(t, content, http.StatusOK), "test-model")
	require.True(t, g.AI())

	items := g.Items(context.Background(), eventRequest, 1)
	require.Len(t, items, 1)
	assert.Equal(t, "Jazz Night", items[0].Title)
	assert.Equal(t, "2025-05-01", items[0].Meta["start"])
	assert.Equal(t, []string{"Annex"}, items[0].Terms["venue"])
}

func TestItems_AIFailureFallsBack(t *testing.T) {
	g := NewGeneratorWithClient(fakeOpenAI(t, "", http.StatusTooManyRequests), "test-model")
	items := g.Items(context.Background(), eventRequest, 3)
	require.Len(t, items, 3)
	assert.Equal(t, "Spring Event 1", items[0].Title)
}

func TestItems_AIBadJSONFallsBack(t *testing.T) {
	g := NewGeneratorWithClient(fakeOpenAI(t, "sorry, no", http.StatusOK), "test-model")
	items := g.Items(context.Background(), eventRequest, 2)
	assert.Equal(t, "Open Event 2", items[1].Title)
}

func TestStaticItems(t *testing.T) {
	items := staticItems(eventRequest, 3)
	require.Len(t, items, 3)

	assert.Equal(t, "Spring Event 1", items[0].Title)
	assert.Equal(t, "2025-01-01", items[0].Meta["start"])
	assert.Equal(t, "0", items[0].Meta["featured"])
	assert.Equal(t, "1", items[1].Meta["featured"])
	assert.Equal(t, []string{"Main Hall"}, items[0].Terms["venue"])
	assert.Equal(t, []string{"Annex"}, items[1].Terms["venue"])
	assert.NotEmpty(t, items[2].Content)
}

func TestStaticItems_Fallback(t *testing.T) {
	req := Request{Singular: "Guide", Plural: "Guides", Fallback: []Item{{Title: "Colors"}, {Title: "Type"}}}
	items := staticItems(req, 3)
	assert.Equal(t, []string{"Colors", "Type", "Colors"}, []string{items[0].Title, items[1].Title, items[2].Title})
}

func TestNewGenerator_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	g := NewGenerator()
	assert.False(t, g.AI())
	assert.Len(t, g.Items(context.Background(), eventRequest, 2), 2)
}

func TestPrompt(t *testing.T) {
	p := prompt(Request{Singular: "Event", Plural: "Events", Description: "a public meetup", MetaKeys: map[string]string{"start": "date"}}, 4)
	assert.Contains(t, p, "Generate 4 realistic events")
	assert.Contains(t, p, "Each event is a public meetup.")
	assert.Contains(t, p, "start = date;")
	assert.NotContains(t, p, "terms (")
}
