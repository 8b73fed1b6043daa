// Package ai implements the text-generation collaborator behind the booking
// assistant, backed by Google Gemini. The client satisfies the
// services.Generator contract: it replays the persisted conversation as chat
// history, pins the fixed system instruction, and returns the model's reply
// as plain text. Everything returned here is untrusted; directive parsing
// and validation happen in the service layer.
package ai

import (
	"context"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tbourn/go-barber-backend/internal/domain"
)

// GeminiClient wraps a generative model configured for the booking
// assistant. Safe for concurrent use; each Reply builds its own chat
// session from the supplied history.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient dials the Gemini API. The model name is e.g.
// "models/gemini-1.5-pro".
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Close releases the underlying API connection.
func (g *GeminiClient) Close() error { return g.client.Close() }

// Reply sends the new message to the model with the instruction pinned and
// the prior turns replayed in order, and concatenates the text parts of the
// first candidate. Honors ctx for cancellation and timeout.
func (g *GeminiClient) Reply(ctx context.Context, instruction string, history []domain.ConversationTurn, message string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(instruction)},
	}

	cs := model.StartChat()
	cs.History = toGenaiHistory(history)

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String(), nil
}

// toGenaiHistory maps persisted turns onto the genai chat roles. Customer
// turns become "user"; assistant turns become "model".
func toGenaiHistory(history []domain.ConversationTurn) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		role := "user"
		if t.Role == domain.RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(t.Content)},
		})
	}
	return out
}
