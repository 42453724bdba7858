package embedding

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
)

// GenkitProvider bridges a Genkit ai.Embedder to the Provider interface.
type GenkitProvider struct {
	embedder ai.Embedder
}

// NewGenkitProvider wraps a Genkit embedder. Any embedder registered with a
// Genkit instance (Gemini, Ollama, OpenAI plugins) works here.
func NewGenkitProvider(embedder ai.Embedder) *GenkitProvider {
	return &GenkitProvider{embedder: embedder}
}

// Embed sends text through the Genkit embedder and returns the first vector.
func (p *GenkitProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return resp.Embeddings[0].Embedding, nil
}
