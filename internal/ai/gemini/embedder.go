package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultEmbeddingModel = "text-embedding-004"

type embedContenter interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Embedder implements embedding.Provider on top of the Gemini embeddings API.
type Embedder struct {
	models embedContenter
	model  string
	dim    int
}

func NewEmbedder(client *genai.Client, model string, dim int) *Embedder {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultEmbeddingModel
	}
	return &Embedder{models: client.Models, model: model, dim: dim}
}

func (e *Embedder) Dimension() int {
	return e.dim
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("embedding text must not be empty")
	}

	config := &genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"}
	if e.dim > 0 {
		dim := int32(e.dim)
		config.OutputDimensionality = &dim
	}

	resp, err := e.models.EmbedContent(ctx, e.model, genai.Text(text), config)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, errors.New("gemini api returned no embeddings")
	}

	values := resp.Embeddings[0].Values
	if e.dim > 0 && len(values) != e.dim {
		return nil, fmt.Errorf("gemini returned %d dimensions, want %d", len(values), e.dim)
	}

	return values, nil
}
