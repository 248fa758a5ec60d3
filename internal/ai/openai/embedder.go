package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/spigell/skillmatch/internal/embedding"
)

type embeddingCreator interface {
	New(ctx context.Context, body openaisdk.EmbeddingNewParams, opts ...option.RequestOption) (*openaisdk.CreateEmbeddingResponse, error)
}

// Embedder implements embedding.Provider. The dimension is requested from
// the API so text-embedding-3 models can match a 384-dimension corpus.
type Embedder struct {
	embeddings embeddingCreator
	model      string
	dim        int
}

func NewEmbedder(client *openaisdk.Client, model string, dim int) *Embedder {
	if model = strings.TrimSpace(model); model == "" {
		model = string(openaisdk.EmbeddingModelTextEmbedding3Small)
	}
	return &Embedder{embeddings: &client.Embeddings, model: model, dim: dim}
}

func (e *Embedder) Dimension() int {
	return e.dim
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text cannot be empty")
	}

	params := openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
		Model: openaisdk.EmbeddingModel(e.model),
	}
	if e.dim > 0 {
		params.Dimensions = openaisdk.Int(int64(e.dim))
	}

	resp, err := e.embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if resp == nil || len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	vec := embedding.ToFloat32(resp.Data[0].Embedding)
	if e.dim > 0 && len(vec) != e.dim {
		return nil, fmt.Errorf("openai returned %d dimensions, want %d", len(vec), e.dim)
	}

	return vec, nil
}
