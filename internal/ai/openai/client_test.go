package openai

import (
	"context"
	"errors"
	"testing"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

type stubCompleter struct {
	resp   *openaisdk.ChatCompletion
	err    error
	params openaisdk.ChatCompletionNewParams
}

func (s *stubCompleter) New(_ context.Context, body openaisdk.ChatCompletionNewParams, _ ...option.RequestOption) (*openaisdk.ChatCompletion, error) {
	s.params = body
	return s.resp, s.err
}

type stubEmbeddings struct {
	resp   *openaisdk.CreateEmbeddingResponse
	err    error
	params openaisdk.EmbeddingNewParams
}

func (s *stubEmbeddings) New(_ context.Context, body openaisdk.EmbeddingNewParams, _ ...option.RequestOption) (*openaisdk.CreateEmbeddingResponse, error) {
	s.params = body
	return s.resp, s.err
}

func completion(content string) *openaisdk.ChatCompletion {
	return &openaisdk.ChatCompletion{
		Choices: []openaisdk.ChatCompletionChoice{{
			Message: openaisdk.ChatCompletionMessage{Content: content},
		}},
	}
}

func TestChatSendsSystemAndUserMessages(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{resp: completion(`[{"jobId": 3, "matchReason": "sql"}]`)}
	chat := &Chat{completions: stub, model: "gpt-4o-mini", system: "Be brief.", maxLogLen: 50, logger: zap.NewNop()}

	out, err := chat.Chat(context.Background(), "rank")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `[{"jobId": 3, "matchReason": "sql"}]` {
		t.Fatalf("unexpected output: %q", out)
	}
	if len(stub.params.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(stub.params.Messages))
	}
	if stub.params.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %s", stub.params.Model)
	}
}

func TestChatErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		stub *stubCompleter
	}{
		{name: "api error", stub: &stubCompleter{err: errors.New("401")}},
		{name: "no choices", stub: &stubCompleter{resp: &openaisdk.ChatCompletion{}}},
		{name: "blank content", stub: &stubCompleter{resp: completion("  ")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			chat := &Chat{completions: tc.stub, model: "m", maxLogLen: 10, logger: zap.NewNop()}
			if _, err := chat.Chat(context.Background(), "rank"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestEmbedderRequestsDimensions(t *testing.T) {
	t.Parallel()

	stub := &stubEmbeddings{resp: &openaisdk.CreateEmbeddingResponse{
		Data: []openaisdk.Embedding{{Embedding: []float64{0.5, -0.5}}},
	}}
	e := &Embedder{embeddings: stub, model: "text-embedding-3-small", dim: 2}

	vec, err := e.Embed(context.Background(), "python, sql")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if stub.params.Dimensions.Value != 2 {
		t.Fatalf("expected dimensions to be requested, got %+v", stub.params.Dimensions)
	}
}

func TestEmbedderRejectsWrongDimension(t *testing.T) {
	t.Parallel()

	stub := &stubEmbeddings{resp: &openaisdk.CreateEmbeddingResponse{
		Data: []openaisdk.Embedding{{Embedding: []float64{0.5}}},
	}}
	e := &Embedder{embeddings: stub, model: "m", dim: 384}

	if _, err := e.Embed(context.Background(), "go"); err == nil {
		t.Fatalf("expected dimension error")
	}
}

func TestNewClientRequiresKeyOrBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientOptions{}); err == nil {
		t.Fatalf("expected error without key and base url")
	}
	if _, err := NewClient(ClientOptions{BaseURL: "http://localhost:11434/v1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
