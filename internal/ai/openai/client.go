// Package openai adapts OpenAI-compatible APIs (OpenAI, Ollama, vLLM) to the
// oracle and embedding contracts.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/utils"
)

const (
	defaultChatModel    = "gpt-4o-mini"
	defaultMaxLogLength = 200
)

type completer interface {
	New(ctx context.Context, body openaisdk.ChatCompletionNewParams, opts ...option.RequestOption) (*openaisdk.ChatCompletion, error)
}

// ClientOptions locate the API.
type ClientOptions struct {
	APIKey  string
	BaseURL string
}

// NewClient builds an SDK client. BaseURL points it at any compatible server.
func NewClient(opts ClientOptions) (*openaisdk.Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	baseURL := strings.TrimSpace(opts.BaseURL)
	if apiKey == "" && baseURL == "" {
		return nil, errors.New("openai api key is required unless a base url is set")
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(baseURL))
	}

	client := openaisdk.NewClient(requestOpts...)
	return &client, nil
}

// ChatOptions configures a Chat oracle.
type ChatOptions struct {
	Model        string
	System       string
	Temperature  float64
	MaxLogLength int
}

// Chat is an ai.Oracle backed by chat completions.
type Chat struct {
	completions completer
	model       string
	system      string
	temperature float64
	maxLogLen   int
	logger      *zap.Logger
}

func NewChat(client *openaisdk.Client, opts ChatOptions, log *zap.Logger) *Chat {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultChatModel
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Chat{
		completions: &client.Chat.Completions,
		model:       model,
		system:      opts.System,
		temperature: opts.Temperature,
		maxLogLen:   opts.MaxLogLength,
		logger:      logger.WithCommonFields(log, "openai", model),
	}
}

func (c *Chat) Model() string {
	return c.model
}

func (c *Chat) Chat(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	var messages []openaisdk.ChatCompletionMessageParamUnion
	if system := strings.TrimSpace(c.system); system != "" {
		messages = append(messages, openaisdk.SystemMessage(system))
	}
	messages = append(messages, openaisdk.UserMessage(prompt))

	c.logger.Debug("openai chat completion request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
	)

	completion, err := c.completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openaisdk.ChatModel(c.model),
		Temperature: openaisdk.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if completion == nil || len(completion.Choices) == 0 {
		return "", errors.New("no response from openai")
	}

	output := strings.TrimSpace(completion.Choices[0].Message.Content)
	if output == "" {
		return "", errors.New("openai returned empty response")
	}

	c.logger.Debug("openai chat completion response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", utils.TruncateForLog(output, c.maxLogLen)),
	)

	return output, nil
}
