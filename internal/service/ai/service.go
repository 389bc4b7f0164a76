package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/kaigi-sim/backend/internal/config"
	"k8s.io/klog/v2"
)

// TextGenerator is the opaque text-completion provider.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to TextGenerator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// GenerateText calls f.
func (f GeneratorFunc) GenerateText(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Service relays prompts to the configured chat model through an eino chain.
type Service struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the chat model described by cfg and wraps it.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel)
}

// NewServiceWithModel compiles the prompt chain around an existing chat model.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile generation chain: %w", err)
	}

	return &Service{chain: runnable}, nil
}

// GenerateText sends one prompt and returns the generated text. Failures are
// reported as ProviderTimeoutError or ProviderResponseError.
func (s *Service) GenerateText(ctx context.Context, prompt string) (string, error) {
	klog.V(6).Infof("[ai] prompt: %s", prompt)

	response, err := s.chain.Invoke(ctx, map[string]any{"prompt": prompt})
	if err != nil {
		return "", classify(ctx, fmt.Errorf("failed to run generation chain: %w", err))
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", &ProviderResponseError{Err: ErrEmptyResponse}
	}

	klog.V(4).Infof("[ai] generated text: prompt_len=%d response_len=%d", len(prompt), len(response.Content))
	return response.Content, nil
}
