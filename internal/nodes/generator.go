package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// TextGenerator is the generative text service used by GenerativeExtractor.
// Errors wrap ErrUnavailable, ErrTimeout or ErrMalformedOutput.
type TextGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ChatGenerator runs a system/user prompt pair through an Eino chain: Template → ChatModel
type ChatGenerator struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
}

// NewChatGenerator compiles the chain around chatModel. Every Complete call
// runs under timeout when it is positive.
func NewChatGenerator(ctx context.Context, chatModel model.BaseChatModel, timeout time.Duration) (*ChatGenerator, error) {
	if chatModel == nil {
		return nil, ErrUnavailable
	}

	// Prompts are passed as values, so braces inside them are never parsed as placeholders
	template := prompt.FromMessages(schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{user}"),
	)

	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(template).
		AppendChatModel(chatModel).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating Eino chain: %w", err)
	}

	return &ChatGenerator{chain: chain, timeout: timeout}, nil
}

// Complete sends the prompts and returns the model text
func (g *ChatGenerator) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if g == nil || g.chain == nil {
		return "", ErrUnavailable
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	out, err := g.chain.Invoke(ctx, map[string]any{
		"system": systemPrompt,
		"user":   userPrompt,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrMalformedOutput)
	}

	return strings.TrimSpace(out.Content), nil
}
