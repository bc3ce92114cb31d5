package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"product_advisor/internal/logger"
	"product_advisor/internal/services"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

// ErrUnknownTool is returned by Toolbox.Run for a name no tool answers to
var ErrUnknownTool = errors.New("unknown tool")

// Toolbox executes the catalog tools through an Eino ToolsNode
type Toolbox struct {
	node  *compose.ToolsNode
	infos []*schema.ToolInfo
}

// NewToolbox builds the catalog tools and the node that runs them
func NewToolbox(ctx context.Context, catalog Catalog, matcher *services.ProductMatcher) (*Toolbox, error) {
	if matcher == nil {
		matcher = services.NewProductMatcher()
	}

	tools, err := GetTools(catalog, matcher)
	if err != nil {
		return nil, fmt.Errorf("error creating catalog tools: %w", err)
	}

	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("error reading tool info: %w", err)
		}
		infos = append(infos, info)
	}

	node, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{Tools: tools})
	if err != nil {
		return nil, fmt.Errorf("error creating tools node: %w", err)
	}

	return &Toolbox{node: node, infos: infos}, nil
}

// Infos describes the available tools, e.g. for binding to a tool-calling model
func (b *Toolbox) Infos() []*schema.ToolInfo {
	return b.infos
}

// Run calls the named tool with JSON arguments and returns its output
func (b *Toolbox) Run(ctx context.Context, name, arguments string) (string, error) {
	if !b.has(name) {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}

	call := schema.ToolCall{
		ID:       uuid.NewString(),
		Type:     "function",
		Function: schema.FunctionCall{Name: name, Arguments: arguments},
	}

	out, err := b.node.Invoke(ctx, schema.AssistantMessage("", []schema.ToolCall{call}))
	if err != nil {
		return "", fmt.Errorf("tool %s failed: %w", name, err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("tool %s returned no output", name)
	}

	logger.Debug().Str("tool", name).Int("bytes", len(out[0].Content)).Msg("Tool executed")
	return out[0].Content, nil
}

func (b *Toolbox) has(name string) bool {
	for _, info := range b.infos {
		if info.Name == name {
			return true
		}
	}
	return false
}
