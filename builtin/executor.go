package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/genchat"
)

// Compile-time interface check.
var _ genchat.ToolExecutor = (*Executor)(nil)

// Executor dispatches tool calls to the appropriate built-in tool implementation.
type Executor struct{}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute dispatches a tool call by name. Unknown tool names return an IsError
// result so the model can self-correct.
func (e *Executor) Execute(ctx context.Context, name string, args json.RawMessage) (*genchat.ToolResult, error) {
	switch name {
	case "read":
		return ExecuteRead(ctx, args)
	case "write":
		return ExecuteWrite(ctx, args)
	case "append":
		return ExecuteAppend(ctx, args)
	case "mkdir":
		return ExecuteMkdir(ctx, args)
	case "glob":
		return ExecuteGlob(ctx, args)
	default:
		return domainError(fmt.Sprintf("%s: %s", genchat.ErrToolNotFound, name)), nil
	}
}

// Tools returns the tool definitions for all built-in tools.
func (e *Executor) Tools() []genchat.Tool {
	return []genchat.Tool{
		ReadTool(),
		WriteTool(),
		AppendTool(),
		MkdirTool(),
		GlobTool(),
	}
}
