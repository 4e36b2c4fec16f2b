package genchat

import (
	"context"
	"encoding/json"
)

// Tool describes a capability offered to the model: a name, a short
// description, and a JSON schema for the arguments. The builtin package
// supplies the file tools in this shape.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolExecutor dispatches tool calls by name. A non-nil error means the
// execution machinery itself failed; failures the model should see and
// recover from come back as a ToolResult with IsError set.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args json.RawMessage) (*ToolResult, error)
}

// ToolResult is what flows back to the model after a tool call.
type ToolResult struct {
	Content []ContentBlock
	IsError bool
}
