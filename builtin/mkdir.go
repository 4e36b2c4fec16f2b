package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fwojciec/genchat"
)

type mkdirArgs struct {
	Path string `json:"path"`
}

// MkdirTool returns the tool definition for the mkdir tool.
func MkdirTool() genchat.Tool {
	return genchat.Tool{
		Name:        "mkdir",
		Description: "Create a directory, including any missing parents.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Path of the directory to create"
				}
			},
			"required": ["path"]
		}`),
	}
}

// ExecuteMkdir creates a directory and returns the created path.
func ExecuteMkdir(_ context.Context, args json.RawMessage) (*genchat.ToolResult, error) {
	var a mkdirArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return domainError(fmt.Sprintf("invalid arguments: %s", err)), nil
	}
	if a.Path == "" {
		return domainError("path is required"), nil
	}

	if err := os.MkdirAll(a.Path, 0o755); err != nil {
		return domainError(fmt.Sprintf("mkdir %s: %s", a.Path, err)), nil
	}
	return textResult(a.Path), nil
}
