package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fwojciec/genchat"
)

type writeArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// WriteTool returns the tool definition for the write tool.
func WriteTool() genchat.Tool {
	return genchat.Tool{
		Name:        "write",
		Description: "Write string content to a file, overwriting any existing contents. The parent directory must already exist; use mkdir first if it does not.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Path of the file to write"
				},
				"content": {
					"type": "string",
					"description": "String content to write"
				}
			},
			"required": ["path", "content"]
		}`),
	}
}

// ExecuteWrite writes content to a file and returns the written path.
// Missing parent directories are reported as tool errors rather than created
// implicitly; the mkdir tool handles directory creation.
func ExecuteWrite(_ context.Context, args json.RawMessage) (*genchat.ToolResult, error) {
	var a writeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return domainError(fmt.Sprintf("invalid arguments: %s", err)), nil
	}
	if a.Path == "" {
		return domainError("path is required"), nil
	}

	if err := os.WriteFile(a.Path, []byte(a.Content), 0o644); err != nil {
		return domainError(fmt.Sprintf("write %s: %s", a.Path, err)), nil
	}
	return textResult(a.Path), nil
}
