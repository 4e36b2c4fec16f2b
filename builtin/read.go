package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fwojciec/genchat"
)

type readArgs struct {
	Path string `json:"path"`
}

// ReadTool returns the tool definition for the read tool.
func ReadTool() genchat.Tool {
	return genchat.Tool{
		Name:        "read",
		Description: "Read a file and return its contents as a string.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Path of the file to read"
				}
			},
			"required": ["path"]
		}`),
	}
}

// ExecuteRead returns the raw contents of a file.
func ExecuteRead(_ context.Context, args json.RawMessage) (*genchat.ToolResult, error) {
	var a readArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return domainError(fmt.Sprintf("invalid arguments: %s", err)), nil
	}
	if a.Path == "" {
		return domainError("path is required"), nil
	}

	data, err := os.ReadFile(a.Path)
	if err != nil {
		return domainError(fmt.Sprintf("read %s: %s", a.Path, err)), nil
	}
	return textResult(string(data)), nil
}
