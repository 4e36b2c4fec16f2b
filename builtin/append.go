package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fwojciec/genchat"
)

type appendArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// AppendTool returns the tool definition for the append tool.
func AppendTool() genchat.Tool {
	return genchat.Tool{
		Name:        "append",
		Description: "Append string content to the end of a file, creating the file if it does not exist.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Path of the file to append to"
				},
				"content": {
					"type": "string",
					"description": "String content to append"
				}
			},
			"required": ["path", "content"]
		}`),
	}
}

// ExecuteAppend appends content to a file and returns the written path.
func ExecuteAppend(_ context.Context, args json.RawMessage) (*genchat.ToolResult, error) {
	var a appendArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return domainError(fmt.Sprintf("invalid arguments: %s", err)), nil
	}
	if a.Path == "" {
		return domainError("path is required"), nil
	}

	f, err := os.OpenFile(a.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return domainError(fmt.Sprintf("append %s: %s", a.Path, err)), nil
	}
	defer f.Close()

	if _, err := f.WriteString(a.Content); err != nil {
		return domainError(fmt.Sprintf("append %s: %s", a.Path, err)), nil
	}
	return textResult(a.Path), nil
}
