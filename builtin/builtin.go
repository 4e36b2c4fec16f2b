// Package builtin provides the built-in file tools offered to the model.
package builtin

import "github.com/fwojciec/genchat"

func domainError(msg string) *genchat.ToolResult {
	return &genchat.ToolResult{
		Content: []genchat.ContentBlock{genchat.TextBlock{Text: msg}},
		IsError: true,
	}
}

func textResult(text string) *genchat.ToolResult {
	return &genchat.ToolResult{
		Content: []genchat.ContentBlock{genchat.TextBlock{Text: text}},
		IsError: false,
	}
}
