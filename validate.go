package genchat

import (
	"fmt"
	"strings"
)

// ValidateInput checks that submitted text is non-empty after trimming.
// Both entry points reject empty submissions before any provider call.
func ValidateInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	return nil
}

// ValidateMessage checks that a message's content blocks are valid for its role.
func ValidateMessage(msg Message) error {
	switch m := msg.(type) {
	case UserMessage:
		return validateBlocks(m.Content, m.Role(), allowText)
	case AssistantMessage:
		return validateBlocks(m.Content, m.Role(), allowText|allowThinking|allowToolCall)
	case ToolResultMessage:
		return validateBlocks(m.Content, m.Role(), allowText)
	default:
		return fmt.Errorf("unknown message type %T: %w", msg, ErrValidation)
	}
}

type blockAllow uint8

const (
	allowText blockAllow = 1 << iota
	allowThinking
	allowToolCall
)

func validateBlocks(blocks []ContentBlock, role Role, allowed blockAllow) error {
	for _, b := range blocks {
		switch b.(type) {
		case TextBlock:
			if allowed&allowText == 0 {
				return fmt.Errorf("TextBlock not allowed in %s message: %w", role, ErrValidation)
			}
		case ThinkingBlock:
			if allowed&allowThinking == 0 {
				return fmt.Errorf("ThinkingBlock not allowed in %s message: %w", role, ErrValidation)
			}
		case ToolCallBlock:
			if allowed&allowToolCall == 0 {
				return fmt.Errorf("ToolCallBlock not allowed in %s message: %w", role, ErrValidation)
			}
		default:
			return fmt.Errorf("unknown content block type %T in %s message: %w", b, role, ErrValidation)
		}
	}
	return nil
}
