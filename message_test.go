package genchat_test

import (
	"testing"
	"time"

	"github.com/fwojciec/genchat"
	"github.com/stretchr/testify/assert"
)

func TestMessage_Roles(t *testing.T) {
	t.Parallel()
	assert.Equal(t, genchat.RoleUser, genchat.UserMessage{}.Role())
	assert.Equal(t, genchat.RoleAssistant, genchat.AssistantMessage{}.Role())
	assert.Equal(t, genchat.RoleToolResult, genchat.ToolResultMessage{}.Role())
}

func TestNewUserMessage(t *testing.T) {
	t.Parallel()
	before := time.Now()
	msg := genchat.NewUserMessage("hello")

	assert.False(t, msg.Timestamp.Before(before))
	assert.Equal(t, []genchat.ContentBlock{genchat.TextBlock{Text: "hello"}}, msg.Content)
}

func TestAssistantMessage_Text(t *testing.T) {
	t.Parallel()

	t.Run("concatenates text blocks in order", func(t *testing.T) {
		t.Parallel()
		msg := genchat.AssistantMessage{Content: []genchat.ContentBlock{
			genchat.TextBlock{Text: "Hello"},
			genchat.TextBlock{Text: " world"},
		}}
		assert.Equal(t, "Hello world", msg.Text())
	})

	t.Run("skips thinking and tool call blocks", func(t *testing.T) {
		t.Parallel()
		msg := genchat.AssistantMessage{Content: []genchat.ContentBlock{
			genchat.ThinkingBlock{Thinking: "hmm"},
			genchat.TextBlock{Text: "答案"},
			genchat.ToolCallBlock{ID: "tc_1", Name: "read"},
		}}
		assert.Equal(t, "答案", msg.Text())
	})

	t.Run("empty content yields empty string", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, genchat.AssistantMessage{}.Text())
	})
}
