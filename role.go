package genchat

// Role identifies who produced a message: the user, the assistant, or a
// tool feeding its result back into the conversation. Transcript turns only
// ever carry the user and assistant roles; tool results stay in provider
// context.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)
