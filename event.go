package genchat

// Event is a sealed interface representing a streaming event.
// Events are purely semantic. Transport/protocol errors come from
// Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventTextDelta represents a text content delta. Index identifies the
// content block the delta belongs to; deltas for the same block apply in
// arrival order.
type EventTextDelta struct {
	Index int
	Delta string
}

func (EventTextDelta) event() {}

// EventThinkingDelta represents a thinking content delta.
type EventThinkingDelta struct {
	Index int
	Delta string
}

func (EventThinkingDelta) event() {}

// EventToolCallBegin signals the start of a tool call.
type EventToolCallBegin struct {
	Index int
	ID    string
	Name  string
}

func (EventToolCallBegin) event() {}

// EventToolCallEnd signals the completion of a tool call with the assembled block.
type EventToolCallEnd struct {
	Call ToolCallBlock
}

func (EventToolCallEnd) event() {}

// EventToolResult carries the text outcome of a tool execution back to
// observers. Emitted by the Loop, not by providers.
type EventToolResult struct {
	ID       string
	ToolName string
	Content  string
	IsError  bool
}

func (EventToolResult) event() {}

// Interface compliance checks.
var (
	_ Event = EventTextDelta{}
	_ Event = EventThinkingDelta{}
	_ Event = EventToolCallBegin{}
	_ Event = EventToolCallEnd{}
	_ Event = EventToolResult{}
)
