package mock

import (
	"context"
	"encoding/json"

	"github.com/fwojciec/genchat"
)

// Interface compliance check.
var _ genchat.ToolExecutor = (*ToolExecutor)(nil)

// ToolExecutor is a test double for genchat.ToolExecutor.
// Set ExecuteFn before calling Execute.
type ToolExecutor struct {
	ExecuteFn func(ctx context.Context, name string, args json.RawMessage) (*genchat.ToolResult, error)
}

// Execute delegates to ExecuteFn.
func (e *ToolExecutor) Execute(ctx context.Context, name string, args json.RawMessage) (*genchat.ToolResult, error) {
	return e.ExecuteFn(ctx, name, args)
}
