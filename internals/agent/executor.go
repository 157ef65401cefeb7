package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/reifyhq/reify/internals/llm"
	"github.com/reifyhq/reify/internals/registry"
)

// executeCalls runs the requested invocations one at a time, in order, and
// returns one result item per call. Sequential execution is required: later
// calls routinely depend on identifiers surfaced by earlier results. A failed
// call never aborts the batch; the failure is serialized into its result so
// the model can see it and decide.
func executeCalls(ctx context.Context, reg *registry.Registry, rc registry.ReqContext, calls []llm.ToolCall, logger *slog.Logger) []llm.Item {
	items := make([]llm.Item, 0, len(calls))
	for _, call := range calls {
		output, isErr := executeCall(ctx, reg, rc, call)
		if isErr {
			logger.Warn("tool call failed", "tool", call.Name, "error", output)
		} else {
			logger.Debug("tool call succeeded", "tool", call.Name)
		}
		items = append(items, llm.ResultItem(llm.ToolResult{
			CallID:  call.CallID,
			Output:  output,
			IsError: isErr,
		}))
	}
	return items
}

func executeCall(ctx context.Context, reg *registry.Registry, rc registry.ReqContext, call llm.ToolCall) (string, bool) {
	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return fmt.Sprintf("Error: invalid arguments for %s: %v", call.Name, err), true
		}
	}
	output, err := reg.Call(ctx, rc, call.Name, args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), true
	}
	return output, false
}
