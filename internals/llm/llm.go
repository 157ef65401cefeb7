// Package llm is the boundary to the conversational reasoning service. The
// engine only depends on the Client contract; the OpenAI Responses adapter
// lives behind it.
package llm

import (
	"context"
	"errors"
)

// ErrTransport marks network or timeout failures talking to the reasoning
// service.
var ErrTransport = errors.New("reasoning service transport error")

// ToolSpec is one catalog entry as presented to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is one invocation the model requested within a turn.
type ToolCall struct {
	CallID    string
	Name      string
	Arguments string
}

// ToolResult is the serialized outcome of one invocation, correlated by
// CallID.
type ToolResult struct {
	CallID  string
	Output  string
	IsError bool
}

// ItemKind discriminates conversation history entries.
type ItemKind string

const (
	ItemUser       ItemKind = "user"
	ItemAssistant  ItemKind = "assistant"
	ItemToolCall   ItemKind = "tool_call"
	ItemToolResult ItemKind = "tool_result"
)

// Item is one entry of the append-only conversation history. The history is
// never truncated or summarized within a run: the model is the only holder of
// the name-to-identifier mapping surfaced by earlier tool results, so every
// later turn must see them verbatim.
type Item struct {
	Kind   ItemKind
	Text   string
	Call   *ToolCall
	Result *ToolResult
}

func UserItem(text string) Item {
	return Item{Kind: ItemUser, Text: text}
}

func AssistantItem(text string) Item {
	return Item{Kind: ItemAssistant, Text: text}
}

func CallItem(call ToolCall) Item {
	c := call
	return Item{Kind: ItemToolCall, Call: &c}
}

func ResultItem(result ToolResult) Item {
	r := result
	return Item{Kind: ItemToolResult, Result: &r}
}

// Turn is one model response: free text, zero or more requested invocations,
// and the same content in history form ready to append.
type Turn struct {
	Text  string
	Calls []ToolCall
	Items []Item
}

// Client is the reasoning-service contract. Start opens a conversation with
// the initial input; Continue replays the full accumulated history.
type Client interface {
	Start(ctx context.Context, input string, tools []ToolSpec, instructions string) (*Turn, error)
	Continue(ctx context.Context, history []Item, tools []ToolSpec, instructions string) (*Turn, error)
}
