// Package registry holds the catalog of operations the reasoning service may
// invoke. Tools are declared with explicit parameter descriptors; the exposed
// JSON schema is derived from those descriptors and plain-data arguments are
// coerced into the declared types before dispatch.
package registry

import (
	"context"
	"errors"
	"fmt"
)

// ReservedAuthParam is never exposed to the reasoning service. The auth token
// travels in the request context instead and tools read it from there.
const ReservedAuthParam = "auth_token"

var ErrToolNotFound = errors.New("tool not found")

// ReqContext carries per-call cross-cutting values. It replaces ambient
// context-variable propagation with an explicit parameter.
type ReqContext struct {
	AuthToken string
	TaskID    string
}

// Handler executes one tool call. Arguments arrive coerced to the declared
// parameter types. A returned error is serialized into an error tool-result
// by the caller; it never escapes the conversation.
type Handler func(ctx context.Context, rc ReqContext, args map[string]any) (string, error)

// Tool is an immutable catalog entry.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// Registry is constructed explicitly and passed by reference; there is no
// process-wide instance. It is populated once at startup and read-only
// afterwards, so no locking is needed on the call path.
type Registry struct {
	tools map[string]Tool
	order []string
}

func New() *Registry {
	return &Registry{tools: map[string]Tool{}}
}

// Register adds a tool to the catalog. Registering the same name twice
// overwrites the earlier definition; last write wins. A parameter named
// ReservedAuthParam is stripped from the exposed schema.
func (r *Registry) Register(tool Tool) {
	if tool.Name == "" {
		panic("registry: tool name is required")
	}
	if tool.Description == "" {
		tool.Description = fmt.Sprintf("Execute %s", tool.Name)
	}
	params := make([]Param, 0, len(tool.Params))
	for _, p := range tool.Params {
		if p.Name == ReservedAuthParam {
			continue
		}
		params = append(params, p)
	}
	tool.Params = params
	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = tool
}

// Names lists registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Spec is one catalog entry in the form the reasoning service consumes.
type Spec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Describe renders the catalog, or the named subset when filter is non-empty.
// Filter names without a registered tool are skipped.
func (r *Registry) Describe(filter []string) []Spec {
	names := r.order
	if len(filter) > 0 {
		names = filter
	}
	specs := make([]Spec, 0, len(names))
	for _, name := range names {
		tool, ok := r.tools[name]
		if !ok {
			continue
		}
		specs = append(specs, Spec{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  objectSchema(tool.Params),
		})
	}
	return specs
}

// Call coerces args against the tool's declared parameters and dispatches.
// Coercion failures and handler errors are returned to the caller (the
// function-call executor), which feeds them back into the conversation.
func (r *Registry) Call(ctx context.Context, rc ReqContext, name string, args map[string]any) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}
	coerced, err := CoerceArguments(tool.Params, args)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", name, err)
	}
	return tool.Handler(ctx, rc, coerced)
}
