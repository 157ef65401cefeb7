package registry

import (
	"context"
	"errors"
	"testing"
)

func noopHandler(result string) Handler {
	return func(ctx context.Context, rc ReqContext, args map[string]any) (string, error) {
		return result, nil
	}
}

func TestRegisterStripsReservedAuthParam(t *testing.T) {
	reg := New()
	reg.Register(Tool{
		Name: "create_x",
		Params: []Param{
			{Name: ReservedAuthParam, Type: TypeString, Required: true},
			{Name: "name", Type: TypeString, Required: true},
			{Name: "level", Type: TypeNumber, Required: true},
			{Name: "parentId", Type: TypeInteger},
		},
		Handler: noopHandler("ok"),
	})

	specs := reg.Describe(nil)
	if len(specs) != 1 {
		t.Fatalf("expected 1 spec, got %d", len(specs))
	}

	properties, ok := specs[0].Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatalf("missing properties in schema: %v", specs[0].Parameters)
	}
	if _, exists := properties[ReservedAuthParam]; exists {
		t.Fatalf("auth param leaked into exposed schema")
	}
	if _, exists := properties["name"]; !exists {
		t.Fatalf("expected name in schema")
	}
	if _, exists := properties["parentId"]; !exists {
		t.Fatalf("expected parentId in schema")
	}

	required, ok := specs[0].Parameters["required"].([]string)
	if !ok {
		t.Fatalf("missing required list in schema")
	}
	if len(required) != 2 {
		t.Fatalf("expected 2 required params, got %v", required)
	}
	for _, name := range required {
		if name == "parentId" || name == ReservedAuthParam {
			t.Fatalf("%s must not be required", name)
		}
	}
}

func TestRegisterLastWriteWins(t *testing.T) {
	reg := New()
	reg.Register(Tool{Name: "create_x", Handler: noopHandler("first")})
	reg.Register(Tool{Name: "create_x", Handler: noopHandler("second")})

	if names := reg.Names(); len(names) != 1 {
		t.Fatalf("expected 1 registered name, got %v", names)
	}

	result, err := reg.Call(context.Background(), ReqContext{}, "create_x", nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result != "second" {
		t.Fatalf("expected last registration to win, got %q", result)
	}
}

func TestCallUnknownTool(t *testing.T) {
	reg := New()
	_, err := reg.Call(context.Background(), ReqContext{}, "missing", nil)
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestCallPassesReqContext(t *testing.T) {
	reg := New()
	reg.Register(Tool{
		Name: "whoami",
		Handler: func(ctx context.Context, rc ReqContext, args map[string]any) (string, error) {
			return rc.AuthToken + "/" + rc.TaskID, nil
		},
	})

	result, err := reg.Call(context.Background(), ReqContext{AuthToken: "tok", TaskID: "t1"}, "whoami", nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result != "tok/t1" {
		t.Fatalf("unexpected context values: %q", result)
	}
}

func TestDescribeFilter(t *testing.T) {
	reg := New()
	reg.Register(Tool{Name: "a", Handler: noopHandler("")})
	reg.Register(Tool{Name: "b", Handler: noopHandler("")})
	reg.Register(Tool{Name: "c", Handler: noopHandler("")})

	specs := reg.Describe([]string{"c", "a", "missing"})
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	if specs[0].Name != "c" || specs[1].Name != "a" {
		t.Fatalf("filter order not preserved: %v", specs)
	}
}

func TestCallCoercionFailure(t *testing.T) {
	reg := New()
	reg.Register(Tool{
		Name: "create_x",
		Params: []Param{
			{Name: "level", Type: TypeInteger, Required: true},
		},
		Handler: noopHandler("ok"),
	})

	_, err := reg.Call(context.Background(), ReqContext{}, "create_x", map[string]any{"level": 3.5})
	if err == nil {
		t.Fatalf("expected coercion error for fractional integer")
	}
}
