package registry

// ParamType mirrors the JSON schema primitive set the reasoning service
// understands.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

// Param describes one tool parameter. Items describes array elements,
// Properties describes object fields; both nest arbitrarily.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Items       *Param
	Properties  []Param
}

func objectSchema(params []Param) map[string]any {
	properties := map[string]any{}
	required := []string{}
	for _, p := range params {
		properties[p.Name] = paramSchema(p)
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func paramSchema(p Param) map[string]any {
	schema := map[string]any{"type": string(p.Type)}
	if p.Description != "" {
		schema["description"] = p.Description
	}
	switch p.Type {
	case TypeArray:
		if p.Items != nil {
			schema["items"] = paramSchema(*p.Items)
		} else {
			schema["items"] = map[string]any{"type": "string"}
		}
	case TypeObject:
		if len(p.Properties) > 0 {
			nested := objectSchema(p.Properties)
			schema["properties"] = nested["properties"]
			schema["required"] = nested["required"]
		}
	}
	return schema
}
