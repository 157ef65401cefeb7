// Package tools defines the platform operations exposed to the reasoning
// service. Every tool returns a plain-text result; identifiers surface in the
// fixed "created successfully with ID n" shape the briefing teaches the model
// to parse.
package tools

import (
	"fmt"
	"strings"
)

// formatCreation renders a creation success. idField is "id" or "uuid"; the
// value is read from the response document, unwrapping a single-element array
// when the endpoint answers in bulk form.
func formatCreation(resource, name, idField string, data any) string {
	doc := unwrapDocument(data)
	value := doc[idField]
	return fmt.Sprintf("%s '%s' created successfully with %s %s",
		resource, name, strings.ToUpper(idField), renderValue(value))
}

func formatUpdate(resource, name, idField string, data any) string {
	doc := unwrapDocument(data)
	value := doc[idField]
	return fmt.Sprintf("%s '%s' updated successfully with %s %s",
		resource, name, strings.ToUpper(idField), renderValue(value))
}

func formatFailure(operation string, err error) string {
	return fmt.Sprintf("Failed to %s: %v", operation, err)
}

func formatEmpty(resource string) string {
	return fmt.Sprintf("No %s found.", resource)
}

// formatList renders items as "ID: n, Name: x" lines. Paginated responses
// are unwrapped via their "content" array.
func formatList(data any, extraKey string) string {
	items := unwrapList(data)
	if len(items) == 0 {
		return "No items found."
	}
	lines := make([]string, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			lines = append(lines, fmt.Sprint(raw))
			continue
		}
		line := fmt.Sprintf("ID: %s, Name: %s", renderValue(item["id"]), renderValue(item["name"]))
		if extraKey != "" {
			if extra, ok := item[extraKey]; ok {
				line += fmt.Sprintf(", %s%s: %s", strings.ToUpper(extraKey[:1]), extraKey[1:], renderValue(extra))
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func unwrapDocument(data any) map[string]any {
	switch v := data.(type) {
	case map[string]any:
		return v
	case []any:
		if len(v) > 0 {
			if doc, ok := v[0].(map[string]any); ok {
				return doc
			}
		}
	}
	return map[string]any{}
}

func unwrapList(data any) []any {
	switch v := data.(type) {
	case []any:
		return v
	case map[string]any:
		if content, ok := v["content"].([]any); ok {
			return content
		}
		return []any{v}
	}
	return nil
}

// renderValue prints JSON numbers without a float suffix so IDs read as
// integers.
func renderValue(v any) string {
	switch n := v.(type) {
	case nil:
		return "<none>"
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%v", n)
	}
	return fmt.Sprint(v)
}
