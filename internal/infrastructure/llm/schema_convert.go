package llm

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// toGenaiSchema 把 JSON Schema 风格的 map 转换为 genai.Schema。
// 只支持 type、description、properties、required、items、enum。
func toGenaiSchema(m map[string]any) (*genai.Schema, error) {
	if m == nil {
		return nil, nil
	}

	s := &genai.Schema{}
	typ, _ := m["type"].(string)
	switch strings.ToLower(typ) {
	case "object":
		s.Type = genai.TypeObject
	case "array":
		s.Type = genai.TypeArray
	case "string":
		s.Type = genai.TypeString
	case "number":
		s.Type = genai.TypeNumber
	case "integer":
		s.Type = genai.TypeInteger
	case "boolean":
		s.Type = genai.TypeBoolean
	default:
		return nil, fmt.Errorf("unsupported schema type %q", typ)
	}

	if desc, ok := m["description"].(string); ok {
		s.Description = desc
	}

	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			sub, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("property %s: expected object", name)
			}
			child, err := toGenaiSchema(sub)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", name, err)
			}
			s.Properties[name] = child
		}
	}

	required, err := stringList(m["required"])
	if err != nil {
		return nil, fmt.Errorf("required: %w", err)
	}
	s.Required = required

	enum, err := stringList(m["enum"])
	if err != nil {
		return nil, fmt.Errorf("enum: %w", err)
	}
	s.Enum = enum

	if items, ok := m["items"].(map[string]any); ok {
		child, err := toGenaiSchema(items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		s.Items = child
	}
	return s, nil
}

func stringList(v any) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}
}
