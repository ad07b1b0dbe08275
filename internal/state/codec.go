package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Storage keys owned by the container.
const (
	KeyTheme      = "@theme_preference"
	KeyTasks      = "@todo_items"
	KeyCategories = "@categories"
)

// ErrMalformed marks a stored value that failed to decode or validate.
var ErrMalformed = errors.New("malformed stored value")

var (
	themeSchema = jsonschema.MustCompileString("mem://todo-keeper/theme.json", `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "boolean"
	}`)

	tasksSchema = jsonschema.MustCompileString("mem://todo-keeper/tasks.json", `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "array",
		"items": {
			"type": "object",
			"required": ["id", "text"],
			"properties": {
				"id":         {"type": "string", "minLength": 1},
				"text":       {"type": "string"},
				"completed":  {"type": "boolean"},
				"categoryId": {"type": ["string", "null"]},
				"notes":      {"type": ["string", "null"]},
				"createdAt":  {"type": "string"}
			}
		}
	}`)

	categoriesSchema = jsonschema.MustCompileString("mem://todo-keeper/categories.json", `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "array",
		"items": {
			"type": "object",
			"required": ["id", "name"],
			"properties": {
				"id":    {"type": "string", "minLength": 1},
				"name":  {"type": "string"},
				"color": {"type": "string"}
			}
		}
	}`)
)

// decode validates raw against schema and unmarshals it into T.
func decode[T any](raw string, schema *jsonschema.Schema) (T, error) {
	var out T
	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return out, err
	}
	if err := schema.Validate(doc); err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, err
	}
	return out, nil
}

// loadKey reads key and decodes it. A missing key yields fallback with no error;
// read or decode failures yield fallback together with the cause.
func loadKey[T any](ctx context.Context, s Store, key string, schema *jsonschema.Schema, fallback T) (T, bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return fallback, false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return fallback, false, nil
	}
	v, err := decode[T](raw, schema)
	if err != nil {
		return fallback, false, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return v, true, nil
}

// duplicateID reports the first id that occurs more than once in items.
func duplicateID[T any](items []T, id func(T) string) (string, bool) {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		key := id(item)
		if _, ok := seen[key]; ok {
			return key, true
		}
		seen[key] = struct{}{}
	}
	return "", false
}

func saveKey(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
