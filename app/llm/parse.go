package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// extractJSON slices out the first balanced-looking JSON value between
// the given open and close characters. Models often wrap their output
// in prose or code fences, so anything outside the outermost brackets
// is discarded.
func extractJSON(text string, opener, closer byte) (string, error) {
	text = strings.TrimSpace(text)

	start := strings.IndexByte(text, opener)
	end := strings.LastIndexByte(text, closer)
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON %c...%c block in response", opener, closer)
	}

	return text[start : end+1], nil
}

func decodeArray[T any](text string) ([]T, error) {
	raw, err := extractJSON(text, '[', ']')
	if err != nil {
		return nil, err
	}

	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to decode response array: %w", err)
	}

	return out, nil
}

func decodeObject[T any](text string) (T, error) {
	var out T

	raw, err := extractJSON(text, '{', '}')
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, fmt.Errorf("failed to decode response object: %w", err)
	}

	return out, nil
}

// completeArray runs a prompt and decodes the JSON array the stages
// expect back. A malformed response is retried once with the same
// prompt; API transport errors are not retried here.
func completeArray[T any](ctx context.Context, client Client, prompt string) ([]T, error) {
	for attempt := 0; ; attempt++ {
		text, err := client.Complete(ctx, prompt)
		if err != nil {
			return nil, err
		}

		out, decodeErr := decodeArray[T](text)
		if decodeErr == nil {
			return out, nil
		}
		if attempt == 0 {
			slog.Warn("Malformed model response, retrying", "error", decodeErr)
			continue
		}
		return nil, decodeErr
	}
}

func completeObject[T any](ctx context.Context, client Client, prompt string) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		text, err := client.Complete(ctx, prompt)
		if err != nil {
			return zero, err
		}

		out, decodeErr := decodeObject[T](text)
		if decodeErr == nil {
			return out, nil
		}
		if attempt == 0 {
			slog.Warn("Malformed model response, retrying", "error", decodeErr)
			continue
		}
		return zero, decodeErr
	}
}

// coerceList accepts the shapes models actually emit for list fields:
// a proper array, or a single delimited string.
func coerceList(value interface{}) []string {
	switch v := value.(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s := strings.TrimSpace(fmt.Sprintf("%v", item))
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(strings.ReplaceAll(v, "/", ","), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return nil
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
