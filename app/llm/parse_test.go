package llm

import (
	"context"
	"fmt"
	"testing"
)

type fakeClient struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeClient) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", fmt.Errorf("no scripted response")
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeClient) Model() string {
	return "test-model"
}

func TestDecodeArray_PlainArray(t *testing.T) {
	out, err := decodeArray[map[string]int](`[{"a":1},{"a":2}]`)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(out) != 2 || out[1]["a"] != 2 {
		t.Errorf("Unexpected decode result: %v", out)
	}
}

func TestDecodeArray_ProseWrapped(t *testing.T) {
	text := "Here are the results:\n```json\n[{\"a\":1}]\n```\nLet me know if you need more."
	out, err := decodeArray[map[string]int](text)
	if err != nil {
		t.Fatalf("Expected wrapped array to decode, got %v", err)
	}
	if len(out) != 1 {
		t.Errorf("Expected 1 element, got %d", len(out))
	}
}

func TestDecodeArray_NoArray(t *testing.T) {
	if _, err := decodeArray[map[string]int]("I cannot answer that."); err == nil {
		t.Error("Expected error for response without an array")
	}
}

func TestCompleteArray_RetriesOnceOnMalformed(t *testing.T) {
	client := &fakeClient{responses: []string{"not json", `[{"a":1}]`}}

	out, err := completeArray[map[string]int](context.Background(), client, "prompt")
	if err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if client.calls != 2 {
		t.Errorf("Expected exactly 2 calls, got %d", client.calls)
	}
	if len(out) != 1 {
		t.Errorf("Expected 1 element, got %d", len(out))
	}
}

func TestCompleteArray_GivesUpAfterSecondMalformed(t *testing.T) {
	client := &fakeClient{responses: []string{"nope", "still nope"}}

	if _, err := completeArray[map[string]int](context.Background(), client, "prompt"); err == nil {
		t.Error("Expected error after two malformed responses")
	}
	if client.calls != 2 {
		t.Errorf("Expected exactly 2 calls, got %d", client.calls)
	}
}

func TestCompleteArray_APIErrorNotRetried(t *testing.T) {
	client := &fakeClient{err: fmt.Errorf("api down")}

	if _, err := completeArray[map[string]int](context.Background(), client, "prompt"); err == nil {
		t.Error("Expected API error to surface")
	}
	if client.calls != 1 {
		t.Errorf("API errors must not be retried, got %d calls", client.calls)
	}
}

func TestCompleteObject_ExtractsObject(t *testing.T) {
	client := &fakeClient{responses: []string{"Sure thing:\n{\"a\": 3}"}}

	out, err := completeObject[map[string]int](context.Background(), client, "prompt")
	if err != nil {
		t.Fatalf("Expected object to decode, got %v", err)
	}
	if out["a"] != 3 {
		t.Errorf("Unexpected object: %v", out)
	}
}

func TestCoerceList(t *testing.T) {
	if got := coerceList([]interface{}{"a", " b ", ""}); len(got) != 2 || got[1] != "b" {
		t.Errorf("Unexpected list coercion: %v", got)
	}
	if got := coerceList("one, two / three"); len(got) != 3 || got[2] != "three" {
		t.Errorf("Unexpected string coercion: %v", got)
	}
	if got := coerceList(42); got != nil {
		t.Errorf("Expected nil for non-list value, got %v", got)
	}
}
