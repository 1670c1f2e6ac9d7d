package json

import (
	"strings"
	"testing"
)

type TestStruct struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestPureJSON(t *testing.T) {
	response := `{"name": "test", "value": 42}`
	result, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "test" {
		t.Errorf("expected name 'test', got '%s'", result.Name)
	}
	if result.Value != 42 {
		t.Errorf("expected value 42, got %d", result.Value)
	}
}

func TestJSONWithPrefix(t *testing.T) {
	response := `Here is the result: {"name": "test", "value": 42}`
	result, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "test" {
		t.Errorf("expected name 'test', got '%s'", result.Name)
	}
	if result.Value != 42 {
		t.Errorf("expected value 42, got %d", result.Value)
	}
}

func TestJSONWithSuffix(t *testing.T) {
	response := `{"name": "test", "value": 42} That's the output.`
	result, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "test" {
		t.Errorf("expected name 'test', got '%s'", result.Name)
	}
	if result.Value != 42 {
		t.Errorf("expected value 42, got %d", result.Value)
	}
}

func TestJSONWithBoth(t *testing.T) {
	response := `Let me think... {"name": "test", "value": 42} Done!`
	result, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "test" {
		t.Errorf("expected name 'test', got '%s'", result.Name)
	}
	if result.Value != 42 {
		t.Errorf("expected value 42, got %d", result.Value)
	}
}

func TestNoJSON(t *testing.T) {
	response := "This is just plain text without any JSON."
	_, err := ExtractJSONFromResponse[TestStruct](response)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	// Error should contain a preview of the response
	if !strings.Contains(err.Error(), "failed to extract valid JSON") {
		t.Errorf("expected 'failed to extract valid JSON' in error, got: %v", err)
	}
}

func TestInvalidJSON(t *testing.T) {
	response := `{"name": "test", value: }`
	_, err := ExtractJSONFromResponse[TestStruct](response)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestJSONInCodeFence(t *testing.T) {
	response := "```json\n{\"name\": \"fenced\", \"value\": 7}\n```"
	result, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "fenced" || result.Value != 7 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestBracesInsideStrings(t *testing.T) {
	response := `Thought: {not json} then {"name": "a}b", "value": 1} and {"name": "second"}`
	got, err := ExtractJSONFromResponse[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "a}b" || got.Value != 1 {
		t.Errorf("ExtractJSONFromResponse() = %+v", got)
	}
}

func TestIsObject(t *testing.T) {
	cases := map[string]bool{
		`{"zip_code": "90210"}`:     true,
		" {\"weeks\": 4} ":          true,
		`90210,7`:                   false,
		`["90210"]`:                 false,
		`{"zip_code": `:             false,
		"```\n{\"days\": 3}\n```":   true,
	}
	for input, want := range cases {
		if got := IsObject(input); got != want {
			t.Errorf("IsObject(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestFlatObject(t *testing.T) {
	got, err := FlatObject(`{"zip_code": "90210", "days": 7, "verbose": true, "region": null}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"zip_code": "90210", "days": "7", "verbose": "true", "region": ""}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("FlatObject()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestFlatObjectRejectsNesting(t *testing.T) {
	if _, err := FlatObject(`{"zip_code": {"value": "90210"}}`); err == nil {
		t.Fatal("expected error for nested object")
	}
	if _, err := FlatObject(`not json`); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
