package uploadkit

import (
	"reflect"
	"testing"
)

func TestToStringArray(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{"nil", nil, []string{}},
		{"comma separated", "a,b,c", []string{"a", "b", "c"}},
		{"comma separated with blanks", " a , ,b,", []string{"a", "b"}},
		{"json array", `["x","y"]`, []string{"x", "y"}},
		{"json array of mixed values", `[1, 2.5, true, null, "s", {"k":1}]`, []string{"1", "2.5", "true", "null", "s", `{"k":1}`}},
		{"single value", "single", []string{"single"}},
		{"json scalar falls back to raw string", `42`, []string{"42"}},
		{"json object with comma is split", `{"a":1,"b":2}`, []string{`{"a":1`, `"b":2}`}},
		{"malformed json with comma is split", `["x",`, []string{`["x"`}},
		{"empty string", "", []string{}},
		{"whitespace only", "   ", []string{}},
		{"string slice", []string{"already", "array"}, []string{"already", "array"}},
		{"any slice", []any{"already", 3.0, false}, []string{"already", "3", "false"}},
		{"other scalar", 7, []string{"7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToStringArray(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestToStringArrayCopiesSlices(t *testing.T) {
	in := []string{"a"}
	out := ToStringArray(in)
	out[0] = "b"
	if in[0] != "a" {
		t.Error("Expected input slice to be left untouched")
	}
}

func TestBodyCoerceArrayKeys(t *testing.T) {
	b := newBody()
	b.Values["tags"] = "a,b,c"
	b.Values["title"] = "hello"
	b.coerceArrayKeys([]string{"tags", "missing"})

	if _, ok := b.Lookup("tags"); ok {
		t.Error("Expected array key removed from Values")
	}
	if got := b.Array("tags"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Expected [a b c], got %q", got)
	}
	if got := b.Array("missing"); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil array for missing key, got %#v", got)
	}
	if got := b.Get("title"); got != "hello" {
		t.Errorf("Expected title 'hello', got %q", got)
	}
	if got := b.Keys(); !reflect.DeepEqual(got, []string{"missing", "tags", "title"}) {
		t.Errorf("Expected sorted keys, got %v", got)
	}
}

func TestBodyMarshalJSON(t *testing.T) {
	b := newBody()
	b.Values["title"] = "hello"
	b.Arrays["tags"] = []string{"x"}

	data, err := b.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	got := string(data)
	if got != `{"tags":["x"],"title":"hello"}` && got != `{"title":"hello","tags":["x"]}` {
		t.Errorf("Unexpected JSON %s", got)
	}
}
