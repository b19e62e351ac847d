package uploadkit

import (
	"sort"

	"github.com/bytedance/sonic"
)

// Body holds the plain (non-file) fields of an ingested request. Fields named
// in IngestOptions.ArrayKeys live in Arrays; all others in Values.
type Body struct {
	Values map[string]string
	Arrays map[string][]string
}

func newBody() Body {
	return Body{Values: make(map[string]string), Arrays: make(map[string][]string)}
}

// Get returns the scalar value of key, or "" if absent.
func (b Body) Get(key string) string {
	return b.Values[key]
}

// Lookup returns the scalar value of key and whether it was present.
func (b Body) Lookup(key string) (string, bool) {
	v, ok := b.Values[key]
	return v, ok
}

// Array returns the coerced array of an array key. It is never nil for a
// key listed in ArrayKeys.
func (b Body) Array(key string) []string {
	return b.Arrays[key]
}

// Keys returns every field name in the body, sorted.
func (b Body) Keys() []string {
	keys := make([]string, 0, len(b.Values)+len(b.Arrays))
	for k := range b.Values {
		keys = append(keys, k)
	}
	for k := range b.Arrays {
		if _, dup := b.Values[k]; !dup {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON renders the body as a single object whose members are strings
// or string arrays.
func (b Body) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.Values)+len(b.Arrays))
	for k, v := range b.Values {
		out[k] = v
	}
	for k, v := range b.Arrays {
		out[k] = v
	}
	return sonic.Marshal(out)
}

// coerceArrayKeys moves each array key from Values into Arrays.
func (b Body) coerceArrayKeys(keys []string) {
	for _, k := range keys {
		v, ok := b.Values[k]
		delete(b.Values, k)
		if !ok {
			b.Arrays[k] = []string{}
			continue
		}
		b.Arrays[k] = ToStringArray(v)
	}
}
