package task

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fyrsmithlabs/metalearn/internal/similarity"
)

// Kind identifies the variant a Value holds.
type Kind string

const (
	KindText   Kind = "text"
	KindArray  Kind = "array"
	KindObject Kind = "object"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindNull   Kind = "null"
)

// Value is a tagged union over the JSON payload shapes the learning core
// distinguishes. The zero value is null.
//
// Values round-trip losslessly through JSON: marshaling produces the
// natural JSON form (a string, array, object, number, bool, or null) and
// unmarshaling reconstructs the same variant.
type Value struct {
	kind    Kind
	text    string
	number  float64
	boolean bool
	array   []Value
	object  map[string]Value
}

// Constructors for each variant.

func Text(s string) Value             { return Value{kind: KindText, text: s} }
func Number(f float64) Value          { return Value{kind: KindNumber, number: f} }
func Bool(b bool) Value               { return Value{kind: KindBool, boolean: b} }
func Null() Value                     { return Value{kind: KindNull} }
func Array(items ...Value) Value      { return Value{kind: KindArray, array: items} }
func Object(m map[string]Value) Value { return Value{kind: KindObject, object: m} }

// Kind returns the variant tag. The zero Value reports KindNull.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether v holds no payload.
func (v Value) IsNull() bool { return v.Kind() == KindNull }

// AsText returns the text payload and whether v is a text value.
func (v Value) AsText() (string, bool) {
	return v.text, v.Kind() == KindText
}

// AsNumber returns the numeric payload and whether v is a number.
func (v Value) AsNumber() (float64, bool) {
	return v.number, v.Kind() == KindNumber
}

// AsBool returns the boolean payload and whether v is a bool.
func (v Value) AsBool() (bool, bool) {
	return v.boolean, v.Kind() == KindBool
}

// AsArray returns the element slice and whether v is an array.
// The returned slice is shared, not copied; callers must not mutate it.
func (v Value) AsArray() ([]Value, bool) {
	return v.array, v.Kind() == KindArray
}

// AsObject returns the field map and whether v is an object.
// The returned map is shared, not copied; callers must not mutate it.
func (v Value) AsObject() (map[string]Value, bool) {
	return v.object, v.Kind() == KindObject
}

// Equal reports deep equality between v and other. Variants of different
// kinds are never equal.
func (v Value) Equal(other Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}
	switch v.Kind() {
	case KindText:
		return v.text == other.text
	case KindNumber:
		return v.number == other.number
	case KindBool:
		return v.boolean == other.boolean
	case KindNull:
		return true
	case KindArray:
		if len(v.array) != len(other.array) {
			return false
		}
		for i := range v.array {
			if !v.array[i].Equal(other.array[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.object) != len(other.object) {
			return false
		}
		for k, val := range v.object {
			ov, ok := other.object[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// Canonical returns the canonical text form of v: the raw string for text
// values, compact JSON (sorted object keys) for everything else. This is
// the form fed to the pseudo-embedding, so it must be deterministic.
func (v Value) Canonical() string {
	if s, ok := v.AsText(); ok {
		return s
	}
	// encoding/json sorts map keys, which keeps object encoding stable.
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// SortedKeys returns the object's keys in sorted order, or nil for
// non-object values.
func (v Value) SortedKeys() []string {
	obj, ok := v.AsObject()
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes the natural JSON form of the held variant.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber:
		return json.Marshal(v.number)
	case KindBool:
		return json.Marshal(v.boolean)
	case KindArray:
		if v.array == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.array)
	case KindObject:
		if v.object == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.object)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any JSON value into the matching variant.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}
	*v = FromInterface(raw)
	return nil
}

// FromInterface converts a decoded JSON value (as produced by
// encoding/json into interface{}) to a Value.
func FromInterface(raw interface{}) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case string:
		return Text(x)
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case []interface{}:
		items := make([]Value, len(x))
		for i, e := range x {
			items[i] = FromInterface(e)
		}
		return Array(items...)
	case map[string]interface{}:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			m[k] = FromInterface(e)
		}
		return Object(m)
	default:
		return Null()
	}
}

// Similarity scores how alike two values are, in [0,1].
//
// Dispatch follows the variant tags of both sides: two texts use
// edit-distance similarity, two objects use key-overlap, two arrays use
// positional element equality (the index-keyed analogue of key overlap),
// and any other pairing falls back to exact equality (1 or 0).
func Similarity(a, b Value) float64 {
	if at, ok := a.AsText(); ok {
		if bt, ok := b.AsText(); ok {
			return similarity.StringSimilarity(at, bt)
		}
	}
	if ao, ok := a.AsObject(); ok {
		if bo, ok := b.AsObject(); ok {
			return objectSimilarity(ao, bo)
		}
	}
	if aa, ok := a.AsArray(); ok {
		if ba, ok := b.AsArray(); ok {
			return arraySimilarity(aa, ba)
		}
	}
	if a.Equal(b) {
		return 1.0
	}
	return 0.0
}

// objectSimilarity returns the ratio of keys holding equal values to the
// union of both objects' keys. Two empty objects are identical (1.0).
func objectSimilarity(a, b map[string]Value) float64 {
	union := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		union[k] = struct{}{}
	}
	for k := range b {
		union[k] = struct{}{}
	}
	if len(union) == 0 {
		return 1.0
	}

	matches := 0
	for k := range union {
		av, aok := a[k]
		bv, bok := b[k]
		if aok && bok && av.Equal(bv) {
			matches++
		}
	}
	return float64(matches) / float64(len(union))
}

// arraySimilarity returns the ratio of positions holding equal elements to
// the longer array's length. Two empty arrays are identical (1.0).
func arraySimilarity(a, b []Value) float64 {
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 1.0
	}

	shorter := len(a)
	if len(b) < shorter {
		shorter = len(b)
	}
	matches := 0
	for i := 0; i < shorter; i++ {
		if a[i].Equal(b[i]) {
			matches++
		}
	}
	return float64(matches) / float64(longer)
}
