// Package jsontree decodes JSON documents whose schema is only partly known
// into a tree of typed nodes.
//
// Accessors never invent values. A key that is missing, a value that is
// null, a value of the wrong kind and a number that does not fit the
// requested type are all reported as a *FieldError, and the caller decides
// what to do about it.
package jsontree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one node of a decoded document. The zero Value is null.
type Value struct {
	kind Kind
	path string

	b   bool
	num json.Number
	str string
	arr []Value
	obj map[string]Value
}

// Parse decodes a single JSON document. Trailing data after the document is
// rejected.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("decode json: unexpected data after document")
	}
	return build(raw, "")
}

func build(raw any, path string) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{kind: KindNull, path: path}, nil
	case bool:
		return Value{kind: KindBool, path: path, b: x}, nil
	case json.Number:
		return Value{kind: KindNumber, path: path, num: x}, nil
	case string:
		return Value{kind: KindString, path: path, str: x}, nil
	case []any:
		arr := make([]Value, len(x))
		for i, elem := range x {
			v, err := build(elem, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return Value{}, err
			}
			arr[i] = v
		}
		return Value{kind: KindArray, path: path, arr: arr}, nil
	case map[string]any:
		obj := make(map[string]Value, len(x))
		for key, elem := range x {
			v, err := build(elem, joinPath(path, key))
			if err != nil {
				return Value{}, err
			}
			obj[key] = v
		}
		return Value{kind: KindObject, path: path, obj: obj}, nil
	default:
		return Value{}, fmt.Errorf("decode json: unsupported value %T at %q", raw, path)
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// Path returns the dotted location of v inside its document. The root has an
// empty path.
func (v Value) Path() string { return v.path }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Len returns the number of elements of an array or members of an object,
// and 0 for every other kind.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// Get returns the member key of an object. ok is false when v is not an
// object or has no such member.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	child, ok := v.obj[key]
	return child, ok
}

// Index returns element i of an array.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsFloat64 returns the number held by v as a float64. ok is false for
// non-numbers and for literals outside the float64 range.
func (v Value) AsFloat64() (float64, bool) {
	f, r := v.toFloat()
	return f, r == reasonNone
}

// AsInt returns the number held by v truncated toward zero.
func (v Value) AsInt() (int, bool) {
	n, r := v.toInt()
	return n, r == reasonNone
}

// AsArray returns the elements of an array. The slice must not be modified.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}
