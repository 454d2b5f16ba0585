package jsontree

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reason classifies why an accessor failed.
type Reason uint8

const (
	reasonNone Reason = iota
	// ReasonMissing means the object has no member with the requested key.
	ReasonMissing
	// ReasonNull means the member exists but holds JSON null.
	ReasonNull
	// ReasonWrongType means the member, or the node it was looked up in,
	// holds a different kind than requested.
	ReasonWrongType
	// ReasonOutOfRange means a number does not fit the requested Go type.
	ReasonOutOfRange
)

func (r Reason) String() string {
	switch r {
	case ReasonMissing:
		return "missing"
	case ReasonNull:
		return "null"
	case ReasonWrongType:
		return "wrong type"
	case ReasonOutOfRange:
		return "out of range"
	default:
		return "none"
	}
}

// FieldError reports a failed keyed access.
type FieldError struct {
	Field  string // requested key
	Path   string // dotted location of the key in the document
	Reason Reason
	Want   Kind
	Got    Kind
}

func (e *FieldError) Error() string {
	switch e.Reason {
	case ReasonWrongType:
		return fmt.Sprintf("%s: want %s, got %s", e.Path, e.Want, e.Got)
	case ReasonOutOfRange:
		return fmt.Sprintf("%s: number out of range", e.Path)
	default:
		return fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
}

// IsAbsent reports whether err is a FieldError for a missing key or a null
// value.
func IsAbsent(err error) bool {
	var fe *FieldError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Reason == ReasonMissing || fe.Reason == ReasonNull
}

// member returns the non-null member key of the object v.
func (v Value) member(key string, want Kind) (Value, error) {
	path := joinPath(v.path, key)
	if v.kind != KindObject {
		return Value{}, &FieldError{Field: key, Path: path, Reason: ReasonWrongType, Want: KindObject, Got: v.kind}
	}
	child, ok := v.obj[key]
	if !ok {
		return Value{}, &FieldError{Field: key, Path: path, Reason: ReasonMissing, Want: want}
	}
	if child.kind == KindNull {
		return Value{}, &FieldError{Field: key, Path: path, Reason: ReasonNull, Want: want, Got: KindNull}
	}
	if child.kind != want {
		return Value{}, &FieldError{Field: key, Path: path, Reason: ReasonWrongType, Want: want, Got: child.kind}
	}
	return child, nil
}

// Object returns the object member key.
func (v Value) Object(key string) (Value, error) {
	return v.member(key, KindObject)
}

// Array returns the elements of the array member key.
func (v Value) Array(key string) ([]Value, error) {
	child, err := v.member(key, KindArray)
	if err != nil {
		return nil, err
	}
	return child.arr, nil
}

// String returns the string member key.
func (v Value) String(key string) (string, error) {
	child, err := v.member(key, KindString)
	if err != nil {
		return "", err
	}
	return child.str, nil
}

// Bool returns the boolean member key.
func (v Value) Bool(key string) (bool, error) {
	child, err := v.member(key, KindBool)
	if err != nil {
		return false, err
	}
	return child.b, nil
}

// Float64 returns the numeric member key.
func (v Value) Float64(key string) (float64, error) {
	child, err := v.member(key, KindNumber)
	if err != nil {
		return 0, err
	}
	f, r := child.toFloat()
	if r != reasonNone {
		return 0, &FieldError{Field: key, Path: child.path, Reason: r, Want: KindNumber, Got: child.kind}
	}
	return f, nil
}

// Int returns the numeric member key truncated toward zero. Integer
// literals are converted exactly; fractional literals go through float64.
func (v Value) Int(key string) (int, error) {
	child, err := v.member(key, KindNumber)
	if err != nil {
		return 0, err
	}
	n, r := child.toInt()
	if r != reasonNone {
		return 0, &FieldError{Field: key, Path: child.path, Reason: r, Want: KindNumber, Got: child.kind}
	}
	return n, nil
}

// Lookup walks a chain of object members and returns the last one, which
// may be of any kind except null.
func (v Value) Lookup(keys ...string) (Value, error) {
	cur := v
	for i, key := range keys {
		want := KindObject
		if i == len(keys)-1 {
			child, ok := cur.Get(key)
			if ok {
				want = child.kind
			}
			if want == KindNull {
				want = KindObject
			}
		}
		next, err := cur.member(key, want)
		if err != nil {
			return Value{}, err
		}
		cur = next
	}
	return cur, nil
}

func (v Value) toFloat() (float64, Reason) {
	if v.kind != KindNumber {
		return 0, ReasonWrongType
	}
	f, err := strconv.ParseFloat(v.num.String(), 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, ReasonOutOfRange
	}
	return f, reasonNone
}

func (v Value) toInt() (int, Reason) {
	if v.kind != KindNumber {
		return 0, ReasonWrongType
	}
	lit := v.num.String()
	if !strings.ContainsAny(lit, ".eE") {
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil || n < math.MinInt || n > math.MaxInt {
			return 0, ReasonOutOfRange
		}
		return int(n), reasonNone
	}
	f, r := v.toFloat()
	if r != reasonNone {
		return 0, r
	}
	t := math.Trunc(f)
	if t < math.MinInt || t >= -math.MinInt {
		return 0, ReasonOutOfRange
	}
	return int(t), reasonNone
}
