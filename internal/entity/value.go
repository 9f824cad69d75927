package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// DecodeError reports a property access with the wrong expected kind.
// Callers get a typed error they can branch on instead of a cast panic.
type DecodeError struct {
	Want Kind
	Got  Kind
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode property: want %s, got %s", e.Want, e.Got)
}

// Value is a tagged union over the property kinds the platform supports.
// Entities carry open-ended property dictionaries, so the pipeline never
// sees a schema; it sees Values and branches on Kind.
//
// The zero Value is the null value.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	t    time.Time
	m    map[string]Value
	l    []Value
}

func String(s string) Value      { return Value{kind: KindString, str: s} }
func Number(n float64) Value     { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Time(t time.Time) Value     { return Value{kind: KindTime, t: t} }
func Map(m map[string]Value) Value {
	return Value{kind: KindMap, m: m}
}
func List(l []Value) Value { return Value{kind: KindList, l: l} }

// Null returns the null value.
func Null() Value { return Value{} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString decodes the value as a string.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", &DecodeError{Want: KindString, Got: v.kind}
	}
	return v.str, nil
}

// AsNumber decodes the value as a float64.
func (v Value) AsNumber() (float64, error) {
	if v.kind != KindNumber {
		return 0, &DecodeError{Want: KindNumber, Got: v.kind}
	}
	return v.num, nil
}

// AsBool decodes the value as a bool.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, &DecodeError{Want: KindBool, Got: v.kind}
	}
	return v.b, nil
}

// AsTime decodes the value as a time. String values that parse as RFC 3339
// timestamps or calendar dates decode too, since upstream services routinely
// deliver dates as JSON strings.
func (v Value) AsTime() (time.Time, error) {
	switch v.kind {
	case KindTime:
		return v.t, nil
	case KindString:
		if t, err := time.Parse(time.RFC3339, v.str); err == nil {
			return t, nil
		}
		if t, err := time.Parse("2006-01-02", v.str); err == nil {
			return t, nil
		}
		return time.Time{}, &DecodeError{Want: KindTime, Got: KindString}
	default:
		return time.Time{}, &DecodeError{Want: KindTime, Got: v.kind}
	}
}

// AsMap decodes the value as a nested map. The returned map is the value's
// own storage; callers that mutate it must Clone first.
func (v Value) AsMap() (map[string]Value, error) {
	if v.kind != KindMap {
		return nil, &DecodeError{Want: KindMap, Got: v.kind}
	}
	return v.m, nil
}

// AsList decodes the value as a list.
func (v Value) AsList() ([]Value, error) {
	if v.kind != KindList {
		return nil, &DecodeError{Want: KindList, Got: v.kind}
	}
	return v.l, nil
}

// StringValue returns the string content without error checking; empty
// string for non-string values. For logging and token derivation only.
func (v Value) StringValue() string {
	return v.str
}

// Clone returns a deep copy. Map and list storage is duplicated so the
// copy can be transformed without touching the original.
func (v Value) Clone() Value {
	switch v.kind {
	case KindMap:
		m := make(map[string]Value, len(v.m))
		for k, e := range v.m {
			m[k] = e.Clone()
		}
		return Value{kind: KindMap, m: m}
	case KindList:
		l := make([]Value, len(v.l))
		for i, e := range v.l {
			l[i] = e.Clone()
		}
		return Value{kind: KindList, l: l}
	default:
		return v
	}
}

// MarshalJSON encodes the value as plain JSON. Times encode as RFC 3339
// strings so the wire shape stays schema-free.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindTime:
		return json.Marshal(v.t.Format(time.RFC3339))
	case KindMap:
		return json.Marshal(v.m)
	case KindList:
		return json.Marshal(v.l)
	default:
		return nil, fmt.Errorf("marshal value: unknown kind %d", v.kind)
	}
}

// UnmarshalJSON decodes arbitrary JSON into the union. Strings stay
// strings even when date-shaped; date interpretation is the consumer's
// call via AsTime.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = fromAny(raw)
	return nil
}

func fromAny(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case string:
		return String(x)
	case float64:
		return Number(x)
	case bool:
		return Bool(x)
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			m[k] = fromAny(e)
		}
		return Map(m)
	case []any:
		l := make([]Value, len(x))
		for i, e := range x {
			l[i] = fromAny(e)
		}
		return List(l)
	default:
		return Null()
	}
}

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, e := range v.m {
			oe, ok := o.m[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
		return true
	case KindList:
		if len(v.l) != len(o.l) {
			return false
		}
		for i, e := range v.l {
			if !e.Equal(o.l[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
