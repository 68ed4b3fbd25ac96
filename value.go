package lrx

import (
	"fmt"
	"strconv"
)

// Kind tells which partition of the runtime value stack a value occupies.
type Kind uint8

const (
	// KindVoid values take a type tag slot but no value slot.
	KindVoid Kind = iota
	KindInt
	KindFloat
	KindString
	KindObject
)

var kindNames = [...]string{"void", "int", "float", "string", "object"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// MarshalText allows kinds to appear by name in JSON tables.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, n := range kindNames {
		if n == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown value kind %q", text)
}

// Value is a semantic value produced by a terminal or by a rule action.
// Only the field matching Kind is meaningful.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
	Obj   any
}

func Void() Value {
	return Value{}
}

func Int(i int64) Value {
	return Value{Kind: KindInt, Int: i}
}

func Float(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}

func Object(o any) Value {
	return Value{Kind: KindObject, Obj: o}
}

// IsVoid returns true for values that occupy no value slot.
func (v Value) IsVoid() bool {
	return v.Kind == KindVoid
}

// Interface returns the value as an untyped Go value, nil for void.
func (v Value) Interface() any {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindObject:
		return v.Obj
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindVoid:
		return "void"
	case KindString:
		return strconv.Quote(v.Str)
	default:
		return fmt.Sprint(v.Interface())
	}
}
