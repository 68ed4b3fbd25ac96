package langdef

import (
	"github.com/ava12/lrx"
	"github.com/ava12/lrx/grammar"
	"github.com/ava12/lrx/source"
)

// ActionContext is passed to semantic actions.
type ActionContext interface {
	// Pos returns the position of the first token of the reduced rule
	// or of the terminal being converted.
	Pos() source.Pos
	// Env returns the environment passed to the parser.
	Env() any
}

// RuleFunc computes rule value from non-void values of rhs symbols.
// args slice is reused by the parser and must not be retained.
type RuleFunc func(c ActionContext, args []lrx.Value) (lrx.Value, error)

// TermFunc computes terminal value from its text.
type TermFunc func(c ActionContext, text string) (lrx.Value, error)

// Action is a rule action. Arity is the number of non-void rhs values it takes,
// Result is the kind of values it returns.
type Action struct {
	Name   string
	Arity  int
	Result lrx.Kind
	Fn     RuleFunc
}

func NewAction(name string, arity int, result lrx.Kind, fn RuleFunc) *Action {
	return &Action{name, arity, result, fn}
}

// TermAction converts terminal text to a value of Result kind.
type TermAction struct {
	Name   string
	Result lrx.Kind
	Fn     TermFunc
}

func NewTermAction(name string, result lrx.Kind, fn TermFunc) *TermAction {
	return &TermAction{name, result, fn}
}

// BuiltinFunc returns implementation of a generated action or nil.
//
// Lists are []lrx.Value objects, optional values are *lrx.Value objects (nil if absent),
// tuples are []lrx.Value objects.
func BuiltinFunc(b grammar.Builtin) RuleFunc {
	switch b {
	case grammar.ListEmpty:
		return listEmpty
	case grammar.ListOne:
		return listOne
	case grammar.ListAppend:
		return listAppend
	case grammar.OptionalNone:
		return optionalNone
	case grammar.OptionalSome:
		return optionalSome
	case grammar.Tuple:
		return tuple
	}
	return nil
}

func listEmpty(ActionContext, []lrx.Value) (lrx.Value, error) {
	return lrx.Object([]lrx.Value{}), nil
}

func listOne(_ ActionContext, args []lrx.Value) (lrx.Value, error) {
	return lrx.Object([]lrx.Value{args[0]}), nil
}

func listAppend(_ ActionContext, args []lrx.Value) (lrx.Value, error) {
	list, _ := args[0].Obj.([]lrx.Value)
	return lrx.Object(append(list, args[1])), nil
}

func optionalNone(ActionContext, []lrx.Value) (lrx.Value, error) {
	return lrx.Object((*lrx.Value)(nil)), nil
}

func optionalSome(_ ActionContext, args []lrx.Value) (lrx.Value, error) {
	v := args[0]
	return lrx.Object(&v), nil
}

func tuple(_ ActionContext, args []lrx.Value) (lrx.Value, error) {
	return lrx.Object(append([]lrx.Value(nil), args...)), nil
}

// List extracts a list produced by X* or X+ value.
func List(v lrx.Value) []lrx.Value {
	list, _ := v.Obj.([]lrx.Value)
	return list
}

// Optional extracts X? value, returns false if it is absent.
func Optional(v lrx.Value) (lrx.Value, bool) {
	p, _ := v.Obj.(*lrx.Value)
	if p == nil {
		return lrx.Void(), false
	}
	return *p, true
}
