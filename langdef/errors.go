package langdef

import (
	"strings"

	"github.com/ava12/lrx"
)

// Error codes used by langdef package:
const (
	// "undefined nonterminals: %s"
	UndefinedNonterminalError = lrx.GrammarErrors + iota
	// "terminal %s accepts empty text"
	EmptyTerminalError
	// "%s terminal %s cannot be used in rule %s"
	ForbiddenTerminalError
	// "action %s of rule %s takes %d values, rule produces %d"
	ArityError
	// "rules of %s produce different value kinds: %s and %s"
	KindError
	// "duplicate rule %s"
	DuplicateRuleError
	// "terminal %s already defined"
	DuplicateTerminalError
	// "incorrect expression of terminal %s: %s"
	RegexError
	// "undefined start symbol %s"
	UndefinedStartError
	// "incorrect rule %s: %s"
	RuleSyntaxError
	// "unknown %s terminal %s"
	UnknownTerminalError
	// "name %s is used both for a terminal and a nonterminal"
	NameConflictError
	// "incorrect terminal name %q"
	TerminalNameError
	// "incorrect numeric base %d of terminal %s"
	BaseError
)

func undefinedNonterminalError(names []string) *lrx.Error {
	return lrx.FormatError(UndefinedNonterminalError, "undefined nonterminals: %s", strings.Join(names, ", "))
}

func emptyTerminalError(name string) *lrx.Error {
	return lrx.FormatError(EmptyTerminalError, "terminal %s accepts empty text", name)
}

func forbiddenTerminalError(role, name, rule string) *lrx.Error {
	return lrx.FormatError(ForbiddenTerminalError, "%s terminal %s cannot be used in rule %s", role, name, rule)
}

func arityError(action, rule string, arity, values int) *lrx.Error {
	return lrx.FormatError(ArityError, "action %s of rule %s takes %d values, rule produces %d", action, rule, arity, values)
}

func passThroughError(rule string, values int) *lrx.Error {
	return lrx.FormatError(ArityError, "rule %s has no action but produces %d values", rule, values)
}

func kindError(name string, a, b lrx.Kind) *lrx.Error {
	return lrx.FormatError(KindError, "rules of %s produce different value kinds: %s and %s", name, a, b)
}

func duplicateRuleError(rule string) *lrx.Error {
	return lrx.FormatError(DuplicateRuleError, "duplicate rule %s", rule)
}

func duplicateTerminalError(name string) *lrx.Error {
	return lrx.FormatError(DuplicateTerminalError, "terminal %s already defined", name)
}

func regexError(name string, e error) *lrx.Error {
	return lrx.FormatError(RegexError, "incorrect expression of terminal %s: %s", name, e.Error())
}

func undefinedStartError(name string) *lrx.Error {
	return lrx.FormatError(UndefinedStartError, "undefined start symbol %s", name)
}

func ruleSyntaxError(lhs, rhs, msg string) *lrx.Error {
	return lrx.FormatError(RuleSyntaxError, "incorrect rule %s = %s: %s", lhs, rhs, msg)
}

func unknownTerminalError(role, name string) *lrx.Error {
	return lrx.FormatError(UnknownTerminalError, "unknown %s terminal %s", role, name)
}

func nameConflictError(name string) *lrx.Error {
	return lrx.FormatError(NameConflictError, "name %s is used both for a terminal and a nonterminal", name)
}

func terminalNameError(name string) *lrx.Error {
	return lrx.FormatError(TerminalNameError, "incorrect terminal name %q", name)
}

func baseError(name string, base int) *lrx.Error {
	return lrx.FormatError(BaseError, "incorrect numeric base %d of terminal %s", base, name)
}
