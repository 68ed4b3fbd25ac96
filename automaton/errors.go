package automaton

import "github.com/ava12/lrx"

const (
	// AmbiguousGrammarError is reported when two actions stay viable on identical parser configurations
	// or when two terminals of the same scanner accept the same text with equal priority.
	AmbiguousGrammarError = lrx.AutomatonErrors + iota
	// ConflictUnresolvedError is reported when a conflict survives the allowed lookahead depth.
	ConflictUnresolvedError
	// TooManyStatesError is reported when the automaton grows past MaxStates.
	TooManyStatesError
)

func conflictError(depth int, context string) *lrx.Error {
	if depth <= 1 {
		return lrx.FormatError(ConflictUnresolvedError, "LALR(1) conflict %s", context)
	}
	return lrx.FormatError(ConflictUnresolvedError, "conflict not resolved with %d tokens of lookahead %s", depth, context)
}

func ambiguityError(context string) *lrx.Error {
	return lrx.FormatError(AmbiguousGrammarError, "grammar is ambiguous: %s", context)
}

func tooManyStatesError(n int) *lrx.Error {
	return lrx.FormatError(TooManyStatesError, "automaton exceeds %d states", n)
}
