// Package parser executes parsing tables built by the automaton package.
//
// A parser is a small table-driven machine: it scans a token with the scanner
// of the current state, looks up the move, then shifts, reduces or buffers
// lookahead tokens until the accepting move is found.
// Values produced by terminals and rule actions are kept on a stack
// partitioned by value kind.
//
// A Parser may be used concurrently, every Parse call owns its stacks.
// In reuse mode the stacks are borrowed from a pool and returned afterwards.
package parser

import (
	"context"
	"strconv"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"go.uber.org/multierr"

	"github.com/ava12/lrx"
	"github.com/ava12/lrx/automaton"
	"github.com/ava12/lrx/config"
	"github.com/ava12/lrx/grammar"
	"github.com/ava12/lrx/langdef"
	"github.com/ava12/lrx/scanner"
	"github.com/ava12/lrx/source"
)

func tracer() tracing.Trace {
	return gtrace.SyntaxTracer
}

// Phase is a step of the parsing machine reported to TraceFunc.
type Phase uint8

const (
	Scan Phase = iota
	Dispatch
	Shift
	Reduce
	Goto
	LaScan
	LaDispatch
	SyntaxError
	Accept
)

var phaseNames = [...]string{"scan", "dispatch", "shift", "reduce", "goto", "la-scan", "la-dispatch", "syntax-error", "accept"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "phase(" + strconv.Itoa(int(p)) + ")"
}

// Event describes a step of the parsing machine.
// State is the top LR state or the lookahead state for LaScan and LaDispatch.
// Rule is the reduced rule for Reduce and Goto, grammar.NoRule otherwise.
type Event struct {
	Phase Phase
	State int
	Token *scanner.Token
	Rule  int
}

// TraceFunc is called on every step of the parsing machine.
type TraceFunc func(e Event)

// Recovery holds the state of a syntax error passed to RecoverFunc.
// Input is positioned right after the offending token.
type Recovery struct {
	Err      *lrx.Error
	Token    *scanner.Token
	Expected string
	Input    source.Input
}

// RecoverFunc is called on a syntax error.
// Returning nil restarts parsing from the start state at current input position,
// the hook may reposition Input before that. Returning an error aborts parsing.
type RecoverFunc func(r *Recovery) error

// Hooks are optional parse callbacks.
// Env is returned by ActionContext.Env to semantic actions.
type Hooks struct {
	Recover RecoverFunc
	Trace   TraceFunc
	Env     any
}

// Bindings supply action implementations by name for tables loaded without a Language.
type Bindings struct {
	Rules map[string]langdef.RuleFunc
	Terms map[string]langdef.TermFunc
}

type Parser struct {
	tables    *grammar.Tables
	ruleFuncs []langdef.RuleFunc
	termFuncs []langdef.TermFunc
	config    config.EntryPoint
	pool      *stackPool
	// fallback recognizes tokens not legal in current state for error messages, may be nil.
	fallback *grammar.Scanner
}

// New builds parsing tables and scanners for a language.
func New(lang *langdef.Language) (*Parser, error) {
	t, e := automaton.Build(lang.Grammar, lang.Config.LrkLevel)
	if e != nil {
		return nil, e
	}

	e = scanner.Build(t)
	if e != nil {
		return nil, e
	}

	return newParser(t, lang.RuleFuncs, lang.TermFuncs, lang.Config), nil
}

// NewFromTables creates a parser for prebuilt tables, e.g. decoded from JSON.
// Generated actions are bound automatically, other actions are looked up in b by name.
// Scanners are built if tables have none.
func NewFromTables(t *grammar.Tables, b Bindings, ep config.EntryPoint) (*Parser, error) {
	g := t.Grammar
	if len(t.Scanners) == 0 {
		if e := scanner.Build(t); e != nil {
			return nil, e
		}
	}

	isTerm := make([]bool, len(g.Actions))
	for id, s := range g.Symbols {
		if s.Action != grammar.NoAction && g.IsTerminal(id) {
			isTerm[s.Action] = true
		}
	}

	var errs error
	rfs := make([]langdef.RuleFunc, len(g.Actions))
	tfs := make([]langdef.TermFunc, len(g.Actions))
	for i, a := range g.Actions {
		switch {
		case a.Builtin != grammar.NoBuiltin:
			rfs[i] = langdef.BuiltinFunc(a.Builtin)
		case isTerm[i]:
			tfs[i] = b.Terms[a.Name]
		default:
			rfs[i] = b.Rules[a.Name]
		}
		if rfs[i] == nil && tfs[i] == nil {
			errs = multierr.Append(errs, unknownActionError(a.Name))
		}
	}
	if errs != nil {
		return nil, errs
	}

	return newParser(t, rfs, tfs, ep), nil
}

func newParser(t *grammar.Tables, rfs []langdef.RuleFunc, tfs []langdef.TermFunc, ep config.EntryPoint) *Parser {
	if ep.MaxStackDepth <= 0 {
		ep.MaxStackDepth = config.DefaultMaxStackDepth
	}
	p := &Parser{tables: t, ruleFuncs: rfs, termFuncs: tfs, config: ep}
	if sc, e := scanner.BuildAll(t.Grammar); e == nil {
		p.fallback = sc
	} else {
		tracer().Debugf("parser %s: no fallback scanner: %s", t.Grammar.Name, e)
	}
	if ep.Reuse {
		p.pool = newStackPool()
	}
	tracer().Debugf("parser %s: %d states, %d lookahead states", t.Grammar.Name, len(t.States), len(t.LaStates))
	return p
}

func (p *Parser) Tables() *grammar.Tables {
	return p.tables
}

// Parse reads sources from q and returns the value of the start symbol.
// If syntax errors were recovered the value is returned together with the combined errors.
func (p *Parser) Parse(ctx context.Context, q *source.Queue, hs *Hooks) (lrx.Value, error) {
	return p.ParseInput(ctx, source.NewReader(q), hs)
}

// ParseInput parses from an arbitrary input.
// Whitespace actions producing text need an input implementing scanner.Splicer.
func (p *Parser) ParseInput(ctx context.Context, in source.Input, hs *Hooks) (lrx.Value, error) {
	if hs == nil {
		hs = &Hooks{}
	}

	st := p.borrow(ctx)
	defer p.release(ctx, st)

	pc := newParseContext(p, st, in, hs)
	return pc.parse(ctx)
}

// ParseString parses a single unnamed text.
func (p *Parser) ParseString(ctx context.Context, text string, hs *Hooks) (lrx.Value, error) {
	return p.ParseInput(ctx, source.FromString(text), hs)
}

func (p *Parser) borrow(ctx context.Context) *stacks {
	if p.pool == nil {
		return newStacks()
	}
	return p.pool.borrow(ctx)
}

func (p *Parser) release(ctx context.Context, st *stacks) {
	if p.pool != nil {
		p.pool.release(ctx, st)
	}
}
