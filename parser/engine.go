package parser

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/multierr"

	"github.com/ava12/lrx"
	"github.com/ava12/lrx/grammar"
	"github.com/ava12/lrx/scanner"
	"github.com/ava12/lrx/source"
)

// ParseContext is the state of a single parse.
// It is passed to semantic actions as langdef.ActionContext.
type ParseContext struct {
	parser     *Parser
	tables     *grammar.Tables
	grammar    *grammar.Grammar
	hooks      *Hooks
	dispatcher *scanner.Dispatcher
	*stacks

	// token is the current lookahead token, nil if not scanned yet.
	token *scanner.Token
	pos   source.Pos

	// errToken is the token that caused the last syntax error.
	errToken   *scanner.Token
	expected   string
	recoveries int
	errs       error
}

func newParseContext(p *Parser, st *stacks, in source.Input, hs *Hooks) *ParseContext {
	pc := &ParseContext{
		parser:  p,
		tables:  p.tables,
		grammar: p.tables.Grammar,
		hooks:   hs,
		stacks:  st,
	}
	pc.dispatcher = scanner.NewDispatcher(p.tables, in, pc.whitespace)
	pc.reset()
	return pc
}

// Pos returns the position of the first token of the rule being reduced
// or of the token being converted.
func (pc *ParseContext) Pos() source.Pos {
	return pc.pos
}

func (pc *ParseContext) Env() any {
	return pc.hooks.Env
}

func (pc *ParseContext) reset() {
	pc.stacks.reset()
	pc.token = nil
}

func (pc *ParseContext) trace(phase Phase, state, rule int) {
	if pc.hooks.Trace != nil {
		pc.hooks.Trace(Event{Phase: phase, State: state, Token: pc.token, Rule: rule})
	}
}

func (pc *ParseContext) top() int {
	return pc.states[len(pc.states)-1]
}

func (pc *ParseContext) parse(ctx context.Context) (lrx.Value, error) {
	for {
		result, e := pc.run(ctx)
		if e == nil {
			return result, pc.errs
		}

		var se *lrx.Error
		if !errors.As(e, &se) || se.Class() != lrx.SyntaxErrors && se.Code != scanner.WrongCharError {
			return lrx.Void(), multierr.Append(pc.errs, e)
		}
		if e = pc.recover(se); e != nil {
			return lrx.Void(), multierr.Append(pc.errs, e)
		}
	}
}

// recover calls the recovery hook and prepares a restart, non-nil result aborts parsing.
func (pc *ParseContext) recover(se *lrx.Error) error {
	tok := pc.errToken
	if pc.hooks.Recover == nil || tok.Type() == pc.grammar.End || tok.Type() == grammar.EofId {
		return se
	}
	pc.errs = multierr.Append(pc.errs, se)
	if pc.recoveries >= pc.parser.config.MaxRecoveries {
		return recoveryLimitError(pc.recoveries)
	}

	pc.recoveries++
	pc.dispatcher.Reset(tok.End())
	e := pc.hooks.Recover(&Recovery{
		Err:      se,
		Token:    tok,
		Expected: pc.expected,
		Input:    pc.dispatcher.Input(),
	})
	if e != nil {
		return e
	}

	tracer().Infof("restarting after %s", se)
	pc.reset()
	return nil
}

// run executes the machine from the start state until acceptance or error.
func (pc *ParseContext) run(ctx context.Context) (lrx.Value, error) {
	g := pc.grammar
	for {
		state := pc.top()
		if r := pc.tables.States[state].DefaultReduce; r != grammar.NoRule {
			if e := pc.reduce(r, len(g.Rules[r].Rhs), len(g.Rules[r].Rhs)); e != nil {
				return lrx.Void(), e
			}
			continue
		}

		if pc.token == nil {
			if e := ctx.Err(); e != nil {
				return lrx.Void(), e
			}
			t, e := pc.dispatcher.Next(pc.tables.States[state].Legal)
			if e != nil {
				return lrx.Void(), e
			}
			pc.token = t
			pc.trace(Scan, state, grammar.NoRule)
		}

		pc.trace(Dispatch, state, grammar.NoRule)
		m, found := pc.tables.Move(state, pc.token.Type())
		if found && m.Op == grammar.LookAhead {
			var e error
			m, e = pc.lookAhead(m.Arg)
			if e != nil {
				return lrx.Void(), e
			}
		}
		if !found {
			pc.trace(SyntaxError, state, grammar.NoRule)
			return lrx.Void(), pc.syntaxError(pc.token, pc.tables.Expected(state))
		}

		var e error
		switch m.Op {
		case grammar.Shift:
			e = pc.shift(m.Arg)
		case grammar.ShiftReduce:
			if e = pc.shift(-1); e == nil {
				n := len(g.Rules[m.Arg].Rhs)
				e = pc.reduce(m.Arg, n, n-1)
			}
		case grammar.Reduce:
			n := len(g.Rules[m.Arg].Rhs)
			e = pc.reduce(m.Arg, n, n)
		case grammar.Accept:
			return pc.accept(state), nil
		}
		if e != nil {
			return lrx.Void(), e
		}
	}
}

// lookAhead buffers tokens following the current one until a lookahead state yields a move.
// The input is returned to the end of the current token afterwards.
func (pc *ParseContext) lookAhead(la int) (grammar.Move, error) {
	defer func() {
		pc.dispatcher.Reset(pc.token.End())
		pc.buffer.Clear()
	}()

	for {
		ls := &pc.tables.LaStates[la]
		for pc.buffer.Len() < ls.Depth-1 {
			pc.buffer.Append(pc.dispatcher.Skim(ls.Legal))
			tracer().Debugf("lookahead %d: buffered %s", la, pc.buffer.At(pc.buffer.Len()-1).TypeName())
			pc.trace(LaScan, la, grammar.NoRule)
		}

		tok := pc.buffer.At(ls.Depth - 2)
		pc.trace(LaDispatch, la, grammar.NoRule)
		m, found := pc.tables.LaMove(la, tok.Type())
		if !found {
			pc.trace(SyntaxError, la, grammar.NoRule)
			return m, pc.syntaxError(tok, pc.tables.LaExpected(la))
		}
		if m.Op != grammar.LookAhead {
			return m, nil
		}
		la = m.Arg
	}
}

func (pc *ParseContext) syntaxError(t *scanner.Token, expected string) *lrx.Error {
	if t.Type() == grammar.ErrorId {
		t = pc.rescan(t)
	}
	pc.errToken, pc.expected = t, expected
	switch t.Type() {
	case grammar.ErrorId:
		return scanner.WrongChar(t)
	case grammar.EofId:
		return unexpectedEofError(t, expected)
	default:
		return unexpectedTokenError(pc.grammar, t, expected)
	}
}

// rescan tries to recognize a token not legal in current state.
func (pc *ParseContext) rescan(t *scanner.Token) *scanner.Token {
	if pc.parser.fallback == nil {
		return t
	}

	in := pc.dispatcher.Input()
	in.Reset(t.Start())
	x := scanner.Scan(pc.grammar, pc.parser.fallback, in)
	if x.Type() < grammar.FirstTerminal || pc.grammar.IsWhitespace(x.Type()) {
		in.Reset(t.End())
		return t
	}
	return x
}

func (pc *ParseContext) pushState(state int) error {
	if len(pc.states) >= pc.parser.config.MaxStackDepth {
		return stackOverflowError(pc.dispatcherPos(), pc.parser.config.MaxStackDepth)
	}
	pc.states = append(pc.states, state)
	return nil
}

// shift consumes current token, state < 0 pushes no state.
func (pc *ParseContext) shift(state int) error {
	tok := pc.token
	v, e := pc.tokenValue(tok)
	if e != nil {
		return e
	}

	if state >= 0 {
		if e = pc.pushState(state); e != nil {
			return e
		}
	}
	pc.values.Push(v, tok.Pos())
	pc.trace(Shift, pc.top(), grammar.NoRule)
	pc.token = nil
	return nil
}

func (pc *ParseContext) tokenValue(tok *scanner.Token) (lrx.Value, error) {
	sym := &pc.grammar.Symbols[tok.Type()]
	if sym.Action != grammar.NoAction {
		return pc.callTermAction(sym, tok)
	}

	switch sym.Kind {
	case lrx.KindInt:
		i, e := strconv.ParseInt(tok.Text(), sym.Base, 64)
		if e != nil {
			return lrx.Void(), actionError(tok, sym.Name, e)
		}
		return lrx.Int(i), nil
	case lrx.KindString:
		return lrx.String(tok.Text()), nil
	default:
		return lrx.Void(), nil
	}
}

func (pc *ParseContext) callTermAction(sym *grammar.Symbol, tok *scanner.Token) (lrx.Value, error) {
	name := pc.grammar.Actions[sym.Action].Name
	pc.pos = tok.Pos()
	v, e := pc.parser.termFuncs[sym.Action](pc, tok.Text())
	if e != nil {
		return v, wrapActionError(tok, name, e)
	}
	if v.Kind != sym.Kind {
		return v, valueKindError(tok, name, v.Kind, sym.Kind)
	}
	return v, nil
}

// whitespace converts skipped whitespace tokens having actions to text spliced into the input.
func (pc *ParseContext) whitespace(tok *scanner.Token) (*source.Source, error) {
	sym := &pc.grammar.Symbols[tok.Type()]
	if sym.Action == grammar.NoAction {
		return nil, nil
	}

	v, e := pc.callTermAction(sym, tok)
	if e != nil {
		return nil, e
	}
	if src, ok := v.Obj.(*source.Source); ok {
		return src, nil
	}
	if v.Kind == lrx.KindString && v.Str != "" {
		return source.New(tok.TypeName(), []byte(v.Str)), nil
	}
	return nil, nil
}

// reduce pops values slots and states states, calls rule action and performs goto.
// Combined moves keep one state less than rule length on the stack.
func (pc *ParseContext) reduce(rule, values, states int) error {
	g := pc.grammar
	for {
		r := &g.Rules[rule]
		def := pc.dispatcherPos()
		pc.args, pc.pos = pc.values.Pop(values, pc.args[:0], def)
		pc.states = pc.states[:len(pc.states)-states]
		pc.trace(Reduce, pc.top(), rule)

		v, e := pc.ruleValue(r)
		clear(pc.args)
		if e != nil {
			return e
		}

		m, found := pc.tables.Goto(pc.top(), r.Lhs)
		if !found {
			return brokenTablesError(g.Symbols[r.Lhs].Name, pc.top())
		}
		pc.values.Push(v, pc.pos)
		pc.trace(Goto, pc.top(), rule)
		if m.Op == grammar.Goto {
			return pc.pushState(m.Arg)
		}

		rule = m.Arg
		values = len(g.Rules[rule].Rhs)
		states = values - 1
	}
}

// dispatcherPos is the position of an empty rule: the current token or the input position.
func (pc *ParseContext) dispatcherPos() source.Pos {
	if pc.token != nil {
		return pc.token.Pos()
	}
	return pc.dispatcher.Input().Pos()
}

func (pc *ParseContext) ruleValue(r *grammar.Rule) (lrx.Value, error) {
	if r.Action == grammar.NoAction {
		if r.Kind == lrx.KindVoid || len(pc.args) == 0 {
			return lrx.Void(), nil
		}
		return pc.args[0], nil
	}

	name := pc.grammar.Actions[r.Action].Name
	v, e := pc.parser.ruleFuncs[r.Action](pc, pc.args)
	if e != nil {
		return v, wrapActionError(pc.pos, name, e)
	}
	if v.Kind != r.Kind {
		return v, valueKindError(pc.pos, name, v.Kind, r.Kind)
	}
	return v, nil
}

// wrapActionError keeps lrx errors returned by actions intact.
func wrapActionError(pos lrx.SourcePos, name string, e error) error {
	var le *lrx.Error
	if errors.As(e, &le) {
		return e
	}
	return actionError(pos, name, e)
}

// accept leaves the end token unconsumed and commits consumed input.
func (pc *ParseContext) accept(state int) lrx.Value {
	pc.trace(Accept, state, grammar.NoRule)
	pc.dispatcher.Reset(pc.token.Start())
	if c, ok := pc.dispatcher.Input().(interface{ Commit() }); ok {
		c.Commit()
	}
	return pc.values.Top()
}
