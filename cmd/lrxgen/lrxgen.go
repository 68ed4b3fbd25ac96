/*
lrxgen is a console utility building parsing tables for a bundled grammar.
Usage is

	lrxgen [-g <name>] [-c <file>] [-j | -d] [-o <file>]

-g <name> selects a bundled grammar, default is calc;

-c <file> loads entry point options from a TOML file on top of grammar defaults;

-j writes tables as JSON, the input of a code emission backend;

-d writes human-readable symbol, rule and state listings;

-o <file> defines output file name, default is standard output.

Without -j and -d the grammar is only checked and a short summary is written.
All grammar errors are reported, one per line.
*/
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/ava12/lrx/automaton"
	"github.com/ava12/lrx/config"
	"github.com/ava12/lrx/examples/calc/lib"
	"github.com/ava12/lrx/grammar"
	"github.com/ava12/lrx/langdef"
	"github.com/ava12/lrx/scanner"
)

type bundled struct {
	define     func() *langdef.Builder
	entryPoint func() config.EntryPoint
}

var grammars = map[string]bundled{
	"calc": {lib.Define, lib.EntryPoint},
}

var (
	generateJson, dump                   bool
	grammarName, configName, outFileName string
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage is  lrxgen [-g <name>] [-c <file>] [-j | -d] [-o <file>]")
		flag.PrintDefaults()
	}

	flag.StringVar(&grammarName, "g", "calc", "bundled grammar name: "+strings.Join(grammarNames(), ", "))
	flag.StringVar(&configName, "c", "", "TOML file with entry point options")
	flag.BoolVar(&generateJson, "j", false, "output tables as JSON")
	flag.BoolVar(&dump, "d", false, "output diagnostic listings")
	flag.StringVar(&outFileName, "o", "", "output file name, default is standard output")
	flag.Parse()

	b, found := grammars[grammarName]
	if !found || (generateJson && dump) || flag.NArg() != 0 {
		flag.Usage()
		os.Exit(2)
	}

	t, e := build(b)
	if e != nil {
		for _, x := range multierr.Errors(e) {
			fmt.Fprintln(os.Stderr, x.Error())
		}
		os.Exit(3)
	}

	e = write(t)
	if e != nil {
		fmt.Fprintln(os.Stderr, e.Error())
		os.Exit(3)
	}
}

func grammarNames() []string {
	res := make([]string, 0, len(grammars))
	for name := range grammars {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

func build(b bundled) (*grammar.Tables, error) {
	ep := b.entryPoint()
	var e error
	if configName != "" {
		ep, e = config.Load(configName, ep)
		if e != nil {
			return nil, e
		}
	}

	lang, e := b.define().Build(ep)
	if e != nil {
		return nil, e
	}

	t, e := automaton.Build(lang.Grammar, ep.LrkLevel)
	if e == nil {
		e = scanner.Build(t)
	}
	return t, e
}

func write(t *grammar.Tables) (e error) {
	var w io.Writer = os.Stdout
	if outFileName != "" {
		f, ce := os.Create(outFileName)
		if ce != nil {
			return ce
		}
		defer func() {
			e = multierr.Append(e, f.Close())
		}()
		w = f
	}

	switch {
	case generateJson:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case dump:
		t.Dump(w)
		return nil
	default:
		_, e = fmt.Fprintf(w, "%s: %d symbols, %d rules, %d states, %d lookahead states, %d legal sets\n",
			t.Grammar.Name, len(t.Grammar.Symbols), len(t.Grammar.Rules), len(t.States), len(t.LaStates), len(t.LegalSets))
		return e
	}
}
