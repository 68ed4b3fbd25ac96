// Package config holds per-entry-point options of a language.
// Options may be loaded from TOML:
//
//	name = "calc"
//	start = "program"
//	whitespace = ["space", "comment"]
//	lrk-level = 3
//	max-stack-depth = 1000
//	case-folding = "simple"
//	reuse = true
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ava12/lrx"
)

// Error codes used by config package:
const (
	// "cannot decode configuration %s: %s"
	DecodeError = lrx.ConfigErrors + iota
	// "unknown configuration keys in %s: %s"
	UnknownKeyError
	// "invalid %s value: %v"
	InvalidValueError
)

// CaseFolding tells how terminal expressions treat letter case.
type CaseFolding string

const (
	NoFolding     CaseFolding = "none"
	SimpleFolding CaseFolding = "simple"
)

const (
	DefaultLrkLevel      = 5
	DefaultMaxStackDepth = 10000
	DefaultMaxRecoveries = 10
)

// EntryPoint describes how a language is parsed from a particular start symbol.
type EntryPoint struct {
	Name string `toml:"name"`
	// Start is the start nonterminal name, the first defined nonterminal if empty.
	Start string `toml:"start"`
	// Eof names a terminal playing the role of end of input, empty for real end of input.
	Eof string `toml:"eof"`
	// Whitespace lists terminals skipped by scanners.
	Whitespace []string `toml:"whitespace"`
	// LrkLevel is the maximum number of lookahead tokens.
	LrkLevel int `toml:"lrk-level"`
	// MaxStackDepth limits the parser state stack.
	MaxStackDepth int         `toml:"max-stack-depth"`
	CaseFolding   CaseFolding `toml:"case-folding"`
	// Reuse makes parsers borrow their stacks from a pool.
	Reuse bool `toml:"reuse"`
	// MaxRecoveries limits whole-parse restarts after syntax errors.
	MaxRecoveries int `toml:"max-recoveries"`
}

func Default() EntryPoint {
	return EntryPoint{
		LrkLevel:      DefaultLrkLevel,
		MaxStackDepth: DefaultMaxStackDepth,
		CaseFolding:   NoFolding,
		MaxRecoveries: DefaultMaxRecoveries,
	}
}

// Decode reads options from TOML text on top of base options.
func Decode(text string, base EntryPoint) (EntryPoint, error) {
	meta, e := toml.Decode(text, &base)
	return finish(base, meta, e, "text")
}

// Load reads options from TOML file on top of base options.
func Load(path string, base EntryPoint) (EntryPoint, error) {
	meta, e := toml.DecodeFile(path, &base)
	return finish(base, meta, e, path)
}

func finish(ep EntryPoint, meta toml.MetaData, e error, name string) (EntryPoint, error) {
	if e != nil {
		return ep, lrx.FormatError(DecodeError, "cannot decode configuration %s: %s", name, e)
	}

	if keys := meta.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return ep, lrx.FormatError(UnknownKeyError, "unknown configuration keys in %s: %s", name, strings.Join(names, ", "))
	}

	return ep, ep.Validate()
}

func (ep EntryPoint) Validate() error {
	switch {
	case ep.LrkLevel < 1:
		return invalidValue("lrk-level", ep.LrkLevel)
	case ep.MaxStackDepth < 1:
		return invalidValue("max-stack-depth", ep.MaxStackDepth)
	case ep.MaxRecoveries < 0:
		return invalidValue("max-recoveries", ep.MaxRecoveries)
	case ep.CaseFolding != NoFolding && ep.CaseFolding != SimpleFolding && ep.CaseFolding != "":
		return invalidValue("case-folding", ep.CaseFolding)
	}
	return nil
}

func invalidValue(name string, value any) *lrx.Error {
	return lrx.FormatError(InvalidValueError, "invalid %s value: %v", name, value)
}

func (ep EntryPoint) String() string {
	return fmt.Sprintf("%s(start=%s, lrk=%d)", ep.Name, ep.Start, ep.LrkLevel)
}
