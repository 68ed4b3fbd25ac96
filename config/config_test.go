package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/ava12/lrx/internal/test"
)

func TestDefault(t *testing.T) {
	ep := Default()
	ExpectInt(t, DefaultLrkLevel, ep.LrkLevel)
	ExpectInt(t, DefaultMaxStackDepth, ep.MaxStackDepth)
	ExpectNoError(t, ep.Validate())
}

func TestDecode(t *testing.T) {
	ep, e := Decode(`
name = "calc"
start = "program"
whitespace = ["space", "comment"]
lrk-level = 3
case-folding = "simple"
reuse = true
`, Default())
	ExpectNoError(t, e)
	ExpectString(t, "program", ep.Start)
	ExpectInt(t, 2, len(ep.Whitespace))
	ExpectInt(t, 3, ep.LrkLevel)
	ExpectInt(t, DefaultMaxStackDepth, ep.MaxStackDepth)
	ExpectBool(t, true, ep.Reuse)
	Expect(t, ep.CaseFolding == SimpleFolding, SimpleFolding, ep.CaseFolding)
}

func TestDecodeErrors(t *testing.T) {
	samples := map[string]int{
		`start = `:              DecodeError,
		`stat = "program"`:      UnknownKeyError,
		`lrk-level = 0`:         InvalidValueError,
		`case-folding = "full"`: InvalidValueError,
		`max-stack-depth = -1`:  InvalidValueError,
	}
	for text, code := range samples {
		_, e := Decode(text, Default())
		ExpectErrorCode(t, code, e)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entry.toml")
	ExpectNoError(t, os.WriteFile(path, []byte("start = \"s\"\neof = \"end\"\n"), 0o644))
	ep, e := Load(path, Default())
	ExpectNoError(t, e)
	ExpectString(t, "s", ep.Start)
	ExpectString(t, "end", ep.Eof)

	_, e = Load(filepath.Join(t.TempDir(), "missing.toml"), Default())
	ExpectErrorCode(t, DecodeError, e)
}
