package test

import (
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/ava12/lrx"
)

func fatalf(t *testing.T, message string, params ...any) {
	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}
	_, thisFile, _, _ := runtime.Caller(0)
	file := thisFile
	line := 0
	for i := 2; file == thisFile; i++ {
		_, file, line, _ = runtime.Caller(i)
	}
	t.Fatalf("%s at %s:%d", message, file, line)
}

func Assert(t *testing.T, cond bool, message string, params ...any) {
	if !cond {
		fatalf(t, message, params...)
	}
}

func Expect(t *testing.T, cond bool, expected, got any) {
	if !cond {
		fatalf(t, "expecting %v, got %v", expected, got)
	}
}

func ExpectBool(t *testing.T, expected, got bool) {
	Expect(t, expected == got, expected, got)
}

func ExpectInt(t *testing.T, expected, got int) {
	Expect(t, expected == got, expected, got)
}

func ExpectString(t *testing.T, expected, got string) {
	Expect(t, expected == got, expected, got)
}

func ExpectNoError(t *testing.T, e error) {
	if e != nil {
		fatalf(t, "unexpected error: %s", e)
	}
}

// ExpectErrorCode accepts both single *lrx.Error and error lists
// (combined with multierr) containing an error with expected code.
func ExpectErrorCode(t *testing.T, expected int, e error) {
	if HasErrorCode(e, expected) {
		return
	}

	fatalf(t, "expecting error code %d, got %v", expected, e)
}

func HasErrorCode(e error, code int) bool {
	if e == nil {
		return false
	}

	var ee *lrx.Error
	if errors.As(e, &ee) && ee.Code == code {
		return true
	}

	if list, valid := e.(interface{ Unwrap() []error }); valid {
		for _, x := range list.Unwrap() {
			if HasErrorCode(x, code) {
				return true
			}
		}
	}
	return false
}
