package interp

import "fmt"

// errorKind distinguishes the stage of origin of a sandbox failure,
// per the four error kinds of the error-handling design: precheck,
// structural, whitelist, and runtime failures. It is never exposed
// publicly (Eval returns a plain error, see interp.go) but is kept
// internally so tests can assert on stage without parsing message
// prefixes, matching the "richer Err(kind, message, line?) internally,
// flatten at the boundary" design note.
type errorKind int

const (
	errPrecheck errorKind = iota
	errStructural
	errWhitelist
	errRuntime
)

// sandboxError is the internal error representation used by the
// prefilter, shape validator, matcher, whitelist validator and
// runtime; the parser and the overlay loader return plain errors
// instead. Its Error() rendering produces the exact public literals
// the caller-facing contract promises.
type sandboxError struct {
	kind    errorKind
	message string
	line    int
}

func (e *sandboxError) Error() string {
	if e.line > 0 {
		return fmt.Sprintf("Line %d: %s", e.line, e.message)
	}
	return e.message
}

func newPrecheckErr(msg string) error {
	return &sandboxError{kind: errPrecheck, message: msg}
}

func newStructuralErr(line int, msg string) error {
	return &sandboxError{kind: errStructural, message: msg, line: line}
}

func newWhitelistErr(line int, msg string) error {
	return &sandboxError{kind: errWhitelist, message: msg, line: line}
}

func newRuntimeErr(msg string) error {
	return &sandboxError{kind: errRuntime, message: msg}
}
