package interp

import (
	"bytes"
	"regexp"
	"unicode/utf8"
)

// MaxSourceBytes is the default cap on submitted source size.
const MaxSourceBytes = 100_000

// suspiciousCallPattern matches an identifier ending in digits
// followed by a zero-argument call, the heuristic used to flag
// identifier-table exhaustion attempts.
var suspiciousCallPattern = regexp.MustCompile(`\w+\d+\(\)`)

const suspiciousCallThreshold = 1000

// atomExhaustionSubstring and atomExhaustionLenThreshold reproduce an
// oddly specific heuristic verbatim. It reads as a debugging artifact
// rather than a deliberate rule, but changing it would diverge from
// required behavior, so it is flagged in DESIGN.md rather than
// redesigned.
const (
	atomExhaustionSubstring    = "foo"
	atomExhaustionLenThreshold = 10_000
)

// lexPrefilter runs the cheap textual checks below, in order, first
// match wins. It never parses the source; it only bounds parser cost
// and runtime symbol-table growth before parsing begins.
func lexPrefilter(code []byte) error {
	if len(code) > MaxSourceBytes {
		return newPrecheckErr("Code size exceeds maximum limit")
	}

	if n := len(suspiciousCallPattern.FindAllIndex(code, -1)); n > suspiciousCallThreshold {
		return newPrecheckErr("Suspicious code patterns detected")
	}

	if utf8.RuneCount(code) > atomExhaustionLenThreshold && bytes.Contains(code, []byte(atomExhaustionSubstring)) {
		return newPrecheckErr("Potential atom exhaustion attack detected")
	}

	return nil
}
