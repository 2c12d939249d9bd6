package interp

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// callTrace carries a correlation id and a diagnostics sink through a
// single Eval invocation: a plain configurable io.Writer rather than a
// logging framework.
type callTrace struct {
	id     string
	stdout io.Writer
	stderr io.Writer
}

func newCallTrace(stdout, stderr io.Writer) *callTrace {
	return &callTrace{id: uuid.NewString(), stdout: stdout, stderr: stderr}
}

func (t *callTrace) logf(format string, args ...any) {
	if t.stderr == nil {
		return
	}
	fmt.Fprintf(t.stderr, "["+t.id+"] "+format+"\n", args...)
}
