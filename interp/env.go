package interp

// valEnv is the environment threaded through V's recursive walk: the
// immutable set of formal parameters, and the set of names bound by
// case/fn/with/destructuring, grown on entering a binding scope and
// restored on exit. It tracks names only; R's tree-walking evaluator
// binds values in its own rtFrame (runtime.go).
type valEnv struct {
	params map[string]bool
	locals map[string]bool
}

func newValEnv(params []string) *valEnv {
	p := make(map[string]bool, len(params))
	for _, name := range params {
		p[name] = true
	}
	return &valEnv{params: p, locals: map[string]bool{}}
}

// child returns a new environment sharing params but with a fresh,
// independent locals set, for entering a nested binding scope (case
// clause, fn body, with generator) without leaking bindings back out.
func (e *valEnv) child() *valEnv {
	locals := make(map[string]bool, len(e.locals))
	for k := range e.locals {
		locals[k] = true
	}
	return &valEnv{params: e.params, locals: locals}
}

func (e *valEnv) bind(name string) {
	e.locals[name] = true
}

func (e *valEnv) isBound(name string) bool {
	return e.params[name] || e.locals[name]
}

func (e *valEnv) isParam(name string) bool {
	return e.params[name]
}
