package interp

import "fmt"

// policyKind identifies how a module's whitelist entry admits
// functions, one of the allowed-modules mapping's four shapes.
type policyKind int

const (
	policyAllFunctions policyKind = iota
	policyDenylist
	policyAllowlist
	policySingle
)

type modulePolicy struct {
	kind        policyKind
	set         map[string]bool // keyed "f/arity", used by denylist/allowlist
	singleName  string
	singleArity int
}

func nameArityKey(name string, arity int) string {
	return fmt.Sprintf("%s/%d", name, arity)
}

func (p modulePolicy) admits(name string, arity int) bool {
	key := nameArityKey(name, arity)
	switch p.kind {
	case policyAllFunctions:
		return true
	case policyDenylist:
		return !p.set[key]
	case policyAllowlist:
		return p.set[key]
	case policySingle:
		return name == p.singleName && arity == p.singleArity
	}
	return false
}

// allowedOperators is ALLOWED_OPERATORS restricted to the tokens used
// by nBinOp/nUnOp/nPipe nodes. The remaining admitted operator tokens
// (`| . {} <<>> :: when -> fn __block__`) are structural forms this
// AST represents with their own dedicated node kinds (cons,
// qualified-call dot, tuple, bitstring, guard keyword, clause arrow,
// anonymous function, block) and are admitted by kind in validate
// rather than by a redundant second table; `::` has no node kind here
// and does not parse.
var allowedOperators = map[string]bool{
	"+": true, "-": true, "*": true, "/": true,
	"==": true, "!=": true, "===": true, "!==": true,
	">": true, ">=": true, "<": true, "<=": true,
	"&&": true, "||": true, "and": true, "or": true, "not": true,
	"<>": true, "++": true, "|>": true,
}

// allowedKernelGuards is ALLOWED_KERNEL_GUARDS: identifier/arity pairs
// usable inside a `when` guard expression.
var allowedKernelGuards = map[string]bool{
	"is_atom/1": true, "is_integer/1": true, "is_float/1": true,
	"is_number/1": true, "is_binary/1": true, "is_list/1": true,
	"is_tuple/1": true, "is_map/1": true, "is_boolean/1": true,
	"is_nil/1": true, "length/1": true, "hd/1": true, "tl/1": true,
	"elem/2": true, "abs/1": true, "tuple_size/1": true, "map_size/1": true,
	"node/0": true,
}

// allowedKernelFunctions is ALLOWED_KERNEL_FUNCTIONS: identifier/arity
// pairs usable as ordinary (non-guard-restricted) local calls, in
// addition to whatever the module itself defines.
var allowedKernelFunctions = map[string]bool{
	"abs/1": true, "to_string/1": true, "length/1": true, "hd/1": true,
	"tl/1": true, "elem/2": true, "tuple_size/1": true, "map_size/1": true,
	"is_nil/1": true, "not/1": true, "round/1": true, "trunc/1": true,
	"div/2": true, "rem/2": true, "max/2": true, "min/2": true,
	"is_atom/1": true, "is_integer/1": true, "is_float/1": true,
	"is_number/1": true, "is_binary/1": true, "is_list/1": true,
	"is_tuple/1": true, "is_map/1": true, "is_boolean/1": true,
}

// allowedSigils is ALLOWED_SIGILS.
var allowedSigils = map[string]bool{
	"C": true, "D": true, "N": true, "R": true, "S": true, "T": true, "U": true,
	"c": true, "r": true, "s": true, "w": true,
}

func kernelCallAdmitted(name string, arity int, guardCtx bool) bool {
	key := nameArityKey(name, arity)
	if guardCtx {
		return allowedKernelGuards[key]
	}
	return allowedKernelGuards[key] || allowedKernelFunctions[key]
}

// defaultAllowedModules is the baked-in ALLOWED_MODULES table.
func defaultAllowedModules() map[string]modulePolicy {
	return map[string]modulePolicy{
		"String": {kind: policyDenylist, set: map[string]bool{
			"to_atom/1": true, "to_existing_atom/1": true,
		}},
		"Enum": {kind: policyAllFunctions},
		"Map":  {kind: policyAllFunctions},
		"Access": {kind: policySingle, singleName: "get", singleArity: 2},
	}
}

// whitelistValidator walks a matched function's body (and, since
// attribute right-hand sides are validated too, every module
// attribute's RHS expression) confirming every operator, call, and
// sigil it contains is admitted. It holds the process-wide tables
// plus the current module's own definitions, used to resolve local
// calls.
type whitelistValidator struct {
	modules map[string]modulePolicy
	md      *moduleDefs
}

func newWhitelistValidator(md *moduleDefs, overlay map[string]modulePolicy) *whitelistValidator {
	modules := defaultAllowedModules()
	for k, v := range overlay {
		if _, builtIn := modules[k]; builtIn {
			continue
		}
		modules[k] = v
	}
	return &whitelistValidator{modules: modules, md: md}
}

func (v *whitelistValidator) validateFunction(mf *matchedFunction) error {
	env := newValEnv(mf.params)
	if mf.guard != nil {
		if err := v.validate(mf.guard.child[0], env, true); err != nil {
			return err
		}
	}
	return v.validate(mf.body, env, false)
}

func (v *whitelistValidator) validateAttribute(n *node) error {
	return v.validate(n, newValEnv(nil), false)
}

// validate performs the single post-order-equivalent recursive walk
// described for V: classify the node, admit or reject, recursing into
// children under the (possibly extended) environment.
func (v *whitelistValidator) validate(n *node, env *valEnv, guardCtx bool) error {
	if n == nil {
		return nil
	}
	switch n.kind {
	case nLiteralInt, nLiteralFloat, nLiteralString, nLiteralAtom,
		nLiteralBool, nLiteralNil, nLiteralBitstring:
		return nil

	case nStringInterp:
		for _, c := range n.child {
			if err := v.validate(c, env, guardCtx); err != nil {
				return err
			}
		}
		return nil

	case nIdent:
		if env.isBound(n.ident) {
			return nil
		}
		if mf, ok := v.md.lookup(n.ident, 0); ok && !guardCtx {
			_ = mf
			return nil
		}
		return newWhitelistErr(n.line, "Forbidden expression")

	case nBlock:
		for _, c := range n.child {
			if c.kind == nDefmodule || c.kind == nDef || c.kind == nDefp {
				return newWhitelistErr(c.line, "defmodule/def inside function body is not allowed")
			}
			if err := v.validate(c, env, guardCtx); err != nil {
				return err
			}
		}
		return nil

	case nBinOp, nUnOp:
		if !allowedOperators[n.ident] {
			return newWhitelistErr(n.line, "Forbidden expression")
		}
		for _, c := range n.child {
			if err := v.validate(c, env, guardCtx); err != nil {
				return err
			}
		}
		return nil

	case nPipe:
		rewritten, err := rewritePipeCall(n)
		if err != nil {
			return err
		}
		return v.validate(rewritten, env, guardCtx)

	case nCall:
		return v.validateCall(n, env, guardCtx)

	case nCapture:
		if err := v.resolveCallTarget(n.strVal, n.ident, int(n.intVal), n.line, guardCtx); err != nil {
			return err
		}
		return nil

	case nTuple, nListLit, nMapLit, nListCons, nMapUpdate:
		for _, c := range n.child {
			if err := v.validate(c, env, guardCtx); err != nil {
				return err
			}
		}
		return nil

	case nSigil:
		if !allowedSigils[n.ident] {
			return newWhitelistErr(n.line, fmt.Sprintf("Forbidden sigil: ~%s", n.ident))
		}
		return nil

	case nAnonFunc:
		fnEnv := env.child()
		for _, p := range n.params {
			fnEnv.bind(p)
		}
		body := n.child[len(n.child)-1]
		return v.validate(body, fnEnv, guardCtx)

	case nCaseExpr:
		if err := v.validate(n.child[0], env, guardCtx); err != nil {
			return err
		}
		for _, clause := range n.child[1:] {
			if err := v.validateClause(clause, env, guardCtx); err != nil {
				return err
			}
		}
		return nil

	case nCondExpr:
		for _, clause := range n.child {
			ce := env.child()
			if err := v.validate(clause.child[0], ce, guardCtx); err != nil {
				return err
			}
			if err := v.validate(clause.child[1], ce, guardCtx); err != nil {
				return err
			}
		}
		return nil

	case nWithExpr:
		return v.validateWith(n, env, guardCtx)

	case nAssign:
		left, right := n.child[0], n.child[1]
		if err := v.validate(right, env, guardCtx); err != nil {
			return err
		}
		if name, ok := rebindsParam(left, env); ok {
			return newWhitelistErr(n.line, fmt.Sprintf("Cannot assign to function parameter %s", name))
		}
		bindPatternNames(left, env)
		return nil

	case nGuard:
		return v.validate(n.child[0], env, true)

	case nDefmodule, nDef, nDefp:
		return newWhitelistErr(n.line, "defmodule/def inside function body is not allowed")

	case nAlias, nImport, nRequire, nUse, nAttribute:
		return newWhitelistErr(n.line, "Forbidden expression")

	default:
		return newWhitelistErr(n.line, "Forbidden expression")
	}
}

func (v *whitelistValidator) validateClause(clause *node, env *valEnv, guardCtx bool) error {
	ce := env.child()
	pattern := clause.child[0]
	bindPatternNames(pattern, ce)

	idx := 1
	if idx < len(clause.child) && clause.child[idx].kind == nGuard {
		if err := v.validate(clause.child[idx].child[0], ce, true); err != nil {
			return err
		}
		idx++
	}
	return v.validate(clause.child[idx], ce, guardCtx)
}

func (v *whitelistValidator) validateWith(n *node, env *valEnv, guardCtx bool) error {
	ce := env.child()
	bodyIdx := -1
	for i, c := range n.child {
		if c.kind == nBlock {
			bodyIdx = i
			break
		}
	}
	if bodyIdx < 0 {
		return newWhitelistErr(n.line, "Forbidden expression")
	}
	for i := 0; i < bodyIdx; i++ {
		gen := n.child[i]
		if len(gen.child) == 2 {
			if err := v.validate(gen.child[1], ce, guardCtx); err != nil {
				return err
			}
			bindPatternNames(gen.child[0], ce)
			continue
		}
		// A bare condition (no `<-`) is evaluated as an expression.
		if err := v.validate(gen.child[0], ce, guardCtx); err != nil {
			return err
		}
	}
	if err := v.validate(n.child[bodyIdx], ce, guardCtx); err != nil {
		return err
	}
	for i := bodyIdx + 1; i < len(n.child); i++ {
		if err := v.validateClause(n.child[i], env, guardCtx); err != nil {
			return err
		}
	}
	return nil
}

func (v *whitelistValidator) validateCall(n *node, env *valEnv, guardCtx bool) error {
	arity := len(n.child)
	if err := v.resolveCallTarget(n.strVal, n.ident, arity, n.line, guardCtx); err != nil {
		return err
	}
	for _, c := range n.child {
		if err := v.validate(c, env, guardCtx); err != nil {
			return err
		}
	}
	return nil
}

// resolveCallTarget implements the call-resolution rules shared by
// both ordinary calls and function captures.
func (v *whitelistValidator) resolveCallTarget(modPath, fn string, arity, line int, guardCtx bool) error {
	if modPath == "" {
		if _, ok := v.md.lookup(fn, arity); ok && !guardCtx {
			return nil
		}
		if kernelCallAdmitted(fn, arity, guardCtx) {
			return nil
		}
		return newWhitelistErr(line, fmt.Sprintf("Forbidden function: %s/%d", fn, arity))
	}
	if guardCtx {
		return newWhitelistErr(line, fmt.Sprintf("Forbidden function: %s.%s", modPath, fn))
	}
	policy, ok := v.modules[modPath]
	if !ok || !policy.admits(fn, arity) {
		return newWhitelistErr(line, fmt.Sprintf("Forbidden function: %s.%s", modPath, fn))
	}
	return nil
}

// rewritePipeCall implements the pipe-rewrite rule: `a |> f(b)` is
// validated as if written `f(a, b)`.
func rewritePipeCall(n *node) (*node, error) {
	left, right := n.child[0], n.child[1]
	switch right.kind {
	case nCall:
		call := newNode(nCall, right.line, right.col)
		call.ident = right.ident
		call.strVal = right.strVal
		call.child = append([]*node{left}, right.child...)
		return call, nil
	case nIdent:
		call := newNode(nCall, right.line, right.col)
		call.ident = right.ident
		call.child = []*node{left}
		return call, nil
	default:
		return nil, newWhitelistErr(n.line, "Forbidden expression")
	}
}

// bindPatternNames walks a pattern (the left side of `=`, a case
// clause head, or a with generator) and binds every bare identifier
// leaf it finds, treating them as new local bindings. Identifiers
// already used as a literal value reference elsewhere (e.g. `_`) are
// bound the same way; `_` itself is harmless to bind.
func bindPatternNames(pattern *node, env *valEnv) {
	pattern.walk(func(n *node) bool {
		switch n.kind {
		case nIdent:
			env.bind(n.ident)
		case nAnonFunc:
			return false
		}
		return true
	})
}

// rebindsParam reports whether pattern contains an identifier leaf
// naming one of the enclosing function's formal parameters, per I4.
func rebindsParam(pattern *node, env *valEnv) (string, bool) {
	var found string
	pattern.walk(func(n *node) bool {
		if found != "" {
			return false
		}
		if n.kind == nIdent && env.isParam(n.ident) {
			found = n.ident
			return false
		}
		return true
	})
	return found, found != ""
}
