package interp

import "fmt"

// maxCallDepth bounds recursive evaluation the way the BEAM itself
// eventually exhausts a process's reduction budget; it exists so a
// runaway recursive definition fails with an ordinary runtime error
// instead of exhausting the host Go stack.
const maxCallDepth = 4096

// execCtx carries the state a single Eval call's execution needs: the
// matched module's definitions, for resolving local and recursive
// calls, and a call-depth counter shared across the whole evaluation
// tree.
type execCtx struct {
	md    *moduleDefs
	depth int
}

// rtFrame is the lexical environment a running function (or clause,
// or anonymous function body) evaluates against. Like valEnv in V, it
// is copy-on-child so that entering a case clause or fn body can bind
// new names without leaking them back into the caller.
type rtFrame struct {
	vars map[string]Value
}

func newRtFrame() *rtFrame {
	return &rtFrame{vars: map[string]Value{}}
}

func (f *rtFrame) child() *rtFrame {
	vars := make(map[string]Value, len(f.vars))
	for k, v := range f.vars {
		vars[k] = v
	}
	return &rtFrame{vars: vars}
}

func (f *rtFrame) get(name string) (Value, bool) {
	v, ok := f.vars[name]
	return v, ok
}

func (f *rtFrame) set(name string, v Value) {
	if name == "_" {
		return
	}
	f.vars[name] = v
}

// Closure is the runtime value produced by an `fn` literal or a `&`
// capture. Calling it either evaluates a captured anonymous function
// body in its closed-over frame, or re-dispatches to the named
// function (local, kernel, or qualified) the capture referred to.
type Closure struct {
	params []string
	body   *node
	frame  *rtFrame

	modPath string
	name    string
	arity   int
}

func (c *Closure) call(ctx *execCtx, args []Value) (Value, error) {
	if c.body != nil {
		if len(args) != len(c.params) {
			return nil, newRuntimeErr(fmt.Sprintf("fn: expected %d argument(s), got %d", len(c.params), len(args)))
		}
		f := c.frame.child()
		for i, p := range c.params {
			f.set(p, args[i])
		}
		return ctx.eval(c.body, f)
	}
	return ctx.dispatchCall(c.modPath, c.name, args)
}

// evalFunction runs a matched module function against already
// evaluated arguments: binds parameters, checks the guard if any
// (raise-means-fail per the resolved guard semantics), then evaluates
// the body.
func (ctx *execCtx) evalFunction(mf *matchedFunction, args []Value) (Value, error) {
	ctx.depth++
	defer func() { ctx.depth-- }()
	if ctx.depth > maxCallDepth {
		return nil, newRuntimeErr("call stack depth exceeded")
	}
	if len(args) != mf.arity {
		return nil, newRuntimeErr(fmt.Sprintf("%s/%d: expected %d argument(s), got %d", mf.name, mf.arity, mf.arity, len(args)))
	}
	frame := newRtFrame()
	for i, pn := range mf.paramNodes {
		if !matchPattern(pn, args[i], frame) {
			return nil, newRuntimeErr(fmt.Sprintf("no function clause matching %s/%d", mf.name, mf.arity))
		}
	}
	if mf.guard != nil {
		ok, err := ctx.evalGuard(mf.guard, frame)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, newRuntimeErr(fmt.Sprintf("no function clause matching %s/%d", mf.name, mf.arity))
		}
	}
	return ctx.eval(mf.body, frame)
}

// evalGuard evaluates a guard expression, treating any evaluation
// error as guard failure rather than propagating it, matching the
// resolved "guard raise means guard fails" semantics.
func (ctx *execCtx) evalGuard(guard *node, frame *rtFrame) (bool, error) {
	v, err := ctx.eval(guard.child[0], frame)
	if err != nil {
		return false, nil
	}
	return isTruthy(v), nil
}

func (ctx *execCtx) dispatchCall(modPath, name string, args []Value) (Value, error) {
	if modPath == "" {
		if mf, ok := ctx.md.lookup(name, len(args)); ok {
			return ctx.evalFunction(mf, args)
		}
		if fn, ok := kernelFuncs[nameArityKey(name, len(args))]; ok {
			return fn(ctx, args)
		}
		return nil, newRuntimeErr(fmt.Sprintf("undefined function %s/%d", name, len(args)))
	}
	reg := moduleRegistry(modPath)
	if reg == nil {
		return nil, newRuntimeErr(fmt.Sprintf("undefined module %s", modPath))
	}
	fn, ok := reg[nameArityKey(name, len(args))]
	if !ok {
		return nil, newRuntimeErr(fmt.Sprintf("undefined function %s.%s/%d", modPath, name, len(args)))
	}
	return fn(ctx, args)
}

func moduleRegistry(modPath string) map[string]hostFunc {
	switch modPath {
	case "String":
		return stringFuncs
	case "Enum":
		return enumFuncs
	case "Map":
		return mapFuncs
	case "Access":
		return accessFuncs
	}
	return nil
}

// eval is the tree-walking evaluator. It operates on an AST that has
// already passed lexical prefiltering, parsing, shape validation,
// name/arity matching, and whitelist validation, so every node kind
// it sees is one of the admitted forms; anything else is an internal
// inconsistency rather than a user error.
func (ctx *execCtx) eval(n *node, frame *rtFrame) (Value, error) {
	switch n.kind {
	case nLiteralInt:
		return n.intVal, nil
	case nLiteralFloat:
		return n.floatVal, nil
	case nLiteralString, nLiteralBitstring:
		return n.strVal, nil
	case nLiteralAtom:
		return Atom(n.ident), nil
	case nLiteralBool:
		return n.boolVal, nil
	case nLiteralNil:
		return nil, nil

	case nStringInterp:
		out := ""
		for _, c := range n.child {
			if c.kind == nLiteralString {
				out += c.strVal
				continue
			}
			v, err := ctx.eval(c, frame)
			if err != nil {
				return nil, err
			}
			out += DisplayString(v)
		}
		return out, nil

	case nIdent:
		if v, ok := frame.get(n.ident); ok {
			return v, nil
		}
		return ctx.dispatchCall("", n.ident, nil)

	case nBlock:
		var result Value
		for _, c := range n.child {
			v, err := ctx.eval(c, frame)
			if err != nil {
				return nil, err
			}
			result = v
		}
		return result, nil

	case nBinOp:
		l, err := ctx.eval(n.child[0], frame)
		if err != nil {
			return nil, err
		}
		if n.ident == "&&" || n.ident == "and" {
			if !isTruthy(l) {
				return l, nil
			}
			return ctx.eval(n.child[1], frame)
		}
		if n.ident == "||" || n.ident == "or" {
			if isTruthy(l) {
				return l, nil
			}
			return ctx.eval(n.child[1], frame)
		}
		r, err := ctx.eval(n.child[1], frame)
		if err != nil {
			return nil, err
		}
		return applyBinOp(n.ident, l, r)

	case nUnOp:
		v, err := ctx.eval(n.child[0], frame)
		if err != nil {
			return nil, err
		}
		return applyUnOp(n.ident, v)

	case nPipe:
		rewritten, err := rewritePipeCall(n)
		if err != nil {
			return nil, err
		}
		return ctx.eval(rewritten, frame)

	case nCall:
		args := make([]Value, len(n.child))
		for i, a := range n.child {
			v, err := ctx.eval(a, frame)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return ctx.dispatchCall(n.strVal, n.ident, args)

	case nCapture:
		return &Closure{modPath: n.strVal, name: n.ident, arity: int(n.intVal)}, nil

	case nTuple:
		out := make(Tuple, len(n.child))
		for i, c := range n.child {
			v, err := ctx.eval(c, frame)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case nListLit:
		out := make(List, len(n.child))
		for i, c := range n.child {
			v, err := ctx.eval(c, frame)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case nListCons:
		heads := n.child[:len(n.child)-1]
		tailNode := n.child[len(n.child)-1]
		tail, err := ctx.eval(tailNode, frame)
		if err != nil {
			return nil, err
		}
		headVals := make([]Value, len(heads))
		for i, h := range heads {
			v, err := ctx.eval(h, frame)
			if err != nil {
				return nil, err
			}
			headVals[i] = v
		}
		switch t := tail.(type) {
		case List:
			return append(append(List{}, headVals...), t...), nil
		case nil:
			return List(headVals), nil
		default:
			result := t
			for i := len(headVals) - 1; i >= 0; i-- {
				result = &ConsCell{Head: headVals[i], Tail: result}
			}
			return result, nil
		}

	case nMapLit:
		m := NewMap()
		for i := 0; i+1 < len(n.child); i += 2 {
			k, err := ctx.eval(n.child[i], frame)
			if err != nil {
				return nil, err
			}
			v, err := ctx.eval(n.child[i+1], frame)
			if err != nil {
				return nil, err
			}
			m = m.Put(k, v)
		}
		return m, nil

	case nMapUpdate:
		base, err := ctx.eval(n.child[0], frame)
		if err != nil {
			return nil, err
		}
		m, ok := base.(*Map)
		if !ok {
			return nil, newRuntimeErr("map update: base is not a map")
		}
		for i := 1; i+1 < len(n.child); i += 2 {
			k, err := ctx.eval(n.child[i], frame)
			if err != nil {
				return nil, err
			}
			v, err := ctx.eval(n.child[i+1], frame)
			if err != nil {
				return nil, err
			}
			m = m.Put(k, v)
		}
		return m, nil

	case nSigil:
		return evalSigil(n)

	case nAnonFunc:
		return &Closure{params: n.params, body: n.child[len(n.child)-1], frame: frame}, nil

	case nCaseExpr:
		return ctx.evalCase(n, frame)

	case nCondExpr:
		return ctx.evalCond(n, frame)

	case nWithExpr:
		return ctx.evalWith(n, frame)

	case nAssign:
		right, err := ctx.eval(n.child[1], frame)
		if err != nil {
			return nil, err
		}
		if !matchPattern(n.child[0], right, frame) {
			return nil, newRuntimeErr("no match of right hand side value")
		}
		return right, nil

	case nGuard:
		return ctx.eval(n.child[0], frame)
	}

	return nil, newRuntimeErr(fmt.Sprintf("internal error: unexpected node kind %s at runtime", n.kind))
}

func (ctx *execCtx) evalCase(n *node, frame *rtFrame) (Value, error) {
	subject, err := ctx.eval(n.child[0], frame)
	if err != nil {
		return nil, err
	}
	for _, clause := range n.child[1:] {
		cf := frame.child()
		if !matchPattern(clause.child[0], subject, cf) {
			continue
		}
		idx := 1
		if idx < len(clause.child) && clause.child[idx].kind == nGuard {
			ok, err := ctx.evalGuard(clause.child[idx], cf)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			idx++
		}
		return ctx.eval(clause.child[idx], cf)
	}
	return nil, newRuntimeErr("no case clause matching")
}

func (ctx *execCtx) evalCond(n *node, frame *rtFrame) (Value, error) {
	for _, clause := range n.child {
		cf := frame.child()
		v, err := ctx.eval(clause.child[0], cf)
		if err != nil {
			return nil, err
		}
		if isTruthy(v) {
			return ctx.eval(clause.child[1], cf)
		}
	}
	return nil, newRuntimeErr("no cond clause evaluated to a truthy value")
}

func (ctx *execCtx) evalWith(n *node, frame *rtFrame) (Value, error) {
	bodyIdx := -1
	for i, c := range n.child {
		if c.kind == nBlock {
			bodyIdx = i
			break
		}
	}
	if bodyIdx < 0 {
		return nil, newRuntimeErr("internal error: with expression has no body")
	}
	cf := frame.child()
	for i := 0; i < bodyIdx; i++ {
		gen := n.child[i]
		pattern := gen.child[0]
		if len(gen.child) == 2 {
			rhs, err := ctx.eval(gen.child[1], cf)
			if err != nil {
				return nil, err
			}
			if !matchPattern(pattern, rhs, cf) {
				for _, clause := range n.child[bodyIdx+1:] {
					ef := frame.child()
					if matchPattern(clause.child[0], rhs, ef) {
						return ctx.eval(clause.child[len(clause.child)-1], ef)
					}
				}
				return rhs, nil
			}
		} else {
			v, err := ctx.eval(pattern, cf)
			if err != nil {
				return nil, err
			}
			if !isTruthy(v) {
				return v, nil
			}
		}
	}
	return ctx.eval(n.child[bodyIdx], cf)
}

func evalSigil(n *node) (Value, error) {
	switch n.ident {
	case "s", "S":
		return n.strVal, nil
	case "c", "C":
		runes := []rune(n.strVal)
		out := make(List, len(runes))
		for i, r := range runes {
			out[i] = int64(r)
		}
		return out, nil
	case "w":
		fields := splitFields(n.strVal)
		out := make(List, len(fields))
		for i, f := range fields {
			out[i] = f
		}
		return out, nil
	default:
		// Date/time/regex sigils (~D ~N ~T ~U ~r) have no admitted
		// module operating on their value domain, so they are
		// represented verbatim rather than parsed into a richer type.
		return n.strVal, nil
	}
}

func splitFields(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

// matchPattern attempts to match val against pattern, binding any
// identifier leaves into frame as a side effect. It returns false on
// structural mismatch (arity, literal value, or tag) without
// partially undoing bindings already made, mirroring the fact that a
// failed match aborts the enclosing construct anyway.
func matchPattern(pattern *node, val Value, frame *rtFrame) bool {
	switch pattern.kind {
	case nIdent:
		frame.set(pattern.ident, val)
		return true

	case nLiteralInt:
		return valuesEqual(val, pattern.intVal)
	case nLiteralFloat:
		return valuesEqual(val, pattern.floatVal)
	case nLiteralString, nLiteralBitstring:
		return valuesEqual(val, pattern.strVal)
	case nLiteralAtom:
		return valuesEqual(val, Atom(pattern.ident))
	case nLiteralBool:
		return valuesEqual(val, pattern.boolVal)
	case nLiteralNil:
		return val == nil

	case nTuple:
		t, ok := val.(Tuple)
		if !ok || len(t) != len(pattern.child) {
			return false
		}
		for i, sub := range pattern.child {
			if !matchPattern(sub, t[i], frame) {
				return false
			}
		}
		return true

	case nListLit:
		l, ok := val.(List)
		if !ok || len(l) != len(pattern.child) {
			return false
		}
		for i, sub := range pattern.child {
			if !matchPattern(sub, l[i], frame) {
				return false
			}
		}
		return true

	case nListCons:
		l, ok := val.(List)
		if !ok {
			return false
		}
		heads := pattern.child[:len(pattern.child)-1]
		tailPat := pattern.child[len(pattern.child)-1]
		if len(l) < len(heads) {
			return false
		}
		for i, h := range heads {
			if !matchPattern(h, l[i], frame) {
				return false
			}
		}
		return matchPattern(tailPat, append(List{}, l[len(heads):]...), frame)

	case nMapLit:
		m, ok := val.(*Map)
		if !ok {
			return false
		}
		for i := 0; i+1 < len(pattern.child); i += 2 {
			keyNode := pattern.child[i]
			// Map pattern keys are literal atoms/strings; they do not
			// themselves bind.
			key, err := (&execCtx{}).eval(keyNode, newRtFrame())
			if err != nil {
				return false
			}
			v, found := m.Get(key)
			if !found {
				return false
			}
			if !matchPattern(pattern.child[i+1], v, frame) {
				return false
			}
		}
		return true

	default:
		v, err := (&execCtx{}).eval(pattern, frame)
		if err != nil {
			return false
		}
		return valuesEqual(v, val)
	}
}
