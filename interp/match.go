package interp

import "fmt"

// matchedFunction is a resolved def/defp: the admitted function's
// body, its parameter patterns and the names they bind, and its
// guard. Both def and defp are recorded — private functions are still
// callable recursively from within the module, and are equally
// eligible as the caller-requested entry point: lookup only goes by
// name and arity, not visibility.
type matchedFunction struct {
	def        *node
	name       string
	arity      int
	params     []string // every bound identifier across all parameter patterns
	paramNodes []*node  // the parameter patterns themselves, in position order
	body       *node
	guard      *node
}

// moduleDefs collects every def/defp in a shape-validated module body,
// used both to find the requested entry point and to resolve local
// recursive calls during whitelist validation, since a local call's
// admissibility depends on whether `f/arity` is declared in the same
// module.
type moduleDefs struct {
	byNameArity map[string]*matchedFunction
	order       []*matchedFunction
}

func collectModuleDefs(root *node) *moduleDefs {
	md := &moduleDefs{byNameArity: map[string]*matchedFunction{}}
	body := root.child[0]
	for _, stmt := range body.child {
		if stmt.kind != nDef && stmt.kind != nDefp {
			continue
		}
		// Children of a def node are: param nodes..., [guard], body.
		// The body is always last; a guard node, if present, is the
		// second-to-last child. Arity is the number of param nodes,
		// not the number of bare-identifier param names: a parameter
		// may be a literal or a destructuring pattern.
		n := len(stmt.child)
		guardCount := 0
		if n >= 2 && stmt.child[n-2].kind == nGuard {
			guardCount = 1
		}
		arity := n - 1 - guardCount
		paramNodes := stmt.child[:arity]

		var boundNames []string
		for _, pn := range paramNodes {
			boundNames = append(boundNames, collectIdentNames(pn)...)
		}

		mf := &matchedFunction{
			def:        stmt,
			name:       stmt.ident,
			arity:      arity,
			params:     boundNames,
			paramNodes: paramNodes,
			body:       stmt.child[n-1],
		}
		if guardCount == 1 {
			mf.guard = stmt.child[n-2]
		}

		// The first def whose name/arity matches wins; later same-key
		// defs are parsed and shape/whitelist-checked like any other
		// module content, but never shadow the first.
		key := fmt.Sprintf("%s/%d", mf.name, mf.arity)
		if _, exists := md.byNameArity[key]; !exists {
			md.byNameArity[key] = mf
		}
		md.order = append(md.order, mf)
	}
	return md
}

// collectIdentNames walks a parameter pattern and returns every bare
// identifier leaf, the set of names a clause binds on entry. It stops
// at nested anonymous function bodies, mirroring bindPatternNames in
// whitelist.go.
func collectIdentNames(n *node) []string {
	var names []string
	n.walk(func(nn *node) bool {
		switch nn.kind {
		case nIdent:
			names = append(names, nn.ident)
		case nAnonFunc:
			return false
		}
		return true
	})
	return names
}

func (md *moduleDefs) lookup(name string, arity int) (*matchedFunction, bool) {
	mf, ok := md.byNameArity[fmt.Sprintf("%s/%d", name, arity)]
	return mf, ok
}

// matchModuleAndFunction confirms the declared module name matches
// the caller's expectation, then finds the requested function by name
// and arity. It never inspects a function's body and never fabricates
// one.
func matchModuleAndFunction(root *node, md *moduleDefs, wantModule, wantFunction string, arity int) (*matchedFunction, error) {
	if root.ident != wantModule {
		return nil, newStructuralErr(0, fmt.Sprintf("Module name mismatch. Expected %s, got %s", wantModule, root.ident))
	}

	if mf, ok := md.lookup(wantFunction, arity); ok {
		return mf, nil
	}

	// When exactly one def exists and it has the requested name but a
	// different arity, name its arity rather than just reporting "not
	// found". A single def with a different name gets no hint.
	if len(md.order) == 1 {
		only := md.order[0]
		if only.name == wantFunction {
			return nil, newStructuralErr(0, fmt.Sprintf("Function %s/%d not found (did you mean %s/%d?)", wantFunction, arity, only.name, only.arity))
		}
	}

	return nil, newStructuralErr(0, fmt.Sprintf("Function %s/%d not found", wantFunction, arity))
}
