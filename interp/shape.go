package interp

// validateShape enforces the module's top-level structure: the root
// must be a defmodule whose body is a block of statements, and every
// top-level statement must be a def/defp or an attribute declaration.
// Any other top-level form is rejected with its line number and a
// fixed message, first rejecting statement wins.
func validateShape(root *node) error {
	if root == nil || root.kind != nDefmodule {
		return newStructuralErr(0, "Expected a defmodule")
	}
	body := root.child[0]
	for _, stmt := range body.child {
		switch stmt.kind {
		case nDef, nDefp, nAttribute:
			continue
		case nDefmodule:
			return newStructuralErr(stmt.line, "Nested modules are not allowed")
		case nAlias:
			return newStructuralErr(stmt.line, "Module aliases are not allowed")
		case nImport:
			return newStructuralErr(stmt.line, "Module imports are not allowed")
		case nRequire:
			return newStructuralErr(stmt.line, "Module requires are not allowed")
		case nUse:
			return newStructuralErr(stmt.line, "Module use is not allowed")
		default:
			return newStructuralErr(stmt.line, "Immediate code execution in modules is not allowed")
		}
	}
	return nil
}
