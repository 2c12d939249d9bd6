package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validateModuleFunction(t *testing.T, src, fnName string, arity int) error {
	t.Helper()
	root := mustParse(t, src)
	require.NoError(t, validateShape(root))
	md := collectModuleDefs(root)
	mf, ok := md.lookup(fnName, arity)
	require.True(t, ok)
	v := newWhitelistValidator(md, nil)
	return v.validateFunction(mf)
}

func TestWhitelist_AllowsKernelFunction(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(x) do
    abs(x)
  end
end
`, "f", 1)
	assert.NoError(t, err)
}

func TestWhitelist_RejectsForbiddenModuleFunction(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(path) do
    File.read!(path)
  end
end
`, "f", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Forbidden function: File.read!")
}

func TestWhitelist_GuardRejectsNonGuardKernelFunction(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(x) when round(x) == 1 do
    x
  end
end
`, "f", 1)
	require.Error(t, err, "round/1 is an ordinary kernel function, not a guard, and must be rejected in guard context")
	assert.Contains(t, err.Error(), "Forbidden function")
}

func TestWhitelist_GuardAllowsGuardKernelFunction(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(x) when is_integer(x) do
    x
  end
end
`, "f", 1)
	assert.NoError(t, err)
}

func TestWhitelist_AllFunctionsPolicyAdmitsAnyEnumCall(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(xs) do
    Enum.whatever_function(xs)
  end
end
`, "f", 1)
	assert.NoError(t, err)
}

func TestWhitelist_DenylistPolicyRejectsToAtom(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(s) do
    String.to_atom(s)
  end
end
`, "f", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Forbidden function: String.to_atom")
}

func TestWhitelist_DenylistPolicyAllowsOtherStringFunctions(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(s) do
    String.upcase(s)
  end
end
`, "f", 1)
	assert.NoError(t, err)
}

func TestWhitelist_SinglePolicyRestrictsAccessToGetArity2(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(m) do
    Access.put(m, :a, 1)
  end
end
`, "f", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Forbidden function: Access.put")
}

func TestWhitelist_SinglePolicyAllowsAccessGet(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(m) do
    Access.get(m, :a)
  end
end
`, "f", 1)
	assert.NoError(t, err)
}

func TestWhitelist_RejectsParameterRebinding(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(x) do
    x = x + 1
    x
  end
end
`, "f", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot assign to function parameter")
}

func TestWhitelist_AllowsNewLocalBindingNotShadowingParam(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(x) do
    y = x + 1
    y
  end
end
`, "f", 1)
	assert.NoError(t, err)
}

func TestWhitelist_AllowsRecursiveLocalCall(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def countdown(n) do
    countdown(n - 1)
  end
end
`, "countdown", 1)
	assert.NoError(t, err)
}

func TestWhitelist_RejectsUnknownLocalCall(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(x) do
    undeclared_helper(x)
  end
end
`, "f", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Forbidden function: undeclared_helper")
}

func TestWhitelist_RejectsForbiddenOperator(t *testing.T) {
	root := mustParse(t, "defmodule M do\n  def f(x) do\n    x\n  end\nend\n")
	md := collectModuleDefs(root)
	mf, _ := md.lookup("f", 1)
	bad := newNode(nBinOp, 1, 1)
	bad.ident = "<<<"
	bad.add(mf.paramNodes[0], mf.paramNodes[0])
	mf.body.child = append(mf.body.child, bad)
	v := newWhitelistValidator(md, nil)
	err := v.validateFunction(mf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Forbidden expression")
}

func TestWhitelist_RejectsForbiddenSigil(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f() do
    ~X(boom)
  end
end
`, "f", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Forbidden sigil")
}

func TestWhitelist_PipeRewriteValidatesAsEquivalentCall(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(xs) do
    xs |> Enum.sum()
  end
end
`, "f", 1)
	assert.NoError(t, err)
}

func TestWhitelist_OverlayWidensModulePolicy(t *testing.T) {
	root := mustParse(t, `
defmodule M do
  def f(p) do
    Custom.thing(p)
  end
end
`)
	require.NoError(t, validateShape(root))
	md := collectModuleDefs(root)
	mf, _ := md.lookup("f", 1)
	overlay := map[string]modulePolicy{
		"Custom": {kind: policyAllFunctions},
	}
	v := newWhitelistValidator(md, overlay)
	assert.NoError(t, v.validateFunction(mf))
}

func TestWhitelist_AttributeRHSValidated(t *testing.T) {
	root := mustParse(t, `
defmodule M do
  @limit File.read!("x")
  def f() do
    1
  end
end
`)
	require.NoError(t, validateShape(root))
	md := collectModuleDefs(root)
	attr := root.child[0].child[0]
	require.Equal(t, nAttribute, attr.kind)
	v := newWhitelistValidator(md, nil)
	err := v.validateAttribute(attr.child[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Forbidden function")
}

func TestWhitelist_CaseClauseBindsPatternNames(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(x) do
    case x do
      {a, b} -> a + b
      _ -> 0
    end
  end
end
`, "f", 1)
	assert.NoError(t, err)
}

func TestWhitelist_WithExpressionValidatesGeneratorsAndBody(t *testing.T) {
	err := validateModuleFunction(t, `
defmodule M do
  def f(m) do
    with {:ok, v} <- Access.get(m, :a) do
      v
    else
      _ -> :missing
    end
  end
end
`, "f", 1)
	assert.NoError(t, err)
}
