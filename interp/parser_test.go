package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSource_SimpleModule(t *testing.T) {
	root, err := parseSource([]byte(`
defmodule Calc do
  def add(a, b) do
    a + b
  end
end
`))
	require.NoError(t, err)
	assert.Equal(t, nDefmodule, root.kind)
	assert.Equal(t, "Calc", root.ident)
	body := root.child[0]
	require.Len(t, body.child, 1)
	def := body.child[0]
	assert.Equal(t, nDef, def.kind)
	assert.Equal(t, "add", def.ident)
	assert.Equal(t, []string{"a", "b"}, def.params)
}

func TestParseSource_DottedModuleName(t *testing.T) {
	root, err := parseSource([]byte("defmodule A.B.C do\nend\n"))
	require.NoError(t, err)
	assert.Equal(t, "A.B.C", root.ident)
}

func TestParseSource_DefpAndGuard(t *testing.T) {
	root, err := parseSource([]byte(`
defmodule M do
  defp helper(n) when is_integer(n) do
    n
  end
end
`))
	require.NoError(t, err)
	def := root.child[0].child[0]
	assert.Equal(t, nDefp, def.kind)
	require.Len(t, def.child, 3) // 1 param node + guard + body
	assert.Equal(t, nGuard, def.child[1].kind)
}

func TestParseSource_CondMultiClauseBodies(t *testing.T) {
	root, err := parseSource([]byte(`
defmodule M do
  def classify(n) do
    cond do
      n == 0 -> :zero
      n > 0 ->
        x = n
        :positive
      true -> :negative
    end
  end
end
`))
	require.NoError(t, err)
	def := root.child[0].child[0]
	condExpr := def.child[len(def.child)-1].child[0]
	require.Equal(t, nCondExpr, condExpr.kind)
	require.Len(t, condExpr.child, 3, "all three clauses must parse, none swallowed into a sibling's body")
	secondClauseBody := condExpr.child[1].child[1]
	require.Len(t, secondClauseBody.child, 2, "multi-statement clause body must stop at the next clause head")
}

func TestParseSource_CaseMultiClauseWithGuards(t *testing.T) {
	root, err := parseSource([]byte(`
defmodule M do
  def describe(x) do
    case x do
      0 -> :zero
      n when n > 0 -> :positive
      _ -> :other
    end
  end
end
`))
	require.NoError(t, err)
	def := root.child[0].child[0]
	caseExpr := def.child[len(def.child)-1].child[0]
	require.Equal(t, nCaseExpr, caseExpr.kind)
	require.Len(t, caseExpr.child, 4) // subject + 3 clauses
	secondClause := caseExpr.child[2]
	assert.Equal(t, nGuard, secondClause.child[1].kind)
}

func TestParseSource_PipeAndCapture(t *testing.T) {
	root, err := parseSource([]byte(`
defmodule M do
  def run(xs) do
    xs |> Enum.map(&String.upcase/1)
  end
end
`))
	require.NoError(t, err)
	def := root.child[0].child[0]
	body := def.child[len(def.child)-1]
	pipe := body.child[0]
	require.Equal(t, nPipe, pipe.kind)
	call := pipe.child[1]
	assert.Equal(t, nCall, call.kind)
	assert.Equal(t, "Enum", call.strVal)
	assert.Equal(t, "map", call.ident)
	capture := call.child[0]
	assert.Equal(t, nCapture, capture.kind)
	assert.Equal(t, "String", capture.strVal)
	assert.Equal(t, "upcase", capture.ident)
	assert.Equal(t, int64(1), capture.intVal)
}

func TestParseSource_TupleListMapLiterals(t *testing.T) {
	root, err := parseSource([]byte(`
defmodule M do
  def build() do
    {1, 2, [3, 4 | [5]], %{a: 1, "b" => 2}}
  end
end
`))
	require.NoError(t, err)
	def := root.child[0].child[0]
	body := def.child[len(def.child)-1]
	tuple := body.child[0]
	require.Equal(t, nTuple, tuple.kind)
	require.Len(t, tuple.child, 4)
	listCons := tuple.child[2]
	assert.Equal(t, nListCons, listCons.kind)
	mapLit := tuple.child[3]
	assert.Equal(t, nMapLit, mapLit.kind)
	require.Len(t, mapLit.child, 4) // 2 key/value pairs
	assert.Equal(t, nLiteralAtom, mapLit.child[0].kind)
	assert.Equal(t, "a", mapLit.child[0].ident)
}

func TestParseSource_StringInterpolation(t *testing.T) {
	root, err := parseSource([]byte(`
defmodule M do
  def greet(name) do
    "hello #{name}!"
  end
end
`))
	require.NoError(t, err)
	def := root.child[0].child[0]
	body := def.child[len(def.child)-1]
	strNode := body.child[0]
	require.Equal(t, nStringInterp, strNode.kind)
	require.Len(t, strNode.child, 3)
	assert.Equal(t, nLiteralString, strNode.child[0].kind)
	assert.Equal(t, "hello ", strNode.child[0].strVal)
	assert.Equal(t, nIdent, strNode.child[1].kind)
	assert.Equal(t, "name", strNode.child[1].ident)
	assert.Equal(t, "!", strNode.child[2].strVal)
}

func TestParseSource_Sigil(t *testing.T) {
	root, err := parseSource([]byte(`
defmodule M do
  def words() do
    ~w(one two three)
  end
end
`))
	require.NoError(t, err)
	def := root.child[0].child[0]
	body := def.child[len(def.child)-1]
	sigil := body.child[0]
	require.Equal(t, nSigil, sigil.kind)
	assert.Equal(t, "w", sigil.ident)
	assert.Equal(t, "one two three", sigil.strVal)
}

func TestParseSource_AnonFunctionLiteral(t *testing.T) {
	root, err := parseSource([]byte(`
defmodule M do
  def make() do
    fn x, y -> x + y end
  end
end
`))
	require.NoError(t, err)
	def := root.child[0].child[0]
	body := def.child[len(def.child)-1]
	fnNode := body.child[0]
	require.Equal(t, nAnonFunc, fnNode.kind)
	assert.Equal(t, []string{"x", "y"}, fnNode.params)
}

func TestParseSource_WithExpression(t *testing.T) {
	root, err := parseSource([]byte(`
defmodule M do
  def run(m) do
    with {:ok, v} <- Map.get(m, :a) do
      v
    else
      _ -> :missing
    end
  end
end
`))
	require.NoError(t, err)
	def := root.child[0].child[0]
	body := def.child[len(def.child)-1]
	withExpr := body.child[0]
	require.Equal(t, nWithExpr, withExpr.kind)
}

func TestParseSource_RejectsTrailingGarbage(t *testing.T) {
	_, err := parseSource([]byte("defmodule M do\nend\ngarbage"))
	assert.Error(t, err)
}

func TestParseSource_MissingEndErrors(t *testing.T) {
	_, err := parseSource([]byte("defmodule M do\n  def f(x) do\n    x\n"))
	assert.Error(t, err)
}

func TestParseSource_AliasImportRequireUseParse(t *testing.T) {
	root, err := parseSource([]byte(`
defmodule M do
  alias Foo.Bar
  import Baz
  require Qux
  use Quux
  def f() do
    1
  end
end
`))
	require.NoError(t, err)
	body := root.child[0]
	require.Len(t, body.child, 5)
	assert.Equal(t, nAlias, body.child[0].kind)
	assert.Equal(t, "Foo.Bar", body.child[0].ident)
	assert.Equal(t, nImport, body.child[1].kind)
	assert.Equal(t, nRequire, body.child[2].kind)
	assert.Equal(t, nUse, body.child[3].kind)
}

func TestParseSource_ModuleAttribute(t *testing.T) {
	root, err := parseSource([]byte(`
defmodule M do
  @moduledoc "does things"
  def f() do
    1
  end
end
`))
	require.NoError(t, err)
	body := root.child[0]
	attr := body.child[0]
	assert.Equal(t, nAttribute, attr.kind)
	assert.Equal(t, "moduledoc", attr.ident)
}
