package interp

import (
	"fmt"
	"io"
	"os"
)

// Symbol is an unforgeable identifier for a module or function,
// minted through NewSymbol rather than accepted as a bare string at
// the call site. This keeps `module_id`/`function_id` distinct from
// the arbitrary string content of `code`: only `code` is untrusted
// user input.
type Symbol struct {
	name string
}

// NewSymbol mints a Symbol for use as a module_id or function_id.
func NewSymbol(name string) Symbol { return Symbol{name: name} }

func (s Symbol) String() string { return s.name }

// CallOptions controls per-call behavior of Eval.
type CallOptions struct {
	// Persistent controls whether a successfully compiled module is
	// left resident in the module cache (true, the default) or purged
	// immediately after the call returns (false).
	Persistent bool
}

// DefaultCallOptions returns persistent:true, the default behavior.
func DefaultCallOptions() CallOptions {
	return CallOptions{Persistent: true}
}

// Options configures an Interpreter: stream defaults plus one
// whitelist-widening switch, rather than a sprawling configuration
// object.
type Options struct {
	// Stdout, Stderr default to os.Stdout/io.Discard if nil. The
	// interpreter's own diagnostics (trace.go) go to Stderr; nothing
	// writes to Stdout. User code inside the sandbox has no IO builtins
	// admitted by the whitelist.
	Stdout, Stderr io.Writer

	// WhitelistOverlayPath, if set, is loaded via LoadWhitelistOverlay
	// and merged additively into the baked-in ALLOWED_MODULES table.
	WhitelistOverlayPath string
}

// Interpreter is the sandboxed evaluator: a fixed set of whitelist
// tables plus a module cache, with Eval as the single entry point
// running a module through lexical prefiltering, parsing, shape
// validation, name/arity matching, whitelist validation, and finally
// execution. A cache hit skips parsing and shape validation only;
// name/arity matching and whitelist validation run on every call.
type Interpreter struct {
	stdout io.Writer
	stderr io.Writer

	overlay    map[string]modulePolicy
	overlayErr error
	cache      *moduleCache
}

// New returns a new Interpreter. A configuration error in
// WhitelistOverlayPath is deferred: it surfaces from the first Eval
// call rather than from New, since New has no error return.
func New(options Options) *Interpreter {
	i := &Interpreter{
		stdout: options.Stdout,
		stderr: options.Stderr,
		cache:  newModuleCache(),
	}
	if i.stdout == nil {
		i.stdout = os.Stdout
	}
	if i.stderr == nil {
		i.stderr = io.Discard
	}
	if options.WhitelistOverlayPath != "" {
		overlay, err := LoadWhitelistOverlay(options.WhitelistOverlayPath)
		if err != nil {
			i.overlayErr = err
		} else {
			i.overlay = overlay
		}
	}
	return i
}

// Eval runs code through lexical prefiltering, parsing, shape
// validation, name/arity matching, whitelist validation, and finally
// execution, looking up the requested module/function by the
// unforgeable module and function Symbols, and returns the resulting
// Value or a public error. Execution never runs over an AST that has
// not passed every earlier validation stage in full.
func (interp *Interpreter) Eval(code []byte, module, function Symbol, args []Value, opts CallOptions) (result Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newRuntimeErr(fmt.Sprintf("internal error: %v", r))
		}
	}()

	if interp.overlayErr != nil {
		return nil, interp.overlayErr
	}

	if err := lexPrefilter(code); err != nil {
		return nil, err
	}

	arity := len(args)
	trace := newCallTrace(interp.stdout, interp.stderr)
	trace.logf("eval %s.%s/%d persistent=%v", module, function, arity, opts.Persistent)

	cm, err := interp.cache.getOrCompile(module.String(), func() (*compiledModule, error) {
		root, err := parseSource(code)
		if err != nil {
			return nil, err
		}
		if err := validateShape(root); err != nil {
			return nil, err
		}
		return &compiledModule{root: root, md: collectModuleDefs(root)}, nil
	})
	if err != nil {
		return nil, err
	}

	mf, err := matchModuleAndFunction(cm.root, cm.md, module.String(), function.String(), arity)
	if err != nil {
		if !opts.Persistent {
			interp.cache.purge(module.String())
		}
		return nil, err
	}

	v := newWhitelistValidator(cm.md, interp.overlay)
	if err := v.validateFunction(mf); err != nil {
		if !opts.Persistent {
			interp.cache.purge(module.String())
		}
		return nil, err
	}
	for _, attr := range moduleAttributes(cm.root) {
		if err := v.validateAttribute(attr); err != nil {
			if !opts.Persistent {
				interp.cache.purge(module.String())
			}
			return nil, err
		}
	}

	ctx := &execCtx{md: cm.md}
	result, err = ctx.evalFunction(mf, args)

	if !opts.Persistent {
		interp.cache.purge(module.String())
	}
	return result, err
}

// moduleAttributes collects the @attribute declarations at module
// top level, validated once per Eval call alongside the requested
// function.
func moduleAttributes(root *node) []*node {
	var attrs []*node
	for _, stmt := range root.child[0].child {
		if stmt.kind == nAttribute {
			attrs = append(attrs, stmt.child...)
		}
	}
	return attrs
}
