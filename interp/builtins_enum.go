package interp

import "sort"

// enumFuncs is the Enum module's host surface, admitted in full by
// defaultAllowedModules' all_functions policy. Every function taking a
// callback expects a *Closure in that argument position — the only
// way a user program can produce one is an `fn` literal or a `&`
// capture, both already validated by V before R ever runs.
var enumFuncs = map[string]hostFunc{
	"map/2":     enumMap,
	"filter/2":  enumFilter,
	"reduce/3":  enumReduce,
	"sum/1":     enumSum,
	"count/1":   enumCount,
	"sort/1":    enumSort,
	"reverse/1": enumReverse,
	"at/2":      enumAt,
	"member?/2": enumMember,
	"each/2":    enumEach,
	"into/2":    enumInto,
	"max/1":     enumMax,
	"min/1":     enumMin,
	"uniq/1":    enumUniq,
	"zip/2":     enumZip,
	"take/2":    enumTake,
	"drop/2":    enumDrop,
	"find/2":    enumFind,
	"concat/1":  enumConcat,
	"join/2":    enumJoin,
}

func asList(v Value) (List, bool) {
	l, ok := v.(List)
	return l, ok
}

func asClosure(v Value) (*Closure, bool) {
	c, ok := v.(*Closure)
	return c, ok
}

func enumMap(ctx *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	fn, fnOk := asClosure(args[1])
	if !ok || !fnOk {
		return nil, newRuntimeErr("Enum.map/2: bad arguments")
	}
	out := make(List, len(l))
	for i, e := range l {
		v, err := fn.call(ctx, []Value{e})
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func enumFilter(ctx *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	fn, fnOk := asClosure(args[1])
	if !ok || !fnOk {
		return nil, newRuntimeErr("Enum.filter/2: bad arguments")
	}
	var out List
	for _, e := range l {
		v, err := fn.call(ctx, []Value{e})
		if err != nil {
			return nil, err
		}
		if isTruthy(v) {
			out = append(out, e)
		}
	}
	return out, nil
}

func enumReduce(ctx *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	acc := args[1]
	fn, fnOk := asClosure(args[2])
	if !ok || !fnOk {
		return nil, newRuntimeErr("Enum.reduce/3: bad arguments")
	}
	for _, e := range l {
		v, err := fn.call(ctx, []Value{e, acc})
		if err != nil {
			return nil, err
		}
		acc = v
	}
	return acc, nil
}

func enumSum(_ *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	if !ok {
		return nil, newRuntimeErr("Enum.sum/1: argument is not a list")
	}
	var iTotal int64
	var fTotal float64
	isFloat := false
	for _, e := range l {
		switch x := e.(type) {
		case int64:
			iTotal += x
		case float64:
			isFloat = true
			fTotal += x
		default:
			return nil, newRuntimeErr("Enum.sum/1: element is not a number")
		}
	}
	if isFloat {
		return fTotal + float64(iTotal), nil
	}
	return iTotal, nil
}

func enumCount(_ *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	if !ok {
		return nil, newRuntimeErr("Enum.count/1: argument is not a list")
	}
	return int64(len(l)), nil
}

func enumSort(_ *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	if !ok {
		return nil, newRuntimeErr("Enum.sort/1: argument is not a list")
	}
	out := append(List{}, l...)
	sort.SliceStable(out, func(i, j int) bool { return compareValues(out[i], out[j]) < 0 })
	return out, nil
}

func enumReverse(_ *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	if !ok {
		return nil, newRuntimeErr("Enum.reverse/1: argument is not a list")
	}
	out := make(List, len(l))
	for i, e := range l {
		out[len(l)-1-i] = e
	}
	return out, nil
}

func enumAt(_ *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	idx, idxOk := asInt(args[1])
	if !ok || !idxOk {
		return nil, newRuntimeErr("Enum.at/2: bad arguments")
	}
	idx = normalizeIndex(idx, len(l))
	if idx < 0 || int(idx) >= len(l) {
		return nil, nil
	}
	return l[idx], nil
}

func enumMember(_ *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	if !ok {
		return nil, newRuntimeErr("Enum.member?/2: argument is not a list")
	}
	for _, e := range l {
		if valuesEqual(e, args[1]) {
			return true, nil
		}
	}
	return false, nil
}

func enumEach(ctx *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	fn, fnOk := asClosure(args[1])
	if !ok || !fnOk {
		return nil, newRuntimeErr("Enum.each/2: bad arguments")
	}
	for _, e := range l {
		if _, err := fn.call(ctx, []Value{e}); err != nil {
			return nil, err
		}
	}
	return Atom("ok"), nil
}

func enumInto(_ *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	if !ok {
		return nil, newRuntimeErr("Enum.into/2: argument is not a list")
	}
	switch collectable := args[1].(type) {
	case *Map:
		out := collectable
		for _, e := range l {
			t, ok := e.(Tuple)
			if !ok || len(t) != 2 {
				return nil, newRuntimeErr("Enum.into/2: element is not a {key, value} pair")
			}
			out = out.Put(t[0], t[1])
		}
		return out, nil
	case List:
		return append(append(List{}, collectable...), l...), nil
	default:
		return nil, newRuntimeErr("Enum.into/2: unsupported collectable")
	}
}

func enumMax(_ *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	if !ok || len(l) == 0 {
		return nil, newRuntimeErr("Enum.max/1: argument is not a non-empty list")
	}
	best := l[0]
	for _, e := range l[1:] {
		if compareValues(e, best) > 0 {
			best = e
		}
	}
	return best, nil
}

func enumMin(_ *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	if !ok || len(l) == 0 {
		return nil, newRuntimeErr("Enum.min/1: argument is not a non-empty list")
	}
	best := l[0]
	for _, e := range l[1:] {
		if compareValues(e, best) < 0 {
			best = e
		}
	}
	return best, nil
}

func enumUniq(_ *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	if !ok {
		return nil, newRuntimeErr("Enum.uniq/1: argument is not a list")
	}
	seen := map[string]bool{}
	var out List
	for _, e := range l {
		k := canonicalKey(e)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out, nil
}

func enumZip(_ *execCtx, args []Value) (Value, error) {
	a, aok := asList(args[0])
	b, bok := asList(args[1])
	if !aok || !bok {
		return nil, newRuntimeErr("Enum.zip/2: arguments are not lists")
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make(List, n)
	for i := 0; i < n; i++ {
		out[i] = Tuple{a[i], b[i]}
	}
	return out, nil
}

func enumTake(_ *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	n, nOk := asInt(args[1])
	if !ok || !nOk {
		return nil, newRuntimeErr("Enum.take/2: bad arguments")
	}
	if n < 0 {
		n = 0
	}
	if int(n) > len(l) {
		n = int64(len(l))
	}
	return append(List{}, l[:n]...), nil
}

func enumDrop(_ *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	n, nOk := asInt(args[1])
	if !ok || !nOk {
		return nil, newRuntimeErr("Enum.drop/2: bad arguments")
	}
	if n < 0 {
		n = 0
	}
	if int(n) > len(l) {
		n = int64(len(l))
	}
	return append(List{}, l[n:]...), nil
}

func enumFind(ctx *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	fn, fnOk := asClosure(args[1])
	if !ok || !fnOk {
		return nil, newRuntimeErr("Enum.find/2: bad arguments")
	}
	for _, e := range l {
		v, err := fn.call(ctx, []Value{e})
		if err != nil {
			return nil, err
		}
		if isTruthy(v) {
			return e, nil
		}
	}
	return nil, nil
}

func enumConcat(_ *execCtx, args []Value) (Value, error) {
	lists, ok := asList(args[0])
	if !ok {
		return nil, newRuntimeErr("Enum.concat/1: argument is not a list")
	}
	var out List
	for _, e := range lists {
		l, ok := e.(List)
		if !ok {
			return nil, newRuntimeErr("Enum.concat/1: element is not a list")
		}
		out = append(out, l...)
	}
	return out, nil
}

func enumJoin(_ *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	sep, sepOk := asString(args[1])
	if !ok || !sepOk {
		return nil, newRuntimeErr("Enum.join/2: bad arguments")
	}
	out := ""
	for i, e := range l {
		if i > 0 {
			out += sep
		}
		out += DisplayString(e)
	}
	return out, nil
}
