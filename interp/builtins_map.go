package interp

// mapFuncs is the Map module's host surface (policyAllFunctions).
var mapFuncs = map[string]hostFunc{
	"get/2":     mapGet2,
	"get/3":     mapGet3,
	"put/3":     mapPut,
	"delete/2":  mapDelete,
	"keys/1":    mapKeys,
	"values/1":  mapValues,
	"has_key?/2": mapHasKey,
	"merge/2":   mapMerge,
	"to_list/1": mapToList,
	"from_list/1": mapFromList,
	"update/4":  mapUpdate,
	"size/1":    mapSizeFn,
}

// accessFuncs is the Access module's host surface: exactly Access.get/2
// per the single-function policy in defaultAllowedModules.
var accessFuncs = map[string]hostFunc{
	"get/2": mapGet2,
}

func asMap(v Value) (*Map, bool) {
	m, ok := v.(*Map)
	return m, ok
}

func mapGet2(_ *execCtx, args []Value) (Value, error) {
	m, ok := asMap(args[0])
	if !ok {
		return nil, newRuntimeErr("Map.get/2: argument is not a map")
	}
	if v, ok := m.Get(args[1]); ok {
		return v, nil
	}
	return nil, nil
}

func mapGet3(_ *execCtx, args []Value) (Value, error) {
	m, ok := asMap(args[0])
	if !ok {
		return nil, newRuntimeErr("Map.get/3: argument is not a map")
	}
	if v, ok := m.Get(args[1]); ok {
		return v, nil
	}
	return args[2], nil
}

func mapPut(_ *execCtx, args []Value) (Value, error) {
	m, ok := asMap(args[0])
	if !ok {
		return nil, newRuntimeErr("Map.put/3: argument is not a map")
	}
	return m.Put(args[1], args[2]), nil
}

func mapDelete(_ *execCtx, args []Value) (Value, error) {
	m, ok := asMap(args[0])
	if !ok {
		return nil, newRuntimeErr("Map.delete/2: argument is not a map")
	}
	return m.Delete(args[1]), nil
}

func mapKeys(_ *execCtx, args []Value) (Value, error) {
	m, ok := asMap(args[0])
	if !ok {
		return nil, newRuntimeErr("Map.keys/1: argument is not a map")
	}
	return List(m.Keys()), nil
}

func mapValues(_ *execCtx, args []Value) (Value, error) {
	m, ok := asMap(args[0])
	if !ok {
		return nil, newRuntimeErr("Map.values/1: argument is not a map")
	}
	return List(m.Values()), nil
}

func mapHasKey(_ *execCtx, args []Value) (Value, error) {
	m, ok := asMap(args[0])
	if !ok {
		return nil, newRuntimeErr("Map.has_key?/2: argument is not a map")
	}
	_, found := m.Get(args[1])
	return found, nil
}

func mapMerge(_ *execCtx, args []Value) (Value, error) {
	a, aok := asMap(args[0])
	b, bok := asMap(args[1])
	if !aok || !bok {
		return nil, newRuntimeErr("Map.merge/2: arguments are not maps")
	}
	out := a
	for _, p := range b.Pairs() {
		out = out.Put(p[0], p[1])
	}
	return out, nil
}

func mapToList(_ *execCtx, args []Value) (Value, error) {
	m, ok := asMap(args[0])
	if !ok {
		return nil, newRuntimeErr("Map.to_list/1: argument is not a map")
	}
	pairs := m.Pairs()
	out := make(List, len(pairs))
	for i, p := range pairs {
		out[i] = Tuple{p[0], p[1]}
	}
	return out, nil
}

func mapFromList(_ *execCtx, args []Value) (Value, error) {
	l, ok := asList(args[0])
	if !ok {
		return nil, newRuntimeErr("Map.from_list/1: argument is not a list")
	}
	out := NewMap()
	for _, e := range l {
		t, ok := e.(Tuple)
		if !ok || len(t) != 2 {
			return nil, newRuntimeErr("Map.from_list/1: element is not a {key, value} pair")
		}
		out = out.Put(t[0], t[1])
	}
	return out, nil
}

func mapUpdate(ctx *execCtx, args []Value) (Value, error) {
	m, ok := asMap(args[0])
	fn, fnOk := asClosure(args[3])
	if !ok || !fnOk {
		return nil, newRuntimeErr("Map.update/4: bad arguments")
	}
	if v, found := m.Get(args[1]); found {
		nv, err := fn.call(ctx, []Value{v})
		if err != nil {
			return nil, err
		}
		return m.Put(args[1], nv), nil
	}
	return m.Put(args[1], args[2]), nil
}

func mapSizeFn(_ *execCtx, args []Value) (Value, error) {
	m, ok := asMap(args[0])
	if !ok {
		return nil, newRuntimeErr("Map.size/1: argument is not a map")
	}
	return int64(m.Size()), nil
}
