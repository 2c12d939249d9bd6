package interp

import "strings"

// stringFuncs is the String module's host surface. String.to_atom/1
// and String.to_existing_atom/1 are deliberately absent: they are
// denylisted by defaultAllowedModules and so never reach here.
var stringFuncs = map[string]hostFunc{
	"length/1":     stringLength,
	"upcase/1":     stringUpcase,
	"downcase/1":   stringDowncase,
	"trim/1":       stringTrim,
	"split/2":      stringSplit,
	"replace/3":    stringReplace,
	"contains?/2":  stringContains,
	"slice/2":      stringSlice2,
	"slice/3":      stringSlice3,
	"to_integer/1": stringToInteger,
	"to_float/1":   stringToFloat,
	"capitalize/1": stringCapitalize,
	"reverse/1":    stringReverse,
	"at/2":         stringAt,
}

func asString(v Value) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func stringLength(_ *execCtx, args []Value) (Value, error) {
	s, ok := asString(args[0])
	if !ok {
		return nil, newRuntimeErr("String.length/1: argument is not a binary")
	}
	return int64(len([]rune(s))), nil
}

func stringUpcase(_ *execCtx, args []Value) (Value, error) {
	s, ok := asString(args[0])
	if !ok {
		return nil, newRuntimeErr("String.upcase/1: argument is not a binary")
	}
	return strings.ToUpper(s), nil
}

func stringDowncase(_ *execCtx, args []Value) (Value, error) {
	s, ok := asString(args[0])
	if !ok {
		return nil, newRuntimeErr("String.downcase/1: argument is not a binary")
	}
	return strings.ToLower(s), nil
}

func stringTrim(_ *execCtx, args []Value) (Value, error) {
	s, ok := asString(args[0])
	if !ok {
		return nil, newRuntimeErr("String.trim/1: argument is not a binary")
	}
	return strings.TrimSpace(s), nil
}

func stringSplit(_ *execCtx, args []Value) (Value, error) {
	s, ok := asString(args[0])
	sep, sepOk := asString(args[1])
	if !ok || !sepOk {
		return nil, newRuntimeErr("String.split/2: arguments are not binaries")
	}
	parts := strings.Split(s, sep)
	out := make(List, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out, nil
}

func stringReplace(_ *execCtx, args []Value) (Value, error) {
	s, ok := asString(args[0])
	pat, patOk := asString(args[1])
	repl, replOk := asString(args[2])
	if !ok || !patOk || !replOk {
		return nil, newRuntimeErr("String.replace/3: arguments are not binaries")
	}
	return strings.ReplaceAll(s, pat, repl), nil
}

func stringContains(_ *execCtx, args []Value) (Value, error) {
	s, ok := asString(args[0])
	sub, subOk := asString(args[1])
	if !ok || !subOk {
		return nil, newRuntimeErr("String.contains?/2: arguments are not binaries")
	}
	return strings.Contains(s, sub), nil
}

func stringSlice2(_ *execCtx, args []Value) (Value, error) {
	s, ok := asString(args[0])
	start, startOk := asInt(args[1])
	if !ok || !startOk {
		return nil, newRuntimeErr("String.slice/2: bad arguments")
	}
	runes := []rune(s)
	start = normalizeIndex(start, len(runes))
	if start < 0 || int(start) >= len(runes) {
		return "", nil
	}
	return string(runes[start:]), nil
}

func stringSlice3(_ *execCtx, args []Value) (Value, error) {
	s, ok := asString(args[0])
	start, startOk := asInt(args[1])
	count, countOk := asInt(args[2])
	if !ok || !startOk || !countOk {
		return nil, newRuntimeErr("String.slice/3: bad arguments")
	}
	runes := []rune(s)
	start = normalizeIndex(start, len(runes))
	if start < 0 || int(start) >= len(runes) || count <= 0 {
		return "", nil
	}
	end := int(start) + int(count)
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end]), nil
}

func normalizeIndex(i int64, length int) int64 {
	if i < 0 {
		return int64(length) + i
	}
	return i
}

func stringToInteger(_ *execCtx, args []Value) (Value, error) {
	s, ok := asString(args[0])
	if !ok {
		return nil, newRuntimeErr("String.to_integer/1: argument is not a binary")
	}
	n, err := parseIntLiteral(strings.TrimSpace(s))
	if err != nil {
		return nil, newRuntimeErr("String.to_integer/1: not a valid integer")
	}
	return n, nil
}

func stringToFloat(_ *execCtx, args []Value) (Value, error) {
	s, ok := asString(args[0])
	if !ok {
		return nil, newRuntimeErr("String.to_float/1: argument is not a binary")
	}
	f, err := parseFloatLiteral(strings.TrimSpace(s))
	if err != nil {
		return nil, newRuntimeErr("String.to_float/1: not a valid float")
	}
	return f, nil
}

func stringCapitalize(_ *execCtx, args []Value) (Value, error) {
	s, ok := asString(args[0])
	if !ok {
		return nil, newRuntimeErr("String.capitalize/1: argument is not a binary")
	}
	if s == "" {
		return s, nil
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes), nil
}

func stringReverse(_ *execCtx, args []Value) (Value, error) {
	s, ok := asString(args[0])
	if !ok {
		return nil, newRuntimeErr("String.reverse/1: argument is not a binary")
	}
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes), nil
}

func stringAt(_ *execCtx, args []Value) (Value, error) {
	s, ok := asString(args[0])
	idx, idxOk := asInt(args[1])
	if !ok || !idxOk {
		return nil, newRuntimeErr("String.at/2: bad arguments")
	}
	runes := []rune(s)
	idx = normalizeIndex(idx, len(runes))
	if idx < 0 || int(idx) >= len(runes) {
		return nil, nil
	}
	return string(runes[idx]), nil
}
