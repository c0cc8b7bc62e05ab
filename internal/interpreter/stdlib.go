package interpreter

import (
	"time"
)

// registerStdlib installs the small set of native functions every
// Wisp program gets for free: a clock for benchmarking scripts, and a
// handful of introspection and printing helpers (str, type, pprint).
func registerStdlib(globals *Environment) {
	globals.Define("clock", newNativeFunction("clock", 0, func(_ *Interpreter, _ []any) (any, error) {
		return float64(time.Now().UnixMilli()) / 1000.0, nil
	}))

	globals.Define("str", newNativeFunction("str", 1, func(_ *Interpreter, args []any) (any, error) {
		return stringify(args[0]), nil
	}))

	globals.Define("type", newNativeFunction("type", 1, func(_ *Interpreter, args []any) (any, error) {
		return typeName(args[0]), nil
	}))

	globals.Define("pprint", newNativeFunction("pprint", ArityVarArgs, func(in *Interpreter, args []any) (any, error) {
		for i, a := range args {
			if i > 0 {
				in.stdout.Write([]byte(" "))
			}
			in.stdout.Write([]byte(stringify(a)))
		}
		in.stdout.Write([]byte("\n"))
		return nil, nil
	}))
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "nil"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case *Class:
		return "class"
	case *Instance:
		return "instance"
	case Callable:
		return "function"
	default:
		return "unknown"
	}
}
