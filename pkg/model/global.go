package model

// Global maps a category to its variables. Variable values may themselves be
// nested maps; they are merged recursively like categories are.
type Global map[string]map[string]any

// Default global categories and variables.
const (
	CategoryValidation       = "validation"
	VariableValidateOnNext   = "validateOnNextPage"
	CategoryDebug            = "debug"
	VariableDebugMode        = "debugMode"
	changeGlobalNotification = "changeglobal"
)

// DefaultGlobal returns a fresh copy of the default global configuration.
func DefaultGlobal() Global {
	return Global{
		CategoryValidation: {VariableValidateOnNext: true},
		CategoryDebug:      {VariableDebugMode: false},
	}
}

// MergeGlobal returns a new Global holding every leaf of defaults overlaid by
// every leaf of current. Neither argument is modified.
func MergeGlobal(defaults, current Global) Global {
	out := make(Global, len(defaults)+len(current))
	for category, vars := range defaults {
		out[category] = mergeMaps(out[category], vars)
	}
	for category, vars := range current {
		out[category] = mergeMaps(out[category], vars)
	}
	return out
}

// Clone deep-copies g.
func (g Global) Clone() Global {
	if g == nil {
		return nil
	}
	return MergeGlobal(nil, g)
}

func mergeMaps(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]any)
		if !srcIsMap {
			dst[key] = copyValue(value)
			continue
		}
		dstMap, dstIsMap := dst[key].(map[string]any)
		if !dstIsMap {
			dstMap = nil
		}
		dst[key] = mergeMaps(dstMap, srcMap)
	}
	return dst
}

func copyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return mergeMaps(nil, v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
