package callwrap

import "context"

// DefaultTimeoutMillis is injected when Options carries no timeout.
const DefaultTimeoutMillis = 30000

// CallConfig is the trailing configuration argument handed to every
// CallFunc. Callers may pass one themselves (to set method, URL, payload or
// query params); Invoke merges the cancellation signal and timeout into it,
// overwriting any prior values. When the caller passes no config, Invoke
// appends a fresh one carrying only the injected fields.
type CallConfig struct {
	Method string
	URL    string
	Params map[string]string
	Data   interface{}

	// Injected by Invoke. Signal is cancelled when the host cancels the
	// invocation; the call is expected to observe it and abort.
	Signal        context.Context
	TimeoutMillis int
}

// configKeys is the recognized field-name set for map-shaped configs.
// A map carrying at least one of these is treated as a call configuration.
var configKeys = [...]string{"url", "method", "data", "params"}

// LooksLikeConfig reports whether v is a call-configuration argument:
// either a *CallConfig, or a map carrying at least one recognized key.
// A map with none of the recognized keys is NOT a config and gets a fresh
// config appended after it.
func LooksLikeConfig(v interface{}) bool {
	if _, ok := v.(*CallConfig); ok {
		return true
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return false
	}
	for _, k := range configKeys {
		if _, present := m[k]; present {
			return true
		}
	}
	return false
}

// configFromMap lifts a map-shaped config into a CallConfig.
// Unrecognized keys are dropped.
func configFromMap(m map[string]interface{}) *CallConfig {
	cfg := &CallConfig{}
	if v, ok := m["method"].(string); ok {
		cfg.Method = v
	}
	if v, ok := m["url"].(string); ok {
		cfg.URL = v
	}
	if v, ok := m["params"].(map[string]string); ok {
		cfg.Params = v
	}
	if v, ok := m["data"]; ok {
		cfg.Data = v
	}
	return cfg
}

// augmentArgs attaches the cancellation signal and timeout to the argument
// list: merged into the trailing config when the caller passed one, appended
// as a new trailing config otherwise. The input slice is never mutated.
func augmentArgs(args []interface{}, signal context.Context, timeoutMillis int) []interface{} {
	if n := len(args); n > 0 {
		last := args[n-1]
		if cfg, ok := last.(*CallConfig); ok {
			merged := *cfg
			merged.Signal = signal
			merged.TimeoutMillis = timeoutMillis
			out := make([]interface{}, n)
			copy(out, args)
			out[n-1] = &merged
			return out
		}
		if m, ok := last.(map[string]interface{}); ok && LooksLikeConfig(m) {
			cfg := configFromMap(m)
			cfg.Signal = signal
			cfg.TimeoutMillis = timeoutMillis
			out := make([]interface{}, n)
			copy(out, args)
			out[n-1] = cfg
			return out
		}
	}
	out := make([]interface{}, len(args)+1)
	copy(out, args)
	out[len(args)] = &CallConfig{Signal: signal, TimeoutMillis: timeoutMillis}
	return out
}
