package envvar

import (
	"os"
	"strings"

	"golang.org/x/exp/maps"
)

// Env is a point-in-time view of environment variables.
type Env map[string]string

// Snapshot captures the environment of the current process.
func Snapshot() Env {
	return FromSlice(os.Environ())
}

// FromSlice converts a KEY=VALUE slice, as returned by os.Environ, into an Env.
// Entries without '=' are ignored.
func FromSlice(env []string) Env {
	out := make(Env, len(env))
	for _, kv := range env {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// Lookup returns the value of key and whether it was set.
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// With returns a copy of the Env with the given overrides applied.
func (e Env) With(overrides map[string]string) Env {
	out := maps.Clone(e)
	if out == nil {
		out = make(Env, len(overrides))
	}
	maps.Copy(out, overrides)
	return out
}
