package envvar

import (
	"regexp"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
)

var referencePattern = regexp.MustCompile(`\$(\w+|\{[^}]*\})`)

// Expander resolves $NAME, ${NAME} and a leading ~ against a fixed
// environment snapshot of the invoking process.
//
// References to variables that are not set are kept verbatim, so optional
// secrets can be left unset without failing a submission. A warning is logged
// whenever an expanded value still contains a '$'.
type Expander struct {
	env Env
}

func NewExpander(env Env) *Expander {
	if env == nil {
		env = Env{}
	}
	return &Expander{env: env}
}

// Expand returns s with variable references and a leading ~ expanded.
// Variables are expanded first so that a variable holding a ~ path is then
// expanded to the home directory.
func (e *Expander) Expand(s string) string {
	out := e.expandHome(e.expandVars(s))
	if strings.Contains(out, "$") {
		log.Warn().Str("value", out).
			Msg("value still contains a '$' after environment expansion; this may be an unset variable")
	}
	return out
}

// ExpandMap returns a copy of m with every value expanded. Keys are untouched.
func (e *Expander) ExpandMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = e.Expand(v)
	}
	return out
}

func (e *Expander) expandVars(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return referencePattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := strings.TrimPrefix(ref, "$")
		if strings.HasPrefix(name, "{") {
			name = strings.TrimSuffix(strings.TrimPrefix(name, "{"), "}")
		}
		if value, ok := e.env.Lookup(name); ok {
			return value
		}
		return ref
	})
}

// expandHome only handles "~" and "~/..."; "~user" forms are returned as is.
func (e *Expander) expandHome(s string) string {
	if !strings.HasPrefix(s, "~") {
		return s
	}
	rest := s[1:]
	if rest != "" && !strings.HasPrefix(rest, "/") {
		return s
	}
	home, ok := e.home()
	if !ok {
		return s
	}
	home = strings.TrimRight(home, "/")
	if out := home + rest; out != "" {
		return out
	}
	return "/"
}

func (e *Expander) home() (string, bool) {
	if home, ok := e.env.Lookup("HOME"); ok && home != "" {
		return home, true
	}
	home, err := homedir.Dir()
	if err != nil {
		log.Debug().Err(err).Msg("could not determine home directory")
		return "", false
	}
	return home, true
}
