package config

import (
	"fmt"
	"regexp"
	"strings"
)

// varPattern matches ${NAME} and ${NAME:-default}.
var varPattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)(?::-([^}]*))?\}`)

// LookupFunc resolves a variable name, reporting whether it is set.
// os.LookupEnv satisfies it.
type LookupFunc func(name string) (string, bool)

// UndefinedVariableError is returned when a ${NAME} reference has no value
// and no default.
type UndefinedVariableError struct {
	// Names is the list of undefined variable names, in order of appearance.
	Names []string
}

// Error implements the error interface.
func (e *UndefinedVariableError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("undefined variable: %s", e.Names[0])
	}
	return fmt.Sprintf("undefined variables: %s", strings.Join(e.Names, ", "))
}

// Expand replaces ${NAME} references in a config document before it is
// parsed. ${NAME:-fallback} uses fallback when NAME is unset. A bare $NAME is
// left alone so payload strings may contain dollar signs.
//
// Example:
//
//	journal:
//	  path: ${TICKLOOP_STATE:-/var/lib/tickloop}/journal.db
func Expand(data []byte, lookup LookupFunc) ([]byte, error) {
	if lookup == nil {
		return data, nil
	}
	var missing []string
	out := varPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		sub := varPattern.FindSubmatch(match)
		name := string(sub[1])
		if val, ok := lookup(name); ok {
			return []byte(val)
		}
		if hasDefault(match) {
			return sub[2]
		}
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 {
		return nil, &UndefinedVariableError{Names: missing}
	}
	return out, nil
}

func hasDefault(match []byte) bool {
	return strings.Contains(string(match), ":-")
}
