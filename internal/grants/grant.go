// Package grants compiles a capability configuration into the ordered set of
// permission grants handed to the host runtime's permission engine.
package grants

import "strings"

// Kind identifies the capability a Grant authorizes.
type Kind string

const (
	// KindPermission switches the host runtime's permission engine on.
	KindPermission Kind = "permission"
	// KindImport preloads a module before the entry script, used for the transpiling loader.
	KindImport       Kind = "import"
	KindWorker       Kind = "worker"
	KindChildProcess Kind = "child-process"
	KindWASI         Kind = "wasi"
	KindInspector    Kind = "inspector"
	KindFSRead       Kind = "fs-read"
	KindFSWrite      Kind = "fs-write"
	KindNet          Kind = "net"
)

// Grant is one (kind, scope) authorization unit.
// Value is empty for subsystem toggles.
type Grant struct {
	Kind  Kind   `json:"kind" yaml:"kind"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// String returns the grant as "kind" or "kind=value".
func (g Grant) String() string {
	if g.Value == "" {
		return string(g.Kind)
	}
	return string(g.Kind) + "=" + g.Value
}

// Flag renders the grant as a host runtime command-line flag.
func (g Grant) Flag() string {
	switch g.Kind {
	case KindPermission:
		return "--permission"
	case KindImport:
		return "--import=" + g.Value
	case KindFSRead:
		return "--allow-fs-read=" + g.Value
	case KindFSWrite:
		return "--allow-fs-write=" + g.Value
	case KindNet:
		return "--allow-net=" + g.Value
	default:
		return "--allow-" + string(g.Kind)
	}
}

// ParseFlag is the inverse of Flag. It reports false for flags that are not grants.
func ParseFlag(flag string) (Grant, bool) {
	name, value, hasValue := strings.Cut(flag, "=")
	switch name {
	case "--permission":
		return Grant{Kind: KindPermission}, !hasValue
	case "--import":
		return Grant{Kind: KindImport, Value: value}, hasValue
	case "--allow-fs-read":
		return Grant{Kind: KindFSRead, Value: value}, hasValue
	case "--allow-fs-write":
		return Grant{Kind: KindFSWrite, Value: value}, hasValue
	case "--allow-net":
		return Grant{Kind: KindNet, Value: value}, hasValue
	}
	for _, kind := range []Kind{KindWorker, KindChildProcess, KindWASI, KindInspector} {
		if name == "--allow-"+string(kind) && !hasValue {
			return Grant{Kind: kind}, true
		}
	}
	return Grant{}, false
}

// Set is an ordered, de-duplicated, read-only collection of grants.
type Set struct {
	grants []Grant
}

// NewSet builds a Set from grants, dropping repeats while keeping first positions.
func NewSet(grants ...Grant) Set {
	seen := make(map[Grant]struct{}, len(grants))
	out := make([]Grant, 0, len(grants))
	for _, g := range grants {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return Set{grants: out}
}

// Grants returns a copy of the grants in emission order.
func (s Set) Grants() []Grant {
	return append([]Grant(nil), s.grants...)
}

// Len returns the number of grants.
func (s Set) Len() int {
	return len(s.grants)
}

// Has reports whether the set contains g.
func (s Set) Has(g Grant) bool {
	for _, existing := range s.grants {
		if existing == g {
			return true
		}
	}
	return false
}

// Values returns the values of every grant of kind, in order.
func (s Set) Values(kind Kind) []string {
	var values []string
	for _, g := range s.grants {
		if g.Kind == kind {
			values = append(values, g.Value)
		}
	}
	return values
}

// Args renders the set as host runtime flags, one per grant.
func (s Set) Args() []string {
	args := make([]string, 0, len(s.grants))
	for _, g := range s.grants {
		args = append(args, g.Flag())
	}
	return args
}
