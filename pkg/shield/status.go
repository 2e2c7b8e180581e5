package shield

import (
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/neoclaw-ai/cordon/internal/grants"
)

// Scope names a capability the host runtime's permission engine governs.
type Scope string

const (
	ScopeFSRead       Scope = "fs.read"
	ScopeFSWrite      Scope = "fs.write"
	ScopeNet          Scope = "net"
	ScopeWorker       Scope = "worker"
	ScopeChildProcess Scope = "child"
	ScopeWASI         Scope = "wasi"
	ScopeInspector    Scope = "inspector"
)

// Status answers capability queries for one process.
// Implementations must be immutable and safe for concurrent use.
type Status interface {
	Has(scope Scope, reference string) bool
}

type unrestricted struct{}

func (unrestricted) Has(Scope, string) bool { return true }

// Unrestricted is the status of a process with no enforcement engine.
var Unrestricted Status = unrestricted{}

var subsystemKinds = map[Scope]grants.Kind{
	ScopeWorker:       grants.KindWorker,
	ScopeChildProcess: grants.KindChildProcess,
	ScopeWASI:         grants.KindWASI,
	ScopeInspector:    grants.KindInspector,
}

// Granted evaluates queries against a compiled grant set the way the host
// runtime's permission engine does. A set without the permission switch
// means enforcement was never requested, which yields Unrestricted.
func Granted(set grants.Set) Status {
	if !set.Has(grants.Grant{Kind: grants.KindPermission}) {
		return Unrestricted
	}
	s := grantedStatus{
		reads:      set.Values(grants.KindFSRead),
		writes:     set.Values(grants.KindFSWrite),
		hosts:      set.Values(grants.KindNet),
		subsystems: make(map[grants.Kind]bool),
	}
	for _, kind := range subsystemKinds {
		s.subsystems[kind] = set.Has(grants.Grant{Kind: kind})
	}
	return s
}

type grantedStatus struct {
	reads      []string
	writes     []string
	hosts      []string
	subsystems map[grants.Kind]bool
}

// Has reports whether scope is granted for reference. An empty reference
// asks whether the whole scope is granted.
func (s grantedStatus) Has(scope Scope, reference string) bool {
	switch scope {
	case ScopeFSRead:
		return pathGranted(s.reads, reference)
	case ScopeFSWrite:
		return pathGranted(s.writes, reference)
	case ScopeNet:
		return hostGranted(s.hosts, reference)
	}
	if kind, ok := subsystemKinds[scope]; ok {
		return s.subsystems[kind]
	}
	return false
}

func pathGranted(allowed []string, reference string) bool {
	if reference == "" {
		return contains(allowed, "*")
	}
	target, err := filepath.Abs(reference)
	if err != nil {
		return false
	}
	for _, rule := range allowed {
		switch {
		case rule == "*":
			return true
		case strings.HasSuffix(rule, "*"):
			if strings.HasPrefix(target, strings.TrimSuffix(rule, "*")) {
				return true
			}
		case strings.HasSuffix(rule, string(os.PathSeparator)):
			dir := filepath.Clean(rule)
			if target == dir || strings.HasPrefix(target, rule) {
				return true
			}
		case target == filepath.Clean(rule):
			return true
		}
	}
	return false
}

func hostGranted(allowed []string, reference string) bool {
	if reference == "" {
		return contains(allowed, "*")
	}
	host, port := splitHost(reference)
	for _, rule := range allowed {
		if rule == "*" {
			return true
		}
		ruleHost, rulePort := splitHost(rule)
		if rulePort != "" && rulePort != port {
			continue
		}
		if matchHost(ruleHost, host) {
			return true
		}
	}
	return false
}

// splitHost accepts "host", "host:port", "[v6]:port", or a URL.
func splitHost(reference string) (string, string) {
	if strings.Contains(reference, "://") {
		if u, err := url.Parse(reference); err == nil {
			return strings.ToLower(u.Hostname()), u.Port()
		}
	}
	if host, port, err := net.SplitHostPort(reference); err == nil {
		return strings.ToLower(host), port
	}
	return strings.ToLower(strings.Trim(reference, "[]")), ""
}

func matchHost(rule, host string) bool {
	if suffix, ok := strings.CutPrefix(rule, "*."); ok {
		return strings.HasSuffix(host, "."+suffix)
	}
	return rule == host
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
