package rbac

import "strings"

const (
	PermRunCreate = "run:create"
	PermRunView   = "run:view"
	PermRunExport = "run:export"
)

// Policy maps a role to the permission patterns it holds. A pattern is an
// exact permission, "*", or a prefix ending in "*" such as "run:*".
type Policy map[string][]string

// DefaultPolicy lets viewers read and export runs and graders do anything
// with runs.
var DefaultPolicy = Policy{
	"viewer": {PermRunView, PermRunExport},
	"grader": {"run:*"},
	"admin":  {"*"},
}

// Allows reports whether role holds perm.
func (p Policy) Allows(role, perm string) bool {
	for _, pattern := range p[role] {
		if prefix, wild := strings.CutSuffix(pattern, "*"); wild {
			if strings.HasPrefix(perm, prefix) {
				return true
			}
			continue
		}
		if pattern == perm {
			return true
		}
	}
	return false
}
