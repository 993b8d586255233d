// Package authz evaluates leveled (module, action) permission grants.
//
// A user's effective permissions are a flat map from "module.action" to an
// integer level, built by taking the maximum grant value across all of the
// user's roles. Authorization runs an ordered rule list so precedence is
// visible and testable instead of buried in lookup code.
package authz

import (
	"strings"

	"backend/internal/model"
)

const (
	// WildcardKey is the catch-all grant covering every module and action.
	WildcardKey = "*.*"

	// SuperuserKey grants an unconditional bypass of every check when held
	// at AccessLevelManage or above. Deliberately broad: review grants of
	// this permission the way you would review root access.
	SuperuserKey = "admin.access"
)

// PermissionSet maps "module.action" keys to effective access levels.
// A missing key means no access (level 0).
type PermissionSet map[string]int

// BuildSet reduces all grants across the given roles with max.
// The result is independent of role order.
func BuildSet(roles []model.Role) PermissionSet {
	set := make(PermissionSet)
	for _, role := range roles {
		for _, grant := range role.Grants {
			key := grant.Permission.Key()
			if grant.Value > set[key] {
				set[key] = grant.Value
			}
		}
	}
	return set
}

// Level returns the effective level for a key, 0 when absent.
func (s PermissionSet) Level(key string) int {
	return s[key]
}

// Decision is the outcome of evaluating a permission check.
type Decision struct {
	Granted bool
	Rule    string // name of the rule that decided
}

// Rule names reported in Decision.Rule.
const (
	RuleSuperuser = "superuser"
	RuleDirect    = "direct"
	RuleWildcard  = "wildcard"
	RuleDenied    = "denied"
)

// Evaluate runs the ordered rule list for (module, action, minLevel):
//
//  1. superuser: admin.access >= 2 grants everything
//  2. direct:    level("module.action") >= minLevel
//  3. wildcard:  level("*.*") >= minLevel
//  4. otherwise denied
func (s PermissionSet) Evaluate(module, action string, minLevel int) Decision {
	if minLevel < 1 {
		minLevel = 1
	}
	if s.Level(SuperuserKey) >= model.AccessLevelManage {
		return Decision{Granted: true, Rule: RuleSuperuser}
	}
	if s.Level(module+"."+action) >= minLevel {
		return Decision{Granted: true, Rule: RuleDirect}
	}
	if s.Level(WildcardKey) >= minLevel {
		return Decision{Granted: true, Rule: RuleWildcard}
	}
	return Decision{Rule: RuleDenied}
}

// HasPermission reports whether the set authorizes (module, action) at minLevel.
func (s PermissionSet) HasPermission(module, action string, minLevel int) bool {
	return s.Evaluate(module, action, minLevel).Granted
}

// HasKey is the combined-key form of HasPermission: "module.action" and the
// (module, action) pair normalize to the same check.
func (s PermissionSet) HasKey(key string, minLevel int) bool {
	module, action := SplitKey(key)
	return s.HasPermission(module, action, minLevel)
}

// SplitKey splits "module.action" at the first dot. A key without a dot is
// treated as a module with an empty action and will never match a grant.
func SplitKey(key string) (module, action string) {
	module, action, _ = strings.Cut(key, ".")
	return module, action
}
