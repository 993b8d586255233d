package authz

import (
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grant(module, action string, value int) model.RolePermission {
	return model.RolePermission{
		PermissionID: uuid.New(),
		Permission:   model.Permission{ID: uuid.New(), Module: module, Action: action},
		Value:        value,
	}
}

func role(name string, grants ...model.RolePermission) model.Role {
	return model.Role{ID: uuid.New(), Name: name, Grants: grants}
}

func TestBuildSetTakesMaxAcrossRoles(t *testing.T) {
	a := role("viewer", grant("inventory", "read", 1))
	b := role("manager", grant("inventory", "read", 3), grant("inventory", "update", 2))

	set := BuildSet([]model.Role{a, b})
	assert.Equal(t, 3, set.Level("inventory.read"))
	assert.Equal(t, 2, set.Level("inventory.update"))
	assert.Equal(t, 0, set.Level("inventory.delete"))
}

func TestBuildSetIdempotentUnderRoleReordering(t *testing.T) {
	a := role("a", grant("production", "read", 2), grant("chat", "access", 1))
	b := role("b", grant("production", "read", 1), grant("users", "read", 3))

	forward := BuildSet([]model.Role{a, b})
	reversed := BuildSet([]model.Role{b, a})
	assert.Equal(t, forward, reversed)
}

func TestEvaluateDirectGrant(t *testing.T) {
	set := BuildSet([]model.Role{role("manager", grant("production", "read", 2))})

	d := set.Evaluate("production", "read", 2)
	require.True(t, d.Granted)
	assert.Equal(t, RuleDirect, d.Rule)

	// No grant for that pair at all
	d = set.Evaluate("production", "delete", 1)
	assert.False(t, d.Granted)
	assert.Equal(t, RuleDenied, d.Rule)
}

func TestEvaluateInsufficientLevelDenied(t *testing.T) {
	set := PermissionSet{"users.update": 1}
	assert.False(t, set.HasPermission("users", "update", 2))
	assert.True(t, set.HasPermission("users", "update", 1))
}

func TestSuperuserBypassesEverything(t *testing.T) {
	set := BuildSet([]model.Role{role("root", grant("admin", "access", 3))})

	d := set.Evaluate("anything", "whatsoever", 1)
	require.True(t, d.Granted)
	assert.Equal(t, RuleSuperuser, d.Rule)

	// Bypass also wins at the maximum requested level
	assert.True(t, set.HasPermission("roles", "delete", 3))
}

func TestSuperuserRequiresManageLevel(t *testing.T) {
	// admin.access at level 1 is an ordinary grant, not a bypass
	set := PermissionSet{"admin.access": 1}
	assert.False(t, set.HasPermission("users", "read", 1))
	assert.True(t, set.HasPermission("admin", "access", 1))
}

func TestSuperuserRuleCheckedBeforeDirectLookup(t *testing.T) {
	// An explicit deny-by-absence for the requested pair must not shadow
	// the bypass rule.
	set := PermissionSet{"admin.access": 2}
	d := set.Evaluate("ocr", "process", 3)
	assert.True(t, d.Granted)
	assert.Equal(t, RuleSuperuser, d.Rule)
}

func TestWildcardGrant(t *testing.T) {
	set := BuildSet([]model.Role{role("all", grant("*", "*", 2))})

	d := set.Evaluate("inventory", "delete", 2)
	require.True(t, d.Granted)
	assert.Equal(t, RuleWildcard, d.Rule)

	// Wildcard level still gates minLevel
	assert.False(t, set.HasPermission("inventory", "delete", 3))
}

func TestMinLevelDefaultsToBasic(t *testing.T) {
	set := PermissionSet{"chat.access": 1}
	assert.True(t, set.HasPermission("chat", "access", 0))
	assert.True(t, set.HasPermission("chat", "access", -5))
}

func TestHasKeyNormalizesCombinedForm(t *testing.T) {
	set := PermissionSet{"timeTracking.read": 2}
	assert.Equal(t, set.HasPermission("timeTracking", "read", 2), set.HasKey("timeTracking.read", 2))
	assert.False(t, set.HasKey("timeTracking", 1)) // no action part, never matches
}

func TestManagerScenario(t *testing.T) {
	// Manager granted production.read = 2 and no admin.access entry
	set := BuildSet([]model.Role{role("Manager", grant("production", "read", 2))})
	assert.True(t, set.HasPermission("production", "read", 2))
	assert.False(t, set.HasPermission("production", "delete", 1))
}
