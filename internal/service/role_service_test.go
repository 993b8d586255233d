package service

import (
	"context"
	"testing"

	"backend/internal/authz"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memRoleRepo struct {
	roles    map[uuid.UUID]*model.Role
	permByID map[uuid.UUID]*model.Permission
	perms    map[string]*model.Permission // "module.action" -> permission
	grants   map[uuid.UUID][]repository.Grant
}

func newMemRoleRepo() *memRoleRepo {
	return &memRoleRepo{
		roles:    map[uuid.UUID]*model.Role{},
		permByID: map[uuid.UUID]*model.Permission{},
		perms:    map[string]*model.Permission{},
		grants:   map[uuid.UUID][]repository.Grant{},
	}
}

func (r *memRoleRepo) Create(_ context.Context, role *model.Role) error {
	role.ID = uuid.New()
	copied := *role
	r.roles[role.ID] = &copied
	return nil
}

func (r *memRoleRepo) Update(_ context.Context, role *model.Role) error {
	copied := *role
	r.roles[role.ID] = &copied
	return nil
}

func (r *memRoleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.roles, id)
	delete(r.grants, id)
	return nil
}

func (r *memRoleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *role
	return &copied, nil
}

func (r *memRoleRepo) FindByName(_ context.Context, name string) (*model.Role, error) {
	for _, role := range r.roles {
		if role.Name == name {
			copied := *role
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRoleRepo) ListAll(_ context.Context) ([]model.Role, error) {
	out := make([]model.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (r *memRoleRepo) ListPermissions(_ context.Context) ([]model.Permission, error) {
	out := make([]model.Permission, 0, len(r.perms))
	for _, perm := range r.perms {
		out = append(out, *perm)
	}
	return out, nil
}

func (r *memRoleRepo) SetGrants(_ context.Context, roleID uuid.UUID, grants []repository.Grant) error {
	r.grants[roleID] = append([]repository.Grant(nil), grants...)
	return nil
}

func (r *memRoleRepo) FindOrCreatePermission(_ context.Context, perm *model.Permission) error {
	if existing, ok := r.perms[perm.Key()]; ok {
		perm.ID = existing.ID
		return nil
	}
	perm.ID = uuid.New()
	copied := *perm
	r.perms[perm.Key()] = &copied
	r.permByID[perm.ID] = &copied
	return nil
}

func (r *memRoleRepo) UserIDsWithRole(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

// effectiveSet rebuilds the permission set a holder of the named role would
// carry, the same way the middleware aggregates it.
func (r *memRoleRepo) effectiveSet(t *testing.T, name string) authz.PermissionSet {
	t.Helper()
	role, err := r.FindByName(context.Background(), name)
	require.NoError(t, err)
	for _, g := range r.grants[role.ID] {
		perm, ok := r.permByID[g.PermissionID]
		require.True(t, ok, "grant references unknown permission")
		role.Grants = append(role.Grants, model.RolePermission{
			RoleID:       role.ID,
			PermissionID: g.PermissionID,
			Permission:   *perm,
			Value:        g.Value,
		})
	}
	return authz.BuildSet([]model.Role{*role})
}

func seedRoles(t *testing.T) *memRoleRepo {
	t.Helper()
	repo := newMemRoleRepo()
	svc := NewRoleService(repo, nil)
	require.NoError(t, svc.SeedDefaults(context.Background()))
	return repo
}

func TestSeededStaffPassesRouteGuards(t *testing.T) {
	staff := seedRoles(t).effectiveSet(t, "staff")

	// the keys the time-tracking routes check
	assert.True(t, staff.HasPermission("timeTracking", "track", model.AccessLevelBasic))
	assert.True(t, staff.HasPermission("timeTracking", "read", model.AccessLevelBasic))

	assert.True(t, staff.HasPermission("leave", "create", model.AccessLevelBasic))
	assert.True(t, staff.HasPermission("leave", "read", model.AccessLevelBasic))
	assert.True(t, staff.HasPermission("chat", "access", model.AccessLevelBasic))
	assert.True(t, staff.HasPermission("dashboard", "read", model.AccessLevelBasic))

	assert.False(t, staff.HasPermission("users", "read", model.AccessLevelBasic))
	assert.False(t, staff.HasPermission("leave", "approve", model.AccessLevelManage))
}

func TestSeededManagerPassesRouteGuards(t *testing.T) {
	manager := seedRoles(t).effectiveSet(t, "manager")

	assert.True(t, manager.HasPermission("timeTracking", "track", model.AccessLevelBasic))
	assert.True(t, manager.HasPermission("timeTracking", "read", model.AccessLevelManage))
	assert.True(t, manager.HasPermission("leave", "approve", model.AccessLevelManage))
	assert.True(t, manager.HasPermission("auditLogs", "read", model.AccessLevelManage))

	// the overview route accepts either grant; manager holds both
	assert.True(t, manager.HasPermission("dashboard", "read", model.AccessLevelBasic))
	assert.True(t, manager.HasPermission("statistics", "read", model.AccessLevelBasic))

	assert.False(t, manager.HasPermission("roles", "update", model.AccessLevelManage))
}

func TestSeededAdminBypassesEverything(t *testing.T) {
	admin := seedRoles(t).effectiveSet(t, "admin")

	assert.True(t, admin.HasPermission("users", "delete", model.AccessLevelMax))
	assert.True(t, admin.HasPermission("timeTracking", "track", model.AccessLevelBasic))
	assert.True(t, admin.HasPermission("anything", "at-all", model.AccessLevelMax))
}

func TestSeedIsIdempotent(t *testing.T) {
	repo := newMemRoleRepo()
	svc := NewRoleService(repo, nil)
	require.NoError(t, svc.SeedDefaults(context.Background()))
	require.NoError(t, svc.SeedDefaults(context.Background()))

	assert.Len(t, repo.roles, 3)
	assert.Len(t, repo.perms, len(permissionCatalog))
}
