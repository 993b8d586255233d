package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type GrantRequest struct {
	PermissionID string `json:"permission_id" binding:"required"`
	Value        int    `json:"value" binding:"required,min=1,max=3"`
}

type SetRoleGrantsRequest struct {
	Grants []GrantRequest `json:"grants" binding:"required,dive"`
}

type GrantResponse struct {
	PermissionID string `json:"permission_id"`
	Module       string `json:"module"`
	Action       string `json:"action"`
	Value        int    `json:"value"`
}

type RoleResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	IsSystem    bool            `json:"is_system"`
	Grants      []GrantResponse `json:"grants"`
	CreatedAt   string          `json:"created_at"`
}

type PermissionResponse struct {
	ID          string `json:"id"`
	Module      string `json:"module"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, actorID string, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, actorID, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, actorID, id string) error
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	SetRoleGrants(ctx context.Context, actorID, roleID string, req SetRoleGrantsRequest) (*RoleResponse, error)
	SeedDefaults(ctx context.Context) error
}

type roleService struct {
	repo      repository.RoleRepository
	auditRepo repository.AuditRepository
}

func NewRoleService(repo repository.RoleRepository, auditRepo repository.AuditRepository) RoleService {
	return &roleService{repo: repo, auditRepo: auditRepo}
}

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		responses = append(responses, toRoleResponse(r))
	}
	return responses, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid role id")
	}
	role, err := s.repo.FindByID(ctx, roleID)
	if err != nil {
		return nil, errors.New("role not found")
	}
	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, actorID string, req CreateRoleRequest) (*RoleResponse, error) {
	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		return nil, errors.New("role name already exists")
	}

	role := &model.Role{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, err
	}

	s.audit(ctx, actorID, model.ActionCreateRole, role.ID.String(), role.Name)
	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) UpdateRole(ctx context.Context, actorID, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid role id")
	}
	role, err := s.repo.FindByID(ctx, roleID)
	if err != nil {
		return nil, errors.New("role not found")
	}
	if role.IsSystem {
		return nil, errors.New("system roles cannot be renamed")
	}

	if req.Name != role.Name {
		if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
			return nil, errors.New("role name already exists")
		}
		role.Name = req.Name
	}
	role.Description = req.Description

	if err := s.repo.Update(ctx, role); err != nil {
		return nil, err
	}

	s.audit(ctx, actorID, model.ActionUpdateRole, role.ID.String(), role.Name)
	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) DeleteRole(ctx context.Context, actorID, id string) error {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid role id")
	}
	role, err := s.repo.FindByID(ctx, roleID)
	if err != nil {
		return errors.New("role not found")
	}
	if role.IsSystem {
		return errors.New("system roles cannot be deleted")
	}

	s.invalidateHolders(ctx, roleID)
	if err := s.repo.Delete(ctx, roleID); err != nil {
		return err
	}
	s.audit(ctx, actorID, model.ActionDeleteRole, id, role.Name)
	return nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		responses = append(responses, PermissionResponse{
			ID:          p.ID.String(),
			Module:      p.Module,
			Action:      p.Action,
			Description: p.Description,
		})
	}
	return responses, nil
}

func (s *roleService) SetRoleGrants(ctx context.Context, actorID, roleID string, req SetRoleGrantsRequest) (*RoleResponse, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, errors.New("invalid role id")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, errors.New("role not found")
	}

	grants := make([]repository.Grant, 0, len(req.Grants))
	seen := make(map[string]bool, len(req.Grants))
	for _, g := range req.Grants {
		permID, err := uuid.Parse(g.PermissionID)
		if err != nil {
			return nil, errors.New("invalid permission id: " + g.PermissionID)
		}
		// One grant per permission; duplicates in the payload are a client bug
		if seen[g.PermissionID] {
			return nil, errors.New("duplicate grant for permission " + g.PermissionID)
		}
		seen[g.PermissionID] = true
		grants = append(grants, repository.Grant{PermissionID: permID, Value: g.Value})
	}

	if err := s.repo.SetGrants(ctx, id, grants); err != nil {
		return nil, err
	}

	// Every holder of this role now has a stale cached permission set
	s.invalidateHolders(ctx, id)
	s.audit(ctx, actorID, model.ActionSetRoleGrants, roleID, "")

	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) invalidateHolders(ctx context.Context, roleID uuid.UUID) {
	userIDs, err := s.repo.UserIDsWithRole(ctx, roleID)
	if err != nil {
		// Fall back to a full cache flush rather than serving stale grants
		middleware.ClearPermissionCache("")
		return
	}
	for _, id := range userIDs {
		middleware.ClearPermissionCache(id.String())
	}
}

func (s *roleService) audit(ctx context.Context, actorID, action, entityID, entityName string) {
	if s.auditRepo == nil {
		return
	}
	entry := &model.AuditLog{Action: action, EntityID: entityID, EntityName: entityName}
	if actor, err := uuid.Parse(actorID); err == nil {
		entry.UserID = &actor
	}
	_ = s.auditRepo.Log(ctx, entry)
}

// --- Seeding ---

// permissionCatalog is the global (module, action) catalog created once at
// boot. The wildcard pair covers every module and action at its grant level.
var permissionCatalog = []model.Permission{
	{Module: "users", Action: "read", Description: "View users"},
	{Module: "users", Action: "create", Description: "Create users"},
	{Module: "users", Action: "update", Description: "Edit users and assign roles"},
	{Module: "users", Action: "delete", Description: "Deactivate users"},
	{Module: "roles", Action: "read", Description: "View roles"},
	{Module: "roles", Action: "create", Description: "Create roles"},
	{Module: "roles", Action: "update", Description: "Edit roles and their grants"},
	{Module: "roles", Action: "delete", Description: "Delete roles"},
	{Module: "permissions", Action: "read", Description: "View the permission catalog"},
	{Module: "timeTracking", Action: "read", Description: "View work sessions"},
	{Module: "timeTracking", Action: "track", Description: "Start and stop own sessions and breaks"},
	{Module: "leave", Action: "read", Description: "View leave requests"},
	{Module: "leave", Action: "create", Description: "Request leave"},
	{Module: "leave", Action: "approve", Description: "Approve or reject leave"},
	{Module: "inventory", Action: "read", Description: "View inventory"},
	{Module: "inventory", Action: "create", Description: "Create inventory items"},
	{Module: "inventory", Action: "update", Description: "Edit items and record movements"},
	{Module: "inventory", Action: "delete", Description: "Remove inventory items"},
	{Module: "production", Action: "read", Description: "View production guides"},
	{Module: "production", Action: "create", Description: "Create guides and steps"},
	{Module: "production", Action: "update", Description: "Edit guides, steps, and log work"},
	{Module: "production", Action: "delete", Description: "Delete guides"},
	{Module: "auditLogs", Action: "read", Description: "View audit logs"},
	{Module: "quality", Action: "read", Description: "View quality checks"},
	{Module: "ocr", Action: "process", Description: "Run OCR processing"},
	{Module: "dashboard", Action: "read", Description: "View the dashboard"},
	{Module: "scheduling", Action: "read", Description: "View schedules"},
	{Module: "statistics", Action: "read", Description: "View statistics"},
	{Module: "chat", Action: "access", Description: "Use chat"},
	{Module: "notifications", Action: "manage", Description: "Create and schedule notifications"},
	{Module: "admin", Action: "access", Description: "Administrative access; level 2+ bypasses all checks"},
	{Module: "*", Action: "*", Description: "Wildcard grant covering every module and action"},
}

type seedGrant struct {
	module string
	action string
	value  int
}

// SeedDefaults creates the permission catalog and the built-in roles.
// Idempotent: existing rows are reused, grants are reasserted.
func (s *roleService) SeedDefaults(ctx context.Context) error {
	permByKey := make(map[string]model.Permission, len(permissionCatalog))
	for i := range permissionCatalog {
		perm := permissionCatalog[i]
		if err := s.repo.FindOrCreatePermission(ctx, &perm); err != nil {
			return fmt.Errorf("failed to seed permission '%s': %w", perm.Key(), err)
		}
		permByKey[perm.Key()] = perm
	}

	roleDefinitions := []struct {
		Name        string
		Description string
		Grants      []seedGrant
	}{
		{
			Name:        "admin",
			Description: "Administrator with full system access",
			Grants: []seedGrant{
				{"admin", "access", model.AccessLevelMax},
			},
		},
		{
			Name:        "manager",
			Description: "Manages people, production, inventory, and approvals",
			Grants: []seedGrant{
				{"users", "read", 2}, {"users", "update", 2},
				{"roles", "read", 1},
				{"timeTracking", "read", 2}, {"timeTracking", "track", 1},
				{"leave", "read", 2}, {"leave", "create", 1}, {"leave", "approve", 2},
				{"inventory", "read", 2}, {"inventory", "create", 2}, {"inventory", "update", 2},
				{"production", "read", 2}, {"production", "create", 2}, {"production", "update", 2},
				{"auditLogs", "read", 2},
				{"dashboard", "read", 1}, {"statistics", "read", 2},
				{"chat", "access", 1},
				{"notifications", "manage", 2},
			},
		},
		{
			Name:        "staff",
			Description: "Day-to-day production, time tracking, and chat",
			Grants: []seedGrant{
				{"timeTracking", "read", 1}, {"timeTracking", "track", 1},
				{"leave", "read", 1}, {"leave", "create", 1},
				{"inventory", "read", 1},
				{"production", "read", 1}, {"production", "update", 1},
				{"dashboard", "read", 1},
				{"chat", "access", 1},
			},
		},
	}

	for _, def := range roleDefinitions {
		role, err := s.repo.FindByName(ctx, def.Name)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role = &model.Role{
				Name:        def.Name,
				Description: def.Description,
				IsSystem:    true,
			}
			if err := s.repo.Create(ctx, role); err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", def.Name, err)
			}
		} else if err != nil {
			return err
		}

		grants := make([]repository.Grant, 0, len(def.Grants))
		for _, g := range def.Grants {
			perm, ok := permByKey[g.module+"."+g.action]
			if !ok {
				// A grant the catalog does not know about would silently
				// lock the role out of the guarded routes
				return fmt.Errorf("seed grant '%s.%s' for role '%s' is missing from the permission catalog", g.module, g.action, def.Name)
			}
			grants = append(grants, repository.Grant{PermissionID: perm.ID, Value: g.value})
		}
		if err := s.repo.SetGrants(ctx, role.ID, grants); err != nil {
			return fmt.Errorf("failed to assign grants to role '%s': %w", def.Name, err)
		}
	}

	return nil
}

// --- Helpers ---

func toRoleResponse(r model.Role) RoleResponse {
	grants := make([]GrantResponse, 0, len(r.Grants))
	for _, g := range r.Grants {
		grants = append(grants, GrantResponse{
			PermissionID: g.PermissionID.String(),
			Module:       g.Permission.Module,
			Action:       g.Permission.Action,
			Value:        g.Value,
		})
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Grants:      grants,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}
