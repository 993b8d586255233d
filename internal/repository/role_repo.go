package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Grant pairs a permission id with an access level when setting role grants
type Grant struct {
	PermissionID uuid.UUID
	Value        int
}

type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	ListAll(ctx context.Context) ([]model.Role, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	SetGrants(ctx context.Context, roleID uuid.UUID, grants []Grant) error
	FindOrCreatePermission(ctx context.Context, perm *model.Permission) error
	UserIDsWithRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error)
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Create(role).Error
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Save(role).Error
}

func (r *roleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("role_id = ?", id).Delete(&model.RolePermission{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Role{}).Error
}

func (r *roleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	err := GetDB(ctx, r.db).
		Preload("Grants.Permission").
		First(&role, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := GetDB(ctx, r.db).
		Preload("Grants.Permission").
		Where("name = ?", name).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) ListAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := GetDB(ctx, r.db).
		Preload("Grants.Permission").
		Order("created_at asc").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("module asc, action asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

// SetGrants replaces all grants of a role. One row per (role, permission);
// the level travels on the join row.
func (r *roleRepository) SetGrants(ctx context.Context, roleID uuid.UUID, grants []Grant) error {
	db := GetDB(ctx, r.db)
	var role model.Role
	if err := db.First(&role, "id = ?", roleID).Error; err != nil {
		return err
	}

	if err := db.Where("role_id = ?", roleID).Delete(&model.RolePermission{}).Error; err != nil {
		return err
	}

	if len(grants) == 0 {
		return nil
	}

	rows := make([]model.RolePermission, 0, len(grants))
	for _, g := range grants {
		value := g.Value
		if value < model.AccessLevelBasic {
			value = model.AccessLevelBasic
		}
		if value > model.AccessLevelMax {
			value = model.AccessLevelMax
		}
		rows = append(rows, model.RolePermission{
			RoleID:       roleID,
			PermissionID: g.PermissionID,
			Value:        value,
		})
	}
	return db.Create(&rows).Error
}

func (r *roleRepository) FindOrCreatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).
		Where("module = ? AND action = ?", perm.Module, perm.Action).
		FirstOrCreate(perm).Error
}

// UserIDsWithRole lists users holding the role, for permission-cache invalidation
func (r *roleRepository) UserIDsWithRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).
		Table("user_roles").
		Where("role_id = ?", roleID).
		Pluck("user_id", &ids).Error
	return ids, err
}
