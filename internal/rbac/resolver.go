// Package rbac resolves effective permissions and manages roles and their
// assignments. Every check re-queries the store; there is no cache, so
// staleness is bounded to zero at the cost of a query per check.
package rbac

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"rbacadmin/internal/models"
)

// Resolver computes a principal's effective permission set from active
// role assignments.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// EffectivePermissions returns the de-duplicated permission set reachable
// from the user's active assignments to active roles, ordered by id.
// Superusers get the whole permission universe without walking the graph.
func (r *Resolver) EffectivePermissions(ctx context.Context, u *models.User) ([]models.Permission, error) {
	if u.IsSuperuser {
		var all []models.Permission
		if err := r.db.WithContext(ctx).Order("id").Find(&all).Error; err != nil {
			return nil, err
		}
		return all, nil
	}

	assignments, err := r.activeAssignments(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{})
	var perms []models.Permission
	for _, ur := range assignments {
		if ur.Role == nil || !ur.Role.IsActive {
			continue
		}
		for _, p := range ur.Role.Permissions {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			perms = append(perms, p)
		}
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].ID < perms[j].ID })
	return perms, nil
}

// HasPermission reports whether the user holds a permission governing the
// (resource, action) pair. Superusers always do.
func (r *Resolver) HasPermission(ctx context.Context, u *models.User, resource, action string) (bool, error) {
	if u.IsSuperuser {
		return true, nil
	}
	perms, err := r.EffectivePermissions(ctx, u)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p.Resource == resource && p.Action == action {
			return true, nil
		}
	}
	return false, nil
}

// HasRole reports whether the user has an active assignment to an active
// role with the given code. Superusers always do.
func (r *Resolver) HasRole(ctx context.Context, u *models.User, code string) (bool, error) {
	if u.IsSuperuser {
		return true, nil
	}
	assignments, err := r.activeAssignments(ctx, u.ID)
	if err != nil {
		return false, err
	}
	for _, ur := range assignments {
		if ur.Role != nil && ur.Role.IsActive && ur.Role.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *Resolver) activeAssignments(ctx context.Context, userID int64) ([]models.UserRole, error) {
	var assignments []models.UserRole
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Preload("Role.Permissions").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}
