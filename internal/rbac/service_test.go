package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rbacadmin/internal/models"
)

func TestCreateRoleAttachesPermissions(t *testing.T) {
	db := openDB(t)
	s := NewService(db, zap.NewNop())
	ctx := context.Background()

	mustCreate(t, db, perm(1, "user", "read"))
	mustCreate(t, db, perm(2, "user", "update"))

	role, err := s.CreateRole(ctx, &models.Role{Name: "User Admin", Code: "user_admin", IsActive: true}, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, role.Permissions, 2)

	_, err = s.CreateRole(ctx, &models.Role{Name: "User Admin", Code: "user_admin2", IsActive: true}, nil)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUpdateRolePermissionSemantics(t *testing.T) {
	db := openDB(t)
	s := NewService(db, zap.NewNop())
	ctx := context.Background()

	mustCreate(t, db, perm(1, "user", "read"))
	mustCreate(t, db, perm(2, "user", "update"))

	role, err := s.CreateRole(ctx, &models.Role{Name: "Ops", Code: "ops", IsActive: true}, []int64{1})
	require.NoError(t, err)

	// Nil permission ids leave the set untouched.
	role, err = s.UpdateRole(ctx, role.ID, map[string]any{"description": "updated"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "updated", role.Description)
	require.Len(t, role.Permissions, 1)

	// Non-nil replaces wholesale; an empty set clears it.
	role, err = s.UpdateRole(ctx, role.ID, nil, []int64{2})
	require.NoError(t, err)
	require.Len(t, role.Permissions, 1)
	assert.Equal(t, int64(2), role.Permissions[0].ID)

	role, err = s.UpdateRole(ctx, role.ID, nil, []int64{})
	require.NoError(t, err)
	assert.Empty(t, role.Permissions)

	_, err = s.UpdateRole(ctx, 9999, map[string]any{"name": "x"}, nil)
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestDeleteRoleBlockedWhileAssigned(t *testing.T) {
	db := openDB(t)
	s := NewService(db, zap.NewNop())
	ctx := context.Background()

	role, err := s.CreateRole(ctx, &models.Role{Name: "Held", Code: "held", IsActive: true}, nil)
	require.NoError(t, err)

	u := &models.User{Username: "holder"}
	mustCreate(t, db, u)
	mustCreate(t, db, &models.UserRole{UserID: u.ID, RoleID: role.ID, IsActive: true})

	assert.ErrorIs(t, s.DeleteRole(ctx, role.ID), ErrRoleInUse)

	// An inactive assignment no longer blocks deletion.
	require.NoError(t, db.Model(&models.UserRole{}).
		Where("user_id = ? AND role_id = ?", u.ID, role.ID).
		Update("is_active", false).Error)
	require.NoError(t, s.DeleteRole(ctx, role.ID))

	assert.ErrorIs(t, s.DeleteRole(ctx, role.ID), ErrRoleNotFound)
}

func TestAssignRolesFullReplace(t *testing.T) {
	db := openDB(t)
	s := NewService(db, zap.NewNop())
	ctx := context.Background()

	a, err := s.CreateRole(ctx, &models.Role{Name: "A", Code: "a", IsActive: true}, nil)
	require.NoError(t, err)
	b, err := s.CreateRole(ctx, &models.Role{Name: "B", Code: "b", IsActive: true}, nil)
	require.NoError(t, err)

	u := &models.User{Username: "alice"}
	mustCreate(t, db, u)

	assignments, err := s.AssignRoles(ctx, u.ID, []int64{a.ID})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, a.ID, assignments[0].RoleID)

	// The second call replaces, not appends.
	assignments, err = s.AssignRoles(ctx, u.ID, []int64{b.ID})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, b.ID, assignments[0].RoleID)

	// An empty set clears everything.
	assignments, err = s.AssignRoles(ctx, u.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestAssignRolesRejectsUnknownOrDisabled(t *testing.T) {
	db := openDB(t)
	s := NewService(db, zap.NewNop())
	ctx := context.Background()

	live, err := s.CreateRole(ctx, &models.Role{Name: "Live", Code: "live", IsActive: true}, nil)
	require.NoError(t, err)
	dead, err := s.CreateRole(ctx, &models.Role{Name: "Dead", Code: "dead", IsActive: true}, nil)
	require.NoError(t, err)
	require.NoError(t, db.Model(dead).Update("is_active", false).Error)

	u := &models.User{Username: "bob"}
	mustCreate(t, db, u)

	_, err = s.AssignRoles(ctx, u.ID, []int64{live.ID, 9999})
	assert.ErrorIs(t, err, ErrRoleUnknown)
	_, err = s.AssignRoles(ctx, u.ID, []int64{live.ID, dead.ID})
	assert.ErrorIs(t, err, ErrRoleUnknown)

	// A failed validation leaves existing assignments untouched.
	_, err = s.AssignRoles(ctx, u.ID, []int64{live.ID})
	require.NoError(t, err)
	_, err = s.AssignRoles(ctx, u.ID, []int64{9999})
	assert.ErrorIs(t, err, ErrRoleUnknown)
	assignments, err := s.UserRoles(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, live.ID, assignments[0].RoleID)
}

func TestRemoveAssignment(t *testing.T) {
	db := openDB(t)
	s := NewService(db, zap.NewNop())
	ctx := context.Background()

	role, err := s.CreateRole(ctx, &models.Role{Name: "R", Code: "r", IsActive: true}, nil)
	require.NoError(t, err)
	u := &models.User{Username: "carol"}
	mustCreate(t, db, u)
	_, err = s.AssignRoles(ctx, u.ID, []int64{role.ID})
	require.NoError(t, err)

	require.NoError(t, s.RemoveAssignment(ctx, u.ID, role.ID))
	assert.ErrorIs(t, s.RemoveAssignment(ctx, u.ID, role.ID), ErrAssignmentGone)
}
