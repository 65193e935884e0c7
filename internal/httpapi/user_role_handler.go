package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"rbacadmin/internal/audit"
	"rbacadmin/internal/models"
	"rbacadmin/internal/rbac"
)

type assignRolesInput struct {
	RoleIDs []int64 `json:"role_ids"`
}

// assignRoles replaces the user's whole role set with the submitted one.
// An empty role_ids list clears every assignment.
func (a *API) assignRoles(c *gin.Context) {
	userID, err := pathID(c, "user_id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid user id")
		return
	}
	var in assignRolesInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	trail := a.trail(c, audit.ModuleUserRole)

	if _, err := a.users.Get(ctx, userID); err != nil {
		a.failErr(c, err)
		return
	}

	previous, err := a.roles.UserRoles(ctx, userID)
	if err == nil {
		trail.SetPreImage(assignmentSnapshot{userID: userID, assignments: previous})
	}

	assignments, err := a.roles.AssignRoles(ctx, userID, in.RoleIDs)
	if err != nil {
		trail.Fail(ctx, userID, err)
		a.failErr(c, err)
		return
	}

	trail.Succeed(ctx, userID, map[string]any{
		"user_id":  userID,
		"role_ids": in.RoleIDs,
	})
	ok(c, assignments)
}

func (a *API) listUserRoles(c *gin.Context) {
	userID, err := pathID(c, "user_id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid user id")
		return
	}
	assignments, err := a.roles.UserRoles(c.Request.Context(), userID)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, assignments)
}

func (a *API) removeUserRole(c *gin.Context) {
	userID, err := pathID(c, "user_id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid user id")
		return
	}
	roleID, err := pathID(c, "role_id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid role id")
		return
	}

	ctx := c.Request.Context()
	trail := a.trail(c, audit.ModuleUserRole)

	var assignment models.UserRole
	err = a.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		First(&assignment).Error
	if err == nil {
		trail.SetPreImage(&assignment)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		a.failErr(c, err)
		return
	}

	if err := a.roles.RemoveAssignment(ctx, userID, roleID); err != nil {
		if errors.Is(err, rbac.ErrAssignmentGone) {
			fail(c, http.StatusNotFound, "assignment not found")
			return
		}
		trail.Fail(ctx, assignment.ID, err)
		a.failErr(c, err)
		return
	}
	trail.Succeed(ctx, assignment.ID, nil)
	ok(c, true)
}

// userRoleDetail returns the user together with their active roles and
// the flattened effective permission set.
func (a *API) userRoleDetail(c *gin.Context) {
	userID, err := pathID(c, "user_id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid user id")
		return
	}
	ctx := c.Request.Context()

	user, err := a.users.Get(ctx, userID)
	if err != nil {
		a.failErr(c, err)
		return
	}
	assignments, err := a.roles.UserRoles(ctx, userID)
	if err != nil {
		a.failErr(c, err)
		return
	}
	perms, err := a.resolver.EffectivePermissions(ctx, user)
	if err != nil {
		a.failErr(c, err)
		return
	}

	roles := make([]*models.Role, 0, len(assignments))
	for _, ur := range assignments {
		if ur.Role != nil {
			roles = append(roles, ur.Role)
		}
	}
	ok(c, gin.H{
		"user":        user,
		"roles":       roles,
		"permissions": perms,
	})
}

// assignmentSnapshot records a user's role set before a full replace.
type assignmentSnapshot struct {
	userID      int64
	assignments []models.UserRole
}

func (s assignmentSnapshot) Snapshot() map[string]any {
	roleIDs := make([]int64, 0, len(s.assignments))
	for _, ur := range s.assignments {
		roleIDs = append(roleIDs, ur.RoleID)
	}
	return map[string]any{
		"user_id":  s.userID,
		"role_ids": roleIDs,
	}
}
