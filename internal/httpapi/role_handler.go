package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rbacadmin/internal/audit"
	"rbacadmin/internal/models"
	"rbacadmin/internal/query"
)

type roleCreateInput struct {
	Name          string  `json:"name" binding:"required"`
	Code          string  `json:"code" binding:"required"`
	Description   string  `json:"description"`
	PermissionIDs []int64 `json:"permission_ids"`
}

// roleUpdateInput uses pointer fields so only explicitly-set values are
// applied; nil means "leave untouched".
type roleUpdateInput struct {
	Name          *string `json:"name"`
	Code          *string `json:"code"`
	Description   *string `json:"description"`
	IsActive      *bool   `json:"is_active"`
	PermissionIDs []int64 `json:"permission_ids"`
}

func (in roleUpdateInput) changes() map[string]any {
	ch := map[string]any{}
	if in.Name != nil {
		ch["name"] = *in.Name
	}
	if in.Code != nil {
		ch["code"] = *in.Code
	}
	if in.Description != nil {
		ch["description"] = *in.Description
	}
	if in.IsActive != nil {
		ch["is_active"] = *in.IsActive
	}
	return ch
}

func (a *API) createRole(c *gin.Context) {
	var in roleCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	trail := a.trail(c, audit.ModuleRole)

	role := &models.Role{
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		IsActive:    true,
	}
	role, err := a.roles.CreateRole(ctx, role, in.PermissionIDs)
	if err != nil {
		trail.Fail(ctx, 0, err)
		a.failErr(c, err)
		return
	}

	trail.Succeed(ctx, role.ID, map[string]any{
		"name":           in.Name,
		"code":           in.Code,
		"description":    in.Description,
		"permission_ids": in.PermissionIDs,
	})
	ok(c, role)
}

func (a *API) listRoles(c *gin.Context) {
	params := query.FromValues(c.Request.URL.Query())
	base := a.db.Model(&models.Role{}).Preload("Permissions")
	result, err := a.roleGw.List(c.Request.Context(), params, []string{"name", "code"}, base)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, result)
}

func (a *API) getRole(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid id")
		return
	}
	role, err := a.roles.RoleWithPermissions(c.Request.Context(), id)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, role)
}

func (a *API) updateRole(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid id")
		return
	}
	var in roleUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	trail := a.trail(c, audit.ModuleRole)
	trail.CapturePreImage(ctx, id)

	changes := in.changes()
	role, err := a.roles.UpdateRole(ctx, id, changes, in.PermissionIDs)
	if err != nil {
		trail.Fail(ctx, id, err)
		a.failErr(c, err)
		return
	}

	if in.PermissionIDs != nil {
		changes["permission_ids"] = in.PermissionIDs
	}
	trail.Succeed(ctx, id, changes)
	ok(c, role)
}

func (a *API) deleteRole(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid id")
		return
	}

	ctx := c.Request.Context()
	trail := a.trail(c, audit.ModuleRole)
	trail.CapturePreImage(ctx, id)

	if err := a.roles.DeleteRole(ctx, id); err != nil {
		trail.Fail(ctx, id, err)
		a.failErr(c, err)
		return
	}
	trail.Succeed(ctx, id, nil)
	ok(c, true)
}
