package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rbacadmin/internal/audit"
	"rbacadmin/internal/models"
	"rbacadmin/internal/query"
)

type permissionCreateInput struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Resource    string `json:"resource" binding:"required"`
	Action      string `json:"action" binding:"required"`
	Description string `json:"description"`
}

type permissionUpdateInput struct {
	Name        *string `json:"name"`
	Code        *string `json:"code"`
	Resource    *string `json:"resource"`
	Action      *string `json:"action"`
	Description *string `json:"description"`
}

func (in permissionUpdateInput) changes() map[string]any {
	ch := map[string]any{}
	if in.Name != nil {
		ch["name"] = *in.Name
	}
	if in.Code != nil {
		ch["code"] = *in.Code
	}
	if in.Resource != nil {
		ch["resource"] = *in.Resource
	}
	if in.Action != nil {
		ch["action"] = *in.Action
	}
	if in.Description != nil {
		ch["description"] = *in.Description
	}
	return ch
}

func (a *API) createPermission(c *gin.Context) {
	var in permissionCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	trail := a.trail(c, audit.ModulePermission)

	perm := &models.Permission{
		Name:        in.Name,
		Code:        in.Code,
		Resource:    in.Resource,
		Action:      in.Action,
		Description: in.Description,
	}
	if err := a.permGw.Create(ctx, perm); err != nil {
		trail.Fail(ctx, 0, err)
		a.failErr(c, err)
		return
	}

	trail.Succeed(ctx, perm.ID, perm.Snapshot())
	ok(c, perm)
}

func (a *API) listPermissions(c *gin.Context) {
	params := query.FromValues(c.Request.URL.Query())
	result, err := a.permGw.List(c.Request.Context(), params, []string{"name", "code", "resource"})
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, result)
}

func (a *API) getPermission(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid id")
		return
	}
	perm, err := a.permGw.Get(c.Request.Context(), id)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, perm)
}

func (a *API) updatePermission(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid id")
		return
	}
	var in permissionUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	trail := a.trail(c, audit.ModulePermission)
	trail.CapturePreImage(ctx, id)

	perm, err := a.permGw.Get(ctx, id)
	if err != nil {
		a.failErr(c, err)
		return
	}
	changes := in.changes()
	if err := a.permGw.Update(ctx, perm, changes); err != nil {
		trail.Fail(ctx, id, err)
		a.failErr(c, err)
		return
	}

	trail.Succeed(ctx, id, changes)
	ok(c, perm)
}

func (a *API) deletePermission(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid id")
		return
	}

	ctx := c.Request.Context()
	trail := a.trail(c, audit.ModulePermission)
	trail.CapturePreImage(ctx, id)

	perm, err := a.permGw.Get(ctx, id)
	if err != nil {
		a.failErr(c, err)
		return
	}
	if err := a.permGw.Remove(ctx, perm); err != nil {
		trail.Fail(ctx, id, err)
		a.failErr(c, err)
		return
	}
	trail.Succeed(ctx, id, nil)
	ok(c, true)
}
