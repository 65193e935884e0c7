package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rbacadmin/internal/accounts"
	"rbacadmin/internal/audit"
	"rbacadmin/internal/query"
)

// userSearchFields: plain substring on nickname, exact-value match on the
// "name" key inside the profile JSON column.
var userSearchFields = []string{"nickname", "profile.name"}

func (a *API) userInfo(c *gin.Context) {
	ok(c, CurrentUser(c))
}

func (a *API) createUser(c *gin.Context) {
	var in struct {
		Username    string `json:"username" binding:"required"`
		Password    string `json:"password" binding:"required,min=6"`
		Nickname    string `json:"nickname"`
		IsStaff     bool   `json:"is_staff"`
		IsSuperuser bool   `json:"is_superuser"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	trail := a.trail(c, audit.ModuleUser)

	user, err := a.accounts.Create(ctx, accounts.CreateInput{
		Username:    in.Username,
		Password:    in.Password,
		Nickname:    in.Nickname,
		IsStaff:     in.IsStaff,
		IsSuperuser: in.IsSuperuser,
	})
	if err != nil {
		trail.Fail(ctx, 0, err)
		a.failErr(c, err)
		return
	}

	trail.Succeed(ctx, user.ID, map[string]any{
		"username":     in.Username,
		"nickname":     in.Nickname,
		"is_staff":     in.IsStaff,
		"is_superuser": in.IsSuperuser,
	})
	ok(c, user)
}

func (a *API) listUsers(c *gin.Context) {
	params := query.FromValues(c.Request.URL.Query())
	result, err := a.users.List(c.Request.Context(), params, userSearchFields)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, result)
}

func (a *API) getUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid id")
		return
	}
	user, err := a.users.Get(c.Request.Context(), id)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, user)
}

func (a *API) activateUser(c *gin.Context) {
	a.setUserActive(c, true)
}

func (a *API) deactivateUser(c *gin.Context) {
	a.setUserActive(c, false)
}

func (a *API) setUserActive(c *gin.Context, active bool) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid id")
		return
	}

	ctx := c.Request.Context()
	user, err := a.users.Get(ctx, id)
	if err != nil {
		a.failErr(c, err)
		return
	}

	trail := a.trail(c, audit.ModuleUser)
	trail.SetPreImage(user)

	if err := a.accounts.SetActive(ctx, user, active); err != nil {
		trail.Fail(ctx, id, err)
		a.failErr(c, err)
		return
	}
	trail.Succeed(ctx, id, map[string]any{"is_active": active})
	ok(c, true)
}

func (a *API) resetPassword(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid id")
		return
	}
	var in struct {
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := a.users.Get(ctx, id)
	if err != nil {
		a.failErr(c, err)
		return
	}

	trail := a.trail(c, audit.ModuleUser)
	trail.SetPreImage(user)

	if err := a.accounts.ResetPassword(ctx, user, in.Password); err != nil {
		trail.Fail(ctx, id, err)
		a.failErr(c, err)
		return
	}
	// The new credential never reaches the audit log.
	trail.Succeed(ctx, id, nil)
	ok(c, true)
}

func pathID(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
