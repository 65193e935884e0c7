package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rbacadmin/internal/accounts"
	"rbacadmin/internal/rbac"
	"rbacadmin/internal/store"
)

// response is the uniform envelope every endpoint returns. Code is zero on
// success and mirrors the HTTP status otherwise.
type response struct {
	Code    int    `json:"code"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, response{Code: 0, Data: data, Message: "ok"})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, response{Code: status, Message: message})
}

func abortFail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, response{Code: status, Message: message})
}

// failErr maps canonical error kinds to stable user-facing responses.
// Anything unmapped is an internal error and is not echoed to the client.
func (a *API) failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, rbac.ErrRoleNotFound),
		errors.Is(err, rbac.ErrAssignmentGone),
		errors.Is(err, accounts.ErrUserNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, rbac.ErrAlreadyExists),
		errors.Is(err, rbac.ErrRoleInUse),
		errors.Is(err, rbac.ErrRoleUnknown),
		errors.Is(err, accounts.ErrUsernameTaken):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, accounts.ErrWrongPassword),
		errors.Is(err, accounts.ErrDisabled),
		errors.Is(err, accounts.ErrNotStaff):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, accounts.ErrSuperuserImmutable):
		fail(c, http.StatusForbidden, err.Error())
	default:
		a.log.Error("request failed", zapError(c, err)...)
		fail(c, http.StatusInternalServerError, "internal server error")
	}
}
