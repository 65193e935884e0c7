package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rbacadmin/internal/models"
	"rbacadmin/internal/query"
)

var opLogSearchFields = []string{"user_name", "module", "action", "path"}

func (a *API) listOperationLogs(c *gin.Context) {
	params := query.FromValues(c.Request.URL.Query())
	result, err := a.opLogGw.List(c.Request.Context(), params, opLogSearchFields)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, result)
}

func (a *API) getOperationLog(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid id")
		return
	}
	entry, err := a.opLogGw.Get(c.Request.Context(), id)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, entry)
}

// listUserOperationLogs scopes the log listing to one actor.
func (a *API) listUserOperationLogs(c *gin.Context) {
	userID, err := pathID(c, "user_id")
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid user id")
		return
	}
	params := query.FromValues(c.Request.URL.Query())
	base := a.db.Model(&models.OperationLog{}).Where("user_id = ?", userID)
	result, err := a.opLogGw.List(c.Request.Context(), params, opLogSearchFields, base)
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, result)
}
