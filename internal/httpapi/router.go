package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine. The auth group is public; everything
// else sits behind the session guard plus per-group permission checks.
func NewRouter(api *API, guard *Guard, log *zap.Logger, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	root := r.Group("/api")

	auth := root.Group("/auth")
	{
		auth.POST("/login", api.login)
		auth.POST("/refresh", api.refresh)
	}

	secured := root.Group("", guard.Authenticate())

	user := secured.Group("/user")
	{
		user.GET("/info", api.userInfo)
		user.POST("/create", guard.RequirePermission("user", "create"), api.createUser)
		user.GET("/list", guard.RequirePermission("user", "read"), api.listUsers)
		user.GET("/:id", guard.RequirePermission("user", "read"), api.getUser)
		user.PUT("/:id/activate", guard.RequirePermission("user", "update"), api.activateUser)
		user.PUT("/:id/deactivate", guard.RequirePermission("user", "update"), api.deactivateUser)
		user.PUT("/:id/password", guard.RequirePermission("user", "update"), api.resetPassword)
	}

	role := secured.Group("/role")
	{
		role.POST("", guard.RequirePermission("role", "create"), api.createRole)
		role.GET("", guard.RequirePermission("role", "read"), api.listRoles)
		role.GET("/:id", guard.RequirePermission("role", "read"), api.getRole)
		role.PUT("/:id", guard.RequirePermission("role", "update"), api.updateRole)
		role.DELETE("/:id", guard.RequirePermission("role", "delete"), api.deleteRole)
	}

	perm := secured.Group("/permission")
	{
		perm.POST("", guard.RequirePermission("permission", "create"), api.createPermission)
		perm.GET("/list", guard.RequirePermission("permission", "read"), api.listPermissions)
		perm.GET("/:id", guard.RequirePermission("permission", "read"), api.getPermission)
		perm.PUT("/:id", guard.RequirePermission("permission", "update"), api.updatePermission)
		perm.DELETE("/:id", guard.RequirePermission("permission", "delete"), api.deletePermission)
	}

	userRole := secured.Group("/user_role", guard.RequirePermission("user", "manage"))
	{
		userRole.POST("/:user_id", api.assignRoles)
		userRole.GET("/:user_id", api.listUserRoles)
		userRole.GET("/:user_id/detail", api.userRoleDetail)
		userRole.DELETE("/:user_id/:role_id", api.removeUserRole)
	}

	opLog := secured.Group("/operation_log", guard.RequirePermission("operation_log", "read"))
	{
		opLog.GET("/list", api.listOperationLogs)
		opLog.GET("/:id", api.getOperationLog)
		opLog.GET("/user/:user_id", api.listUserOperationLogs)
	}

	return r
}
