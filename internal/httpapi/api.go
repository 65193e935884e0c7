// Package httpapi wires the router, session guard and handlers over gin.
package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"rbacadmin/internal/accounts"
	"rbacadmin/internal/audit"
	"rbacadmin/internal/models"
	"rbacadmin/internal/rbac"
	"rbacadmin/internal/store"
	"rbacadmin/internal/token"
)

// API holds every dependency the handlers need. It is constructed once at
// startup with everything injected; there are no package-level handles.
type API struct {
	db       *gorm.DB
	log      *zap.Logger
	codec    *token.Codec
	accounts *accounts.Service
	roles    *rbac.Service
	resolver *rbac.Resolver
	auditor  *audit.Auditor

	users   *store.Gateway[models.User]
	roleGw  *store.Gateway[models.Role]
	permGw  *store.Gateway[models.Permission]
	opLogGw *store.Gateway[models.OperationLog]
}

func New(gdb *gorm.DB, log *zap.Logger, codec *token.Codec) (*API, error) {
	users, err := store.NewGateway[models.User](gdb)
	if err != nil {
		return nil, err
	}
	roleGw, err := store.NewGateway[models.Role](gdb)
	if err != nil {
		return nil, err
	}
	permGw, err := store.NewGateway[models.Permission](gdb)
	if err != nil {
		return nil, err
	}
	opLogGw, err := store.NewGateway[models.OperationLog](gdb)
	if err != nil {
		return nil, err
	}

	registry := audit.NewRegistry()
	registry.Register(audit.ModuleUser, models.User{}.TableName(), snapshotLoader(users))
	registry.Register(audit.ModuleRole, models.Role{}.TableName(), snapshotLoader(roleGw))
	registry.Register(audit.ModulePermission, models.Permission{}.TableName(), snapshotLoader(permGw))
	registry.Register(audit.ModuleUserRole, models.UserRole{}.TableName(), nil)
	recorder := audit.NewRecorder(gdb, log)

	return &API{
		db:       gdb,
		log:      log,
		codec:    codec,
		accounts: accounts.NewService(gdb, log),
		roles:    rbac.NewService(gdb, log),
		resolver: rbac.NewResolver(gdb),
		auditor:  audit.NewAuditor(recorder, registry, log),
		users:    users,
		roleGw:   roleGw,
		permGw:   permGw,
		opLogGw:  opLogGw,
	}, nil
}

// Resolver exposes the permission resolver for guard construction.
func (a *API) Resolver() *rbac.Resolver { return a.resolver }

// snapshotLoader adapts a gateway into the registry's pre-image loader.
func snapshotLoader[T any, PT interface {
	*T
	audit.Snapshotter
}](gw *store.Gateway[T]) audit.LoaderFunc {
	return func(ctx context.Context, id int64) (map[string]any, error) {
		obj, err := gw.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return PT(obj).Snapshot(), nil
	}
}

func zapError(c *gin.Context, err error) []zap.Field {
	return []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	}
}

// trail opens an audit trail for the current request and principal.
func (a *API) trail(c *gin.Context, module audit.Module) *audit.Trail {
	user := CurrentUser(c)
	actor := audit.Actor{}
	if user != nil {
		actor = audit.Actor{ID: user.ID, DisplayName: user.DisplayName()}
	}
	return a.auditor.Begin(actor, audit.MetaFrom(c.Request), module)
}
