// Package seed installs the default permission catalogue, the built-in
// roles and the initial superuser. Every step is FirstOrCreate, so the
// command can be rerun safely.
package seed

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"rbacadmin/internal/models"
	"rbacadmin/internal/password"
)

const (
	adminUsername = "admin"
	adminPassword = "admin123" // change after first login
)

var crudActions = []string{"create", "read", "update", "delete", "manage"}

func Run(db *gorm.DB, log *zap.Logger) error {
	// -------------------------
	// 1) Permission catalogue
	// -------------------------
	var perms []models.Permission
	for _, resource := range []string{"user", "role", "permission"} {
		for _, action := range crudActions {
			perms = append(perms, models.Permission{
				Name:        resource + " " + action,
				Code:        resource + ":" + action,
				Resource:    resource,
				Action:      action,
				Description: "Allow " + action + " on " + resource,
			})
		}
	}
	perms = append(perms, models.Permission{
		Name:        "operation log read",
		Code:        "operation_log:read",
		Resource:    "operation_log",
		Action:      "read",
		Description: "Allow reading operation logs",
	})

	byCode := map[string]models.Permission{}
	for _, p := range perms {
		tmp := p
		if err := db.Where("code = ?", tmp.Code).FirstOrCreate(&tmp).Error; err != nil {
			return err
		}
		byCode[tmp.Code] = tmp
	}

	allCodes := make([]string, 0, len(perms))
	for _, p := range perms {
		allCodes = append(allCodes, p.Code)
	}

	// -------------------------
	// 2) Built-in roles with their permission sets
	// -------------------------
	roles := []struct {
		name, code, desc string
		permCodes        []string
	}{
		{"System Administrator", "system_admin", "Full access to every module", allCodes},
		{"User Administrator", "user_admin", "Manage user accounts", []string{
			"user:create", "user:read", "user:update", "user:delete", "user:manage",
		}},
		{"Role Administrator", "role_admin", "Manage roles and permissions", []string{
			"role:create", "role:read", "role:update", "role:delete", "role:manage",
			"permission:create", "permission:read", "permission:update", "permission:delete", "permission:manage",
		}},
		{"Read Only", "readonly_user", "Read access across modules", []string{
			"user:read", "role:read", "permission:read", "operation_log:read",
		}},
		{"Administrator", "admin", "Legacy alias with full access", allCodes},
	}

	adminRoleID := int64(0)
	for _, r := range roles {
		role := models.Role{Name: r.name, Code: r.code, Description: r.desc, IsActive: true}
		if err := db.Where("code = ?", role.Code).FirstOrCreate(&role).Error; err != nil {
			return err
		}

		assigned := make([]models.Permission, 0, len(r.permCodes))
		for _, code := range r.permCodes {
			assigned = append(assigned, byCode[code])
		}
		if err := db.Model(&role).Association("Permissions").Replace(assigned); err != nil {
			return err
		}
		if role.Code == "system_admin" {
			adminRoleID = role.ID
		}
	}

	// -------------------------
	// 3) Initial superuser
	// -------------------------
	hash, err := password.Hash(adminPassword)
	if err != nil {
		return err
	}
	admin := models.User{
		Username:    adminUsername,
		Nickname:    "Administrator",
		Password:    hash,
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := db.Where("username = ?", adminUsername).FirstOrCreate(&admin).Error; err != nil {
		return err
	}

	// The superuser bypasses resolution, but carrying the assignment keeps
	// the detail endpoints informative.
	assignment := models.UserRole{UserID: admin.ID, RoleID: adminRoleID, IsActive: true}
	if err := db.Where("user_id = ? AND role_id = ?", admin.ID, adminRoleID).
		FirstOrCreate(&assignment).Error; err != nil {
		return err
	}

	log.Info("seed complete",
		zap.String("admin", adminUsername),
		zap.Int("permissions", len(perms)),
		zap.Int("roles", len(roles)),
	)
	return nil
}
