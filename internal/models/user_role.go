package models

// UserRole assigns a role to a user. The assignment carries its own
// IsActive flag so it can be disabled independent of the role itself.
type UserRole struct {
	BaseModel
	UserID   int64 `gorm:"not null;index;uniqueIndex:idx_user_roles_user_role" json:"user_id"`
	RoleID   int64 `gorm:"not null;index;uniqueIndex:idx_user_roles_user_role" json:"role_id"`
	IsActive bool  `gorm:"default:true" json:"is_active"`

	Role *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (UserRole) TableName() string { return "user_roles" }

func (ur *UserRole) Snapshot() map[string]any {
	return map[string]any{
		"id":        ur.ID,
		"user_id":   ur.UserID,
		"role_id":   ur.RoleID,
		"is_active": ur.IsActive,
	}
}
