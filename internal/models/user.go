package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is an authenticatable principal. Accounts are never hard-deleted in
// the normal flow; they are soft-disabled through IsActive.
type User struct {
	BaseModel
	Nickname    string         `gorm:"size:50" json:"nickname"`
	Avatar      string         `gorm:"size:100" json:"avatar"`
	Username    string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password    string         `gorm:"size:255" json:"-"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	IsStaff     bool           `gorm:"default:false" json:"is_staff"`
	IsSuperuser bool           `gorm:"default:false" json:"is_superuser"`
	LastLogin   *time.Time     `json:"last_login"`
	Profile     datatypes.JSON `gorm:"type:json" json:"profile"`
}

func (User) TableName() string { return "users" }

// DisplayName is what audit entries record for the acting user.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// Snapshot returns the loggable field set. The password hash is never part
// of it.
func (u *User) Snapshot() map[string]any {
	snap := map[string]any{
		"id":           u.ID,
		"nickname":     u.Nickname,
		"avatar":       u.Avatar,
		"username":     u.Username,
		"is_active":    u.IsActive,
		"is_staff":     u.IsStaff,
		"is_superuser": u.IsSuperuser,
	}
	if u.LastLogin != nil {
		snap["last_login"] = u.LastLogin.Format(time.RFC3339)
	}
	if len(u.Profile) > 0 {
		snap["profile"] = string(u.Profile)
	}
	return snap
}
