package models

// Role groups permissions. Code is the stable identifier used in role
// checks; Name is for display.
type Role struct {
	BaseModel
	Name        string       `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Code        string       `gorm:"uniqueIndex;size:100;not null" json:"code"`
	Description string       `gorm:"size:255" json:"description"`
	IsActive    bool         `gorm:"default:true" json:"is_active"`
	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
}

func (Role) TableName() string { return "roles" }

func (r *Role) Snapshot() map[string]any {
	snap := map[string]any{
		"id":          r.ID,
		"name":        r.Name,
		"code":        r.Code,
		"description": r.Description,
		"is_active":   r.IsActive,
	}
	if len(r.Permissions) > 0 {
		codes := make([]string, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			codes = append(codes, p.Code)
		}
		snap["permissions"] = codes
	}
	return snap
}
