package models

// Permission names a single grantable capability. A permission is uniquely
// identified by the (resource, action) pair it governs, not only by its code.
type Permission struct {
	BaseModel
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Code        string `gorm:"uniqueIndex;size:100;not null" json:"code"`
	Resource    string `gorm:"size:100;not null;uniqueIndex:idx_permissions_resource_action" json:"resource"`
	Action      string `gorm:"size:50;not null;uniqueIndex:idx_permissions_resource_action" json:"action"`
	Description string `gorm:"size:255" json:"description"`
}

func (Permission) TableName() string { return "permissions" }

func (p *Permission) Snapshot() map[string]any {
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"code":        p.Code,
		"resource":    p.Resource,
		"action":      p.Action,
		"description": p.Description,
	}
}
