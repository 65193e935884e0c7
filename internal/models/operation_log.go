package models

import "gorm.io/datatypes"

// OperationLog is an append-only audit entry. Entries reference the acting
// user and the touched record by id only, so history survives deletion of
// either.
type OperationLog struct {
	BaseModel
	UserID       int64          `gorm:"index;not null" json:"user_id"`
	UserName     string         `gorm:"size:100;not null" json:"user_name"`
	Module       string         `gorm:"size:50;not null" json:"module"`
	Table        string         `gorm:"column:table_name;size:50" json:"table_name"`
	RecordID     int64          `gorm:"index" json:"record_id"`
	Action       string         `gorm:"size:20;not null" json:"action"`
	Method       string         `gorm:"size:10;not null" json:"method"`
	Path         string         `gorm:"size:200;not null" json:"path"`
	OldData      datatypes.JSON `gorm:"type:json" json:"old_data"`
	NewData      datatypes.JSON `gorm:"type:json" json:"new_data"`
	IPAddress    string         `gorm:"size:45" json:"ip_address"`
	UserAgent    string         `gorm:"type:text" json:"user_agent"`
	Status       string         `gorm:"size:10;not null" json:"status"`
	ErrorMessage string         `gorm:"type:text" json:"error_message"`
}

func (OperationLog) TableName() string { return "operation_logs" }

func (ol *OperationLog) Snapshot() map[string]any {
	return map[string]any{
		"id":      ol.ID,
		"user_id": ol.UserID,
		"module":  ol.Module,
		"action":  ol.Action,
		"status":  ol.Status,
	}
}
