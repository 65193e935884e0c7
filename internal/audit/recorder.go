package audit

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"rbacadmin/internal/models"
)

// Recorder persists operation-log entries. Writes are append-only and
// best-effort: a failed insert is logged and swallowed.
type Recorder struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewRecorder(db *gorm.DB, log *zap.Logger) *Recorder {
	return &Recorder{db: db, log: log}
}

func (r *Recorder) Record(ctx context.Context, entry *models.OperationLog) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.log.Error("audit entry write failed",
			zap.String("module", entry.Module),
			zap.String("action", entry.Action),
			zap.Int64("record_id", entry.RecordID),
			zap.Error(err),
		)
	}
}

func marshalSnapshot(log *zap.Logger, data map[string]any) datatypes.JSON {
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		log.Warn("audit snapshot not serializable", zap.Error(err))
		return nil
	}
	return datatypes.JSON(raw)
}
