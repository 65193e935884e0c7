package audit

import (
	"context"

	"go.uber.org/zap"

	"rbacadmin/internal/models"
)

// Auditor hands out trails. One Auditor serves the whole process; trails
// are per-request.
type Auditor struct {
	rec *Recorder
	reg *Registry
	log *zap.Logger
}

func NewAuditor(rec *Recorder, reg *Registry, log *zap.Logger) *Auditor {
	return &Auditor{rec: rec, reg: reg, log: log}
}

// Begin opens a trail for one mutating handler invocation. The action is
// classified from the HTTP verb here and stays fixed for the trail's
// lifetime.
func (a *Auditor) Begin(actor Actor, req RequestMeta, module Module) *Trail {
	return &Trail{
		auditor: a,
		actor:   actor,
		req:     req,
		module:  module,
		action:  ClassifyAction(req.Method),
	}
}

// Trail brackets a single operation: optionally capture the pre-image,
// perform the operation, then record exactly one entry via Succeed or Fail.
type Trail struct {
	auditor *Auditor
	actor   Actor
	req     RequestMeta
	module  Module
	action  Action
	old     map[string]any
}

// Action the trail will record.
func (t *Trail) Action() Action { return t.action }

// CapturePreImage loads the record's current state through the module
// registry, for UPDATE and DELETE trails. Failure to load is swallowed:
// the entry is still written, just without old data.
func (t *Trail) CapturePreImage(ctx context.Context, recordID int64) {
	if t.action != ActionUpdate && t.action != ActionDelete {
		return
	}
	loader := t.auditor.reg.Loader(t.module)
	if loader == nil {
		return
	}
	snap, err := loader.LoadSnapshot(ctx, recordID)
	if err != nil {
		t.auditor.log.Warn("audit pre-image load failed",
			zap.String("module", string(t.module)),
			zap.Int64("record_id", recordID),
			zap.Error(err),
		)
		return
	}
	t.old = snap
}

// SetPreImage records an already-loaded pre-image, for handlers that have
// the record in hand anyway.
func (t *Trail) SetPreImage(s Snapshotter) {
	if t.action != ActionUpdate && t.action != ActionDelete {
		return
	}
	t.old = s.Snapshot()
}

// Succeed records the entry for a completed operation. newData is the
// submitted payload for CREATE and UPDATE; nil for DELETE, whose pre-image
// was captured before the operation ran.
func (t *Trail) Succeed(ctx context.Context, recordID int64, newData map[string]any) {
	t.record(ctx, recordID, newData, StatusSuccess, "")
}

// Fail records the entry for a failed operation. The caller still returns
// the original error; the trail never replaces it.
func (t *Trail) Fail(ctx context.Context, recordID int64, opErr error) {
	msg := ""
	if opErr != nil {
		msg = opErr.Error()
	}
	t.record(ctx, recordID, nil, StatusFailed, msg)
}

func (t *Trail) record(ctx context.Context, recordID int64, newData map[string]any, status Status, errMsg string) {
	var old map[string]any
	if t.action == ActionUpdate || t.action == ActionDelete {
		old = t.old
	}
	entry := &models.OperationLog{
		UserID:       t.actor.ID,
		UserName:     t.actor.DisplayName,
		Module:       string(t.module),
		Table:        t.auditor.reg.Table(t.module),
		RecordID:     recordID,
		Action:       string(t.action),
		Method:       t.req.Method,
		Path:         t.req.Path,
		OldData:      marshalSnapshot(t.auditor.log, old),
		NewData:      marshalSnapshot(t.auditor.log, newData),
		IPAddress:    t.req.IP,
		UserAgent:    t.req.UserAgent,
		Status:       string(status),
		ErrorMessage: errMsg,
	}
	t.auditor.rec.Record(ctx, entry)
}
