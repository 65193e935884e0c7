// Package audit captures before/after state around mutating operations and
// persists immutable operation-log entries. Recording is best-effort: a
// failed audit write is logged and dropped, never surfaced to the caller,
// and a failure in the wrapped business operation is never masked.
package audit

import (
	"net/http"
	"strings"
)

// Action classifies what a request did to a record.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionRead   Action = "READ"
)

// Status of the wrapped operation.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Module identifies the logical resource a trail covers. The set is closed;
// handlers reference these constants and the registry maps them to tables
// and snapshot loaders at startup.
type Module string

const (
	ModuleUser         Module = "user"
	ModuleRole         Module = "role"
	ModulePermission   Module = "permission"
	ModuleUserRole     Module = "user_role"
	ModuleOperationLog Module = "operation_log"
)

// ClassifyAction derives the action from the HTTP verb. It is computed
// once per request and never changes afterwards.
func ClassifyAction(method string) Action {
	switch strings.ToUpper(method) {
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}

// Actor is the principal a trail records.
type Actor struct {
	ID          int64
	DisplayName string
}

// RequestMeta is the request context persisted with each entry.
type RequestMeta struct {
	Method    string
	Path      string
	IP        string
	UserAgent string
}

// MetaFrom extracts RequestMeta from an inbound request. The client IP is
// taken from X-Forwarded-For (first hop), then X-Real-IP, then the remote
// address.
func MetaFrom(r *http.Request) RequestMeta {
	return RequestMeta{
		Method:    r.Method,
		Path:      r.URL.Path,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}
