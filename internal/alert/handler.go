// Package alert collects user-visible failures for presentation.
//
// One Handler is constructed at process start and injected by reference
// into the registry, the server and the dashboard; nothing reaches for a
// package-level singleton, which keeps every component testable with a
// substitute sink.
package alert

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/RomRMX/mothership/internal/control"
	"github.com/RomRMX/mothership/internal/logging"
)

// historySize bounds the retained error list
const historySize = 20

// Entry is one recorded failure.
type Entry struct {
	Time    time.Time
	Message string
	Type    control.ErrorType
}

// Reporter is the sink interface consumed by the registry.
type Reporter interface {
	Report(err error)
}

// Handler records recent errors and a permission-denied flag that drives a
// dedicated "enable local network access" UI state. Safe for concurrent
// use.
type Handler struct {
	mu               sync.Mutex
	recent           []Entry
	permissionDenied bool
}

// NewHandler creates an empty alert handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Report records a failure. Permission-denied signatures additionally set
// the dedicated flag, distinct from the generic error state.
func (h *Handler) Report(err error) {
	if err == nil {
		return
	}

	logging.Warn("Reported error", zap.Error(err))

	h.mu.Lock()
	defer h.mu.Unlock()

	if control.IsPermissionDenied(err) {
		h.permissionDenied = true
	}

	h.recent = append(h.recent, Entry{
		Time:    time.Now(),
		Message: err.Error(),
		Type:    control.TypeOf(err),
	})
	if len(h.recent) > historySize {
		h.recent = h.recent[len(h.recent)-historySize:]
	}
}

// LastError returns the most recent error message, or "" when clean.
func (h *Handler) LastError() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.recent) == 0 {
		return ""
	}
	return h.recent[len(h.recent)-1].Message
}

// Recent returns a copy of the retained error history, newest last.
func (h *Handler) Recent() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Entry(nil), h.recent...)
}

// PermissionDenied reports whether a local network permission denial was
// ever observed this session.
func (h *Handler) PermissionDenied() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.permissionDenied
}

// Clear drops the error history. The permission flag stays: it reflects an
// OS-level state that does not go away by dismissing a toast.
func (h *Handler) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recent = nil
}
