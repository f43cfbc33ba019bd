package authgate

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/tmarev/authgate/internal/audit"
)

// Audit event names emitted by the engine. Stable identifiers; log
// pipelines may key on them.
const (
	EventLoginSuccess         = "login.success"
	EventLoginFailure         = "login.failure"
	EventLoginLocked          = "login.locked"
	EventLogout               = "logout"
	EventRefreshSuccess       = "refresh.success"
	EventRefreshFailure       = "refresh.failure"
	EventAccountCreated       = "account.created"
	EventAccountDuplicate     = "account.duplicate"
	EventPasswordChanged      = "password.changed"
	EventPasswordChangeFailed = "password.change_failed"
	EventVerificationRequest  = "verification.requested"
	EventVerificationSuccess  = "verification.success"
	EventVerificationFailure  = "verification.failure"
	EventResetRequest         = "reset.requested"
	EventResetSuccess         = "reset.success"
	EventResetFailure         = "reset.failure"
	EventPermissionDenied     = "permission.denied"
)

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink writes audit events into a buffered channel. Useful in tests
// and for callers that run their own fan-out.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// sinkAdapter lets the internal dispatcher deliver to a public AuditSink.
type sinkAdapter struct {
	sink AuditSink
}

func (a sinkAdapter) Emit(ctx context.Context, event audit.Event) {
	a.sink.Emit(ctx, AuditEvent{
		Timestamp: event.Timestamp,
		Action:    event.Action,
		UserID:    event.UserID,
		Email:     event.Email,
		Origin:    event.Origin,
		Success:   event.Success,
		Reason:    event.Reason,
		Metadata:  event.Metadata,
	})
}

// emitAudit queues one event on the dispatcher. meta is only materialized
// when auditing is enabled.
func (e *Engine) emitAudit(ctx context.Context, action string, success bool, userID, email, origin string, cause error, meta func() map[string]string) {
	if e.auditDispatcher == nil {
		return
	}

	event := audit.Event{
		Timestamp: e.now(),
		Action:    action,
		UserID:    userID,
		Email:     email,
		Origin:    origin,
		Success:   success,
	}
	if cause != nil {
		event.Reason = cause.Error()
	}
	if meta != nil {
		event.Metadata = meta()
	}

	e.auditDispatcher.Emit(ctx, event)
}
