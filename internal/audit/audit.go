// Package audit records immutable events for sensitive actions. Events are
// append-only; there is no update or delete path.
package audit

import (
	"context"

	"github.com/strandhq/strand/internal/contexts"
	"github.com/strandhq/strand/internal/log"
	"github.com/strandhq/strand/internal/model"
)

// Subject identifies the record an event is about. Kind is one of the
// SubjectKind constants.
type Subject struct {
	Kind string
	ID   string
}

const (
	SubjectKindAccount    = "account"
	SubjectKindWorkspace  = "workspace"
	SubjectKindTeam       = "team"
	SubjectKindMembership = "membership"
	SubjectKindUser       = "user"
)

func AccountSubject(id string) Subject    { return Subject{Kind: SubjectKindAccount, ID: id} }
func WorkspaceSubject(id string) Subject  { return Subject{Kind: SubjectKindWorkspace, ID: id} }
func TeamSubject(id string) Subject       { return Subject{Kind: SubjectKindTeam, ID: id} }
func MembershipSubject(id string) Subject { return Subject{Kind: SubjectKindMembership, ID: id} }
func UserSubject(id string) Subject       { return Subject{Kind: SubjectKindUser, ID: id} }

// Inserter persists events. Satisfied by store.AuditEventRepo.
type Inserter interface {
	Insert(ctx context.Context, event *model.AuditEvent) error
}

// FailureHandler receives events that could not be persisted, together with
// the persistence error.
type FailureHandler func(ctx context.Context, event *model.AuditEvent, err error)

// Recorder captures the acting identity from the context carrier at call
// time and persists one event per sensitive action. A persist failure never
// blocks the recorded operation; it is handed to the failure handler
// instead.
type Recorder struct {
	events    Inserter
	onFailure FailureHandler
}

func NewRecorder(events Inserter) *Recorder {
	return &Recorder{
		events:    events,
		onFailure: logFailure,
	}
}

// SetFailureHandler replaces the default failure handler. A nil handler
// restores the default.
func (r *Recorder) SetFailureHandler(fn FailureHandler) {
	if fn == nil {
		fn = logFailure
	}

	r.onFailure = fn
}

// Record captures actor, account and workspace from the carrier as they are
// right now and persists the event. System actions with no active tenant
// leave those fields empty rather than being dropped.
func (r *Recorder) Record(ctx context.Context, action string, subject Subject, metadata map[string]string) {
	event := &model.AuditEvent{
		Action:      action,
		SubjectKind: subject.Kind,
		SubjectID:   subject.ID,
		Metadata:    metadata,
	}

	if user, ok := contexts.GetUser(ctx); ok {
		event.ActorID = &user.ID
	}

	if account, ok := contexts.GetAccount(ctx); ok {
		event.AccountID = &account.ID
	}

	if workspace, ok := contexts.GetWorkspace(ctx); ok {
		event.WorkspaceID = &workspace.ID
	}

	if err := r.events.Insert(ctx, event); err != nil {
		r.onFailure(ctx, event, err)
	}
}

func logFailure(ctx context.Context, event *model.AuditEvent, err error) {
	log.Error(ctx, "audit: event not persisted",
		log.String("action", event.Action),
		log.String("subject_kind", event.SubjectKind),
		log.String("subject_id", event.SubjectID),
		log.Any("metadata", event.Metadata),
		log.Cause(err),
	)
}
