package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strandhq/strand/internal/contexts"
	"github.com/strandhq/strand/internal/model"
)

type captureInserter struct {
	events []*model.AuditEvent
	err    error
}

func (c *captureInserter) Insert(_ context.Context, event *model.AuditEvent) error {
	if c.err != nil {
		return c.err
	}

	c.events = append(c.events, event)

	return nil
}

func TestRecord_CapturesCarrierAtCallTime(t *testing.T) {
	inserter := &captureInserter{}
	recorder := NewRecorder(inserter)

	ctx := contexts.WithFreshCarrier(context.Background())
	ctx = contexts.WithUser(ctx, &model.User{ID: "user-1"})
	ctx = contexts.WithAccount(ctx, &model.Account{ID: "acct-1"})
	ctx = contexts.WithWorkspace(ctx, &model.Workspace{ID: "ws-1"})

	recorder.Record(ctx, "workspace.update", WorkspaceSubject("ws-1"), map[string]string{"field": "name"})

	// Mutating the carrier afterwards must not change the recorded event.
	contexts.Reset(ctx)

	require.Len(t, inserter.events, 1)

	event := inserter.events[0]
	require.Equal(t, "workspace.update", event.Action)
	require.Equal(t, SubjectKindWorkspace, event.SubjectKind)
	require.Equal(t, "ws-1", event.SubjectID)
	require.NotNil(t, event.ActorID)
	require.Equal(t, "user-1", *event.ActorID)
	require.NotNil(t, event.AccountID)
	require.Equal(t, "acct-1", *event.AccountID)
	require.NotNil(t, event.WorkspaceID)
	require.Equal(t, "ws-1", *event.WorkspaceID)
	require.Equal(t, "name", event.Metadata["field"])
}

func TestRecord_SystemActionWithoutTenant(t *testing.T) {
	inserter := &captureInserter{}
	recorder := NewRecorder(inserter)

	recorder.Record(contexts.WithFreshCarrier(context.Background()), "account.create", AccountSubject("acct-9"), nil)

	require.Len(t, inserter.events, 1)
	require.Nil(t, inserter.events[0].ActorID)
	require.Nil(t, inserter.events[0].AccountID)
	require.Nil(t, inserter.events[0].WorkspaceID)
}

func TestRecord_FailureHandlerReceivesEntry(t *testing.T) {
	boom := errors.New("disk full")
	inserter := &captureInserter{err: boom}
	recorder := NewRecorder(inserter)

	var (
		gotEvent *model.AuditEvent
		gotErr   error
	)

	recorder.SetFailureHandler(func(_ context.Context, event *model.AuditEvent, err error) {
		gotEvent = event
		gotErr = err
	})

	recorder.Record(context.Background(), "team.delete", TeamSubject("team-1"), nil)

	require.NotNil(t, gotEvent)
	require.Equal(t, "team.delete", gotEvent.Action)
	require.Equal(t, "team-1", gotEvent.SubjectID)
	require.ErrorIs(t, gotErr, boom)
}
