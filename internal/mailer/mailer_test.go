package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strandhq/strand/internal/contexts"
	"github.com/strandhq/strand/internal/model"
)

func newComposer() *Composer {
	return NewComposer(Config{
		DefaultFrom: "noreply@strand.app",
		BaseURL:     "https://strand.app/",
	})
}

func tenantCtx(account *model.Account) context.Context {
	ctx := contexts.WithFreshCarrier(context.Background())
	return contexts.WithAccount(ctx, account)
}

func TestCompose_AccountSenderWins(t *testing.T) {
	composer := newComposer()

	ctx := tenantCtx(&model.Account{
		ID:       "acc-1",
		Slug:     "acme",
		Settings: map[string]string{"mail_from": "team@acme.dev"},
	})

	msg := composer.Compose(ctx, "dev@example.com", "Welcome", "hello")
	require.Equal(t, "team@acme.dev", msg.From)
	require.Equal(t, "dev@example.com", msg.To)
}

func TestCompose_FallsBackToDefault(t *testing.T) {
	composer := newComposer()

	// Account without a configured sender.
	msg := composer.Compose(tenantCtx(&model.Account{ID: "acc-1", Slug: "acme"}), "dev@example.com", "Welcome", "hello")
	require.Equal(t, "noreply@strand.app", msg.From)

	// No active tenant at all.
	msg = composer.Compose(context.Background(), "dev@example.com", "Welcome", "hello")
	require.Equal(t, "noreply@strand.app", msg.From)
}

func TestTenantURL(t *testing.T) {
	composer := newComposer()

	ctx := tenantCtx(&model.Account{ID: "acc-1", Slug: "acme"})
	require.Equal(t, "https://strand.app/acme/invites/inv-1", composer.TenantURL(ctx, "invites/inv-1"))

	require.Equal(t, "https://strand.app/signin", composer.TenantURL(context.Background(), "/signin"))
}

type captureSender struct {
	sent []*Message
}

func (s *captureSender) Send(ctx context.Context, msg *Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

func TestDeliver_UsesSender(t *testing.T) {
	sender := &captureSender{}
	composer := newComposer().WithSender(sender)

	err := composer.Deliver(context.Background(), "dev@example.com", "Hi", "body")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	require.Equal(t, "noreply@strand.app", sender.sent[0].From)
}
