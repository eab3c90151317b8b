// Package mailer composes tenant-aware outbound mail. Sending is left to a
// delivery provider behind the Sender interface.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/strandhq/strand/internal/contexts"
	"github.com/strandhq/strand/internal/log"
)

type Config struct {
	// DefaultFrom is used when the active account configures no sender.
	DefaultFrom string `conf:"default_from" yaml:"default_from" json:"default_from"`

	// BaseURL is the public root of the product, e.g. https://strand.app.
	BaseURL string `conf:"base_url" yaml:"base_url" json:"base_url"`
}

// fromSettingKey is the account settings key holding the tenant's sender
// address.
const fromSettingKey = "mail_from"

type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers a composed message.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

type Composer struct {
	config Config
	sender Sender
}

func NewComposer(config Config) *Composer {
	return &Composer{config: config}
}

// WithSender returns a copy of the composer that delivers through sender.
func (c *Composer) WithSender(sender Sender) *Composer {
	clone := *c
	clone.sender = sender

	return &clone
}

// Compose builds a message addressed from the active account's configured
// sender, falling back to the system default when the account has none or
// no tenant is active.
func (c *Composer) Compose(ctx context.Context, to, subject, body string) *Message {
	from := c.config.DefaultFrom

	if account, ok := contexts.GetAccount(ctx); ok {
		if configured := strings.TrimSpace(account.Settings[fromSettingKey]); configured != "" {
			from = configured
		}
	}

	return &Message{
		From:    from,
		To:      to,
		Subject: subject,
		Body:    body,
	}
}

// Deliver composes and sends in one step. Without a sender the message is
// logged and dropped.
func (c *Composer) Deliver(ctx context.Context, to, subject, body string) error {
	msg := c.Compose(ctx, to, subject, body)

	if c.sender == nil {
		log.Warn(ctx, "no mail sender configured, dropping message",
			log.String("to", msg.To), log.String("subject", msg.Subject))

		return nil
	}

	return c.sender.Send(ctx, msg)
}

// TenantURL builds an absolute link into the active account's space. With
// no active tenant the link is rooted at the bare base URL.
func (c *Composer) TenantURL(ctx context.Context, path string) string {
	base := strings.TrimRight(c.config.BaseURL, "/")
	path = "/" + strings.TrimLeft(path, "/")

	if account, ok := contexts.GetAccount(ctx); ok {
		return fmt.Sprintf("%s/%s%s", base, account.Slug, path)
	}

	return base + path
}
