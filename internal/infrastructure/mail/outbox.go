package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"adminpanel/internal/core/id"
	"adminpanel/internal/domain/auth"
	"adminpanel/internal/infrastructure/storage/postgres"
	"adminpanel/pkg/logger"
)

// EventPrefix namespaces mail events in the outbox.
const EventPrefix = "mail."

// Envelope is the outbox payload of a queued email.
type Envelope struct {
	Kind Kind   `json:"kind"`
	To   string `json:"to"`
	Data Data   `json:"data"`
}

// Publisher writes outbox events; *postgres.OutboxPublisher implements it.
type Publisher interface {
	Publish(ctx context.Context, events ...postgres.DomainEvent) error
}

// LinkConfig configures the links embedded in account emails.
type LinkConfig struct {
	BaseURL                string
	ResetTokenTTL          time.Duration
	ConfirmationTokenHours int
}

// OutboxMailer implements auth.Mailer by queueing envelopes. Inside a
// transaction the email is sent only if it commits.
type OutboxMailer struct {
	publisher Publisher
	links     LinkConfig
}

var _ auth.Mailer = (*OutboxMailer)(nil)

func NewOutboxMailer(publisher Publisher, links LinkConfig) *OutboxMailer {
	links.BaseURL = strings.TrimRight(links.BaseURL, "/")
	if links.ConfirmationTokenHours <= 0 {
		links.ConfirmationTokenHours = 24
	}
	return &OutboxMailer{publisher: publisher, links: links}
}

func (m *OutboxMailer) tokenLink(path, email, token string) string {
	q := url.Values{"email": {email}, "token": {token}}
	return m.links.BaseURL + path + "?" + q.Encode()
}

func displayName(u *auth.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

func (m *OutboxMailer) enqueue(ctx context.Context, u *auth.User, kind Kind, data Data) error {
	err := m.publisher.Publish(ctx, postgres.DomainEvent{
		AggregateType: "User",
		AggregateID:   id.Format(u.ID),
		EventType:     EventPrefix + string(kind),
		Payload:       Envelope{Kind: kind, To: u.Email, Data: data},
	})
	if err != nil {
		return fmt.Errorf("queue %s mail: %w", kind, err)
	}
	return nil
}

func (m *OutboxMailer) SendPasswordReset(ctx context.Context, u *auth.User, token string) error {
	hours := int(m.links.ResetTokenTTL.Hours())
	if hours < 1 {
		hours = 1
	}
	return m.enqueue(ctx, u, KindPasswordReset, Data{
		UserName:    displayName(u),
		Link:        m.tokenLink("/Auth/ResetPassword", u.Email, token),
		ExpiryHours: hours,
	})
}

func (m *OutboxMailer) SendWelcome(ctx context.Context, u *auth.User) error {
	return m.enqueue(ctx, u, KindWelcome, Data{
		UserName: u.Username,
		Link:     m.links.BaseURL + "/Auth/Login",
	})
}

func (m *OutboxMailer) SendEmailConfirmation(ctx context.Context, u *auth.User, token string) error {
	return m.enqueue(ctx, u, KindEmailConfirmation, Data{
		UserName:    displayName(u),
		Link:        m.tokenLink("/Auth/ConfirmEmail", u.Email, token),
		ExpiryHours: m.links.ConfirmationTokenHours,
	})
}

// RelayHandler renders queued envelopes and hands them to a Sender. It
// implements postgres.OutboxHandler.
type RelayHandler struct {
	renderer *Renderer
	sender   Sender
}

var _ postgres.OutboxHandler = (*RelayHandler)(nil)

func NewRelayHandler(renderer *Renderer, sender Sender) *RelayHandler {
	return &RelayHandler{renderer: renderer, sender: sender}
}

func (h *RelayHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	if !strings.HasPrefix(msg.EventType, EventPrefix) {
		logger.Warn(ctx, "skipping non-mail outbox event", "event_type", msg.EventType)
		return nil
	}

	var env Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return fmt.Errorf("decode mail envelope: %w", err)
	}
	rendered, err := h.renderer.Render(env.Kind, env.To, env.Data)
	if err != nil {
		return err
	}
	if err := h.sender.Send(ctx, rendered); err != nil {
		return err
	}
	logger.Info(ctx, "mail sent", "kind", env.Kind, "message_id", msg.ID)
	return nil
}
