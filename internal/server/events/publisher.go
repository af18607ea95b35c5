// Package events publishes user lifecycle events for out-of-process
// consumers such as the mail service.
package events

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cookmate/internal/logging"
)

// TypeVerificationRequested is emitted when a user needs a (new) email
// verification link.
const TypeVerificationRequested = "user.verification_requested"

// VerificationRequested is the message body of TypeVerificationRequested.
type VerificationRequested struct {
	Type       string    `json:"type"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Token      string    `json:"token"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher interface {
	PublishVerificationRequested(ctx context.Context, email, name, token string) error
	Close() error
}

// NopPublisher drops every event after logging it. Used when no broker is
// configured.
type NopPublisher struct {
	logger logging.Logger
}

func NewNopPublisher(logger logging.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

func (p *NopPublisher) PublishVerificationRequested(ctx context.Context, email, name, token string) error {
	p.logger.Debug(ctx, "event dropped, no broker configured", "type", TypeVerificationRequested, "email", email)
	return nil
}

func (p *NopPublisher) Close() error { return nil }
