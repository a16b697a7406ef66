package bunstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/pantrio/courier/deadletter"
	"github.com/pantrio/courier/id"
	"github.com/pantrio/courier/subscription"
)

type subscriptionModel struct {
	bun.BaseModel `bun:"table:courier_subscriptions,alias:cs"`

	ID          string    `bun:"id,pk"`
	OwnerID     string    `bun:"owner_id,notnull"`
	EventType   string    `bun:"event_type,notnull"`
	URL         string    `bun:"url,notnull"`
	Description string    `bun:"description"`
	Secret      string    `bun:"secret,notnull"`
	Headers     string    `bun:"headers"`
	Active      bool      `bun:"active,notnull"`
	RateLimit   int       `bun:"rate_limit"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func toSubscriptionModel(sub *subscription.Subscription) *subscriptionModel {
	headers, _ := json.Marshal(sub.Headers) //nolint:errcheck // string map always marshals

	return &subscriptionModel{
		ID:          sub.ID.String(),
		OwnerID:     sub.OwnerID,
		EventType:   sub.EventType,
		URL:         sub.URL,
		Description: sub.Description,
		Secret:      sub.Secret,
		Headers:     string(headers),
		Active:      sub.Active,
		RateLimit:   sub.RateLimit,
		CreatedAt:   sub.CreatedAt,
		UpdatedAt:   sub.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	subID, err := id.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("bunstore: bad subscription id %q: %w", m.ID, err)
	}

	var headers map[string]string
	if m.Headers != "" && m.Headers != "null" {
		if err := json.Unmarshal([]byte(m.Headers), &headers); err != nil {
			return nil, fmt.Errorf("bunstore: bad headers for %s: %w", m.ID, err)
		}
	}

	sub := &subscription.Subscription{
		ID:          subID,
		OwnerID:     m.OwnerID,
		EventType:   m.EventType,
		URL:         m.URL,
		Description: m.Description,
		Secret:      m.Secret,
		Headers:     headers,
		Active:      m.Active,
		RateLimit:   m.RateLimit,
	}
	sub.CreatedAt = m.CreatedAt
	sub.UpdatedAt = m.UpdatedAt
	return sub, nil
}

type deadLetterModel struct {
	bun.BaseModel `bun:"table:courier_dead_letters,alias:cdl"`

	ID         string     `bun:"id,pk"`
	OwnerID    string     `bun:"owner_id,notnull"`
	EventType  string     `bun:"event_type,notnull"`
	Recipient  string     `bun:"recipient,notnull"`
	URL        string     `bun:"url,notnull"`
	Payload    string     `bun:"payload"`
	Error      string     `bun:"error_message"`
	StatusCode int        `bun:"status_code"`
	Attempts   int        `bun:"attempts"`
	FailedAt   time.Time  `bun:"failed_at,notnull"`
	ReplayedAt *time.Time `bun:"replayed_at"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull"`
}

func toDeadLetterModel(rec *deadletter.Record) *deadLetterModel {
	return &deadLetterModel{
		ID:         rec.ID.String(),
		OwnerID:    rec.OwnerID,
		EventType:  rec.EventType,
		Recipient:  rec.Recipient,
		URL:        rec.URL,
		Payload:    string(rec.Payload),
		Error:      rec.Error,
		StatusCode: rec.StatusCode,
		Attempts:   rec.Attempts,
		FailedAt:   rec.FailedAt,
		ReplayedAt: rec.ReplayedAt,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
}

func fromDeadLetterModel(m *deadLetterModel) (*deadletter.Record, error) {
	recID, err := id.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("bunstore: bad dead letter id %q: %w", m.ID, err)
	}

	rec := &deadletter.Record{
		ID:         recID,
		OwnerID:    m.OwnerID,
		EventType:  m.EventType,
		Recipient:  m.Recipient,
		URL:        m.URL,
		Payload:    json.RawMessage(m.Payload),
		Error:      m.Error,
		StatusCode: m.StatusCode,
		Attempts:   m.Attempts,
		FailedAt:   m.FailedAt,
		ReplayedAt: m.ReplayedAt,
	}
	rec.CreatedAt = m.CreatedAt
	rec.UpdatedAt = m.UpdatedAt
	return rec, nil
}
