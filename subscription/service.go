package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/pantrio/courier/catalog"
	"github.com/pantrio/courier/id"
	"github.com/pantrio/courier/internal/entity"
)

// Service provides subscription management operations.
type Service struct {
	store   Store
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewService creates a new subscription service.
func NewService(store Store, cat *catalog.Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		catalog: cat,
		logger:  logger,
	}
}

// Create registers a new webhook subscription. The store rejects a second
// subscription for the same (owner, event type) pair as a conflict.
func (svc *Service) Create(ctx context.Context, in Input) (*Subscription, error) {
	if in.OwnerID == "" {
		return nil, &ValidationError{Field: "owner_id", Message: "required"}
	}
	if _, err := url.ParseRequestURI(in.URL); err != nil {
		return nil, &ValidationError{Field: "url", Message: "invalid URL"}
	}
	if !svc.catalog.Contains(in.EventType) {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownType, in.EventType)
	}

	secret := in.Secret
	if secret == "" {
		secret = GenerateSecret()
	}

	sub := &Subscription{
		Entity:      entity.New(),
		ID:          id.NewSubscriptionID(),
		OwnerID:     in.OwnerID,
		EventType:   in.EventType,
		URL:         in.URL,
		Description: in.Description,
		Secret:      secret,
		Headers:     in.Headers,
		Active:      true,
		RateLimit:   in.RateLimit,
	}

	if err := svc.store.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

// Get returns a subscription by ID.
func (svc *Service) Get(ctx context.Context, subID id.ID) (*Subscription, error) {
	return svc.store.GetSubscription(ctx, subID)
}

// Update modifies an existing subscription's URL, description, headers,
// or rate limit. The owner and event type are fixed for its lifetime.
func (svc *Service) Update(ctx context.Context, subID id.ID, in Input) (*Subscription, error) {
	sub, err := svc.store.GetSubscription(ctx, subID)
	if err != nil {
		return nil, err
	}

	if in.URL != "" {
		if _, err := url.ParseRequestURI(in.URL); err != nil {
			return nil, &ValidationError{Field: "url", Message: "invalid URL"}
		}
		sub.URL = in.URL
	}
	if in.Description != "" {
		sub.Description = in.Description
	}
	if in.Headers != nil {
		sub.Headers = in.Headers
	}
	if in.RateLimit >= 0 {
		sub.RateLimit = in.RateLimit
	}

	if err := svc.store.UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

// Delete removes a subscription.
func (svc *Service) Delete(ctx context.Context, subID id.ID) error {
	return svc.store.DeleteSubscription(ctx, subID)
}

// List returns subscriptions for an owner.
func (svc *Service) List(ctx context.Context, ownerID string, opts ListOpts) ([]*Subscription, error) {
	return svc.store.ListSubscriptions(ctx, ownerID, opts)
}

// SetActive enables or disables a subscription.
func (svc *Service) SetActive(ctx context.Context, subID id.ID, active bool) error {
	return svc.store.SetActive(ctx, subID, active)
}

// RotateSecret generates a new shared secret for a subscription.
func (svc *Service) RotateSecret(ctx context.Context, subID id.ID) (string, error) {
	sub, err := svc.store.GetSubscription(ctx, subID)
	if err != nil {
		return "", err
	}

	newSecret := GenerateSecret()

	sub.Secret = newSecret
	if err := svc.store.UpdateSubscription(ctx, sub); err != nil {
		return "", err
	}

	return newSecret, nil
}

// ValidationError indicates invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "subscription validation: " + e.Field + ": " + e.Message
}
