package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pantrio/courier"
	"github.com/pantrio/courier/deadletter"
	"github.com/pantrio/courier/id"
	"github.com/pantrio/courier/internal/entity"
)

// deadLetterModel is the JSON representation stored in Redis.
type deadLetterModel struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"owner_id"`
	EventType  string          `json:"event_type"`
	Recipient  string          `json:"recipient"`
	URL        string          `json:"url"`
	Payload    json.RawMessage `json:"payload"`
	Error      string          `json:"error"`
	StatusCode int             `json:"status_code,omitempty"`
	Attempts   int             `json:"attempts"`
	FailedAt   time.Time       `json:"failed_at"`
	ReplayedAt *time.Time      `json:"replayed_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func toDeadLetterModel(rec *deadletter.Record) *deadLetterModel {
	return &deadLetterModel{
		ID:         rec.ID.String(),
		OwnerID:    rec.OwnerID,
		EventType:  rec.EventType,
		Recipient:  rec.Recipient,
		URL:        rec.URL,
		Payload:    rec.Payload,
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
	recID, err := id.ParseDeadLetterID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse dead letter ID %q: %w", m.ID, err)
	}
	return &deadletter.Record{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         recID,
		OwnerID:    m.OwnerID,
		EventType:  m.EventType,
		Recipient:  m.Recipient,
		URL:        m.URL,
		Payload:    m.Payload,
		Error:      m.Error,
		StatusCode: m.StatusCode,
		Attempts:   m.Attempts,
		FailedAt:   m.FailedAt,
		ReplayedAt: m.ReplayedAt,
	}, nil
}

func (s *Store) PushDeadLetter(ctx context.Context, rec *deadletter.Record) error {
	m := toDeadLetterModel(rec)

	if err := s.setEntity(ctx, entityKey(prefixDeadLetter, m.ID), m); err != nil {
		return fmt.Errorf("courier/redis: push dead letter: %w", err)
	}

	if err := s.rdb.ZAdd(ctx, zDeadLetterAll, goredis.Z{
		Score:  scoreFromTime(m.FailedAt),
		Member: m.ID,
	}).Err(); err != nil {
		return fmt.Errorf("courier/redis: index dead letter: %w", err)
	}
	return nil
}

func (s *Store) ListDeadLetters(ctx context.Context, opts deadletter.ListOpts) ([]*deadletter.Record, error) {
	// Newest first.
	ids, err := s.rdb.ZRevRange(ctx, zDeadLetterAll, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("courier/redis: list dead letter index: %w", err)
	}

	var matched []*deadletter.Record
	for _, recIDStr := range ids {
		var m deadLetterModel
		if err := s.getEntity(ctx, entityKey(prefixDeadLetter, recIDStr), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return nil, fmt.Errorf("courier/redis: load dead letter %s: %w", recIDStr, err)
		}
		if opts.OwnerID != "" && m.OwnerID != opts.OwnerID {
			continue
		}
		if opts.EventType != "" && m.EventType != opts.EventType {
			continue
		}
		if opts.From != nil && m.FailedAt.Before(*opts.From) {
			continue
		}
		if opts.To != nil && m.FailedAt.After(*opts.To) {
			continue
		}
		rec, err := fromDeadLetterModel(&m)
		if err != nil {
			return nil, err
		}
		matched = append(matched, rec)
	}
	return applyPagination(matched, opts.Offset, opts.Limit), nil
}

func (s *Store) GetDeadLetter(ctx context.Context, recID id.ID) (*deadletter.Record, error) {
	var m deadLetterModel
	if err := s.getEntity(ctx, entityKey(prefixDeadLetter, recID.String()), &m); err != nil {
		if isRedisNil(err) {
			return nil, courier.ErrDeadLetterNotFound
		}
		return nil, fmt.Errorf("courier/redis: get dead letter: %w", err)
	}
	return fromDeadLetterModel(&m)
}

func (s *Store) MarkReplayed(ctx context.Context, recID id.ID, at time.Time) error {
	rec, err := s.GetDeadLetter(ctx, recID)
	if err != nil {
		return err
	}

	t := at
	rec.ReplayedAt = &t
	rec.UpdatedAt = time.Now().UTC()

	if err := s.setEntity(ctx, entityKey(prefixDeadLetter, recID.String()), toDeadLetterModel(rec)); err != nil {
		return fmt.Errorf("courier/redis: mark dead letter replayed: %w", err)
	}
	return nil
}

func (s *Store) PurgeDeadLetters(ctx context.Context, before time.Time) (int64, error) {
	cutoff := strconv.FormatFloat(scoreFromTime(before), 'f', -1, 64)
	ids, err := s.rdb.ZRangeByScore(ctx, zDeadLetterAll, &goredis.ZRangeBy{
		Min: "-inf",
		Max: "(" + cutoff,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("courier/redis: purge scan: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.rdb.Pipeline()
	for _, recIDStr := range ids {
		pipe.Del(ctx, entityKey(prefixDeadLetter, recIDStr))
		pipe.ZRem(ctx, zDeadLetterAll, recIDStr)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("courier/redis: purge dead letters: %w", err)
	}
	return int64(len(ids)), nil
}

func (s *Store) CountDeadLetters(ctx context.Context) (int64, error) {
	return s.rdb.ZCard(ctx, zDeadLetterAll).Result()
}
