package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"meridian/internal/intake/models"
	"meridian/internal/intake/registry"
	"meridian/pkg/platform/sentinel"
)

const (
	recordKeyPrefix = "intake:client:"
	numberKey       = "intake:client_number"

	// txRetries bounds optimistic retries when a concurrent writer touches
	// the same record between WATCH and EXEC.
	txRetries = 3
)

// Redis persists each client record as one JSON value. Writes go through a
// WATCH transaction so a multi-section update is all-or-nothing even when
// two callers race on the same record.
type Redis struct {
	client   *redis.Client
	registry *registry.Registry
}

func NewRedis(client *redis.Client, reg *registry.Registry) *Redis {
	return &Redis{client: client, registry: reg}
}

func recordKey(id uuid.UUID) string {
	return recordKeyPrefix + id.String()
}

func (s *Redis) Create(ctx context.Context, record *models.ClientRecord) (*models.ClientRecord, error) {
	seq, err := s.client.Incr(ctx, numberKey).Result()
	if err != nil {
		return nil, fmt.Errorf("allocate client number: %w", err)
	}

	stored := record.Clone()
	stored.ClientNumber = fmt.Sprintf("C-%d", clientNumberBase+seq)
	stored.Sections = filterRegistered(s.registry, record.Sections)

	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("marshal client record: %w", err)
	}
	if err := s.client.Set(ctx, recordKey(stored.ID), raw, 0).Err(); err != nil {
		return nil, fmt.Errorf("store client record: %w", err)
	}
	return stored, nil
}

func (s *Redis) FindByID(ctx context.Context, id uuid.UUID) (*models.ClientRecord, error) {
	raw, err := s.client.Get(ctx, recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get client record: %w", err)
	}
	var record models.ClientRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("unmarshal client record: %w", err)
	}
	if record.Sections == nil {
		record.Sections = make(map[string]models.SectionPayload)
	}
	return &record, nil
}

func (s *Redis) GetSection(ctx context.Context, id uuid.UUID, name string) (models.SectionPayload, error) {
	record, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return record.Section(name), nil
}

func (s *Redis) PutSection(ctx context.Context, id uuid.UUID, name string, payload models.SectionPayload, now time.Time) (*models.ClientRecord, error) {
	return s.PutSections(ctx, id, map[string]models.SectionPayload{name: payload}, now)
}

func (s *Redis) PutSections(ctx context.Context, id uuid.UUID, sections map[string]models.SectionPayload, now time.Time) (*models.ClientRecord, error) {
	key := recordKey(id)
	var updated *models.ClientRecord

	apply := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("get client record: %w", err)
		}
		var record models.ClientRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return fmt.Errorf("unmarshal client record: %w", err)
		}
		if record.Sections == nil {
			record.Sections = make(map[string]models.SectionPayload)
		}
		for name, payload := range sections {
			record.Sections[name] = payload.Clone()
		}
		record.UpdatedAt = now

		out, err := json.Marshal(&record)
		if err != nil {
			return fmt.Errorf("marshal client record: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = &record
		return nil
	}

	for attempt := 0; attempt < txRetries; attempt++ {
		err := s.client.Watch(ctx, apply, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, sentinel.ErrConflict
}
