package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"meridian/internal/intake/models"
	"meridian/internal/intake/registry"
	"meridian/pkg/platform/sentinel"
)

// InMemory keeps client records in process. It favors clarity over
// performance and is the reference implementation for the store contract.
type InMemory struct {
	mu         sync.RWMutex
	records    map[uuid.UUID]*models.ClientRecord
	registry   *registry.Registry
	nextNumber int
}

func NewInMemory(reg *registry.Registry) *InMemory {
	return &InMemory{
		records:    make(map[uuid.UUID]*models.ClientRecord),
		registry:   reg,
		nextNumber: clientNumberBase,
	}
}

func (s *InMemory) Create(_ context.Context, record *models.ClientRecord) (*models.ClientRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextNumber++
	stored := record.Clone()
	stored.ClientNumber = fmt.Sprintf("C-%d", s.nextNumber)
	stored.Sections = filterRegistered(s.registry, record.Sections)
	s.records[stored.ID] = stored
	return stored.Clone(), nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.ClientRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

func (s *InMemory) GetSection(_ context.Context, id uuid.UUID, name string) (models.SectionPayload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Section(name).Clone(), nil
}

func (s *InMemory) PutSection(_ context.Context, id uuid.UUID, name string, payload models.SectionPayload, now time.Time) (*models.ClientRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	record.Sections[name] = payload.Clone()
	record.UpdatedAt = now
	return record.Clone(), nil
}

// PutSections applies every replacement under a single lock hold, so a
// concurrent reader never observes a half-applied bulk write.
func (s *InMemory) PutSections(_ context.Context, id uuid.UUID, sections map[string]models.SectionPayload, now time.Time) (*models.ClientRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	for name, payload := range sections {
		record.Sections[name] = payload.Clone()
	}
	record.UpdatedAt = now
	return record.Clone(), nil
}
