package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"meridian/internal/intake/models"
	"meridian/internal/intake/registry"
	"meridian/pkg/platform/sentinel"
)

// Postgres persists each client record as a row with a JSONB sections
// document. Multi-section writes are a single UPDATE statement, so their
// atomicity comes from the statement itself rather than an explicit
// transaction.
type Postgres struct {
	db       *sql.DB
	registry *registry.Registry
}

func NewPostgres(db *sql.DB, reg *registry.Registry) *Postgres {
	return &Postgres{db: db, registry: reg}
}

// Migrate creates the schema if it does not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS client_records (
			id UUID PRIMARY KEY,
			client_number TEXT UNIQUE NOT NULL,
			sections JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		fmt.Sprintf(`CREATE SEQUENCE IF NOT EXISTS client_number_seq START %d`, clientNumberBase+1),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate client_records: %w", err)
		}
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, record *models.ClientRecord) (*models.ClientRecord, error) {
	sections := filterRegistered(s.registry, record.Sections)
	payload, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("marshal sections: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO client_records (id, client_number, sections, created_at, updated_at)
		VALUES ($1, 'C-' || nextval('client_number_seq'), $2, $3, $4)
		RETURNING client_number`,
		record.ID, payload, record.CreatedAt, record.UpdatedAt,
	)

	stored := record.Clone()
	stored.Sections = sections
	if err := row.Scan(&stored.ClientNumber); err != nil {
		if pqErr := (*pq.Error)(nil); errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("insert client record: %w", err)
	}
	return stored, nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.ClientRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, client_number, sections, created_at, updated_at
		FROM client_records WHERE id = $1`, id,
	)
	return scanRecord(row)
}

func (s *Postgres) GetSection(ctx context.Context, id uuid.UUID, name string) (models.SectionPayload, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT sections -> $2 FROM client_records WHERE id = $1`, id, name,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get section: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var payload models.SectionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal section %q: %w", name, err)
	}
	return payload, nil
}

func (s *Postgres) PutSection(ctx context.Context, id uuid.UUID, name string, payload models.SectionPayload, now time.Time) (*models.ClientRecord, error) {
	return s.PutSections(ctx, id, map[string]models.SectionPayload{name: payload}, now)
}

// PutSections merges the named replacements into the JSONB document with a
// single UPDATE. jsonb || jsonb replaces top-level keys wholesale, which is
// exactly the replace-not-deep-merge contract.
func (s *Postgres) PutSections(ctx context.Context, id uuid.UUID, sections map[string]models.SectionPayload, now time.Time) (*models.ClientRecord, error) {
	patch := make(map[string]models.SectionPayload, len(sections))
	for name, payload := range sections {
		if payload == nil {
			payload = models.SectionPayload{}
		}
		patch[name] = payload
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("marshal section patch: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE client_records
		SET sections = sections || $2::jsonb, updated_at = $3
		WHERE id = $1
		RETURNING id, client_number, sections, created_at, updated_at`,
		id, raw, now,
	)
	return scanRecord(row)
}

func scanRecord(row *sql.Row) (*models.ClientRecord, error) {
	var record models.ClientRecord
	var raw []byte
	err := row.Scan(&record.ID, &record.ClientNumber, &raw, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan client record: %w", err)
	}
	record.Sections = make(map[string]models.SectionPayload)
	if err := json.Unmarshal(raw, &record.Sections); err != nil {
		return nil, fmt.Errorf("unmarshal sections: %w", err)
	}
	return &record, nil
}
