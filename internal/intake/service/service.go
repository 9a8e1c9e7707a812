// Package service orchestrates the multi-stage client record workflow:
// validate, write, recompute completion, respond. Every mutating operation
// passes the validation gate before the store is touched, and every response
// carries completion figures computed from the record as written.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"meridian/internal/audit"
	"meridian/internal/intake/completion"
	intakemetrics "meridian/internal/intake/metrics"
	"meridian/internal/intake/models"
	"meridian/internal/intake/registry"
	"meridian/internal/intake/validation"
	dErrors "meridian/pkg/domain-errors"
	"meridian/pkg/platform/sentinel"
	"meridian/pkg/requestcontext"
)

// Store is the service's only point of contact with persistence.
type Store interface {
	Create(ctx context.Context, record *models.ClientRecord) (*models.ClientRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ClientRecord, error)
	GetSection(ctx context.Context, id uuid.UUID, name string) (models.SectionPayload, error)
	PutSection(ctx context.Context, id uuid.UUID, name string, payload models.SectionPayload, now time.Time) (*models.ClientRecord, error)
	PutSections(ctx context.Context, id uuid.UUID, sections map[string]models.SectionPayload, now time.Time) (*models.ClientRecord, error)
}

// AuditPublisher emits intake audit events. Emission is fail-open: an audit
// failure is logged, never surfaced to the caller.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the multi-stage client record orchestrator.
type Service struct {
	store    Store
	registry *registry.Registry
	logger   *slog.Logger
	auditor  AuditPublisher
	metrics  *intakemetrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *intakemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the service around a store. The section registry is the
// process-wide catalog.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		registry: registry.Default(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("meridian/intake"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateClient starts a new record. The minimum-viable-record policy runs
// against the supplied applicant section, and every supplied section passes
// the shape gate; on any failure no record is created.
func (s *Service) CreateClient(ctx context.Context, initial map[string]models.SectionPayload) (*models.ClientSummary, error) {
	ctx, span := s.tracer.Start(ctx, "intake.CreateClient")
	defer span.End()

	if err := validation.MinimumViableRecord(initial); err != nil {
		return nil, err
	}
	if err := validation.Sections(s.registry, initial); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	record := &models.ClientRecord{
		ID:        uuid.New(),
		Status:    models.StatusNew,
		Sections:  initial,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.store.Create(ctx, record)
	if err != nil {
		return nil, s.wrapStoreErr(err, "create client record")
	}
	span.SetAttributes(attribute.String("record_id", created.ID.String()))

	report := completion.Compute(created.Sections, s.registry)
	s.emitAudit(ctx, audit.ActionClientCreated, created.ID, sectionNames(s.registry, initial))
	if s.metrics != nil {
		s.metrics.IncrementClientsCreated()
	}
	s.logger.InfoContext(ctx, "client record created",
		"record_id", created.ID,
		"client_number", created.ClientNumber,
		"completion_percentage", report.CompletionPercentage,
	)

	return summarize(created, report), nil
}

// GetClient returns the record summary with freshly computed completion.
func (s *Service) GetClient(ctx context.Context, recordID uuid.UUID) (*models.ClientSummary, error) {
	ctx, span := s.tracer.Start(ctx, "intake.GetClient")
	defer span.End()

	record, err := s.store.FindByID(ctx, recordID)
	if err != nil {
		return nil, s.wrapStoreErr(err, "find client record")
	}
	report := completion.Compute(record.Sections, s.registry)
	return summarize(record, report), nil
}

// GetSection returns the stored payload for one section. Absent and empty
// sections are both reported as an empty payload: the core does not
// distinguish them at this level.
func (s *Service) GetSection(ctx context.Context, recordID uuid.UUID, name string) (models.SectionPayload, error) {
	ctx, span := s.tracer.Start(ctx, "intake.GetSection")
	defer span.End()

	if err := validation.KnownSection(s.registry, name); err != nil {
		return nil, err
	}
	payload, err := s.store.GetSection(ctx, recordID, name)
	if err != nil {
		return nil, s.wrapStoreErr(err, "get section")
	}
	if payload == nil {
		return models.SectionPayload{}, nil
	}
	return payload, nil
}

// UpdateSection replaces one section's payload and returns the record's
// fresh completion figures. A write may legally move the record backward:
// emptying a previously complete section demotes it from complete.
func (s *Service) UpdateSection(ctx context.Context, recordID uuid.UUID, name string, payload models.SectionPayload) (*models.UpdateResult, error) {
	ctx, span := s.tracer.Start(ctx, "intake.UpdateSection",
		trace.WithAttributes(attribute.String("section", name)))
	defer span.End()

	if err := validation.SectionShape(s.registry, name, payload); err != nil {
		return nil, err
	}

	updated, err := s.store.PutSection(ctx, recordID, name, payload, requestcontext.Now(ctx))
	if err != nil {
		return nil, s.wrapStoreErr(err, "put section")
	}

	report := completion.Compute(updated.Sections, s.registry)
	s.emitAudit(ctx, audit.ActionSectionUpdated, recordID, []string{name})
	if s.metrics != nil {
		s.metrics.ObserveWrite(name, report.CompletionPercentage)
	}

	return &models.UpdateResult{
		UpdatedSection:       name,
		CompletionPercentage: report.CompletionPercentage,
		Status:               report.Status,
	}, nil
}

// BulkUpdateSections applies multiple section replacements as one logical
// unit. If any entry fails the shape gate the whole request is rejected
// before any write occurs.
func (s *Service) BulkUpdateSections(ctx context.Context, recordID uuid.UUID, sections map[string]models.SectionPayload) (*models.BulkUpdateResult, error) {
	ctx, span := s.tracer.Start(ctx, "intake.BulkUpdateSections")
	defer span.End()

	if len(sections) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no sections supplied")
	}
	if err := validation.Sections(s.registry, sections); err != nil {
		return nil, err
	}

	updated, err := s.store.PutSections(ctx, recordID, sections, requestcontext.Now(ctx))
	if err != nil {
		return nil, s.wrapStoreErr(err, "put sections")
	}

	names := sectionNames(s.registry, sections)
	report := completion.Compute(updated.Sections, s.registry)
	s.emitAudit(ctx, audit.ActionSectionsBulkUpdate, recordID, names)
	if s.metrics != nil {
		s.metrics.ObserveBulkWrite(names, report.CompletionPercentage)
	}

	return &models.BulkUpdateResult{
		UpdatedSections:      names,
		CompletionPercentage: report.CompletionPercentage,
		Status:               report.Status,
	}, nil
}

// GetProgress returns the full completion report without mutating anything.
func (s *Service) GetProgress(ctx context.Context, recordID uuid.UUID) (*models.CompletionReport, error) {
	ctx, span := s.tracer.Start(ctx, "intake.GetProgress")
	defer span.End()

	record, err := s.store.FindByID(ctx, recordID)
	if err != nil {
		return nil, s.wrapStoreErr(err, "find client record")
	}
	report := completion.Compute(record.Sections, s.registry)
	return &report, nil
}

// wrapStoreErr translates store facts into coded domain errors. Anything
// that is not a known sentinel is treated as the store being unavailable;
// the core never retries on the caller's behalf.
func (s *Service) wrapStoreErr(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "client record not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent update conflict, retry the request")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, what+": store unavailable")
	}
}

func (s *Service) emitAudit(ctx context.Context, action audit.Action, recordID uuid.UUID, sections []string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Action:    action,
		RecordID:  recordID,
		Sections:  sections,
		ActorID:   requestcontext.ActorID(ctx),
		RequestID: requestcontext.RequestID(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
		Timestamp: requestcontext.Now(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", action,
			"record_id", recordID,
			"error", err,
		)
	}
}

// sectionNames returns the registry-known names present in sections, in
// registry order so responses are deterministic.
func sectionNames(reg *registry.Registry, sections map[string]models.SectionPayload) []string {
	names := make([]string, 0, len(sections))
	for _, name := range reg.Names() {
		if _, ok := sections[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

func summarize(record *models.ClientRecord, report models.CompletionReport) *models.ClientSummary {
	return &models.ClientSummary{
		ID:                   record.ID,
		ClientNumber:         record.ClientNumber,
		Status:               report.Status,
		CompletionPercentage: report.CompletionPercentage,
		CreatedAt:            record.CreatedAt,
		UpdatedAt:            record.UpdatedAt,
	}
}
