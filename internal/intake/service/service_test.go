package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"meridian/internal/audit"
	"meridian/internal/intake/models"
	"meridian/internal/intake/registry"
	"meridian/internal/intake/service"
	"meridian/internal/intake/store"
	dErrors "meridian/pkg/domain-errors"
	"meridian/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemory
	audit   *audit.InMemoryStore
	service *service.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = testutil.Context()
	s.store = store.NewInMemory(registry.Default())
	s.audit = audit.NewInMemoryStore()
	s.service = service.New(s.store,
		service.WithAuditPublisher(audit.NewPublisher(s.audit)),
	)
}

func minimumApplicant() map[string]models.SectionPayload {
	return map[string]models.SectionPayload{
		registry.SectionApplicant: {
			"firstName": "Jane",
			"lastName":  "Smith",
			"email":     "jane@example.com",
		},
	}
}

func (s *ServiceSuite) TestCreateClient() {
	summary, err := s.service.CreateClient(s.ctx, minimumApplicant())
	s.Require().NoError(err)

	s.Equal("C-100001", summary.ClientNumber)
	s.Equal(models.StatusNew, summary.Status, "email without phone leaves applicant incomplete")
	s.Equal(0, summary.CompletionPercentage)
	s.True(summary.CreatedAt.Equal(testutil.FixedTime))

	events, err := s.audit.ListByRecord(s.ctx, summary.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionClientCreated, events[0].Action)
	s.Equal("consultant-1", events[0].ActorID)
}

func (s *ServiceSuite) TestCreateClientWithCompleteApplicant() {
	initial := minimumApplicant()
	initial[registry.SectionApplicant]["mobilePhone"] = "555-0101"

	summary, err := s.service.CreateClient(s.ctx, initial)
	s.Require().NoError(err)
	s.Equal(models.StatusInProgress, summary.Status)
	s.Equal(8, summary.CompletionPercentage, "1 of 13 sections complete")
}

func (s *ServiceSuite) TestCreateClientBelowMinimum() {
	_, err := s.service.CreateClient(s.ctx, map[string]models.SectionPayload{
		registry.SectionApplicant: {"firstName": "Jane"},
	})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.ErrorIs(err, models.ErrIncompleteMinimumData)
	s.ElementsMatch([]string{"lastName", "email or phone"}, dErrors.FieldsOf(err))
}

func (s *ServiceSuite) TestCreateClientRejectsUnknownSection() {
	initial := minimumApplicant()
	initial["attachments"] = models.SectionPayload{"file": "resume.pdf"}

	_, err := s.service.CreateClient(s.ctx, initial)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.ErrorIs(err, models.ErrUnknownSection)
}

func (s *ServiceSuite) TestGetClientNotFound() {
	_, err := s.service.GetClient(s.ctx, uuid.New())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUpdateSection() {
	created, err := s.service.CreateClient(s.ctx, minimumApplicant())
	s.Require().NoError(err)

	result, err := s.service.UpdateSection(s.ctx, created.ID,
		registry.SectionLiabilities, models.SectionPayload{"totalDebt": 12000})
	s.Require().NoError(err)

	s.Equal(registry.SectionLiabilities, result.UpdatedSection)
	s.Equal(8, result.CompletionPercentage)
	s.Equal(models.StatusInProgress, result.Status)

	events, err := s.audit.ListByRecord(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionSectionUpdated, events[1].Action)
	s.Equal([]string{registry.SectionLiabilities}, events[1].Sections)
}

func (s *ServiceSuite) TestUpdateSectionUnknownName() {
	created, err := s.service.CreateClient(s.ctx, minimumApplicant())
	s.Require().NoError(err)

	_, err = s.service.UpdateSection(s.ctx, created.ID,
		"attachments", models.SectionPayload{"file": "x"})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.ErrorIs(err, models.ErrUnknownSection)
}

func (s *ServiceSuite) TestUpdateSectionNilPayload() {
	created, err := s.service.CreateClient(s.ctx, minimumApplicant())
	s.Require().NoError(err)

	_, err = s.service.UpdateSection(s.ctx, created.ID, registry.SectionVehicles, nil)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.ErrorIs(err, models.ErrMissingSectionData)
}

func (s *ServiceSuite) TestUpdateSectionBackwardTransition() {
	initial := minimumApplicant()
	initial[registry.SectionApplicant]["phone"] = "555-0101"
	created, err := s.service.CreateClient(s.ctx, initial)
	s.Require().NoError(err)
	s.Equal(models.StatusInProgress, created.Status)

	// Emptying the applicant demotes the record back to new.
	result, err := s.service.UpdateSection(s.ctx, created.ID,
		registry.SectionApplicant, models.SectionPayload{})
	s.Require().NoError(err)
	s.Equal(0, result.CompletionPercentage)
	s.Equal(models.StatusNew, result.Status)
}

func (s *ServiceSuite) TestGetSection() {
	created, err := s.service.CreateClient(s.ctx, minimumApplicant())
	s.Require().NoError(err)

	payload, err := s.service.GetSection(s.ctx, created.ID, registry.SectionApplicant)
	s.Require().NoError(err)
	s.Equal("Jane", payload["firstName"])

	absent, err := s.service.GetSection(s.ctx, created.ID, registry.SectionRetirement)
	s.Require().NoError(err)
	s.NotNil(absent)
	s.Empty(absent, "never-written section reads as empty, not an error")

	_, err = s.service.GetSection(s.ctx, created.ID, "attachments")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.GetSection(s.ctx, uuid.New(), registry.SectionApplicant)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestBulkUpdateSections() {
	created, err := s.service.CreateClient(s.ctx, minimumApplicant())
	s.Require().NoError(err)

	result, err := s.service.BulkUpdateSections(s.ctx, created.ID, map[string]models.SectionPayload{
		registry.SectionMortgages:   {"lender": "First Bank"},
		registry.SectionLiabilities: {"totalDebt": 12000},
		registry.SectionDrivers:     {"licenseNumber": "D1234567"},
	})
	s.Require().NoError(err)

	s.Equal([]string{
		registry.SectionLiabilities,
		registry.SectionMortgages,
		registry.SectionDrivers,
	}, result.UpdatedSections, "catalog order, not map order")
	s.Equal(23, result.CompletionPercentage, "3 of 13 sections complete")
	s.Equal(models.StatusInProgress, result.Status)
}

func (s *ServiceSuite) TestBulkUpdateEmptyRequest() {
	created, err := s.service.CreateClient(s.ctx, minimumApplicant())
	s.Require().NoError(err)

	_, err = s.service.BulkUpdateSections(s.ctx, created.ID, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestBulkUpdateAllOrNothing() {
	created, err := s.service.CreateClient(s.ctx, minimumApplicant())
	s.Require().NoError(err)

	_, err = s.service.BulkUpdateSections(s.ctx, created.ID, map[string]models.SectionPayload{
		registry.SectionMortgages: {"lender": "First Bank"},
		"attachments":             {"file": "x"},
	})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))

	payload, err := s.service.GetSection(s.ctx, created.ID, registry.SectionMortgages)
	s.Require().NoError(err)
	s.Empty(payload, "rejected bulk write must not partially apply")
}

func (s *ServiceSuite) TestGetProgress() {
	created, err := s.service.CreateClient(s.ctx, minimumApplicant())
	s.Require().NoError(err)

	_, err = s.service.UpdateSection(s.ctx, created.ID,
		registry.SectionHomeowners, models.SectionPayload{"dwellingCoverage": 350000})
	s.Require().NoError(err)

	report, err := s.service.GetProgress(s.ctx, created.ID)
	s.Require().NoError(err)

	s.Equal(8, report.CompletionPercentage)
	s.Equal([]string{registry.SectionHomeowners}, report.CompletedSections)
	s.Equal(1, report.CompletedCount)
	s.Equal(13, report.TotalSections)
	s.Equal(models.StatusInProgress, report.Status)
	s.False(report.SectionProgress[registry.SectionApplicant].Completed)
	s.Equal(100, report.SectionProgress[registry.SectionHomeowners].CompletionPercentage)
}

func (s *ServiceSuite) TestStoreFailureMapsToUnavailable() {
	svc := service.New(failingStore{})

	_, err := svc.GetClient(s.ctx, uuid.New())
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	_, err = svc.CreateClient(s.ctx, minimumApplicant())
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

// failingStore simulates an unreachable backend.
type failingStore struct{}

var errBackend = errors.New("connection refused")

func (failingStore) Create(context.Context, *models.ClientRecord) (*models.ClientRecord, error) {
	return nil, errBackend
}

func (failingStore) FindByID(context.Context, uuid.UUID) (*models.ClientRecord, error) {
	return nil, errBackend
}

func (failingStore) GetSection(context.Context, uuid.UUID, string) (models.SectionPayload, error) {
	return nil, errBackend
}

func (failingStore) PutSection(context.Context, uuid.UUID, string, models.SectionPayload, time.Time) (*models.ClientRecord, error) {
	return nil, errBackend
}

func (failingStore) PutSections(context.Context, uuid.UUID, map[string]models.SectionPayload, time.Time) (*models.ClientRecord, error) {
	return nil, errBackend
}
