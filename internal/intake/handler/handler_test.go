package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"meridian/internal/intake/handler"
	"meridian/internal/intake/models"
	"meridian/internal/intake/registry"
	"meridian/internal/intake/service"
	"meridian/internal/intake/store"
	jwttoken "meridian/internal/jwt_token"
	"meridian/pkg/testutil"
)

// IntakeHandlerSuite exercises the HTTP surface end to end: real router,
// real middleware chain, real service over the in-memory store.
type IntakeHandlerSuite struct {
	suite.Suite
	router chi.Router
	token  string
}

func TestIntakeHandlerSuite(t *testing.T) {
	suite.Run(t, new(IntakeHandlerSuite))
}

func (s *IntakeHandlerSuite) SetupTest() {
	jwtService := jwttoken.NewService("test-signing-key", "meridian", "meridian-intake")
	token, err := jwtService.GenerateAccessToken("consultant-7", uuid.New(), time.Hour)
	s.Require().NoError(err)
	s.token = token

	svc := service.New(store.NewInMemory(registry.Default()))
	h := handler.New(svc, testutil.DiscardLogger(), jwttoken.NewServiceAdapter(jwtService))

	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *IntakeHandlerSuite) request(method, path string, body any) *http.Request {
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(s.T(), method, path, body)
	} else {
		req = testutil.NewRequest(s.T(), method, path)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	return req
}

func (s *IntakeHandlerSuite) createClient() models.ClientSummary {
	rr := testutil.DoRequest(s.router, s.request(http.MethodPost, "/clients", map[string]any{
		"applicant": map[string]any{
			"firstName": "Jane",
			"lastName":  "Smith",
			"email":     "jane@example.com",
		},
	}))
	s.Require().Equal(http.StatusCreated, rr.Code)

	var summary models.ClientSummary
	testutil.DecodeJSON(s.T(), rr, &summary)
	return summary
}

func (s *IntakeHandlerSuite) TestCreateClient() {
	summary := s.createClient()
	s.Equal("C-100001", summary.ClientNumber)
	s.Equal(models.StatusNew, summary.Status)
	s.Equal(0, summary.CompletionPercentage)
}

func (s *IntakeHandlerSuite) TestCreateClientValidationError() {
	rr := testutil.DoRequest(s.router, s.request(http.MethodPost, "/clients", map[string]any{
		"applicant": map[string]any{"firstName": "Jane"},
	}))
	s.Require().Equal(http.StatusBadRequest, rr.Code)

	var resp map[string]any
	testutil.DecodeJSON(s.T(), rr, &resp)
	s.Equal("validation_failed", resp["error"])
	s.Contains(resp, "fields")
}

func (s *IntakeHandlerSuite) TestCreateClientMalformedBody() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/clients", "not-an-object")
	req.Header.Set("Authorization", "Bearer "+s.token)
	rr := testutil.DoRequest(s.router, req)
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *IntakeHandlerSuite) TestRequiresAuth() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/clients", map[string]any{})
	rr := testutil.DoRequest(s.router, req)
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func (s *IntakeHandlerSuite) TestGetClient() {
	created := s.createClient()

	rr := testutil.DoRequest(s.router,
		s.request(http.MethodGet, "/clients/"+created.ID.String(), nil))
	s.Require().Equal(http.StatusOK, rr.Code)

	var summary models.ClientSummary
	testutil.DecodeJSON(s.T(), rr, &summary)
	s.Equal(created.ClientNumber, summary.ClientNumber)
}

func (s *IntakeHandlerSuite) TestGetClientNotFound() {
	rr := testutil.DoRequest(s.router,
		s.request(http.MethodGet, "/clients/"+uuid.NewString(), nil))
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *IntakeHandlerSuite) TestGetClientBadID() {
	rr := testutil.DoRequest(s.router,
		s.request(http.MethodGet, "/clients/not-a-uuid", nil))
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *IntakeHandlerSuite) TestUpdateSectionBarePayload() {
	created := s.createClient()

	rr := testutil.DoRequest(s.router, s.request(http.MethodPut,
		"/clients/"+created.ID.String()+"/section/liabilities",
		map[string]any{"totalDebt": 12000}))
	s.Require().Equal(http.StatusOK, rr.Code)

	var result models.UpdateResult
	testutil.DecodeJSON(s.T(), rr, &result)
	s.Equal("liabilities", result.UpdatedSection)
	s.Equal(8, result.CompletionPercentage)
	s.Equal(models.StatusInProgress, result.Status)
}

func (s *IntakeHandlerSuite) TestUpdateSectionWrappedPayload() {
	created := s.createClient()

	rr := testutil.DoRequest(s.router, s.request(http.MethodPut,
		"/clients/"+created.ID.String()+"/section/mortgages",
		map[string]any{
			"section": "mortgages",
			"data":    map[string]any{"lender": "First Bank"},
		}))
	s.Require().Equal(http.StatusOK, rr.Code)

	var result models.UpdateResult
	testutil.DecodeJSON(s.T(), rr, &result)
	s.Equal("mortgages", result.UpdatedSection)
}

func (s *IntakeHandlerSuite) TestUpdateSectionWrapperMismatch() {
	created := s.createClient()

	rr := testutil.DoRequest(s.router, s.request(http.MethodPut,
		"/clients/"+created.ID.String()+"/section/mortgages",
		map[string]any{
			"section": "liabilities",
			"data":    map[string]any{"lender": "First Bank"},
		}))
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *IntakeHandlerSuite) TestUpdateUnknownSection() {
	created := s.createClient()

	rr := testutil.DoRequest(s.router, s.request(http.MethodPut,
		"/clients/"+created.ID.String()+"/section/attachments",
		map[string]any{"file": "resume.pdf"}))
	s.Require().Equal(http.StatusBadRequest, rr.Code)

	var resp map[string]any
	testutil.DecodeJSON(s.T(), rr, &resp)
	s.Equal("validation_failed", resp["error"])
}

func (s *IntakeHandlerSuite) TestGetSection() {
	created := s.createClient()

	rr := testutil.DoRequest(s.router, s.request(http.MethodGet,
		"/clients/"+created.ID.String()+"/section/applicant", nil))
	s.Require().Equal(http.StatusOK, rr.Code)

	var payload models.SectionPayload
	testutil.DecodeJSON(s.T(), rr, &payload)
	s.Equal("Jane", payload["firstName"])

	rr = testutil.DoRequest(s.router, s.request(http.MethodGet,
		"/clients/"+created.ID.String()+"/section/retirement", nil))
	s.Require().Equal(http.StatusOK, rr.Code)
	s.JSONEq("{}", rr.Body.String(), "never-written section reads as empty object")
}

func (s *IntakeHandlerSuite) TestBulkUpdate() {
	created := s.createClient()

	rr := testutil.DoRequest(s.router, s.request(http.MethodPut,
		"/clients/"+created.ID.String()+"/bulk-update",
		map[string]any{
			"mortgages":   map[string]any{"lender": "First Bank"},
			"liabilities": map[string]any{"totalDebt": 12000},
		}))
	s.Require().Equal(http.StatusOK, rr.Code)

	var result models.BulkUpdateResult
	testutil.DecodeJSON(s.T(), rr, &result)
	s.Equal([]string{"liabilities", "mortgages"}, result.UpdatedSections)
	s.Equal(15, result.CompletionPercentage)
}

func (s *IntakeHandlerSuite) TestBulkUpdateEmptyBody() {
	created := s.createClient()

	rr := testutil.DoRequest(s.router, s.request(http.MethodPut,
		"/clients/"+created.ID.String()+"/bulk-update", map[string]any{}))
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *IntakeHandlerSuite) TestGetProgress() {
	created := s.createClient()

	rr := testutil.DoRequest(s.router, s.request(http.MethodPut,
		"/clients/"+created.ID.String()+"/section/homeowners",
		map[string]any{"dwellingCoverage": 350000}))
	s.Require().Equal(http.StatusOK, rr.Code)

	rr = testutil.DoRequest(s.router, s.request(http.MethodGet,
		"/clients/"+created.ID.String()+"/progress", nil))
	s.Require().Equal(http.StatusOK, rr.Code)

	var report models.CompletionReport
	testutil.DecodeJSON(s.T(), rr, &report)
	s.Equal(8, report.CompletionPercentage)
	s.Equal(13, report.TotalSections)
	s.Equal([]string{"homeowners"}, report.CompletedSections)
	s.Equal(models.StatusInProgress, report.Status)
}
