// Package handler is the HTTP surface of the intake vertical. It decodes
// requests, delegates to the intake service, and writes JSON envelopes; no
// business rules live here.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"meridian/internal/intake/models"
	"meridian/internal/platform/middleware"
	dErrors "meridian/pkg/domain-errors"
	"meridian/pkg/platform/httputil"
)

// Service defines the intake operations the HTTP layer depends on.
type Service interface {
	CreateClient(ctx context.Context, initial map[string]models.SectionPayload) (*models.ClientSummary, error)
	GetClient(ctx context.Context, recordID uuid.UUID) (*models.ClientSummary, error)
	GetSection(ctx context.Context, recordID uuid.UUID, name string) (models.SectionPayload, error)
	UpdateSection(ctx context.Context, recordID uuid.UUID, name string, payload models.SectionPayload) (*models.UpdateResult, error)
	BulkUpdateSections(ctx context.Context, recordID uuid.UUID, sections map[string]models.SectionPayload) (*models.BulkUpdateResult, error)
	GetProgress(ctx context.Context, recordID uuid.UUID) (*models.CompletionReport, error)
}

// Handler handles client record endpoints.
type Handler struct {
	logger       *slog.Logger
	intake       Service
	jwtValidator middleware.JWTValidator
}

// New creates a new intake Handler.
func New(intake Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		intake:       intake,
		jwtValidator: jwtValidator,
	}
}

// Register registers the client record routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	clientRouter := chi.NewRouter()
	clientRouter.Use(middleware.Recovery(h.logger))
	clientRouter.Use(middleware.RequestID)
	clientRouter.Use(middleware.Logger(h.logger))
	clientRouter.Use(middleware.Timeout(30 * time.Second))
	clientRouter.Use(middleware.ContentTypeJSON)
	clientRouter.Use(middleware.ClientMetadata)
	clientRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	clientRouter.Post("/clients", h.handleCreateClient)
	clientRouter.Get("/clients/{clientID}", h.handleGetClient)
	clientRouter.Get("/clients/{clientID}/section/{sectionName}", h.handleGetSection)
	clientRouter.Put("/clients/{clientID}/section/{sectionName}", h.handleUpdateSection)
	clientRouter.Put("/clients/{clientID}/bulk-update", h.handleBulkUpdate)
	clientRouter.Get("/clients/{clientID}/progress", h.handleGetProgress)

	r.Mount("/", clientRouter)
}

// sectionUpdateRequest is the optional wrapper form of a section write. The
// bare payload form is also accepted; decodeSectionPayload handles both.
type sectionUpdateRequest struct {
	Section string                `json:"section"`
	Data    models.SectionPayload `json:"data"`
}

func (h *Handler) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var initial map[string]models.SectionPayload
	if err := json.NewDecoder(r.Body).Decode(&initial); err != nil {
		h.warnDecode(ctx, "create client", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	summary, err := h.intake.CreateClient(ctx, initial)
	if err != nil {
		h.writeServiceError(ctx, w, "create client", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, summary)
}

func (h *Handler) handleGetClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	summary, err := h.intake.GetClient(ctx, recordID)
	if err != nil {
		h.writeServiceError(ctx, w, "get client", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleGetSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	sectionName := chi.URLParam(r, "sectionName")

	payload, err := h.intake.GetSection(ctx, recordID, sectionName)
	if err != nil {
		h.writeServiceError(ctx, w, "get section", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	sectionName := chi.URLParam(r, "sectionName")

	payload, err := decodeSectionPayload(r.Body, sectionName)
	if err != nil {
		h.warnDecode(ctx, "update section", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, err.Error()))
		return
	}

	result, err := h.intake.UpdateSection(ctx, recordID, sectionName, payload)
	if err != nil {
		h.writeServiceError(ctx, w, "update section", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	var sections map[string]models.SectionPayload
	if err := json.NewDecoder(r.Body).Decode(&sections); err != nil {
		h.warnDecode(ctx, "bulk update", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.intake.BulkUpdateSections(ctx, recordID, sections)
	if err != nil {
		h.writeServiceError(ctx, w, "bulk update", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	report, err := h.intake.GetProgress(ctx, recordID)
	if err != nil {
		h.writeServiceError(ctx, w, "get progress", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}

// decodeSectionPayload accepts both write forms: a bare JSON object used as
// the payload directly, or a {"section": ..., "data": {...}} wrapper. The
// wrapper's section field, when present, must match the URL.
func decodeSectionPayload(body io.Reader, sectionName string) (models.SectionPayload, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, errors.New("invalid request body")
	}

	dataRaw, isWrapper := raw["data"]
	if isWrapper {
		// Only treat the body as a wrapper when it carries no other keys,
		// so a payload that happens to have a "data" field still round-trips.
		for key := range raw {
			if key != "section" && key != "data" {
				isWrapper = false
				break
			}
		}
	}
	if !isWrapper {
		payload := make(models.SectionPayload, len(raw))
		for key, value := range raw {
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return nil, errors.New("invalid request body")
			}
			payload[key] = v
		}
		return payload, nil
	}

	if nameRaw, ok := raw["section"]; ok {
		var name string
		if err := json.Unmarshal(nameRaw, &name); err != nil {
			return nil, errors.New("section must be a string")
		}
		if name != sectionName {
			return nil, errors.New("section in body does not match URL")
		}
	}

	var payload models.SectionPayload
	if err := json.Unmarshal(dataRaw, &payload); err != nil {
		return nil, errors.New("data must be an object")
	}
	if payload == nil {
		return nil, errors.New("data is required")
	}
	return payload, nil
}

// clientID parses the clientID URL parameter, writing a 400 on failure.
func (h *Handler) clientID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	recordID, err := uuid.Parse(chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "clientID must be a UUID"))
		return uuid.Nil, false
	}
	return recordID, true
}

func (h *Handler) warnDecode(ctx context.Context, op string, err error) {
	h.logger.WarnContext(ctx, "invalid request",
		"operation", op,
		"error", err.Error(),
	)
}

// writeServiceError logs and writes a service error. Expected client errors
// log at warn; everything else logs at error and is masked by the envelope
// writer.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case dErrors.Is(err, dErrors.CodeValidation),
		dErrors.Is(err, dErrors.CodeBadRequest),
		dErrors.Is(err, dErrors.CodeNotFound),
		dErrors.Is(err, dErrors.CodeConflict):
		h.logger.WarnContext(ctx, "request rejected",
			"operation", op,
			"error", err.Error(),
		)
	default:
		h.logger.ErrorContext(ctx, "operation failed",
			"operation", op,
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
