package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cetrack/internal/platform/middleware"
	"cetrack/internal/rules/models"
	"cetrack/internal/transport/http/shared"
	id "cetrack/pkg/domain"
	dErrors "cetrack/pkg/domain-errors"
	"cetrack/pkg/requestcontext"
)

// Service defines the interface for rule resolution and pack management.
type Service interface {
	Resolve(ctx context.Context, credentialID id.CredentialID, targetDate time.Time) (*models.ResolvedRules, error)
	PublishPack(ctx context.Context, pack *models.RulePack) (*models.RulePack, error)
	ListPacks(ctx context.Context, credentialID id.CredentialID) ([]*models.RulePack, error)
}

// Handler handles rule resolution and rule-pack admin endpoints.
type Handler struct {
	logger     *slog.Logger
	rules      Service
	adminToken string
}

// New creates a new rules Handler.
func New(rules Service, logger *slog.Logger, adminToken string) *Handler {
	return &Handler{
		logger:     logger,
		rules:      rules,
		adminToken: adminToken,
	}
}

// Register registers the rules routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/credentials/{credentialID}/rules", h.handleResolve)
	r.Get("/credentials/{credentialID}/rulepacks", h.handleListPacks)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdminToken(h.adminToken, h.logger))
		admin.Post("/admin/rulepacks", h.handlePublishPack)
	})
}

// handleResolve returns the rules in force for a credential on a date.
// An omitted date resolves against the request clock.
func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid credential_id"))
		return
	}

	var targetDate time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		targetDate, err = time.Parse("2006-01-02", raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "date must be YYYY-MM-DD"))
			return
		}
	}

	resolved, err := h.rules.Resolve(ctx, credentialID, targetDate)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to resolve rules", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resolved)
}

func (h *Handler) handleListPacks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid credential_id"))
		return
	}

	packs, err := h.rules.ListPacks(ctx, credentialID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list rule packs", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, listPacksResponse{Packs: packs})
}

func (h *Handler) handlePublishPack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req publishPackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	pack, err := req.toModel()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	published, err := h.rules.PublishPack(ctx, pack)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to publish rule pack", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, published)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	default:
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	shared.WriteError(w, err)
}
