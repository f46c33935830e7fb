package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cetrack/internal/benchmark/batch"
	"cetrack/internal/benchmark/models"
	"cetrack/internal/platform/middleware"
	"cetrack/internal/transport/http/shared"
	id "cetrack/pkg/domain"
	dErrors "cetrack/pkg/domain-errors"
	"cetrack/pkg/requestcontext"
)

// Service defines the interface for benchmark operations.
type Service interface {
	GenerateSnapshot(ctx context.Context, credentialID id.CredentialID, period id.Period, jurisdiction id.Jurisdiction) (*models.BenchmarkSnapshot, error)
	GetUserBenchmark(ctx context.Context, userID id.UserID, credentialID id.CredentialID, period id.Period) (*models.UserBenchmark, error)
}

// BatchRunner runs snapshot generation across all partition keys.
type BatchRunner interface {
	Run(ctx context.Context, period id.Period) (*batch.Report, error)
}

// Handler handles benchmark lookup and snapshot admin endpoints.
type Handler struct {
	logger     *slog.Logger
	benchmarks Service
	runner     BatchRunner
	adminToken string
}

// New creates a new benchmark Handler.
func New(benchmarks Service, runner BatchRunner, logger *slog.Logger, adminToken string) *Handler {
	return &Handler{
		logger:     logger,
		benchmarks: benchmarks,
		runner:     runner,
		adminToken: adminToken,
	}
}

// Register registers the benchmark routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/users/{userID}/benchmarks/{credentialID}", h.handleGetUserBenchmark)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdminToken(h.adminToken, h.logger))
		admin.Post("/admin/snapshots/generate", h.handleGenerateSnapshot)
		admin.Post("/admin/snapshots/generate-all", h.handleGenerateAll)
	})
}

// handleGetUserBenchmark returns the user's cohort standing for a credential.
// An omitted period defaults to the current one.
func (h *Handler) handleGetUserBenchmark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user_id"))
		return
	}
	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid credential_id"))
		return
	}
	period := id.Period(r.URL.Query().Get("period"))

	benchmark, err := h.benchmarks.GetUserBenchmark(ctx, userID, credentialID, period)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load user benchmark", err)
		return
	}
	if benchmark == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user does not hold this credential"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, benchmark)
}

type generateSnapshotRequest struct {
	CredentialID string `json:"credential_id"`
	Period       string `json:"period"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
}

func (h *Handler) handleGenerateSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generateSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	credentialID, err := id.ParseCredentialID(req.CredentialID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid credential_id"))
		return
	}

	snapshot, err := h.benchmarks.GenerateSnapshot(ctx, credentialID, id.Period(req.Period), id.ParseJurisdiction(req.Jurisdiction))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to generate snapshot", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, snapshot)
}

type generateAllRequest struct {
	Period string `json:"period"`
}

func (h *Handler) handleGenerateAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generateAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	report, err := h.runner.Run(ctx, id.Period(req.Period))
	if err != nil {
		h.writeServiceError(ctx, w, "snapshot batch run failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, report)
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
