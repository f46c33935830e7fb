package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"cetrack/internal/risk/models"
	"cetrack/internal/transport/http/shared"
	id "cetrack/pkg/domain"
	dErrors "cetrack/pkg/domain-errors"
	"cetrack/pkg/requestcontext"
)

// Service defines the interface for firm risk scoring.
type Service interface {
	ScoreFirm(ctx context.Context, firmID id.FirmID) ([]*models.MemberRiskProfile, error)
}

// Handler handles the firm risk roster endpoint.
type Handler struct {
	logger *slog.Logger
	risk   Service
}

// New creates a new risk Handler.
func New(risk Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, risk: risk}
}

// Register registers the risk routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/firms/{firmID}/risk", h.handleFirmRisk)
}

type firmRiskResponse struct {
	Members []*models.MemberRiskProfile `json:"members"`
}

// handleFirmRisk returns every scoreable member of the firm, highest risk
// first. Optional ?level= filters to one risk level.
func (h *Handler) handleFirmRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	firmID, err := id.ParseFirmID(chi.URLParam(r, "firmID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid firm_id"))
		return
	}

	profiles, err := h.risk.ScoreFirm(ctx, firmID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to score firm",
			"request_id", requestcontext.RequestID(ctx),
			"firm_id", firmID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	if raw := r.URL.Query().Get("level"); raw != "" {
		level := models.RiskLevel(raw)
		switch level {
		case models.RiskLow, models.RiskMedium, models.RiskHigh, models.RiskCritical:
		default:
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid risk level"))
			return
		}
		filtered := profiles[:0]
		for _, p := range profiles {
			if p.RiskLevel == level {
				filtered = append(filtered, p)
			}
		}
		profiles = filtered
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].RiskScore > profiles[j].RiskScore
	})
	if profiles == nil {
		profiles = []*models.MemberRiskProfile{}
	}
	shared.WriteJSON(w, http.StatusOK, firmRiskResponse{Members: profiles})
}
