package handler

import (
	"time"

	"cetrack/internal/rules/models"
	id "cetrack/pkg/domain"
	dErrors "cetrack/pkg/domain-errors"
)

// publishPackRequest is the admin payload for publishing a rule pack.
// Versioning is server-assigned; the caller supplies only the window start
// (and optionally an explicit end) plus the rules themselves.
type publishPackRequest struct {
	CredentialID  string         `json:"credential_id"`
	Name          string         `json:"name"`
	EffectiveFrom string         `json:"effective_from"`
	EffectiveTo   *string        `json:"effective_to,omitempty"`
	Rules         models.RuleSet `json:"rules"`
}

func (req publishPackRequest) toModel() (*models.RulePack, error) {
	credentialID, err := id.ParseCredentialID(req.CredentialID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid credential_id")
	}
	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "effective_from must be YYYY-MM-DD")
	}

	pack := &models.RulePack{
		CredentialID:  credentialID,
		Name:          req.Name,
		EffectiveFrom: effectiveFrom,
		Rules:         req.Rules,
	}
	if req.EffectiveTo != nil {
		effectiveTo, err := time.Parse("2006-01-02", *req.EffectiveTo)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, "effective_to must be YYYY-MM-DD")
		}
		pack.EffectiveTo = &effectiveTo
	}
	return pack, nil
}

type listPacksResponse struct {
	Packs []*models.RulePack `json:"packs"`
}
