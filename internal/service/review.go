package service

import (
	"context"

	"github.com/raphaelgruber/chronicle-go/internal/bootstrap"
	"github.com/raphaelgruber/chronicle-go/internal/models"
)

const defaultPageSize = 50

// ListOptions filters and pages the candidate listing.
type ListOptions struct {
	EntityType      models.EntityType
	IncludeExcluded bool
	WithEvidence    bool
	Offset          int
	Limit           int
}

// CandidatePage is one page of the candidate snapshot.
type CandidatePage struct {
	Candidates []models.Candidate `json:"candidates"`
	Total      int                `json:"total"`
	Offset     int                `json:"offset"`
	Limit      int                `json:"limit"`
}

// ListCandidates pages through a session's candidate snapshot in merge
// order. Evidence spans are stripped unless requested; listing is read-only
// and allowed in any session state.
func (s *Service) ListCandidates(ctx context.Context, sessionID string, opts ListOptions) (*CandidatePage, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var filtered []models.Candidate
	for _, c := range session.Candidates {
		if opts.EntityType != "" && c.EntityType != opts.EntityType {
			continue
		}
		if !opts.IncludeExcluded && !c.Include {
			continue
		}
		if !opts.WithEvidence {
			c.Evidence = nil
		}
		filtered = append(filtered, c)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	page := &CandidatePage{Total: len(filtered), Offset: offset, Limit: limit}
	if offset < len(filtered) {
		end := offset + limit
		if end > len(filtered) {
			end = len(filtered)
		}
		page.Candidates = filtered[offset:end]
	}
	return page, nil
}

// ApplyValidationOverlay stores the caller's edits and returns diagnostics
// computed over the patched view. The stored snapshot is never modified.
func (s *Service) ApplyValidationOverlay(ctx context.Context, sessionID string, overlay *models.ValidationOverlay) (*bootstrap.Diagnostics, error) {
	session, err := s.loadReviewable(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetSessionOverlay(ctx, sessionID, overlay); err != nil {
		return nil, err
	}
	session.Overlay = overlay

	patched := bootstrap.ApplyOverlay(session.Candidates, overlay)
	draft := timelineDraft(session)
	diags := bootstrap.Validate(&draft, patched, bootstrap.ValidateOptions{
		EvidenceGateWarn: s.cfg.EvidenceGateWarn,
	})
	return diags, nil
}

// ValidateSession computes diagnostics for the session's current view
// (snapshot plus stored overlay) without changing anything.
func (s *Service) ValidateSession(ctx context.Context, sessionID string) (*bootstrap.Diagnostics, error) {
	session, err := s.loadReviewable(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	patched := bootstrap.ApplyOverlay(session.Candidates, session.Overlay)
	draft := timelineDraft(session)
	diags := bootstrap.Validate(&draft, patched, bootstrap.ValidateOptions{
		EvidenceGateWarn: s.cfg.EvidenceGateWarn,
	})
	return diags, nil
}
