package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raphaelgruber/chronicle-go/internal/llm"
	"github.com/raphaelgruber/chronicle-go/internal/metrics"
	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// Extraction modes reported in telemetry.
const (
	ModeModel     = "model"
	ModeHeuristic = "heuristic"
	ModeMixed     = "mixed"
)

// RunOptions configures one pipeline pass.
type RunOptions struct {
	Hints *models.TimelineHints
	// CancelCheck is polled before each chunk; returning true aborts the
	// pass with no partial candidates.
	CancelCheck func(ctx context.Context) (bool, error)
}

// RunResult is the output of one full pipeline pass: the candidate snapshot
// to persist wholesale, plus the regenerated preview and telemetry.
type RunResult struct {
	Candidates []models.Candidate
	Preview    models.SessionPreview
	Telemetry  models.SessionTelemetry
	Cancelled  bool
}

// Run drives chunker, extractor (with salvage), merger, enrichment, and
// matcher over the source text, in that order.
func (s *Services) Run(ctx context.Context, content string, opts RunOptions) (*RunResult, error) {
	log := s.logger()
	cfg := s.Config

	normalized := NormalizeText(content)
	totalTokens := EstimateTokens(normalized)

	var chunks []Chunk
	telemetry := models.SessionTelemetry{}

	chunkStart := time.Now()
	if ShouldUseFullContext(totalTokens, cfg.FullContextTokens) {
		chunks = []Chunk{{Index: 0, Text: normalized, Tokens: totalTokens}}
	} else {
		set := ChunkText(normalized, cfg.ChunkTargetTokens, cfg.ChunkOverlapRatio, cfg.MaxChunks)
		chunks = set.Chunks
		telemetry.Truncated = set.Truncated
	}
	telemetry.ChunkCount = len(chunks)
	s.record(metrics.OpChunking, time.Since(chunkStart))

	log.Info("chunking complete", "chunks", len(chunks), "total_tokens", totalTokens, "truncated", telemetry.Truncated)

	// --- Extraction over every chunk ---
	var observations []models.Candidate
	dropped := map[models.EntityType]int{}
	var knownNames []string
	knownSet := map[string]bool{}
	modelChunks := 0
	heuristicChunks := 0
	modelDead := s.Completer == nil
	tokensUsed := 0

	for _, chunk := range chunks {
		if cancelled, err := s.checkCancel(ctx, opts); err != nil {
			return nil, err
		} else if cancelled {
			log.Info("pipeline cancelled before chunk", "chunk", chunk.Index)
			return &RunResult{Cancelled: true}, nil
		}

		if tokensUsed > cfg.TokenBudget {
			telemetry.Partial = true
			log.Warn("token budget exhausted, truncating remaining chunks",
				"tokens_used", tokensUsed, "budget", cfg.TokenBudget, "chunk", chunk.Index)
			break
		}

		extractStart := time.Now()
		modelOK := false
		if !modelDead {
			out, usedTokens, err := s.modelExtract(ctx, chunk, knownNames)
			if err != nil {
				if errors.Is(err, llm.ErrFatalAPI) {
					// No point retrying per chunk; heuristics from here on
					modelDead = true
				}
				log.Warn("model extraction failed, using heuristics", "chunk", chunk.Index, "error", err)
			} else {
				observations = append(observations, out.Candidates...)
				mergeDropped(dropped, out.Dropped)
				tokensUsed += usedTokens
				telemetry.ModelCalls++
				modelOK = true
			}
		}
		if modelOK {
			modelChunks++
		} else {
			heuristicChunks++
		}

		// Heuristics always run; the merger dedupes against model output
		observations = append(observations, HeuristicExtract(chunk.Index, chunk.Text)...)
		s.record(metrics.OpExtraction, time.Since(extractStart))

		for _, obs := range observations {
			if obs.EntityType == models.EntityThinker && obs.Thinker != nil {
				norm := NormalizeName(obs.Thinker.Name)
				if !knownSet[norm] {
					knownSet[norm] = true
					knownNames = append(knownNames, obs.Thinker.Name)
				}
			}
		}
	}

	telemetry.TokensUsed = tokensUsed
	switch {
	case modelChunks > 0 && heuristicChunks > 0:
		telemetry.ExtractionMode = ModeMixed
	case modelChunks > 0:
		telemetry.ExtractionMode = ModeModel
	default:
		telemetry.ExtractionMode = ModeHeuristic
	}

	// --- Merge ---
	mergeStart := time.Now()
	merged := Merge(observations, chunks, MergeOptions{
		IncludeThreshold: cfg.IncludeThreshold,
		Hints:            opts.Hints,
	})
	s.record(metrics.OpMerge, time.Since(mergeStart))

	// --- Relation salvage ---
	if s.shouldSalvage(merged) {
		telemetry.SalvageRan = true
		salvaged, err := s.salvage(ctx, chunks, merged)
		if err != nil {
			log.Warn("relation salvage failed", "error", err)
		} else if len(salvaged) > 0 {
			observations = append(observations, salvaged...)
			before := salvageableCount(merged.Counts)
			merged = Merge(observations, chunks, MergeOptions{
				IncludeThreshold: cfg.IncludeThreshold,
				Hints:            opts.Hints,
			})
			telemetry.SalvageAdded = salvageableCount(merged.Counts) - before
			log.Info("relation salvage recovered candidates", "added", telemetry.SalvageAdded)
		}
	}

	merged.Warnings = append(merged.Warnings, droppedWarnings(dropped)...)

	// --- Year enrichment ---
	if cfg.EnrichYears {
		enrichStart := time.Now()
		enriched, err := EnrichYears(ctx, merged.Candidates, s.Completer, cfg.EnrichConfidence, cfg.StrictGrounding)
		if err != nil {
			log.Warn("year enrichment failed", "error", err)
		} else {
			telemetry.YearsEnriched = enriched.Enriched
			merged.Warnings = append(merged.Warnings, enriched.Warnings...)
		}
		s.record(metrics.OpEnrich, time.Since(enrichStart))
	}

	// --- Registry matching ---
	matchStart := time.Now()
	if err := MatchThinkers(ctx, merged.Candidates, s.Registry); err != nil {
		return nil, fmt.Errorf("match thinkers: %w", err)
	}
	s.record(metrics.OpMatch, time.Since(matchStart))

	result := &RunResult{
		Candidates: merged.Candidates,
		Telemetry:  telemetry,
		Preview:    buildPreview(merged, opts.Hints),
	}
	return result, nil
}

func (s *Services) checkCancel(ctx context.Context, opts RunOptions) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if opts.CancelCheck == nil {
		return false, nil
	}
	return opts.CancelCheck(ctx)
}

func (s *Services) record(op string, d time.Duration) {
	if s.Metrics != nil {
		s.Metrics.RecordTiming(op, d)
	}
}

// modelExtract runs one model-backed extraction over a chunk and grounds
// the output. Returns the estimated tokens spent on the call.
func (s *Services) modelExtract(ctx context.Context, chunk Chunk, knownNames []string) (*ExtractionOutput, int, error) {
	start := time.Now()
	raw, err := s.Completer.ExtractEntities(ctx, chunk.Text, knownNames)
	duration := time.Since(start)
	if err != nil {
		return nil, 0, err
	}

	outTokens := EstimateTokens(raw)
	if s.Metrics != nil {
		s.Metrics.RecordLLMUsage(metrics.OpLLMGenerate, duration, int64(chunk.Tokens), int64(outTokens))
	}

	out, err := ParseModelExtraction(raw, chunk.Index, chunk.Text)
	if err != nil {
		return nil, chunk.Tokens + outTokens, err
	}
	return out, chunk.Tokens + outTokens, nil
}

// shouldSalvage triggers the recovery pass when the merged graph has enough
// thinkers but zero included connections.
func (s *Services) shouldSalvage(merged *MergeResult) bool {
	if s.Completer == nil {
		return false
	}
	minThinkers := s.Config.SalvageMinThinkers
	if minThinkers <= 0 {
		minThinkers = 4
	}
	includedThinkers := 0
	includedConnections := 0
	for _, c := range merged.Candidates {
		if !c.Include {
			continue
		}
		switch c.EntityType {
		case models.EntityThinker:
			includedThinkers++
		case models.EntityConnection:
			includedConnections++
		}
	}
	return includedThinkers >= minThinkers && includedConnections == 0
}

// salvageableCount sums the candidate types the salvage pass may add.
func salvageableCount(counts map[string]int) int {
	return counts[string(models.EntityConnection)] +
		counts[string(models.EntityEvent)] +
		counts[string(models.EntityPublication)]
}

// salvage reruns extraction scoped to the known thinker list, requesting
// connections plus any missed events and publications. New thinkers or
// quotes are not accepted from this pass.
func (s *Services) salvage(ctx context.Context, chunks []Chunk, merged *MergeResult) ([]models.Candidate, error) {
	var thinkerNames []string
	for _, c := range merged.Candidates {
		if c.EntityType == models.EntityThinker && c.Include {
			thinkerNames = append(thinkerNames, c.Thinker.Name)
		}
	}

	var salvaged []models.Candidate
	for _, chunk := range chunks {
		raw, err := s.Completer.SalvageConnections(ctx, chunk.Text, thinkerNames)
		if err != nil {
			return nil, err
		}
		out, err := ParseModelExtraction(raw, chunk.Index, chunk.Text)
		if err != nil {
			continue
		}
		for _, c := range out.Candidates {
			switch c.EntityType {
			case models.EntityConnection, models.EntityEvent, models.EntityPublication:
				salvaged = append(salvaged, c)
			}
		}
	}
	return salvaged, nil
}

// buildPreview summarizes the merged graph for review. Start and end years
// come from hints when given, else from the included thinkers' lifespans.
func buildPreview(merged *MergeResult, hints *models.TimelineHints) models.SessionPreview {
	preview := models.SessionPreview{
		TimelineName:   merged.TimelineName,
		Counts:         merged.Counts,
		IncludedCounts: map[string]int{},
		Warnings:       merged.Warnings,
	}
	if hints != nil {
		preview.TimelineDescription = hints.Description
		preview.StartYear = hints.StartYear
		preview.EndYear = hints.EndYear
	}

	for _, c := range merged.Candidates {
		if !c.Include {
			continue
		}
		preview.IncludedCounts[string(c.EntityType)]++

		if c.EntityType == models.EntityThinker && c.Thinker != nil {
			if c.Thinker.BirthYear != nil && (preview.StartYear == nil || *c.Thinker.BirthYear < *preview.StartYear) {
				if hints == nil || hints.StartYear == nil {
					y := *c.Thinker.BirthYear
					preview.StartYear = &y
				}
			}
			if c.Thinker.DeathYear != nil && (preview.EndYear == nil || *c.Thinker.DeathYear > *preview.EndYear) {
				if hints == nil || hints.EndYear == nil {
					y := *c.Thinker.DeathYear
					preview.EndYear = &y
				}
			}
		}
	}
	return preview
}
