package report

import (
	"context"
	"errors"

	"github.com/autoresearch/autoresearch/internal/storage"
)

// ExpandToIEEE rewrites the project's latest report into IEEE paper format.
// An existing substantial IEEE report is returned as-is. Without a base
// report nothing is persisted and ErrNoBaseReport is returned.
func (g *Generator) ExpandToIEEE(ctx context.Context, projectID int64) (*storage.IEEEReport, error) {
	project, err := g.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}

	existing, err := g.store.LatestIEEEReport(projectID)
	if err == nil && len(existing.FullContent) >= g.cfg.Report.ReuseThreshold {
		g.log.Info().Int64("ieee_id", existing.ID).Msg("reusing existing ieee report")
		return existing, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	base, err := g.store.LatestReport(projectID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoBaseReport
	}
	if err != nil {
		return nil, err
	}
	if base.FullContent == "" {
		return nil, ErrNoBaseReport
	}

	title := "IEEE Format: " + project.Title
	content, err := g.llm.Generate(ctx, ieeePrompt(base.FullContent), 0.3)
	if err != nil || len(content) < g.cfg.Report.MinSectionChars {
		if err != nil {
			g.log.Warn().Err(err).Msg("ieee generation failed, using structural fallback")
		} else {
			g.log.Warn().Int("chars", len(content)).Msg("ieee output too short, using structural fallback")
		}
		content = fallbackIEEE(title, base.FullContent)
	}

	if _, err := g.store.CreateIEEEReport(projectID, title, content); err != nil {
		return nil, err
	}
	return g.store.LatestIEEEReport(projectID)
}
