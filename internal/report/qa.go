package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/allegro/bigcache/v3"
	"github.com/rs/zerolog"

	"github.com/autoresearch/autoresearch/internal/llm"
	"github.com/autoresearch/autoresearch/internal/nlp"
	"github.com/autoresearch/autoresearch/internal/storage"
)

// noAnswerText is returned when a project has no report content to answer
// from.
const noAnswerText = "No relevant information found in knowledge base."

const maxAnswerContext = 6000

// Answerer answers questions against a project's latest report, with a
// bounded time-aware cache over full answers.
type Answerer struct {
	store *storage.Store
	llm   LLM
	cache *bigcache.BigCache
	log   zerolog.Logger
}

func NewAnswerer(store *storage.Store, model LLM, cache *bigcache.BigCache, logger zerolog.Logger) *Answerer {
	return &Answerer{
		store: store,
		llm:   model,
		cache: cache,
		log:   logger,
	}
}

func cacheKey(projectID int64, question string) string {
	return fmt.Sprintf("%d|%s", projectID, question)
}

// AskFromReport answers the question from the project's latest report.
// Repeated questions hit the cache instead of the model.
func (a *Answerer) AskFromReport(ctx context.Context, projectID int64, question string) (string, error) {
	key := cacheKey(projectID, question)
	if a.cache != nil {
		if cached, err := a.cache.Get(key); err == nil {
			a.log.Debug().Int64("project_id", projectID).Msg("answer cache hit")
			return string(cached), nil
		}
	}

	reportContext, err := a.reportContext(projectID)
	if err != nil {
		return "", err
	}
	if reportContext == "" {
		return noAnswerText, nil
	}

	answer, err := a.llm.Generate(ctx, answerPrompt(question, reportContext), 0.2)
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}

	if a.cache != nil {
		if err := a.cache.Set(key, []byte(answer)); err != nil {
			a.log.Warn().Err(err).Msg("answer cache store failed")
		}
	}
	return answer, nil
}

// AskFromReportStream streams the answer token by token. Streamed answers
// bypass the cache.
func (a *Answerer) AskFromReportStream(ctx context.Context, projectID int64, question string) (<-chan llm.Token, error) {
	reportContext, err := a.reportContext(projectID)
	if err != nil {
		return nil, err
	}
	if reportContext == "" {
		tokens := make(chan llm.Token, 1)
		tokens <- llm.Token{Content: noAnswerText, Done: true}
		close(tokens)
		return tokens, nil
	}
	return a.llm.GenerateStream(ctx, answerPrompt(question, reportContext), 0.2), nil
}

// reportContext returns the latest report's content, truncated for the
// prompt. No report yet is not an error, just an empty context.
func (a *Answerer) reportContext(projectID int64) (string, error) {
	report, err := a.store.LatestReport(projectID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return nlp.TruncateRunes(report.FullContent, maxAnswerContext), nil
}
