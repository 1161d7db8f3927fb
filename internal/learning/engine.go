package learning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"career-agent/internal/embedding"
	"career-agent/internal/scoring"
	"career-agent/internal/store"
)

// ErrNoProfileVector reports that a profile has no preference embedding yet,
// so there is nothing to learn against. Recoverable: seed the profile first.
var ErrNoProfileVector = errors.New("profile has no preference embedding")

const (
	defaultLearnRate     = 0.05
	defaultCommentWeight = 0.5
)

// Config tunes the incremental update rule.
type Config struct {
	// LearnRate scales every delta. Keep it small (<= 0.05); large rates
	// make the result depend on event ordering.
	LearnRate float64
	// CommentWeight scales comment deltas relative to signal deltas.
	CommentWeight float64
}

// Deps aggregates the collaborators of the learning engine.
type Deps struct {
	Store    *store.Store
	Embedder embedding.Provider
	Logger   *zap.Logger
}

// Engine folds new feedback events into profile preference embeddings and
// keeps the per-profile watermark. Updates for the same profile are
// serialized so two rapid feedback submissions cannot lose a batch.
type Engine struct {
	deps      *Deps
	cfg       Config
	predictor *Predictor

	mu       sync.Mutex
	profiles map[int64]*sync.Mutex
}

// NewEngine creates a learning engine. Zero config values fall back to the
// defaults.
func NewEngine(cfg Config, deps *Deps) *Engine {
	if cfg.LearnRate <= 0 {
		cfg.LearnRate = defaultLearnRate
	}
	if cfg.CommentWeight <= 0 {
		cfg.CommentWeight = defaultCommentWeight
	}

	return &Engine{
		deps:      deps,
		cfg:       cfg,
		predictor: NewPredictor(deps.Store, deps.Embedder, deps.Logger),
		profiles:  make(map[int64]*sync.Mutex),
	}
}

// Predictor returns the fit score predictor sharing this engine's stores.
func (e *Engine) Predictor() *Predictor {
	return e.predictor
}

func (e *Engine) profileLock(profileID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.profiles[profileID]
	if !ok {
		lock = &sync.Mutex{}
		e.profiles[profileID] = lock
	}
	return lock
}

// Update folds all feedback events since the profile's watermark into its
// preference embedding, persists the normalized result, advances the
// watermark and recomputes job scores. With no qualifying events the vector
// is untouched but the watermark still advances, so re-runs stay cheap.
func (e *Engine) Update(ctx context.Context, profileID int64) error {
	lock := e.profileLock(profileID)
	lock.Lock()
	defer lock.Unlock()

	logger := e.deps.Logger.With(zap.Int64("profile_id", profileID))

	vec, err := e.deps.Store.ProfileVector(profileID)
	if err != nil {
		return fmt.Errorf("load profile vector: %w", err)
	}
	if len(vec) == 0 {
		return fmt.Errorf("profile %d: %w", profileID, ErrNoProfileVector)
	}

	since, err := e.deps.Store.LastRun(profileID)
	if err != nil {
		return fmt.Errorf("load watermark: %w", err)
	}

	// The new watermark is captured before reading, so feedback recorded
	// while this run is in flight stays ahead of it.
	now := time.Now().UTC()

	events, err := e.deps.Store.EventsSince(profileID, since)
	if err != nil {
		return fmt.Errorf("load feedback events: %w", err)
	}

	if len(events) == 0 {
		logger.Debug("no new feedback since last run", zap.Time("since", since))
		if _, err := e.deps.Store.AdvanceLastRun(profileID, since, now); err != nil {
			return err
		}
		return nil
	}

	logger.Info("learning from new feedback", zap.Int("events", len(events)), zap.Time("since", since))

	// Deltas accumulate against the run-initial vector and are applied
	// once, so the result does not depend on event order.
	delta := make([]float64, len(vec))
	applied := 0

	for _, ev := range events {
		if len(ev.JobVector) != len(vec) {
			logger.Debug("skipping event without usable job embedding", zap.String("job_key", ev.JobKey))
			continue
		}

		if ev.Signal != store.SignalNone {
			rate := e.cfg.LearnRate * float64(ev.Signal)
			for i := range delta {
				delta[i] += rate * (ev.JobVector[i] - vec[i])
			}
			applied++
		}

		if strings.TrimSpace(ev.Comment) != "" && e.deps.Embedder != nil {
			commentVec, err := e.deps.Embedder.Embed(ctx, ev.Comment)
			if err != nil {
				logger.Warn("comment embedding failed, skipping its delta",
					zap.String("job_key", ev.JobKey),
					zap.Error(err),
				)
			} else if len(commentVec) == len(vec) {
				rate := e.cfg.CommentWeight * e.cfg.LearnRate
				for i := range delta {
					delta[i] += rate * (commentVec[i] - vec[i])
				}
				applied++
			}
		}
	}

	if applied > 0 {
		for i := range vec {
			vec[i] += delta[i]
		}
		Normalize(vec)

		if err := e.deps.Store.SetProfileVector(profileID, vec); err != nil {
			return fmt.Errorf("persist profile vector: %w", err)
		}
	}

	advanced, err := e.deps.Store.AdvanceLastRun(profileID, since, now)
	if err != nil {
		return err
	}
	if !advanced {
		// Another update won the race after we read the watermark. The
		// events stay unprocessed from this run's point of view and will
		// be picked up again; reprocessing beats dropping them.
		logger.Warn("watermark moved during update, batch will be reprocessed")
		return nil
	}

	logger.Info("profile embedding updated", zap.Int("deltas", applied))

	if err := e.RecomputeScores(ctx, profileID); err != nil {
		logger.Warn("score recomputation failed", zap.Error(err))
	}
	return nil
}

// RecomputeScores refreshes base and fit scores of every stored job against
// the profile. Per-job failures degrade to the base score.
func (e *Engine) RecomputeScores(ctx context.Context, profileID int64) error {
	profile, err := e.deps.Store.ProfileByID(profileID)
	if err != nil {
		return err
	}
	if profile == nil {
		return fmt.Errorf("profile %d does not exist", profileID)
	}

	jobs, err := e.deps.Store.Jobs()
	if err != nil {
		return err
	}

	for _, job := range jobs {
		base, why := scoring.Base(
			scoring.Job{Title: job.Title, Location: job.Location},
			scoring.Profile{Name: profile.Name, Summary: profile.Summary, Skills: profile.Skills, Region: profile.Region},
		)
		fit := e.predictor.Predict(ctx, job, base)
		if err := e.deps.Store.UpdateScores(job.ID, base, fit, why); err != nil {
			return err
		}
	}

	e.deps.Logger.Debug("job scores recomputed",
		zap.Int64("profile_id", profileID),
		zap.Int("jobs", len(jobs)),
	)
	return nil
}

// RecordFeedback stores the user's judgment in the ledger and captures the
// feedback embedding the predictor aggregates over. It does not run Update;
// callers decide when to learn.
func (e *Engine) RecordFeedback(ctx context.Context, job *store.Job, profileID int64, signal store.Signal, comment string, scoreAtTime float64) error {
	if job == nil {
		return errors.New("job is required")
	}

	if err := e.deps.Store.RecordFeedback(job.Key(), profileID, signal, comment, scoreAtTime); err != nil {
		return err
	}

	// The stored embedding must carry the merged judgment, not just this
	// event's: a comment-only follow-up may not erase an earlier signal.
	if entry, err := e.deps.Store.Feedback(job.Key(), profileID); err == nil && entry != nil {
		signal = entry.Signal
	}

	if e.deps.Embedder == nil {
		e.deps.Logger.Warn("no embedder configured, feedback recorded without embedding",
			zap.String("job_key", job.Key()),
		)
		return nil
	}

	text := feedbackText(job, comment)
	vec, err := e.deps.Embedder.Embed(ctx, text)
	if err != nil {
		// The ledger entry is already in place; the embedding is a
		// best-effort enrichment for the predictor.
		e.deps.Logger.Warn("feedback embedding failed",
			zap.String("job_key", job.Key()),
			zap.Error(err),
		)
		return nil
	}

	return e.deps.Store.UpsertFeedbackEmbedding(&store.FeedbackEmbedding{
		ProfileID: profileID,
		JobKey:    job.Key(),
		Vector:    vec,
		Signal:    signal,
		Title:     job.Title,
		Company:   job.Company,
	})
}

func feedbackText(job *store.Job, comment string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{job.Title, job.Description, comment} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}
