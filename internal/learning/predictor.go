package learning

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"career-agent/internal/embedding"
	"career-agent/internal/store"
)

const (
	baseWeight    = 0.6
	learnedWeight = 0.4
	epsilon       = 1e-6
)

// Predictor blends a job's lexical base score with a similarity signal
// learned from past feedback embeddings.
type Predictor struct {
	store    *store.Store
	embedder embedding.Provider
	logger   *zap.Logger
}

func NewPredictor(s *store.Store, embedder embedding.Provider, logger *zap.Logger) *Predictor {
	return &Predictor{store: s, embedder: embedder, logger: logger}
}

// Predict returns the fit score for a job in [0,1]. With no feedback
// embeddings stored yet, or on any failure along the way, it degrades to
// the base score rather than erroring.
func (p *Predictor) Predict(ctx context.Context, job *store.Job, baseScore float64) float64 {
	baseScore = clamp01(baseScore)

	stored, err := p.store.FeedbackEmbeddings()
	if err != nil {
		p.logger.Warn("loading feedback embeddings failed, using base score", zap.Error(err))
		return baseScore
	}
	if len(stored) == 0 {
		return baseScore
	}

	jobVec := job.Embedding
	if len(jobVec) == 0 {
		if p.embedder == nil {
			return baseScore
		}
		text := strings.TrimSpace(job.Title + " " + job.Description)
		jobVec, err = p.embedder.Embed(ctx, text)
		if err != nil {
			p.logger.Warn("job embedding failed, using base score",
				zap.String("job_key", job.Key()),
				zap.Error(err),
			)
			return baseScore
		}
	}

	var weighted, totalWeight float64
	for _, fe := range stored {
		signal := float64(fe.Signal)
		if signal == 0 {
			// Comment-only entries carry no polarity and cannot steer
			// the average.
			continue
		}
		weighted += Cosine(jobVec, fe.Vector) * signal
		if signal < 0 {
			totalWeight -= signal
		} else {
			totalWeight += signal
		}
	}

	if totalWeight == 0 {
		return baseScore
	}

	learned := weighted / (totalWeight + epsilon)

	// learned is nominally in [-1,1]; rescale into [0,1] before blending.
	fit := baseWeight*baseScore + learnedWeight*(learned+1)/2
	return clamp01(fit)
}
