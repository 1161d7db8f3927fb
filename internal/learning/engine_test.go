package learning

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"career-agent/internal/embedding"
	"career-agent/internal/store"
)

// stubEmbedder returns canned vectors keyed by input text and a zero vector
// for everything else.
type stubEmbedder struct {
	dim     int
	vectors map[string][]float64
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return append([]float64(nil), v...), nil
	}
	return embedding.Zero(s.dim), nil
}

func (s *stubEmbedder) Dimension() int { return s.dim }

func newTestEngine(t *testing.T, embedder embedding.Provider) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "learning-test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	engine := NewEngine(Config{}, &Deps{Store: s, Embedder: embedder, Logger: zap.NewNop()})
	return engine, s
}

func seedProfile(t *testing.T, s *store.Store, vec []float64) int64 {
	t.Helper()
	pid, err := s.CreateProfile(&store.Profile{Name: "analyst", Skills: "data", Region: "Berlin"})
	require.NoError(t, err)
	if vec != nil {
		require.NoError(t, s.SetProfileVector(pid, vec))
	}
	return pid
}

func seedJob(t *testing.T, s *store.Store, ref string, vec []float64) int64 {
	t.Helper()
	id, err := s.UpsertJob(&store.Job{ExternalRef: ref, Title: "Data Analyst", Company: "Acme", Location: "Berlin"})
	require.NoError(t, err)
	if vec != nil {
		require.NoError(t, s.SetJobEmbedding(id, vec))
	}
	return id
}

func TestUpdateMovesVectorTowardLikedJob(t *testing.T) {
	engine, s := newTestEngine(t, &stubEmbedder{dim: 2})
	pid := seedProfile(t, s, []float64{1, 0})
	seedJob(t, s, "job-1", []float64{0, 1})

	require.NoError(t, s.RecordFeedback("job-1", pid, store.SignalLike, "", 0.5))
	require.NoError(t, engine.Update(context.Background(), pid))

	vec, err := s.ProfileVector(pid)
	require.NoError(t, err)
	assert.Greater(t, Cosine(vec, []float64{0, 1}), 0.0)
}

func TestUpdateMovesVectorAwayFromDislikedJob(t *testing.T) {
	engine, s := newTestEngine(t, &stubEmbedder{dim: 2})
	pid := seedProfile(t, s, []float64{1, 0})
	seedJob(t, s, "job-1", []float64{0, 1})

	require.NoError(t, s.RecordFeedback("job-1", pid, store.SignalDislike, "", 0.5))
	require.NoError(t, engine.Update(context.Background(), pid))

	vec, err := s.ProfileVector(pid)
	require.NoError(t, err)
	assert.Less(t, Cosine(vec, []float64{0, 1}), 0.0)
}

func TestUpdateKeepsVectorNormalized(t *testing.T) {
	engine, s := newTestEngine(t, &stubEmbedder{dim: 2})
	pid := seedProfile(t, s, []float64{1, 0})
	seedJob(t, s, "job-1", []float64{0, 1})

	require.NoError(t, s.RecordFeedback("job-1", pid, store.SignalLike, "", 0.5))
	require.NoError(t, engine.Update(context.Background(), pid))

	vec, err := s.ProfileVector(pid)
	require.NoError(t, err)
	assert.InDelta(t, 1, norm(vec), 1e-9)
}

func TestUpdateIsIdempotentWithoutNewFeedback(t *testing.T) {
	engine, s := newTestEngine(t, &stubEmbedder{dim: 2})
	pid := seedProfile(t, s, []float64{1, 0})
	seedJob(t, s, "job-1", []float64{0, 1})

	require.NoError(t, s.RecordFeedback("job-1", pid, store.SignalLike, "", 0.5))
	require.NoError(t, engine.Update(context.Background(), pid))

	after, err := s.ProfileVector(pid)
	require.NoError(t, err)

	// The same feedback must not be folded in a second time.
	require.NoError(t, engine.Update(context.Background(), pid))

	again, err := s.ProfileVector(pid)
	require.NoError(t, err)
	assert.Equal(t, after, again)
}

func TestUpdateAdvancesWatermarkEvenWithoutEvents(t *testing.T) {
	engine, s := newTestEngine(t, &stubEmbedder{dim: 2})
	pid := seedProfile(t, s, []float64{1, 0})

	require.NoError(t, engine.Update(context.Background(), pid))

	last, err := s.LastRun(pid)
	require.NoError(t, err)
	assert.True(t, last.After(time.Unix(0, 0)))
}

func TestUpdateCommentPullsTowardItsEmbedding(t *testing.T) {
	embedder := &stubEmbedder{dim: 2, vectors: map[string][]float64{
		"should be fully remote": {0, 1},
	}}
	engine, s := newTestEngine(t, embedder)
	pid := seedProfile(t, s, []float64{1, 0})
	seedJob(t, s, "job-1", []float64{1, 0})

	require.NoError(t, s.RecordFeedback("job-1", pid, store.SignalNone, "should be fully remote", 0.5))
	require.NoError(t, engine.Update(context.Background(), pid))

	vec, err := s.ProfileVector(pid)
	require.NoError(t, err)
	assert.Greater(t, Cosine(vec, []float64{0, 1}), 0.0)
}

func TestUpdateSkipsEventsWithoutJobEmbedding(t *testing.T) {
	engine, s := newTestEngine(t, &stubEmbedder{dim: 2})
	pid := seedProfile(t, s, []float64{0.6, 0.8})
	seedJob(t, s, "job-1", nil)

	require.NoError(t, s.RecordFeedback("job-1", pid, store.SignalLike, "", 0.5))
	require.NoError(t, engine.Update(context.Background(), pid))

	vec, err := s.ProfileVector(pid)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.6, 0.8}, vec)

	last, err := s.LastRun(pid)
	require.NoError(t, err)
	assert.True(t, last.After(time.Unix(0, 0)))
}

func TestUpdateWithoutProfileVectorFails(t *testing.T) {
	engine, s := newTestEngine(t, &stubEmbedder{dim: 2})
	pid := seedProfile(t, s, nil)

	err := engine.Update(context.Background(), pid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoProfileVector))

	// Nothing was processed, so the watermark must stay at the epoch.
	last, err := s.LastRun(pid)
	require.NoError(t, err)
	assert.True(t, last.Equal(time.Unix(0, 0)))
}

func TestRecordFeedbackStoresLedgerAndEmbedding(t *testing.T) {
	embedder := &stubEmbedder{dim: 2, vectors: map[string][]float64{
		"Data Analyst\ngreat match": {0, 1},
	}}
	engine, s := newTestEngine(t, embedder)
	pid := seedProfile(t, s, []float64{1, 0})

	job := &store.Job{ExternalRef: "job-1", Title: "Data Analyst"}
	require.NoError(t, engine.RecordFeedback(context.Background(), job, pid, store.SignalLike, "great match", 0.7))

	entry, err := s.Feedback("job-1", pid)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, store.SignalLike, entry.Signal)
	assert.Equal(t, "great match", entry.Comment)

	stored, err := s.FeedbackEmbeddings()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, []float64{0, 1}, stored[0].Vector)
	assert.Equal(t, store.SignalLike, stored[0].Signal)
}

func TestRecordFeedbackCommentFollowUpKeepsEmbeddingSignal(t *testing.T) {
	engine, s := newTestEngine(t, &stubEmbedder{dim: 2})
	pid := seedProfile(t, s, []float64{1, 0})

	job := &store.Job{ExternalRef: "job-1", Title: "Data Analyst"}
	require.NoError(t, engine.RecordFeedback(context.Background(), job, pid, store.SignalLike, "", 0.7))
	require.NoError(t, engine.RecordFeedback(context.Background(), job, pid, store.SignalNone, "pay looks low", 0.7))

	stored, err := s.FeedbackEmbeddings()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, store.SignalLike, stored[0].Signal)
}

func TestRecordFeedbackKeepsLedgerWhenEmbeddingFails(t *testing.T) {
	engine, s := newTestEngine(t, &stubEmbedder{dim: 2, err: errors.New("quota exceeded")})
	pid := seedProfile(t, s, []float64{1, 0})

	job := &store.Job{ExternalRef: "job-1", Title: "Data Analyst"}
	require.NoError(t, engine.RecordFeedback(context.Background(), job, pid, store.SignalDislike, "", 0.4))

	entry, err := s.Feedback("job-1", pid)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, store.SignalDislike, entry.Signal)

	stored, err := s.FeedbackEmbeddings()
	require.NoError(t, err)
	assert.Empty(t, stored)
}
