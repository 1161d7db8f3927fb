package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "career-agent-test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestProfile(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	id, err := s.CreateProfile(&Profile{Name: name, Skills: "data, analytics", Region: "Berlin"})
	require.NoError(t, err)
	return id
}

func TestUpsertJobDeduplicatesByExternalRef(t *testing.T) {
	s := newTestStore(t)

	first, err := s.UpsertJob(&Job{ExternalRef: "ref-1", Title: "Data Analyst", Company: "Acme", Location: "Berlin"})
	require.NoError(t, err)

	second, err := s.UpsertJob(&Job{ExternalRef: "ref-1", Title: "Data Analyst (m/w/d)", Company: "Acme", Location: "Berlin"})
	require.NoError(t, err)

	assert.Equal(t, first, second)

	job, err := s.JobByKey("ref-1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "Data Analyst (m/w/d)", job.Title)
}

func TestUpsertJobDeduplicatesByTupleWithoutRef(t *testing.T) {
	s := newTestStore(t)

	first, err := s.UpsertJob(&Job{Title: "Consultant", Company: "Beta", Location: "Hamburg"})
	require.NoError(t, err)

	second, err := s.UpsertJob(&Job{Title: "Consultant", Company: "Beta", Location: "Hamburg", Description: "now with details"})
	require.NoError(t, err)

	assert.Equal(t, first, second)

	job, err := s.JobByKey("1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "now with details", job.Description)
}

func TestUpsertJobNeverBlanksExistingFields(t *testing.T) {
	s := newTestStore(t)

	id, err := s.UpsertJob(&Job{ExternalRef: "ref-2", Title: "Engineer", Company: "Gamma", Location: "Bonn", Description: "long text"})
	require.NoError(t, err)

	_, err = s.UpsertJob(&Job{ExternalRef: "ref-2", Title: "Engineer", Company: "Gamma", Location: "Bonn", Description: ""})
	require.NoError(t, err)

	job, err := s.JobByKey("ref-2")
	require.NoError(t, err)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, "long text", job.Description)
}

func TestJobEmbeddingRoundTrip(t *testing.T) {
	s := newTestStore(t)

	id, err := s.UpsertJob(&Job{ExternalRef: "ref-3", Title: "Scientist"})
	require.NoError(t, err)

	vec := []float64{0.25, -0.5, 1}
	require.NoError(t, s.SetJobEmbedding(id, vec))

	job, err := s.JobByKey("ref-3")
	require.NoError(t, err)
	assert.Equal(t, vec, job.Embedding)
}

func TestProfileVectorAbsentOnColdStart(t *testing.T) {
	s := newTestStore(t)
	pid := newTestProfile(t, s, "analyst")

	vec, err := s.ProfileVector(pid)
	require.NoError(t, err)
	assert.Nil(t, vec)
}

func TestProfileVectorRoundTrip(t *testing.T) {
	s := newTestStore(t)
	pid := newTestProfile(t, s, "analyst")

	want := []float64{0.6, 0.8}
	require.NoError(t, s.SetProfileVector(pid, want))

	got, err := s.ProfileVector(pid)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFeedbackMergeKeepsSignalAndTakesComment(t *testing.T) {
	s := newTestStore(t)
	pid := newTestProfile(t, s, "analyst")

	require.NoError(t, s.RecordFeedback("5", pid, SignalLike, "", 0.8))
	require.NoError(t, s.RecordFeedback("5", pid, SignalNone, "nice", 0.9))

	entry, err := s.Feedback("5", pid)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, SignalLike, entry.Signal)
	assert.Equal(t, "nice", entry.Comment)
	assert.InDelta(t, 0.9, entry.ScoreAtTime, 1e-9)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM feedback WHERE job_key = '5'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestFeedbackMergeNewSignalWins(t *testing.T) {
	s := newTestStore(t)
	pid := newTestProfile(t, s, "analyst")

	require.NoError(t, s.RecordFeedback("7", pid, SignalLike, "looked great", 0.8))
	require.NoError(t, s.RecordFeedback("7", pid, SignalDislike, "", 0.4))

	entry, err := s.Feedback("7", pid)
	require.NoError(t, err)
	assert.Equal(t, SignalDislike, entry.Signal)
	assert.Equal(t, "looked great", entry.Comment)
}

func TestEventsSinceMatchesBothKeyShapes(t *testing.T) {
	s := newTestStore(t)
	pid := newTestProfile(t, s, "analyst")

	internalID, err := s.UpsertJob(&Job{Title: "Developer", Company: "Delta", Location: "Berlin"})
	require.NoError(t, err)
	require.NoError(t, s.SetJobEmbedding(internalID, []float64{1, 0}))

	externalID, err := s.UpsertJob(&Job{ExternalRef: "EXT-99", Title: "Architect", Company: "Eps", Location: "Bonn"})
	require.NoError(t, err)
	require.NoError(t, s.SetJobEmbedding(externalID, []float64{0, 1}))

	require.NoError(t, s.RecordFeedback("1", pid, SignalLike, "", 0.5))
	require.NoError(t, s.RecordFeedback("ext-99", pid, SignalDislike, "", 0.5))

	events, err := s.EventsSince(pid, time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, events, 2)

	vectors := map[string][]float64{}
	for _, ev := range events {
		vectors[ev.JobKey] = ev.JobVector
	}
	assert.Equal(t, []float64{1, 0}, vectors["1"])
	assert.Equal(t, []float64{0, 1}, vectors["ext-99"])
}

func TestEventsSinceSkipsOldAndEmptyEntries(t *testing.T) {
	s := newTestStore(t)
	pid := newTestProfile(t, s, "analyst")

	require.NoError(t, s.RecordFeedback("1", pid, SignalLike, "", 0.5))

	events, err := s.EventsSince(pid, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFeedbackEmbeddingUpsertReplaces(t *testing.T) {
	s := newTestStore(t)
	pid := newTestProfile(t, s, "analyst")

	require.NoError(t, s.UpsertFeedbackEmbedding(&FeedbackEmbedding{
		ProfileID: pid, JobKey: "a", Vector: []float64{1, 0}, Signal: SignalLike,
	}))
	require.NoError(t, s.UpsertFeedbackEmbedding(&FeedbackEmbedding{
		ProfileID: pid, JobKey: "a", Vector: []float64{0, 1}, Signal: SignalDislike,
	}))

	all, err := s.FeedbackEmbeddings()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []float64{0, 1}, all[0].Vector)
	assert.Equal(t, SignalDislike, all[0].Signal)
}

func TestWatermarkDefaultsToEpochAndAdvances(t *testing.T) {
	s := newTestStore(t)
	pid := newTestProfile(t, s, "analyst")

	t0, err := s.LastRun(pid)
	require.NoError(t, err)
	assert.True(t, t0.Equal(time.Unix(0, 0)))

	now := time.Now().UTC().Truncate(time.Second)
	ok, err := s.AdvanceLastRun(pid, t0, now)
	require.NoError(t, err)
	assert.True(t, ok)

	t1, err := s.LastRun(pid)
	require.NoError(t, err)
	assert.True(t, t1.Equal(now))
}

func TestWatermarkOptimisticCheckRejectsStaleAdvance(t *testing.T) {
	s := newTestStore(t)
	pid := newTestProfile(t, s, "analyst")

	epoch, err := s.LastRun(pid)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	ok, err := s.AdvanceLastRun(pid, epoch, now)
	require.NoError(t, err)
	require.True(t, ok)

	// A second advance still expecting the epoch must be refused.
	ok, err = s.AdvanceLastRun(pid, epoch, now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, ok)
}
