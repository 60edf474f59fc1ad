package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wilke/gowe-arbiter/internal/logging"
	"github.com/wilke/gowe-arbiter/pkg/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:", logging.NewLogger(logging.ParseLevel("error"), "text"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func TestResultCacheRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	result := model.Result{
		Fingerprint:    "fp-1",
		Prover:         model.Prover{Name: "z3"},
		Problem:        model.Problem{Path: "a.smt2", Expected: model.Unsat},
		Classification: model.Unsat,
		ErrCode:        0,
		Stdout:         "unsat",
		RealTime:       1.5,
	}
	require.NoError(t, st.PutResult(ctx, result))

	got, err := st.GetResult(ctx, "fp-1", 48*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, model.Unsat, got.Classification)
	require.Equal(t, "z3", got.Prover.Name)
}

func TestResultCacheMiss(t *testing.T) {
	st := newTestStore(t)
	got, err := st.GetResult(context.Background(), "nope", 48*time.Hour)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestResultCacheExpiresByTTL(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	result := model.Result{
		Fingerprint:    "fp-old",
		Classification: model.Sat,
		CachedAt:       time.Now().Add(-72 * time.Hour),
	}
	require.NoError(t, st.PutResult(ctx, result))

	got, err := st.GetResult(ctx, "fp-old", 48*time.Hour)
	require.NoError(t, err)
	require.Nil(t, got, "entry older than TTL must be treated as absent")
}

func TestSnapshotRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	snap := model.NewSnapshot("uuid-1", time.Now(), "batch-1", []model.Event{
		{Program: model.Prover{Name: "z3"}, Problem: model.Problem{Path: "a.smt2"}, Res: model.Sat},
	})
	require.NoError(t, st.CreateSnapshot(ctx, snap))

	got, err := st.GetSnapshot(ctx, "uuid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "batch-1", got.Meta)
	require.Len(t, got.Events, 1)

	list, err := st.ListSnapshots(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
