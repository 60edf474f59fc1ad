package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wilke/gowe-arbiter/internal/executor"
	"github.com/wilke/gowe-arbiter/internal/store"
	"github.com/wilke/gowe-arbiter/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", testLogger())
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// S5: a line `# expect: unsat` resolves to Unsat.
func TestScenario_S5_FindExpect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.p")
	require.NoError(t, os.WriteFile(path, []byte("c some header\n# expect: unsat\nc body\n"), 0o644))

	got, err := FindExpect(path)
	require.NoError(t, err)
	require.Equal(t, model.Unsat, got)
}

func TestFindExpect_FailAliasesError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.p")
	require.NoError(t, os.WriteFile(path, []byte("expected: fail\n"), 0o644))

	got, err := FindExpect(path)
	require.NoError(t, err)
	require.Equal(t, model.Error, got)
}

func TestFindExpect_MissingDirectiveErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.p")
	require.NoError(t, os.WriteFile(path, []byte("nothing relevant here\n"), 0o644))

	_, err := FindExpect(path)
	require.Error(t, err)
}

func TestResolveProblems_SkipsUnresolvableInsteadOfFailingBatch(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.p")
	bad := filepath.Join(dir, "bad.p")
	require.NoError(t, os.WriteFile(good, []byte("# expect: sat\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("no directive\n"), 0o644))

	problems := ResolveProblems([]string{dir}, "", testLogger())
	require.Len(t, problems, 1)
	require.Equal(t, good, problems[0].Path)
	require.Equal(t, model.Sat, problems[0].Expected)
}

func TestResolveProblems_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.p")
	require.NoError(t, os.WriteFile(path, []byte("no directive\n"), 0o644))

	problems := ResolveProblems([]string{dir}, model.Unknown, testLogger())
	require.Len(t, problems, 1)
	require.Equal(t, model.Unknown, problems[0].Expected)
}

func TestRunBatch_CrossProductAndSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "p1.p")
	p2 := filepath.Join(dir, "p2.p")
	require.NoError(t, os.WriteFile(p1, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(p2, []byte("y"), 0o644))

	st := newTestStore(t)
	exec := executor.New(st, 4, 0, testLogger())
	orch := New(exec, st, testLogger())

	prover := model.Prover{Name: "echoer", Command: "echo SZS status Satisfiable; exit 0", SatRegex: "Satisfiable", UnsatRegex: "Unsatisfiable"}
	problems := []model.Problem{{Path: p1, Expected: model.Sat}, {Path: p2, Expected: model.Unsat}}

	var seen int
	cfg := BatchConfig{
		Provers:  []model.Prover{prover},
		Problems: problems,
		TimeoutS: 5,
		MemoryMB: 256,
		Meta:     "test-batch",
		OnResult: func(model.Result) { seen++ },
	}

	snap, err := orch.RunBatch(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, snap.Events, 2)
	require.Equal(t, 2, seen)

	fromStore, err := st.GetSnapshot(context.Background(), snap.UUID)
	require.NoError(t, err)
	require.NotNil(t, fromStore)
	require.Equal(t, snap.UUID, fromStore.UUID)
	require.Equal(t, len(snap.Events), len(fromStore.Events))
}

// concurrencyTracker is a fake Executor that records how many calls were in
// flight at once, to verify RunBatch bounds its own fan-out to Concurrency
// independently of whatever pool width the Executor it wraps happens to
// have.
type concurrencyTracker struct {
	mu      sync.Mutex
	current int
	max     int
}

func (c *concurrencyTracker) Run(ctx context.Context, prover model.Prover, problem model.Problem, timeoutS, memoryMB int) (model.Result, error) {
	c.mu.Lock()
	c.current++
	if c.current > c.max {
		c.max = c.current
	}
	c.mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	c.mu.Lock()
	c.current--
	c.mu.Unlock()
	return model.Result{}, nil
}

func (c *concurrencyTracker) maxObserved() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.max
}

func TestRunBatch_BoundsFanOutToConcurrency(t *testing.T) {
	st := newTestStore(t)
	tracker := &concurrencyTracker{}
	orch := New(tracker, st, testLogger())

	provers := []model.Prover{{Name: "p1"}, {Name: "p2"}, {Name: "p3"}}
	problems := []model.Problem{{Path: "a"}, {Path: "b"}, {Path: "c"}}

	cfg := BatchConfig{
		Provers:     provers,
		Problems:    problems,
		Concurrency: 2,
	}

	_, err := orch.RunBatch(context.Background(), cfg)
	require.NoError(t, err)
	require.LessOrEqual(t, tracker.maxObserved(), 2, "batch fan-out exceeded its own Concurrency cap")
}

func TestDisagreements_CountsMismatchedExpectations(t *testing.T) {
	snap := model.Snapshot{
		Events: []model.Event{
			{Problem: model.Problem{Expected: model.Sat}, Res: model.Sat},
			{Problem: model.Problem{Expected: model.Unsat}, Res: model.Sat},
			{Problem: model.Problem{Expected: model.Error}, Res: model.Error},
		},
	}
	require.Equal(t, 1, Disagreements(snap))
}
