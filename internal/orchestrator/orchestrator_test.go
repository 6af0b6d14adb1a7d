package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/index-inspector/internal/inspection"
	"github.com/JakeFAU/index-inspector/internal/sink"
)

var fixedNow = time.Date(2026, time.January, 28, 9, 0, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return fixedNow }

type fixedIDs struct{}

func (fixedIDs) NewID() (string, error) { return "run-1", nil }

// fakeInspector returns a PASS row per URL, or an ERROR row for URLs in fail.
type fakeInspector struct {
	fail   map[string]bool
	calls  []string
	onCall func(n int)
}

func (f *fakeInspector) Inspect(_ context.Context, url string) inspection.Row {
	f.calls = append(f.calls, url)
	if f.onCall != nil {
		f.onCall(len(f.calls))
	}
	if f.fail[url] {
		return inspection.Row{InspectedAt: fixedNow, URL: url, Verdict: inspection.VerdictError, CoverageState: "boom"}
	}
	return inspection.Row{InspectedAt: fixedNow, URL: url, Verdict: "PASS"}
}

// fakeSink records appends; failOn makes the nth Append (1-based) fail.
type fakeSink struct {
	kind      sink.Kind
	failOn    int
	appends   int
	rows      []inspection.Row
	finalized int
	finalErr  error
}

func (f *fakeSink) Kind() sink.Kind { return f.kind }

func (f *fakeSink) Append(_ context.Context, rows []inspection.Row) error {
	f.appends++
	if f.failOn > 0 && f.appends >= f.failOn {
		return errors.New("quota exceeded")
	}
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeSink) Finalize(context.Context) (string, error) {
	f.finalized++
	if f.finalErr != nil {
		return "", f.finalErr
	}
	return string(f.kind) + "://artifact", nil
}

type countingObserver struct {
	inspections int
	failures    int
	writes      map[string]int
	failovers   int
}

func (c *countingObserver) ObserveInspection(failed bool) {
	c.inspections++
	if failed {
		c.failures++
	}
}

func (c *countingObserver) ObserveSinkWrite(kind string, _ int, err error) {
	if c.writes == nil {
		c.writes = map[string]int{}
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.writes[kind+"/"+status]++
}

func (c *countingObserver) ObserveFailover() { c.failovers++ }

func urlsN(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("https://example.com/%02d", i)
	}
	return out
}

func urlsOf(rows []inspection.Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.URL)
	}
	return out
}

type harness struct {
	inspector *fakeInspector
	remote    *fakeSink
	local     *fakeSink
	observer  *countingObserver
	pauses    int
	orch      *Orchestrator
}

func newHarness(remoteErr error, remoteFailOn int) *harness {
	h := &harness{
		inspector: &fakeInspector{},
		remote:    &fakeSink{kind: sink.KindRemote, failOn: remoteFailOn},
		local:     &fakeSink{kind: sink.KindLocal},
		observer:  &countingObserver{},
	}
	opener := func(context.Context) (sink.Sink, error) {
		if remoteErr != nil {
			return nil, remoteErr
		}
		return h.remote, nil
	}
	h.orch = New(Config{BatchSize: 5, Delay: time.Second}, h.inspector, opener, h.local,
		fixedClock{}, fixedIDs{}, h.observer, nil).
		WithPause(func(ctx context.Context, d time.Duration) error {
			h.pauses++
			return ctx.Err()
		})
	return h
}

func TestRunRemoteHappyPath(t *testing.T) {
	h := newHarness(nil, 0)
	urls := urlsN(12)

	summary, err := h.orch.Run(context.Background(), urls)
	require.NoError(t, err)

	assert.Equal(t, urls, urlsOf(h.remote.rows))
	assert.Equal(t, 3, h.remote.appends)
	assert.Empty(t, h.local.rows)
	assert.Equal(t, 0, h.local.finalized)
	assert.Equal(t, 1, h.remote.finalized)

	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 12, summary.Total)
	assert.Equal(t, 12, summary.Inspected)
	assert.Equal(t, 3, summary.Batches)
	assert.Equal(t, sink.KindRemote, summary.Sink)
	assert.False(t, summary.FailedOver)
	assert.Equal(t, "remote://artifact", summary.Artifact)
}

func TestRunFailoverRebuffersAllRows(t *testing.T) {
	h := newHarness(nil, 2)
	urls := urlsN(17)

	summary, err := h.orch.Run(context.Background(), urls)
	require.NoError(t, err)

	// Batch 1 reached the sheet; batch 2 failed.
	assert.Equal(t, urls[:5], urlsOf(h.remote.rows))
	// The local artifact holds every row exactly once, in order.
	assert.Equal(t, urls, urlsOf(h.local.rows))
	assert.Equal(t, 1, h.local.finalized)
	assert.Equal(t, 0, h.remote.finalized)
	assert.Equal(t, 2, h.remote.appends, "the remote sink is not retried after failing")

	assert.Equal(t, sink.KindLocal, summary.Sink)
	assert.True(t, summary.FailedOver)
	assert.Equal(t, "local://artifact", summary.Artifact)
	assert.Equal(t, 1, h.observer.failovers)
	assert.Equal(t, 1, h.observer.writes["remote/error"])
}

func TestRunFailoverOnSecondBatchScenario(t *testing.T) {
	h := newHarness(nil, 2)
	urls := urlsN(10)

	_, err := h.orch.Run(context.Background(), urls)
	require.NoError(t, err)
	require.Len(t, h.local.rows, 10)
	assert.Equal(t, urls, urlsOf(h.local.rows))
}

func TestRunRemoteOpenFailureStartsLocal(t *testing.T) {
	h := newHarness(errors.New("403 forbidden"), 0)
	urls := urlsN(7)

	summary, err := h.orch.Run(context.Background(), urls)
	require.NoError(t, err)

	assert.Equal(t, 0, h.remote.appends)
	assert.Equal(t, urls, urlsOf(h.local.rows))
	assert.Equal(t, 2, h.local.appends, "one append per batch, no re-buffering")
	assert.Equal(t, sink.KindLocal, summary.Sink)
	assert.False(t, summary.FailedOver)
	assert.Equal(t, 0, h.observer.failovers)
}

func TestRunWithoutRemoteOpener(t *testing.T) {
	local := &fakeSink{kind: sink.KindLocal}
	orch := New(Config{BatchSize: 2}, &fakeInspector{}, nil, local, fixedClock{}, fixedIDs{}, nil, nil).
		WithPause(func(context.Context, time.Duration) error { return nil })

	summary, err := orch.Run(context.Background(), urlsN(3))
	require.NoError(t, err)
	assert.Len(t, local.rows, 3)
	assert.Equal(t, sink.KindLocal, summary.Sink)
}

func TestRunEmptyURLSetTouchesNoSink(t *testing.T) {
	opened := false
	local := &fakeSink{kind: sink.KindLocal}
	orch := New(Config{}, &fakeInspector{},
		func(context.Context) (sink.Sink, error) {
			opened = true
			return &fakeSink{kind: sink.KindRemote}, nil
		},
		local, fixedClock{}, fixedIDs{}, nil, nil)

	summary, err := orch.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, opened)
	assert.Equal(t, 0, local.appends)
	assert.Equal(t, 0, local.finalized)
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.Sink)
}

func TestRunErrorRowsStillPaused(t *testing.T) {
	h := newHarness(nil, 0)
	urls := urlsN(6)
	h.inspector.fail = map[string]bool{urls[1]: true, urls[4]: true}

	summary, err := h.orch.Run(context.Background(), urls)
	require.NoError(t, err)

	assert.Equal(t, 6, h.pauses, "one pause per URL, including failed ones")
	assert.Equal(t, 2, summary.Errors)
	assert.Equal(t, 2, h.observer.failures)
	assert.Equal(t, urls, urlsOf(h.remote.rows))
	assert.Equal(t, inspection.VerdictError, h.remote.rows[1].Verdict)
}

func TestRunFinalizeFailureIsReturned(t *testing.T) {
	h := newHarness(errors.New("no sheets"), 0)
	h.local.finalErr = fmt.Errorf("%w: disk full", sink.ErrLocalFinalize)

	_, err := h.orch.Run(context.Background(), urlsN(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, sink.ErrLocalFinalize)
}

func TestRunInterruptedFinalizesCollectedRows(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newHarness(errors.New("no sheets"), 0)
	h.inspector.onCall = func(n int) {
		if n == 7 {
			cancel()
		}
	}
	urls := urlsN(12)

	summary, err := h.orch.Run(ctx, urls)
	require.ErrorIs(t, err, ErrInterrupted)

	// The seventh call was cut short and is not recorded.
	assert.Equal(t, urls[:6], urlsOf(h.local.rows))
	assert.Equal(t, 1, h.local.finalized)
	assert.True(t, summary.Interrupted)
	assert.Equal(t, 6, summary.Inspected)
	assert.Equal(t, 2, summary.Batches)
	assert.Equal(t, "local://artifact", summary.Artifact)
}

func TestRunRequiresCollaborators(t *testing.T) {
	orch := New(Config{}, nil, nil, nil, fixedClock{}, fixedIDs{}, nil, nil)
	_, err := orch.Run(context.Background(), urlsN(1))
	require.Error(t, err)
}

func TestPartition(t *testing.T) {
	cases := []struct {
		name string
		n    int
		size int
		want []int
	}{
		{"empty", 0, 5, nil},
		{"exact", 10, 5, []int{5, 5}},
		{"remainder", 12, 5, []int{5, 5, 2}},
		{"smaller than batch", 3, 5, []int{3}},
		{"non-positive size", 3, 0, []int{1, 1, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			urls := urlsN(tc.n)
			parts := Partition(urls, tc.size)
			var sizes []int
			var flat []string
			for _, p := range parts {
				sizes = append(sizes, len(p))
				flat = append(flat, p...)
			}
			assert.Equal(t, tc.want, sizes)
			if tc.n > 0 {
				assert.Equal(t, urls, flat)
			}
		})
	}
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))
	require.NoError(t, Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
