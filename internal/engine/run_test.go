package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/modelflow/pkg/core"
)

func statuses(results []*core.NodeResult) map[string]core.NodeStatus {
	out := make(map[string]core.NodeStatus, len(results))
	for _, r := range results {
		out[r.Node] = r.Status
	}
	return out
}

func resultFor(t *testing.T, results []*core.NodeResult, name string) *core.NodeResult {
	t.Helper()
	for _, r := range results {
		if r.Node == name {
			return r
		}
	}
	t.Fatalf("no result for node %s", name)
	return nil
}

func diamondFiles() map[string]string {
	return map[string]string{
		"nodes/base.sql": "/*---\nmaterialized: table\n---*/\nSELECT 1 AS id UNION ALL SELECT 2",
		"nodes/left_leg.sql": "/*---\nmaterialized: table\n---*/\n" +
			"SELECT id FROM base WHERE id = 1",
		"nodes/right_leg.sql": "/*---\nmaterialized: view\n---*/\n" +
			"SELECT id FROM base WHERE id = 2",
		"nodes/final_report.sql": "/*---\nmaterialized: table\n---*/\n" +
			"SELECT * FROM left_leg UNION ALL SELECT * FROM right_leg",
	}
}

func TestRun_DiamondExecutesInLevelOrder(t *testing.T) {
	f := newFixture(t, diamondFiles())
	e := f.engine(t, nil)

	run, results, err := e.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, core.RunStatusCompleted, run.Status)
	require.NotNil(t, run.CompletedAt)
	require.Len(t, results, 4)

	order := make([]string, len(results))
	for i, r := range results {
		order[i] = r.Node
		assert.Equal(t, core.NodeStatusSuccess, r.Status, r.Node)
	}
	assert.Equal(t, "base", order[0])
	assert.Equal(t, []string{"left_leg", "right_leg"}, order[1:3])
	assert.Equal(t, "final_report", order[3])

	assert.Equal(t, int64(2), resultFor(t, results, "base").RowCount)
	assert.Equal(t, int64(2), resultFor(t, results, "final_report").RowCount)
	// Views report no row count
	assert.Equal(t, int64(0), resultFor(t, results, "right_leg").RowCount)
}

func TestRun_SecondRunSkipsUnchanged(t *testing.T) {
	f := newFixture(t, diamondFiles())
	e := f.engine(t, nil)
	ctx := context.Background()

	_, _, err := e.Run(ctx, RunOptions{})
	require.NoError(t, err)

	run, results, err := e.Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)

	for _, r := range results {
		assert.Equal(t, core.NodeStatusSkipped, r.Status, r.Node)
		assert.Equal(t, "up to date", r.Reason, r.Node)
	}
}

func TestRun_UpstreamChangeRerunsDescendants(t *testing.T) {
	f := newFixture(t, diamondFiles())
	ctx := context.Background()

	_, _, err := f.engine(t, nil).Run(ctx, RunOptions{})
	require.NoError(t, err)

	// Touch base's SQL: everything downstream of it must rebuild.
	f.write(t, "nodes/base.sql",
		"/*---\nmaterialized: table\n---*/\nSELECT 1 AS id UNION ALL SELECT 2 UNION ALL SELECT 3")

	_, results, err := f.engine(t, nil).Run(ctx, RunOptions{})
	require.NoError(t, err)

	got := statuses(results)
	assert.Equal(t, core.NodeStatusSuccess, got["base"])
	assert.Equal(t, core.NodeStatusSuccess, got["left_leg"])
	assert.Equal(t, core.NodeStatusSuccess, got["right_leg"])
	assert.Equal(t, core.NodeStatusSuccess, got["final_report"])
}

func TestRun_ConfigChangeRerunsNode(t *testing.T) {
	f := newFixture(t, diamondFiles())
	ctx := context.Background()

	_, _, err := f.engine(t, nil).Run(ctx, RunOptions{})
	require.NoError(t, err)

	// Same SQL, different materialization: the fingerprint changes.
	f.write(t, "nodes/right_leg.sql",
		"/*---\nmaterialized: table\n---*/\nSELECT id FROM base WHERE id = 2")

	_, results, err := f.engine(t, nil).Run(ctx, RunOptions{})
	require.NoError(t, err)

	got := statuses(results)
	assert.Equal(t, core.NodeStatusSkipped, got["base"])
	assert.Equal(t, core.NodeStatusSuccess, got["right_leg"])
}

func TestRun_FullRefreshNeverSkips(t *testing.T) {
	f := newFixture(t, diamondFiles())
	e := f.engine(t, nil)
	ctx := context.Background()

	_, _, err := e.Run(ctx, RunOptions{})
	require.NoError(t, err)

	_, results, err := e.Run(ctx, RunOptions{FullRefresh: true})
	require.NoError(t, err)

	for _, r := range results {
		assert.Equal(t, core.NodeStatusSuccess, r.Status, r.Node)
	}
}

func TestRun_FailurePropagatesToDescendants(t *testing.T) {
	f := newFixture(t, map[string]string{
		// Parses fine, fails at the database: the table does not exist.
		"nodes/broken.sql":     "SELECT * FROM table_that_does_not_exist",
		"nodes/mid.sql":        "SELECT * FROM broken",
		"nodes/leaf.sql":       "SELECT * FROM mid",
		"nodes/standalone.sql": "/*---\nmaterialized: table\n---*/\nSELECT 1 AS ok",
	})
	e := f.engine(t, nil)

	run, results, err := e.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.Equal(t, core.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "1 node(s) failed")

	got := statuses(results)
	assert.Equal(t, core.NodeStatusFailed, got["broken"])
	assert.Equal(t, core.NodeStatusSkippedUpstream, got["mid"])
	assert.Equal(t, core.NodeStatusSkippedUpstream, got["leaf"])
	assert.Equal(t, core.NodeStatusSuccess, got["standalone"])

	// Both levels of dependents name the root failure.
	assert.Equal(t, "upstream broken failed", resultFor(t, results, "mid").Reason)
	assert.Equal(t, "upstream broken failed", resultFor(t, results, "leaf").Reason)
	assert.NotEmpty(t, resultFor(t, results, "broken").Error)
}

func TestRun_ParseErrorFailsNodeAndSkipsDependents(t *testing.T) {
	f := newFixture(t, map[string]string{
		"nodes/bad.sql":        "SELECT FROM WHERE",
		"nodes/downstream.sql": "SELECT * FROM bad",
		"nodes/healthy.sql":    "SELECT 1 AS ok",
	})
	e := f.engine(t, nil)

	run, results, err := e.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.Equal(t, core.RunStatusFailed, run.Status)

	got := statuses(results)
	assert.Equal(t, core.NodeStatusFailed, got["bad"])
	assert.Equal(t, core.NodeStatusSkippedUpstream, got["downstream"])
	assert.Equal(t, core.NodeStatusSuccess, got["healthy"])

	assert.Contains(t, resultFor(t, results, "bad").Error, "bad.sql")
	assert.Equal(t, "upstream bad failed", resultFor(t, results, "downstream").Reason)
}

func TestRun_FailFastStopsScheduling(t *testing.T) {
	f := newFixture(t, map[string]string{
		"nodes/a_broken.sql": "SELECT * FROM table_that_does_not_exist",
		"nodes/z_ok.sql":     "SELECT 1 AS ok",
	})
	e := f.engine(t, nil)

	run, results, err := e.Run(context.Background(), RunOptions{FailFast: true})
	require.Error(t, err)
	assert.Equal(t, core.RunStatusFailed, run.Status)

	got := statuses(results)
	assert.Equal(t, core.NodeStatusFailed, got["a_broken"])
	assert.Equal(t, core.NodeStatusSkipped, got["z_ok"])
	assert.Equal(t, "stopped by fail-fast", resultFor(t, results, "z_ok").Reason)
}

func TestRun_SelectorScopesRun(t *testing.T) {
	f := newFixture(t, diamondFiles())
	ctx := context.Background()
	e := f.engine(t, nil)

	_, _, err := e.Run(ctx, RunOptions{})
	require.NoError(t, err)

	// Rebuild only one leg. The out-of-scope parent is treated as
	// satisfied because its relation already exists.
	_, results, err := e.Run(ctx, RunOptions{Select: "left_leg", FullRefresh: true})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "left_leg", results[0].Node)
	assert.Equal(t, core.NodeStatusSuccess, results[0].Status)
}

func TestRun_CanceledContext(t *testing.T) {
	f := newFixture(t, diamondFiles())
	e := f.engine(t, nil)

	// Connect and warm up with a normal run first.
	_, _, err := e.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, results, err := e.Run(ctx, RunOptions{FullRefresh: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, core.RunStatusCanceled, run.Status)

	for _, r := range results {
		assert.Equal(t, core.NodeStatusSkipped, r.Status, r.Node)
		assert.Equal(t, "run canceled", r.Reason, r.Node)
	}
}

func TestRun_MaterializationChangeReplacesRelation(t *testing.T) {
	f := newFixture(t, map[string]string{
		"nodes/report.sql": "/*---\nmaterialized: table\n---*/\nSELECT 1 AS id",
	})
	ctx := context.Background()

	_, _, err := f.engine(t, nil).Run(ctx, RunOptions{})
	require.NoError(t, err)

	// The same name flips to a view; the leftover table must not block it.
	f.write(t, "nodes/report.sql", "/*---\nmaterialized: view\n---*/\nSELECT 1 AS id")

	_, results, err := f.engine(t, nil).Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, core.NodeStatusSuccess, resultFor(t, results, "report").Status)

	// And back to a table over the leftover view.
	f.write(t, "nodes/report.sql", "/*---\nmaterialized: table\n---*/\nSELECT 2 AS id")

	_, results, err = f.engine(t, nil).Run(ctx, RunOptions{})
	require.NoError(t, err)
	r := resultFor(t, results, "report")
	assert.Equal(t, core.NodeStatusSuccess, r.Status)
	assert.Equal(t, int64(1), r.RowCount)
}

func TestRun_FullRefreshViewToIncremental(t *testing.T) {
	f := newFixture(t, map[string]string{
		"nodes/events.sql": "SELECT 1 AS id",
	})
	ctx := context.Background()

	// First run builds events with the default materialization, a view.
	_, _, err := f.engine(t, nil).Run(ctx, RunOptions{})
	require.NoError(t, err)

	f.write(t, "nodes/events.sql",
		"/*---\nmaterialized: incremental\nunique_key: id\n---*/\nSELECT 1 AS id")

	_, results, err := f.engine(t, nil).Run(ctx, RunOptions{FullRefresh: true})
	require.NoError(t, err)
	r := resultFor(t, results, "events")
	assert.Equal(t, core.NodeStatusSuccess, r.Status)
	assert.Equal(t, int64(1), r.RowCount)
}

func TestRun_IncrementalMergesOnUniqueKey(t *testing.T) {
	files := map[string]string{
		"nodes/events.sql": "/*---\nmaterialized: incremental\nunique_key: id\n---*/\n" +
			"SELECT 1 AS id, 'first' AS status",
	}
	f := newFixture(t, files)
	ctx := context.Background()

	_, results, err := f.engine(t, nil).Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resultFor(t, results, "events").RowCount)

	// New SQL re-states row 1 and adds row 2: the merge must not
	// duplicate row 1.
	f.write(t, "nodes/events.sql",
		"/*---\nmaterialized: incremental\nunique_key: id\n---*/\n"+
			"SELECT 1 AS id, 'updated' AS status UNION ALL SELECT 2, 'new'")

	_, results, err = f.engine(t, nil).Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, core.NodeStatusSuccess, resultFor(t, results, "events").Status)
	assert.Equal(t, int64(2), resultFor(t, results, "events").RowCount)
}

func TestRun_ThreadsWithinLevel(t *testing.T) {
	f := newFixture(t, diamondFiles())
	e := f.engine(t, nil)

	run, results, err := e.Run(context.Background(), RunOptions{Threads: 4})
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, core.NodeStatusSuccess, r.Status, r.Node)
	}
}

func TestLoadSeeds(t *testing.T) {
	f := newFixture(t, map[string]string{
		"nodes/countries.sql": "/*---\nmaterialized: table\n---*/\n" +
			"SELECT * FROM main.country_codes",
		"seeds/country_codes.csv": "code,name\nUS,United States\nDE,Germany\n",
		"sources.yaml":            "sources:\n  - name: country_codes\n    schema: main\n",
	})
	e := f.engine(t, nil)
	ctx := context.Background()

	require.NoError(t, e.LoadSeeds(ctx))

	run, results, err := e.Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
	assert.Equal(t, int64(2), resultFor(t, results, "countries").RowCount)
}
