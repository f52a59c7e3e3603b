package engine

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/modelflow/internal/adapter"
	"github.com/leapstack-labs/modelflow/pkg/core"
)

// materialize applies the node's materialization and returns the row
// count of the resulting relation (0 for views).
func (e *Engine) materialize(ctx context.Context, node *core.Node, fullRefresh bool) (int64, error) {
	relation := node.Relation()
	sql := node.RenderedSQL

	if node.Schema != "" {
		if err := e.db.EnsureSchema(ctx, node.Schema); err != nil {
			return 0, err
		}
	}

	switch node.Materialized {
	case core.MaterializationView:
		return 0, e.materializeView(ctx, relation, sql)
	case core.MaterializationTable:
		if err := e.materializeTable(ctx, relation, sql); err != nil {
			return 0, err
		}
	case core.MaterializationIncremental:
		if err := e.materializeIncremental(ctx, node, fullRefresh); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("unknown materialization: %s", node.Materialized)
	}

	return e.db.RowCount(ctx, relation)
}

// materializeView rebuilds the relation as a view. A leftover table with
// the same name (from a materialization change) is dropped first. The
// drop errors when the name is already bound to a view, so its result is
// ignored and the create reports any real failure.
func (e *Engine) materializeView(ctx context.Context, relation, sql string) error {
	_ = e.db.DropTableIfExists(ctx, relation)
	return e.db.CreateOrReplaceView(ctx, relation, sql)
}

// materializeTable rebuilds the relation as a table, dropping a leftover
// view with the same name first. As in materializeView, the drop result
// is ignored.
func (e *Engine) materializeTable(ctx context.Context, relation, sql string) error {
	_ = e.db.DropViewIfExists(ctx, relation)
	return e.db.CreateOrReplaceTable(ctx, relation, sql)
}

// materializeIncremental builds the relation as a table on the first run
// and merges or appends on later runs. Full refresh drops the relation
// and rebuilds it from scratch.
func (e *Engine) materializeIncremental(ctx context.Context, node *core.Node, fullRefresh bool) error {
	relation := node.Relation()

	if fullRefresh {
		// Drop both shapes; the node may have been a view before it was
		// switched to incremental.
		_ = e.db.DropTableIfExists(ctx, relation)
		_ = e.db.DropViewIfExists(ctx, relation)
	}

	schema, name := adapter.SplitRelation(relation)
	exists, err := e.db.RelationExists(ctx, schema, name)
	if err != nil {
		return err
	}
	if !exists {
		return e.materializeTable(ctx, relation, node.RenderedSQL)
	}

	return e.db.ApplyIncremental(ctx, relation, node.UniqueKey, node.RenderedSQL)
}
