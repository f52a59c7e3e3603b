package engine

import (
	"context"
	"fmt"
)

// LoadSeeds loads every CSV seed file into the target database. Seeds are
// graph inputs, so they load before any node runs.
func (e *Engine) LoadSeeds(ctx context.Context) error {
	if e.proj == nil {
		if err := e.Compile(); err != nil {
			return err
		}
	}
	if len(e.proj.Seeds) == 0 {
		return nil
	}
	if err := e.ensureDBConnected(ctx); err != nil {
		return err
	}

	for _, seed := range e.proj.Seeds {
		e.logger.Info("loading seed", "seed", seed.Name, "path", seed.FilePath)

		if seed.Schema != "" {
			if err := e.db.EnsureSchema(ctx, seed.Schema); err != nil {
				return err
			}
		}
		if err := e.db.LoadCSV(ctx, seed.Relation(), seed.FilePath); err != nil {
			return fmt.Errorf("failed to load seed %s: %w", seed.Name, err)
		}
	}
	return nil
}
