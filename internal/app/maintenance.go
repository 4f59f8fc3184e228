package app

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Migrate applies the SQL files under database.migrations_path.
func (a *App) Migrate(ctx context.Context) error {
	store, closeStore, err := a.requireStore(ctx, "migrate")
	if err != nil {
		return err
	}
	defer closeStore()

	applied, err := store.Migrate(ctx, a.Config.Database.MigrationsPath)
	if err != nil {
		return err
	}

	a.Logger.Info().Strs("applied", applied).Msg("migrations applied")
	fmt.Fprintf(a.Out, "applied %d migration(s)\n", len(applied))
	return nil
}

// Prune deletes persisted snapshots older than the retention window.
func (a *App) Prune(ctx context.Context, opts PruneOptions) error {
	if opts.OlderThan <= 0 {
		return errors.New("--older-than must be greater than zero")
	}

	store, closeStore, err := a.requireStore(ctx, "prune snapshots")
	if err != nil {
		return err
	}
	defer closeStore()

	cutoff := time.Now().UTC().Add(-opts.OlderThan)
	deleted, err := store.DeleteSnapshotsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	a.Logger.Info().Time("cutoff", cutoff).Int64("deleted", deleted).Msg("snapshots pruned")
	fmt.Fprintf(a.Out, "deleted %d snapshot row(s) older than %s\n", deleted, cutoff.Format(time.RFC3339))
	return nil
}
