package app

import (
	"context"
	"fmt"
)

// BackfillSummary reports the outcome of one backfill pass over a kind.
type BackfillSummary struct {
	Kind     string `json:"kind"`
	Migrated int    `json:"migrated"`
	Failed   int    `json:"failed"`
}

// Backfill bulk-converts the relational tables selected by cmd.Kind. The
// conversion is best-effort: a record that fails to convert is logged and
// skipped, never aborting the pass.
func (a *App) Backfill(ctx context.Context, cmd *BackfillCommand) error {
	kinds := []string{cmd.Kind}
	if cmd.Kind == "all" {
		// Podcasts first so episode and device passes mostly hit
		// already-migrated documents.
		kinds = []string{"podcasts", "episodes", "users", "devices"}
	}
	for _, kind := range kinds {
		summary, err := a.backfillKind(ctx, kind)
		if err != nil {
			return err
		}
		a.log.Info().
			Str("kind", summary.Kind).
			Int("migrated", summary.Migrated).
			Int("failed", summary.Failed).
			Msg("backfill pass done")
	}
	return nil
}

func (a *App) backfillKind(ctx context.Context, kind string) (*BackfillSummary, error) {
	summary := &BackfillSummary{Kind: kind}
	var err error
	switch kind {
	case "podcasts":
		err = a.backfillBatches(ctx, summary, func(ctx context.Context, offset, limit int) (int, error) {
			batch, err := a.source.ListPodcasts(ctx, offset, limit)
			if err != nil {
				return 0, err
			}
			for i := range batch {
				if _, err := a.migrator.UpsertPodcast(ctx, &batch[i]); err != nil {
					a.log.Error().Err(err).Int64("oldid", batch[i].ID).Msg("skipping podcast")
					summary.Failed++
					continue
				}
				summary.Migrated++
			}
			return len(batch), nil
		})
	case "episodes":
		err = a.backfillBatches(ctx, summary, func(ctx context.Context, offset, limit int) (int, error) {
			batch, err := a.source.ListEpisodes(ctx, offset, limit)
			if err != nil {
				return 0, err
			}
			for i := range batch {
				if _, err := a.migrator.UpsertEpisode(ctx, &batch[i]); err != nil {
					a.log.Error().Err(err).Int64("oldid", batch[i].ID).Msg("skipping episode")
					summary.Failed++
					continue
				}
				summary.Migrated++
			}
			return len(batch), nil
		})
	case "users":
		err = a.backfillBatches(ctx, summary, func(ctx context.Context, offset, limit int) (int, error) {
			batch, err := a.source.ListUsers(ctx, offset, limit)
			if err != nil {
				return 0, err
			}
			for i := range batch {
				if _, err := a.migrator.MigrateUser(ctx, &batch[i]); err != nil {
					a.log.Error().Err(err).Int64("oldid", batch[i].ID).Msg("skipping user")
					summary.Failed++
					continue
				}
				summary.Migrated++
			}
			return len(batch), nil
		})
	case "devices":
		err = a.backfillBatches(ctx, summary, func(ctx context.Context, offset, limit int) (int, error) {
			batch, err := a.source.ListDevices(ctx, offset, limit)
			if err != nil {
				return 0, err
			}
			for i := range batch {
				if _, err := a.migrator.MigrateDevice(ctx, &batch[i], nil); err != nil {
					a.log.Error().Err(err).Int64("oldid", batch[i].ID).Msg("skipping device")
					summary.Failed++
					continue
				}
				summary.Migrated++
			}
			return len(batch), nil
		})
	default:
		return nil, fmt.Errorf("unknown backfill kind: %s", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("backfilling %s: %w", kind, err)
	}
	return summary, nil
}

// backfillBatches pages through a relational table until a short batch
// signals the end.
func (a *App) backfillBatches(ctx context.Context, summary *BackfillSummary, page func(ctx context.Context, offset, limit int) (int, error)) error {
	limit := a.config.BatchSize
	if limit < 1 {
		limit = 500
	}
	for offset := 0; ; offset += limit {
		n, err := page(ctx, offset, limit)
		if err != nil {
			return err
		}
		if n < limit {
			return nil
		}
	}
}
