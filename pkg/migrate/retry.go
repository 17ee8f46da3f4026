package migrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/gpodder/mygpo-migrate/pkg/store"
)

// retryOnConflict runs fn up to attempts times, retrying only when the
// returned error wraps store.ErrConflict. fn is responsible for re-reading
// whatever it mutates before the next attempt, so that the reconcile step
// runs against the revision that actually won.
func retryOnConflict(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		err = fn(ctx)
		if err == nil || !errors.Is(err, store.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("giving up after %d conflicting saves: %w", attempts, err)
}
