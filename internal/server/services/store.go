package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gemspark/internal/common"
	"github.com/dmitrijs2005/gemspark/internal/dbx"
	"github.com/dmitrijs2005/gemspark/internal/server/repositories/repomanager"
)

// Store bundles what services need to reach persistence: a plain handle,
// a transactor, the repository factory and the retry policy for transient
// failures.
type Store struct {
	DB    dbx.DBTX
	Tx    dbx.Transactor
	Repos repomanager.RepositoryManager
	Retry dbx.RetryPolicy
}

// run retries fn on transient errors and reports an exhausted retry as
// common.ErrStoreUnavailable.
func (s Store) run(ctx context.Context, fn func(ctx context.Context) error) error {
	err := dbx.Retry(ctx, s.Retry, fn)
	if err != nil && dbx.IsTransient(err) {
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	return err
}

// inTx is run with fn wrapped in a single transaction.
func (s Store) inTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.Tx.WithTx(ctx, fn)
	})
}
