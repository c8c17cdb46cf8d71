package scan

import (
	"context"
	"errors"
	"time"

	"therapyfinder/internal/logging"
)

// NextScopes supplies the scopes of the next loop iteration.
type NextScopes func(ctx context.Context) ([]Scope, error)

// Loop runs first, then every interval runs the scopes next returns, until
// ctx is cancelled or a run stops on a run-level error. Cancellation is the
// normal way out and is not reported as an error.
func (o *Orchestrator) Loop(ctx context.Context, first []Scope, next NextScopes, interval time.Duration) (Summary, error) {
	var total Summary
	scopes := first
	for iteration := 1; ; iteration++ {
		if len(scopes) > 0 {
			sum, err := o.Run(ctx, scopes)
			total.Add(sum)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return total, nil
				}
				return total, err
			}
		} else {
			o.logger.Info("no scopes below target; waiting", logging.Int("iteration", iteration))
		}
		o.refs.Flush()

		if err := o.sleep(ctx, interval); err != nil {
			return total, nil
		}
		var err error
		scopes, err = next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return total, nil
			}
			return total, err
		}
		o.logger.Info("loop iteration", logging.Int("iteration", iteration+1), logging.Int("scopes", len(scopes)))
	}
}
