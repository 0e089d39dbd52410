package lockwatch

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"
)

// GoSupervised runs fn in an errgroup goroutine and restarts it with
// exponential backoff if it panics. Panics are recoverable and do not cancel
// sibling goroutines; a returned error keeps errgroup semantics and cancels
// the group.
//
// Structured logging is deliberately avoided here: the panic may originate
// in the logger, so stderr is the safest sink.
func GoSupervised(ctx context.Context, group *errgroup.Group, name string, fn func(context.Context) error) {
	if group == nil || fn == nil {
		return
	}
	group.Go(func() (err error) {
		backoff := 200 * time.Millisecond
		const maxBackoff = 30 * time.Second
		for {
			if ctx != nil {
				select {
				case <-ctx.Done():
					return nil
				default:
				}
			}

			recovered := runRecovering(ctx, fn, &err)
			if recovered == nil {
				return err
			}

			_, _ = fmt.Fprintf(os.Stderr, "WARN: %s panicked: %v\n%s\n", name, recovered, debug.Stack())
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	})
}

func runRecovering(ctx context.Context, fn func(context.Context) error, err *error) (recovered any) {
	defer func() {
		if r := recover(); r != nil {
			recovered = r
		}
	}()
	*err = fn(ctx)
	return nil
}
