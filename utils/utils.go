package utils

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/futurxlab/graphledger/logger"
)

func SafeGo(ctx context.Context, logger logger.ILogger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf(ctx, "SafeGo recovered %+v, stack: %s", r, string(debug.Stack()))
			}
		}()
		fn()
	}()
}

// SafeGoErr runs fn in a goroutine and sends exactly one value on errc,
// a recovered panic is reported as an error.
func SafeGoErr(ctx context.Context, logger logger.ILogger, fn func() error, errc chan<- error) {
	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf(ctx, "SafeGoErr recovered %+v, stack: %s", r, string(debug.Stack()))
				err = fmt.Errorf("recovered panic: %v", r)
			}
			errc <- err
		}()
		err = fn()
	}()
}
