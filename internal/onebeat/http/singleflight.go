package http

import (
	"context"

	"golang.org/x/sync/singleflight"
)

var prepareGroup singleflight.Group

func singleflightPrepare(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error, bool) {
	resultChan := prepareGroup.DoChan(key, func() (interface{}, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
