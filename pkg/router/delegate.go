package router

import (
	"context"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
)

// Delegate receives live feedback from one route computation and carries the
// caller's cancellation token. Callbacks run on the computing goroutine.
type Delegate interface {
	IsCancelled() bool
	OnProgress(progress float64)
	OnPointCheck(point datastructure.Coordinate)
}

// ContextDelegate adapts a context to the delegate contract, with optional
// progress and point callbacks.
type ContextDelegate struct {
	ctx        context.Context
	onProgress func(float64)
	onPoint    func(datastructure.Coordinate)
}

func NewContextDelegate(ctx context.Context, onProgress func(float64),
	onPoint func(datastructure.Coordinate)) *ContextDelegate {
	return &ContextDelegate{ctx: ctx, onProgress: onProgress, onPoint: onPoint}
}

func (d *ContextDelegate) IsCancelled() bool {
	select {
	case <-d.ctx.Done():
		return true
	default:
		return false
	}
}

func (d *ContextDelegate) OnProgress(progress float64) {
	if d.onProgress != nil {
		d.onProgress(progress)
	}
}

func (d *ContextDelegate) OnPointCheck(point datastructure.Coordinate) {
	if d.onPoint != nil {
		d.onPoint(point)
	}
}
