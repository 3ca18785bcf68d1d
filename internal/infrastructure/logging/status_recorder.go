package logging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/adapters/persistence"
	"github.com/andrescamacho/shippingmanager-go/internal/application/autopilot"
	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
)

// persistTimeout bounds each status log write
const persistTimeout = 5 * time.Second

// EventSource is anything that hands out controller event subscriptions
type EventSource interface {
	Subscribe(buffer int) (<-chan autopilot.Event, func())
}

// StatusRecorder persists controller status lines. Writes happen on the
// recorder's own goroutine so a slow database never delays a cycle.
type StatusRecorder struct {
	source EventSource
	repo   persistence.StatusLogRepository
	logger common.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStatusRecorder creates a recorder; logger reports failed writes
func NewStatusRecorder(source EventSource, repo persistence.StatusLogRepository, logger common.Logger) *StatusRecorder {
	if logger == nil {
		logger = common.LoggerFromContext(context.Background())
	}
	return &StatusRecorder{source: source, repo: repo, logger: logger}
}

// Start subscribes and persists events until Stop
func (r *StatusRecorder) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	events, unsubscribe := r.source.Subscribe(256)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				r.Record(ctx, event)
			}
		}
	}()
}

// Stop waits for the recorder goroutine to exit
func (r *StatusRecorder) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// Record persists one event if it is a status line
func (r *StatusRecorder) Record(ctx context.Context, event autopilot.Event) {
	if event.Type != autopilot.EventStatus || event.Message == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	if err := r.repo.Log(ctx, event.CycleID, event.Message, event.Level, nil); err != nil {
		r.logger.Log(common.LevelError, fmt.Sprintf("Failed to persist status line: %v", err), nil)
	}
}
