package gesture

import (
	"context"
	"sync"

	"github.com/pleimann/camel-touch/internal/utils"
)

// Engine serializes contact events from the input pipeline into a Detector
// and reports recognized gestures through a callback.
type Engine struct {
	mu        sync.Mutex
	detector  *Detector
	onGesture func(Gesture)
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewEngine creates a new gesture engine
func NewEngine(rolloverEnabled bool, onGesture func(Gesture), opts ...Option) *Engine {
	opts = append([]Option{WithRollover(rolloverEnabled)}, opts...)
	return &Engine{
		detector:  NewDetector(opts...),
		onGesture: onGesture,
	}
}

// Start starts the gesture engine
func (e *Engine) Start(ctx context.Context) {
	e.ctx, e.cancel = context.WithCancel(ctx)
}

// Stop stops the gesture engine
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// ProcessEvent feeds one contact event to the detector. The callback runs
// after the engine lock is released. Events are dropped once the engine
// has been stopped.
func (e *Engine) ProcessEvent(ev ContactEvent) {
	if e.ctx != nil && e.ctx.Err() != nil {
		return
	}

	e.mu.Lock()
	before := e.detector.State()
	g, ok := e.detector.ProcessEvent(ev)
	after := e.detector.State()
	e.mu.Unlock()

	if before != after {
		utils.Verbose("gesture: %s: %s -> %s", ev, before, after)
	}

	if ok && e.onGesture != nil {
		e.onGesture(g)
	}
}

// Run processes events until the channel closes or the context is done
func (e *Engine) Run(ctx context.Context, events <-chan ContactEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.ProcessEvent(ev)
		}
	}
}

// State returns the detector's current state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detector.State()
}

// Devices returns the device ids tracked by the current session
func (e *Engine) Devices() []int {
	e.mu.Lock()
	defer e.mu.Unlock()

	var ids []int
	if id, ok := e.detector.FirstDevice(); ok {
		ids = append(ids, id)
	}
	if id, ok := e.detector.SecondDevice(); ok {
		ids = append(ids, id)
	}
	return ids
}

// SetRollover toggles the experimental rollover gesture, e.g. on config reload
func (e *Engine) SetRollover(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.detector.SetRollover(enabled)
}
