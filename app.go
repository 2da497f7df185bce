package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/pleimann/camel-touch/internal/action"
	"github.com/pleimann/camel-touch/internal/config"
	"github.com/pleimann/camel-touch/internal/feed"
	"github.com/pleimann/camel-touch/internal/gesture"
	"github.com/pleimann/camel-touch/internal/input"
	"github.com/pleimann/camel-touch/internal/pty"
	"github.com/pleimann/camel-touch/internal/touch"
	"github.com/pleimann/camel-touch/internal/utils"
)

const actionQueueSize = 16

type App struct {
	mu     sync.Mutex
	config *config.Config

	source         input.Source
	tracker        *touch.Tracker
	gestureEngine  *gesture.Engine
	actionMapper   *action.Mapper
	actionExecutor *action.Executor
	actions        chan action.Action

	ptyManager *pty.Manager
	ptyWriter  *pty.Writer

	feedHub    *feed.Hub
	feedServer *feed.Server
	feedListen string
}

func trackerConfig(t config.TrackingConfig) touch.Config {
	return touch.Config{
		DragSlop:         t.DragSlop,
		HoldThreshold:    t.HoldThreshold(),
		FlickMaxDuration: t.FlickMaxDuration(),
		FlickMinVelocity: t.FlickMinVelocity,
	}
}

func newApp(cfg *config.Config) (*App, error) {
	app := &App{
		config:  cfg,
		tracker: touch.NewTracker(trackerConfig(cfg.Tracking)),
		actions: make(chan action.Action, actionQueueSize),
	}

	source, err := input.Open(cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	app.source = source
	utils.Info("Reading touches from %s", source.Name())

	app.actionMapper = action.NewMapper(cfg)

	if cfg.TUI.Command != "" {
		ptyManager, err := pty.NewManager(cfg.TUI.Command, cfg.TUI.Args, cfg.TUI.WorkingDir)
		if err != nil {
			source.Close()
			return nil, fmt.Errorf("failed to create PTY manager: %w", err)
		}
		ptyManager.Attach(os.Stdin, os.Stdout)
		app.ptyManager = ptyManager
		app.ptyWriter = pty.NewWriter(ptyManager, cfg.TUI.KeyDelay())
		app.actionExecutor = action.NewExecutor(app.ptyWriter)
	} else {
		app.actionExecutor = action.NewExecutor(nil)
	}

	if cfg.Feed.Listen != "" {
		app.feedHub = feed.NewHub()
		app.feedListen = cfg.Feed.Listen
	}

	app.gestureEngine = gesture.NewEngine(cfg.Gesture.RolloverEnabled, app.onGesture)

	if app.feedHub != nil {
		app.feedServer = feed.NewServer(app.feedHub, app.status)
	}

	return app, nil
}

// status snapshots the pipeline for the feed's /state endpoint
func (a *App) status() feed.Status {
	st := feed.Status{
		State:    a.gestureEngine.State().String(),
		Devices:  a.gestureEngine.Devices(),
		Contacts: a.tracker.Active(),
		Input:    a.source.Name(),
	}
	if a.ptyManager != nil {
		st.TUIRunning = a.ptyManager.IsRunning()
	}
	return st
}

func (a *App) onGesture(g gesture.Gesture) {
	utils.Info("Gesture detected: %s", g)

	if a.feedHub != nil {
		a.feedHub.Publish(g)
	}

	act, ok := a.actionMapper.Map(g)
	if !ok {
		return
	}
	select {
	case a.actions <- act:
	default:
		utils.Warn("action queue full, dropping action for %s", g.Type)
	}
}

// runActions executes queued actions one at a time so key sequences never
// interleave
func (a *App) runActions(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case act := <-a.actions:
			if err := a.actionExecutor.Execute(ctx, act); err != nil {
				utils.Warn("Failed to execute action: %v", err)
			}
		}
	}
}

// reload applies the settings that can change while running
func (a *App) reload(cfg *config.Config) {
	a.mu.Lock()
	old := a.config
	a.config = cfg
	a.mu.Unlock()

	a.actionMapper.Reload(cfg)
	a.gestureEngine.SetRollover(cfg.Gesture.RolloverEnabled)
	a.tracker.SetConfig(trackerConfig(cfg.Tracking))
	if a.ptyWriter != nil {
		a.ptyWriter.SetKeyDelay(cfg.TUI.KeyDelay())
	}

	if old.Input != cfg.Input {
		utils.Warn("input settings changed; restart to apply")
	}
	if !reflect.DeepEqual(old.TUI.Args, cfg.TUI.Args) || old.TUI.Command != cfg.TUI.Command || old.TUI.WorkingDir != cfg.TUI.WorkingDir {
		utils.Warn("tui settings changed; restart to apply")
	}
	if old.Feed != cfg.Feed {
		utils.Warn("feed settings changed; restart to apply")
	}
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.shutdown()

	var tuiDone <-chan struct{}
	if a.ptyManager != nil {
		if err := a.ptyManager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start PTY: %w", err)
		}
		tuiDone = a.ptyManager.Done()
	}

	if a.feedServer != nil {
		if _, err := a.feedServer.Start(a.feedListen); err != nil {
			return err
		}
	}

	a.gestureEngine.Start(ctx)
	go a.runActions(ctx)

	pipelineDone := make(chan error, 1)
	go func() {
		frames, err := runPipeline(ctx, a.source, a.tracker, a.gestureEngine)
		utils.Verbose("input pipeline ended after %d frame(s)", frames)
		pipelineDone <- err
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tuiDone:
			if err := a.ptyManager.Err(); err != nil {
				return fmt.Errorf("TUI exited: %w%s", err, outputTail(a.ptyManager.RecentOutput(), 5))
			}
			return nil
		case err := <-pipelineDone:
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("input error: %w", err)
			}
			if a.ptyManager == nil {
				return nil
			}
			// Input finished, keep serving the TUI
			pipelineDone = nil
		}
	}
}

// outputTail formats the last n non-empty lines of TUI output for an error
func outputTail(out string, n int) string {
	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\n")
	var kept []string
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if line := strings.TrimRight(lines[i], "\r"); strings.TrimSpace(line) != "" {
			kept = append([]string{line}, kept...)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return "\n  " + strings.Join(kept, "\n  ")
}

func (a *App) shutdown() {
	utils.Verbose("Shutting down...")
	a.gestureEngine.Stop()
	if a.feedServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		a.feedServer.Shutdown(ctx)
	}
	if a.ptyManager != nil {
		a.ptyManager.Stop()
	}
	a.source.Close()
}

// runPipeline reads frames from src, converts them into contact events and
// feeds the engine until the source ends or ctx is done. It returns the
// number of frames read.
func runPipeline(parent context.Context, src input.Source, tracker *touch.Tracker, engine *gesture.Engine) (int, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	raw := make(chan touch.Frame, 64)
	frames := make(chan touch.Frame, 64)
	events := make(chan gesture.ContactEvent, 64)

	var (
		wg        sync.WaitGroup
		count     int
		sourceErr error
		trackErr  error
	)
	wg.Add(3)

	go func() {
		defer wg.Done()
		sourceErr = src.ReadFrames(ctx, raw)
		close(raw)
	}()

	go func() {
		defer wg.Done()
		defer close(frames)
		for f := range raw {
			count++
			select {
			case frames <- f:
			case <-ctx.Done():
			}
		}
	}()

	go func() {
		defer wg.Done()
		trackErr = tracker.Run(ctx, frames, events)
		close(events)
	}()

	engineErr := engine.Run(ctx, events)
	cancel()
	wg.Wait()

	for _, err := range []error{sourceErr, trackErr, engineErr} {
		if err != nil && !errors.Is(err, context.Canceled) {
			return count, err
		}
	}
	return count, parent.Err()
}
