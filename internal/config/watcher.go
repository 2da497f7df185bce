package config

import (
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pleimann/camel-touch/internal/utils"
)

// settleDelay coalesces the burst of events editors produce for one save
const settleDelay = 50 * time.Millisecond

// Watcher keeps a Config in sync with its file and notifies handlers when
// the parsed content changes
type Watcher struct {
	path string
	fsw  *fsnotify.Watcher

	mu       sync.RWMutex
	current  *Config
	handlers []func(*Config)
	pending  *time.Timer

	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher loads the config at path and prepares to watch it
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		fsw:     fsw,
		current: cfg,
		done:    make(chan struct{}),
	}

	// Editors that save by rename replace the file, so watch its directory
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start begins delivering file events
func (w *Watcher) Start() {
	go w.loop()
}

// Stop ends watching; it is safe to call more than once
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()

		w.mu.Lock()
		if w.pending != nil {
			w.pending.Stop()
		}
		w.mu.Unlock()
	})
}

// OnReload registers a handler called with each new config
func (w *Watcher) OnReload(handler func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Get returns the current config
func (w *Watcher) Get() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) == w.path && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.schedule()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			utils.Warn("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.Reset(settleDelay)
		return
	}
	w.pending = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		w.pending = nil
		w.mu.Unlock()
		w.Reload()
	})
}

// Reload re-reads the file now. An invalid file keeps the current config;
// an unchanged one notifies nobody.
func (w *Watcher) Reload() {
	select {
	case <-w.done:
		return
	default:
	}

	cfg, err := Load(w.path)
	if err != nil {
		utils.Warn("keeping previous config, reload failed: %v", err)
		return
	}

	w.mu.Lock()
	if reflect.DeepEqual(cfg, w.current) {
		w.mu.Unlock()
		utils.Verbose("config file touched but unchanged")
		return
	}
	w.current = cfg
	handlers := append([]func(*Config){}, w.handlers...)
	w.mu.Unlock()

	utils.Info("config reloaded from %s", w.path)
	for _, h := range handlers {
		h(cfg)
	}
}
