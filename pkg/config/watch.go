package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a config file when it changes on disk and hands the
// parsed result to a callback, so weight tuning takes effect without a
// restart. Editors replace files via rename, so the parent directory is
// watched and events are filtered by name.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onReload func(*Config)

	done      chan struct{}
	closeOnce sync.Once

	debounceMu sync.Mutex
	debounce   *time.Timer
}

// reloadDebounce settles bursts of events from editors that write a file
// in several steps.
const reloadDebounce = 200 * time.Millisecond

// Watch starts watching path. onReload runs on the watcher goroutine after
// each settled change; Close stops the watcher.
func Watch(path string, onReload func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:  fsw,
		path:     filepath.Clean(path),
		onReload: onReload,
		done:     make(chan struct{}),
	}
	go w.loop()
	log.Debugf("Watching config file %s", w.path)
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Config watcher: %v", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(reloadDebounce, w.reload)
}

func (w *Watcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}
	cfg, err := LoadConfig(w.path)
	if err != nil {
		log.Warnf("Config reload failed for %s: %v", w.path, err)
		return
	}
	log.Debugf("Config reloaded from %s", w.path)
	w.onReload(cfg)
}

// Close stops watching. Pending debounced reloads are cancelled.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.debounceMu.Lock()
		if w.debounce != nil {
			w.debounce.Stop()
		}
		w.debounceMu.Unlock()
		err = w.watcher.Close()
	})
	return err
}
