package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/pinmux/logging"
)

// changes closer together than this are read once.
var watchDebounce = 250 * time.Millisecond

// A Watcher is responsible for watching for changes
// to a config from some source and delivering those changes
// to some destination.
type Watcher interface {
	Config() <-chan *Config
	Close() error
}

type fsConfigWatcher struct {
	fsWatcher *fsnotify.Watcher
	configCh  chan *Config
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewWatcher returns a Watcher delivering the config at path every time the file is written. The
// directory is watched so editors that replace the file are noticed too. A changed file that fails
// to read or validate is logged and skipped.
func NewWatcher(ctx context.Context, path string, logger logging.Logger) (Watcher, error) {
	path = filepath.Clean(path)
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		return nil, multierr.Combine(err, fsWatcher.Close())
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	w := &fsConfigWatcher{
		fsWatcher: fsWatcher,
		configCh:  make(chan *Config),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	reload := make(chan struct{}, 1)
	debounced := debounce.New(watchDebounce)
	goutils.PanicCapturingGo(func() {
		defer close(w.done)
		for {
			select {
			case <-cancelCtx.Done():
				return
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				debounced(func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				logger.CWarnw(cancelCtx, "error watching config", "path", path, "error", err)
			case <-reload:
				cfg, err := Read(cancelCtx, path, logger)
				if err != nil {
					logger.CErrorw(cancelCtx, "failed to read changed config", "path", path, "error", err)
					continue
				}
				select {
				case w.configCh <- cfg:
				case <-cancelCtx.Done():
					return
				}
			}
		}
	})
	return w, nil
}

func (w *fsConfigWatcher) Config() <-chan *Config {
	return w.configCh
}

func (w *fsConfigWatcher) Close() error {
	w.cancel()
	<-w.done
	return w.fsWatcher.Close()
}
