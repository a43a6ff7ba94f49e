package genfiles

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watcher feeds file-system events under the build output roots into the
// resolver's incremental index updates.
type watcher struct {
	fsw  *fsnotify.Watcher
	done chan struct{}
}

// Watch starts delivering file events to the resolver until Close. New
// directories appearing under the roots are added to the watch as they are
// created (fsnotify does not recurse).
func (r *Resolver) Watch() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w := &watcher{fsw: fsw, done: make(chan struct{})}

	r.mu.Lock()
	roots := append([]string(nil), r.roots...)
	r.watcher = w
	r.mu.Unlock()

	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				_ = fsw.Add(path)
			}
			return nil
		})
	}

	go r.watchLoop(w)
	return nil
}

// CloseWatch stops the watcher, if running.
func (r *Resolver) CloseWatch() {
	r.mu.Lock()
	w := r.watcher
	r.watcher = nil
	r.mu.Unlock()
	if w != nil {
		close(w.done)
		_ = w.fsw.Close()
	}
}

func (r *Resolver) watchLoop(w *watcher) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.fsw.Add(event.Name)
					r.Rescan()
					continue
				}
			}
			switch {
			case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
				r.HandleFileEvent(event.Name, false)
			case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
				r.HandleFileEvent(event.Name, true)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if r.logger != nil {
				r.logger.Printf("genfiles: watch error: %v", err)
			}
		}
	}
}
