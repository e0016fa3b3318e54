package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/babilon/internal/checksum"
	"github.com/starford/babilon/internal/storage"
)

// EventCallback is called for every content file change the watcher
// sees. kind is one of "created", "updated", "deleted"; path is slash
// separated and relative to the content root.
type EventCallback func(kind string, path string)

// contentExts are the files that can change what a reader sees.
var contentExts = []string{".json", ".txt", ".md"}

const resyncDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the content root and processes
// change events until ctx is cancelled. Each change is reported to cb
// right away; the index itself is re-synced once the burst of events
// settles.
//
// New directories created at runtime are automatically added to the
// watch list. Writes that leave a file's content unchanged are dropped.
func Watch(ctx context.Context, store storage.Provider, syncer *Syncer, logger *slog.Logger, cb EventCallback) error {
	root := store.Root()
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	sums := make(map[string]string)
	files, err := store.List("", "")
	if err != nil {
		return err
	}
	for _, f := range files {
		if isContent(f.Path) {
			sums[f.Path] = f.Checksum
		}
	}
	// changed records the current checksum of rel and reports whether it
	// differs from the last one seen.
	changed := func(rel string) bool {
		data, err := store.Read(rel)
		if err != nil {
			return true
		}
		sum := checksum.Sum(data)
		if sums[rel] == sum {
			return false
		}
		sums[rel] = sum
		return true
	}

	logger.Info("watcher: started", slog.String("root", root))

	// resyncTimer debounces index rebuilds.
	var resyncTimer *time.Timer
	var resyncCh <-chan time.Time

	scheduleResync := func() {
		if resyncTimer == nil {
			resyncTimer = time.NewTimer(resyncDelay)
			resyncCh = resyncTimer.C
		} else {
			resyncTimer.Reset(resyncDelay)
		}
	}
	notify := func(kind, rel string) {
		logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", kind))
		if cb != nil {
			cb(kind, rel)
		}
		scheduleResync()
	}

	for {
		select {
		case <-ctx.Done():
			if resyncTimer != nil {
				resyncTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-resyncCh:
			if syncer == nil {
				continue
			}
			if _, err := syncer.Sync(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("watcher: resync failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					// Files may land before the directory is watched.
					walkNewDir(store, root, absPath, func(f storage.File) {
						sums[f.Path] = f.Checksum
						notify("created", f.Path)
					})
					continue
				}
			}

			if !isContent(absPath) {
				continue
			}
			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&fsnotify.Create != 0:
				changed(rel)
				notify("created", rel)
			case ev.Op&fsnotify.Write != 0:
				if changed(rel) {
					notify("updated", rel)
				}
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// fsnotify fires Rename on the old path only; the new
				// path arrives as its own Create.
				delete(sums, rel)
				notify("deleted", rel)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func isContent(path string) bool {
	return slices.Contains(contentExts, filepath.Ext(path))
}

// walkNewDir reports content files found in a newly created directory.
func walkNewDir(store storage.Provider, root, dirPath string, found func(storage.File)) {
	rel, err := filepath.Rel(root, dirPath)
	if err != nil {
		return
	}
	files, err := store.List(filepath.ToSlash(rel), "")
	if err != nil {
		return
	}
	for _, f := range files {
		if isContent(f.Path) {
			found(f)
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
