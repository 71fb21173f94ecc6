// Package watcher imports files dropped into an inbox directory as new
// documents.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/techdocs/internal/apperr"
	"github.com/starford/techdocs/internal/checksum"
	"github.com/starford/techdocs/internal/importer"
	"github.com/starford/techdocs/internal/models"
	"github.com/starford/techdocs/internal/storage"
)

// ArchiveDir holds imported files, relative to the inbox root.
const ArchiveDir = ".imported"

const debounce = 200 * time.Millisecond

// Sink receives imported drafts.
type Sink interface {
	Create(ctx context.Context, d models.Draft) (models.Document, error)
}

// EventCallback is called after each file is handled. kind is "imported",
// "duplicate" or "rejected".
type EventCallback func(kind, path string)

// Inbox imports every importable file under a directory. Files that were
// imported (or are byte-identical to an earlier import) are moved into
// ArchiveDir. Files that cannot be parsed stay in place and are not retried
// until their content changes.
type Inbox struct {
	files    storage.Provider
	importer *importer.Importer
	sink     Sink
	logger   *slog.Logger
	opts     importer.Options
	cb       EventCallback

	mu       sync.Mutex
	seen     map[string]bool // checksums already archived
	rejected map[string]bool // checksums that failed to parse
}

// New creates an inbox over files.
func New(files storage.Provider, im *importer.Importer, sink Sink, logger *slog.Logger, opts importer.Options, cb EventCallback) *Inbox {
	return &Inbox{
		files:    files,
		importer: im,
		sink:     sink,
		logger:   logger,
		opts:     opts,
		cb:       cb,
		rejected: make(map[string]bool),
	}
}

// Sweep imports every pending file once.
func (in *Inbox) Sweep(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.seen == nil {
		in.seen = make(map[string]bool)
		archived, err := in.files.List(ArchiveDir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("watcher: list archive: %w", err)
		}
		for _, f := range archived {
			in.seen[f.Checksum] = true
		}
	}

	pending, err := in.files.List("")
	if err != nil {
		return fmt.Errorf("watcher: list inbox: %w", err)
	}
	for _, f := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		in.handle(ctx, f)
	}
	return nil
}

func (in *Inbox) handle(ctx context.Context, f storage.FileInfo) {
	if in.rejected[f.Checksum] {
		return
	}
	if in.seen[f.Checksum] {
		if in.archive(f) {
			in.logger.Debug("watcher: duplicate archived", slog.String("path", f.Path))
			in.notify("duplicate", f.Path)
		}
		return
	}

	data, err := in.files.Read(f.Path)
	if err != nil {
		in.logger.Warn("watcher: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
		return
	}
	draft, err := in.importer.Import(f.Path, data, in.opts)
	if err == nil {
		err = draft.Validate()
	}
	if err != nil {
		if !IsRejected(err) {
			in.logger.Warn("watcher: import failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			return
		}
		in.rejected[f.Checksum] = true
		in.logger.Warn("watcher: file rejected", slog.String("path", f.Path), slog.String("error", err.Error()))
		in.notify("rejected", f.Path)
		return
	}

	doc, err := in.sink.Create(ctx, draft)
	if err != nil {
		// Store failures are retried on the next sweep.
		in.logger.Warn("watcher: create failed", slog.String("path", f.Path), slog.String("error", err.Error()))
		return
	}
	in.seen[f.Checksum] = true
	in.archive(f)
	in.logger.Info("watcher: imported", slog.String("path", f.Path), slog.String("id", doc.ID))
	in.notify("imported", f.Path)
}

func (in *Inbox) archive(f storage.FileInfo) bool {
	dst := ArchivePath(f)
	if err := in.files.Move(f.Path, dst); err != nil {
		in.logger.Warn("watcher: archive failed", slog.String("path", f.Path), slog.String("error", err.Error()))
		return false
	}
	return true
}

func (in *Inbox) notify(kind, p string) {
	if in.cb != nil {
		in.cb(kind, p)
	}
}

// ArchivePath is where f lands after import. The checksum prefix keeps
// same-named files apart.
func ArchivePath(f storage.FileInfo) string {
	base := path.Base(filepath.ToSlash(f.Path))
	return filepath.Join(ArchiveDir, checksum.Short(f.Checksum)+"-"+base)
}

// Watch sweeps root once, then again shortly after every change under it,
// until ctx is cancelled.
func (in *Inbox) Watch(ctx context.Context, root string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	if err := in.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
		in.logger.Warn("watcher: initial sweep failed", slog.String("error", err.Error()))
	}

	in.logger.Info("watcher: started", slog.String("root", root))

	// sweepTimer coalesces bursts of writes into a single sweep.
	var sweepTimer *time.Timer
	var sweepCh <-chan time.Time
	scheduleSweep := func() {
		if sweepTimer == nil {
			sweepTimer = time.NewTimer(debounce)
			sweepCh = sweepTimer.C
		} else {
			sweepTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if sweepTimer != nil {
				sweepTimer.Stop()
			}
			in.logger.Info("watcher: stopped")
			return nil

		case <-sweepCh:
			if err := in.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				in.logger.Warn("watcher: sweep failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil || storage.Hidden(rel) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						in.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					scheduleSweep()
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 && storage.Importable(ev.Name) {
				scheduleSweep()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and its visible subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

// IsRejected reports whether err means a file can never be imported as is.
func IsRejected(err error) bool {
	return errors.Is(err, apperr.ErrValidation) || errors.Is(err, apperr.ErrUnsupported)
}
