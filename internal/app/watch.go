package app

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"biosync/internal/infra/registry"
	"biosync/internal/infra/telemetry"
)

type WatchOptions struct {
	// DataDir is the content data directory (one subdirectory per tool).
	DataDir string
	// Debounce collapses editor save bursts into one sync run.
	Debounce time.Duration

	Metrics *telemetry.Metrics
	Health  *telemetry.HealthTracker
}

// Watch follows the content tree and reconciles tool description files as
// they change, until the context is canceled. Sync failures are logged and
// reflected in metrics; they never stop the watcher.
func (a *App) Watch(ctx context.Context, client *registry.Client, opts WatchOptions) error {
	logger := a.logger.Named("watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addWatchTree(watcher, opts.DataDir); err != nil {
		return err
	}
	logger.Info("watching content tree", zap.String("dir", opts.DataDir))

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	changed := make(map[string]struct{})
	removed := make(map[string]struct{})
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-watcher.Errors:
			if err != nil {
				logger.Warn("watcher error", zap.Error(err))
			}

		case event := <-watcher.Events:
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logger.Warn("watch add failed", zap.String("path", event.Name), zap.Error(err))
					}
					continue
				}
			}
			if !isToolDescription(event.Name) {
				continue
			}
			if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
				delete(changed, event.Name)
				removed[event.Name] = struct{}{}
			} else if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) {
				delete(removed, event.Name)
				changed[event.Name] = struct{}{}
			} else {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)

		case <-timerChan(timer):
			timer = nil
			files := sortedPaths(changed)
			deleted := sortedPaths(removed)
			changed = make(map[string]struct{})
			removed = make(map[string]struct{})

			report, err := a.Sync(ctx, client, SyncOptions{
				Files:   files,
				Deleted: deleted,
				Metrics: opts.Metrics,
				Health:  opts.Health,
			})
			if err != nil {
				logger.Warn("sync run aborted", zap.Error(err))
				continue
			}
			if report.HasFailures() {
				logger.Warn("sync run had failures", zap.Int("failed", len(report.Failed)))
			}
		}
	}
}

func addWatchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

// isToolDescription matches <id>.biotools.json files; annotation and metrics
// files written by the importers never trigger a sync.
func isToolDescription(path string) bool {
	return strings.HasSuffix(filepath.Base(path), ".biotools.json")
}

func sortedPaths(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	paths := make([]string, 0, len(set))
	for path := range set {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
