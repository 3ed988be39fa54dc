// Package importer watches a drop folder and ingests audio files into
// the blob store and track catalog.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/jvetere1999/passion-os-sub009/logger"
	"github.com/jvetere1999/passion-os-sub009/model"
	"github.com/jvetere1999/passion-os-sub009/repository"
	"github.com/jvetere1999/passion-os-sub009/storage"
)

// checkInterval is how often pending files are re-checked for stability.
const checkInterval = 500 * time.Millisecond

// audioContentTypes maps the extensions the import pipeline accepts to
// their mime types.
var audioContentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
}

// Watcher ingests audio files dropped into a directory. A file is
// imported once it has stopped changing for the quiet period: tags are
// read, the bytes move into the blob store under a fresh id, a catalog
// row is inserted, and the source file is removed.
type Watcher struct {
	dir     string
	quiet   time.Duration
	ownerID int64
	blobs   *storage.BlobStore
	tracks  repository.TrackRepository

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a watcher over dir. Imported tracks are owned by
// ownerID.
func NewWatcher(dir string, quiet time.Duration, ownerID int64, blobs *storage.BlobStore, tracks repository.TrackRepository) *Watcher {
	if quiet <= 0 {
		quiet = 2 * time.Second
	}
	return &Watcher{
		dir:     dir,
		quiet:   quiet,
		ownerID: ownerID,
		blobs:   blobs,
		tracks:  tracks,
	}
}

// Start begins watching. Files already sitting in the directory are
// queued as if they had just been dropped.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create import directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch import directory: %w", err)
	}

	w.watcher = watcher
	w.done = make(chan struct{})

	pending := make(map[string]time.Time)
	now := time.Now()
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("failed to scan import directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if _, ok := audioContentTypes[strings.ToLower(filepath.Ext(path))]; ok {
			pending[path] = now
		}
	}

	go w.run(ctx, pending)

	logger.Info("import watcher started",
		logger.String("dir", w.dir),
		logger.Duration("quietPeriod", w.quiet),
		logger.Int("pending", len(pending)))
	return nil
}

// Stop ends the watch loop and waits for it to drain.
func (w *Watcher) Stop() {
	if w.watcher == nil {
		return
	}
	w.watcher.Close()
	<-w.done
}

func (w *Watcher) run(ctx context.Context, pending map[string]time.Time) {
	defer close(w.done)

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if _, ok := audioContentTypes[strings.ToLower(filepath.Ext(event.Name))]; ok {
					pending[event.Name] = time.Now()
				}
			}

		case <-ticker.C:
			now := time.Now()
			for path, lastEvent := range pending {
				if now.Sub(lastEvent) < w.quiet {
					continue
				}
				if !isFileComplete(path) {
					// Still being written; re-check on the next tick.
					pending[path] = time.Now()
					continue
				}
				delete(pending, path)
				if err := w.importFile(ctx, path); err != nil {
					logger.Error("import failed",
						logger.String("file", path),
						logger.ErrorField(err))
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("file watcher error", logger.ErrorField(err))
		}
	}
}

// importFile ingests one stable file.
func (w *Watcher) importFile(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	title, artist, album, genre := readTags(file, path)
	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to rewind %s: %w", path, err)
	}

	id := uuid.NewString()
	contentType := audioContentTypes[strings.ToLower(filepath.Ext(path))]

	if err := w.blobs.Store(ctx, id, file, info.Size(), contentType); err != nil {
		return err
	}

	track := &model.ReferenceTrack{
		ID:        id,
		UserID:    w.ownerID,
		Title:     title,
		Artist:    artist,
		Album:     album,
		Genre:     genre,
		MimeType:  contentType,
		SizeBytes: info.Size(),
		ObjectKey: w.blobs.ObjectKey(id),
		Status:    model.TrackStatusUploaded,
	}
	if err := w.tracks.Create(ctx, track); err != nil {
		// Keep store and catalog consistent when the insert fails.
		if delErr := w.blobs.Delete(ctx, id); delErr != nil {
			logger.Warn("failed to roll back blob after insert failure",
				logger.String("id", id),
				logger.ErrorField(delErr))
		}
		return fmt.Errorf("failed to insert track: %w", err)
	}

	if err := os.Remove(path); err != nil {
		logger.Warn("failed to remove imported file",
			logger.String("file", path),
			logger.ErrorField(err))
	}

	logger.Info("track imported",
		logger.String("id", id),
		logger.String("title", title),
		logger.String("artist", artist))
	return nil
}

// readTags extracts basic metadata, falling back to the filename when
// the file carries no tags.
func readTags(f *os.File, path string) (title, artist, album, genre string) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	metadata, err := tag.ReadFrom(f)
	if err != nil {
		return base, "Unknown Artist", "", ""
	}
	return getOrDefault(metadata.Title(), base),
		getOrDefault(metadata.Artist(), "Unknown Artist"),
		metadata.Album(),
		metadata.Genre()
}

// isFileComplete reports whether a file's size has settled.
func isFileComplete(path string) bool {
	info1, err := os.Stat(path)
	if err != nil || info1.Size() == 0 {
		return false
	}

	time.Sleep(100 * time.Millisecond)

	info2, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info1.Size() == info2.Size()
}

func getOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
