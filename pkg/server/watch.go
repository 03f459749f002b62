package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period before a rebuild.
const DefaultDebounce = 250 * time.Millisecond

// Watch rebuilds the site whenever files under dir change, once no further
// change arrived for debounce. It blocks until ctx is done. Rebuild failures
// are logged and watching continues.
func (s *Server) Watch(ctx context.Context, dir string, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := s.addRecursive(watcher, dir); err != nil {
		return err
	}
	s.log.WithField("dir", dir).Info("Watching for content changes")

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if s.ignored(event.Name) {
				continue
			}

			// Also watch new directories
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := s.addRecursive(watcher, event.Name); err != nil {
						s.log.WithError(err).WithField("dir", event.Name).Warn("Error watching new directory")
					}
				}
			}

			s.log.WithFields(logrus.Fields{"file": event.Name, "op": event.Op.String()}).Debug("Content changed")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			start := time.Now()
			if err := s.Rebuild(ctx); err != nil {
				s.log.WithError(err).Error("Rebuild failed")
				continue
			}
			s.log.WithField("duration", time.Since(start).String()).Info("Rebuilt site")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.WithError(err).Warn("Watcher error")
		}
	}
}

// ignored filters hidden files and the output directory.
func (s *Server) ignored(name string) bool {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return true
	}
	if s.siteDir == "" {
		return false
	}
	rel, err := filepath.Rel(s.siteDir, name)
	return err == nil && !strings.HasPrefix(rel, "..")
}

// addRecursive adds dir and all its subdirectories to the watcher
func (s *Server) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(info.Name(), ".") || s.ignored(path)) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
