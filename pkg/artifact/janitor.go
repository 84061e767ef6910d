package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/veldtlabs/dialtone/internal/metrics"
)

// StartJanitor launches the background sweep loop. Call once; stop it
// with Close.
func (s *Store) StartJanitor() {
	go s.run()
}

func (s *Store) run() {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n, err := s.Sweep(); err != nil {
				s.logger.Warn("sweep failed", "error", err)
			} else if n > 0 {
				s.logger.Debug("swept artifacts", "evicted", n)
			}
		}
	}
}

// Close stops the janitor. Safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	return nil
}

// Sweep deletes artifacts older than the TTL, then trims the directory
// to the count cap, oldest first. Returns how many were removed.
func (s *Store) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("artifact: read directory: %w", err)
	}

	type entry struct {
		name    string
		modTime time.Time
	}

	var files []entry
	cutoff := time.Now().Add(-s.ttl)
	removed := 0

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		if s.ttl > 0 && info.ModTime().Before(cutoff) {
			if s.remove(e.Name()) {
				removed++
			}
			continue
		}
		files = append(files, entry{name: e.Name(), modTime: info.ModTime()})
	}

	if s.maxCount > 0 && len(files) > s.maxCount {
		sort.Slice(files, func(i, j int) bool {
			return files[i].modTime.Before(files[j].modTime)
		})
		for _, f := range files[:len(files)-s.maxCount] {
			if s.remove(f.name) {
				removed++
			}
		}
	}

	if removed > 0 {
		metrics.RecordEvicted(removed)
	}
	return removed, nil
}

// remove deletes one artifact, tolerating concurrent removal.
func (s *Store) remove(name string) bool {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		s.logger.Warn("evict failed", "name", name, "error", err)
		return false
	}
	return err == nil
}
