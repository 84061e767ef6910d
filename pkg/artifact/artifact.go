// Package artifact stores synthesized reply audio on disk so the
// telephony provider can fetch it over HTTP. Artifacts are transient:
// the caller's platform fetches each one exactly once shortly after the
// turn instruction is returned, so a janitor reclaims disk space by age
// and by count rather than by tracking fetches.
//
// Names are collision-free across concurrent calls: every Put generates
// a fresh UUID, so two turns of the same call never overwrite each
// other.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veldtlabs/dialtone/internal/metrics"
	"github.com/veldtlabs/dialtone/pkg/tts"
)

var (
	// ErrNotFound indicates the named artifact does not exist (or was
	// already evicted).
	ErrNotFound = errors.New("artifact: not found")

	// ErrInvalidName indicates a name that could escape the store
	// directory or was never produced by Put.
	ErrInvalidName = errors.New("artifact: invalid name")
)

// Artifact describes one stored audio file.
type Artifact struct {
	// Name is the store-relative file name, unique per Put.
	Name string

	// ContentType is the MIME type to serve the bytes with.
	ContentType string

	// Size in bytes.
	Size int64

	// Stored is when the artifact was written.
	Stored time.Time

	url string
}

// URL returns the public URL the telephony provider fetches the
// artifact from.
func (a *Artifact) URL() string {
	return a.url
}

// Store writes artifacts under a single directory and serves their
// public URLs from a configured base.
type Store struct {
	dir     string
	baseURL string

	ttl        time.Duration
	maxCount   int
	sweepEvery time.Duration

	logger *slog.Logger

	stop      chan struct{}
	closeOnce sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the maximum age before the janitor deletes an artifact.
// Zero disables age-based eviction.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithMaxCount caps how many artifacts the directory may hold; the
// janitor trims oldest first. Zero disables the cap.
func WithMaxCount(n int) Option {
	return func(s *Store) { s.maxCount = n }
}

// WithSweepInterval sets how often the janitor runs.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) { s.sweepEvery = d }
}

// WithLogger sets the logger for store operations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a store over dir, creating it if needed. baseURL is the
// externally reachable server root (e.g. the ngrok URL); artifact URLs
// are baseURL + "/audio/" + name.
func New(dir, baseURL string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact: directory required")
	}

	s := &Store{
		dir:        dir,
		baseURL:    strings.TrimRight(baseURL, "/"),
		ttl:        10 * time.Minute,
		maxCount:   1000,
		sweepEvery: time.Minute,
		logger:     slog.Default().With("component", "artifact"),
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("artifact: create directory: %w", err)
	}

	return s, nil
}

// Put writes audio to a freshly named file and returns its descriptor.
// Two Puts for the same callRef always yield distinct names.
func (s *Store) Put(audio []byte, format tts.AudioFormat, callRef string) (*Artifact, error) {
	name := sanitizeRef(callRef) + "-" + uuid.NewString() + format.Encoding.Ext()
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, audio, 0644); err != nil {
		return nil, fmt.Errorf("artifact: write %s: %w", name, err)
	}

	metrics.RecordArtifact(len(audio))
	s.logger.Debug("stored artifact", "name", name, "bytes", len(audio))

	return &Artifact{
		Name:        name,
		ContentType: format.Encoding.MIME(),
		Size:        int64(len(audio)),
		Stored:      time.Now(),
		url:         s.publicURL(name),
	}, nil
}

// Open returns a reader over the named artifact for serving. The
// caller closes the reader. Names containing path separators or parent
// references are rejected before touching the filesystem.
func (s *Store) Open(name string) (io.ReadCloser, *Artifact, error) {
	if !validName(name) {
		return nil, nil, ErrInvalidName
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("artifact: open %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("artifact: stat %s: %w", name, err)
	}

	return f, &Artifact{
		Name:        name,
		ContentType: mimeByExt(name),
		Size:        info.Size(),
		Stored:      info.ModTime(),
		url:         s.publicURL(name),
	}, nil
}

func (s *Store) publicURL(name string) string {
	return s.baseURL + "/audio/" + name
}

// validName accepts only names Put could have produced: no separators,
// no parent references, no hidden files.
func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return true
}

// sanitizeRef reduces a call reference to filename-safe characters.
// Twilio call SIDs are already safe; this guards against anything else
// reaching the store.
func sanitizeRef(ref string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return -1
		}
	}, ref)

	if cleaned == "" {
		cleaned = "call"
	}
	if len(cleaned) > 64 {
		cleaned = cleaned[:64]
	}
	return cleaned
}

// mimeByExt maps a stored file's extension back to its content type.
func mimeByExt(name string) string {
	switch filepath.Ext(name) {
	case ".mp3":
		return "audio/mpeg"
	case ".pcm":
		return "audio/pcm"
	case ".ulaw":
		return "audio/basic"
	default:
		return "application/octet-stream"
	}
}
