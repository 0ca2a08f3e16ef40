package session

import (
	"dash2hlsd/internal/config"
	"dash2hlsd/internal/dash"
	"dash2hlsd/internal/download"
	"dash2hlsd/internal/errs"
	"dash2hlsd/internal/logger"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Manager is the concurrent directory of sessions keyed by stream id
// (§4.7). remove signals cancellation and awaits termination before
// returning; list and get return snapshots copied under the owning
// session's own lock, never a live reference.
type Manager struct {
	mu            sync.RWMutex
	sessions      map[string]*Session
	logger        logger.Logger
	dashClient    *dash.Client
	fetcher       *download.Fetcher
	outputRootDir string
}

// NewManager builds a Manager. outputRootDir is the parent directory
// under which each session gets its own id-named subdirectory when no
// per-stream output_dir override is configured.
func NewManager(log logger.Logger, outputRootDir string) *Manager {
	return &Manager{
		sessions:      make(map[string]*Session),
		logger:        log,
		dashClient:    dash.NewClient(log),
		fetcher:       download.NewFetcher(log),
		outputRootDir: outputRootDir,
	}
}

// Create normalizes cfg, builds a Session, and runs its starting phase.
// On failure the session is not retained in the manager.
func (m *Manager) Create(raw config.StreamConfig) (string, error) {
	cfg, err := config.Normalize(raw)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(m.outputRootDir, id)
	}

	sess := New(id, cfg, Deps{
		Logger:     m.logger,
		DashClient: m.dashClient,
		Fetcher:    m.fetcher,
	})

	if err := sess.Start(); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	return id, nil
}

// Get returns a snapshot of one session, or errs.KindNotFound.
func (m *Manager) Get(id string) (Snapshot, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, errs.NotFound("stream_not_found", nil)
	}
	return sess.Snapshot(), nil
}

// OutputDir returns the directory a session writes its playlists and
// segments under, for the control plane's static file server.
func (m *Manager) OutputDir(id string) (string, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return "", errs.NotFound("stream_not_found", nil)
	}
	return sess.cfg.OutputDir, nil
}

// List returns a snapshot of every session currently known to the
// manager.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(sessions))
	for _, sess := range sessions {
		snaps = append(snaps, sess.Snapshot())
	}
	return snaps
}

// Remove cancels the session's run loop, waits for it to exit, and
// drops it from the directory. Output files are left on disk.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return errs.NotFound("stream_not_found", nil)
	}
	sess.Stop()
	return nil
}

// Shutdown stops every session, for process shutdown.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, sess := range sessions {
		wg.Add(1)
		go func(sess *Session) {
			defer wg.Done()
			sess.Stop()
		}(sess)
	}
	wg.Wait()
}
