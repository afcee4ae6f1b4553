package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seancheick/Pharmaguide-sub006/internal/history"
	"github.com/seancheick/Pharmaguide-sub006/internal/store"
)

// DefaultThrottle is the minimum interval between snapshot writes made by
// Commit.
const DefaultThrottle = time.Second

// Manager owns the snapshot record of one app session.
// Thread-safety: all methods are safe for concurrent use.
type Manager struct {
	kv       store.KV
	history  *history.Tracker
	logger   *zap.Logger
	clock    Clock
	sessions SessionGenerator
	maxAge   time.Duration
	version  string
	throttle time.Duration

	mu           sync.Mutex
	userID       string
	sessionID    string
	sessionStart time.Time
	navCount     int
	lastSave     time.Time
	pending      *State
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithClock(c Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

func WithSessionGenerator(g SessionGenerator) Option {
	return func(m *Manager) {
		if g != nil {
			m.sessions = g
		}
	}
}

// WithHistory replaces the default history tracker.
func WithHistory(h *history.Tracker) Option {
	return func(m *Manager) {
		if h != nil {
			m.history = h
		}
	}
}

func WithMaxAge(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.maxAge = d
		}
	}
}

func WithVersion(v string) Option {
	return func(m *Manager) {
		if v != "" {
			m.version = v
		}
	}
}

// WithThrottle sets the minimum interval between Commit writes. Zero
// writes on every commit.
func WithThrottle(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.throttle = d
		}
	}
}

// NewManager creates a manager persisting to kv and starts a new session.
func NewManager(kv store.KV, opts ...Option) *Manager {
	m := &Manager{
		kv:       kv,
		logger:   zap.NewNop(),
		clock:    SystemClock{},
		sessions: UUIDv7Generator{},
		maxAge:   DefaultMaxAge,
		version:  DefaultVersion,
		throttle: DefaultThrottle,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.history == nil {
		m.history = history.New(kv, history.WithLogger(m.logger), history.WithNow(m.clock.Now))
	}
	m.startSession()
	return m
}

func (m *Manager) startSession() {
	m.sessionID = m.sessions.Generate()
	m.sessionStart = m.clock.Now()
	m.navCount = 0
	m.lastSave = time.Time{}
	m.pending = nil
	m.history.SetIdentity(m.sessionID, m.userID)
}

// SessionID returns the current session identifier.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// SetUser sets the owner of future snapshots and the identity checked on
// restore. Empty means signed out.
func (m *Manager) SetUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userID = userID
	m.history.SetIdentity(m.sessionID, userID)
}

// History returns the tracker fed by every commit.
func (m *Manager) History() *history.Tracker {
	return m.history
}

// Commit records a navigation. The leaf route always enters the history;
// the snapshot itself is written at most once per throttle interval and
// otherwise kept pending until the next Commit or Flush. Reports whether
// a snapshot was written.
func (m *Manager) Commit(ctx context.Context, s *State) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.navCount++
	if leaf, ok := s.LeafRoute(); ok {
		m.history.Add(leaf.Name)
	}

	now := m.clock.Now()
	if !m.lastSave.IsZero() && now.Sub(m.lastSave) < m.throttle {
		m.pending = s
		return false, nil
	}
	return true, m.saveLocked(ctx, s, now)
}

// Save writes a snapshot of s immediately.
func (m *Manager) Save(ctx context.Context, s *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.navCount++
	if leaf, ok := s.LeafRoute(); ok {
		m.history.Add(leaf.Name)
	}
	return m.saveLocked(ctx, s, m.clock.Now())
}

// Flush writes the state held back by throttling, if any.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return nil
	}
	return m.saveLocked(ctx, m.pending, m.clock.Now())
}

func (m *Manager) saveLocked(ctx context.Context, s *State, now time.Time) error {
	m.pending = nil
	m.lastSave = now
	if m.kv == nil {
		return nil
	}

	clean := Sanitize(s)
	leaf, _ := clean.LeafRoute()
	snap := Snapshot{
		State:        clean,
		Timestamp:    now.UnixMilli(),
		Version:      m.version,
		UserID:       m.userID,
		SessionID:    m.sessionID,
		RouteHistory: m.history.Routes(),
		Metadata: Metadata{
			LastActiveRoute: leaf.Name,
			TotalTimeSpent:  now.Sub(m.sessionStart).Milliseconds(),
			NavigationCount: m.navCount,
		},
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := m.kv.Set(ctx, StorageKey, string(data)); err != nil {
		return err
	}
	m.logger.Debug("snapshot saved",
		zap.String("route", leaf.Name),
		zap.Int("navigation_count", m.navCount),
	)
	return nil
}

// Peek reads the stored snapshot without validating it. A missing
// snapshot is (nil, nil).
func (m *Manager) Peek(ctx context.Context) (*Snapshot, error) {
	if m.kv == nil {
		return nil, nil
	}
	raw, ok, err := m.kv.Get(ctx, StorageKey)
	if err != nil || !ok {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, &Rejection{Reason: ReasonCorrupt, Detail: err.Error()}
	}
	return &snap, nil
}

// RestoreOptions configures one restore attempt.
type RestoreOptions struct {
	// Fallback is the route used when the snapshot is rejected. Empty
	// means restore nothing.
	Fallback string

	// ValidRoutes enables the route-validity check when non-nil.
	ValidRoutes []string
}

// Status is the outcome of a restore attempt.
type Status string

const (
	StatusRestored Status = "restored"
	StatusNone     Status = "none"
	StatusFallback Status = "fallback"
	StatusRejected Status = "rejected"
	StatusError    Status = "storage_error"
)

// Restoration is the result of Restore. State is nil when nothing should
// be restored.
type Restoration struct {
	Status    Status
	State     *State
	Snapshot  *Snapshot
	Rejection *Rejection
	Err       error
}

// Restore reads and validates the stored snapshot. A rejected snapshot is
// always removed from storage. Storage failures are logged and reported
// as "nothing to restore", never returned.
func (m *Manager) Restore(ctx context.Context, opts RestoreOptions) Restoration {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, err := m.Peek(ctx)
	var rej *Rejection
	switch {
	case err == nil && snap == nil:
		return Restoration{Status: StatusNone}
	case err != nil && !errors.As(err, &rej):
		m.logger.Warn("snapshot read failed", zap.Error(err))
		return Restoration{Status: StatusError, Err: err}
	}

	if rej == nil {
		check := Check{
			Now:     m.clock.Now(),
			MaxAge:  m.maxAge,
			Version: m.version,
			UserID:  m.userID,
		}
		if opts.ValidRoutes != nil {
			check.ValidRoutes = make(map[string]bool, len(opts.ValidRoutes))
			for _, name := range opts.ValidRoutes {
				check.ValidRoutes[name] = true
			}
		}
		rej = check.Validate(snap)
	}

	if rej == nil {
		m.logger.Info("snapshot restored",
			zap.String("route", snap.Metadata.LastActiveRoute),
			zap.Time("saved_at", snap.Time()),
		)
		return Restoration{Status: StatusRestored, State: snap.State, Snapshot: snap}
	}

	m.logger.Info("snapshot rejected",
		zap.String("reason", string(rej.Reason)),
		zap.String("detail", rej.Detail),
	)
	if err := m.kv.Remove(ctx, StorageKey); err != nil {
		m.logger.Warn("snapshot clear failed", zap.Error(err))
	}

	if opts.Fallback != "" {
		return Restoration{Status: StatusFallback, State: SingleRoute(opts.Fallback, nil), Snapshot: snap, Rejection: rej}
	}
	return Restoration{Status: StatusRejected, Snapshot: snap, Rejection: rej}
}

// Clear removes the stored snapshot.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	if m.kv == nil {
		return nil
	}
	return m.kv.Remove(ctx, StorageKey)
}

// Logout deletes the snapshot and history records, clears the in-memory
// history and starts a fresh anonymous session.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	if m.kv != nil {
		firstErr = m.kv.Remove(ctx, StorageKey)
	}
	if err := m.history.Clear(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	m.userID = ""
	m.startSession()
	if firstErr != nil {
		m.logger.Warn("logout cleanup failed", zap.Error(firstErr))
	}
	return firstErr
}
