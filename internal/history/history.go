// Package history tracks the bounded, deduplicated sequence of visited
// route names and persists it for diagnostics and recovery fallback.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seancheick/Pharmaguide-sub006/internal/store"
)

// StorageKey is the fixed key of the persisted history record.
const StorageKey = "navigation_history"

// DefaultMaxSize bounds the sequence when no size is configured.
const DefaultMaxSize = 50

// Record is the persisted form of the history.
type Record struct {
	Routes    []string `json:"routes"`
	Timestamp int64    `json:"timestamp"` // Unix milliseconds
	SessionID string   `json:"sessionId"`
	UserID    string   `json:"userId,omitempty"`
}

// Tracker holds the in-memory history. Safe for concurrent use.
//
// No two adjacent entries are equal and the length never exceeds the
// configured maximum; the oldest entries are evicted first.
type Tracker struct {
	mu      sync.Mutex
	routes  []string
	maxSize int
	session string
	user    string
	version uint64

	kv             store.KV
	logger         *zap.Logger
	now            func() time.Time
	persistTimeout time.Duration

	writeMu sync.Mutex
	written uint64
	pending sync.WaitGroup
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMaxSize sets the maximum number of entries. Values < 1 are ignored.
func WithMaxSize(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxSize = n
		}
	}
}

// WithLogger sets the logger for persistence failures.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithNow sets the time source used for record timestamps.
func WithNow(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithPersistTimeout bounds each background write.
func WithPersistTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.persistTimeout = d
		}
	}
}

// New creates a tracker persisting to kv. A nil kv disables persistence.
func New(kv store.KV, opts ...Option) *Tracker {
	t := &Tracker{
		maxSize:        DefaultMaxSize,
		kv:             kv,
		logger:         zap.NewNop(),
		now:            time.Now,
		persistTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetIdentity scopes the persisted record to a session and user.
func (t *Tracker) SetIdentity(sessionID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = sessionID
	t.user = userID
}

// Add appends name unless it equals the last entry, evicting the oldest
// entries past the maximum size. Every append schedules a best-effort
// background write; failures are logged. Reports whether name was added.
func (t *Tracker) Add(name string) bool {
	if name == "" {
		return false
	}

	t.mu.Lock()
	if n := len(t.routes); n > 0 && t.routes[n-1] == name {
		t.mu.Unlock()
		return false
	}
	t.routes = append(t.routes, name)
	if over := len(t.routes) - t.maxSize; over > 0 {
		t.routes = append([]string(nil), t.routes[over:]...)
	}
	rec, version := t.recordLocked()
	t.mu.Unlock()

	if t.kv != nil {
		t.pending.Add(1)
		go func() {
			defer t.pending.Done()
			ctx, cancel := context.WithTimeout(context.Background(), t.persistTimeout)
			defer cancel()
			if err := t.write(ctx, rec, version); err != nil {
				t.logger.Warn("history persist failed",
					zap.String("route", name),
					zap.Error(err),
				)
			}
		}()
	}
	return true
}

// Routes returns a copy of the sequence, oldest first.
func (t *Tracker) Routes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.routes...)
}

// Last returns the most recent entry, or "" when empty.
func (t *Tracker) Last() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.routes) == 0 {
		return ""
	}
	return t.routes[len(t.routes)-1]
}

// Len returns the number of entries.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.routes)
}

// MaxSize returns the configured bound.
func (t *Tracker) MaxSize() int {
	return t.maxSize
}

// Persist writes the current record synchronously.
func (t *Tracker) Persist(ctx context.Context) error {
	if t.kv == nil {
		return nil
	}
	t.mu.Lock()
	rec, version := t.recordLocked()
	t.mu.Unlock()
	return t.write(ctx, rec, version)
}

// Load seeds the in-memory sequence from the persisted record. A record
// owned by a different user is ignored. A missing record is not an error.
func (t *Tracker) Load(ctx context.Context) error {
	if t.kv == nil {
		return nil
	}
	raw, ok, err := t.kv.Get(ctx, StorageKey)
	if err != nil || !ok {
		return err
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return fmt.Errorf("decode history record: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.user != "" && rec.UserID != "" && rec.UserID != t.user {
		t.logger.Debug("ignoring history of another user")
		return nil
	}
	t.routes = t.routes[:0]
	for _, name := range rec.Routes {
		if n := len(t.routes); name == "" || (n > 0 && t.routes[n-1] == name) {
			continue
		}
		t.routes = append(t.routes, name)
	}
	if over := len(t.routes) - t.maxSize; over > 0 {
		t.routes = append([]string(nil), t.routes[over:]...)
	}
	return nil
}

// Wait blocks until every scheduled background write has finished.
func (t *Tracker) Wait() {
	t.pending.Wait()
}

// Clear empties the sequence and removes the persisted record.
func (t *Tracker) Clear(ctx context.Context) error {
	t.mu.Lock()
	t.routes = nil
	t.version++
	version := t.version
	t.mu.Unlock()

	t.Wait()
	if t.kv == nil {
		return nil
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.written = version
	return t.kv.Remove(ctx, StorageKey)
}

func (t *Tracker) recordLocked() (Record, uint64) {
	t.version++
	return Record{
		Routes:    append([]string{}, t.routes...),
		Timestamp: t.now().UnixMilli(),
		SessionID: t.session,
		UserID:    t.user,
	}, t.version
}

// write stores rec unless a newer version already landed, so background
// writes finishing out of order never regress the stored record.
func (t *Tracker) write(ctx context.Context, rec Record, version uint64) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if version <= t.written {
		return nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode history record: %w", err)
	}
	if err := t.kv.Set(ctx, StorageKey, string(data)); err != nil {
		return err
	}
	t.written = version
	return nil
}
