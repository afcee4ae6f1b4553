package recovery

import (
	"fmt"
	"time"
)

// StorageKey is the fixed key of the persisted snapshot.
const StorageKey = "navigation_state"

// Defaults for snapshot validation.
const (
	DefaultMaxAge  = 24 * time.Hour
	DefaultVersion = "1"

	// MaxClockSkew is how far in the future a snapshot timestamp may be
	// before it is rejected.
	MaxClockSkew = time.Minute
)

// Snapshot is the persisted navigation tree.
type Snapshot struct {
	State        *State   `json:"state"`
	Timestamp    int64    `json:"timestamp"` // Unix milliseconds
	Version      string   `json:"version"`
	UserID       string   `json:"userId,omitempty"`
	SessionID    string   `json:"sessionId"`
	RouteHistory []string `json:"routeHistory"`
	Metadata     Metadata `json:"metadata"`
}

// Metadata summarizes the session that produced a snapshot.
type Metadata struct {
	LastActiveRoute string `json:"lastActiveRoute"`
	TotalTimeSpent  int64  `json:"totalTimeSpent"` // milliseconds since session start
	NavigationCount int    `json:"navigationCount"`
}

// Time returns the snapshot timestamp.
func (s *Snapshot) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Reason names why a snapshot was rejected.
type Reason string

const (
	ReasonCorrupt      Reason = "corrupt"
	ReasonExpired      Reason = "expired"
	ReasonFuture       Reason = "future_timestamp"
	ReasonVersion      Reason = "version_mismatch"
	ReasonUser         Reason = "user_mismatch"
	ReasonUnknownRoute Reason = "unknown_route"
	ReasonEmpty        Reason = "empty_state"
)

// Rejection explains a failed check.
type Rejection struct {
	Reason Reason
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return fmt.Sprintf("snapshot rejected: %s", r.Reason)
	}
	return fmt.Sprintf("snapshot rejected: %s: %s", r.Reason, r.Detail)
}

// Check holds the inputs of snapshot validation.
type Check struct {
	Now     time.Time
	MaxAge  time.Duration
	Version string

	// UserID is the current user. Empty skips the identity check.
	UserID string

	// ValidRoutes, when non-nil, is the set of currently registered route
	// names; a snapshot naming any other route is rejected.
	ValidRoutes map[string]bool
}

// Validate applies, in order, the age, version, identity and route checks.
func (c Check) Validate(s *Snapshot) *Rejection {
	if s.State == nil || len(s.State.Routes) == 0 {
		return &Rejection{Reason: ReasonEmpty}
	}

	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	age := c.Now.Sub(s.Time())
	if age > maxAge {
		return &Rejection{Reason: ReasonExpired, Detail: fmt.Sprintf("age %s exceeds %s", age.Round(time.Second), maxAge)}
	}
	if -age > MaxClockSkew {
		return &Rejection{Reason: ReasonFuture, Detail: fmt.Sprintf("timestamp %s ahead", (-age).Round(time.Second))}
	}

	if s.Version != c.Version {
		return &Rejection{Reason: ReasonVersion, Detail: fmt.Sprintf("got %q, want %q", s.Version, c.Version)}
	}

	if c.UserID != "" && s.UserID != c.UserID {
		return &Rejection{Reason: ReasonUser}
	}

	if c.ValidRoutes != nil {
		for _, name := range s.State.RouteNames() {
			if !c.ValidRoutes[name] {
				return &Rejection{Reason: ReasonUnknownRoute, Detail: name}
			}
		}
	}
	return nil
}
